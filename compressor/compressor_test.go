package compressor

import (
	"fmt"
	"testing"
)

const x = 0

func compressAll(t *testing.T, cells []int, cols int) []Table {
	t.Helper()

	m, err := NewMatrix(cells, cols)
	if err != nil {
		t.Fatal(err)
	}
	return []Table{
		ShareRows(m),
		Displace(m, x),
	}
}

func TestTable_At(t *testing.T) {
	tests := []struct {
		cells []int
		rows  int
		cols  int
	}{
		{
			cells: []int{
				1, 1, 1, 1, 1,
				1, 1, 1, 1, 1,
				1, 1, 1, 1, 1,
			},
			rows: 3,
			cols: 5,
		},
		{
			cells: []int{
				x, x, x, x, x,
				x, x, x, x, x,
				x, x, x, x, x,
			},
			rows: 3,
			cols: 5,
		},
		{
			cells: []int{
				1, 1, 1, 1, 1,
				x, x, x, x, x,
				1, 1, 1, 1, 1,
			},
			rows: 3,
			cols: 5,
		},
		{
			cells: []int{
				1, x, 1, 1, 1,
				1, 1, x, 1, 1,
				1, 1, 1, x, 1,
			},
			rows: 3,
			cols: 5,
		},
		{
			cells: []int{
				x, x, 7, x,
				x, 8, x, x,
			},
			rows: 2,
			cols: 4,
		},
	}
	for i, tt := range tests {
		dup := append([]int{}, tt.cells...)
		for _, tab := range compressAll(t, tt.cells, tt.cols) {
			t.Run(fmt.Sprintf("%T #%v", tab, i), func(t *testing.T) {
				rows, cols := tab.Dims()
				if rows != tt.rows || cols != tt.cols {
					t.Fatalf("unexpected dimensions; want: %vx%v, got: %vx%v", tt.rows, tt.cols, rows, cols)
				}
				for r := 0; r < rows; r++ {
					for c := 0; c < cols; c++ {
						v, err := tab.At(r, c)
						if err != nil {
							t.Fatal(err)
						}
						if want := tt.cells[r*cols+c]; v != want {
							t.Fatalf("unexpected cell [%v, %v]; want: %v, got: %v", r, c, want, v)
						}
					}
				}

				for _, idx := range [][2]int{{0, -1}, {-1, 0}, {rows - 1, cols}, {rows, cols - 1}} {
					if _, err := tab.At(idx[0], idx[1]); err == nil {
						t.Fatalf("an error was expected for %v", idx)
					}
				}

				for j := range dup {
					if tt.cells[j] != dup[j] {
						t.Fatalf("the matrix was modified at %v; want: %v, got: %v", j, dup[j], tt.cells[j])
					}
				}
			})
		}
	}
}

func TestNewMatrix(t *testing.T) {
	tests := []struct {
		cells []int
		cols  int
	}{
		{cells: nil, cols: 1},
		{cells: []int{1, 2}, cols: 0},
		{cells: []int{1, 2, 3}, cols: 2},
	}
	for _, tt := range tests {
		if _, err := NewMatrix(tt.cells, tt.cols); err == nil {
			t.Errorf("an error was expected; cells: %v, cols: %v", tt.cells, tt.cols)
		}
	}
}

func TestDisplace_SparseRows(t *testing.T) {
	cells := []int{
		x, x, 1, x, x, x,
		2, x, x, x, x, x,
		x, x, x, x, x, 3,
		x, 4, x, 5, x, x,
		x, x, x, x, x, x,
	}
	m, err := NewMatrix(cells, 6)
	if err != nil {
		t.Fatal(err)
	}
	tab := Displace(m, x)
	for r := 0; r < 5; r++ {
		for c := 0; c < 6; c++ {
			v, err := tab.At(r, c)
			if err != nil {
				t.Fatal(err)
			}
			if want := cells[r*6+c]; v != want {
				t.Fatalf("unexpected cell [%v, %v]; want: %v, got: %v", r, c, want, v)
			}
		}
	}
	// Every non-empty cell fits into the first six slots.
	if len(tab.cells) != 6 {
		t.Fatalf("unexpected slot count; want: 6, got: %v", len(tab.cells))
	}
}

func TestShareRows_RepeatedRows(t *testing.T) {
	m, err := NewMatrix([]int{
		1, 2, 3,
		0, 0, 0,
		1, 2, 3,
		0, 0, 0,
	}, 3)
	if err != nil {
		t.Fatal(err)
	}
	tab := ShareRows(m)
	if n := tab.DistinctRows(); n != 2 {
		t.Fatalf("unexpected distinct rows; want: 2, got: %v", n)
	}
	if size := tab.Size(); size != 10 {
		t.Fatalf("unexpected size; want: 10, got: %v", size)
	}
}
