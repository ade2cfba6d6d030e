// Package compressor packs the sparse two-dimensional tables of an LR parser into smaller one-dimensional
// arrays while keeping constant-time lookups.
package compressor

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// Matrix is a dense row-major table.
type Matrix struct {
	cells []int
	rows  int
	cols  int
}

func NewMatrix(cells []int, cols int) (*Matrix, error) {
	switch {
	case len(cells) == 0:
		return nil, fmt.Errorf("a matrix needs at least one cell")
	case cols <= 0:
		return nil, fmt.Errorf("invalid column count: %v", cols)
	case len(cells)%cols != 0:
		return nil, fmt.Errorf("%v cells cannot be split into rows of %v columns", len(cells), cols)
	}
	return &Matrix{
		cells: cells,
		rows:  len(cells) / cols,
		cols:  cols,
	}, nil
}

func (m *Matrix) row(r int) []int {
	return m.cells[r*m.cols : (r+1)*m.cols]
}

// Table is a compressed matrix.
type Table interface {
	// At returns the cell of the original matrix. Indexes outside the matrix are an error.
	At(row, col int) (int, error)

	// Dims returns the row and column counts of the original matrix.
	Dims() (int, int)

	// Size returns the number of integers the compressed table holds.
	Size() int
}

var (
	_ Table = &SharedRows{}
	_ Table = &Displaced{}
)

type dims struct {
	rows int
	cols int
}

func (d dims) Dims() (int, int) {
	return d.rows, d.cols
}

func (d dims) check(row, col int) error {
	if row < 0 || row >= d.rows || col < 0 || col >= d.cols {
		return fmt.Errorf("cell [%v, %v] is outside a %vx%v table", row, col, d.rows, d.cols)
	}
	return nil
}

// SharedRows stores each distinct row once. It suits goto tables, where many states share a row.
type SharedRows struct {
	dims
	distinct []int
	index    []int
}

func ShareRows(m *Matrix) *SharedRows {
	t := &SharedRows{
		dims:  dims{rows: m.rows, cols: m.cols},
		index: make([]int, m.rows),
	}
	seen := map[string]int{}
	key := make([]byte, 0, m.cols*binary.MaxVarintLen64)
	for r := 0; r < m.rows; r++ {
		key = key[:0]
		for _, v := range m.row(r) {
			key = binary.AppendVarint(key, int64(v))
		}
		n, ok := seen[string(key)]
		if !ok {
			n = len(t.distinct) / m.cols
			seen[string(key)] = n
			t.distinct = append(t.distinct, m.row(r)...)
		}
		t.index[r] = n
	}
	return t
}

func (t *SharedRows) At(row, col int) (int, error) {
	if err := t.check(row, col); err != nil {
		return 0, err
	}
	return t.distinct[t.index[row]*t.cols+col], nil
}

// DistinctRows returns the number of rows actually stored.
func (t *SharedRows) DistinctRows() int {
	return len(t.distinct) / t.cols
}

func (t *SharedRows) Size() int {
	return len(t.distinct) + len(t.index)
}

const noOwner = -1

// Displaced overlays the rows of a matrix, each shifted by its own offset, so that the non-empty cells of
// different rows never share a slot. owner records the row each slot belongs to; a slot owned by another row
// reads as the empty value. It suits action tables, whose rows are mostly empty.
type Displaced struct {
	dims
	empty  int
	cells  []int
	owner  []int
	offset []int
}

func Displace(m *Matrix, empty int) *Displaced {
	t := &Displaced{
		dims:   dims{rows: m.rows, cols: m.cols},
		empty:  empty,
		offset: make([]int, m.rows),
	}

	type occupied struct {
		row  int
		cols []int
	}
	var rows []occupied
	for r := 0; r < m.rows; r++ {
		o := occupied{row: r}
		for c, v := range m.row(r) {
			if v != empty {
				o.cols = append(o.cols, c)
			}
		}
		if len(o.cols) > 0 {
			rows = append(rows, o)
		}
	}
	// Dense rows go first; sparse rows then fill the gaps they leave.
	sort.SliceStable(rows, func(i, j int) bool {
		return len(rows[i].cols) > len(rows[j].cols)
	})

	fits := func(off int, cols []int) bool {
		for _, c := range cols {
			if off+c < len(t.owner) && t.owner[off+c] != noOwner {
				return false
			}
		}
		return true
	}
	for _, o := range rows {
		off := 0
		for !fits(off, o.cols) {
			off++
		}
		for end := off + m.cols; len(t.cells) < end; {
			t.cells = append(t.cells, empty)
			t.owner = append(t.owner, noOwner)
		}
		row := m.row(o.row)
		for _, c := range o.cols {
			t.cells[off+c] = row[c]
			t.owner[off+c] = o.row
		}
		t.offset[o.row] = off
	}

	return t
}

func (t *Displaced) At(row, col int) (int, error) {
	if err := t.check(row, col); err != nil {
		return t.empty, err
	}
	i := t.offset[row] + col
	if i >= len(t.owner) || t.owner[i] != row {
		return t.empty, nil
	}
	return t.cells[i], nil
}

func (t *Displaced) Size() int {
	return len(t.cells) + len(t.owner) + len(t.offset)
}
