package symbol

import "testing"

func TestTable(t *testing.T) {
	tab := NewTable()
	_, _ = tab.RegisterStart("formula'")
	_, _ = tab.RegisterNonTerminal("formula")
	_, _ = tab.RegisterNonTerminal("expr")
	_, _ = tab.RegisterNonTerminal("term")
	_, _ = tab.RegisterTerminal("number")
	_, _ = tab.RegisterTerminal("+")
	_, _ = tab.RegisterTerminal("*")
	_, _ = tab.RegisterTerminal("(")
	_, _ = tab.RegisterTerminal(")")

	nonTermNames := []string{
		"", // nil
		"formula'",
		"formula",
		"expr",
		"term",
	}

	termNames := []string{
		"",      // nil
		NameEOF, // EOF
		"number",
		"+",
		"*",
		"(",
		")",
	}

	tests := []struct {
		name          string
		isStart       bool
		isNonTerminal bool
		isTerminal    bool
	}{
		{
			name:          "formula'",
			isStart:       true,
			isNonTerminal: true,
		},
		{
			name:          "expr",
			isNonTerminal: true,
		},
		{
			name:          "term",
			isNonTerminal: true,
		},
		{
			name:       "number",
			isTerminal: true,
		},
		{
			name:       "+",
			isTerminal: true,
		},
		{
			name:       ")",
			isTerminal: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sym, ok := tab.Lookup(tt.name)
			if !ok {
				t.Fatalf("symbol was not found")
			}
			testSymbolProperty(t, sym, false, tt.isStart, false, tt.isNonTerminal, tt.isTerminal)
			if name := tab.Name(sym); name != tt.name {
				t.Fatalf("unexpected name; want: %v, got: %v", tt.name, name)
			}
		})
	}

	t.Run("EOF", func(t *testing.T) {
		testSymbolProperty(t, SymbolEOF, false, false, true, false, true)
		if sym, ok := tab.Lookup(NameEOF); !ok || sym != SymbolEOF {
			t.Fatalf("EOF must be registered by default; got: %v", sym)
		}
	})

	t.Run("Nil", func(t *testing.T) {
		testSymbolProperty(t, SymbolNil, true, false, false, false, false)
	})

	t.Run("names of non-terminals", func(t *testing.T) {
		testNames(t, nonTermNames, tab.NonTerminalNames())
		if tab.NonTerminalCount() != len(nonTermNames) {
			t.Fatalf("unexpected non-terminal count; want: %v, got: %v", len(nonTermNames), tab.NonTerminalCount())
		}
	})

	t.Run("names of terminals", func(t *testing.T) {
		testNames(t, termNames, tab.TerminalNames())
		if tab.TerminalCount() != len(termNames) {
			t.Fatalf("unexpected terminal count; want: %v, got: %v", len(termNames), tab.TerminalCount())
		}
	})

	t.Run("terminal symbols are ordered by number", func(t *testing.T) {
		syms := tab.Terminals()
		if len(syms) != len(termNames)-1 {
			t.Fatalf("unexpected terminal count; want: %v, got: %v", len(termNames)-1, len(syms))
		}
		for i, sym := range syms {
			if sym.Num().Int() != i+1 {
				t.Fatalf("unexpected terminal order; #%v is %v", i, sym)
			}
		}
	})

	t.Run("a name cannot be both a terminal and a non-terminal", func(t *testing.T) {
		if _, err := tab.RegisterNonTerminal("number"); err == nil {
			t.Fatalf("an error was expected")
		}
		if _, err := tab.RegisterTerminal("expr"); err == nil {
			t.Fatalf("an error was expected")
		}
	})

	t.Run("registering a name twice returns the same symbol", func(t *testing.T) {
		s1, _ := tab.Lookup("expr")
		s2, err := tab.RegisterNonTerminal("expr")
		if err != nil {
			t.Fatal(err)
		}
		if s1 != s2 {
			t.Fatalf("unexpected symbol; want: %v, got: %v", s1, s2)
		}
	})
}

func testNames(t *testing.T, expected, actual []string) {
	t.Helper()

	if len(actual) != len(expected) {
		t.Fatalf("unexpected name count; want: %v (%#v), got: %v (%#v)", len(expected), expected, len(actual), actual)
	}
	for i, name := range actual {
		if name != expected[i] {
			t.Fatalf("unexpected name; want: %v, got: %v", expected[i], name)
		}
	}
}

func testSymbolProperty(t *testing.T, sym Symbol, isNil, isStart, isEOF, isNonTerminal, isTerminal bool) {
	t.Helper()

	if v := sym.IsNil(); v != isNil {
		t.Fatalf("isNil property is mismatched; want: %v, got: %v", isNil, v)
	}
	if v := sym.IsStart(); v != isStart {
		t.Fatalf("isStart property is mismatched; want: %v, got: %v", isStart, v)
	}
	if v := sym.IsEOF(); v != isEOF {
		t.Fatalf("isEOF property is mismatched; want: %v, got: %v", isEOF, v)
	}
	if v := sym.IsNonTerminal(); v != isNonTerminal {
		t.Fatalf("isNonTerminal property is mismatched; want: %v, got: %v", isNonTerminal, v)
	}
	if v := sym.IsTerminal(); v != isTerminal {
		t.Fatalf("isTerminal property is mismatched; want: %v, got: %v", isTerminal, v)
	}
}
