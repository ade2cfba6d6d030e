package grammar

import (
	"errors"
	"strings"
	"testing"

	verr "github.com/nihei9/scoreformula/error"
)

func TestBuilder_SemanticErrors(t *testing.T) {
	tests := []struct {
		caption string
		declare func(b *Builder)
		errs    []*SemanticError
	}{
		{
			caption: "a grammar without productions is invalid",
			declare: func(b *Builder) {
				b.Terminals("a")
			},
			errs: []*SemanticError{semErrNoProduction},
		},
		{
			caption: "a terminal must not be declared twice",
			declare: func(b *Builder) {
				b.Terminals("a", "a")
				b.Production("s", "a")
			},
			errs: []*SemanticError{semErrDuplicateTerminal},
		},
		{
			caption: "a terminal must not be named <eof>",
			declare: func(b *Builder) {
				b.Terminals("<eof>", "a")
				b.Production("s", "a")
			},
			errs: []*SemanticError{semErrInvalidName},
		},
		{
			caption: "a name must not be both a terminal and a non-terminal",
			declare: func(b *Builder) {
				b.Terminals("a")
				b.Production("s", "a")
				b.Production("a", "a")
			},
			errs: []*SemanticError{semErrDuplicateName},
		},
		{
			caption: "the start symbol must have a production",
			declare: func(b *Builder) {
				b.Terminals("a")
				b.Start("x")
				b.Production("s", "a")
			},
			errs: []*SemanticError{semErrNoStart},
		},
		{
			caption: "a RHS must not contain undefined symbols",
			declare: func(b *Builder) {
				b.Terminals("a")
				b.Production("s", "a", "b")
			},
			errs: []*SemanticError{semErrUndefinedSym},
		},
		{
			caption: "a production must not be declared twice",
			declare: func(b *Builder) {
				b.Terminals("a")
				b.Production("s", "a")
				b.Production("s", "a")
			},
			errs: []*SemanticError{semErrDuplicateProduction},
		},
		{
			caption: "a production unreachable from the start symbol is an error",
			declare: func(b *Builder) {
				b.Terminals("a")
				b.Production("s", "a")
				b.Production("t", "a")
			},
			errs: []*SemanticError{semErrUnusedProduction},
		},
		{
			caption: "a terminal that no production uses is an error",
			declare: func(b *Builder) {
				b.Terminals("a", "b")
				b.Production("s", "a")
			},
			errs: []*SemanticError{semErrUnusedTerminal},
		},
		{
			caption: "all failed checks are reported together",
			declare: func(b *Builder) {
				b.Terminals("a", "a")
				b.Production("s", "a", "x")
				b.Production("s", "a", "x")
			},
			errs: []*SemanticError{semErrDuplicateTerminal, semErrUndefinedSym, semErrUndefinedSym, semErrDuplicateProduction},
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			b := NewBuilder("test")
			tt.declare(b)
			gram, err := b.Build()
			if gram != nil {
				t.Fatal("a grammar was returned with an error")
			}
			var errs verr.FormulaErrors
			if !errors.As(err, &errs) {
				t.Fatalf("unexpected error; want: verr.FormulaErrors, got: %#v", err)
			}
			if len(errs) != len(tt.errs) {
				t.Fatalf("unexpected error count; want: %v, got: %v\n%v", len(tt.errs), len(errs), err)
			}
			for i, e := range tt.errs {
				if errs[i].Cause != e {
					t.Errorf("#%v: unexpected cause; want: %v, got: %v", i, e, errs[i].Cause)
				}
				if !errors.Is(err, e) {
					t.Errorf("#%v: errors.Is must find %v", i, e)
				}
			}
		})
	}
}

func TestBuilder_ProductionNumbers(t *testing.T) {
	b := NewBuilder("test")
	b.Terminals("a", "b")
	n1 := b.Production("s", "x", "b")
	n2 := b.Production("x", "a")
	n3 := b.Production("x")
	if n1 != 2 || n2 != 3 || n3 != 4 {
		t.Fatalf("unexpected production numbers: %v, %v, %v", n1, n2, n3)
	}
	gram, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if gram.Name() != "test" {
		t.Fatalf("unexpected name: %v", gram.Name())
	}

	tab, _, err := Compile(gram)
	if err != nil {
		t.Fatal(err)
	}
	if tab.RHSLength(n1) != 2 || tab.RHSLength(n2) != 1 || tab.RHSLength(n3) != 0 {
		t.Fatalf("unexpected RHS lengths: %v, %v, %v", tab.RHSLength(n1), tab.RHSLength(n2), tab.RHSLength(n3))
	}
	if tab.LHS(n2) != tab.LHS(n3) {
		t.Fatalf("productions of the same non-terminal must have the same LHS")
	}
	if tab.NonTerminalName(tab.LHS(n2)) != "x" {
		t.Fatalf("unexpected LHS name: %v", tab.NonTerminalName(tab.LHS(n2)))
	}
	if !accepts(t, tab, []string{"b"}) || !accepts(t, tab, []string{"a", "b"}) || accepts(t, tab, []string{"a"}) {
		t.Fatalf("a table built from an empty production is broken")
	}
}

func TestParseAutomatonClass(t *testing.T) {
	for _, s := range []string{"lalr1", "LR1", "slr1"} {
		if _, err := ParseAutomatonClass(s); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if _, err := ParseAutomatonClass("lr0"); err == nil {
		t.Errorf("an unknown class must be an error")
	}
}

func TestWriteReport(t *testing.T) {
	tests := []struct {
		caption  string
		declare  func(b *Builder)
		class    AutomatonClass
		contains []string
	}{
		{
			caption: "a grammar without conflicts",
			declare: declareExpr,
			class:   ClassLALR1,
			contains: []string{
				"No conflict",
				"accept      on <eof>",
				"expr → expr add term",
				"factor → l_paren ・ expr r_paren",
				"## State 11",
			},
		},
		{
			caption: "a grammar with a conflict",
			declare: declareAmbiguous,
			class:   ClassLALR1,
			contains: []string{
				"1 conflict occurred.",
				"shift/reduce conflict on add",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			gram := newTestGrammar(t, tt.declare)
			_, report, _ := Compile(gram, Class(tt.class), EnableReporting())
			if report == nil {
				t.Fatal("a report was not generated")
			}
			var b strings.Builder
			if err := WriteReport(&b, report); err != nil {
				t.Fatal(err)
			}
			out := b.String()
			for _, s := range tt.contains {
				if !strings.Contains(out, s) {
					t.Errorf("a report doesn't contain %q\n%v", s, out)
				}
			}
		})
	}
}
