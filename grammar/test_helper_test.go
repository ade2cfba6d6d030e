package grammar

import (
	"testing"

	"github.com/nihei9/scoreformula/grammar/symbol"
)

// newExprGrammar builds the classic expression grammar:
//
//	expr   → expr add term | term
//	term   → term mul factor | factor
//	factor → l_paren expr r_paren | id
func newExprGrammar(t *testing.T) *Grammar {
	t.Helper()

	return newTestGrammar(t, func(b *Builder) {
		b.Terminals("add", "mul", "l_paren", "r_paren", "id")
		b.Production("expr", "expr", "add", "term")
		b.Production("expr", "term")
		b.Production("term", "term", "mul", "factor")
		b.Production("term", "factor")
		b.Production("factor", "l_paren", "expr", "r_paren")
		b.Production("factor", "id")
	})
}

func newTestGrammar(t *testing.T, declare func(b *Builder)) *Grammar {
	t.Helper()

	b := NewBuilder("test")
	declare(b)
	gram, err := b.Build()
	if err != nil {
		t.Fatalf("failed to build a grammar: %v", err)
	}
	return gram
}

type testSymbolGenerator func(text string) symbol.Symbol

func newTestSymbolGenerator(t *testing.T, symTab *symbol.Table) testSymbolGenerator {
	return func(text string) symbol.Symbol {
		t.Helper()

		sym, ok := symTab.Lookup(text)
		if !ok {
			t.Fatalf("symbol was not found: %v", text)
		}
		return sym
	}
}

type testProductionGenerator func(lhs string, rhs ...string) *production

// newTestProductionGenerator returns the productions registered in gram, so their numbers are set.
func newTestProductionGenerator(t *testing.T, gram *Grammar, genSym testSymbolGenerator) testProductionGenerator {
	return func(lhs string, rhs ...string) *production {
		t.Helper()

		rhsSym := []symbol.Symbol{}
		for _, text := range rhs {
			rhsSym = append(rhsSym, genSym(text))
		}
		prod, ok := gram.productionSet.findByID(genProductionID(genSym(lhs), rhsSym))
		if !ok {
			t.Fatalf("a production was not found: %v → %v", lhs, rhs)
		}

		return prod
	}
}

type testLR0ItemGenerator func(lhs string, dot int, rhs ...string) *lrItem

func newTestLR0ItemGenerator(t *testing.T, genProd testProductionGenerator) testLR0ItemGenerator {
	return func(lhs string, dot int, rhs ...string) *lrItem {
		t.Helper()

		prod := genProd(lhs, rhs...)
		item, err := newLR0Item(prod, dot)
		if err != nil {
			t.Fatalf("failed to create a LR0 item: %v", err)
		}

		return item
	}
}

func withLookAhead(item *lrItem, lookAhead ...symbol.Symbol) *lrItem {
	item = item.copy()
	if item.lookAhead == nil {
		item.lookAhead = newLookAhead()
	}
	for _, a := range lookAhead {
		item.lookAhead.Insert(a.Num().Int())
	}
	return item
}

// accepts runs the table over a sentence of terminal names and reports whether the table accepts it.
func accepts(t *testing.T, tab *ParsingTable, sentence []string) bool {
	t.Helper()

	stack := []int{tab.InitialState()}
	pos := 0
	for steps := 0; steps < 10000; steps++ {
		term := tab.EOF()
		if pos < len(sentence) {
			n, ok := tab.TerminalNum(sentence[pos])
			if !ok {
				t.Fatalf("unknown terminal: %v", sentence[pos])
			}
			term = n
		}

		act, next, prod := tab.Action(stack[len(stack)-1], term)
		switch act {
		case ActionTypeShift:
			stack = append(stack, next)
			pos++
		case ActionTypeReduce:
			stack = stack[:len(stack)-tab.RHSLength(prod)]
			s, ok := tab.GoTo(stack[len(stack)-1], tab.LHS(prod))
			if !ok {
				t.Fatalf("goto not found; state: %v, production: %v", stack[len(stack)-1], prod)
			}
			stack = append(stack, s)
		case ActionTypeAccept:
			return true
		default:
			return false
		}
	}
	t.Fatalf("too many steps")
	return false
}
