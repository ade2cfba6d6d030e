package grammar

import (
	"testing"

	"github.com/nihei9/scoreformula/grammar/symbol"
)

type expectedLRState struct {
	kernelItems    []*lrItem
	nextStates     map[symbol.Symbol][]*lrItem
	reducibleProds []*production
}

func TestGenLR0Automaton(t *testing.T) {
	gram := newExprGrammar(t)

	automaton, err := genLR0Automaton(gram.productionSet, gram.augmentedStartSymbol)
	if err != nil {
		t.Fatalf("failed to create a LR0 automaton: %v", err)
	}
	if automaton == nil {
		t.Fatalf("genLR0Automaton returns nil without any error")
	}

	initialState, ok := automaton.find(automaton.initialState)
	if !ok {
		t.Fatalf("failed to get an initial status: %v", automaton.initialState)
	}
	if initialState.num != stateNumInitial {
		t.Fatalf("the initial state must be numbered %v; got: %v", stateNumInitial, initialState.num)
	}

	genSym := newTestSymbolGenerator(t, gram.symbolTable)
	genProd := newTestProductionGenerator(t, gram, genSym)
	genLR0Item := newTestLR0ItemGenerator(t, genProd)

	expectedKernels := map[int][]*lrItem{
		0: {
			genLR0Item("expr'", 0, "expr"),
		},
		1: {
			genLR0Item("expr'", 1, "expr"),
			genLR0Item("expr", 1, "expr", "add", "term"),
		},
		2: {
			genLR0Item("expr", 1, "term"),
			genLR0Item("term", 1, "term", "mul", "factor"),
		},
		3: {
			genLR0Item("term", 1, "factor"),
		},
		4: {
			genLR0Item("factor", 1, "l_paren", "expr", "r_paren"),
		},
		5: {
			genLR0Item("factor", 1, "id"),
		},
		6: {
			genLR0Item("expr", 2, "expr", "add", "term"),
		},
		7: {
			genLR0Item("term", 2, "term", "mul", "factor"),
		},
		8: {
			genLR0Item("expr", 1, "expr", "add", "term"),
			genLR0Item("factor", 2, "l_paren", "expr", "r_paren"),
		},
		9: {
			genLR0Item("expr", 3, "expr", "add", "term"),
			genLR0Item("term", 1, "term", "mul", "factor"),
		},
		10: {
			genLR0Item("term", 3, "term", "mul", "factor"),
		},
		11: {
			genLR0Item("factor", 3, "l_paren", "expr", "r_paren"),
		},
	}

	expectedStates := []*expectedLRState{
		{
			kernelItems: expectedKernels[0],
			nextStates: map[symbol.Symbol][]*lrItem{
				genSym("expr"):    expectedKernels[1],
				genSym("term"):    expectedKernels[2],
				genSym("factor"):  expectedKernels[3],
				genSym("l_paren"): expectedKernels[4],
				genSym("id"):      expectedKernels[5],
			},
		},
		{
			kernelItems: expectedKernels[1],
			nextStates: map[symbol.Symbol][]*lrItem{
				genSym("add"): expectedKernels[6],
			},
			reducibleProds: []*production{
				genProd("expr'", "expr"),
			},
		},
		{
			kernelItems: expectedKernels[2],
			nextStates: map[symbol.Symbol][]*lrItem{
				genSym("mul"): expectedKernels[7],
			},
			reducibleProds: []*production{
				genProd("expr", "term"),
			},
		},
		{
			kernelItems: expectedKernels[3],
			nextStates:  map[symbol.Symbol][]*lrItem{},
			reducibleProds: []*production{
				genProd("term", "factor"),
			},
		},
		{
			kernelItems: expectedKernels[4],
			nextStates: map[symbol.Symbol][]*lrItem{
				genSym("expr"):    expectedKernels[8],
				genSym("term"):    expectedKernels[2],
				genSym("factor"):  expectedKernels[3],
				genSym("l_paren"): expectedKernels[4],
				genSym("id"):      expectedKernels[5],
			},
		},
		{
			kernelItems: expectedKernels[5],
			nextStates:  map[symbol.Symbol][]*lrItem{},
			reducibleProds: []*production{
				genProd("factor", "id"),
			},
		},
		{
			kernelItems: expectedKernels[6],
			nextStates: map[symbol.Symbol][]*lrItem{
				genSym("term"):    expectedKernels[9],
				genSym("factor"):  expectedKernels[3],
				genSym("l_paren"): expectedKernels[4],
				genSym("id"):      expectedKernels[5],
			},
		},
		{
			kernelItems: expectedKernels[7],
			nextStates: map[symbol.Symbol][]*lrItem{
				genSym("factor"):  expectedKernels[10],
				genSym("l_paren"): expectedKernels[4],
				genSym("id"):      expectedKernels[5],
			},
		},
		{
			kernelItems: expectedKernels[8],
			nextStates: map[symbol.Symbol][]*lrItem{
				genSym("add"):     expectedKernels[6],
				genSym("r_paren"): expectedKernels[11],
			},
		},
		{
			kernelItems: expectedKernels[9],
			nextStates: map[symbol.Symbol][]*lrItem{
				genSym("mul"): expectedKernels[7],
			},
			reducibleProds: []*production{
				genProd("expr", "expr", "add", "term"),
			},
		},
		{
			kernelItems: expectedKernels[10],
			nextStates:  map[symbol.Symbol][]*lrItem{},
			reducibleProds: []*production{
				genProd("term", "term", "mul", "factor"),
			},
		},
		{
			kernelItems: expectedKernels[11],
			nextStates:  map[symbol.Symbol][]*lrItem{},
			reducibleProds: []*production{
				genProd("factor", "l_paren", "expr", "r_paren"),
			},
		},
	}

	testLRAutomaton(t, expectedStates, automaton)
}

func TestGenLR0Automaton_NumbersStatesDensely(t *testing.T) {
	gram := newExprGrammar(t)

	automaton, err := genLR0Automaton(gram.productionSet, gram.augmentedStartSymbol)
	if err != nil {
		t.Fatal(err)
	}
	for i, s := range automaton.states {
		if s.num.Int() != i {
			t.Fatalf("state #%v is numbered %v", i, s.num)
		}
		for sym, next := range s.next {
			if _, ok := automaton.find(next); !ok {
				t.Fatalf("state #%v has a transition on %v to an unknown state", i, sym)
			}
		}
	}
}

func testLRAutomaton(t *testing.T, expected []*expectedLRState, automaton *lrAutomaton) {
	t.Helper()

	if len(automaton.states) != len(expected) {
		t.Errorf("state count is mismatched; want: %v, got: %v", len(expected), len(automaton.states))
	}

	for i, eState := range expected {
		k, err := newKernel(eState.kernelItems)
		if err != nil {
			t.Fatalf("failed to create a kernel item: %v", err)
		}

		state, ok := automaton.find(k.stateID())
		if !ok {
			t.Fatalf("a state was not found; expected state #%v", i)
		}

		testLRState(t, k, eState, state)
	}
}

func testLRState(t *testing.T, expectedKernel *kernel, expected *expectedLRState, actual *lrState) {
	t.Helper()

	if len(actual.items) != len(expected.kernelItems) {
		t.Errorf("kernel item count is mismatched; want: %v, got: %v", len(expected.kernelItems), len(actual.items))
	}
	for i, eItem := range expectedKernel.items {
		testLRItem(t, eItem, actual.items[i])
	}

	if len(actual.next) != len(expected.nextStates) {
		t.Errorf("next state count is mismatched; want: %v, got: %v", len(expected.nextStates), len(actual.next))
	}
	for sym, kItems := range expected.nextStates {
		k, err := newKernel(kItems)
		if err != nil {
			t.Fatal(err)
		}
		next, ok := actual.next[sym]
		if !ok {
			t.Errorf("next state was not found; symbol: %v", sym)
			continue
		}
		if next != k.stateID() {
			t.Errorf("next state is mismatched; symbol: %v, want: %v, got: %v", sym, k.stateID(), next)
		}
	}

	if len(actual.reducible) != len(expected.reducibleProds) {
		t.Errorf("reducible item count is mismatched; want: %v, got: %v", len(expected.reducibleProds), len(actual.reducible))
	}
	for _, eProd := range expected.reducibleProds {
		found := false
		for _, item := range actual.reducible {
			if item.prod.id == eProd.id {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("reducible production was not found: %v", eProd.num)
		}
	}
}

func testLRItem(t *testing.T, expected, actual *lrItem) {
	t.Helper()

	if actual.id != expected.id {
		t.Errorf("ID is mismatched; want: %v, got: %v", expected.id, actual.id)
	}
	if actual.dot != expected.dot {
		t.Errorf("dot position is mismatched; want: %v, got: %v", expected.dot, actual.dot)
	}
	if actual.dottedSymbol != expected.dottedSymbol {
		t.Errorf("dotted symbol is mismatched; want: %v, got: %v", expected.dottedSymbol, actual.dottedSymbol)
	}
	if actual.initial != expected.initial {
		t.Errorf("initial is mismatched; want: %v, got: %v", expected.initial, actual.initial)
	}
	if actual.reducible != expected.reducible {
		t.Errorf("reducible is mismatched; want: %v, got: %v", expected.reducible, actual.reducible)
	}
	if actual.kernel != expected.kernel {
		t.Errorf("kernel is mismatched; want: %v, got: %v", expected.kernel, actual.kernel)
	}
}
