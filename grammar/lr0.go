package grammar

import (
	"fmt"
	"sort"

	"github.com/nihei9/scoreformula/grammar/symbol"
)

// closureFunc expands the kernel of a state into all items of the state.
type closureFunc func(k *kernel) ([]*lrItem, error)

func genLR0Automaton(prods *productionSet, startSym symbol.Symbol) (*lrAutomaton, error) {
	initialItem, err := genInitialItem(prods, startSym)
	if err != nil {
		return nil, err
	}
	return genAutomaton(initialItem, func(k *kernel) ([]*lrItem, error) {
		return genLR0Closure(k, prods)
	})
}

func genInitialItem(prods *productionSet, startSym symbol.Symbol) (*lrItem, error) {
	if !startSym.IsStart() {
		return nil, fmt.Errorf("passed symbol is not a start symbol")
	}
	ps, ok := prods.findByLHS(startSym)
	if !ok || len(ps) != 1 {
		return nil, fmt.Errorf("the start symbol must have exactly one production")
	}
	return newLR0Item(ps[0], 0)
}

// genAutomaton collects the states reachable from the initial item. States are numbered in the order they
// are discovered, so the initial state is always state 0.
func genAutomaton(initialItem *lrItem, closure closureFunc) (*lrAutomaton, error) {
	k, err := newKernel([]*lrItem{initialItem})
	if err != nil {
		return nil, err
	}
	automaton := &lrAutomaton{
		initialState: k.stateID(),
		id2State:     map[stateID]*lrState{},
	}

	seen := map[stateID]bool{
		automaton.initialState: true,
	}
	queue := []*kernel{k}
	for num := stateNumInitial; len(queue) > 0; num = num.next() {
		k := queue[0]
		queue = queue[1:]

		state, err := expandKernel(k, closure)
		if err != nil {
			return nil, err
		}
		state.num = num
		automaton.states = append(automaton.states, state)
		automaton.id2State[state.sid] = state

		for _, g := range state.gotos {
			if sid := g.stateID(); !seen[sid] {
				seen[sid] = true
				queue = append(queue, g)
			}
		}
		state.gotos = nil
	}

	return automaton, nil
}

// expandKernel builds the state of a kernel. The kernels of its successors are left in gotos, ordered by
// transition symbol.
func expandKernel(k *kernel, closure closureFunc) (*lrState, error) {
	items, err := closure(k)
	if err != nil {
		return nil, err
	}

	state := &lrState{
		kernel: k,
		sid:    k.stateID(),
		next:   map[symbol.Symbol]stateID{},
	}
	advanced := map[symbol.Symbol][]*lrItem{}
	var syms []symbol.Symbol
	for _, item := range items {
		if item.reducible {
			state.reducible = append(state.reducible, item)
			continue
		}
		a, err := item.advance()
		if err != nil {
			return nil, err
		}
		if _, ok := advanced[item.dottedSymbol]; !ok {
			syms = append(syms, item.dottedSymbol)
		}
		advanced[item.dottedSymbol] = append(advanced[item.dottedSymbol], a)
	}
	sort.Slice(syms, func(i, j int) bool {
		return syms[i] < syms[j]
	})
	for _, sym := range syms {
		g, err := newKernel(advanced[sym])
		if err != nil {
			return nil, err
		}
		state.next[sym] = g.stateID()
		state.gotos = append(state.gotos, g)
	}

	return state, nil
}

// genLR0Closure adds `B →・γ` for every item `A → α・B β` until no item can be added.
func genLR0Closure(k *kernel, prods *productionSet) ([]*lrItem, error) {
	items := append([]*lrItem{}, k.items...)
	known := map[lrItemID]bool{}
	for _, item := range items {
		known[item.id] = true
	}
	for i := 0; i < len(items); i++ {
		sym := items[i].dottedSymbol
		if !sym.IsNonTerminal() {
			continue
		}
		ps, _ := prods.findByLHS(sym)
		for _, prod := range ps {
			item, err := newLR0Item(prod, 0)
			if err != nil {
				return nil, err
			}
			if known[item.id] {
				continue
			}
			known[item.id] = true
			items = append(items, item)
		}
	}

	return items, nil
}
