package grammar

import (
	"fmt"

	"github.com/nihei9/scoreformula/grammar/symbol"
)

// genLR1Automaton builds the canonical LR(1) collection. Items of a state that share a core are kept as one
// item holding the union of their look-ahead symbols.
func genLR1Automaton(prods *productionSet, startSym symbol.Symbol, first *firstSet) (*lrAutomaton, error) {
	initialItem, err := genInitialItem(prods, startSym)
	if err != nil {
		return nil, err
	}
	initialItem.lookAhead = newLookAhead(symbol.SymbolEOF)

	return genAutomaton(initialItem, func(k *kernel) ([]*lrItem, error) {
		return genLR1Closure(k, prods, first)
	})
}

// genLR1Closure adds `B →・γ, b` for every item `A → α・B β, a` and every b in FIRST(β a), until no item
// or look-ahead symbol can be added.
func genLR1Closure(k *kernel, prods *productionSet, first *firstSet) ([]*lrItem, error) {
	items := []*lrItem{}
	index := map[lrItemID]*lrItem{}
	unchecked := []*lrItem{}
	for _, item := range k.items {
		c := item.copy()
		items = append(items, c)
		index[c.id] = c
		unchecked = append(unchecked, c)
	}
	for len(unchecked) > 0 {
		item := unchecked[0]
		unchecked = unchecked[1:]
		if !item.dottedSymbol.IsNonTerminal() {
			continue
		}

		fst, err := first.findBySymbols(item.prod.rhs[item.dot+1:])
		if err != nil {
			return nil, err
		}
		la := newLookAhead()
		la.Copy(fst.symbols)
		if fst.empty {
			la.UnionWith(item.lookAhead)
		}

		ps, ok := prods.findByLHS(item.dottedSymbol)
		if !ok {
			return nil, fmt.Errorf("a production was not found; LHS: %v", item.dottedSymbol)
		}
		for _, prod := range ps {
			newItem, err := newLR1Item(prod, 0, la)
			if err != nil {
				return nil, err
			}
			if known, ok := index[newItem.id]; ok {
				if known.lookAhead.UnionWith(la) {
					unchecked = append(unchecked, known)
				}
				continue
			}
			items = append(items, newItem)
			index[newItem.id] = newItem
			unchecked = append(unchecked, newItem)
		}
	}

	return items, nil
}

// mergeLR1Automaton turns a canonical LR(1) collection into an LALR(1) one: states with the same core become
// one state, and each of its items takes the union of the look-ahead symbols of the merged items.
//
// The GOTO of two states with the same core leads to states with the same core again, so the transitions of
// a merged state are well defined.
func mergeLR1Automaton(lr1 *lrAutomaton) (*lrAutomaton, error) {
	merged := &lrAutomaton{
		id2State: map[stateID]*lrState{},
	}

	initial, ok := lr1.find(lr1.initialState)
	if !ok {
		return nil, fmt.Errorf("initial state not found: %v", lr1.initialState)
	}
	merged.initialState = stateID(initial.kernel.id)

	for _, s := range lr1.states {
		sid := stateID(s.kernel.id)
		m, ok := merged.id2State[sid]
		if !ok {
			items := make([]*lrItem, len(s.items))
			for i, item := range s.items {
				items[i] = item.copy()
			}
			reducible := make([]*lrItem, len(s.reducible))
			for i, item := range s.reducible {
				reducible[i] = item.copy()
			}
			m = &lrState{
				kernel: &kernel{
					id:    s.kernel.id,
					items: items,
				},
				sid:       sid,
				num:       stateNum(len(merged.states)),
				next:      map[symbol.Symbol]stateID{},
				reducible: reducible,
			}
			merged.states = append(merged.states, m)
			merged.id2State[sid] = m
		} else {
			if err := unionLookAhead(m.items, s.items); err != nil {
				return nil, err
			}
			if err := unionLookAhead(m.reducible, s.reducible); err != nil {
				return nil, err
			}
		}

		for sym, nextID := range s.next {
			n, ok := lr1.find(nextID)
			if !ok {
				return nil, fmt.Errorf("next state not found: %v", nextID)
			}
			m.next[sym] = stateID(n.kernel.id)
		}
	}

	return merged, nil
}

func unionLookAhead(dst, src []*lrItem) error {
	index := make(map[lrItemID]*lrItem, len(dst))
	for _, item := range dst {
		index[item.id] = item
	}
	for _, item := range src {
		d, ok := index[item.id]
		if !ok {
			return fmt.Errorf("states with the same core have different items: %v", item)
		}
		d.lookAhead.UnionWith(item.lookAhead)
	}
	return nil
}
