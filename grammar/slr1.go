package grammar

// genSLR1Automaton attaches FOLLOW(A) as the look-ahead of every reducible item `A → α・` of an LR(0)
// automaton.
func genSLR1Automaton(lr0 *lrAutomaton, follow *followSet) (*lrAutomaton, error) {
	for _, state := range lr0.states {
		for _, item := range state.reducible {
			flw, err := follow.find(item.prod.lhs)
			if err != nil {
				return nil, err
			}
			if item.lookAhead == nil {
				item.lookAhead = newLookAhead()
			}
			item.lookAhead.UnionWith(flw.symbols)
		}
	}

	return lr0, nil
}
