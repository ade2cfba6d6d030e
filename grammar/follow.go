package grammar

import (
	"fmt"

	"golang.org/x/tools/container/intsets"

	"github.com/nihei9/scoreformula/grammar/symbol"
)

// followEntry is FOLLOW of a non-terminal: the numbers of the terminals that can appear right after it in a
// sentential form. EOF counts as a terminal here.
type followEntry struct {
	symbols *intsets.Sparse
}

func newFollowEntry() *followEntry {
	return &followEntry{
		symbols: &intsets.Sparse{},
	}
}

func (e *followEntry) has(sym symbol.Symbol) bool {
	return e.symbols.Has(sym.Num().Int())
}

func (e *followEntry) addEOF() bool {
	return e.symbols.Insert(symbol.SymbolEOF.Num().Int())
}

type followSet struct {
	set map[symbol.Symbol]*followEntry
}

func (flw *followSet) find(sym symbol.Symbol) (*followEntry, error) {
	e, ok := flw.set[sym]
	if !ok {
		return nil, fmt.Errorf("FOLLOW of %v is unknown", sym)
	}
	return e, nil
}

// genFollowSet computes FOLLOW of every non-terminal. For each `A → α B β`, FOLLOW(B) takes FIRST(β), and
// also FOLLOW(A) when β derives ε. The start symbol is followed by EOF.
func genFollowSet(prods *productionSet, first *firstSet) (*followSet, error) {
	flw := &followSet{
		set: map[symbol.Symbol]*followEntry{},
	}
	for _, prod := range prods.all() {
		if _, ok := flw.set[prod.lhs]; !ok {
			flw.set[prod.lhs] = newFollowEntry()
		}
		if prod.lhs.IsStart() {
			flw.set[prod.lhs].addEOF()
		}
	}

	for grew := true; grew; {
		grew = false
		for _, prod := range prods.all() {
			lhsFollow := flw.set[prod.lhs]
			for i, sym := range prod.rhs {
				if sym.IsTerminal() {
					continue
				}
				e, err := flw.find(sym)
				if err != nil {
					return nil, err
				}
				rest, err := first.find(prod, i+1)
				if err != nil {
					return nil, err
				}
				if e.symbols.UnionWith(rest.symbols) {
					grew = true
				}
				if rest.empty && e.symbols.UnionWith(lhsFollow.symbols) {
					grew = true
				}
			}
		}
	}
	return flw, nil
}
