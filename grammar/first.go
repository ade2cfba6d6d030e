package grammar

import (
	"fmt"

	"golang.org/x/tools/container/intsets"

	"github.com/nihei9/scoreformula/grammar/symbol"
)

// firstEntry is FIRST of a symbol sequence: the numbers of the terminals a derivation of the sequence can
// start with, and whether the sequence derives ε.
type firstEntry struct {
	symbols *intsets.Sparse
	empty   bool
}

func newFirstEntry() *firstEntry {
	return &firstEntry{
		symbols: &intsets.Sparse{},
	}
}

func (e *firstEntry) add(sym symbol.Symbol) bool {
	return e.symbols.Insert(sym.Num().Int())
}

func (e *firstEntry) addEmpty() bool {
	changed := !e.empty
	e.empty = true
	return changed
}

// absorb adds the terminals and the ε flag of src and reports whether e grew.
func (e *firstEntry) absorb(src *firstEntry) bool {
	changed := e.symbols.UnionWith(src.symbols)
	if src.empty && e.addEmpty() {
		changed = true
	}
	return changed
}

// firstSet maps each non-terminal to its FIRST.
type firstSet struct {
	set map[symbol.Symbol]*firstEntry
}

// find returns FIRST of the right-hand side of prod from position head on.
func (fst *firstSet) find(prod *production, head int) (*firstEntry, error) {
	if head >= prod.rhsLen {
		return fst.findBySymbols(nil)
	}
	return fst.findBySymbols(prod.rhs[head:])
}

// findBySymbols computes FIRST of syms from the current entries of the non-terminals.
func (fst *firstSet) findBySymbols(syms []symbol.Symbol) (*firstEntry, error) {
	entry := newFirstEntry()
	for _, sym := range syms {
		if sym.IsTerminal() {
			entry.add(sym)
			return entry, nil
		}
		e, ok := fst.set[sym]
		if !ok {
			return nil, fmt.Errorf("FIRST of %v is unknown", sym)
		}
		entry.symbols.UnionWith(e.symbols)
		if !e.empty {
			return entry, nil
		}
	}
	entry.addEmpty()
	return entry, nil
}

// genFirstSet computes FIRST of every non-terminal. Each round folds FIRST of every right-hand side into the
// entry of its left-hand side, until a round adds nothing.
func genFirstSet(prods *productionSet) (*firstSet, error) {
	fst := &firstSet{
		set: map[symbol.Symbol]*firstEntry{},
	}
	for _, prod := range prods.all() {
		if _, ok := fst.set[prod.lhs]; !ok {
			fst.set[prod.lhs] = newFirstEntry()
		}
	}

	for grew := true; grew; {
		grew = false
		for _, prod := range prods.all() {
			rhsFirst, err := fst.findBySymbols(prod.rhs)
			if err != nil {
				return nil, err
			}
			if fst.set[prod.lhs].absorb(rhsFirst) {
				grew = true
			}
		}
	}
	return fst, nil
}
