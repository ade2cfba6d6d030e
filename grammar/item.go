package grammar

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sort"
	"strconv"

	"golang.org/x/tools/container/intsets"

	"github.com/nihei9/scoreformula/grammar/symbol"
)

// lrItemID identifies the core of an item, that is, its production and dot. Items that differ only in
// look-ahead symbols share the ID.
type lrItemID [32]byte

func (id lrItemID) String() string {
	return fmt.Sprintf("%x", id.num())
}

func (id lrItemID) num() uint32 {
	return binary.LittleEndian.Uint32(id[:])
}

type lrItem struct {
	id   lrItemID
	prod *production

	// E → E + T
	//
	// Dot | Dotted Symbol | Item
	// ----+---------------+------------
	// 0   | E             | E →・E + T
	// 1   | +             | E → E・+ T
	// 2   | T             | E → E +・T
	// 3   | Nil           | E → E + T・
	dot          int
	dottedSymbol symbol.Symbol

	// When initial is true, the LHS of the production is the augmented start symbol and dot is 0.
	// It looks like S' →・S.
	initial bool

	// When reducible is true, the item looks like E → E + T・.
	reducible bool

	// When kernel is true, the item is kernel item.
	kernel bool

	// lookAhead holds the numbers of the terminals on which a reducible item may be reduced. It is nil for
	// the items of an LR(0) automaton until SLR(1) look-ahead is attached.
	lookAhead *intsets.Sparse
}

func newLR0Item(prod *production, dot int) (*lrItem, error) {
	if prod == nil {
		return nil, fmt.Errorf("production must be non-nil")
	}

	if dot < 0 || dot > prod.rhsLen {
		return nil, fmt.Errorf("dot must be between 0 and %v", prod.rhsLen)
	}

	var id lrItemID
	{
		b := []byte{}
		b = append(b, prod.id[:]...)
		bDot := make([]byte, 8)
		binary.LittleEndian.PutUint64(bDot, uint64(dot))
		b = append(b, bDot...)
		id = sha256.Sum256(b)
	}

	dottedSymbol := symbol.SymbolNil
	if dot < prod.rhsLen {
		dottedSymbol = prod.rhs[dot]
	}

	initial := prod.lhs.IsStart() && dot == 0

	return &lrItem{
		id:           id,
		prod:         prod,
		dot:          dot,
		dottedSymbol: dottedSymbol,
		initial:      initial,
		reducible:    dot == prod.rhsLen,
		kernel:       initial || dot > 0,
	}, nil
}

func newLookAhead(syms ...symbol.Symbol) *intsets.Sparse {
	la := &intsets.Sparse{}
	for _, sym := range syms {
		la.Insert(sym.Num().Int())
	}
	return la
}

func newLR1Item(prod *production, dot int, lookAhead *intsets.Sparse) (*lrItem, error) {
	item, err := newLR0Item(prod, dot)
	if err != nil {
		return nil, err
	}
	item.lookAhead = newLookAhead()
	if lookAhead != nil {
		item.lookAhead.Copy(lookAhead)
	}
	return item, nil
}

// advance returns the item whose dot is moved over the dotted symbol. Look-ahead symbols are carried over.
func (item *lrItem) advance() (*lrItem, error) {
	if item.reducible {
		return nil, fmt.Errorf("a reducible item cannot advance: %v", item)
	}
	if item.lookAhead == nil {
		return newLR0Item(item.prod, item.dot+1)
	}
	return newLR1Item(item.prod, item.dot+1, item.lookAhead)
}

func (item *lrItem) copy() *lrItem {
	c := *item
	if item.lookAhead != nil {
		c.lookAhead = &intsets.Sparse{}
		c.lookAhead.Copy(item.lookAhead)
	}
	return &c
}

func (item *lrItem) lookAheadNums() []int {
	if item.lookAhead == nil {
		return nil
	}
	return item.lookAhead.AppendTo(nil)
}

func (item *lrItem) String() string {
	return fmt.Sprintf("%v/%v %v", item.prod.num, item.dot, item.lookAheadNums())
}

// kernelID identifies the LR(0) core of a state.
type kernelID [32]byte

func (id kernelID) String() string {
	return fmt.Sprintf("%x", binary.LittleEndian.Uint32(id[:]))
}

// stateID identifies a state including the look-ahead symbols of its kernel items. For automata without
// look-ahead in their kernels (LR(0), SLR(1), LALR(1)), it equals the kernel ID.
type stateID [32]byte

func (id stateID) String() string {
	return fmt.Sprintf("%x", binary.LittleEndian.Uint32(id[:]))
}

type kernel struct {
	id    kernelID
	items []*lrItem
}

// newKernel sorts items and merges the ones with the same core, taking the union of their look-ahead symbols.
func newKernel(items []*lrItem) (*kernel, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("a kernel need at least one item")
	}

	var sortedItems []*lrItem
	{
		m := map[lrItemID]*lrItem{}
		for _, item := range items {
			if !item.kernel {
				return nil, fmt.Errorf("not a kernel item: %v", item)
			}
			if known, ok := m[item.id]; ok {
				if item.lookAhead != nil {
					if known.lookAhead == nil {
						known.lookAhead = &intsets.Sparse{}
					}
					known.lookAhead.UnionWith(item.lookAhead)
				}
				continue
			}
			m[item.id] = item.copy()
		}
		sortedItems = []*lrItem{}
		for _, item := range m {
			sortedItems = append(sortedItems, item)
		}
		sort.Slice(sortedItems, func(i, j int) bool {
			return bytes.Compare(sortedItems[i].id[:], sortedItems[j].id[:]) < 0
		})
	}

	var id kernelID
	{
		b := []byte{}
		for _, item := range sortedItems {
			b = append(b, item.id[:]...)
		}
		id = sha256.Sum256(b)
	}

	return &kernel{
		id:    id,
		items: sortedItems,
	}, nil
}

func (k *kernel) stateID() stateID {
	hasLookAhead := false
	for _, item := range k.items {
		if item.lookAhead != nil {
			hasLookAhead = true
			break
		}
	}
	if !hasLookAhead {
		return stateID(k.id)
	}

	b := append([]byte{}, k.id[:]...)
	for _, item := range k.items {
		b = append(b, 0xff, 0xff)
		for _, n := range item.lookAheadNums() {
			b = append(b, byte(n>>8), byte(n))
		}
	}
	return stateID(sha256.Sum256(b))
}

type stateNum int

const stateNumInitial = stateNum(0)

func (n stateNum) Int() int {
	return int(n)
}

func (n stateNum) String() string {
	return strconv.Itoa(int(n))
}

func (n stateNum) next() stateNum {
	return stateNum(n + 1)
}

type lrState struct {
	*kernel
	sid  stateID
	num  stateNum
	next map[symbol.Symbol]stateID

	// reducible holds the reducible items of the closure. Besides kernel items, it contains items of empty
	// productions like `p →・ε`, which never appear in a kernel.
	reducible []*lrItem

	// gotos holds the successor kernels while the automaton is being built.
	gotos []*kernel
}

// lrAutomaton is the collection of item sets of a grammar. states is indexed by state number.
type lrAutomaton struct {
	initialState stateID
	states       []*lrState
	id2State     map[stateID]*lrState
}

func (a *lrAutomaton) find(id stateID) (*lrState, bool) {
	s, ok := a.id2State[id]
	return s, ok
}
