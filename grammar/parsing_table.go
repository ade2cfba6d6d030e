package grammar

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nihei9/scoreformula/compressor"
	"github.com/nihei9/scoreformula/grammar/symbol"
)

type ActionType string

const (
	ActionTypeShift  = ActionType("shift")
	ActionTypeReduce = ActionType("reduce")
	ActionTypeAccept = ActionType("accept")
	ActionTypeError  = ActionType("error")
)

// actionEntry is a negative state number for a shift, a positive production number for a reduce, and zero
// for an error. Reducing the augmented start production means accept.
type actionEntry int

const actionEntryEmpty = actionEntry(0)

func newShiftActionEntry(state stateNum) actionEntry {
	return actionEntry(state * -1)
}

func newReduceActionEntry(prod productionNum) actionEntry {
	return actionEntry(prod)
}

func (e actionEntry) isEmpty() bool {
	return e == actionEntryEmpty
}

func (e actionEntry) describe() (ActionType, stateNum, productionNum) {
	switch {
	case e == actionEntryEmpty:
		return ActionTypeError, stateNumInitial, productionNumNil
	case e < 0:
		return ActionTypeShift, stateNum(e * -1), productionNumNil
	case productionNum(e) == productionNumStart:
		return ActionTypeAccept, stateNumInitial, productionNumStart
	}
	return ActionTypeReduce, stateNumInitial, productionNum(e)
}

// goToEntry is a state number. Zero means no transition because no transition leads to the initial state.
type goToEntry uint

const goToEntryEmpty = goToEntry(0)

type ConflictKind string

const (
	ConflictShiftReduce  = ConflictKind("shift/reduce")
	ConflictReduceReduce = ConflictKind("reduce/reduce")
)

// Conflict is a table cell with more than one action. For a shift/reduce conflict, NextState is the target of
// the shift and Productions holds the production to reduce. For a reduce/reduce conflict, Productions holds
// both productions.
type Conflict struct {
	Kind        ConflictKind `json:"kind"`
	State       int          `json:"state"`
	Symbol      string       `json:"symbol"`
	NextState   int          `json:"next_state,omitempty"`
	Productions []int        `json:"productions"`
}

func (c *Conflict) String() string {
	if c.Kind == ConflictShiftReduce {
		return fmt.Sprintf("state %v: %v conflict on %v (shift %v, reduce %v)", c.State, c.Kind, c.Symbol, c.NextState, c.Productions[0])
	}
	return fmt.Sprintf("state %v: %v conflict on %v (reduce %v, reduce %v)", c.State, c.Kind, c.Symbol, c.Productions[0], c.Productions[1])
}

// ConflictError reports that a grammar doesn't belong to an automaton class.
type ConflictError struct {
	Class     AutomatonClass
	Conflicts []*Conflict
}

func (e *ConflictError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "the grammar is not %v: %v conflict(s)", strings.ToUpper(string(e.Class)), len(e.Conflicts))
	for _, c := range e.Conflicts {
		fmt.Fprintf(&b, "\n    %v", c)
	}
	return b.String()
}

// ParsingTable is a compiled action/goto table. It is never modified after Compile returns, so any number of
// parsers may read it concurrently.
type ParsingTable struct {
	class            AutomatonClass
	action           *compressor.Displaced
	goTo             *compressor.SharedRows
	stateCount       int
	terminalCount    int
	nonTerminalCount int
	initialState     stateNum

	// lhsSymbols and rhsLengths are indexed by production number.
	lhsSymbols []int
	rhsLengths []int

	terminals    []string
	nonTerminals []string
	term2Num     map[string]int
}

// Action returns the action for a state and a terminal number. For a shift, the second value is the next
// state; for a reduce, the third value is the production.
func (t *ParsingTable) Action(state int, terminal int) (ActionType, int, int) {
	v, err := t.action.At(state, terminal)
	if err != nil {
		return ActionTypeError, 0, 0
	}
	ty, next, prod := actionEntry(v).describe()
	return ty, next.Int(), prod.Int()
}

// GoTo returns the state to enter after reducing to a non-terminal.
func (t *ParsingTable) GoTo(state int, nonTerminal int) (int, bool) {
	v, err := t.goTo.At(state, nonTerminal)
	if err != nil || goToEntry(v) == goToEntryEmpty {
		return 0, false
	}
	return v, true
}

func (t *ParsingTable) InitialState() int {
	return t.initialState.Int()
}

// LHS returns the non-terminal number of the left-hand side of a production.
func (t *ParsingTable) LHS(prod int) int {
	return t.lhsSymbols[prod]
}

// RHSLength returns the number of symbols on the right-hand side of a production.
func (t *ParsingTable) RHSLength(prod int) int {
	return t.rhsLengths[prod]
}

func (t *ParsingTable) TerminalNum(name string) (int, bool) {
	n, ok := t.term2Num[name]
	return n, ok
}

func (t *ParsingTable) EOF() int {
	return symbol.SymbolEOF.Num().Int()
}

func (t *ParsingTable) TerminalName(num int) string {
	if num < 0 || num >= len(t.terminals) {
		return ""
	}
	return t.terminals[num]
}

func (t *ParsingTable) NonTerminalName(num int) string {
	if num < 0 || num >= len(t.nonTerminals) {
		return ""
	}
	return t.nonTerminals[num]
}

// ExpectedTerminals returns the names of the terminals that have an action in a state.
func (t *ParsingTable) ExpectedTerminals(state int) []string {
	var names []string
	for term := symbol.SymbolEOF.Num().Int(); term < t.terminalCount; term++ {
		if ty, _, _ := t.Action(state, term); ty != ActionTypeError {
			names = append(names, t.terminals[term])
		}
	}
	return names
}

func (t *ParsingTable) Class() AutomatonClass {
	return t.class
}

func (t *ParsingTable) StateCount() int {
	return t.stateCount
}

// TerminalCount returns the number of terminals including EOF.
func (t *ParsingTable) TerminalCount() int {
	return t.terminalCount - 1
}

// NonTerminalCount returns the number of non-terminals including the augmented start symbol.
func (t *ParsingTable) NonTerminalCount() int {
	return t.nonTerminalCount - 1
}

// ProductionCount returns the number of productions including the augmented start production.
func (t *ParsingTable) ProductionCount() int {
	return len(t.lhsSymbols) - 1
}

// TableSize returns the number of cells of the uncompressed tables and the number of integers the compressed
// tables hold.
func (t *ParsingTable) TableSize() (int, int) {
	return t.stateCount * (t.terminalCount + t.nonTerminalCount), t.action.Size() + t.goTo.Size()
}

// lrTableBuilder writes an automaton into dense tables. Every cell that would receive a second action is
// recorded as a conflict; nothing is resolved.
type lrTableBuilder struct {
	class        AutomatonClass
	automaton    *lrAutomaton
	prods        *productionSet
	termCount    int
	nonTermCount int
	symTab       *symbol.Table

	actionTable []actionEntry
	goToTable   []goToEntry
	conflicts   []*Conflict
}

func (b *lrTableBuilder) build() error {
	stateCount := len(b.automaton.states)
	b.actionTable = make([]actionEntry, stateCount*b.termCount)
	b.goToTable = make([]goToEntry, stateCount*b.nonTermCount)

	for _, state := range b.automaton.states {
		syms := make([]symbol.Symbol, 0, len(state.next))
		for sym := range state.next {
			syms = append(syms, sym)
		}
		sort.Slice(syms, func(i, j int) bool {
			return syms[i] < syms[j]
		})
		for _, sym := range syms {
			nextState, ok := b.automaton.find(state.next[sym])
			if !ok {
				return fmt.Errorf("next state not found; state: %v, symbol: %v", state.num, sym)
			}
			if sym.IsTerminal() {
				b.writeShiftAction(state.num, sym, nextState.num)
			} else {
				b.goToTable[state.num.Int()*b.nonTermCount+sym.Num().Int()] = goToEntry(nextState.num)
			}
		}

		for _, item := range state.reducible {
			if item.lookAhead == nil {
				return fmt.Errorf("a reducible item has no look-ahead; state: %v, production: %v", state.num, item.prod.num)
			}
			for _, a := range item.lookAheadNums() {
				b.writeReduceAction(state.num, symbol.Num(a), item.prod.num)
			}
		}
	}

	return nil
}

func (b *lrTableBuilder) terminalSymbol(num symbol.Num) symbol.Symbol {
	if num == symbol.SymbolEOF.Num() {
		return symbol.SymbolEOF
	}
	for _, sym := range b.symTab.Terminals() {
		if sym.Num() == num {
			return sym
		}
	}
	return symbol.SymbolNil
}

func (b *lrTableBuilder) writeShiftAction(state stateNum, sym symbol.Symbol, nextState stateNum) {
	pos := state.Int()*b.termCount + sym.Num().Int()
	act := b.actionTable[pos]
	if !act.isEmpty() {
		ty, _, p := act.describe()
		if ty == ActionTypeReduce || ty == ActionTypeAccept {
			b.conflicts = append(b.conflicts, &Conflict{
				Kind:        ConflictShiftReduce,
				State:       state.Int(),
				Symbol:      b.symTab.Name(sym),
				NextState:   nextState.Int(),
				Productions: []int{p.Int()},
			})
			return
		}
	}
	b.actionTable[pos] = newShiftActionEntry(nextState)
}

func (b *lrTableBuilder) writeReduceAction(state stateNum, term symbol.Num, prod productionNum) {
	pos := state.Int()*b.termCount + term.Int()
	act := b.actionTable[pos]
	if !act.isEmpty() {
		ty, s, p := act.describe()
		switch ty {
		case ActionTypeReduce, ActionTypeAccept:
			if p == prod {
				return
			}
			b.conflicts = append(b.conflicts, &Conflict{
				Kind:        ConflictReduceReduce,
				State:       state.Int(),
				Symbol:      b.symTab.Name(b.terminalSymbol(term)),
				Productions: []int{p.Int(), prod.Int()},
			})
		case ActionTypeShift:
			b.conflicts = append(b.conflicts, &Conflict{
				Kind:        ConflictShiftReduce,
				State:       state.Int(),
				Symbol:      b.symTab.Name(b.terminalSymbol(term)),
				NextState:   s.Int(),
				Productions: []int{prod.Int()},
			})
		}
		return
	}
	b.actionTable[pos] = newReduceActionEntry(prod)
}

// compile compresses the dense tables into a ParsingTable.
func (b *lrTableBuilder) compile() (*ParsingTable, error) {
	action := make([]int, len(b.actionTable))
	for i, e := range b.actionTable {
		action[i] = int(e)
	}
	goTo := make([]int, len(b.goToTable))
	for i, e := range b.goToTable {
		goTo[i] = int(e)
	}

	actMat, err := compressor.NewMatrix(action, b.termCount)
	if err != nil {
		return nil, err
	}
	goToMat, err := compressor.NewMatrix(goTo, b.nonTermCount)
	if err != nil {
		return nil, err
	}
	actTab := compressor.Displace(actMat, int(actionEntryEmpty))
	goToTab := compressor.ShareRows(goToMat)

	lhsSyms := make([]int, b.prods.count())
	rhsLens := make([]int, b.prods.count())
	for _, p := range b.prods.all() {
		lhsSyms[p.num] = p.lhs.Num().Int()
		rhsLens[p.num] = p.rhsLen
	}

	terms := b.symTab.TerminalNames()
	term2Num := make(map[string]int, len(terms))
	for i, name := range terms {
		if name == "" {
			continue
		}
		term2Num[name] = i
	}

	initialState, ok := b.automaton.find(b.automaton.initialState)
	if !ok {
		return nil, fmt.Errorf("initial state not found")
	}

	return &ParsingTable{
		class:            b.class,
		action:           actTab,
		goTo:             goToTab,
		stateCount:       len(b.automaton.states),
		terminalCount:    b.termCount,
		nonTerminalCount: b.nonTermCount,
		initialState:     initialState.num,
		lhsSymbols:       lhsSyms,
		rhsLengths:       rhsLens,
		terminals:        terms,
		nonTerminals:     b.symTab.NonTerminalNames(),
		term2Num:         term2Num,
	}, nil
}
