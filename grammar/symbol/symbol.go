// Package symbol encodes grammar symbols as 16-bit values and maps them to and from their names.
//
// The two high bits of a symbol carry its kind: bit 15 is set for terminals, bit 14 marks the augmented
// start symbol (for non-terminals) or the end-of-input symbol (for terminals). The remaining 14 bits hold a
// number that is dense per kind, so numbers can index the columns of a parsing table directly.
package symbol

import (
	"fmt"
	"sort"
)

type Num uint16

func (n Num) Int() int {
	return int(n)
}

type Symbol uint16

const (
	maskTerminal = uint16(0x8000) // 1000 0000 0000 0000
	maskSpecial  = uint16(0x4000) // 0100 0000 0000 0000
	maskNum      = uint16(0x3fff) // 0011 1111 1111 1111

	numStart = Num(1)
	numEOF   = Num(1)

	// Number 0 is nil and number 1 is the start symbol or EOF, so named symbols begin at 2.
	numMin = Num(2)
	numMax = Num(maskNum)

	SymbolNil   = Symbol(0)
	symbolStart = Symbol(maskSpecial | uint16(numStart))                // 0100 0000 0000 0001
	SymbolEOF   = Symbol(maskTerminal | maskSpecial | uint16(numEOF)) // 1100 0000 0000 0001

	// NameEOF contains `<` and `>` so it can't clash with a user-defined name.
	NameEOF = "<eof>"
)

func newSymbol(terminal bool, num Num) (Symbol, error) {
	if num > numMax {
		return SymbolNil, fmt.Errorf("a symbol number exceeds the limit; limit: %v, passed: %v", numMax, num)
	}
	if terminal {
		return Symbol(maskTerminal | uint16(num)), nil
	}
	return Symbol(uint16(num)), nil
}

func (s Symbol) String() string {
	var prefix string
	switch {
	case s.IsNil():
		return "nil"
	case s.IsStart():
		prefix = "s"
	case s.IsEOF():
		prefix = "e"
	case s.IsTerminal():
		prefix = "t"
	default:
		prefix = "n"
	}
	return fmt.Sprintf("%v%v", prefix, s.Num())
}

func (s Symbol) Num() Num {
	return Num(uint16(s) & maskNum)
}

// Byte returns the big-endian encoding of the symbol. Productions and items hash these bytes.
func (s Symbol) Byte() []byte {
	return []byte{byte(uint16(s) >> 8), byte(uint16(s) & 0x00ff)}
}

func (s Symbol) IsNil() bool {
	return s.Num() == 0
}

func (s Symbol) IsStart() bool {
	return !s.IsNil() && uint16(s)&maskTerminal == 0 && uint16(s)&maskSpecial != 0
}

func (s Symbol) IsEOF() bool {
	return !s.IsNil() && uint16(s)&maskTerminal != 0 && uint16(s)&maskSpecial != 0
}

func (s Symbol) IsTerminal() bool {
	return !s.IsNil() && uint16(s)&maskTerminal != 0
}

func (s Symbol) IsNonTerminal() bool {
	return !s.IsNil() && uint16(s)&maskTerminal == 0
}

// Table assigns symbols to names. Terminal and non-terminal numbers are assigned in registration order.
type Table struct {
	name2Sym     map[string]Symbol
	sym2Name     map[Symbol]string
	termNames    []string
	nonTermNames []string
}

func NewTable() *Table {
	return &Table{
		name2Sym: map[string]Symbol{
			NameEOF: SymbolEOF,
		},
		sym2Name: map[Symbol]string{
			SymbolEOF: NameEOF,
		},
		termNames: []string{
			"",      // nil
			NameEOF, // EOF
		},
		nonTermNames: []string{
			"", // nil
			"", // start
		},
	}
}

// RegisterStart registers the augmented start symbol. A table has one start symbol; registering it again
// renames it.
func (t *Table) RegisterStart(name string) (Symbol, error) {
	if sym, ok := t.name2Sym[name]; ok && sym != symbolStart {
		return SymbolNil, fmt.Errorf("name %q is already used by %v", name, sym)
	}
	if old := t.nonTermNames[numStart]; old != "" {
		delete(t.name2Sym, old)
	}
	t.name2Sym[name] = symbolStart
	t.sym2Name[symbolStart] = name
	t.nonTermNames[numStart] = name
	return symbolStart, nil
}

func (t *Table) RegisterNonTerminal(name string) (Symbol, error) {
	if sym, ok := t.name2Sym[name]; ok {
		if sym.IsTerminal() {
			return SymbolNil, fmt.Errorf("name %q is already used by a terminal", name)
		}
		return sym, nil
	}
	sym, err := newSymbol(false, Num(len(t.nonTermNames)))
	if err != nil {
		return SymbolNil, err
	}
	t.name2Sym[name] = sym
	t.sym2Name[sym] = name
	t.nonTermNames = append(t.nonTermNames, name)
	return sym, nil
}

func (t *Table) RegisterTerminal(name string) (Symbol, error) {
	if sym, ok := t.name2Sym[name]; ok {
		if sym.IsNonTerminal() {
			return SymbolNil, fmt.Errorf("name %q is already used by a non-terminal", name)
		}
		return sym, nil
	}
	sym, err := newSymbol(true, Num(len(t.termNames)))
	if err != nil {
		return SymbolNil, err
	}
	t.name2Sym[name] = sym
	t.sym2Name[sym] = name
	t.termNames = append(t.termNames, name)
	return sym, nil
}

func (t *Table) Lookup(name string) (Symbol, bool) {
	sym, ok := t.name2Sym[name]
	return sym, ok
}

// Name returns the name of a symbol, or an empty string when the symbol is unknown.
func (t *Table) Name(sym Symbol) string {
	return t.sym2Name[sym]
}

// Terminals returns the terminal symbols including EOF, ordered by number.
func (t *Table) Terminals() []Symbol {
	return t.collect(Symbol.IsTerminal)
}

// NonTerminals returns the non-terminal symbols including the start symbol, ordered by number.
func (t *Table) NonTerminals() []Symbol {
	return t.collect(Symbol.IsNonTerminal)
}

func (t *Table) collect(pred func(Symbol) bool) []Symbol {
	syms := []Symbol{}
	for sym := range t.sym2Name {
		if pred(sym) {
			syms = append(syms, sym)
		}
	}
	sort.Slice(syms, func(i, j int) bool {
		return syms[i].Num() < syms[j].Num()
	})
	return syms
}

// TerminalNames returns terminal names indexed by number. Index 0 is always empty.
func (t *Table) TerminalNames() []string {
	return append([]string{}, t.termNames...)
}

// NonTerminalNames returns non-terminal names indexed by number. Index 0 is always empty.
func (t *Table) NonTerminalNames() []string {
	return append([]string{}, t.nonTermNames...)
}

// TerminalCount returns the column count of an action table, nil and EOF included.
func (t *Table) TerminalCount() int {
	return len(t.termNames)
}

// NonTerminalCount returns the column count of a goto table, nil and the start symbol included.
func (t *Table) NonTerminalCount() int {
	return len(t.nonTermNames)
}
