// Package grammar builds LR parsing tables from context-free grammars.
//
// A grammar is declared with a Builder: terminals by name, then productions whose right-hand sides name
// terminals and non-terminals. Build checks the declarations, and Compile turns the grammar into a
// ParsingTable for the requested automaton class. Grammars with conflicts are rejected; conflicts are never
// resolved by precedence or by declaration order.
package grammar

import (
	"fmt"
	"strings"

	"github.com/npillmayer/schuko/tracing"

	verr "github.com/nihei9/scoreformula/error"
	"github.com/nihei9/scoreformula/grammar/symbol"
	"github.com/nihei9/scoreformula/internal/trace"
)

func tracer() tracing.Trace {
	return trace.Syntax()
}

type Grammar struct {
	name                 string
	productionSet        *productionSet
	augmentedStartSymbol symbol.Symbol
	symbolTable          *symbol.Table
}

func (g *Grammar) Name() string {
	return g.name
}

type productionDecl struct {
	num int
	lhs string
	rhs []string
}

func (p *productionDecl) String() string {
	if len(p.rhs) == 0 {
		return fmt.Sprintf("%v → ε", p.lhs)
	}
	return fmt.Sprintf("%v → %v", p.lhs, strings.Join(p.rhs, " "))
}

// Builder collects the declarations of a grammar.
type Builder struct {
	name  string
	start string
	terms []string
	prods []*productionDecl
}

func NewBuilder(name string) *Builder {
	return &Builder{
		name: name,
	}
}

func (b *Builder) Terminals(names ...string) {
	b.terms = append(b.terms, names...)
}

// Start sets the start symbol. Without it, the LHS of the first production is the start symbol.
func (b *Builder) Start(name string) {
	b.start = name
}

// Production declares `lhs → rhs...` and returns its production number. The numbers of the productions start
// at 2 and follow the declaration order; number 1 is the augmented start production.
func (b *Builder) Production(lhs string, rhs ...string) int {
	num := productionNumMin.Int() + len(b.prods)
	b.prods = append(b.prods, &productionDecl{
		num: num,
		lhs: lhs,
		rhs: rhs,
	})
	return num
}

func semanticError(cause *SemanticError, format string, a ...interface{}) *verr.FormulaError {
	return &verr.FormulaError{
		Cause:  cause,
		Detail: fmt.Sprintf(format, a...),
		Offset: -1,
	}
}

// Build checks the declarations and returns a grammar. All failed checks are returned together as
// verr.FormulaErrors whose causes are *SemanticError values.
func (b *Builder) Build() (*Grammar, error) {
	var errs verr.FormulaErrors

	if len(b.prods) == 0 {
		return nil, verr.FormulaErrors{semanticError(semErrNoProduction, "%v", b.name)}
	}

	start := b.start
	if start == "" {
		start = b.prods[0].lhs
	}

	terms := map[string]struct{}{}
	for _, name := range b.terms {
		if name == "" || name == symbol.NameEOF {
			errs = append(errs, semanticError(semErrInvalidName, "terminal %q", name))
			continue
		}
		if _, ok := terms[name]; ok {
			errs = append(errs, semanticError(semErrDuplicateTerminal, "%v", name))
			continue
		}
		terms[name] = struct{}{}
	}

	lhs2Prods := map[string][]*productionDecl{}
	var nonTerms []string
	for _, p := range b.prods {
		if p.lhs == "" || p.lhs == symbol.NameEOF {
			errs = append(errs, semanticError(semErrInvalidName, "non-terminal %q", p.lhs))
			continue
		}
		if _, ok := terms[p.lhs]; ok {
			errs = append(errs, semanticError(semErrDuplicateName, "%v", p.lhs))
			continue
		}
		if _, ok := lhs2Prods[p.lhs]; !ok {
			nonTerms = append(nonTerms, p.lhs)
		}
		lhs2Prods[p.lhs] = append(lhs2Prods[p.lhs], p)
	}
	if _, ok := lhs2Prods[start]; !ok {
		errs = append(errs, semanticError(semErrNoStart, "%v", start))
	}

	known := map[string]string{}
	for _, p := range b.prods {
		for _, sym := range p.rhs {
			_, isTerm := terms[sym]
			_, isNonTerm := lhs2Prods[sym]
			if !isTerm && !isNonTerm {
				errs = append(errs, semanticError(semErrUndefinedSym, "%v in %v", sym, p))
			}
		}
		key := p.String()
		if _, ok := known[key]; ok {
			errs = append(errs, semanticError(semErrDuplicateProduction, "%v", p))
			continue
		}
		known[key] = key
	}
	if len(errs) > 0 {
		return nil, errs
	}

	usedTerms, usedNonTerms := markUsedSymbols(start, lhs2Prods, terms)
	for _, name := range nonTerms {
		if !usedNonTerms[name] {
			errs = append(errs, semanticError(semErrUnusedProduction, "%v", name))
		}
	}
	for _, name := range b.terms {
		if !usedTerms[name] {
			errs = append(errs, semanticError(semErrUnusedTerminal, "%v", name))
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	symTab := symbol.NewTable()
	augStartSym, err := symTab.RegisterStart(start + "'")
	if err != nil {
		return nil, err
	}
	for _, name := range nonTerms {
		if _, err := symTab.RegisterNonTerminal(name); err != nil {
			return nil, err
		}
	}
	for _, name := range b.terms {
		if _, err := symTab.RegisterTerminal(name); err != nil {
			return nil, err
		}
	}

	prods := newProductionSet()
	{
		startSym, _ := symTab.Lookup(start)
		p, err := newProduction(augStartSym, []symbol.Symbol{startSym})
		if err != nil {
			return nil, err
		}
		prods.append(p)
	}
	for _, decl := range b.prods {
		lhsSym, _ := symTab.Lookup(decl.lhs)
		rhsSyms := make([]symbol.Symbol, len(decl.rhs))
		for i, name := range decl.rhs {
			rhsSyms[i], _ = symTab.Lookup(name)
		}
		p, err := newProduction(lhsSym, rhsSyms)
		if err != nil {
			return nil, err
		}
		prods.append(p)
		if p.num.Int() != decl.num {
			return nil, fmt.Errorf("production number mismatch; %v is %v, want %v", decl, p.num, decl.num)
		}
	}

	return &Grammar{
		name:                 b.name,
		productionSet:        prods,
		augmentedStartSymbol: augStartSym,
		symbolTable:          symTab,
	}, nil
}

func markUsedSymbols(start string, lhs2Prods map[string][]*productionDecl, terms map[string]struct{}) (map[string]bool, map[string]bool) {
	usedTerms := map[string]bool{}
	usedNonTerms := map[string]bool{
		start: true,
	}
	unchecked := []string{start}
	for len(unchecked) > 0 {
		lhs := unchecked[0]
		unchecked = unchecked[1:]
		for _, p := range lhs2Prods[lhs] {
			for _, sym := range p.rhs {
				if _, ok := terms[sym]; ok {
					usedTerms[sym] = true
					continue
				}
				if usedNonTerms[sym] {
					continue
				}
				usedNonTerms[sym] = true
				unchecked = append(unchecked, sym)
			}
		}
	}
	return usedTerms, usedNonTerms
}

type AutomatonClass string

const (
	ClassLALR1 = AutomatonClass("lalr1")
	ClassLR1   = AutomatonClass("lr1")
	ClassSLR1  = AutomatonClass("slr1")
)

func ParseAutomatonClass(s string) (AutomatonClass, error) {
	switch c := AutomatonClass(strings.ToLower(s)); c {
	case ClassLALR1, ClassLR1, ClassSLR1:
		return c, nil
	}
	return "", fmt.Errorf("unknown automaton class: %v (want one of %v, %v, %v)", s, ClassLALR1, ClassLR1, ClassSLR1)
}

type compileConfig struct {
	class              AutomatonClass
	isReportingEnabled bool
}

type CompileOption func(config *compileConfig)

// Class selects the automaton class. The default is ClassLALR1.
func Class(c AutomatonClass) CompileOption {
	return func(config *compileConfig) {
		config.class = c
	}
}

func EnableReporting() CompileOption {
	return func(config *compileConfig) {
		config.isReportingEnabled = true
	}
}

// Compile generates a parsing table. When the grammar has conflicts, the error is a *ConflictError, and the
// report, if enabled, is returned anyway so the conflicts can be inspected.
func Compile(gram *Grammar, opts ...CompileOption) (*ParsingTable, *Report, error) {
	config := &compileConfig{
		class: ClassLALR1,
	}
	for _, opt := range opts {
		opt(config)
	}

	firstSet, err := genFirstSet(gram.productionSet)
	if err != nil {
		return nil, nil, err
	}

	var automaton *lrAutomaton
	switch config.class {
	case ClassLALR1, ClassLR1:
		lr1, err := genLR1Automaton(gram.productionSet, gram.augmentedStartSymbol, firstSet)
		if err != nil {
			return nil, nil, err
		}
		tracer().Debugf("grammar %v: canonical LR(1) collection has %v states", gram.name, len(lr1.states))
		automaton = lr1
		if config.class == ClassLALR1 {
			automaton, err = mergeLR1Automaton(lr1)
			if err != nil {
				return nil, nil, err
			}
		}
	case ClassSLR1:
		followSet, err := genFollowSet(gram.productionSet, firstSet)
		if err != nil {
			return nil, nil, err
		}
		lr0, err := genLR0Automaton(gram.productionSet, gram.augmentedStartSymbol)
		if err != nil {
			return nil, nil, err
		}
		automaton, err = genSLR1Automaton(lr0, followSet)
		if err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, fmt.Errorf("unknown automaton class: %v", config.class)
	}
	tracer().Debugf("grammar %v: %v automaton has %v states", gram.name, config.class, len(automaton.states))

	b := &lrTableBuilder{
		class:        config.class,
		automaton:    automaton,
		prods:        gram.productionSet,
		termCount:    gram.symbolTable.TerminalCount(),
		nonTermCount: gram.symbolTable.NonTerminalCount(),
		symTab:       gram.symbolTable,
	}
	if err := b.build(); err != nil {
		return nil, nil, err
	}

	var report *Report
	if config.isReportingEnabled {
		report, err = b.genReport(gram)
		if err != nil {
			return nil, nil, err
		}
	}

	if len(b.conflicts) > 0 {
		for _, c := range b.conflicts {
			tracer().Debugf("grammar %v: %v", gram.name, c)
		}
		return nil, report, &ConflictError{
			Class:     config.class,
			Conflicts: b.conflicts,
		}
	}

	tab, err := b.compile()
	if err != nil {
		return nil, nil, err
	}
	if report != nil {
		_, report.CompressedSize = tab.TableSize()
	}

	return tab, report, nil
}
