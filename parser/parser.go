// Package parser turns formula tokens into a syntax tree with a table-driven shift/reduce parser.
//
// The parsing table is compiled from the formula grammar once, in New, and is never modified afterwards, so a
// Parser may be used by any number of goroutines at the same time. The parser doesn't recover from errors:
// the first token without an action fails the whole parse.
package parser

import (
	"context"
	"fmt"
	"strings"

	pool "github.com/jolestar/go-commons-pool"
	"github.com/npillmayer/schuko/tracing"

	"github.com/nihei9/scoreformula/ast"
	verr "github.com/nihei9/scoreformula/error"
	"github.com/nihei9/scoreformula/grammar"
	"github.com/nihei9/scoreformula/internal/trace"
	"github.com/nihei9/scoreformula/lexer"
	"github.com/nihei9/scoreformula/token"
)

func tracer() tracing.Trace {
	return trace.Syntax()
}

const (
	DefaultMaxInputLength = 4096
	DefaultMaxSteps       = 100000
	DefaultMaxStackDepth  = 1000
)

type config struct {
	maxInputLength int
	maxSteps       int
	maxStackDepth  int
	class          grammar.AutomatonClass
}

type Option func(c *config)

// MaxInputLength limits the length of a formula in bytes.
func MaxInputLength(n int) Option {
	return func(c *config) {
		c.maxInputLength = n
	}
}

// MaxSteps limits the number of shift and reduce steps of one parse.
func MaxSteps(n int) Option {
	return func(c *config) {
		c.maxSteps = n
	}
}

// MaxStackDepth limits the height of the state stack.
func MaxStackDepth(n int) Option {
	return func(c *config) {
		c.maxStackDepth = n
	}
}

// AutomatonClass selects the class of the parsing table. The default is LALR(1); LR(1) accepts the same
// formulas with more states.
func AutomatonClass(class grammar.AutomatonClass) Option {
	return func(c *config) {
		c.class = class
	}
}

type Parser struct {
	config   config
	tab      *grammar.ParsingTable
	builders []builder
	termNums map[token.Type]int
	stacks   *stackPool
}

// New compiles the formula grammar. An error means the grammar itself is broken; no formula can be parsed.
func New(opts ...Option) (*Parser, error) {
	c := config{
		maxInputLength: DefaultMaxInputLength,
		maxSteps:       DefaultMaxSteps,
		maxStackDepth:  DefaultMaxStackDepth,
		class:          grammar.ClassLALR1,
	}
	for _, opt := range opts {
		opt(&c)
	}

	gram, builders, err := newGrammar()
	if err != nil {
		return nil, err
	}
	tab, _, err := grammar.Compile(gram, grammar.Class(c.class))
	if err != nil {
		return nil, err
	}

	termNums := map[token.Type]int{}
	for _, t := range token.Terminals() {
		if t == token.EOF {
			termNums[t] = tab.EOF()
			continue
		}
		num, ok := tab.TerminalNum(t.SymbolName())
		if !ok {
			return nil, fmt.Errorf("a terminal is missing from the parsing table: %v", t)
		}
		termNums[t] = num
	}

	tracer().Debugf("formula parser: %v table with %v states, %v terminals, %v non-terminals, %v productions",
		tab.Class(), tab.StateCount(), tab.TerminalCount(), tab.NonTerminalCount(), tab.ProductionCount())

	return &Parser{
		config:   c,
		tab:      tab,
		builders: builders,
		termNums: termNums,
		stacks:   newStackPool(),
	}, nil
}

// Table returns the parsing table. It must not be modified.
func (p *Parser) Table() *grammar.ParsingTable {
	return p.tab
}

// ParseString tokenizes and parses a formula. Errors refer to src.
func (p *Parser) ParseString(src string) (ast.Node, error) {
	if len(src) > p.config.maxInputLength {
		return nil, &verr.FormulaError{
			Cause:  ErrInputTooLong,
			Detail: fmt.Sprintf("%v bytes; the limit is %v", len(src), p.config.maxInputLength),
			Offset: -1,
		}
	}

	res := lexer.Tokenize(src)
	if res.Err != nil {
		return nil, res.Err
	}
	node, err := p.Parse(res.Tokens)
	if err != nil {
		if fErr, ok := err.(*verr.FormulaError); ok {
			return nil, fErr.WithSource(src)
		}
		return nil, err
	}
	return node, nil
}

// Parse parses a token sequence. An EOF token is assumed when the sequence doesn't end with one. Errors are
// *verr.FormulaError values whose cause is a *SyntaxError.
func (p *Parser) Parse(toks []token.Token) (ast.Node, error) {
	if l := inputLength(toks); l > p.config.maxInputLength {
		return nil, &verr.FormulaError{
			Cause:  ErrInputTooLong,
			Detail: fmt.Sprintf("%v bytes; the limit is %v", l, p.config.maxInputLength),
			Offset: -1,
		}
	}

	s, err := p.stacks.borrow()
	if err != nil {
		return nil, err
	}
	defer p.stacks.release(s)

	s.push(p.tab.InitialState(), nil)
	pos := 0
	for steps := 0; ; steps++ {
		if steps >= p.config.maxSteps {
			return nil, &verr.FormulaError{
				Cause:  ErrTooManySteps,
				Detail: fmt.Sprintf("the limit is %v", p.config.maxSteps),
				Offset: -1,
			}
		}

		tok := lookAhead(toks, pos)
		term, ok := p.termNums[tok.Type]
		if !ok {
			return nil, p.unexpected(s.top(), tok)
		}

		act, next, prodNum := p.tab.Action(s.top(), term)
		switch act {
		case grammar.ActionTypeShift:
			tracer().Debugf("shift %v; state %v -> %v", tok, s.top(), next)
			if s.len() >= p.config.maxStackDepth {
				return nil, &verr.FormulaError{
					Cause:  ErrStackOverflow,
					Detail: fmt.Sprintf("the limit is %v", p.config.maxStackDepth),
					Offset: tok.Offset,
				}
			}
			s.push(next, tok)
			pos++
		case grammar.ActionTypeReduce:
			n := p.tab.RHSLength(prodNum)
			node, err := p.builders[prodNum](s.values[s.len()-n:])
			if err != nil {
				return nil, err
			}
			s.pop(n)
			goTo, ok := p.tab.GoTo(s.top(), p.tab.LHS(prodNum))
			if !ok {
				return nil, fmt.Errorf("no goto entry; state: %v, production: %v", s.top(), prodNum)
			}
			tracer().Debugf("reduce %v; goto %v", prodNum, goTo)
			s.push(goTo, node)
		case grammar.ActionTypeAccept:
			node, ok := s.values[s.len()-1].(ast.Node)
			if !ok {
				return nil, fmt.Errorf("accepted a value that is not a node: %T", s.values[s.len()-1])
			}
			return node, nil
		default:
			return nil, p.unexpected(s.top(), tok)
		}
	}
}

func lookAhead(toks []token.Token, pos int) token.Token {
	if pos < len(toks) {
		return toks[pos]
	}
	offset := 0
	if len(toks) > 0 {
		last := toks[len(toks)-1]
		offset = last.Offset + len(last.Text)
	}
	return token.Token{
		Type:   token.EOF,
		Offset: offset,
	}
}

func inputLength(toks []token.Token) int {
	if len(toks) == 0 {
		return 0
	}
	last := toks[len(toks)-1]
	return last.Offset + len(last.Text)
}

func (p *Parser) unexpected(state int, tok token.Token) error {
	cause := ErrUnexpectedToken
	detail := tok.String()
	if tok.Type == token.EOF {
		cause = ErrUnexpectedEOF
		detail = ""
	}
	if expected := p.tab.ExpectedTerminals(state); len(expected) > 0 {
		quoted := make([]string, len(expected))
		for i, e := range expected {
			quoted[i] = fmt.Sprintf("%q", e)
		}
		if detail != "" {
			detail += "; "
		}
		detail += "expected: " + strings.Join(quoted, ", ")
	}
	return &verr.FormulaError{
		Cause:  cause,
		Detail: detail,
		Offset: tok.Offset,
	}
}

type stacks struct {
	states []int
	values []interface{}
}

func (s *stacks) push(state int, v interface{}) {
	s.states = append(s.states, state)
	s.values = append(s.values, v)
}

func (s *stacks) pop(n int) {
	for i := len(s.values) - n; i < len(s.values); i++ {
		s.values[i] = nil
	}
	s.states = s.states[:len(s.states)-n]
	s.values = s.values[:len(s.values)-n]
}

func (s *stacks) top() int {
	return s.states[len(s.states)-1]
}

func (s *stacks) len() int {
	return len(s.states)
}

// stackPool lends the stacks of a parse. Parses are short and frequent, so the stacks are reused.
type stackPool struct {
	opool *pool.ObjectPool
	ctx   context.Context
}

func newStackPool() *stackPool {
	factory := pool.NewPooledObjectFactorySimple(
		func(context.Context) (interface{}, error) {
			return &stacks{
				states: make([]int, 0, 64),
				values: make([]interface{}, 0, 64),
			}, nil
		})
	poolConfig := pool.NewDefaultPoolConfig()
	poolConfig.MaxTotal = -1
	poolConfig.BlockWhenExhausted = false
	ctx := context.Background()
	return &stackPool{
		opool: pool.NewObjectPool(ctx, factory, poolConfig),
		ctx:   ctx,
	}
}

func (p *stackPool) borrow() (*stacks, error) {
	o, err := p.opool.BorrowObject(p.ctx)
	if err != nil {
		return nil, err
	}
	return o.(*stacks), nil
}

func (p *stackPool) release(s *stacks) {
	s.pop(len(s.states))
	if err := p.opool.ReturnObject(p.ctx, s); err != nil {
		tracer().Errorf("formula parser: cannot return parse stacks to the pool: %v", err)
	}
}
