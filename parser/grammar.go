package parser

import (
	"fmt"
	"strconv"

	"github.com/nihei9/scoreformula/ast"
	"github.com/nihei9/scoreformula/grammar"
	"github.com/nihei9/scoreformula/token"
)

// builder makes the semantic value of a production's LHS from the values of its RHS. A value is a
// token.Token for a terminal and an ast.Node for a non-terminal.
type builder func(c []interface{}) (ast.Node, error)

type production struct {
	lhs   token.Type
	rhs   []token.Type
	build builder
}

func prod(build builder, lhs token.Type, rhs ...token.Type) *production {
	return &production{
		lhs:   lhs,
		rhs:   rhs,
		build: build,
	}
}

// productions is the phrase structure of formulas, loosest binding first. Comparisons don't associate, and
// `^` associates to the right and binds tighter than a unary sign: `-2 ^ 2` is `-(2 ^ 2)`.
var productions = []*production{
	prod(pass, token.Formula, token.Expr),

	prod(binary, token.Expr, token.Expr, token.OrOr, token.AndExpr),
	prod(pass, token.Expr, token.AndExpr),

	prod(binary, token.AndExpr, token.AndExpr, token.AndAnd, token.NotExpr),
	prod(pass, token.AndExpr, token.NotExpr),

	prod(unary, token.NotExpr, token.Bang, token.NotExpr),
	prod(pass, token.NotExpr, token.Comparison),

	prod(binary, token.Comparison, token.Arith, token.Equal, token.Arith),
	prod(binary, token.Comparison, token.Arith, token.NotEqual, token.Arith),
	prod(binary, token.Comparison, token.Arith, token.Less, token.Arith),
	prod(binary, token.Comparison, token.Arith, token.LessEqual, token.Arith),
	prod(binary, token.Comparison, token.Arith, token.Greater, token.Arith),
	prod(binary, token.Comparison, token.Arith, token.GreaterEqual, token.Arith),
	prod(pass, token.Comparison, token.Arith),

	prod(binary, token.Arith, token.Arith, token.Plus, token.Term),
	prod(binary, token.Arith, token.Arith, token.Minus, token.Term),
	prod(pass, token.Arith, token.Term),

	prod(binary, token.Term, token.Term, token.Star, token.Factor),
	prod(binary, token.Term, token.Term, token.Slash, token.Factor),
	prod(binary, token.Term, token.Term, token.Percent, token.Factor),
	prod(pass, token.Term, token.Factor),

	prod(unary, token.Factor, token.Minus, token.Factor),
	prod(unary, token.Factor, token.Plus, token.Factor),
	prod(pass, token.Factor, token.Power),

	prod(binary, token.Power, token.Primary, token.Caret, token.Factor),
	prod(pass, token.Power, token.Primary),

	prod(number, token.Primary, token.Number),
	prod(boolean, token.Primary, token.True),
	prod(boolean, token.Primary, token.False),
	prod(variable, token.Primary, token.Variable),
	prod(variable, token.Primary, token.Identifier),
	prod(group, token.Primary, token.LParen, token.Expr, token.RParen),
	prod(pass, token.Primary, token.Call),
	prod(pass, token.Primary, token.Conditional),

	prod(call, token.Call, token.Identifier, token.LParen, token.RParen),
	prod(call, token.Call, token.Identifier, token.LParen, token.ArgList, token.RParen),

	prod(conditional, token.Conditional, token.If, token.LParen, token.Expr, token.Comma, token.Expr, token.Comma, token.Expr, token.RParen),

	prod(appendArg, token.ArgList, token.ArgList, token.Comma, token.Expr),
	prod(newArgList, token.ArgList, token.Expr),
}

// Grammar returns the formula grammar, for instance to compile it with reporting enabled.
func Grammar() (*grammar.Grammar, error) {
	gram, _, err := newGrammar()
	return gram, err
}

// newGrammar declares the formula grammar. The returned builders are indexed by production number.
func newGrammar() (*grammar.Grammar, []builder, error) {
	b := grammar.NewBuilder("formula")
	b.Start(token.Formula.SymbolName())

	seen := map[string]struct{}{}
	for _, t := range token.Terminals() {
		if t == token.EOF {
			continue
		}
		name := t.SymbolName()
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		b.Terminals(name)
	}

	builders := []builder{nil, nil}
	for _, p := range productions {
		rhs := make([]string, len(p.rhs))
		for i, t := range p.rhs {
			rhs[i] = t.SymbolName()
		}
		num := b.Production(p.lhs.SymbolName(), rhs...)
		if num != len(builders) {
			return nil, nil, fmt.Errorf("unexpected production number %v; want %v", num, len(builders))
		}
		builders = append(builders, p.build)
	}

	gram, err := b.Build()
	if err != nil {
		return nil, nil, err
	}
	return gram, builders, nil
}

func tokenAt(c []interface{}, i int) (token.Token, error) {
	tok, ok := c[i].(token.Token)
	if !ok {
		return token.Token{}, fmt.Errorf("a value #%v is not a token: %T", i, c[i])
	}
	return tok, nil
}

func nodeAt(c []interface{}, i int) (ast.Node, error) {
	n, ok := c[i].(ast.Node)
	if !ok {
		return nil, fmt.Errorf("a value #%v is not a node: %T", i, c[i])
	}
	return n, nil
}

func pass(c []interface{}) (ast.Node, error) {
	return nodeAt(c, 0)
}

func binary(c []interface{}) (ast.Node, error) {
	left, err := nodeAt(c, 0)
	if err != nil {
		return nil, err
	}
	op, err := tokenAt(c, 1)
	if err != nil {
		return nil, err
	}
	right, err := nodeAt(c, 2)
	if err != nil {
		return nil, err
	}
	o, ok := ast.BinaryOperator(op.Type)
	if !ok {
		return nil, fmt.Errorf("not a binary operator: %v", op)
	}
	return ast.NewBinaryOp(o, left, right, op.Offset), nil
}

func unary(c []interface{}) (ast.Node, error) {
	op, err := tokenAt(c, 0)
	if err != nil {
		return nil, err
	}
	operand, err := nodeAt(c, 1)
	if err != nil {
		return nil, err
	}
	o, ok := ast.UnaryOperator(op.Type)
	if !ok {
		return nil, fmt.Errorf("not a unary operator: %v", op)
	}
	return ast.NewUnaryOp(o, operand, op.Offset), nil
}

func number(c []interface{}) (ast.Node, error) {
	tok, err := tokenAt(c, 0)
	if err != nil {
		return nil, err
	}
	// A literal too large for a float64 becomes an infinity, which the validity rules reject.
	v, err := strconv.ParseFloat(tok.Text, 64)
	if err != nil {
		if nErr, ok := err.(*strconv.NumError); !ok || nErr.Err != strconv.ErrRange {
			return nil, err
		}
	}
	return ast.NewNumber(v, tok.Text, tok.Offset), nil
}

func boolean(c []interface{}) (ast.Node, error) {
	tok, err := tokenAt(c, 0)
	if err != nil {
		return nil, err
	}
	return ast.NewBoolean(tok.Type == token.True, tok.Offset), nil
}

func variable(c []interface{}) (ast.Node, error) {
	tok, err := tokenAt(c, 0)
	if err != nil {
		return nil, err
	}
	return ast.NewVariable(tok.Text, tok.Offset), nil
}

func group(c []interface{}) (ast.Node, error) {
	n, err := nodeAt(c, 1)
	if err != nil {
		return nil, err
	}
	return ast.Group(n), nil
}

func call(c []interface{}) (ast.Node, error) {
	name, err := tokenAt(c, 0)
	if err != nil {
		return nil, err
	}
	var args *ast.ArgumentList
	if len(c) == 4 {
		n, err := nodeAt(c, 2)
		if err != nil {
			return nil, err
		}
		l, ok := n.(*ast.ArgumentList)
		if !ok {
			return nil, fmt.Errorf("not an argument list: %T", n)
		}
		args = l
	}
	return ast.NewFunctionCall(name.Text, args, name.Offset), nil
}

func conditional(c []interface{}) (ast.Node, error) {
	kw, err := tokenAt(c, 0)
	if err != nil {
		return nil, err
	}
	cond, err := nodeAt(c, 2)
	if err != nil {
		return nil, err
	}
	then, err := nodeAt(c, 4)
	if err != nil {
		return nil, err
	}
	els, err := nodeAt(c, 6)
	if err != nil {
		return nil, err
	}
	return ast.NewConditional(cond, then, els, kw.Offset), nil
}

func newArgList(c []interface{}) (ast.Node, error) {
	item, err := nodeAt(c, 0)
	if err != nil {
		return nil, err
	}
	return ast.NewArgumentList(item.Pos(), item), nil
}

func appendArg(c []interface{}) (ast.Node, error) {
	n, err := nodeAt(c, 0)
	if err != nil {
		return nil, err
	}
	l, ok := n.(*ast.ArgumentList)
	if !ok {
		return nil, fmt.Errorf("not an argument list: %T", n)
	}
	item, err := nodeAt(c, 2)
	if err != nil {
		return nil, err
	}
	return l.Append(item), nil
}
