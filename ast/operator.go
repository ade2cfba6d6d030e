package ast

import "github.com/nihei9/scoreformula/token"

type Operator string

const (
	OpAdd          = Operator("+")
	OpSub          = Operator("-")
	OpMul          = Operator("*")
	OpDiv          = Operator("/")
	OpMod          = Operator("%")
	OpPow          = Operator("^")
	OpEqual        = Operator("==")
	OpNotEqual     = Operator("!=")
	OpLess         = Operator("<")
	OpLessEqual    = Operator("<=")
	OpGreater      = Operator(">")
	OpGreaterEqual = Operator(">=")
	OpAnd          = Operator("&&")
	OpOr           = Operator("||")
	OpNot          = Operator("!")
	OpNeg          = Operator("-")
	OpPos          = Operator("+")
)

var binaryOperators = map[Operator]struct{}{
	OpAdd:          {},
	OpSub:          {},
	OpMul:          {},
	OpDiv:          {},
	OpMod:          {},
	OpPow:          {},
	OpEqual:        {},
	OpNotEqual:     {},
	OpLess:         {},
	OpLessEqual:    {},
	OpGreater:      {},
	OpGreaterEqual: {},
	OpAnd:          {},
	OpOr:           {},
}

var unaryOperators = map[Operator]struct{}{
	OpNeg: {},
	OpPos: {},
	OpNot: {},
}

func IsBinaryOperator(op Operator) bool {
	_, ok := binaryOperators[op]
	return ok
}

func IsUnaryOperator(op Operator) bool {
	_, ok := unaryOperators[op]
	return ok
}

func (op Operator) IsComparison() bool {
	switch op {
	case OpEqual, OpNotEqual, OpLess, OpLessEqual, OpGreater, OpGreaterEqual:
		return true
	}
	return false
}

func (op Operator) IsLogical() bool {
	return op == OpAnd || op == OpOr || op == OpNot
}

// BinaryOperator maps an operator token to a binary operator. The keywords `and`, `or`, and `mod` map to
// the operators they stand for.
func BinaryOperator(t token.Type) (Operator, bool) {
	switch t {
	case token.Plus:
		return OpAdd, true
	case token.Minus:
		return OpSub, true
	case token.Star:
		return OpMul, true
	case token.Slash:
		return OpDiv, true
	case token.Percent, token.Mod:
		return OpMod, true
	case token.Caret:
		return OpPow, true
	case token.Equal:
		return OpEqual, true
	case token.NotEqual:
		return OpNotEqual, true
	case token.Less:
		return OpLess, true
	case token.LessEqual:
		return OpLessEqual, true
	case token.Greater:
		return OpGreater, true
	case token.GreaterEqual:
		return OpGreaterEqual, true
	case token.AndAnd, token.And:
		return OpAnd, true
	case token.OrOr, token.Or:
		return OpOr, true
	}
	return "", false
}

func UnaryOperator(t token.Type) (Operator, bool) {
	switch t {
	case token.Minus:
		return OpNeg, true
	case token.Plus:
		return OpPos, true
	case token.Bang, token.Not:
		return OpNot, true
	}
	return "", false
}

// precedence levels, loosest first. A child whose level is lower than its position requires is printed in
// parentheses.
const (
	levelOr = iota + 1
	levelAnd
	levelNot
	levelComparison
	levelArith
	levelTerm
	levelUnary
	levelPower
	levelPrimary
)

func binaryLevel(op Operator) int {
	switch op {
	case OpOr:
		return levelOr
	case OpAnd:
		return levelAnd
	case OpAdd, OpSub:
		return levelArith
	case OpMul, OpDiv, OpMod:
		return levelTerm
	case OpPow:
		return levelPower
	}
	if op.IsComparison() {
		return levelComparison
	}
	return levelPrimary
}

// operandLevels returns the levels the left and right operands of op need.
func operandLevels(op Operator) (int, int) {
	switch op {
	case OpOr:
		return levelOr, levelAnd
	case OpAnd:
		return levelAnd, levelNot
	case OpAdd, OpSub:
		return levelArith, levelTerm
	case OpMul, OpDiv, OpMod:
		return levelTerm, levelUnary
	case OpPow:
		return levelPrimary, levelUnary
	}
	// Comparisons don't associate.
	return levelArith, levelArith
}

func level(n Node) int {
	switch n := n.(type) {
	case *BinaryOp:
		return binaryLevel(n.Op)
	case *UnaryOp:
		if n.Op == OpNot {
			return levelNot
		}
		return levelUnary
	}
	return levelPrimary
}
