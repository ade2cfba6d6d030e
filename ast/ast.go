// Package ast defines the syntax tree of a formula.
//
// A tree is built only by the parser, one builder call per reduced production, and every node owns its
// children exclusively. Nodes don't point to their parents; code that needs the enclosing nodes receives
// them as a path from Walk.
package ast

import (
	"strings"
)

// Node is a node of a formula tree. The set of implementations is closed.
type Node interface {
	// Pos returns the byte offset of the node in the formula.
	Pos() int

	// ParenCount returns how many parenthesis groups directly enclose the node.
	ParenCount() int

	// Children returns the child nodes in evaluation order.
	Children() []Node

	group()
}

type base struct {
	Offset int
	Parens int
}

func (b *base) Pos() int {
	return b.Offset
}

func (b *base) ParenCount() int {
	return b.Parens
}

func (b *base) group() {
	b.Parens++
}

type Number struct {
	base
	Value float64

	// Text is the literal as written. It is empty for numbers that didn't come from a formula.
	Text string
}

func (n *Number) Children() []Node {
	return nil
}

type Boolean struct {
	base
	Value bool
}

func (n *Boolean) Children() []Node {
	return nil
}

// Variable refers to a binding by name. Braced is true for the `{name}` form and false for a bare
// identifier such as `PI`.
type Variable struct {
	base
	Name   string
	Braced bool
}

func (n *Variable) Children() []Node {
	return nil
}

type UnaryOp struct {
	base
	Op      Operator
	Operand Node
}

func (n *UnaryOp) Children() []Node {
	return []Node{n.Operand}
}

type BinaryOp struct {
	base
	Op    Operator
	Left  Node
	Right Node
}

func (n *BinaryOp) Children() []Node {
	return []Node{n.Left, n.Right}
}

type FunctionCall struct {
	base
	Name string
	Args *ArgumentList
}

func (n *FunctionCall) Children() []Node {
	if n.Args == nil {
		return nil
	}
	return []Node{n.Args}
}

// Conditional is `IF(condition, then, else)`. Only one of Then and Else is ever evaluated.
type Conditional struct {
	base
	Condition Node
	Then      Node
	Else      Node
}

func (n *Conditional) Children() []Node {
	return []Node{n.Condition, n.Then, n.Else}
}

type ArgumentList struct {
	base
	Items []Node
}

func (n *ArgumentList) Children() []Node {
	return n.Items
}

func (n *ArgumentList) Len() int {
	if n == nil {
		return 0
	}
	return len(n.Items)
}

func NewNumber(value float64, text string, offset int) *Number {
	return &Number{
		base:  base{Offset: offset},
		Value: value,
		Text:  text,
	}
}

func NewBoolean(value bool, offset int) *Boolean {
	return &Boolean{
		base:  base{Offset: offset},
		Value: value,
	}
}

// NewVariable accepts both `{name}` and `name`; the braces are not part of the name.
func NewVariable(text string, offset int) *Variable {
	braced := strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}") && len(text) >= 2
	name := text
	if braced {
		name = text[1 : len(text)-1]
	}
	return &Variable{
		base:   base{Offset: offset},
		Name:   name,
		Braced: braced,
	}
}

func NewUnaryOp(op Operator, operand Node, offset int) *UnaryOp {
	return &UnaryOp{
		base:    base{Offset: offset},
		Op:      op,
		Operand: operand,
	}
}

// NewBinaryOp builds a binary operation. offset is the offset of the operator.
func NewBinaryOp(op Operator, left, right Node, offset int) *BinaryOp {
	return &BinaryOp{
		base:  base{Offset: offset},
		Op:    op,
		Left:  left,
		Right: right,
	}
}

// NewFunctionCall builds a call. args may be nil for a call without arguments.
func NewFunctionCall(name string, args *ArgumentList, offset int) *FunctionCall {
	if args == nil {
		args = NewArgumentList(offset)
	}
	return &FunctionCall{
		base: base{Offset: offset},
		Name: name,
		Args: args,
	}
}

func NewConditional(cond, then, els Node, offset int) *Conditional {
	return &Conditional{
		base:      base{Offset: offset},
		Condition: cond,
		Then:      then,
		Else:      els,
	}
}

func NewArgumentList(offset int, items ...Node) *ArgumentList {
	return &ArgumentList{
		base:  base{Offset: offset},
		Items: items,
	}
}

// Append adds an item to the end of the list and returns the list.
func (n *ArgumentList) Append(item Node) *ArgumentList {
	n.Items = append(n.Items, item)
	return n
}

// Group records that n is enclosed in one more pair of parentheses and returns n.
func Group(n Node) Node {
	n.group()
	return n
}
