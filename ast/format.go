package ast

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Format renders n as formula text. Parsing the text again yields a tree of the same shape. Parentheses the
// formula had are kept, and parentheses the precedence of the operators requires are added.
func Format(n Node) string {
	var b strings.Builder
	format(&b, n, levelOr)
	return b.String()
}

func format(b *strings.Builder, n Node, required int) {
	if n == nil {
		return
	}
	parens := n.ParenCount()
	if parens == 0 && level(n) < required {
		parens = 1
	}
	b.WriteString(strings.Repeat("(", parens))
	defer b.WriteString(strings.Repeat(")", parens))

	switch n := n.(type) {
	case *Number:
		b.WriteString(formatNumber(n))
	case *Boolean:
		b.WriteString(strconv.FormatBool(n.Value))
	case *Variable:
		if n.Braced {
			fmt.Fprintf(b, "{%v}", n.Name)
		} else {
			b.WriteString(n.Name)
		}
	case *UnaryOp:
		b.WriteString(string(n.Op))
		if n.Op == OpNot {
			format(b, n.Operand, levelNot)
		} else {
			format(b, n.Operand, levelUnary)
		}
	case *BinaryOp:
		left, right := operandLevels(n.Op)
		format(b, n.Left, left)
		fmt.Fprintf(b, " %v ", n.Op)
		format(b, n.Right, right)
	case *FunctionCall:
		b.WriteString(n.Name)
		b.WriteString("(")
		if n.Args != nil {
			formatItems(b, n.Args.Items)
		}
		b.WriteString(")")
	case *Conditional:
		b.WriteString("IF(")
		formatItems(b, []Node{n.Condition, n.Then, n.Else})
		b.WriteString(")")
	case *ArgumentList:
		formatItems(b, n.Items)
	}
}

func formatItems(b *strings.Builder, items []Node) {
	for i, item := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		format(b, item, levelOr)
	}
}

func formatNumber(n *Number) string {
	if n.Text != "" {
		return n.Text
	}
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

// Label returns a one-line description of a node without its children.
func Label(n Node) string {
	switch n := n.(type) {
	case *Number:
		return fmt.Sprintf("number %v", formatNumber(n))
	case *Boolean:
		return fmt.Sprintf("boolean %v", n.Value)
	case *Variable:
		return fmt.Sprintf("variable %v", n.Name)
	case *UnaryOp:
		return fmt.Sprintf("unary_op %v", n.Op)
	case *BinaryOp:
		return fmt.Sprintf("binary_op %v", n.Op)
	case *FunctionCall:
		return fmt.Sprintf("function_call %v", strings.ToUpper(n.Name))
	case *Conditional:
		return "conditional"
	case *ArgumentList:
		return fmt.Sprintf("argument_list (%v)", len(n.Items))
	}
	return fmt.Sprintf("%T", n)
}

// PrintTree prints the tree rooted at node with ruled lines.
func PrintTree(w io.Writer, node Node) {
	printTree(w, node, "", "")
}

func printTree(w io.Writer, node Node, ruledLine string, childRuledLinePrefix string) {
	if node == nil {
		return
	}

	fmt.Fprintf(w, "%v%v\n", ruledLine, Label(node))

	children := node.Children()
	num := len(children)
	for i, child := range children {
		var line string
		if num > 1 && i < num-1 {
			line = "├─ "
		} else {
			line = "└─ "
		}

		var prefix string
		if i >= num-1 {
			prefix = "   "
		} else {
			prefix = "│  "
		}

		printTree(w, child, childRuledLinePrefix+line, childRuledLinePrefix+prefix)
	}
}
