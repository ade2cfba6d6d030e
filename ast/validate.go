package ast

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	verr "github.com/nihei9/scoreformula/error"
	"github.com/nihei9/scoreformula/token"
)

type ValidityError struct {
	message string
}

func newValidityError(message string) *ValidityError {
	return &ValidityError{
		message: message,
	}
}

func (e *ValidityError) Error() string {
	return e.message
}

var (
	ErrNumberOutOfRange    = newValidityError("number out of range")
	ErrInvalidName         = newValidityError("invalid name")
	ErrReservedWord        = newValidityError("reserved word")
	ErrUnsupportedOperator = newValidityError("unsupported operator")
	ErrUnsupportedFunction = newValidityError("unsupported function")
	ErrDepthExceeded       = newValidityError("formula nested too deeply")
	ErrNodeCountExceeded   = newValidityError("formula too large")
	ErrArgumentCount       = newValidityError("wrong number of arguments")
	ErrArgumentListTooLong = newValidityError("argument list too long")
	ErrZeroDivisor         = newValidityError("division by literal zero")
	ErrZeroPowerZero       = newValidityError("zero raised to the power of zero")
	errUnknownNode         = newValidityError("unknown node")
	errIncompleteNode      = newValidityError("incomplete node")
)

const (
	MaxNumber          = 1e15
	MaxDepth           = 50
	MaxNodeCount       = 1000
	MaxFixedArguments  = 10
	MaxArgumentListLen = 100
)

// Catalog tells the validity rules which functions exist. max is negative for variadic functions.
type Catalog interface {
	Arity(name string) (min int, max int, ok bool)
}

// Rule checks one node. path holds the nodes enclosing n, the root first; a rule for the whole tree runs when
// path is empty.
type Rule func(n Node, path []Node) []*verr.FormulaError

// All combines rules into a rule that reports the violations of every rule.
func All(rules ...Rule) Rule {
	return func(n Node, path []Node) []*verr.FormulaError {
		var errs []*verr.FormulaError
		for _, r := range rules {
			errs = append(errs, r(n, path)...)
		}
		return errs
	}
}

// Check applies rule to every node of the tree and returns the violations as verr.FormulaErrors, or nil.
func Check(root Node, rule Rule) error {
	var errs verr.FormulaErrors
	Walk(root, func(n Node, path []Node) bool {
		errs = append(errs, rule(n, path)...)
		return true
	})
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Validate checks the tree against every validity rule. catalog may be nil, in which case calls are not
// checked against known functions.
func Validate(root Node, catalog Catalog) error {
	return Check(root, Rules(catalog))
}

// ValidateStructure checks the tree against the structural rules only. Literal zero divisors and 0^0 pass,
// since they may sit in a branch evaluation never takes.
func ValidateStructure(root Node, catalog Catalog) error {
	return Check(root, StructuralRules(catalog))
}

// Rules returns the validity rules of formulas.
func Rules(catalog Catalog) Rule {
	return All(
		StructuralRules(catalog),
		NoZeroDivisor,
		NoZeroPowerZero,
	)
}

// StructuralRules returns the rules on the shape of a tree: its size, names, operators and calls.
func StructuralRules(catalog Catalog) Rule {
	rules := []Rule{
		CompleteNode,
		DepthLimit(MaxDepth),
		NodeCountLimit(MaxNodeCount),
		NumberInRange,
		ValidName,
		SupportedOperator,
		ArgumentListLimit(MaxArgumentListLen),
	}
	if catalog != nil {
		rules = append(rules, KnownFunction(catalog))
	}
	return All(rules...)
}

func violation(cause error, n Node, format string, a ...interface{}) []*verr.FormulaError {
	return []*verr.FormulaError{
		{
			Cause:  cause,
			Detail: fmt.Sprintf(format, a...),
			Offset: n.Pos(),
		},
	}
}

// CompleteNode rejects nodes with missing children and node types this package doesn't know.
func CompleteNode(n Node, _ []Node) []*verr.FormulaError {
	switch n := n.(type) {
	case *Number, *Boolean, *Variable, *ArgumentList:
		return nil
	case *UnaryOp:
		if n.Operand == nil {
			return violation(errIncompleteNode, n, "%v has no operand", n.Op)
		}
	case *BinaryOp:
		if n.Left == nil || n.Right == nil {
			return violation(errIncompleteNode, n, "%v lacks an operand", n.Op)
		}
	case *FunctionCall:
		if n.Args == nil {
			return violation(errIncompleteNode, n, "%v has no argument list", n.Name)
		}
	case *Conditional:
		if n.Condition == nil || n.Then == nil || n.Else == nil {
			return violation(errIncompleteNode, n, "IF lacks a part")
		}
	default:
		return violation(errUnknownNode, n, "%T", n)
	}
	return nil
}

func DepthLimit(max int) Rule {
	return func(n Node, path []Node) []*verr.FormulaError {
		if len(path) > 0 {
			return nil
		}
		if d := Depth(n); d > max {
			return violation(ErrDepthExceeded, n, "depth %v exceeds the limit %v", d, max)
		}
		return nil
	}
}

func NodeCountLimit(max int) Rule {
	return func(n Node, path []Node) []*verr.FormulaError {
		if len(path) > 0 {
			return nil
		}
		if c := Count(n); c > max {
			return violation(ErrNodeCountExceeded, n, "%v nodes exceed the limit %v", c, max)
		}
		return nil
	}
}

func NumberInRange(n Node, _ []Node) []*verr.FormulaError {
	num, ok := n.(*Number)
	if !ok {
		return nil
	}
	if math.IsNaN(num.Value) || math.IsInf(num.Value, 0) || math.Abs(num.Value) > MaxNumber {
		return violation(ErrNumberOutOfRange, n, "%v is not within [-%v, %v]", formatNumber(num), MaxNumber, MaxNumber)
	}
	return nil
}

var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidName checks the names of variables and functions.
func ValidName(n Node, _ []Node) []*verr.FormulaError {
	var name, kind string
	switch n := n.(type) {
	case *Variable:
		name, kind = n.Name, "variable"
	case *FunctionCall:
		name, kind = n.Name, "function"
	default:
		return nil
	}
	if !namePattern.MatchString(name) {
		return violation(ErrInvalidName, n, "%v name %q", kind, name)
	}
	if token.IsReserved(name) {
		return violation(ErrReservedWord, n, "%q cannot be used as a %v name", name, kind)
	}
	return nil
}

func SupportedOperator(n Node, _ []Node) []*verr.FormulaError {
	switch n := n.(type) {
	case *UnaryOp:
		if !IsUnaryOperator(n.Op) {
			return violation(ErrUnsupportedOperator, n, "unary %q", n.Op)
		}
	case *BinaryOp:
		if !IsBinaryOperator(n.Op) {
			return violation(ErrUnsupportedOperator, n, "binary %q", n.Op)
		}
	}
	return nil
}

// isLiteralZero reports whether n is the literal 0, possibly signed.
func isLiteralZero(n Node) bool {
	switch n := n.(type) {
	case *Number:
		return n.Value == 0
	case *UnaryOp:
		if n.Op == OpNeg || n.Op == OpPos {
			return isLiteralZero(n.Operand)
		}
	}
	return false
}

func NoZeroDivisor(n Node, _ []Node) []*verr.FormulaError {
	b, ok := n.(*BinaryOp)
	if !ok || (b.Op != OpDiv && b.Op != OpMod) {
		return nil
	}
	if isLiteralZero(b.Right) {
		return violation(ErrZeroDivisor, n, "the right operand of %v is 0", b.Op)
	}
	return nil
}

func NoZeroPowerZero(n Node, _ []Node) []*verr.FormulaError {
	b, ok := n.(*BinaryOp)
	if !ok || b.Op != OpPow {
		return nil
	}
	if isLiteralZero(b.Left) && isLiteralZero(b.Right) {
		return violation(ErrZeroPowerZero, n, "0 ^ 0 is undefined")
	}
	return nil
}

func ArgumentListLimit(max int) Rule {
	return func(n Node, _ []Node) []*verr.FormulaError {
		f, ok := n.(*FunctionCall)
		if !ok {
			return nil
		}
		if l := f.Args.Len(); l > max {
			return violation(ErrArgumentListTooLong, n, "%v takes %v arguments; the limit is %v", strings.ToUpper(f.Name), l, max)
		}
		return nil
	}
}

// KnownFunction checks that a called function exists and receives a number of arguments it accepts. A
// function with a fixed arity accepts at most MaxFixedArguments arguments.
func KnownFunction(catalog Catalog) Rule {
	return func(n Node, _ []Node) []*verr.FormulaError {
		f, ok := n.(*FunctionCall)
		if !ok {
			return nil
		}
		name := strings.ToUpper(f.Name)
		min, max, ok := catalog.Arity(name)
		if !ok {
			return violation(ErrUnsupportedFunction, n, "%v", name)
		}
		l := f.Args.Len()
		if l < min {
			return violation(ErrArgumentCount, n, "%v takes at least %v argument(s); got %v", name, min, l)
		}
		if max >= 0 {
			if max > MaxFixedArguments {
				max = MaxFixedArguments
			}
			if l > max {
				return violation(ErrArgumentCount, n, "%v takes at most %v argument(s); got %v", name, max, l)
			}
		}
		return nil
	}
}
