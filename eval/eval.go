// Package eval computes the value of formula syntax trees.
//
// Evaluation is a pure function of a tree and its bindings. Operands are evaluated left to right, `&&` and `||`
// stop as soon as the result is known, and a conditional evaluates its condition and exactly one branch.
// Every failure is returned as a *verr.FormulaError whose Cause is one of the sentinel errors of this package
// and whose Offset points at the node that failed.
package eval

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/npillmayer/schuko/tracing"

	"github.com/nihei9/scoreformula/ast"
	verr "github.com/nihei9/scoreformula/error"
	"github.com/nihei9/scoreformula/internal/trace"
	"github.com/nihei9/scoreformula/value"
)

func tracer() tracing.Trace {
	return trace.Core()
}

var constants = map[string]value.Value{
	"PI":    value.Number(math.Pi),
	"E":     value.Number(math.E),
	"TRUE":  value.Boolean(true),
	"FALSE": value.Boolean(false),
}

// IsConstant reports whether name is bound to a built-in constant. Constants can't be bound as variables.
func IsConstant(name string) bool {
	_, ok := constants[name]
	return ok
}

// Constants returns the names of the built-in constants.
func Constants() []string {
	return []string{"E", "FALSE", "PI", "TRUE"}
}

// checkBindings rejects variables named after a constant. The failure has no position in the formula.
func checkBindings(vars map[string]value.Value) error {
	for _, name := range Constants() {
		if _, ok := vars[name]; ok {
			return &verr.FormulaError{
				Cause:  ErrReadOnlyVariable,
				Detail: fmt.Sprintf("%v is a constant and cannot be bound", name),
				Offset: -1,
			}
		}
	}
	return nil
}

type Evaluator struct {
	Registry *Registry
}

// New returns an evaluator calling the functions of reg. With a nil reg, the built-in functions are used.
func New(reg *Registry) *Evaluator {
	if reg == nil {
		reg = DefaultRegistry()
	}
	return &Evaluator{
		Registry: reg,
	}
}

// Evaluate computes the value of a tree. vars is only read.
func (e *Evaluator) Evaluate(root ast.Node, vars map[string]value.Value) (value.Value, error) {
	if err := checkBindings(vars); err != nil {
		tracer().Debugf("evaluation failed: %v", err)
		return value.Null, err
	}
	s := &evaluation{
		registry: e.Registry,
		vars:     vars,
	}
	v, err := s.eval(root)
	if err != nil {
		tracer().Debugf("evaluation failed: %v", err)
		return value.Null, err
	}
	return v, nil
}

type evaluation struct {
	registry *Registry
	vars     map[string]value.Value
}

func fail(cause error, n ast.Node, format string, a ...interface{}) error {
	offset := -1
	if n != nil {
		offset = n.Pos()
	}
	return &verr.FormulaError{
		Cause:  cause,
		Detail: fmt.Sprintf(format, a...),
		Offset: offset,
	}
}

func (s *evaluation) eval(n ast.Node) (value.Value, error) {
	switch n := n.(type) {
	case *ast.Number:
		if n == nil {
			break
		}
		if math.IsNaN(n.Value) || math.IsInf(n.Value, 0) {
			return value.Null, fail(ErrDomain, n, "number %v is out of range", n.Text)
		}
		return value.Number(n.Value), nil
	case *ast.Boolean:
		if n == nil {
			break
		}
		return value.Boolean(n.Value), nil
	case *ast.Variable:
		if n == nil {
			break
		}
		return s.lookup(n)
	case *ast.UnaryOp:
		if n == nil || n.Operand == nil {
			break
		}
		return s.evalUnary(n)
	case *ast.BinaryOp:
		if n == nil || n.Left == nil || n.Right == nil {
			break
		}
		return s.evalBinary(n)
	case *ast.Conditional:
		if n == nil || n.Condition == nil || n.Then == nil || n.Else == nil {
			break
		}
		cond, err := s.evalBoolean(n.Condition)
		if err != nil {
			return value.Null, err
		}
		if cond {
			return s.eval(n.Then)
		}
		return s.eval(n.Else)
	case *ast.FunctionCall:
		if n == nil {
			break
		}
		return s.evalCall(n)
	case *ast.ArgumentList:
		return value.Null, fail(ErrInvalidNode, nil, "an argument list has no value")
	}
	return value.Null, fail(ErrInvalidNode, nil, "incomplete or unknown node %T", n)
}

func (s *evaluation) lookup(n *ast.Variable) (value.Value, error) {
	if v, ok := constants[n.Name]; ok {
		return v, nil
	}
	v, ok := s.vars[n.Name]
	if !ok {
		return value.Null, fail(ErrUndefinedVariable, n, "%v", n.Name)
	}
	return v, nil
}

func (s *evaluation) evalNumber(n ast.Node) (float64, error) {
	v, err := s.eval(n)
	if err != nil {
		return 0, err
	}
	f, err := v.ToNumber()
	if err != nil {
		return 0, fail(ErrTypeMismatch, n, "%v is not a number: %v", ast.Format(n), err)
	}
	return f, nil
}

func (s *evaluation) evalBoolean(n ast.Node) (bool, error) {
	v, err := s.eval(n)
	if err != nil {
		return false, err
	}
	b, err := v.ToBoolean()
	if err != nil {
		return false, fail(ErrTypeMismatch, n, "%v is not a boolean: %v", ast.Format(n), err)
	}
	return b, nil
}

func (s *evaluation) evalUnary(n *ast.UnaryOp) (value.Value, error) {
	switch n.Op {
	case ast.OpNot:
		b, err := s.evalBoolean(n.Operand)
		if err != nil {
			return value.Null, err
		}
		return value.Boolean(!b), nil
	case ast.OpNeg:
		f, err := s.evalNumber(n.Operand)
		if err != nil {
			return value.Null, err
		}
		return value.Number(-f), nil
	case ast.OpPos:
		f, err := s.evalNumber(n.Operand)
		if err != nil {
			return value.Null, err
		}
		return value.Number(f), nil
	}
	return value.Null, fail(ErrUnsupportedOperator, n, "unary %v", n.Op)
}

func (s *evaluation) evalBinary(n *ast.BinaryOp) (value.Value, error) {
	switch {
	case n.Op.IsLogical():
		return s.evalLogical(n)
	case n.Op == ast.OpEqual || n.Op == ast.OpNotEqual:
		l, err := s.eval(n.Left)
		if err != nil {
			return value.Null, err
		}
		r, err := s.eval(n.Right)
		if err != nil {
			return value.Null, err
		}
		eq := value.Equal(l, r)
		if n.Op == ast.OpNotEqual {
			eq = !eq
		}
		return value.Boolean(eq), nil
	case n.Op.IsComparison():
		return s.evalComparison(n)
	case ast.IsBinaryOperator(n.Op):
		return s.evalArithmetic(n)
	}
	return value.Null, fail(ErrUnsupportedOperator, n, "binary %v", n.Op)
}

func (s *evaluation) evalLogical(n *ast.BinaryOp) (value.Value, error) {
	l, err := s.evalBoolean(n.Left)
	if err != nil {
		return value.Null, err
	}
	if n.Op == ast.OpAnd && !l {
		return value.Boolean(false), nil
	}
	if n.Op == ast.OpOr && l {
		return value.Boolean(true), nil
	}
	r, err := s.evalBoolean(n.Right)
	if err != nil {
		return value.Null, err
	}
	return value.Boolean(r), nil
}

func (s *evaluation) evalComparison(n *ast.BinaryOp) (value.Value, error) {
	l, err := s.eval(n.Left)
	if err != nil {
		return value.Null, err
	}
	r, err := s.eval(n.Right)
	if err != nil {
		return value.Null, err
	}

	var c int
	if l.Kind() == value.KindString && r.Kind() == value.KindString {
		c = strings.Compare(l.String(), r.String())
	} else {
		x, err := l.ToNumber()
		if err != nil {
			return value.Null, fail(ErrTypeMismatch, n, "cannot compare %v: %v", ast.Format(n.Left), err)
		}
		y, err := r.ToNumber()
		if err != nil {
			return value.Null, fail(ErrTypeMismatch, n, "cannot compare %v: %v", ast.Format(n.Right), err)
		}
		switch {
		case math.IsNaN(x) || math.IsNaN(y):
			return value.Boolean(false), nil
		case x < y:
			c = -1
		case x > y:
			c = 1
		}
	}

	switch n.Op {
	case ast.OpLess:
		return value.Boolean(c < 0), nil
	case ast.OpLessEqual:
		return value.Boolean(c <= 0), nil
	case ast.OpGreater:
		return value.Boolean(c > 0), nil
	default:
		return value.Boolean(c >= 0), nil
	}
}

func (s *evaluation) evalArithmetic(n *ast.BinaryOp) (value.Value, error) {
	x, err := s.evalNumber(n.Left)
	if err != nil {
		return value.Null, err
	}
	y, err := s.evalNumber(n.Right)
	if err != nil {
		return value.Null, err
	}

	var f float64
	switch n.Op {
	case ast.OpAdd:
		f = x + y
	case ast.OpSub:
		f = x - y
	case ast.OpMul:
		f = x * y
	case ast.OpDiv:
		if y == 0 {
			return value.Null, fail(ErrDivisionByZero, n, "%v / 0", value.FormatNumber(x))
		}
		f = x / y
	case ast.OpMod:
		if y == 0 {
			return value.Null, fail(ErrDivisionByZero, n, "%v %% 0", value.FormatNumber(x))
		}
		f = math.Mod(x, y)
	case ast.OpPow:
		f, err = power(x, y)
		if err != nil {
			return value.Null, s.positioned(err, n, "")
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return value.Null, fail(ErrDomain, n, "%v %v %v is not finite", value.FormatNumber(x), n.Op, value.FormatNumber(y))
	}
	return value.Number(f), nil
}

func (s *evaluation) evalCall(n *ast.FunctionCall) (value.Value, error) {
	name := strings.ToUpper(n.Name)
	f, ok := s.registry.Lookup(name)
	if !ok {
		return value.Null, fail(ErrUnsupportedFunction, n, "%v", name)
	}
	argc := n.Args.Len()
	if !f.accepts(argc) {
		return value.Null, fail(ErrArgumentCount, n, "%v takes %v; got %v argument(s)", name, arityText(f), argc)
	}

	args := make([]value.Value, argc)
	for i := 0; i < argc; i++ {
		v, err := s.eval(n.Args.Items[i])
		if err != nil {
			return value.Null, err
		}
		args[i] = v
	}
	v, err := f.Call(args)
	if err != nil {
		return value.Null, s.positioned(err, n, name)
	}
	return v, nil
}

// positioned moves a failure reported by a function to the node that called it.
func (s *evaluation) positioned(err error, n ast.Node, name string) error {
	var fe *verr.FormulaError
	if errors.As(err, &fe) {
		c := *fe
		if c.Offset < 0 {
			c.Offset = n.Pos()
		}
		return &c
	}
	return fail(err, n, "%v", name)
}

func arityText(f *Function) string {
	switch {
	case f.MaxArgs < 0:
		return fmt.Sprintf("at least %v argument(s)", f.MinArgs)
	case f.MinArgs == f.MaxArgs:
		return fmt.Sprintf("%v argument(s)", f.MinArgs)
	}
	return fmt.Sprintf("%v to %v arguments", f.MinArgs, f.MaxArgs)
}
