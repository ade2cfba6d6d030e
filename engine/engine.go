// Package engine runs formulas: single formulas against a set of variables, and sequences of steps in which
// every step binds its result to a variable the following steps can read.
//
// An Engine holds a parser and an evaluator, both of which are read-only after New, so one Engine serves any
// number of concurrent executions. Each execution works on its own copy of the variables.
package engine

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/npillmayer/schuko/tracing"

	"github.com/nihei9/scoreformula/ast"
	verr "github.com/nihei9/scoreformula/error"
	"github.com/nihei9/scoreformula/eval"
	"github.com/nihei9/scoreformula/internal/trace"
	"github.com/nihei9/scoreformula/parser"
	"github.com/nihei9/scoreformula/token"
	"github.com/nihei9/scoreformula/value"
)

func tracer() tracing.Trace {
	return trace.Core()
}

// FinalScoreVariable is the variable holding the final result of an execution when a step binds it.
const FinalScoreVariable = "final_score"

// FormulaStep is one formula of an execution. Its result is bound to ResultVariable.
type FormulaStep struct {
	Order          int    `json:"order"`
	ID             string `json:"id,omitempty"`
	Name           string `json:"name"`
	Expression     string `json:"expression"`
	ResultVariable string `json:"result_variable"`
}

// ExecutionStep records a step that ran successfully.
type ExecutionStep struct {
	Order          int         `json:"order"`
	FormulaID      string      `json:"formula_id,omitempty"`
	Name           string      `json:"name"`
	Expression     string      `json:"expression"`
	ResultVariable string      `json:"result_variable"`
	Result         value.Value `json:"result"`
	Timestamp      time.Time   `json:"timestamp"`
}

type ExecutionResult struct {
	ID             string                 `json:"id,omitempty"`
	FormulaSet     string                 `json:"formula_set,omitempty"`
	Digest         string                 `json:"digest,omitempty"`
	FinalResult    value.Value            `json:"final_result"`
	Steps          []*ExecutionStep       `json:"steps"`
	InputVariables map[string]value.Value `json:"input_variables"`
	Variables      map[string]value.Value `json:"variables"`
	Failed         bool                   `json:"failed"`
	Error          string                 `json:"error,omitempty"`
	StartedAt      time.Time              `json:"started_at"`
	FinishedAt     time.Time              `json:"finished_at"`
}

type config struct {
	registry   *eval.Registry
	parserOpts []parser.Option
	clock      func() time.Time
}

type Option func(config *config)

// WithRegistry sets the functions formulas can call. The default is eval.DefaultRegistry().
func WithRegistry(r *eval.Registry) Option {
	return func(config *config) {
		config.registry = r
	}
}

func WithParserOptions(opts ...parser.Option) Option {
	return func(config *config) {
		config.parserOpts = append(config.parserOpts, opts...)
	}
}

// WithClock sets the source of the timestamps of execution records.
func WithClock(clock func() time.Time) Option {
	return func(config *config) {
		config.clock = clock
	}
}

type Engine struct {
	parser    *parser.Parser
	registry  *eval.Registry
	evaluator *eval.Evaluator
	clock     func() time.Time
}

// New compiles the formula grammar. A grammar that doesn't compile is an error, and no engine is returned.
func New(opts ...Option) (*Engine, error) {
	config := &config{
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(config)
	}
	if config.registry == nil {
		config.registry = eval.DefaultRegistry()
	}

	p, err := parser.New(config.parserOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build the formula parser: %w", err)
	}

	return &Engine{
		parser:    p,
		registry:  config.registry,
		evaluator: eval.New(config.registry),
		clock:     config.clock,
	}, nil
}

func (e *Engine) Registry() *eval.Registry {
	return e.registry
}

func (e *Engine) Parser() *parser.Parser {
	return e.parser
}

// Compile parses a formula and checks every validity rule without evaluating it.
func (e *Engine) Compile(expr string) (ast.Node, error) {
	return e.compile(expr, ast.Validate)
}

func (e *Engine) compile(expr string, validate func(ast.Node, ast.Catalog) error) (ast.Node, error) {
	root, err := e.parser.ParseString(expr)
	if err != nil {
		return nil, err
	}
	if err := validate(root, e.registry); err != nil {
		return nil, withSource(err, expr)
	}
	return root, nil
}

// Validate reports the syntax error or every violated validity rule of a formula.
func (e *Engine) Validate(expr string) error {
	_, err := e.Compile(expr)
	return err
}

// Evaluate compiles a formula and computes its value. Only the structural rules are checked before evaluation,
// so a literal zero divisor in a branch that is never taken doesn't fail the formula; one that is evaluated
// fails with eval.ErrDivisionByZero.
func (e *Engine) Evaluate(expr string, vars map[string]value.Value) (value.Value, error) {
	root, err := e.compile(expr, ast.ValidateStructure)
	if err != nil {
		return value.Null, err
	}
	v, err := e.evaluator.Evaluate(root, vars)
	if err != nil {
		return value.Null, withSource(err, expr)
	}
	return v, nil
}

// withSource attaches the formula to positioned errors so their messages can point into it.
func withSource(err error, src string) error {
	var errs verr.FormulaErrors
	if errors.As(err, &errs) {
		c := make(verr.FormulaErrors, len(errs))
		for i, e := range errs {
			c[i] = e.WithSource(src)
		}
		return c
	}
	var fe *verr.FormulaError
	if errors.As(err, &fe) {
		return fe.WithSource(src)
	}
	return err
}

var resultVariablePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func checkResultVariable(name string) error {
	if !resultVariablePattern.MatchString(name) || token.IsReserved(name) {
		return fmt.Errorf("%w: %q", ErrInvalidResultVariable, name)
	}
	if eval.IsConstant(name) {
		return fmt.Errorf("%w: %v is a read-only constant", ErrInvalidResultVariable, name)
	}
	return nil
}

// Execute runs steps ordered by Order, steps of the same order in the given order. Every step is evaluated
// against the input variables and the results of the steps before it, and then binds its result. A step result
// is always a number: booleans bind as 1 or 0, and a result that doesn't convert fails the step with
// eval.ErrTypeMismatch.
//
// The final result is the value of final_score when a step binds it, otherwise the value of the last step.
// When a step fails, or ctx is done before a step starts, the execution stops with a *StepError, and the result
// recorded so far is returned along with the error, marked as failed.
func (e *Engine) Execute(ctx context.Context, steps []FormulaStep, vars map[string]value.Value) (*ExecutionResult, error) {
	res := &ExecutionResult{
		InputVariables: copyVars(vars),
		Variables:      copyVars(vars),
		StartedAt:      e.clock(),
	}
	fail := func(err error) (*ExecutionResult, error) {
		res.Failed = true
		res.Error = err.Error()
		res.FinishedAt = e.clock()
		tracer().Errorf("execution failed: %v", err)
		return res, err
	}

	if len(steps) == 0 {
		return fail(ErrNoSteps)
	}
	ordered := make([]FormulaStep, len(steps))
	copy(ordered, steps)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Order < ordered[j].Order
	})

	tracer().Infof("executing %v step(s)", len(ordered))
	finalBound := false
	for i, step := range ordered {
		stepErr := func(cause error) error {
			return &StepError{
				Index:      i,
				Name:       step.Name,
				Expression: step.Expression,
				Cause:      cause,
			}
		}

		if err := ctx.Err(); err != nil {
			return fail(stepErr(err))
		}
		if err := checkResultVariable(step.ResultVariable); err != nil {
			return fail(stepErr(err))
		}
		v, err := e.Evaluate(step.Expression, res.Variables)
		if err != nil {
			return fail(stepErr(err))
		}
		n, err := v.ToNumber()
		if err != nil {
			return fail(stepErr(fmt.Errorf("%w: the result of %v is not a number: %v", eval.ErrTypeMismatch, step.ResultVariable, err)))
		}
		v = value.Number(n)

		res.Steps = append(res.Steps, &ExecutionStep{
			Order:          step.Order,
			FormulaID:      step.ID,
			Name:           step.Name,
			Expression:     step.Expression,
			ResultVariable: step.ResultVariable,
			Result:         v,
			Timestamp:      e.clock(),
		})
		res.Variables[step.ResultVariable] = v
		if step.ResultVariable == FinalScoreVariable {
			finalBound = true
		}
		tracer().Debugf("step #%v %v = %v", i, step.ResultVariable, v)
	}

	if finalBound {
		res.FinalResult = res.Variables[FinalScoreVariable]
	} else {
		res.FinalResult = res.Steps[len(res.Steps)-1].Result
	}
	res.FinishedAt = e.clock()
	tracer().Infof("execution finished: %v", res.FinalResult)

	return res, nil
}

func copyVars(vars map[string]value.Value) map[string]value.Value {
	c := make(map[string]value.Value, len(vars))
	for k, v := range vars {
		c[k] = v
	}
	return c
}
