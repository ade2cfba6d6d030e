package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/npillmayer/schuko/testconfig"

	"github.com/nihei9/scoreformula/ast"
	verr "github.com/nihei9/scoreformula/error"
	"github.com/nihei9/scoreformula/eval"
	"github.com/nihei9/scoreformula/parser"
	"github.com/nihei9/scoreformula/value"
)

var (
	testEngineOnce sync.Once
	testEngine     *Engine
	testEngineErr  error
)

var testTime = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	testEngineOnce.Do(func() {
		testEngine, testEngineErr = New(WithClock(func() time.Time {
			return testTime
		}))
	})
	if testEngineErr != nil {
		t.Fatalf("failed to create an engine: %v", testEngineErr)
	}
	return testEngine
}

func step(expr, result string) FormulaStep {
	return FormulaStep{
		Name:           result,
		Expression:     expr,
		ResultVariable: result,
	}
}

func TestEngine_Execute(t *testing.T) {
	teardown := testconfig.QuickConfig(t)
	defer teardown()

	tests := []struct {
		caption  string
		steps    []FormulaStep
		vars     map[string]value.Value
		expected value.Value
		bindings map[string]value.Value
	}{
		{
			caption: "each step reads the results of the steps before it",
			steps: []FormulaStep{
				step("{a} + {b}", "sum"),
				step("{sum} * 2", "doubled"),
			},
			vars: map[string]value.Value{
				"a": value.Number(1),
				"b": value.Number(2),
			},
			expected: value.Number(6),
			bindings: map[string]value.Value{
				"sum":     value.Number(3),
				"doubled": value.Number(6),
			},
		},
		{
			caption: "final_score is the final result when a step binds it",
			steps: []FormulaStep{
				step("{a} * 10", "final_score"),
				step("{final_score} + 1", "adjusted"),
			},
			vars: map[string]value.Value{
				"a": value.Number(4),
			},
			expected: value.Number(40),
			bindings: map[string]value.Value{
				"final_score": value.Number(40),
				"adjusted":    value.Number(41),
			},
		},
		{
			caption: "steps run in ascending order",
			steps: []FormulaStep{
				{Order: 2, Expression: "{base} + 5", ResultVariable: "total"},
				{Order: 1, Expression: "MAX({x}, {y})", ResultVariable: "base"},
			},
			vars: map[string]value.Value{
				"x": value.Number(3),
				"y": value.Number(7),
			},
			expected: value.Number(12),
			bindings: map[string]value.Value{
				"base":  value.Number(7),
				"total": value.Number(12),
			},
		},
		{
			caption: "a step may rebind a variable",
			steps: []FormulaStep{
				step("{a} + 1", "a"),
				step("{a} * 2", "a"),
			},
			vars: map[string]value.Value{
				"a": value.Number(1),
			},
			expected: value.Number(4),
			bindings: map[string]value.Value{
				"a": value.Number(4),
			},
		},
		{
			caption: "conditions and booleans",
			steps: []FormulaStep{
				step("{score} >= 50 && {eligible}", "passed"),
				step("IF({passed}, ROUND({score} * 1.1, 1), 0)", "final_score"),
			},
			vars: map[string]value.Value{
				"score":    value.Number(60),
				"eligible": value.Boolean(true),
			},
			expected: value.Number(66),
			bindings: map[string]value.Value{
				"passed": value.Number(1),
			},
		},
		{
			caption: "a boolean final result binds as a number",
			steps: []FormulaStep{
				step("{score} >= 50", "final_score"),
			},
			vars: map[string]value.Value{
				"score": value.Number(40),
			},
			expected: value.Number(0),
			bindings: map[string]value.Value{
				"final_score": value.Number(0),
			},
		},
		{
			caption: "a numeric string result binds as a number",
			steps: []FormulaStep{
				step("{raw}", "parsed"),
			},
			vars: map[string]value.Value{
				"raw": value.String(" 12.5 "),
			},
			expected: value.Number(12.5),
		},
		{
			caption: "a literal zero divisor in a branch that is not taken",
			steps: []FormulaStep{
				step("IF(false, 1 / 0, 5)", "x"),
				step("false && (1 / 0 == 1)", "y"),
				step("{x} + {y}", "final_score"),
			},
			expected: value.Number(5),
			bindings: map[string]value.Value{
				"x": value.Number(5),
				"y": value.Number(0),
			},
		},
	}
	e := newTestEngine(t)
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			input := copyVars(tt.vars)
			res, err := e.Execute(context.Background(), tt.steps, tt.vars)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Failed {
				t.Fatal("the result must not be marked as failed")
			}
			if res.FinalResult != tt.expected {
				t.Fatalf("unexpected final result; want: %v, got: %v", tt.expected, res.FinalResult)
			}
			for name, v := range tt.bindings {
				if res.Variables[name] != v {
					t.Errorf("unexpected binding of %v; want: %v, got: %v", name, v, res.Variables[name])
				}
			}
			if len(res.Steps) != len(tt.steps) {
				t.Fatalf("unexpected step count; want: %v, got: %v", len(tt.steps), len(res.Steps))
			}
			for _, s := range res.Steps {
				if !s.Timestamp.Equal(testTime) {
					t.Errorf("unexpected timestamp: %v", s.Timestamp)
				}
			}
			if len(tt.vars) != len(input) || len(res.InputVariables) != len(input) {
				t.Fatalf("input variables were modified: %v", tt.vars)
			}
			for k, v := range input {
				if tt.vars[k] != v || res.InputVariables[k] != v {
					t.Fatalf("input variable %v was modified", k)
				}
			}
		})
	}
}

func TestEngine_Execute_Error(t *testing.T) {
	teardown := testconfig.QuickConfig(t)
	defer teardown()

	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		caption    string
		ctx        context.Context
		steps      []FormulaStep
		cause      error
		index      int
		stepsSoFar int
	}{
		{
			caption: "division by zero",
			steps: []FormulaStep{
				step("{a} + {b}", "sum"),
				step("{sum} / {zero}", "ratio"),
				step("{ratio} + 1", "never"),
			},
			cause:      eval.ErrDivisionByZero,
			index:      1,
			stepsSoFar: 1,
		},
		{
			caption: "undefined variable",
			steps: []FormulaStep{
				step("{undefined_var} + 1", "x"),
			},
			cause: eval.ErrUndefinedVariable,
		},
		{
			caption: "syntax error",
			steps: []FormulaStep{
				step("{a} +", "x"),
			},
			cause: parser.ErrUnexpectedEOF,
		},
		{
			caption: "validity error",
			steps: []FormulaStep{
				step("{a}", "x"),
				step("{x} + NOPE(1)", "y"),
			},
			cause:      ast.ErrUnsupportedFunction,
			index:      1,
			stepsSoFar: 1,
		},
		{
			caption: "an evaluated literal zero divisor",
			steps: []FormulaStep{
				step("{a}", "x"),
				step("{x} / 0", "y"),
			},
			cause:      eval.ErrDivisionByZero,
			index:      1,
			stepsSoFar: 1,
		},
		{
			caption: "non-numeric result",
			steps: []FormulaStep{
				step("{a}", "x"),
				step("{name}", "y"),
			},
			cause:      eval.ErrTypeMismatch,
			index:      1,
			stepsSoFar: 1,
		},
		{
			caption: "constant bound as an input variable",
			steps: []FormulaStep{
				step("{E} * 2", "x"),
			},
			cause: eval.ErrReadOnlyVariable,
		},
		{
			caption: "constant as result variable",
			steps: []FormulaStep{
				step("{a}", "PI"),
			},
			cause: ErrInvalidResultVariable,
		},
		{
			caption: "keyword as result variable",
			steps: []FormulaStep{
				step("{a}", "if"),
			},
			cause: ErrInvalidResultVariable,
		},
		{
			caption: "missing result variable",
			steps: []FormulaStep{
				step("{a}", ""),
			},
			cause: ErrInvalidResultVariable,
		},
		{
			caption: "canceled context",
			ctx:     canceled,
			steps: []FormulaStep{
				step("{a}", "x"),
			},
			cause: context.Canceled,
		},
	}
	e := newTestEngine(t)
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			ctx := tt.ctx
			if ctx == nil {
				ctx = context.Background()
			}
			vars := map[string]value.Value{
				"a":    value.Number(1),
				"b":    value.Number(2),
				"zero": value.Number(0),
				"name": value.String("alice"),
			}
			if tt.cause == eval.ErrReadOnlyVariable {
				vars["E"] = value.Number(100)
			}
			res, err := e.Execute(ctx, tt.steps, vars)
			if !errors.Is(err, tt.cause) {
				t.Fatalf("unexpected error; want: %v, got: %v", tt.cause, err)
			}
			var stepErr *StepError
			if !errors.As(err, &stepErr) {
				t.Fatalf("error must be a *StepError; got: %T", err)
			}
			if stepErr.Index != tt.index {
				t.Fatalf("unexpected step index; want: %v, got: %v", tt.index, stepErr.Index)
			}
			if stepErr.Expression != tt.steps[tt.index].Expression {
				t.Fatalf("unexpected expression: %v", stepErr.Expression)
			}
			if res == nil {
				t.Fatal("a partial result must be returned")
			}
			if !res.Failed || res.Error == "" {
				t.Fatalf("the result must be marked as failed: %+v", res)
			}
			if len(res.Steps) != tt.stepsSoFar {
				t.Fatalf("unexpected step count; want: %v, got: %v", tt.stepsSoFar, len(res.Steps))
			}
			if !res.FinalResult.IsNull() {
				t.Fatalf("a failed execution has no final result; got: %v", res.FinalResult)
			}
		})
	}
}

func TestEngine_Execute_NoSteps(t *testing.T) {
	res, err := newTestEngine(t).Execute(context.Background(), nil, nil)
	if !errors.Is(err, ErrNoSteps) {
		t.Fatalf("unexpected error; want: %v, got: %v", ErrNoSteps, err)
	}
	if res == nil || !res.Failed {
		t.Fatalf("the result must be marked as failed: %+v", res)
	}
}

func TestEngine_Execute_Timeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_, err := newTestEngine(t).Execute(ctx, []FormulaStep{step("1", "x")}, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("unexpected error; want: %v, got: %v", context.DeadlineExceeded, err)
	}
}

func TestEngine_Execute_Concurrent(t *testing.T) {
	e := newTestEngine(t)
	steps := []FormulaStep{
		step("{n} * {n}", "square"),
		step("{square} + 1", "final_score"),
	}

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			res, err := e.Execute(context.Background(), steps, map[string]value.Value{
				"n": value.Number(float64(n)),
			})
			if err != nil {
				errs <- err
				return
			}
			if res.FinalResult != value.Number(float64(n*n+1)) {
				errs <- fmt.Errorf("n = %v: unexpected result %v", n, res.FinalResult)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestEngine_Evaluate(t *testing.T) {
	e := newTestEngine(t)

	v, err := e.Evaluate("ROUND({x} / 3, 2)", map[string]value.Value{"x": value.Number(10)})
	if err != nil {
		t.Fatal(err)
	}
	if v != value.Number(3.33) {
		t.Fatalf("unexpected value: %v", v)
	}

	src := "{undefined_var} + 1"
	_, err = e.Evaluate(src, nil)
	var fe *verr.FormulaError
	if !errors.As(err, &fe) || !errors.Is(err, eval.ErrUndefinedVariable) {
		t.Fatalf("unexpected error: %v", err)
	}
	if fe.Source != src || fe.Offset != 0 || !strings.Contains(fe.Detail, "undefined_var") {
		t.Fatalf("unexpected error: %#v", fe)
	}
	if !strings.Contains(err.Error(), "^") {
		t.Fatalf("the message must point into the formula: %v", err)
	}
}

func TestEngine_Evaluate_LiteralZero(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		src      string
		expected value.Value
	}{
		{src: "IF(false, 1 / 0, 5)", expected: value.Number(5)},
		{src: "false && (1 / 0 == 1)", expected: value.Boolean(false)},
		{src: "true || 0 ^ 0 > 1", expected: value.Boolean(true)},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			v, err := e.Evaluate(tt.src, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v != tt.expected {
				t.Fatalf("unexpected value; want: %v, got: %v", tt.expected, v)
			}
			if err := e.Validate(tt.src); !errors.Is(err, ast.ErrZeroDivisor) && !errors.Is(err, ast.ErrZeroPowerZero) {
				t.Fatalf("Validate must still reject the literal zero; got: %v", err)
			}
		})
	}

	if _, err := e.Evaluate("IF(true, 1 / 0, 5)", nil); !errors.Is(err, eval.ErrDivisionByZero) {
		t.Fatalf("unexpected error; want: %v, got: %v", eval.ErrDivisionByZero, err)
	}
	if _, err := e.Evaluate("0 ^ 0", nil); !errors.Is(err, eval.ErrDomain) {
		t.Fatalf("unexpected error; want: %v, got: %v", eval.ErrDomain, err)
	}
}

func TestEngine_Evaluate_ReadOnlyVariable(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Evaluate("{E} * 2", map[string]value.Value{"E": value.Number(100)})
	if !errors.Is(err, eval.ErrReadOnlyVariable) {
		t.Fatalf("unexpected error; want: %v, got: %v", eval.ErrReadOnlyVariable, err)
	}
}

func TestEngine_Validate(t *testing.T) {
	e := newTestEngine(t)

	if err := e.Validate("IF({a} > 1, ABS({b}), MAX(1, 2, 3))"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	src := "ABS(1, 2) + NOPE()"
	err := e.Validate(src)
	if !errors.Is(err, ast.ErrArgumentCount) || !errors.Is(err, ast.ErrUnsupportedFunction) {
		t.Fatalf("unexpected error: %v", err)
	}
	var errs verr.FormulaErrors
	if !errors.As(err, &errs) || len(errs) != 2 {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, fe := range errs {
		if fe.Source != src {
			t.Fatalf("the source is missing: %#v", fe)
		}
	}

	if err := e.Validate("1 +* 2"); !errors.Is(err, parser.ErrUnexpectedToken) {
		t.Fatalf("unexpected error: %v", err)
	}

	nested := func(n int) string {
		return strings.Repeat("(", n) + "1" + strings.Repeat(")", n)
	}
	if err := e.Validate(nested(50)); err != nil {
		t.Fatalf("50 nested parentheses must be valid: %v", err)
	}
	if err := e.Validate(nested(51)); !errors.Is(err, ast.ErrDepthExceeded) {
		t.Fatalf("unexpected error; want: %v, got: %v", ast.ErrDepthExceeded, err)
	}
}

func TestEngine_WithRegistry(t *testing.T) {
	r := eval.NewRegistry()
	err := r.Register(eval.NumberFunction("BONUS", 1, 1, "", func(args []float64) (float64, error) {
		return args[0] + 10, nil
	}))
	if err != nil {
		t.Fatal(err)
	}
	e, err := New(WithRegistry(r), WithParserOptions(parser.MaxInputLength(32)))
	if err != nil {
		t.Fatal(err)
	}
	if e.Registry() != r {
		t.Fatal("the registry was not set")
	}

	v, err := e.Evaluate("BONUS(5)", nil)
	if err != nil {
		t.Fatal(err)
	}
	if v != value.Number(15) {
		t.Fatalf("unexpected value: %v", v)
	}
	if err := e.Validate("ABS(1)"); !errors.Is(err, ast.ErrUnsupportedFunction) {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := e.Validate(strings.Repeat("1 + ", 10) + "1"); !errors.Is(err, parser.ErrInputTooLong) {
		t.Fatalf("unexpected error: %v", err)
	}
}
