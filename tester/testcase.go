package tester

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/nihei9/scoreformula/engine"
	"github.com/nihei9/scoreformula/value"
)

// TestCase describes the expected outcome of a formula, or of a sequence of steps.
//
//	{
//	  "name": "chained steps",
//	  "steps": [
//	    {"expression": "{a} + {b}", "result_variable": "sum"},
//	    {"expression": "{sum} * 2", "result_variable": "doubled"}
//	  ],
//	  "variables": {"a": 1, "b": 2},
//	  "bindings": {"sum": 3},
//	  "expected": 6
//	}
//
// Tree is the expected normalized form of a single formula, and Error a text the error message must contain.
type TestCase struct {
	Name      string                 `json:"name"`
	Formula   string                 `json:"formula,omitempty"`
	Steps     []engine.FormulaStep   `json:"steps,omitempty"`
	Variables map[string]value.Value `json:"variables,omitempty"`
	Expected  *value.Value           `json:"expected,omitempty"`
	Bindings  map[string]value.Value `json:"bindings,omitempty"`
	Tree      string                 `json:"tree,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

func ParseTestCase(r io.Reader) (*TestCase, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var c TestCase
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("invalid test case: %w", err)
	}

	switch {
	case c.Formula == "" && len(c.Steps) == 0:
		return nil, fmt.Errorf("invalid test case %v: a formula or steps are required", c.Name)
	case c.Formula != "" && len(c.Steps) > 0:
		return nil, fmt.Errorf("invalid test case %v: a formula and steps are exclusive", c.Name)
	case c.Tree != "" && len(c.Steps) > 0:
		return nil, fmt.Errorf("invalid test case %v: a tree can be expected of a formula only", c.Name)
	case len(c.Bindings) > 0 && len(c.Steps) == 0:
		return nil, fmt.Errorf("invalid test case %v: bindings can be expected of steps only", c.Name)
	case c.Error != "" && (c.Expected != nil || len(c.Bindings) > 0):
		return nil, fmt.Errorf("invalid test case %v: an error and values are exclusive", c.Name)
	case c.Error == "" && c.Expected == nil && len(c.Bindings) == 0 && c.Tree == "":
		return nil, fmt.Errorf("invalid test case %v: nothing is expected", c.Name)
	}
	return &c, nil
}
