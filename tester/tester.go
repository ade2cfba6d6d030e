package tester

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nihei9/scoreformula/ast"
	"github.com/nihei9/scoreformula/engine"
	"github.com/nihei9/scoreformula/value"
)

// Diff is a value that differs from its expectation.
type Diff struct {
	Subject  string
	Expected string
	Actual   string
}

type TestResult struct {
	TestCasePath string
	Name         string
	Error        error
	Diffs        []*Diff
}

func (r *TestResult) title() string {
	if r.Name == "" {
		return r.TestCasePath
	}
	return fmt.Sprintf("%v (%v)", r.TestCasePath, r.Name)
}

func (r *TestResult) String() string {
	if r.Error != nil {
		const indent1 = "    "
		const indent2 = indent1 + indent1

		msgLines := strings.Split(r.Error.Error(), "\n")
		msg := fmt.Sprintf("Failed %v:\n%v%v", r.title(), indent1, strings.Join(msgLines, "\n"+indent1))
		if len(r.Diffs) == 0 {
			return msg
		}
		var diffLines []string
		for _, diff := range r.Diffs {
			diffLines = append(diffLines, diff.Subject)
			diffLines = append(diffLines, fmt.Sprintf("%vexpected: %v", indent1, diff.Expected))
			diffLines = append(diffLines, fmt.Sprintf("%vactual:   %v", indent1, diff.Actual))
		}
		return fmt.Sprintf("%v\n%v%v", msg, indent2, strings.Join(diffLines, "\n"+indent2))
	}
	return fmt.Sprintf("Passed %v", r.title())
}

type TestCaseWithMetadata struct {
	TestCase *TestCase
	FilePath string
	Error    error
}

// ListTestCases reads the test case at testPath, or every `*.json` test case under it when it is a directory.
func ListTestCases(testPath string) []*TestCaseWithMetadata {
	fi, err := os.Stat(testPath)
	if err != nil {
		return []*TestCaseWithMetadata{
			{
				FilePath: testPath,
				Error:    err,
			},
		}
	}
	if !fi.IsDir() {
		c, err := parseTestCase(testPath)
		return []*TestCaseWithMetadata{
			{
				TestCase: c,
				FilePath: testPath,
				Error:    err,
			},
		}
	}

	es, err := os.ReadDir(testPath)
	if err != nil {
		return []*TestCaseWithMetadata{
			{
				FilePath: testPath,
				Error:    err,
			},
		}
	}
	var cases []*TestCaseWithMetadata
	for _, e := range es {
		if !e.IsDir() && filepath.Ext(e.Name()) != ".json" {
			continue
		}
		cs := ListTestCases(filepath.Join(testPath, e.Name()))
		cases = append(cases, cs...)
	}
	return cases
}

func parseTestCase(testCasePath string) (*TestCase, error) {
	f, err := os.Open(testCasePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseTestCase(f)
}

type Tester struct {
	Engine *engine.Engine
	Cases  []*TestCaseWithMetadata
}

func (t *Tester) Run() []*TestResult {
	var rs []*TestResult
	for _, c := range t.Cases {
		rs = append(rs, runTest(t.Engine, c))
	}
	return rs
}

func runTest(e *engine.Engine, c *TestCaseWithMetadata) *TestResult {
	if c.Error != nil {
		return &TestResult{
			TestCasePath: c.FilePath,
			Error:        c.Error,
		}
	}
	tc := c.TestCase
	r := &TestResult{
		TestCasePath: c.FilePath,
		Name:         tc.Name,
	}

	var actual value.Value
	var bindings map[string]value.Value
	var err error
	if len(tc.Steps) > 0 {
		var res *engine.ExecutionResult
		res, err = e.Execute(context.Background(), tc.Steps, tc.Variables)
		if err == nil {
			actual = res.FinalResult
			bindings = res.Variables
		}
	} else {
		var root ast.Node
		root, err = e.Compile(tc.Formula)
		if err == nil && tc.Tree != "" {
			if tree := ast.Format(root); tree != tc.Tree {
				r.Diffs = append(r.Diffs, &Diff{
					Subject:  "tree",
					Expected: tc.Tree,
					Actual:   tree,
				})
			}
		}
		if err == nil && (tc.Expected != nil || tc.Error != "") {
			actual, err = e.Evaluate(tc.Formula, tc.Variables)
		}
	}

	if tc.Error != "" {
		switch {
		case err == nil:
			r.Error = fmt.Errorf("an error containing %q was expected, but none occurred", tc.Error)
		case !strings.Contains(err.Error(), tc.Error):
			r.Error = fmt.Errorf("an error containing %q was expected, but got: %v", tc.Error, err)
		}
		return r
	}
	if err != nil {
		r.Error = err
		return r
	}

	if tc.Expected != nil && !sameValue(actual, *tc.Expected) {
		r.Diffs = append(r.Diffs, &Diff{
			Subject:  "result",
			Expected: describe(*tc.Expected),
			Actual:   describe(actual),
		})
	}
	names := make([]string, 0, len(tc.Bindings))
	for name := range tc.Bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		expected := tc.Bindings[name]
		v, ok := bindings[name]
		if !ok {
			r.Diffs = append(r.Diffs, &Diff{
				Subject:  "variable " + name,
				Expected: describe(expected),
				Actual:   "(unbound)",
			})
			continue
		}
		if !sameValue(v, expected) {
			r.Diffs = append(r.Diffs, &Diff{
				Subject:  "variable " + name,
				Expected: describe(expected),
				Actual:   describe(v),
			})
		}
	}
	if len(r.Diffs) > 0 {
		r.Error = fmt.Errorf("output mismatch")
	}
	return r
}

// sameValue compares numbers with a relative tolerance and everything else exactly.
func sameValue(actual, expected value.Value) bool {
	if actual.Kind() != expected.Kind() {
		return false
	}
	if actual.Kind() != value.KindNumber {
		return actual == expected
	}
	x, _ := actual.ToNumber()
	y, _ := expected.ToNumber()
	return math.Abs(x-y) <= 1e-9*math.Max(1, math.Abs(y))
}

func describe(v value.Value) string {
	if v.Kind() == value.KindString {
		return fmt.Sprintf("%q (%v)", v.String(), v.Kind())
	}
	return fmt.Sprintf("%v (%v)", v, v.Kind())
}
