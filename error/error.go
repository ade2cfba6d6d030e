package error

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// FormulaError locates a failure in a formula. Cause is a sentinel error of the package that detected the
// failure, and Offset is a byte offset into Source. Offset is negative when the failure has no position.
type FormulaError struct {
	Cause  error
	Detail string
	Source string
	Offset int
}

func (e *FormulaError) Error() string {
	var b strings.Builder
	if e.Offset >= 0 && e.Source != "" {
		fmt.Fprintf(&b, "%v: ", column(e.Source, e.Offset))
	}
	fmt.Fprintf(&b, "error: %v", e.Cause)
	if e.Detail != "" {
		fmt.Fprintf(&b, ": %v", e.Detail)
	}

	excerpt := pointAt(e.Source, e.Offset)
	if excerpt != "" {
		fmt.Fprintf(&b, "\n%v", excerpt)
	}

	return b.String()
}

func (e *FormulaError) Unwrap() error {
	return e.Cause
}

// WithSource returns a copy of the error that refers to src.
func (e *FormulaError) WithSource(src string) *FormulaError {
	c := *e
	c.Source = src
	return &c
}

type FormulaErrors []*FormulaError

func (e FormulaErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%v", e[0])
	for _, err := range e[1:] {
		fmt.Fprintf(&b, "\n%v", err)
	}
	return b.String()
}

// Is reports whether any of the errors matches target, so errors.Is works on the aggregate.
func (e FormulaErrors) Is(target error) bool {
	for _, err := range e {
		if err.Cause == target {
			return true
		}
	}
	return false
}

// column converts a byte offset into a 1-based rune column.
func column(src string, offset int) int {
	if offset > len(src) {
		offset = len(src)
	}
	return utf8.RuneCountInString(src[:offset]) + 1
}

func pointAt(src string, offset int) string {
	if src == "" || offset < 0 || strings.ContainsAny(src, "\n\r") {
		return ""
	}
	col := column(src, offset)
	return fmt.Sprintf("    %v\n    %v^", src, strings.Repeat(" ", col-1))
}
