package engine

import (
	"fmt"
)

type ExecutionError struct {
	message string
}

func newExecutionError(message string) *ExecutionError {
	return &ExecutionError{
		message: message,
	}
}

func (e *ExecutionError) Error() string {
	return e.message
}

var (
	ErrNoSteps               = newExecutionError("no steps to execute")
	ErrInvalidResultVariable = newExecutionError("invalid result variable")
	ErrFormulaSetNotFound    = newExecutionError("formula set not found")
)

// StepError reports the step that aborted an execution.
type StepError struct {
	Index      int
	Name       string
	Expression string
	Cause      error
}

func (e *StepError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("step #%v (%v) failed: %v", e.Index, e.Name, e.Cause)
	}
	return fmt.Sprintf("step #%v failed: %v", e.Index, e.Cause)
}

func (e *StepError) Unwrap() error {
	return e.Cause
}
