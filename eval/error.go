package eval

type EvaluationError struct {
	message string
}

func newEvaluationError(message string) *EvaluationError {
	return &EvaluationError{
		message: message,
	}
}

func (e *EvaluationError) Error() string {
	return e.message
}

var (
	ErrUndefinedVariable   = newEvaluationError("undefined variable")
	ErrReadOnlyVariable    = newEvaluationError("read-only variable")
	ErrDivisionByZero      = newEvaluationError("division by zero")
	ErrDomain              = newEvaluationError("domain error")
	ErrUnsupportedFunction = newEvaluationError("unsupported function")
	ErrUnsupportedOperator = newEvaluationError("unsupported operator")
	ErrArgumentCount       = newEvaluationError("wrong number of arguments")
	ErrTypeMismatch        = newEvaluationError("type mismatch")
	ErrInvalidNode         = newEvaluationError("invalid node")

	ErrInvalidFunction   = newEvaluationError("invalid function")
	ErrDuplicateFunction = newEvaluationError("function already registered")
)
