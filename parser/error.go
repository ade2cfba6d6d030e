package parser

type SyntaxError struct {
	message string
}

func newSyntaxError(message string) *SyntaxError {
	return &SyntaxError{
		message: message,
	}
}

func (e *SyntaxError) Error() string {
	return e.message
}

var (
	ErrUnexpectedToken = newSyntaxError("unexpected token")
	ErrUnexpectedEOF   = newSyntaxError("unexpected end of input")
	ErrInputTooLong    = newSyntaxError("input too long")
	ErrTooManySteps    = newSyntaxError("too many parsing steps")
	ErrStackOverflow   = newSyntaxError("parser stack overflow")
)
