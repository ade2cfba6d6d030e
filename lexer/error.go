package lexer

type LexError struct {
	message string
}

func newLexError(message string) *LexError {
	return &LexError{
		message: message,
	}
}

func (e *LexError) Error() string {
	return e.message
}

var (
	ErrUnexpectedChar       = newLexError("unexpected character")
	ErrUnterminatedVariable = newLexError("unterminated variable reference")
	ErrMalformedNumber      = newLexError("malformed number")
)
