package lexer

import (
	"errors"
	"fmt"
	"testing"

	verr "github.com/nihei9/scoreformula/error"
	"github.com/nihei9/scoreformula/token"
)

func newToken(ty token.Type, text string, offset int) token.Token {
	return token.Token{
		Type:   ty,
		Text:   text,
		Offset: offset,
	}
}

func newEOFToken(offset int) token.Token {
	return token.Token{
		Type:   token.EOF,
		Offset: offset,
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		src    string
		tokens []token.Token
	}{
		{
			src: "",
			tokens: []token.Token{
				newEOFToken(0),
			},
		},
		{
			src: "  \t\n ",
			tokens: []token.Token{
				newEOFToken(5),
			},
		},
		{
			src: "1 + 2.5 * .5",
			tokens: []token.Token{
				newToken(token.Number, "1", 0),
				newToken(token.Plus, "+", 2),
				newToken(token.Number, "2.5", 4),
				newToken(token.Star, "*", 8),
				newToken(token.Number, ".5", 10),
				newEOFToken(12),
			},
		},
		{
			src: "{base_score}*0.6+{bonus}",
			tokens: []token.Token{
				newToken(token.Variable, "{base_score}", 0),
				newToken(token.Star, "*", 12),
				newToken(token.Number, "0.6", 13),
				newToken(token.Plus, "+", 16),
				newToken(token.Variable, "{bonus}", 17),
				newEOFToken(24),
			},
		},
		{
			src: "a<=b>=c==d!=e<f>g&&h||!i",
			tokens: []token.Token{
				newToken(token.Identifier, "a", 0),
				newToken(token.LessEqual, "<=", 1),
				newToken(token.Identifier, "b", 3),
				newToken(token.GreaterEqual, ">=", 4),
				newToken(token.Identifier, "c", 6),
				newToken(token.Equal, "==", 7),
				newToken(token.Identifier, "d", 9),
				newToken(token.NotEqual, "!=", 10),
				newToken(token.Identifier, "e", 12),
				newToken(token.Less, "<", 13),
				newToken(token.Identifier, "f", 14),
				newToken(token.Greater, ">", 15),
				newToken(token.Identifier, "g", 16),
				newToken(token.AndAnd, "&&", 17),
				newToken(token.Identifier, "h", 19),
				newToken(token.OrOr, "||", 20),
				newToken(token.Bang, "!", 22),
				newToken(token.Identifier, "i", 23),
				newEOFToken(24),
			},
		},
		{
			src: "IF(true AND Not x, MAX(1, 2), 7 mod 3)",
			tokens: []token.Token{
				newToken(token.If, "IF", 0),
				newToken(token.LParen, "(", 2),
				newToken(token.True, "true", 3),
				newToken(token.And, "AND", 8),
				newToken(token.Not, "Not", 12),
				newToken(token.Identifier, "x", 16),
				newToken(token.Comma, ",", 17),
				newToken(token.Identifier, "MAX", 19),
				newToken(token.LParen, "(", 22),
				newToken(token.Number, "1", 23),
				newToken(token.Comma, ",", 24),
				newToken(token.Number, "2", 26),
				newToken(token.RParen, ")", 27),
				newToken(token.Comma, ",", 28),
				newToken(token.Number, "7", 30),
				newToken(token.Mod, "mod", 32),
				newToken(token.Number, "3", 36),
				newToken(token.RParen, ")", 37),
				newEOFToken(38),
			},
		},
		{
			src: "2^-x % 4",
			tokens: []token.Token{
				newToken(token.Number, "2", 0),
				newToken(token.Caret, "^", 1),
				newToken(token.Minus, "-", 2),
				newToken(token.Identifier, "x", 3),
				newToken(token.Percent, "%", 5),
				newToken(token.Number, "4", 7),
				newEOFToken(8),
			},
		},
		{
			// The lexer keeps the braces and doesn't check the name.
			src: "{1bad}",
			tokens: []token.Token{
				newToken(token.Variable, "{1bad}", 0),
				newEOFToken(6),
			},
		},
	}
	for i, tt := range tests {
		t.Run(fmt.Sprintf("#%v", i), func(t *testing.T) {
			r := Tokenize(tt.src)
			if r.Err != nil {
				t.Fatalf("unexpected error: %v", r.Err)
			}
			testTokens(t, tt.tokens, r.Tokens)
		})
	}
}

func TestTokenize_Error(t *testing.T) {
	tests := []struct {
		src    string
		cause  error
		offset int
		tokens []token.Token
	}{
		{
			src:    "1 + #",
			cause:  ErrUnexpectedChar,
			offset: 4,
			tokens: []token.Token{
				newToken(token.Number, "1", 0),
				newToken(token.Plus, "+", 2),
			},
		},
		{
			src:    "a & b",
			cause:  ErrUnexpectedChar,
			offset: 2,
			tokens: []token.Token{
				newToken(token.Identifier, "a", 0),
			},
		},
		{
			src:    "x = 1",
			cause:  ErrUnexpectedChar,
			offset: 2,
			tokens: []token.Token{
				newToken(token.Identifier, "x", 0),
			},
		},
		{
			src:    "1 + {score",
			cause:  ErrUnterminatedVariable,
			offset: 4,
			tokens: []token.Token{
				newToken(token.Number, "1", 0),
				newToken(token.Plus, "+", 2),
			},
		},
		{
			src:    "{a{b}",
			cause:  ErrUnterminatedVariable,
			offset: 0,
		},
		{
			src:    "1.",
			cause:  ErrMalformedNumber,
			offset: 0,
		},
		{
			src:    "2 * 1.2.3",
			cause:  ErrMalformedNumber,
			offset: 4,
			tokens: []token.Token{
				newToken(token.Number, "2", 0),
				newToken(token.Star, "*", 2),
			},
		},
		{
			src:    "12ab",
			cause:  ErrMalformedNumber,
			offset: 0,
		},
		{
			src:    "é",
			cause:  ErrUnexpectedChar,
			offset: 0,
		},
		{
			src:    "1 + .",
			cause:  ErrUnexpectedChar,
			offset: 4,
			tokens: []token.Token{
				newToken(token.Number, "1", 0),
				newToken(token.Plus, "+", 2),
			},
		},
		{
			src:    "x + .5.3",
			cause:  ErrMalformedNumber,
			offset: 4,
			tokens: []token.Token{
				newToken(token.Identifier, "x", 0),
				newToken(token.Plus, "+", 2),
			},
		},
		{
			src:    "3.5x",
			cause:  ErrMalformedNumber,
			offset: 0,
		},
		{
			src:    "1\n* {a\nb}",
			cause:  ErrUnterminatedVariable,
			offset: 4,
			tokens: []token.Token{
				newToken(token.Number, "1", 0),
				newToken(token.Star, "*", 2),
			},
		},
	}
	for i, tt := range tests {
		t.Run(fmt.Sprintf("#%v", i), func(t *testing.T) {
			r := Tokenize(tt.src)
			if r.Err == nil {
				t.Fatalf("an error was expected")
			}
			if !errors.Is(r.Err, tt.cause) {
				t.Fatalf("unexpected error; want: %v, got: %v", tt.cause, r.Err)
			}
			var fErr *verr.FormulaError
			if !errors.As(r.Err, &fErr) {
				t.Fatalf("the error must be a *FormulaError; got: %T", r.Err)
			}
			if fErr.Offset != tt.offset {
				t.Fatalf("unexpected offset; want: %v, got: %v", tt.offset, fErr.Offset)
			}
			testTokens(t, tt.tokens, r.Tokens)
		})
	}
}

func testTokens(t *testing.T, expected, actual []token.Token) {
	t.Helper()

	if len(actual) != len(expected) {
		t.Fatalf("unexpected token count; want: %v, got: %v (%v)", len(expected), len(actual), actual)
	}
	for i, eTok := range expected {
		tok := actual[i]
		if tok.Type != eTok.Type || tok.Text != eTok.Text || tok.Offset != eTok.Offset {
			t.Fatalf("unexpected token #%v; want: %v@%v, got: %v@%v", i, eTok, eTok.Offset, tok, tok.Offset)
		}
	}
}

func TestCompileLexSpec(t *testing.T) {
	s, err := loadLexSpec()
	if err != nil {
		t.Fatal(err)
	}
	found := map[string]bool{}
	for _, k := range s.kinds {
		if k != nil {
			found[k.name] = true
		}
	}
	for _, k := range lexKinds {
		if !found[k.name] {
			t.Errorf("a kind is missing from the compiled specification: %v", k.name)
		}
	}
}
