// Package lexer splits formulas into tokens. The lexical specification is compiled by maleeni into a DFA the
// first time a formula is tokenized.
package lexer

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	mlcompiler "github.com/nihei9/maleeni/compiler"
	mldriver "github.com/nihei9/maleeni/driver"
	mlspec "github.com/nihei9/maleeni/spec"
	"github.com/npillmayer/schuko/tracing"

	verr "github.com/nihei9/scoreformula/error"
	"github.com/nihei9/scoreformula/internal/trace"
	"github.com/nihei9/scoreformula/token"
)

func tracer() tracing.Trace {
	return trace.Syntax()
}

// Result holds the tokens of a formula. When Err is not nil, Tokens holds the tokens recognized before the
// fault and doesn't end with an EOF token.
type Result struct {
	Tokens []token.Token
	Err    error
}

// lexKind is an entry of the lexical specification. A kind with a cause is a fault: the lexer stops with that
// cause when the kind is the longest match.
type lexKind struct {
	name    string
	pattern string
	ty      token.Type
	cause   error
	skip    bool
}

func operator(name string, ty token.Type) *lexKind {
	return &lexKind{
		name:    name,
		pattern: mlspec.EscapePattern(ty.String()),
		ty:      ty,
	}
}

// The DFA picks the longest match, so malformed numbers and unterminated variables only win when the
// well-formed kinds stop short of them.
var lexKinds = []*lexKind{
	{name: "white_space", pattern: "[ \t\r\n]+", skip: true},
	{name: "number", pattern: `[0-9]+(\.[0-9]+)?|\.[0-9]+`, ty: token.Number},
	{name: "malformed_number", pattern: `([0-9]+(\.[0-9]+)?|\.[0-9]+)(\.|[A-Za-z_])`, cause: ErrMalformedNumber},
	{name: "identifier", pattern: `[A-Za-z_][A-Za-z0-9_]*`, ty: token.Identifier},
	{name: "variable", pattern: "{[^{}\r\n]*}", ty: token.Variable},
	{name: "unterminated_variable", pattern: "{[^{}\r\n]*", cause: ErrUnterminatedVariable},
	operator("equal", token.Equal),
	operator("not_equal", token.NotEqual),
	operator("less_equal", token.LessEqual),
	operator("greater_equal", token.GreaterEqual),
	operator("and_and", token.AndAnd),
	operator("or_or", token.OrOr),
	operator("plus", token.Plus),
	operator("minus", token.Minus),
	operator("star", token.Star),
	operator("slash", token.Slash),
	operator("percent", token.Percent),
	operator("caret", token.Caret),
	operator("less", token.Less),
	operator("greater", token.Greater),
	operator("bang", token.Bang),
	operator("l_paren", token.LParen),
	operator("r_paren", token.RParen),
	operator("comma", token.Comma),
}

type compiledLexSpec struct {
	spec *mlspec.CompiledLexSpec

	// kinds is indexed by kind ID. The entry of the nil kind is nil.
	kinds []*lexKind
}

var (
	lexSpecOnce sync.Once
	lexSpec     *compiledLexSpec
	lexSpecErr  error
)

func loadLexSpec() (*compiledLexSpec, error) {
	lexSpecOnce.Do(func() {
		lexSpec, lexSpecErr = compileLexSpec()
		if lexSpecErr != nil {
			tracer().Errorf("lexer: %v", lexSpecErr)
		}
	})
	return lexSpec, lexSpecErr
}

func compileLexSpec() (*compiledLexSpec, error) {
	entries := make([]*mlspec.LexEntry, len(lexKinds))
	name2Kind := make(map[string]*lexKind, len(lexKinds))
	for i, k := range lexKinds {
		entries[i] = &mlspec.LexEntry{
			Kind:    mlspec.LexKindName(k.name),
			Pattern: mlspec.LexPattern(k.pattern),
		}
		name2Kind[k.name] = k
	}

	s, err, cErrs := mlcompiler.Compile(&mlspec.LexSpec{
		Entries: entries,
	}, mlcompiler.CompressionLevel(mlcompiler.CompressionLevelMax))
	if err != nil {
		if len(cErrs) > 0 {
			msgs := make([]string, len(cErrs))
			for i, cErr := range cErrs {
				msgs[i] = fmt.Sprintf("%v: %v", cErr.Kind, cErr.Cause)
				if cErr.Detail != "" {
					msgs[i] += ": " + cErr.Detail
				}
			}
			return nil, fmt.Errorf("cannot compile the lexical specification:\n%v", strings.Join(msgs, "\n"))
		}
		return nil, err
	}

	kinds := make([]*lexKind, len(s.KindNames))
	for i, name := range s.KindNames {
		if name == mlspec.LexKindNameNil {
			continue
		}
		k, ok := name2Kind[name.String()]
		if !ok {
			return nil, fmt.Errorf("the compiled lexical specification has an unknown kind: %v", name)
		}
		kinds[i] = k
	}
	tracer().Debugf("lexer: compiled %v lexical kinds", len(lexKinds))

	return &compiledLexSpec{
		spec:  s,
		kinds: kinds,
	}, nil
}

// Tokenize splits a formula into tokens. The last token of a successful result is always an EOF token.
func Tokenize(src string) *Result {
	toks, err := tokenize(src)
	if err != nil {
		tracer().Debugf("lexer: %v", err)
	}
	return &Result{
		Tokens: toks,
		Err:    err,
	}
}

func tokenize(src string) ([]token.Token, error) {
	s, err := loadLexSpec()
	if err != nil {
		return nil, err
	}
	d, err := mldriver.NewLexer(mldriver.NewLexSpec(s.spec), strings.NewReader(src))
	if err != nil {
		return nil, err
	}

	var toks []token.Token
	// The driver reports rows and columns in code points, so the byte offset is the sum of the lexemes read
	// so far. Skipped kinds count too.
	offset := 0
	for {
		tok, err := d.Next()
		if err != nil {
			return toks, err
		}
		if tok.EOF {
			return append(toks, token.Token{
				Type:   token.EOF,
				Offset: offset,
			}), nil
		}
		if tok.Invalid {
			r, _ := utf8.DecodeRuneInString(src[offset:])
			return toks, lexError(ErrUnexpectedChar, src, offset, "%q", r)
		}

		text := string(tok.Lexeme)
		k := s.kinds[tok.KindID]
		switch {
		case k == nil:
			return toks, fmt.Errorf("unknown lexical kind: %v", tok.KindID)
		case k.cause != nil:
			return toks, lexError(k.cause, src, offset, "%q", text)
		case k.skip:
		default:
			ty := k.ty
			if ty == token.Identifier {
				if kw, ok := token.LookupKeyword(text); ok {
					ty = kw
				}
			}
			toks = append(toks, token.Token{
				Type:   ty,
				Text:   text,
				Offset: offset,
			})
		}
		offset += len(tok.Lexeme)
	}
}

func lexError(cause error, src string, offset int, format string, a ...interface{}) error {
	return &verr.FormulaError{
		Cause:  cause,
		Detail: fmt.Sprintf(format, a...),
		Source: src,
		Offset: offset,
	}
}
