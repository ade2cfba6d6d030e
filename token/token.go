package token

import (
	"fmt"
	"strings"
)

// Type identifies a grammar symbol. Values below nonTerminalMin are terminals and can appear in a token
// stream; the others are non-terminals that appear only in productions.
type Type int

const (
	Invalid Type = iota
	EOF
	Number
	Identifier
	Variable

	// keywords
	If
	True
	False
	And
	Or
	Not
	Mod

	// operators
	Plus
	Minus
	Star
	Slash
	Percent
	Caret
	Equal
	NotEqual
	Less
	LessEqual
	Greater
	GreaterEqual
	AndAnd
	OrOr
	Bang

	// delimiters
	LParen
	RParen
	Comma

	nonTerminalMin
)

// Non-terminals.
const (
	Formula Type = nonTerminalMin + iota
	Expr
	AndExpr
	NotExpr
	Comparison
	Arith
	Term
	Factor
	Power
	Primary
	Call
	Conditional
	ArgList

	typeMax
)

type class uint8

const (
	classLiteral class = 1 << iota
	classKeyword
	classOperator
	classDelimiter
)

type typeInfo struct {
	name   string
	symbol string
	class  class
}

var types = map[Type]typeInfo{
	Invalid:      {name: "invalid"},
	EOF:          {name: "end of input", symbol: "<eof>"},
	Number:       {name: "number", symbol: "number", class: classLiteral},
	Identifier:   {name: "identifier", symbol: "identifier"},
	Variable:     {name: "variable", symbol: "variable"},
	If:           {name: "if", symbol: "if", class: classKeyword},
	True:         {name: "true", symbol: "true", class: classKeyword | classLiteral},
	False:        {name: "false", symbol: "false", class: classKeyword | classLiteral},
	And:          {name: "and", symbol: "&&", class: classKeyword | classOperator},
	Or:           {name: "or", symbol: "||", class: classKeyword | classOperator},
	Not:          {name: "not", symbol: "!", class: classKeyword | classOperator},
	Mod:          {name: "mod", symbol: "%", class: classKeyword | classOperator},
	Plus:         {name: "+", symbol: "+", class: classOperator},
	Minus:        {name: "-", symbol: "-", class: classOperator},
	Star:         {name: "*", symbol: "*", class: classOperator},
	Slash:        {name: "/", symbol: "/", class: classOperator},
	Percent:      {name: "%", symbol: "%", class: classOperator},
	Caret:        {name: "^", symbol: "^", class: classOperator},
	Equal:        {name: "==", symbol: "==", class: classOperator},
	NotEqual:     {name: "!=", symbol: "!=", class: classOperator},
	Less:         {name: "<", symbol: "<", class: classOperator},
	LessEqual:    {name: "<=", symbol: "<=", class: classOperator},
	Greater:      {name: ">", symbol: ">", class: classOperator},
	GreaterEqual: {name: ">=", symbol: ">=", class: classOperator},
	AndAnd:       {name: "&&", symbol: "&&", class: classOperator},
	OrOr:         {name: "||", symbol: "||", class: classOperator},
	Bang:         {name: "!", symbol: "!", class: classOperator},
	LParen:       {name: "(", symbol: "(", class: classDelimiter},
	RParen:       {name: ")", symbol: ")", class: classDelimiter},
	Comma:        {name: ",", symbol: ",", class: classDelimiter},

	Formula:     {name: "formula", symbol: "formula"},
	Expr:        {name: "expr", symbol: "expr"},
	AndExpr:     {name: "and_expr", symbol: "and_expr"},
	NotExpr:     {name: "not_expr", symbol: "not_expr"},
	Comparison:  {name: "comparison", symbol: "comparison"},
	Arith:       {name: "arith", symbol: "arith"},
	Term:        {name: "term", symbol: "term"},
	Factor:      {name: "factor", symbol: "factor"},
	Power:       {name: "power", symbol: "power"},
	Primary:     {name: "primary", symbol: "primary"},
	Call:        {name: "call", symbol: "call"},
	Conditional: {name: "conditional", symbol: "conditional"},
	ArgList:     {name: "arg_list", symbol: "arg_list"},
}

func (t Type) String() string {
	if info, ok := types[t]; ok {
		return info.name
	}
	return fmt.Sprintf("<type %d>", int(t))
}

// SymbolName returns the name of the grammar symbol the type stands for. Keywords that are aliases of
// operators (`and`, `or`, `not`, `mod`) share the operator's symbol.
func (t Type) SymbolName() string {
	return types[t].symbol
}

func (t Type) IsTerminal() bool {
	return t > Invalid && t < nonTerminalMin
}

func (t Type) IsNonTerminal() bool {
	return t >= Formula && t < typeMax
}

func (t Type) IsOperator() bool {
	return types[t].class&classOperator != 0
}

func (t Type) IsKeyword() bool {
	return types[t].class&classKeyword != 0
}

func (t Type) IsLiteral() bool {
	return types[t].class&classLiteral != 0
}

func (t Type) IsDelimiter() bool {
	return types[t].class&classDelimiter != 0
}

// Terminals returns all terminal types in declaration order.
func Terminals() []Type {
	ts := make([]Type, 0, int(nonTerminalMin))
	for t := EOF; t < nonTerminalMin; t++ {
		ts = append(ts, t)
	}
	return ts
}

// NonTerminals returns all non-terminal types in declaration order.
func NonTerminals() []Type {
	ts := make([]Type, 0, int(typeMax-Formula))
	for t := Formula; t < typeMax; t++ {
		ts = append(ts, t)
	}
	return ts
}

var keywords = map[string]Type{
	"if":    If,
	"true":  True,
	"false": False,
	"and":   And,
	"or":    Or,
	"not":   Not,
	"mod":   Mod,
}

// LookupKeyword reports whether an identifier is a keyword. Keywords are case-insensitive.
func LookupKeyword(ident string) (Type, bool) {
	t, ok := keywords[strings.ToLower(ident)]
	return t, ok
}

// IsReserved reports whether a name cannot be used for a variable or a function.
func IsReserved(name string) bool {
	_, ok := LookupKeyword(name)
	return ok
}

// Token is a lexeme with its type and byte offset in the formula.
type Token struct {
	Type   Type
	Text   string
	Offset int
}

func (t Token) String() string {
	if t.Type == EOF {
		return "<eof>"
	}
	return fmt.Sprintf("%v %q", t.Type, t.Text)
}
