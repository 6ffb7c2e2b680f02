package zinc

import (
	"fmt"

	"github.com/roach88/haystack/kind"
)

// TokenType classifies a Token.
type TokenType int

const (
	EOF TokenType = iota
	NL
	ID
	KEYWORD
	COMMENT

	// Literals. Token.Val holds the decoded kind value.
	NUM
	STR
	REF
	SYMBOL
	URI
	DATE
	TIME
	DATETIME

	// Operators.
	COMMA
	COLON
	COLON2
	SEMICOLON
	DOT
	MINUS
	SLASH
	QUESTION
	AMP
	PIPE
	BANG
	ASSIGN
	EQ
	NOTEQ
	LT
	LT2
	LTEQ
	GT
	GT2
	GTEQ
	FNARROW
	ARROW
	LBRACE
	RBRACE
	LPAREN
	RPAREN
	LBRACKET
	RBRACKET
)

var tokenNames = map[TokenType]string{
	EOF:       "eof",
	NL:        "newline",
	ID:        "identifier",
	KEYWORD:   "keyword",
	COMMENT:   "comment",
	NUM:       "Number",
	STR:       "Str",
	REF:       "Ref",
	SYMBOL:    "Symbol",
	URI:       "Uri",
	DATE:      "Date",
	TIME:      "Time",
	DATETIME:  "DateTime",
	COMMA:     ",",
	COLON:     ":",
	COLON2:    "::",
	SEMICOLON: ";",
	DOT:       ".",
	MINUS:     "-",
	SLASH:     "/",
	QUESTION:  "?",
	AMP:       "&",
	PIPE:      "|",
	BANG:      "!",
	ASSIGN:    "=",
	EQ:        "==",
	NOTEQ:     "!=",
	LT:        "<",
	LT2:       "<<",
	LTEQ:      "<=",
	GT:        ">",
	GT2:       ">>",
	GTEQ:      ">=",
	FNARROW:   "=>",
	ARROW:     "->",
	LBRACE:    "{",
	RBRACE:    "}",
	LPAREN:    "(",
	RPAREN:    ")",
	LBRACKET:  "[",
	RBRACKET:  "]",
}

func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// IsLiteral reports whether tokens of this type carry a decoded value.
func (t TokenType) IsLiteral() bool {
	return t >= NUM && t <= DATETIME
}

// Token is one lexical unit of Zinc text.
type Token struct {
	Type TokenType

	// Text is the identifier, keyword, comment or operator text.
	Text string

	// Val is the decoded value for literal and keyword tokens.
	Val kind.Kind

	// Line is the 1-based line the token started on.
	Line int
}

func (t Token) String() string {
	switch {
	case t.Type.IsLiteral():
		return fmt.Sprintf("%s %s", t.Type, kind.ToString(t.Val))
	case t.Type == ID || t.Type == KEYWORD:
		return fmt.Sprintf("%s %q", t.Type, t.Text)
	case t.Type == EOF || t.Type == NL || t.Type == COMMENT:
		return t.Type.String()
	}
	return fmt.Sprintf("%q", t.Type.String())
}
