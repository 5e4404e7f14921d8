package calc

import "strings"

// TokenKind identifies the lexical class of a Token.
type TokenKind int

const (
	TokenNumber TokenKind = iota
	TokenOperator
	TokenLeftParen
	TokenRightParen
)

// String returns a readable name of the kind.
func (k TokenKind) String() string {
	switch k {
	case TokenNumber:
		return "number"
	case TokenOperator:
		return "operator"
	case TokenLeftParen:
		return "left_paren"
	case TokenRightParen:
		return "right_paren"
	default:
		return "unknown"
	}
}

// Token is a single lexical unit of an expression.
type Token struct {
	Kind  TokenKind
	Text  string  // source text, e.g. "3.5" or "*"
	Value float64 // parsed value, only meaningful for TokenNumber
	Pos   int     // byte offset in the input
}

// String returns the source text of the token.
func (t Token) String() string {
	return t.Text
}

// IsOperator reports whether t is one of + - * /.
func (t Token) IsOperator() bool {
	return t.Kind == TokenOperator
}

// precedence ranks the binary operators; higher binds tighter.
var precedence = map[string]int{
	"+": 1,
	"-": 1,
	"*": 2,
	"/": 2,
}

// Precedence returns the binding rank of an operator symbol, or 0 for
// anything that is not a binary operator.
func Precedence(symbol string) int {
	return precedence[symbol]
}

// FormatTokens joins the token texts with single spaces, e.g. "2 3 4 * +".
func FormatTokens(tokens []Token) string {
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = tok.Text
	}
	return strings.Join(parts, " ")
}
