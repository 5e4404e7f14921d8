package calc

import (
	"iter"
	"regexp"
	"slices"
	"strconv"
)

// tokenPattern matches, in priority order, an operator or parenthesis, a
// number with a decimal point ("3." included) and a plain integer.
var tokenPattern = regexp.MustCompile(`[+\-*/()]|\d+\.\d*|\d+`)

// Tokens returns a lazy sequence of the tokens in expr. Characters that are
// not part of any token are skipped without error.
func Tokens(expr string) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		pos := 0
		for pos < len(expr) {
			loc := tokenPattern.FindStringIndex(expr[pos:])
			if loc == nil {
				return
			}
			start, end := pos+loc[0], pos+loc[1]
			pos = end
			if !yield(newToken(expr[start:end], start)) {
				return
			}
		}
	}
}

// Tokenize collects every token of expr. An input without recognizable
// tokens yields an empty (nil) slice.
func Tokenize(expr string) []Token {
	return slices.Collect(Tokens(expr))
}

func newToken(text string, pos int) Token {
	switch text {
	case "+", "-", "*", "/":
		return Token{Kind: TokenOperator, Text: text, Pos: pos}
	case "(":
		return Token{Kind: TokenLeftParen, Text: text, Pos: pos}
	case ")":
		return Token{Kind: TokenRightParen, Text: text, Pos: pos}
	}

	// The pattern guarantees a well-formed literal, so the only possible
	// error is ErrRange, for which ParseFloat still returns ±Inf.
	value, _ := strconv.ParseFloat(text, 64)
	return Token{Kind: TokenNumber, Text: text, Value: value, Pos: pos}
}
