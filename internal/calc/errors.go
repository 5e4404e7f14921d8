package calc

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidExpression = errors.New("invalid expression")
	ErrDivisionByZero    = errors.New("cannot divide by zero")
	ErrInvalidOperator   = errors.New("invalid operator")
)

// ErrorKind classifies an evaluation failure.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindInvalidExpression
	KindDivisionByZero
	KindInvalidOperator
)

// String returns the kind name used in logs, history and the HTTP API.
func (k ErrorKind) String() string {
	switch k {
	case KindInvalidExpression:
		return "InvalidExpression"
	case KindDivisionByZero:
		return "DivisionByZero"
	case KindInvalidOperator:
		return "InvalidOperator"
	default:
		return ""
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindDivisionByZero:
		return ErrDivisionByZero
	case KindInvalidOperator:
		return ErrInvalidOperator
	default:
		return ErrInvalidExpression
	}
}

// EvaluationError is returned by EvaluatePostfix and Evaluate. It unwraps to
// the sentinel of its kind, so errors.Is(err, ErrDivisionByZero) works.
type EvaluationError struct {
	Kind ErrorKind
	// Token is the token being reduced when evaluation failed, nil when the
	// failure is about the final shape of the value stack.
	Token *Token
}

func newError(kind ErrorKind, tok *Token) *EvaluationError {
	return &EvaluationError{Kind: kind, Token: tok}
}

func (e *EvaluationError) Error() string {
	msg := e.Kind.sentinel().Error()
	if e.Token == nil {
		return msg
	}
	return fmt.Sprintf("%s: %q at position %d", msg, e.Token.Text, e.Token.Pos)
}

func (e *EvaluationError) Unwrap() error {
	return e.Kind.sentinel()
}

// KindOf returns the kind of an evaluation failure anywhere in err's chain,
// or KindNone.
func KindOf(err error) ErrorKind {
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		return evalErr.Kind
	}
	switch {
	case errors.Is(err, ErrDivisionByZero):
		return KindDivisionByZero
	case errors.Is(err, ErrInvalidOperator):
		return KindInvalidOperator
	case errors.Is(err, ErrInvalidExpression):
		return KindInvalidExpression
	}
	return KindNone
}
