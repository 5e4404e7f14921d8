package calc

import "math"

// EvaluatePostfix reduces a postfix token sequence to a single value.
//
// Every non-number token pops its right operand first and its left operand
// second. A missing or NaN operand fails with ErrInvalidExpression, a zero
// divisor with ErrDivisionByZero and a token that is not + - * / with
// ErrInvalidOperator. The reduction must leave exactly one finite value.
func EvaluatePostfix(postfix []Token) (float64, error) {
	stack := make([]float64, 0, len(postfix))

	for i := range postfix {
		tok := &postfix[i]
		if tok.Kind == TokenNumber {
			stack = append(stack, tok.Value)
			continue
		}

		right, ok := pop(&stack)
		if !ok {
			return 0, newError(KindInvalidExpression, tok)
		}
		left, ok := pop(&stack)
		if !ok || math.IsNaN(left) || math.IsNaN(right) {
			return 0, newError(KindInvalidExpression, tok)
		}

		value, err := apply(tok, left, right)
		if err != nil {
			return 0, err
		}
		stack = append(stack, value)
	}

	if len(stack) != 1 || math.IsNaN(stack[0]) || math.IsInf(stack[0], 0) {
		return 0, newError(KindInvalidExpression, nil)
	}

	return stack[0], nil
}

// apply performs one binary operation.
func apply(tok *Token, left, right float64) (float64, error) {
	if tok.Kind != TokenOperator {
		return 0, newError(KindInvalidOperator, tok)
	}

	switch tok.Text {
	case "+":
		return left + right, nil
	case "-":
		return left - right, nil
	case "*":
		return left * right, nil
	case "/":
		if right == 0 {
			return 0, newError(KindDivisionByZero, tok)
		}
		return left / right, nil
	default:
		return 0, newError(KindInvalidOperator, tok)
	}
}

func pop(stack *[]float64) (float64, bool) {
	s := *stack
	if len(s) == 0 {
		return 0, false
	}
	v := s[len(s)-1]
	*stack = s[:len(s)-1]
	return v, true
}
