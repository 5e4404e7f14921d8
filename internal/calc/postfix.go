package calc

// ToPostfix reorders infix tokens into postfix (reverse Polish) order using
// the shunting-yard algorithm.
//
// Operators of equal precedence are left-associative: the operator already
// on the stack is emitted before the incoming one is pushed. A ")" without a
// matching "(" simply drains the stack, and a "(" that is never closed ends
// up in the output, where EvaluatePostfix rejects it.
func ToPostfix(tokens []Token) []Token {
	output := make([]Token, 0, len(tokens))
	var stack []Token

	for _, tok := range tokens {
		switch tok.Kind {
		case TokenNumber:
			output = append(output, tok)

		case TokenLeftParen:
			stack = append(stack, tok)

		case TokenRightParen:
			for len(stack) > 0 && stack[len(stack)-1].Kind != TokenLeftParen {
				output = append(output, stack[len(stack)-1])
				stack = stack[:len(stack)-1]
			}
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}

		case TokenOperator:
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				if top.Kind != TokenOperator || Precedence(top.Text) < Precedence(tok.Text) {
					break
				}
				output = append(output, top)
				stack = stack[:len(stack)-1]
			}
			stack = append(stack, tok)
		}
	}

	for i := len(stack) - 1; i >= 0; i-- {
		output = append(output, stack[i])
	}

	return output
}
