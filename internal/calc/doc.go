// Package calc is the expression engine behind the calculator.
//
// An expression is evaluated in three stages, each a pure function of its
// input:
//
//	Tokenize     "2+3*4"            -> [2 + 3 * 4]
//	ToPostfix    [2 + 3 * 4]        -> [2 3 4 * +]
//	EvaluatePostfix [2 3 4 * +]     -> 14
//
// Evaluate chains the three. The tokenizer drops characters it does not
// recognize and the converter tolerates unbalanced parentheses, so malformed
// input is reported by EvaluatePostfix as ErrInvalidExpression (or
// ErrInvalidOperator when a stray "(" reaches it with two operands).
//
// Nothing in this package keeps state between calls; all functions are safe
// for concurrent use.
package calc
