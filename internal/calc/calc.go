package calc

// Evaluate tokenizes expr, converts it to postfix and reduces it to a single
// finite value.
func Evaluate(expr string) (float64, error) {
	return EvaluatePostfix(ToPostfix(Tokenize(expr)))
}

// Compile returns the postfix form of expr without evaluating it.
func Compile(expr string) []Token {
	return ToPostfix(Tokenize(expr))
}
