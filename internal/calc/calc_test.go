package calc

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		expr     string
		expected float64
	}{
		{"(2+3)*4", 20},
		{"2+3*4", 14},
		{"8-3-2", 3},
		{"16/4/2", 2},
		{"1.5+2.5", 4},
		{"10 + 5 * 2", 20},
		{"8 - 2 * 3", 2},
		{"18 / 3 + 2", 8},
		{"(8 - 2) * (5 - 3)", 12},
		{"(10 + 5) / (3 + 2)", 3},
		{"((7))", 7},
		{"3.", 3},
		{"0.1+0.2", 0.30000000000000004},
		{"1+2)*3", 9},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			t.Parallel()
			got, err := Evaluate(tt.expr)
			require.NoError(t, err, "Evaluate(%q)", tt.expr)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func TestEvaluateFailures(t *testing.T) {
	tests := []struct {
		expr   string
		target error
	}{
		{"5/0", ErrDivisionByZero},
		{"1/(2-2)", ErrDivisionByZero},
		{"3+", ErrInvalidExpression},
		{"*5", ErrInvalidExpression},
		{")5(", ErrInvalidExpression},
		{"(5", ErrInvalidExpression},
		{"3++*2", ErrInvalidExpression},
		{"", ErrInvalidExpression},
		{"abc", ErrInvalidExpression},
		{"2 3", ErrInvalidExpression},
		{"-3+2", ErrInvalidExpression},
		{"2+(3", ErrInvalidOperator},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := Evaluate(tt.expr)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestEvaluateIgnoresFillerCharacters(t *testing.T) {
	spaced, err := Evaluate("3 + 4")
	require.NoError(t, err)
	compact, err := Evaluate("3+4")
	require.NoError(t, err)
	lettered, err := Evaluate("3 plus+ 4x")
	require.NoError(t, err)

	assert.Equal(t, compact, spaced)
	assert.Equal(t, compact, lettered)
}

func TestEvaluateConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := Evaluate("(2+3)*4-6/3")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if got != 18 {
				t.Errorf("got %v, want 18", got)
			}
		}()
	}
	wg.Wait()
}

func TestCompile(t *testing.T) {
	assert.Equal(t, "2 3 4 * +", FormatTokens(Compile("2+3*4")))
}
