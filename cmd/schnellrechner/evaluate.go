package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/codefionn/schnellrechner/internal/calc"
	"github.com/codefionn/schnellrechner/internal/history"
	"github.com/codefionn/schnellrechner/internal/logger"
	"github.com/codefionn/schnellrechner/internal/session"
	"github.com/fatih/color"
)

// Session IDs recorded in the history for the non-interactive modes
const (
	cliSessionID   = "cli"
	stdinSessionID = "stdin"
)

// evaluateExpression evaluates expr once and prints the result or the error.
// A blank expression is a no-op.
func evaluateExpression(ctx context.Context, out, errOut io.Writer, expr string) error {
	if strings.TrimSpace(expr) == "" {
		return nil
	}

	postfix := calc.Compile(expr)
	if showRPN {
		fmt.Fprintln(out, color.CyanString(calc.FormatTokens(postfix)))
	}

	result, err := calc.EvaluatePostfix(postfix)

	if store != nil {
		recorder := history.NewRecorder(store, cfg.HistoryLimit, nil)
		ev := session.Evaluation{
			SessionID:  cliSessionID,
			Expression: expr,
			Postfix:    postfix,
			Result:     result,
			Err:        err,
			At:         time.Now().UTC(),
		}
		if recErr := recorder.RecordEvaluation(ctx, ev); recErr != nil {
			logger.Warn("failed to record evaluation: %v", recErr)
		}
	}

	if err != nil {
		logger.Debug("evaluation of %q failed: %v", expr, err)
		fmt.Fprintln(errOut, color.RedString("%s: %v", calc.KindOf(err), err))
		return errEvaluationFailed
	}

	fmt.Fprintln(out, color.GreenString(calc.FormatResult(result, cfg.Display.Precision)))
	return nil
}

// evaluateLines feeds every line of r into one session, so each line
// continues from the previous result. Blank lines are skipped.
func evaluateLines(ctx context.Context, r io.Reader, out, errOut io.Writer) error {
	sess := newSession(stdinSessionID)
	failed := false

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		outcome := sess.SubmitLine(ctx, scanner.Text())
		if !outcome.Evaluated {
			continue
		}
		if outcome.Err != nil {
			failed = true
			fmt.Fprintln(errOut, color.RedString("%s: %s: %v", outcome.Expression, calc.KindOf(outcome.Err), outcome.Err))
			continue
		}
		fmt.Fprintln(out, outcome.Display)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	if failed {
		return errEvaluationFailed
	}
	return nil
}
