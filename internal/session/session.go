// Package session holds the state a calculator front end keeps between
// key presses: the pending input and the previous result it is chained to.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/codefionn/schnellrechner/internal/calc"
	"github.com/codefionn/schnellrechner/internal/logger"
	"github.com/google/uuid"
)

// Keys with a special meaning for Press. Every other key is appended to
// the pending input as-is.
const (
	KeyEquals = "="
	KeyClear  = "C"
)

// Evaluation describes one call into the expression engine
type Evaluation struct {
	SessionID  string
	Expression string // full expression, including the chained previous result
	Postfix    []calc.Token
	Result     float64
	Err        error
	At         time.Time
}

// Recorder receives every evaluation a session performs
type Recorder interface {
	RecordEvaluation(ctx context.Context, ev Evaluation) error
}

// Outcome is what a front end needs to refresh itself after a key press
type Outcome struct {
	Display    string
	Expression string
	Result     float64
	Err        error
	Evaluated  bool // false when the key did not trigger an evaluation
}

// Session is a single calculator's state. It is safe for concurrent use.
type Session struct {
	ID string

	mu        sync.Mutex
	previous  float64
	hasResult bool
	pending   string
	shown     string // display text in front of the pending input
	precision int
	recorder  Recorder
	log       *logger.Logger
	now       func() time.Time
}

// Option configures a Session
type Option func(*Session)

// WithRecorder sends every evaluation to r
func WithRecorder(r Recorder) Option {
	return func(s *Session) { s.recorder = r }
}

// WithLogger replaces the default global logger
func WithLogger(l *logger.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithPrecision sets the fractional digits of displayed results,
// calc.ShortestPrecision for the shortest exact form
func WithPrecision(precision int) Option {
	return func(s *Session) { s.precision = precision }
}

// WithID sets the session ID instead of generating one
func WithID(id string) Option {
	return func(s *Session) { s.ID = id }
}

// New creates an empty session
func New(opts ...Option) *Session {
	s := &Session{
		precision: calc.ShortestPrecision,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ID == "" {
		s.ID = GenerateID()
	}
	if s.log == nil {
		s.log = logger.Global()
	}
	s.log = s.log.WithPrefix("session:" + s.ID)
	return s
}

// GenerateID creates a random session ID
func GenerateID() string {
	return uuid.NewString()
}

// Press handles one keypad key: "=" calculates, "C" clears, anything else
// is appended.
func (s *Session) Press(ctx context.Context, key string) Outcome {
	switch key {
	case KeyEquals:
		return s.Calculate(ctx)
	case KeyClear:
		s.Clear()
	default:
		s.Append(key)
	}
	return Outcome{Display: s.Display()}
}

// Append adds text to the pending input and the display
func (s *Session) Append(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending += text
}

// Backspace removes the last character of the pending input. It reports
// false when there was nothing to remove.
func (s *Session) Backspace() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == "" {
		return false
	}
	runes := []rune(s.pending)
	s.pending = string(runes[:len(runes)-1])
	return true
}

// Clear empties the display and the pending input. The previous result is
// kept and still prefixes the next calculation; use Reset to drop it.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = ""
	s.shown = ""
}

// Reset returns the session to its initial state
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = ""
	s.shown = ""
	s.previous = 0
	s.hasResult = false
}

// Display returns the text a front end should show
func (s *Session) Display() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shown + s.pending
}

// Pending returns the input entered since the last calculation
func (s *Session) Pending() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Previous returns the last successful result, if any
func (s *Session) Previous() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.previous, s.hasResult
}

// Calculate evaluates the previous result followed by the pending input.
// An empty pending input is a no-op. After success the result replaces the
// display; after failure the display is cleared. The pending input is reset
// in both cases.
func (s *Session) Calculate(ctx context.Context) Outcome {
	s.mu.Lock()
	if s.pending == "" {
		display := s.shown
		s.mu.Unlock()
		return Outcome{Display: display}
	}

	expr := s.pending
	if s.hasResult {
		expr = calc.FormatResult(s.previous, calc.ShortestPrecision) + s.pending
	}

	postfix := calc.Compile(expr)
	result, err := calc.EvaluatePostfix(postfix)

	s.pending = ""
	if err != nil {
		s.shown = ""
	} else {
		s.previous = result
		s.hasResult = true
		s.shown = calc.FormatResult(result, s.precision)
	}
	outcome := Outcome{
		Display:    s.shown,
		Expression: expr,
		Result:     result,
		Err:        err,
		Evaluated:  true,
	}
	ev := Evaluation{
		SessionID:  s.ID,
		Expression: expr,
		Postfix:    postfix,
		Result:     result,
		Err:        err,
		At:         s.now().UTC(),
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Warn("evaluation of %q failed: %v", expr, err)
	} else {
		s.log.Debug("evaluated %q [%s] = %v", expr, calc.FormatTokens(postfix), result)
	}

	if s.recorder != nil {
		if recErr := s.recorder.RecordEvaluation(ctx, ev); recErr != nil {
			s.log.Error("failed to record evaluation: %v", recErr)
		}
	}

	return outcome
}

// PressAll presses every character of keys in order and returns the outcome
// of the last one. "\n" is treated as "=".
func (s *Session) PressAll(ctx context.Context, keys string) Outcome {
	outcomes := s.PressEach(ctx, keys)
	if len(outcomes) == 0 {
		return Outcome{Display: s.Display()}
	}
	return outcomes[len(outcomes)-1]
}

// PressEach presses every character of keys in order and returns one
// outcome per key, so calculations in the middle of keys are not lost.
// "\n" is treated as "=".
func (s *Session) PressEach(ctx context.Context, keys string) []Outcome {
	outcomes := make([]Outcome, 0, len(keys))
	for _, r := range keys {
		key := string(r)
		if key == "\n" {
			key = KeyEquals
		}
		outcomes = append(outcomes, s.Press(ctx, key))
	}
	return outcomes
}

// SubmitLine appends a full line of input and calculates it, the way a
// line-oriented front end uses the session.
func (s *Session) SubmitLine(ctx context.Context, line string) Outcome {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return Outcome{Display: s.Display()}
	}
	s.Append(line)
	return s.Calculate(ctx)
}
