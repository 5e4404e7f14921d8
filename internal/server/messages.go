package server

import "github.com/codefionn/schnellrechner/internal/history"

// Message types sent by keypad clients
const (
	MessageTypeKey       = "key"       // one key, "=" calculates and "C" clears
	MessageTypeInput     = "input"     // several keys at once
	MessageTypeBackspace = "backspace" // remove the last pending character
	MessageTypeClear     = "clear"
	MessageTypeReset     = "reset" // clear and forget the previous result
)

// Message types sent by the server
const (
	MessageTypeHello   = "hello"
	MessageTypeDisplay = "display"
	MessageTypeResult  = "result"
	MessageTypeError   = "error"
	MessageTypeHistory = "history"
)

// Message is the JSON envelope exchanged over the WebSocket
type Message struct {
	Type       string         `json:"type"`
	SessionID  string         `json:"session_id,omitempty"`
	Key        string         `json:"key,omitempty"`
	Input      string         `json:"input,omitempty"`
	Display    string         `json:"display"`
	Expression string         `json:"expression,omitempty"`
	Result     *float64       `json:"result,omitempty"`
	Error      string         `json:"error,omitempty"`
	Kind       string         `json:"kind,omitempty"`
	Entry      *history.Entry `json:"entry,omitempty"`
}

// EvaluateRequest is the body of POST /api/evaluate
type EvaluateRequest struct {
	Expression string `json:"expression"`
}

// EvaluateResponse is returned for a successful evaluation
type EvaluateResponse struct {
	Expression string  `json:"expression"`
	Postfix    string  `json:"postfix"`
	Result     float64 `json:"result"`
	Display    string  `json:"display"`
}

// ErrorResponse is returned for failed requests and evaluations
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
