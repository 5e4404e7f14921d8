package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/codefionn/schnellrechner/internal/config"
	"github.com/codefionn/schnellrechner/internal/history"
	"github.com/codefionn/schnellrechner/internal/logger"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, withHistory bool) (*Server, *history.Store) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Server.Addr = "127.0.0.1:0"

	var store *history.Store
	if withHistory {
		var err error
		store, err = history.Open(filepath.Join(t.TempDir(), "history.db"))
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
	}

	log := logger.NewWriter(logger.LevelNone, io.Discard, "")
	srv, err := New(cfg, store, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Stop(context.Background()) })
	return srv, store
}

func doRequest(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestEvaluateEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, false)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantResult float64
		wantKind   string
		wantPost   string
	}{
		{name: "precedence", body: `{"expression":"2+3*4"}`, wantStatus: http.StatusOK, wantResult: 14, wantPost: "2 3 4 * +"},
		{name: "parentheses", body: `{"expression":"(2+3)*4"}`, wantStatus: http.StatusOK, wantResult: 20, wantPost: "2 3 + 4 *"},
		{name: "decimal", body: `{"expression":"1.5+1.5"}`, wantStatus: http.StatusOK, wantResult: 3, wantPost: "1.5 1.5 +"},
		{name: "division by zero", body: `{"expression":"5/0"}`, wantStatus: http.StatusUnprocessableEntity, wantKind: "DivisionByZero"},
		{name: "dangling operator", body: `{"expression":"2+"}`, wantStatus: http.StatusUnprocessableEntity, wantKind: "InvalidExpression"},
		{name: "unclosed paren", body: `{"expression":"2+(3"}`, wantStatus: http.StatusUnprocessableEntity, wantKind: "InvalidOperator"},
		{name: "empty expression", body: `{"expression":"  "}`, wantStatus: http.StatusBadRequest},
		{name: "bad json", body: `{"expression":`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, srv.Handler(), http.MethodPost, "/api/evaluate", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			switch tt.wantStatus {
			case http.StatusOK:
				var resp EvaluateResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, tt.wantResult, resp.Result)
				assert.Equal(t, tt.wantPost, resp.Postfix)
				assert.NotEmpty(t, resp.Display)
			case http.StatusUnprocessableEntity:
				var resp ErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, tt.wantKind, resp.Kind)
				assert.NotEmpty(t, resp.Error)
			}
		})
	}
}

func TestEvaluateRecordsHistory(t *testing.T) {
	srv, store := newTestServer(t, true)

	rec := doRequest(t, srv.Handler(), http.MethodPost, "/api/evaluate", `{"expression":"6/3"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doRequest(t, srv.Handler(), http.MethodPost, "/api/evaluate", `{"expression":"1/0"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	entries, err := store.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "1/0", entries[0].Expression)
	assert.Equal(t, "DivisionByZero", entries[0].ErrorKind)
	assert.Equal(t, "6/3", entries[1].Expression)
	require.NotNil(t, entries[1].Result)
	assert.Equal(t, 2.0, *entries[1].Result)
	assert.Equal(t, apiSessionID, entries[1].SessionID)

	rec = doRequest(t, srv.Handler(), http.MethodGet, "/api/history?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []history.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "1/0", listed[0].Expression)

	rec = doRequest(t, srv.Handler(), http.MethodGet, "/api/history/"+strconv.FormatInt(entries[1].ID, 10), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got history.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "6/3", got.Expression)

	rec = doRequest(t, srv.Handler(), http.MethodGet, "/api/history/999999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, srv.Handler(), http.MethodGet, "/api/history/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv.Handler(), http.MethodGet, "/api/history?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv.Handler(), http.MethodDelete, "/api/history", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestHistoryDisabled(t *testing.T) {
	srv, _ := newTestServer(t, false)

	for _, tc := range []struct{ method, target string }{
		{http.MethodGet, "/api/history"},
		{http.MethodDelete, "/api/history"},
		{http.MethodGet, "/api/history/1"},
	} {
		rec := doRequest(t, srv.Handler(), tc.method, tc.target, "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, "%s %s", tc.method, tc.target)
	}
}

func TestHealthAndOpenAPI(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rec := doRequest(t, srv.Handler(), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, true, health["history"])

	rec = doRequest(t, srv.Handler(), http.MethodGet, "/openapi.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	paths, ok := doc["paths"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, paths, "/api/evaluate")
	assert.Contains(t, paths, "/ws")
}

func TestCheckOrigin(t *testing.T) {
	srv, _ := newTestServer(t, false)
	srv.cfg.Server.AllowedOrigins = []string{"http://calc.example"}

	tests := []struct {
		origin string
		host   string
		want   bool
	}{
		{origin: "", host: "localhost:8937", want: true},
		{origin: "http://localhost:8937", host: "localhost:8937", want: true},
		{origin: "http://calc.example", host: "localhost:8937", want: true},
		{origin: "http://evil.example", host: "localhost:8937", want: false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		req.Host = tt.host
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		assert.Equal(t, tt.want, srv.checkOrigin(req), "origin %q", tt.origin)
	}
}

func readUntil(t *testing.T, conn *websocket.Conn, msgType string) *Message {
	t.Helper()
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == msgType {
			return &msg
		}
	}
}

func TestWebSocketSession(t *testing.T) {
	srv, store := newTestServer(t, true)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	hello := readUntil(t, conn, MessageTypeHello)
	assert.NotEmpty(t, hello.SessionID)

	require.NoError(t, conn.WriteJSON(Message{Type: MessageTypeKey, Key: "7"}))
	display := readUntil(t, conn, MessageTypeDisplay)
	assert.Equal(t, "7", display.Display)

	require.NoError(t, conn.WriteJSON(Message{Type: MessageTypeInput, Input: "*6="}))
	result := readUntil(t, conn, MessageTypeResult)
	require.NotNil(t, result.Result)
	assert.Equal(t, 42.0, *result.Result)
	assert.Equal(t, "42", result.Display)
	assert.Equal(t, "7*6", result.Expression)

	// the previous result chains into the next calculation
	require.NoError(t, conn.WriteJSON(Message{Type: MessageTypeInput, Input: "/0="}))
	failure := readUntil(t, conn, MessageTypeError)
	assert.Equal(t, "DivisionByZero", failure.Kind)
	assert.Equal(t, "42/0", failure.Expression)
	assert.Equal(t, "", failure.Display)

	require.NoError(t, conn.WriteJSON(Message{Type: "bogus"}))
	unknown := readUntil(t, conn, MessageTypeError)
	assert.Contains(t, unknown.Error, "bogus")

	assert.Eventually(t, func() bool {
		n, err := store.Count(context.Background())
		return err == nil && n == 2
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWebSocketHistoryBroadcast(t *testing.T) {
	srv, _ := newTestServer(t, true)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	readUntil(t, conn, MessageTypeHello)

	require.Eventually(t, func() bool {
		return srv.hub.ClientCount() == 1
	}, 5*time.Second, 10*time.Millisecond)

	rec := doRequest(t, srv.Handler(), http.MethodPost, "/api/evaluate", `{"expression":"9-4"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	msg := readUntil(t, conn, MessageTypeHistory)
	require.NotNil(t, msg.Entry)
	assert.Equal(t, "9-4", msg.Entry.Expression)
}

func TestStartStop(t *testing.T) {
	srv, _ := newTestServer(t, false)
	require.NoError(t, srv.Start())

	resp, err := http.Get("http://" + srv.Addr() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))
}

// readReply returns the next message that is not a history broadcast
func readReply(t *testing.T, conn *websocket.Conn) *Message {
	t.Helper()
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type != MessageTypeHistory {
			return &msg
		}
	}
}

func TestWebSocketInputReportsEveryCalculation(t *testing.T) {
	srv, _ := newTestServer(t, true)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	readUntil(t, conn, MessageTypeHello)

	require.NoError(t, conn.WriteJSON(Message{Type: MessageTypeInput, Input: "5/0=7"}))

	failure := readReply(t, conn)
	require.Equal(t, MessageTypeError, failure.Type)
	assert.Equal(t, "DivisionByZero", failure.Kind)
	assert.Equal(t, "5/0", failure.Expression)

	display := readReply(t, conn)
	require.Equal(t, MessageTypeDisplay, display.Type)
	assert.Equal(t, "7", display.Display)

	// an input ending in "=" is answered by its result alone
	require.NoError(t, conn.WriteJSON(Message{Type: MessageTypeInput, Input: "+1="}))
	result := readReply(t, conn)
	require.Equal(t, MessageTypeResult, result.Type)
	require.NotNil(t, result.Result)
	assert.Equal(t, 8.0, *result.Result)
}
