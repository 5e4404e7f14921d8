// Package server exposes the calculator over HTTP: a JSON evaluation API,
// the evaluation history and live keypad sessions over WebSocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/codefionn/schnellrechner/internal/calc"
	"github.com/codefionn/schnellrechner/internal/config"
	"github.com/codefionn/schnellrechner/internal/history"
	"github.com/codefionn/schnellrechner/internal/logger"
	"github.com/codefionn/schnellrechner/internal/session"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

const maxRequestBody = 64 * 1024

// apiSessionID marks history entries created through POST /api/evaluate
const apiSessionID = "api"

// Server provides the HTTP interface of the calculator
type Server struct {
	cfg        *config.Config
	store      *history.Store
	recorder   session.Recorder
	hub        *Hub
	router     *httprouter.Router
	httpServer *http.Server
	listener   net.Listener
	upgrader   websocket.Upgrader
	openapi    *openapi3.T
	log        *logger.Logger
	ctx        context.Context
	cancel     context.CancelFunc
}

// New creates a server. store may be nil, in which case history endpoints
// answer 503 and evaluations are not recorded.
func New(cfg *config.Config, store *history.Store, log *logger.Logger) (*Server, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if log == nil {
		log = logger.Global()
	}
	log = log.WithPrefix("server")

	doc, err := loadOpenAPI(context.Background())
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:     cfg,
		store:   store,
		hub:     NewHub(log.WithPrefix("hub")),
		router:  httprouter.New(),
		openapi: doc,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
	if store != nil {
		s.recorder = history.NewRecorder(store, cfg.HistoryLimit, s.broadcastEntry)
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	s.setupRoutes()
	go s.hub.Run()

	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/openapi.json", s.handleOpenAPI)

	s.router.POST("/api/evaluate", s.handleEvaluate)
	s.router.GET("/api/history", s.handleHistory)
	s.router.DELETE("/api/history", s.handleHistoryClear)
	s.router.GET("/api/history/:id", s.handleHistoryEntry)

	s.router.GET("/ws", s.handleWebSocket)

	s.router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v interface{}) {
		s.log.Error("panic serving %s %s: %v", r.Method, r.URL.Path, v)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

// Handler returns the HTTP handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and serves in the background
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Server.Addr, err)
	}
	s.listener = listener

	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          logger.NewStdLogger(s.log, slog.LevelError),
	}

	go func() {
		s.log.Info("listening on %s", listener.Addr())
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server error: %v", err)
		}
	}()

	return nil
}

// Addr returns the address the server listens on, once started
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.cfg.Server.Addr
	}
	return s.listener.Addr().String()
}

// Stop disconnects keypad clients and shuts the HTTP server down
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("stopping server")
	s.cancel()
	s.hub.Stop()

	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}

func (s *Server) broadcastEntry(entry history.Entry) {
	s.hub.Broadcast(&Message{Type: MessageTypeHistory, Entry: &entry})
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if slices.Contains(s.cfg.Server.AllowedOrigins, origin) {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"clients": s.hub.ClientCount(),
		"history": s.store != nil,
	})
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, s.openapi)
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req EvaluateRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := decoder.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Expression) == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "expression must not be empty"})
		return
	}

	postfix := calc.Compile(req.Expression)
	result, err := calc.EvaluatePostfix(postfix)

	if s.recorder != nil {
		ev := session.Evaluation{
			SessionID:  apiSessionID,
			Expression: req.Expression,
			Postfix:    postfix,
			Result:     result,
			Err:        err,
			At:         time.Now().UTC(),
		}
		if recErr := s.recorder.RecordEvaluation(r.Context(), ev); recErr != nil {
			s.log.Error("failed to record evaluation: %v", recErr)
		}
	}

	if err != nil {
		s.log.Debug("evaluation of %q failed: %v", req.Expression, err)
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error: err.Error(),
			Kind:  calc.KindOf(err).String(),
		})
		return
	}

	writeJSON(w, http.StatusOK, EvaluateResponse{
		Expression: req.Expression,
		Postfix:    calc.FormatTokens(postfix),
		Result:     result,
		Display:    calc.FormatResult(result, s.cfg.Display.Precision),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if !s.requireHistory(w) {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	entries, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.log.Error("failed to list history: %v", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to list history"})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleHistoryEntry(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if !s.requireHistory(w) {
		return
	}

	id, err := strconv.ParseInt(ps.ByName("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
		return
	}

	entry, err := s.store.Get(r.Context(), id)
	if errors.Is(err, history.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		s.log.Error("failed to get history entry %d: %v", id, err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to get history entry"})
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleHistoryClear(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if !s.requireHistory(w) {
		return
	}
	if err := s.store.Clear(r.Context()); err != nil {
		s.log.Error("failed to clear history: %v", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to clear history"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) requireHistory(w http.ResponseWriter) bool {
	if s.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "history is disabled"})
		return false
	}
	return true
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error
		s.log.Warn("failed to upgrade WebSocket: %v", err)
		return
	}

	opts := []session.Option{
		session.WithLogger(s.log),
		session.WithPrecision(s.cfg.Display.Precision),
	}
	if s.recorder != nil {
		opts = append(opts, session.WithRecorder(s.recorder))
	}
	sess := session.New(opts...)

	client := NewClient(s.hub, conn, sess, s.log)
	s.hub.Register(client)
	client.enqueue(&Message{Type: MessageTypeHello, SessionID: sess.ID})

	go client.WritePump()
	go client.ReadPump(s.ctx)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to encode response: %v", err)
	}
}
