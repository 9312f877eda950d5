// Package ingress accepts broadcast commands over HTTP and WebSocket and
// hands them to the relay.
//
//	POST /v1/commands   one JSON command, answered when the send completes
//	GET  /v1/ws         one JSON command per text frame, one reply per command
//	GET  /v1/types      command listing
//	GET  /metrics       Prometheus exposition
//	GET  /healthz
package ingress

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"iracing-broadcast/broadcasterr"
	"iracing-broadcast/codec"
	"iracing-broadcast/middleware"
	"iracing-broadcast/relay"
)

const (
	defaultRequestTimeout = 30 * time.Second
	maxCommandBytes       = 4 << 10
)

// Server is a relay.Source fed by HTTP handlers.
type Server struct {
	commands chan relay.Command
	codec    codec.Codec
	logger   *zap.Logger
	gatherer prometheus.Gatherer
	timeout  time.Duration
	upgrader websocket.Upgrader
	router   chi.Router

	mu     sync.Mutex
	http   *http.Server
	closed bool
}

type Option func(*Server)

// WithGatherer serves /metrics from g instead of the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithRequestTimeout bounds how long a request waits for the relay. Set
// it above the send chain's worst case (timeout, or retries with backoff)
// so that accepted commands report their real outcome instead of 202.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.timeout = d
	}
}

// WithCheckOrigin overrides the WebSocket origin check. The default accepts
// same-host origins only.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(s *Server) {
		s.upgrader.CheckOrigin = fn
	}
}

func New(logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		commands: make(chan relay.Command),
		codec:    codec.GetCodec(codec.CodecTypeJSON),
		logger:   logger,
		gatherer: prometheus.DefaultGatherer,
		timeout:  defaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Route("/v1", func(r chi.Router) {
		r.Get("/types", s.handleTypes)
		r.Post("/commands", s.handleCommand)
		r.Get("/ws", s.handleWS)
	})
	s.router = r
	return s
}

// Commands implements relay.Source. The channel is shared, so one relay
// should consume it.
func (s *Server) Commands(ctx context.Context) (<-chan relay.Command, error) {
	return s.commands, nil
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks until Shutdown; it then returns nil.
func (s *Server) ListenAndServe(addr string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.http = srv
	s.mu.Unlock()

	s.logger.Info("ingress listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the listener and waits for handlers until ctx is done.
// Open WebSocket connections are not tracked by http.Server and end when
// their next read fails.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	srv := s.http
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// submit waits for the relay's result for one decoded command.
func (s *Server) submit(ctx context.Context, id, origin string, data []byte) (int, error) {
	msg, err := s.codec.Decode(data)
	if err != nil {
		return http.StatusBadRequest, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	err = relay.Submit(ctx, s.commands, relay.Command{ID: id, Origin: origin, Message: msg})
	return StatusFor(err), err
}

// StatusFor maps a send result to an HTTP status.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusNoContent
	case errors.Is(err, broadcasterr.ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, broadcasterr.ErrTargetNotFound):
		return http.StatusNotFound
	case errors.Is(err, middleware.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, broadcasterr.ErrDeliveryFailed):
		return http.StatusBadGateway
	case errors.Is(err, middleware.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, relay.ErrOutcomeUnknown):
		// Taken and still sending; a retry would send it twice.
		return http.StatusAccepted
	}
	// Registration failure, shutdown, or no relay took the command.
	return http.StatusServiceUnavailable
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func newErrorBody(err error) errorBody {
	b := errorBody{Error: err.Error()}
	if k := broadcasterr.KindOf(err); k != 0 {
		b.Kind = k.String()
	}
	return b
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, codec.Types())
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxCommandBytes+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	if len(data) > maxCommandBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "command too large"})
		return
	}

	id := chimw.GetReqID(r.Context())
	status, err := s.submit(r.Context(), id, "http", data)
	if err != nil {
		s.logger.Debug("http command rejected", zap.String("id", id), zap.Int("status", status), zap.Error(err))
		writeJSON(w, status, newErrorBody(err))
		return
	}
	w.WriteHeader(status)
}
