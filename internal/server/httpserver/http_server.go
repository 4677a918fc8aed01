// Package httpserver exposes the rendered document over a loopback HTTP
// endpoint. It only ever reads the document state; rendering happens in the
// watcher.
package httpserver

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/grup/internal/config"
	"git.home.luguber.info/inful/grup/internal/document"
	gruperrors "git.home.luguber.info/inful/grup/internal/errors"
	"git.home.luguber.info/inful/grup/internal/logfields"
	"git.home.luguber.info/inful/grup/internal/metrics"
	smw "git.home.luguber.info/inful/grup/internal/server/middleware"
)

// VersionHeader carries the snapshot version on every document response so
// clients can poll /updates against the exact version they are looking at.
const VersionHeader = "X-Grup-Version"

// Server serves the preview page, the staleness-check endpoint, and the
// bundled stylesheet.
type Server struct {
	cfg      *config.Config
	state    *document.State
	recorder metrics.Recorder
	registry *prom.Registry

	errorAdapter *gruperrors.HTTPErrorAdapter
	mchain       func(http.Handler) http.Handler

	httpServer *http.Server
	listener   net.Listener
}

// New constructs the HTTP server wiring. registry may be nil to disable the
// /metrics endpoint; recorder may be a NoopRecorder.
func New(cfg *config.Config, state *document.State, recorder metrics.Recorder, registry *prom.Registry) *Server {
	s := &Server{
		cfg:          cfg,
		state:        state,
		recorder:     recorder,
		registry:     registry,
		errorAdapter: gruperrors.NewHTTPErrorAdapter(slog.Default()),
	}
	s.mchain = smw.Chain(slog.Default(), s.errorAdapter)
	return s
}

// Handler returns the fully wired handler (routes plus middleware chain).
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.instrument("/", s.handleRoot))
	mux.HandleFunc("/updates", s.instrument("/updates", s.handleUpdates))
	mux.HandleFunc("/style.css", s.instrument("/style.css", s.handleStylesheet))
	mux.HandleFunc("/healthz", s.instrument("/healthz", s.handleHealthz))
	if s.registry != nil {
		mux.Handle("/metrics", metrics.HTTPHandler(s.registry))
	}
	return s.mchain(mux)
}

// Start pre-binds the listener so a busy port surfaces as a fatal startup
// error instead of a log line from a background goroutine.
func (s *Server) Start(ctx context.Context) error {
	addr := s.cfg.ListenAddr()
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return gruperrors.BindError(addr, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("preview server error", logfields.Error(err))
		}
	}()

	slog.Info("preview server listening",
		logfields.Address(s.Addr()), slog.String("url", "http://"+s.Addr()))
	return nil
}

// Addr returns the bound listen address, or the configured one before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.cfg.ListenAddr()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	slog.Info("preview server stopped")
	return nil
}

// instrument records per-route request counts by final status code.
func (s *Server) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(sw, r)
		s.recorder.IncHTTPRequest(route, sw.statusCode)
	}
}

type statusWriter struct {
	http.ResponseWriter
	statusCode int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.statusCode = code
	sw.ResponseWriter.WriteHeader(code)
}
