package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eternnoir/videocaps/pkg/config"
	"github.com/eternnoir/videocaps/pkg/logger"
	"github.com/eternnoir/videocaps/pkg/subtitle"
)

// maxBodyBytes bounds request bodies; a segment replacement for a long
// recording is the largest payload
const maxBodyBytes = 16 << 20

// Options configures a Server
type Options struct {
	Config  config.ServerConfig
	Export  subtitle.Options
	Format  subtitle.Format
	Version string
}

// Server exposes editing sessions over a JSON HTTP API
type Server struct {
	cfg      config.ServerConfig
	export   subtitle.Options
	format   subtitle.Format
	version  string
	manager  *Manager
	started  time.Time
	handler  http.Handler
	log      *logger.Logger
	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

// New creates a server over manager
func New(manager *Manager, opts Options) *Server {
	if opts.Format == "" {
		opts.Format = subtitle.FormatSRT
	}
	s := &Server{
		cfg:     opts.Config,
		export:  opts.Export,
		format:  opts.Format,
		version: opts.Version,
		manager: manager,
		started: time.Now(),
		log:     logger.WithComponent("server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	mux.HandleFunc("POST /api/sessions", s.handleOpenSession)
	mux.HandleFunc("GET /api/sessions/{id}", s.withSession(s.handleGetSession))
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleCloseSession)
	mux.HandleFunc("PUT /api/sessions/{id}/segments", s.withSession(s.handleReplaceSegments))
	mux.HandleFunc("POST /api/sessions/{id}/viewport", s.withSession(s.handleViewport))
	mux.HandleFunc("POST /api/sessions/{id}/pointer", s.withSession(s.handlePointer))
	mux.HandleFunc("POST /api/sessions/{id}/seek", s.withSession(s.handleSeek))
	mux.HandleFunc("POST /api/sessions/{id}/zoom", s.withSession(s.handleZoom))
	mux.HandleFunc("POST /api/sessions/{id}/play", s.withSession(s.handlePlay))
	mux.HandleFunc("POST /api/sessions/{id}/pause", s.withSession(s.handlePause))
	mux.HandleFunc("GET /api/sessions/{id}/export", s.withSession(s.handleExport))
	mux.HandleFunc("POST /api/sessions/{id}/burn", s.withSession(s.handleBurn))
	mux.HandleFunc("GET /api/sessions/{id}/edits", s.withSession(s.handleEdits))
	mux.HandleFunc("GET /api/sessions/{id}/insights", s.withSession(s.handleInsights))

	s.handler = s.logRequests(s.cors(mux))
	return s
}

// Handler returns the server's root handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured address and serves until ctx is done
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	s.mu.Lock()
	s.listener = listener
	s.server = srv
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("API server error")
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.log.Info().Str("address", listener.Addr().String()).Msg("API server listening")
	return nil
}

// Addr returns the address the server is listening on, once started
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the HTTP server down gracefully
func (s *Server) Stop() {
	s.mu.Lock()
	srv := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()
	if srv == nil {
		return
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Warn().Err(err).Msg("API server shutdown incomplete")
	}
	s.log.Info().Msg("API server stopped")
}

func (s *Server) cors(next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(s.cfg.CORSOrigins))
	for _, origin := range s.cfg.CORSOrigins {
		allowed[strings.TrimRight(origin, "/")] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (allowed["*"] || allowed[origin]) {
			h := w.Header()
			if allowed[origin] {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Add("Vary", "Origin")
			} else {
				// credentials are never granted to a wildcard origin
				h.Set("Access-Control-Allow-Origin", "*")
			}
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := uuid.NewString()
		log := s.log.WithField("request_id", reqID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		rec.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(rec, r.WithContext(logger.WithLogger(r.Context(), log)))

		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Warn().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// writeErr maps an error to its HTTP status
func (s *Server) writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidRequest):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %v", ErrInvalidRequest, err)
	}
	return nil
}
