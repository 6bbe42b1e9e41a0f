package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/riglink/pkg/rig"
	"github.com/matzehuels/riglink/pkg/store"
)

// requestLogger logs one line per request at info level, or at warn level
// for server errors.
func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			fn := logger.Info
			if ww.Status() >= http.StatusInternalServerError {
				fn = logger.Warn
			}
			fn("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"took", time.Since(start).Round(time.Microsecond),
				"id", middleware.GetReqID(r.Context()))
		})
	}
}

// Server wraps the Handler with an http.Server for lifecycle management.
type Server struct {
	server   *http.Server
	listener net.Listener
	logger   *log.Logger
}

// ServerConfig configures the API server.
type ServerConfig struct {
	// Addr is the address to listen on, e.g. "127.0.0.1:8427". Port 0
	// picks a free port.
	Addr   string
	Scenes *store.Scenes
	Runner *rig.Runner
	Logger *log.Logger

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewServer binds the listener and builds the server. Call Start to serve.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 60 * time.Second
	}

	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	}

	h := NewHandler(cfg.Scenes, cfg.Runner, cfg.Logger)
	return &Server{
		listener: listener,
		logger:   cfg.Logger,
		server: &http.Server{
			Handler:           h.Routes(),
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      cfg.WriteTimeout,
		},
	}, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Start serves until Stop is called. It returns nil after a graceful stop.
func (s *Server) Start() error {
	s.logger.Info("serving API", "addr", s.Addr())
	if err := s.server.Serve(s.listener); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping API server")
	return s.server.Shutdown(ctx)
}
