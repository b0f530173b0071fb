package server

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

// DefaultListen is the fixed local port remote callers probe to decide
// whether a controller instance is already active.
const DefaultListen = "127.0.0.1:8421"

// Server runs the status service on a local port. Start and Stop are both
// idempotent: starting an already-listening server or stopping one that is
// not listening returns nil immediately.
type Server struct {
	mu       sync.Mutex
	addr     string
	basePath string
	src      StatusSource
	logger   *slog.Logger

	ln  net.Listener
	srv *http.Server
}

// New creates a stopped server. An empty addr uses DefaultListen.
func New(addr, basePath string, src StatusSource, logger *slog.Logger) *Server {
	if addr == "" {
		addr = DefaultListen
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{addr: addr, basePath: basePath, src: src, logger: logger}
}

// Start binds the listener and serves in the background. Returns nil without
// side effects when already listening.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           NewRouter(s.src, s.basePath).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.ln = ln
	s.srv = srv
	s.logger.Debug("status server listening", "addr", ln.Addr().String())
	go func() { _ = srv.Serve(ln) }()
	return nil
}

// Stop closes the listener and any open connections. Returns nil when not
// listening.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv == nil {
		return nil
	}
	err := s.srv.Close()
	s.srv = nil
	s.ln = nil
	return err
}

// Addr returns the bound address, or the configured one when not listening.
// Useful when the server was started on port 0.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}
