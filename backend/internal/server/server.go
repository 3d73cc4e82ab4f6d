package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultPort            = 9876
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 5 * time.Second
	DefaultMaxHeaderBytes  = 1 << 20
)

// Server runs the host until its context is cancelled.
type Server interface {
	// Serve blocks until ctx is done, then shuts down gracefully.
	// Returns nil after a clean shutdown.
	Serve(ctx context.Context) error

	// IsRunning reports whether the listener is bound and accepting.
	IsRunning() bool

	// Addr is the bound address while running, empty otherwise.
	Addr() string
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type Option func(*server)

type server struct {
	mux             *http.ServeMux
	port            int
	readTimeout     time.Duration
	writeTimeout    time.Duration
	idleTimeout     time.Duration
	shutdownTimeout time.Duration
	maxHeaderBytes  int
	errLog          *log.Logger
	tlsConfig       *TLSConfig
	log             *slog.Logger

	mu      sync.RWMutex
	running bool
	addr    string
}

func WithPort(port int) Option {
	return func(s *server) { s.port = port }
}

func WithReadTimeout(d time.Duration) Option {
	return func(s *server) { s.readTimeout = d }
}

func WithWriteTimeout(d time.Duration) Option {
	return func(s *server) { s.writeTimeout = d }
}

func WithIdleTimeout(d time.Duration) Option {
	return func(s *server) { s.idleTimeout = d }
}

// WithShutdownTimeout bounds how long in-flight requests get after ctx is cancelled.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *server) { s.shutdownTimeout = d }
}

func WithMaxHeaderBytes(n int) Option {
	return func(s *server) { s.maxHeaderBytes = n }
}

func WithHandler(pattern string, handler http.Handler) Option {
	return func(s *server) { s.mux.Handle(pattern, handler) }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *server) { s.log = l }
}

func WithErrorLog(l *log.Logger) Option {
	return func(s *server) { s.errLog = l }
}

func WithTLS(cfg TLSConfig) Option {
	return func(s *server) { s.tlsConfig = &cfg }
}

func New(opts ...Option) Server {
	s := &server{
		port:            DefaultPort,
		readTimeout:     DefaultReadTimeout,
		writeTimeout:    DefaultWriteTimeout,
		idleTimeout:     DefaultIdleTimeout,
		shutdownTimeout: DefaultShutdownTimeout,
		maxHeaderBytes:  DefaultMaxHeaderBytes,
		mux:             http.NewServeMux(),
		log:             slog.Default(),
		errLog:          log.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.log.Info("server initialized",
		"port", s.port,
		"read_timeout", s.readTimeout,
		"write_timeout", s.writeTimeout,
		"tls", s.tlsConfig != nil)

	return s
}

func (s *server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

func (s *server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", s.port),
		Handler:        s.mux,
		ReadTimeout:    s.readTimeout,
		WriteTimeout:   s.writeTimeout,
		IdleTimeout:    s.idleTimeout,
		MaxHeaderBytes: s.maxHeaderBytes,
		ErrorLog:       s.errLog,
	}

	listener, err := s.listen(srv.Addr)
	if err != nil {
		return err
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.setRunning(true, listener.Addr().String())
		defer s.setRunning(false, "")

		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		s.log.Info("shutting down server", "grace_period", s.shutdownTimeout)
		start := time.Now()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error("server shutdown error", "error", err)
		}
		s.log.Info("server shutdown complete", "duration", time.Since(start))
		return nil
	})

	return g.Wait()
}

func (s *server) listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to create listener: %w", err)
	}
	if s.tlsConfig == nil {
		s.log.Info("starting server", "addr", ln.Addr().String())
		return ln, nil
	}

	cert, err := tls.LoadX509KeyPair(s.tlsConfig.CertFile, s.tlsConfig.KeyFile)
	if err != nil {
		ln.Close()
		return nil, fmt.Errorf("failed to load TLS certificate: %w", err)
	}
	s.log.Info("starting TLS server", "addr", ln.Addr().String())
	return tls.NewListener(ln, &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}), nil
}

func (s *server) setRunning(running bool, addr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = running
	s.addr = addr
}
