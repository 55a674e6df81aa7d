package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
)

// Server runs one http.Server per Run call and stops it when the context ends.
type Server struct {
	set settings

	mu   sync.Mutex
	srv  *http.Server
	stop sync.Once
}

// New returns a Server with defaults overridden by opts.
func New(opts ...Option) *Server {
	set := settings{Config: defaultConfig(), logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&set)
	}
	return &Server{set: set}
}

// Run serves handler and blocks until ctx is cancelled or Shutdown is called.
// Signal handling belongs to the caller (signal.NotifyContext).
// Listen failures are wrapped with ErrStart.
func (s *Server) Run(ctx context.Context, handler http.Handler) error {
	if handler == nil {
		handler = http.NotFoundHandler()
	}
	log := s.set.logger

	s.mu.Lock()
	if s.srv != nil {
		s.mu.Unlock()
		return errors.Join(ErrStart, errors.New("server already running"))
	}
	srv := &http.Server{
		Addr:              s.set.Addr,
		Handler:           handler,
		ReadTimeout:       s.set.ReadTimeout,
		ReadHeaderTimeout: s.set.ReadHeaderTimeout,
		WriteTimeout:      s.set.WriteTimeout,
		IdleTimeout:       s.set.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(log.Handler(), slog.LevelWarn),
	}
	s.srv = srv
	s.mu.Unlock()

	for _, h := range s.set.onStart {
		h(log)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.Info("http server started", slog.String("addr", srv.Addr))

	var err error
	select {
	case <-ctx.Done():
		if serr := s.Shutdown(context.WithoutCancel(ctx)); serr != nil {
			log.Error("http server shutdown failed", slog.Any("error", serr))
		}
		err = <-errCh
	case err = <-errCh:
	}

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Join(ErrStart, err)
	}
	log.Info("http server stopped", slog.String("addr", srv.Addr))
	return nil
}

// Shutdown drains the running server within the shutdown timeout.
// Only the first call has an effect.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	var err error
	s.stop.Do(func() {
		ctx, cancel := context.WithTimeout(ctx, s.set.ShutdownTimeout)
		defer cancel()
		err = srv.Shutdown(ctx)
		for _, h := range s.set.onStop {
			h(s.set.logger)
		}
	})
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Join(ErrShutdown, err)
	}
	return nil
}
