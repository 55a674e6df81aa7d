package httpserver

import "log/slog"

// Option adjusts a Server before it runs.
type Option func(*settings)

type settings struct {
	Config
	logger  *slog.Logger
	onStart []func(*slog.Logger)
	onStop  []func(*slog.Logger)
}

// WithConfig overrides the defaults with the non-zero fields of cfg.
func WithConfig(cfg Config) Option {
	return func(s *settings) { s.merge(cfg) }
}

// WithAddr sets the listen address. Empty keeps the current one.
func WithAddr(addr string) Option {
	return func(s *settings) { s.merge(Config{Addr: addr}) }
}

// WithLogger sets the logger for lifecycle events and net/http errors.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStartHook runs h right before the listener starts.
func WithStartHook(h func(*slog.Logger)) Option {
	return func(s *settings) {
		if h != nil {
			s.onStart = append(s.onStart, h)
		}
	}
}

// WithStopHook runs h once the server has shut down.
func WithStopHook(h func(*slog.Logger)) Option {
	return func(s *settings) {
		if h != nil {
			s.onStop = append(s.onStop, h)
		}
	}
}
