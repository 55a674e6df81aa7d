package httpserver

import "time"

// Config is the env-loaded server configuration. Zero fields keep the defaults.
type Config struct {
	Addr              string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"10s"`
	WriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout   time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

func defaultConfig() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 10 * time.Second,
		ShutdownTimeout:   5 * time.Second,
	}
}

// merge copies the non-zero fields of o into c.
func (c *Config) merge(o Config) {
	if o.Addr != "" {
		c.Addr = o.Addr
	}
	for _, d := range []struct {
		dst *time.Duration
		src time.Duration
	}{
		{&c.ReadTimeout, o.ReadTimeout},
		{&c.ReadHeaderTimeout, o.ReadHeaderTimeout},
		{&c.WriteTimeout, o.WriteTimeout},
		{&c.IdleTimeout, o.IdleTimeout},
		{&c.ShutdownTimeout, o.ShutdownTimeout},
	} {
		if d.src > 0 {
			*d.dst = d.src
		}
	}
}

// NewFromConfig creates a Server from cfg; opts are applied afterwards.
func NewFromConfig(cfg Config, opts ...Option) *Server {
	return New(append([]Option{WithConfig(cfg)}, opts...)...)
}
