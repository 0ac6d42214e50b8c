package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// EnvPrefix prefixes environment overrides, e.g. MINIHTTP_PORT=9090.
const EnvPrefix = "MINIHTTP"

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all application configuration.
type Config struct {
	Host            string        `config:"host"`
	Port            int           `config:"port"`
	ReadTimeout     time.Duration `config:"read_timeout"`
	WriteTimeout    time.Duration `config:"write_timeout"`
	IdleTimeout     time.Duration `config:"idle_timeout"`
	ShutdownTimeout time.Duration `config:"shutdown_timeout"`

	MaxConnections int   `config:"max_connections"`
	MaxHeaderBytes int   `config:"max_header_bytes"`
	MaxBodyBytes   int64 `config:"max_body_bytes"`

	// MethodNotAllowedStatus answers a known path with an unregistered
	// method: 405 or 404.
	MethodNotAllowedStatus int  `config:"method_not_allowed_status"`
	ReusePort              bool `config:"reuse_port"`

	CORS      bool `config:"cors"`
	RateLimit int  `config:"rate_limit"` // requests per second, 0 disables
	Stats     bool `config:"stats"`

	Env      string `config:"env"`
	LogLevel string `config:"log_level"`

	File string `config:"-"`
	// Overrides holds the values read from the file and the environment.
	Overrides map[string]any `config:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:                   8080,
		ReadTimeout:            10 * time.Second,
		WriteTimeout:           10 * time.Second,
		IdleTimeout:            5 * time.Second,
		ShutdownTimeout:        10 * time.Second,
		MaxHeaderBytes:         1 << 20,
		MaxBodyBytes:           32 << 20,
		MethodNotAllowedStatus: 405,
		Env:                    "development",
		LogLevel:               "info",
	}
}

// Load builds the configuration from defaults, command-line flags, the JSON
// file named by -config (or MINIHTTP_CONFIG) and MINIHTTP_* environment
// variables, in increasing order of precedence.
func Load(args []string) (*Config, error) {
	cfg := Default()

	fs := flag.NewFlagSet("minihttp", flag.ContinueOnError)
	cfg.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	m := NewManager()
	m.LoadFromEnv(EnvPrefix)
	if cfg.File == "" {
		cfg.File = m.GetString("config")
	}
	if cfg.File != "" {
		if err := m.LoadFromJSON(cfg.File); err != nil {
			return nil, err
		}
		// The environment wins over the file.
		m.LoadFromEnv(EnvPrefix)
	}
	if err := m.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	cfg.Overrides = m.GetAll()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RegisterFlags binds the configuration fields to fs.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Host, "host", c.Host, "Interface to bind (empty for all)")
	fs.IntVar(&c.Port, "port", c.Port, "HTTP server port")
	fs.DurationVar(&c.ReadTimeout, "read-timeout", c.ReadTimeout, "Time allowed to read one request")
	fs.DurationVar(&c.WriteTimeout, "write-timeout", c.WriteTimeout, "Time allowed to write one response")
	fs.DurationVar(&c.IdleTimeout, "idle-timeout", c.IdleTimeout, "Keep-alive idle timeout")
	fs.DurationVar(&c.ShutdownTimeout, "shutdown-timeout", c.ShutdownTimeout, "Graceful shutdown timeout")
	fs.IntVar(&c.MaxConnections, "max-connections", c.MaxConnections, "Maximum concurrent connections (0 = unbounded)")
	fs.IntVar(&c.MaxHeaderBytes, "max-header-bytes", c.MaxHeaderBytes, "Maximum size of a request head")
	fs.Int64Var(&c.MaxBodyBytes, "max-body-bytes", c.MaxBodyBytes, "Maximum request body size")
	fs.IntVar(&c.MethodNotAllowedStatus, "method-not-allowed-status", c.MethodNotAllowedStatus, "Status for a known path with the wrong method (404 or 405)")
	fs.BoolVar(&c.ReusePort, "reuse-port", c.ReusePort, "Set SO_REUSEPORT on the listener")
	fs.BoolVar(&c.CORS, "cors", c.CORS, "Add permissive CORS headers")
	fs.IntVar(&c.RateLimit, "rate-limit", c.RateLimit, "Requests per second across all clients (0 = off)")
	fs.BoolVar(&c.Stats, "stats", c.Stats, "Serve engine statistics at /debug/stats")
	fs.StringVar(&c.Env, "env", c.Env, "Environment (development/production)")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (trace, debug, info, warn, error)")
	fs.StringVar(&c.File, "config", c.File, "JSON configuration file")
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	for name, d := range map[string]time.Duration{
		"read_timeout":     c.ReadTimeout,
		"write_timeout":    c.WriteTimeout,
		"idle_timeout":     c.IdleTimeout,
		"shutdown_timeout": c.ShutdownTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", name, d))
		}
	}
	if c.MaxConnections < 0 {
		errs = append(errs, fmt.Errorf("max_connections must not be negative"))
	}
	if c.MaxHeaderBytes <= 0 {
		errs = append(errs, fmt.Errorf("max_header_bytes must be positive"))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("max_body_bytes must be positive"))
	}
	if c.MethodNotAllowedStatus != 404 && c.MethodNotAllowedStatus != 405 {
		errs = append(errs, fmt.Errorf("method_not_allowed_status must be 404 or 405, got %d", c.MethodNotAllowedStatus))
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("rate_limit must not be negative"))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Development reports whether the server runs in development mode.
func (c *Config) Development() bool {
	return c.Env == "development"
}
