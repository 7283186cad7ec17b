// Package config handles TOML configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	toml "github.com/pelletier/go-toml/v2"
)

// DefaultOrigin is the backend origin used when none is configured.
const DefaultOrigin = "http://localhost:3000"

// configSearchPaths lists paths checked in order when no explicit config is given.
var configSearchPaths = []string{
	"/etc/rankings-proxy/config.toml",
	"configs/config.toml",
}

// reservedRoutes are path prefixes owned by the proxy's own handlers.
var reservedRoutes = []string{"/api", "/login", "/healthz", "/proxy/status"}

// CLI holds command-line arguments parsed by Kong.
type CLI struct {
	Config   string           `kong:"short='c',help='Path to TOML config file.',env='CONFIG_PATH'"`
	Host     string           `kong:"help='Listen host (overrides config).',env='HOST'"`
	Port     int              `kong:"short='p',help='Listen port (overrides config).',env='PORT'"`
	Backend  string           `kong:"help='Backend origin URL (overrides config).',env='BACKEND_ORIGIN'"`
	LogLevel string           `kong:"help='Log level: debug|info|warn|error (overrides config).',env='LOG_LEVEL'"`
	Version  kong.VersionFlag `kong:"help='Print version and exit.'"`
}

// Config is the top-level application configuration. The json tags mirror
// the TOML keys so validation errors name the keys users actually write.
type Config struct {
	Server  ServerConfig  `toml:"server" json:"server"`
	Backend BackendConfig `toml:"backend" json:"backend"`
	Log     LogConfig     `toml:"log" json:"log"`
	Metrics MetricsConfig `toml:"metrics" json:"metrics"`
	Tracing TracingConfig `toml:"tracing" json:"tracing"`

	filePath string // resolved config file path (unexported)
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host          string          `toml:"host" json:"host"`
	Port          int             `toml:"port" json:"port"` // 0 means "use default" (8000)
	BodyMaxBytes  int64           `toml:"body_max_bytes" json:"body_max_bytes"`
	ProxyProtocol bool            `toml:"proxy_protocol" json:"proxy_protocol"`
	RateLimit     RateLimitConfig `toml:"rate_limit" json:"rate_limit"`
}

// RateLimitConfig controls per-IP request rate limiting.
type RateLimitConfig struct {
	Enabled           bool    `toml:"enabled" json:"enabled"`
	RequestsPerSecond float64 `toml:"requests_per_second" json:"requests_per_second"`
}

// BackendConfig describes the single backend service every request goes to.
type BackendConfig struct {
	Origin          string `toml:"origin" json:"origin"`
	LoginPath       string `toml:"login_path" json:"login_path"`
	TimeoutSeconds  int    `toml:"timeout_seconds" json:"timeout_seconds"`
	IdleConnections int    `toml:"idle_connections" json:"idle_connections"`
	// RewriteHost sends the backend's own host as Host instead of the caller's.
	RewriteHost bool `toml:"rewrite_host" json:"rewrite_host"`
	// StripHopByHop removes hop-by-hop headers before forwarding.
	StripHopByHop bool `toml:"strip_hop_by_hop" json:"strip_hop_by_hop"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level" json:"level"`
	Format string `toml:"format" json:"format"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled"`
	Path    string `toml:"path" json:"path"`
}

// TracingConfig toggles OpenTelemetry span export.
type TracingConfig struct {
	Enabled bool `toml:"enabled" json:"enabled"`
}

// Load reads the TOML config file (if any) and applies CLI overrides.
// When no explicit path is given (via --config or CONFIG_PATH), it searches
// /etc/rankings-proxy/config.toml then configs/config.toml. Running without
// a config file is allowed; defaults and CLI flags are used instead.
func Load(cli *CLI) (*Config, error) {
	var cfg Config

	path := cli.Config
	if path == "" {
		path = findConfig()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg.filePath = path
	}

	cfg.applyCLI(cli)
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// applyCLI overrides config values with non-zero CLI flags.
func (c *Config) applyCLI(cli *CLI) {
	if cli.Host != "" {
		c.Server.Host = cli.Host
	}
	if cli.Port != 0 {
		c.Server.Port = cli.Port
	}
	if cli.Backend != "" {
		c.Backend.Origin = cli.Backend
	}
	if cli.LogLevel != "" {
		c.Log.Level = cli.LogLevel
	}
}

// setDefaults fills zero-valued fields with sensible defaults.
// For integer fields zero means "unset" because TOML cannot distinguish an
// explicit 0 from an omitted key.
func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.BodyMaxBytes == 0 {
		c.Server.BodyMaxBytes = 10 * 1024 * 1024 // 10 MiB
	}
	if c.Backend.Origin == "" {
		c.Backend.Origin = DefaultOrigin
	}
	c.Backend.Origin = strings.TrimRight(c.Backend.Origin, "/")
	if c.Backend.LoginPath == "" {
		c.Backend.LoginPath = "/login"
	}
	if c.Backend.TimeoutSeconds == 0 {
		c.Backend.TimeoutSeconds = 120
	}
	if c.Backend.IdleConnections == 0 {
		c.Backend.IdleConnections = 100
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// Validate checks every section and reports all offending keys at once.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Server),
		validation.Field(&c.Backend),
		validation.Field(&c.Log),
		validation.Field(&c.Metrics),
	)
}

// Validate implements validation.Validatable.
func (s ServerConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Port, validation.Min(0), validation.Max(65535)),
		validation.Field(&s.BodyMaxBytes, validation.Min(int64(0))),
		validation.Field(&s.RateLimit),
	)
}

// Validate implements validation.Validatable.
func (r RateLimitConfig) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RequestsPerSecond,
			validation.When(r.Enabled,
				validation.Required.Error("must be > 0 when rate limiting is enabled"),
				validation.Min(0.0).Exclusive(),
			),
		),
	)
}

// Validate implements validation.Validatable.
func (b BackendConfig) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.Origin, validation.Required, validation.By(validateOrigin)),
		validation.Field(&b.LoginPath, validation.Required, validation.By(validateAbsPath)),
		validation.Field(&b.TimeoutSeconds, validation.Min(0)),
		validation.Field(&b.IdleConnections, validation.Min(0)),
	)
}

// Validate implements validation.Validatable.
func (l LogConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.By(lowerIn("debug", "info", "warn", "error"))),
		validation.Field(&l.Format, validation.By(lowerIn("json", "text"))),
	)
}

// Validate implements validation.Validatable. The path is only checked when
// metrics are enabled.
func (m MetricsConfig) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Path,
			validation.When(m.Enabled, validation.By(validateAbsPath), validation.By(validateNotReserved)),
		),
	)
}

func validateOrigin(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("must use http or https; got %q", s)
	}
	if u.Host == "" {
		return errors.New("must include a host")
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return errors.New("must not contain a query or fragment")
	}
	return nil
}

func validateAbsPath(value any) error {
	s, _ := value.(string)
	if s != "" && s[0] != '/' {
		return fmt.Errorf("must start with '/'; got %q", s)
	}
	return nil
}

func validateNotReserved(value any) error {
	p, _ := value.(string)
	for _, reserved := range reservedRoutes {
		if p == reserved || strings.HasPrefix(p, reserved+"/") {
			return fmt.Errorf("%q conflicts with reserved route %q", p, reserved)
		}
	}
	return nil
}

// lowerIn is validation.In with case-insensitive matching; empty is accepted.
func lowerIn(allowed ...string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}
		for _, a := range allowed {
			if strings.ToLower(s) == a {
				return nil
			}
		}
		return fmt.Errorf("must be one of: %s; got %q", strings.Join(allowed, ", "), s)
	}
}

// findConfig returns the first config path that exists, or empty string.
func findConfig() string {
	return findConfigInPaths(configSearchPaths)
}

// findConfigInPaths returns the first path that exists on disk, or empty string.
func findConfigInPaths(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Addr returns the server listen address as host:port.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoginURL returns the absolute backend URL probed by the login redirector.
func (b *BackendConfig) LoginURL() string {
	return b.Origin + b.LoginPath
}

// WarnPermissions logs a warning if the config file is readable by group or others.
func (c *Config) WarnPermissions(logger *slog.Logger) {
	if c.filePath == "" {
		return
	}
	info, err := os.Stat(c.filePath)
	if err != nil {
		return
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		logger.Warn("config file is readable by group/others; consider chmod 600",
			"path", c.filePath,
			"mode", fmt.Sprintf("%04o", perm),
		)
	}
}
