// Package config provides centralized configuration management for the server
// and the terminal client. It loads configuration from environment variables
// with sensible defaults and validates all settings on startup to fail fast on
// misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Grid     GridConfig
	Client   ClientConfig
	Export   ExportConfig
	Rate     RateLimitConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 0 for streamed exports)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`

	// TrustedProxies lists proxy CIDRs whose X-Real-IP/X-Forwarded-For headers
	// are believed (comma-separated, default: none)
	TrustedProxies []string `env:"SERVER_TRUSTED_PROXIES"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required by the server only)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 20)
	MaxConns int `env:"DB_MAX_CONNS" default:"20"`

	// MinConns is the minimum number of connections to keep open (default: 4)
	MinConns int `env:"DB_MIN_CONNS" default:"4"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// GridConfig holds table engine settings shared by the server (page size
// limits) and the client (cache, debounce, cancellation).
type GridConfig struct {
	// DefaultPageSize is the page size when none is requested (default: 25)
	DefaultPageSize int `env:"GRID_DEFAULT_PAGE_SIZE" default:"25"`

	// MaxPageSize caps requested page sizes (default: 500)
	MaxPageSize int `env:"GRID_MAX_PAGE_SIZE" default:"500"`

	// CacheMaxSize is the number of query results kept per table (default: 50)
	CacheMaxSize int `env:"GRID_CACHE_MAX_SIZE" default:"50"`

	// CacheTTL is how long a cached result stays fresh (default: 5m)
	CacheTTL time.Duration `env:"GRID_CACHE_TTL" default:"5m"`

	// DebounceWait is the quiet period for free-text filters and search (default: 300ms)
	DebounceWait time.Duration `env:"GRID_DEBOUNCE_WAIT" default:"300ms"`

	// SuppressCancel keeps superseded requests running instead of aborting them (default: false)
	SuppressCancel bool `env:"GRID_SUPPRESS_CANCEL" default:"false"`

	// Development logs full detail for malformed data source responses (default: false)
	Development bool `env:"GRID_DEVELOPMENT" default:"false"`
}

// ClientConfig holds settings for the terminal client's data source.
type ClientConfig struct {
	// BaseURL is the table server to query (default: http://localhost:8080)
	BaseURL string `env:"CLIENT_BASE_URL" default:"http://localhost:8080"`

	// Timeout bounds a single request; 0 disables it (default: 30s)
	Timeout time.Duration `env:"CLIENT_TIMEOUT" default:"30s"`

	// ExportDir is where CSV exports are written (default: .)
	ExportDir string `env:"CLIENT_EXPORT_DIR" default:"."`

	// LogFile receives client logs so they do not draw over the terminal UI
	LogFile string `env:"TABLECTL_LOG_FILE" default:"tablectl.log"`
}

// ExportConfig holds CSV export settings.
type ExportConfig struct {
	// MaxConcurrent is the maximum number of parallel exports (default: 3)
	MaxConcurrent int `env:"EXPORT_MAX_CONCURRENT" default:"3"`

	// MaxWaitTime is how long to wait for an export slot (default: 30s)
	MaxWaitTime time.Duration `env:"EXPORT_MAX_WAIT_TIME" default:"30s"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 300)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"300"`

	// ExportLimit is requests per minute for export requests (default: 10)
	ExportLimit int `env:"RATE_LIMIT_EXPORT" default:"10"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
