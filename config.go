package goChatAuth

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/goChatAuth/api"
)

// Config is the full client configuration. Build it with [DefaultConfig] or
// [ConfigFromEnv] and adjust fields before passing it to [Builder.WithConfig].
type Config struct {
	API     APIConfig
	Storage StorageConfig
	Restore RestoreConfig
	Audit   AuditConfig
	Metrics MetricsConfig
	Log     LogConfig
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig points the client at the chat backend.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

/*
====================================
STORAGE CONFIG
====================================
*/

// StorageBackend selects the durable mirror of the session identifiers.
type StorageBackend string

const (
	// StorageNone disables durable storage; RestoreSession always reports false.
	StorageNone StorageBackend = "none"
	// StorageMemory keeps the mirror in process memory.
	StorageMemory StorageBackend = "memory"
	// StorageRedis mirrors into Redis under Prefix:Namespace:key.
	StorageRedis StorageBackend = "redis"
)

// StorageConfig configures the durable session mirror.
type StorageConfig struct {
	Backend   StorageBackend
	RedisAddr string
	Prefix    string
	Namespace string
	// TTL bounds how long mirrored keys survive in Redis. Zero keeps them
	// until logout.
	TTL time.Duration
}

/*
====================================
RESTORE CONFIG
====================================
*/

// RestoreConfig controls what happens to a mirrored session at startup.
type RestoreConfig struct {
	// OnBuild runs RestoreSession once during Build.
	OnBuild bool
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the async lifecycle audit trail.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig toggles in-process counters and the backend latency histogram.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
LOG CONFIG
====================================
*/

// LogConfig shapes the default logger. It is ignored when a logger is
// supplied through [Builder.WithLogger].
type LogConfig struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "text" or "json"
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		API: APIConfig{
			Timeout: api.DefaultTimeout,
		},
		Storage: StorageConfig{
			Backend:   StorageMemory,
			Prefix:    "gca",
			Namespace: "default",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

func cloneConfig(cfg Config) Config {
	return cfg
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	// API
	base := strings.TrimSpace(c.API.BaseURL)
	if base == "" {
		return errors.New("API BaseURL must be set")
	}
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("API BaseURL must be an absolute http(s) URL")
	}
	if c.API.Timeout <= 0 {
		return errors.New("API Timeout must be > 0")
	}

	// Storage
	switch c.Storage.Backend {
	case StorageNone, StorageMemory:
	case StorageRedis:
		if strings.TrimSpace(c.Storage.Prefix) == "" {
			return errors.New("Storage Prefix must be set for redis")
		}
		if strings.ContainsAny(c.Storage.Namespace, " \t\n") {
			return errors.New("Storage Namespace must not contain whitespace")
		}
	default:
		return errors.New("Storage Backend must be 'none', 'memory' or 'redis'")
	}
	if c.Storage.TTL < 0 {
		return errors.New("Storage TTL must be >= 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	// Log
	if _, ok := parseLevel(c.Log.Level); !ok {
		return errors.New("Log Level must be 'debug', 'info', 'warn' or 'error'")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New("Log Format must be 'text' or 'json'")
	}

	return nil
}
