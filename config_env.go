package goChatAuth

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variables read by [ConfigFromEnv].
const (
	EnvBaseURL        = "CHATAUTH_BASE_URL"
	EnvTimeout        = "CHATAUTH_TIMEOUT"
	EnvStorage        = "CHATAUTH_STORAGE"
	EnvRedisAddr      = "CHATAUTH_REDIS_ADDR"
	EnvRedisPrefix    = "CHATAUTH_REDIS_PREFIX"
	EnvNamespace      = "CHATAUTH_NAMESPACE"
	EnvStorageTTL     = "CHATAUTH_STORAGE_TTL"
	EnvRestoreOnBuild = "CHATAUTH_RESTORE_ON_BUILD"
	EnvAudit          = "CHATAUTH_AUDIT"
	EnvMetrics        = "CHATAUTH_METRICS"
	EnvLogLevel       = "CHATAUTH_LOG_LEVEL"
	EnvLogFormat      = "CHATAUTH_LOG_FORMAT"
)

// ConfigFromEnv overlays CHATAUTH_* variables on the default configuration.
// Unset variables keep their defaults; malformed values are an error. The
// result is not validated.
func ConfigFromEnv() (Config, error) {
	cfg := defaultConfig()

	if v, ok := lookup(EnvBaseURL); ok {
		cfg.API.BaseURL = v
	}
	if err := envDuration(EnvTimeout, &cfg.API.Timeout); err != nil {
		return Config{}, err
	}

	if v, ok := lookup(EnvStorage); ok {
		cfg.Storage.Backend = StorageBackend(strings.ToLower(v))
	}
	if v, ok := lookup(EnvRedisAddr); ok {
		cfg.Storage.RedisAddr = v
	}
	if v, ok := lookup(EnvRedisPrefix); ok {
		cfg.Storage.Prefix = v
	}
	if v, ok := lookup(EnvNamespace); ok {
		cfg.Storage.Namespace = v
	}
	if err := envDuration(EnvStorageTTL, &cfg.Storage.TTL); err != nil {
		return Config{}, err
	}

	if err := envBool(EnvRestoreOnBuild, &cfg.Restore.OnBuild); err != nil {
		return Config{}, err
	}
	if err := envBool(EnvAudit, &cfg.Audit.Enabled); err != nil {
		return Config{}, err
	}
	if err := envBool(EnvMetrics, &cfg.Metrics.Enabled); err != nil {
		return Config{}, err
	}
	if !cfg.Metrics.Enabled {
		cfg.Metrics.EnableLatencyHistograms = false
	}

	if v, ok := lookup(EnvLogLevel); ok {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v, ok := lookup(EnvLogFormat); ok {
		cfg.Log.Format = strings.ToLower(v)
	}

	return cfg, nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func envDuration(key string, dst *time.Duration) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func envBool(key string, dst *bool) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}
