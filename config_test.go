package goChatAuth

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.API.BaseURL = "https://chat.example.com"
	return cfg
}

func TestDefaultConfigNeedsOnlyBaseURL(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("default config without BaseURL must not validate")
	}

	cfg = validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "empty base url", mutate: func(c *Config) { c.API.BaseURL = "  " }, wantErr: "BaseURL must be set"},
		{name: "relative base url", mutate: func(c *Config) { c.API.BaseURL = "/api" }, wantErr: "absolute http(s)"},
		{name: "unsupported scheme", mutate: func(c *Config) { c.API.BaseURL = "ftp://chat.example.com" }, wantErr: "absolute http(s)"},
		{name: "zero timeout", mutate: func(c *Config) { c.API.Timeout = 0 }, wantErr: "Timeout"},
		{name: "unknown storage", mutate: func(c *Config) { c.Storage.Backend = "sqlite" }, wantErr: "Storage Backend"},
		{name: "redis without prefix", mutate: func(c *Config) {
			c.Storage.Backend = StorageRedis
			c.Storage.Prefix = ""
		}, wantErr: "Prefix"},
		{name: "redis namespace whitespace", mutate: func(c *Config) {
			c.Storage.Backend = StorageRedis
			c.Storage.Namespace = "my site"
		}, wantErr: "Namespace"},
		{name: "negative ttl", mutate: func(c *Config) { c.Storage.TTL = -time.Second }, wantErr: "TTL"},
		{name: "audit without buffer", mutate: func(c *Config) {
			c.Audit.Enabled = true
			c.Audit.BufferSize = 0
		}, wantErr: "BufferSize"},
		{name: "latency without metrics", mutate: func(c *Config) { c.Metrics.Enabled = false }, wantErr: "EnableLatencyHistograms"},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "trace" }, wantErr: "Log Level"},
		{name: "bad log format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: "Log Format"},
		{name: "storage none", mutate: func(c *Config) { c.Storage.Backend = StorageNone }},
		{name: "redis defaults", mutate: func(c *Config) { c.Storage.Backend = StorageRedis }},
		{name: "plain http", mutate: func(c *Config) { c.API.BaseURL = "http://localhost:8000" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected valid config, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	if _, err := New().Build(); err == nil {
		t.Fatal("Build without BaseURL must fail")
	}

	cfg := validConfig()
	cfg.Storage.Backend = StorageRedis
	if _, err := New().WithConfig(cfg).Build(); err == nil {
		t.Fatal("redis storage without client or address must fail")
	}
}

func TestBuilderIsSingleUse(t *testing.T) {
	b := New().WithBaseURL("https://chat.example.com").WithStorage(nil)
	c, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer c.Close()

	if _, err := b.Build(); err == nil {
		t.Fatal("second Build must fail")
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv(EnvBaseURL, "https://chat.example.com")
	t.Setenv(EnvTimeout, "5s")
	t.Setenv(EnvStorage, "REDIS")
	t.Setenv(EnvRedisAddr, "127.0.0.1:6379")
	t.Setenv(EnvNamespace, "portfolio")
	t.Setenv(EnvStorageTTL, "24h")
	t.Setenv(EnvRestoreOnBuild, "true")
	t.Setenv(EnvAudit, "1")
	t.Setenv(EnvLogLevel, "DEBUG")
	t.Setenv(EnvLogFormat, "json")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv: %v", err)
	}
	if cfg.API.BaseURL != "https://chat.example.com" || cfg.API.Timeout != 5*time.Second {
		t.Fatalf("unexpected api config %+v", cfg.API)
	}
	if cfg.Storage.Backend != StorageRedis || cfg.Storage.RedisAddr != "127.0.0.1:6379" ||
		cfg.Storage.Namespace != "portfolio" || cfg.Storage.TTL != 24*time.Hour {
		t.Fatalf("unexpected storage config %+v", cfg.Storage)
	}
	if cfg.Storage.Prefix != "gca" {
		t.Fatalf("unset prefix should keep default, got %q", cfg.Storage.Prefix)
	}
	if !cfg.Restore.OnBuild || !cfg.Audit.Enabled {
		t.Fatal("expected restore and audit enabled")
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Fatalf("unexpected log config %+v", cfg.Log)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("env config should validate: %v", err)
	}
}

func TestConfigFromEnvMetricsOff(t *testing.T) {
	t.Setenv(EnvMetrics, "false")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv: %v", err)
	}
	if cfg.Metrics.Enabled || cfg.Metrics.EnableLatencyHistograms {
		t.Fatalf("metrics off must also disable histograms: %+v", cfg.Metrics)
	}
}

func TestConfigFromEnvMalformed(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{EnvTimeout, "soon"},
		{EnvStorageTTL, "forever"},
		{EnvAudit, "maybe"},
		{EnvRestoreOnBuild, "yes please"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := ConfigFromEnv(); err == nil || !strings.Contains(err.Error(), tt.key) {
				t.Fatalf("expected error naming %s, got %v", tt.key, err)
			}
		})
	}
}

func TestConfigFromEnvIgnoresBlank(t *testing.T) {
	t.Setenv(EnvStorage, "   ")
	t.Setenv(EnvTimeout, "")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv: %v", err)
	}
	def := DefaultConfig()
	if cfg.Storage.Backend != def.Storage.Backend || cfg.API.Timeout != def.API.Timeout {
		t.Fatalf("blank variables must keep defaults, got %+v", cfg)
	}
}
