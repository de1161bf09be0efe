package goChatAuth

import (
	"slices"
	"testing"
	"time"
)

func TestLintCleanConfig(t *testing.T) {
	cfg := validConfig()
	if got := cfg.Lint(); len(got) != 0 {
		t.Fatalf("expected no warnings, got %v", got.Codes())
	}
}

func TestLintCodes(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		wantCode string
		severity LintSeverity
	}{
		{"insecure base url", func(c *Config) { c.API.BaseURL = "http://chat.example.com" }, "insecure_base_url", LintWarn},
		{"long timeout", func(c *Config) { c.API.Timeout = 2 * time.Minute }, "timeout_long", LintInfo},
		{"short timeout", func(c *Config) { c.API.Timeout = 200 * time.Millisecond }, "timeout_short", LintWarn},
		{"restore without storage", func(c *Config) {
			c.Storage.Backend = StorageNone
			c.Restore.OnBuild = true
		}, "restore_without_storage", LintWarn},
		{"redis without ttl", func(c *Config) { c.Storage.Backend = StorageRedis }, "redis_ttl_unset", LintInfo},
		{"blocking audit", func(c *Config) {
			c.Audit.Enabled = true
			c.Audit.DropIfFull = false
		}, "audit_blocking", LintWarn},
		{"metrics off", func(c *Config) {
			c.Metrics.Enabled = false
			c.Metrics.EnableLatencyHistograms = false
		}, "metrics_disabled", LintInfo},
		{"debug logging", func(c *Config) { c.Log.Level = "debug" }, "debug_logging", LintInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			res := cfg.Lint()
			if !slices.Contains(res.Codes(), tt.wantCode) {
				t.Fatalf("expected %s in %v", tt.wantCode, res.Codes())
			}
			for _, w := range res {
				if w.Code == tt.wantCode && w.Severity != tt.severity {
					t.Fatalf("%s severity = %d, want %d", w.Code, w.Severity, tt.severity)
				}
			}
		})
	}
}

func TestLintLoopbackHTTPIsQuiet(t *testing.T) {
	for _, base := range []string{"http://localhost:8000", "http://127.0.0.1:8000", "http://[::1]:8000"} {
		cfg := validConfig()
		cfg.API.BaseURL = base
		if slices.Contains(cfg.Lint().Codes(), "insecure_base_url") {
			t.Fatalf("%s should not be flagged", base)
		}
	}
}
