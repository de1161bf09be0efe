package goChatAuth

import (
	"net"
	"net/url"
	"time"
)

// LintSeverity ranks a lint warning.
type LintSeverity int

const (
	LintInfo LintSeverity = iota
	LintWarn
)

// LintWarning is one advisory finding about a valid but questionable config.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintResult is the list of findings returned by [Config.Lint].
type LintResult []LintWarning

// Codes returns the warning codes in order.
func (r LintResult) Codes() []string {
	out := make([]string, 0, len(r))
	for _, w := range r {
		out = append(out, w.Code)
	}
	return out
}

// Lint reports settings that pass Validate but are likely mistakes. It never
// fails; callers decide whether warnings matter.
func (c Config) Lint() LintResult {
	var out LintResult
	add := func(code string, sev LintSeverity, msg string) {
		out = append(out, LintWarning{Code: code, Severity: sev, Message: msg})
	}

	if u, err := url.Parse(c.API.BaseURL); err == nil && u.Scheme == "http" && !isLoopback(u.Hostname()) {
		add("insecure_base_url", LintWarn, "bearer tokens will cross the network in clear text")
	}
	if c.API.Timeout > time.Minute {
		add("timeout_long", LintInfo, "API Timeout above one minute delays fallback sign-in")
	}
	if c.API.Timeout > 0 && c.API.Timeout < time.Second {
		add("timeout_short", LintWarn, "API Timeout below one second will fail on slow networks")
	}

	if c.Restore.OnBuild && c.Storage.Backend == StorageNone {
		add("restore_without_storage", LintWarn, "Restore OnBuild has no effect without durable storage")
	}
	if c.Storage.Backend == StorageRedis && c.Storage.TTL == 0 {
		add("redis_ttl_unset", LintInfo, "mirrored sessions stay in Redis until logout")
	}

	if c.Audit.Enabled && !c.Audit.DropIfFull {
		add("audit_blocking", LintWarn, "a slow audit sink will block lifecycle calls")
	}
	if !c.Metrics.Enabled {
		add("metrics_disabled", LintInfo, "metrics exporters will report nothing")
	}
	if lvl, _ := parseLevel(c.Log.Level); lvl < 0 {
		add("debug_logging", LintInfo, "debug logs include user ids")
	}

	return out
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
