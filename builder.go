package goChatAuth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/MrEthical07/goChatAuth/api"
	"github.com/MrEthical07/goChatAuth/chat"
	internalaudit "github.com/MrEthical07/goChatAuth/internal/audit"
	"github.com/MrEthical07/goChatAuth/newsletter"
	"github.com/MrEthical07/goChatAuth/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles a [Client]. Configure it during initialization, call
// Build once, and discard it.
type Builder struct {
	config Config

	storage    session.Storage
	storageSet bool
	redis      redis.UniversalClient

	httpClient *http.Client
	logger     *slog.Logger
	auditSink  AuditSink
	now        func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithBaseURL is shorthand for setting Config.API.BaseURL.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.API.BaseURL = baseURL
	return b
}

// WithStorage installs an explicit durable mirror, overriding
// Config.Storage.Backend. Passing nil disables durable storage.
func (b *Builder) WithStorage(s session.Storage) *Builder {
	b.storage = s
	b.storageSet = true
	return b
}

// WithRedis selects Redis storage backed by client. The client stays owned
// by the caller.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	b.config.Storage.Backend = StorageRedis
	return b
}

// WithHTTPClient overrides the transport used for backend calls.
func (b *Builder) WithHTTPClient(c *http.Client) *Builder {
	b.httpClient = c
	return b
}

// WithLogger overrides the default stderr logger.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithAuditSink sets the audit destination and enables auditing.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = sink != nil
	return b
}

// WithMetricsEnabled toggles in-process metrics.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	if !enabled {
		b.config.Metrics.EnableLatencyHistograms = false
	}
	return b
}

// WithClock overrides the time source used for token expiry checks.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration and returns a ready Client. When
// Config.Restore.OnBuild is set, a mirrored session is restored before
// Build returns.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = newLogger(cfg.Log)
	}

	c := &Client{
		config:  cfg,
		state:   session.NewState(),
		logger:  logger,
		metrics: NewMetrics(cfg.Metrics),
		now:     b.now,
	}
	if c.now == nil {
		c.now = time.Now
	}

	apiClient, err := api.NewClient(api.Config{
		BaseURL:    cfg.API.BaseURL,
		Timeout:    cfg.API.Timeout,
		HTTPClient: b.httpClient,
		Logger:     logger,
		Observe:    c.observeCall,
	})
	if err != nil {
		return nil, err
	}
	c.api = apiClient

	storage, closeStorage, err := b.resolveStorage(cfg.Storage)
	if err != nil {
		return nil, err
	}
	c.storage = storage
	c.closeStorage = closeStorage

	c.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	c.chat = chat.New(apiClient, c.state)
	c.newsletter = newsletter.New(apiClient)
	c.flows = c.wireFlows()

	b.built = true

	if cfg.Restore.OnBuild {
		c.RestoreSession(context.Background())
	}

	return c, nil
}

// resolveStorage returns the durable mirror and, when the Client owns the
// underlying connection, a func that closes it.
func (b *Builder) resolveStorage(cfg StorageConfig) (session.Storage, func() error, error) {
	if b.storageSet {
		return b.storage, nil, nil
	}

	switch cfg.Backend {
	case StorageNone:
		return nil, nil, nil
	case StorageMemory:
		return session.NewMemoryStorage(), nil, nil
	case StorageRedis:
		if b.redis != nil {
			return session.NewRedisStorage(b.redis, cfg.Prefix, cfg.Namespace, cfg.TTL), nil, nil
		}
		if cfg.RedisAddr == "" {
			return nil, nil, errors.New("redis storage requires WithRedis or Storage.RedisAddr")
		}
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return session.NewRedisStorage(rdb, cfg.Prefix, cfg.Namespace, cfg.TTL), rdb.Close, nil
	default:
		return nil, nil, errors.New("unsupported storage backend")
	}
}
