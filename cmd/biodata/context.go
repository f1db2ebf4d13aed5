package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"github.com/joseph-ayodele/biodata-tracker/internal/common"
	"github.com/joseph-ayodele/biodata-tracker/internal/extract"
	"github.com/joseph-ayodele/biodata-tracker/internal/extract/openai"
	"github.com/joseph-ayodele/biodata-tracker/internal/extract/vertex"
	"github.com/joseph-ayodele/biodata-tracker/internal/repository"
	"github.com/joseph-ayodele/biodata-tracker/internal/server"
	"github.com/joseph-ayodele/biodata-tracker/internal/storage"
)

type commandContext struct {
	logLevel *string

	configOnce sync.Once
	config     *common.Config
	configErr  error
	logger     *slog.Logger
}

func newCommandContext(logLevel *string) *commandContext {
	return &commandContext{logLevel: logLevel}
}

func (c *commandContext) ensureConfig() (*common.Config, error) {
	c.configOnce.Do(func() {
		cfg, err := common.LoadConfig()
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevel != nil && strings.TrimSpace(*c.logLevel) != "" {
			cfg.Log.Level = *c.logLevel
		}
		c.config = cfg
		c.logger = common.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)
		slog.SetDefault(c.logger)
	})
	return c.config, c.configErr
}

func (c *commandContext) log() *slog.Logger {
	if c.logger == nil {
		return slog.Default()
	}
	return c.logger
}

// openDB opens the profile store. A SQLite file is locked for the lifetime
// of the returned handle so two processes never write it at once.
func (c *commandContext) openDB(ctx context.Context) (*repository.DB, func(), error) {
	cfg := c.config
	logger := c.log()

	var lock *flock.Flock
	if cfg.Database.Driver == "sqlite" && cfg.Database.DSN != ":memory:" {
		lockPath := sqlitePath(cfg.Database.DSN) + ".lock"
		lock = flock.New(lockPath)
		ok, err := lock.TryLock()
		if err != nil {
			return nil, nil, fmt.Errorf("acquire database lock: %w", err)
		}
		if !ok {
			return nil, nil, fmt.Errorf("database %s is in use by another process (lock %s)", cfg.Database.DSN, lockPath)
		}
	}
	unlock := func() {
		if lock == nil {
			return
		}
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release database lock", "error", err)
		}
	}

	db, err := server.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		unlock()
		return nil, nil, err
	}
	return db, func() {
		server.CloseDB(db, logger)
		unlock()
	}, nil
}

// sqlitePath strips a file: scheme and query parameters from a SQLite DSN.
func sqlitePath(dsn string) string {
	p := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	return p
}

// newExtractor builds the configured provider behind the shared rate limiter.
func (c *commandContext) newExtractor(ctx context.Context) (extract.Extractor, func(), error) {
	cfg := c.config
	logger := c.log()

	var (
		base    extract.Extractor
		closeFn = func() {}
	)
	switch cfg.Extract.Provider {
	case "openai":
		base = openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
			MaxPages:    cfg.Extract.MaxPages,
		}, logger)
	case "vertex":
		client, err := vertex.NewClient(ctx, vertex.Config{
			Project:  cfg.Vertex.Project,
			Location: cfg.Vertex.Location,
			Model:    cfg.Vertex.Model,
			MaxPages: cfg.Extract.MaxPages,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		base = client
		closeFn = func() { closeQuietly(client, logger) }
	case "static":
		base = extract.Static{MaxPages: cfg.Extract.MaxPages}
	default:
		return nil, nil, fmt.Errorf("unsupported extraction provider %q", cfg.Extract.Provider)
	}
	logger.Info("extractor ready", "provider", cfg.Extract.Provider, "rpm", cfg.Extract.RPM, "burst", cfg.Extract.Burst)
	return extract.NewLimited(base, cfg.Extract.RPM, cfg.Extract.Burst), closeFn, nil
}

func (c *commandContext) newStore(ctx context.Context) (storage.Store, func(), error) {
	cfg := c.config
	logger := c.log()
	switch cfg.Storage.Backend {
	case "gcs":
		g, err := storage.NewGCS(ctx, cfg.Storage.Bucket, cfg.Storage.Prefix, logger)
		if err != nil {
			return nil, nil, err
		}
		return g, func() { closeQuietly(g, logger) }, nil
	default:
		l, err := storage.NewLocal(cfg.Storage.Dir, logger)
		if err != nil {
			return nil, nil, err
		}
		return l, func() {}, nil
	}
}

func closeQuietly(c io.Closer, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Warn("close failed", "error", err)
	}
}
