package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"audiosurv/internal/alertstore"
	"audiosurv/internal/config"
	"audiosurv/internal/gateway"
	"audiosurv/internal/logging"
	"audiosurv/internal/persistence"
)

// openAnalysisBackend builds the analysis gateway. Tests replace it.
var openAnalysisBackend = gateway.Open

type commandContext struct {
	configFlag *string
	ephemeral  *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string, ephemeral *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		ephemeral:  ephemeral,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.ephemeral != nil && *c.ephemeral {
			cfg.Storage.Backend = config.StorageMemory
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// log returns the configured logger, falling back to stderr console output
// when the log file cannot be opened.
func (c *commandContext) log() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			logger, _ = logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
		}
		if logger == nil {
			logger = logging.NewNop()
		}
		c.logger = logger
	})
	return c.logger
}

// runtime holds the opened stores for one command invocation.
type runtime struct {
	cfg      *config.Config
	backend  persistence.Backend
	alerts   *alertstore.Store
	keywords *alertstore.KeywordStore
}

// openRuntime opens the persistence backend and loads both stores.
// onPersistError, when non-nil, observes background write failures.
func (c *commandContext) openRuntime(ctx context.Context, onPersistError func(string, error)) (*runtime, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	backend, err := persistence.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	opts := alertstore.Options{
		Backend:        backend,
		Logger:         c.log(),
		SeedDemoAlerts: cfg.Storage.SeedDemoAlerts,
		OnPersistError: onPersistError,
	}
	store := alertstore.New(opts)
	keywords := alertstore.NewKeywordStore(opts)
	rt := &runtime{cfg: cfg, backend: backend, alerts: store, keywords: keywords}
	if err := store.Load(ctx); err != nil {
		_ = rt.close(ctx)
		return nil, fmt.Errorf("load alerts: %w", err)
	}
	if err := keywords.Load(ctx); err != nil {
		_ = rt.close(ctx)
		return nil, fmt.Errorf("load keywords: %w", err)
	}
	return rt, nil
}

// close flushes pending writes and releases the backend.
func (r *runtime) close(ctx context.Context) error {
	if r == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	var errs []error
	if err := r.alerts.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("flush alerts: %w", err))
	}
	if err := r.keywords.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("flush keywords: %w", err))
	}
	if err := r.backend.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close storage: %w", err))
	}
	return errors.Join(errs...)
}

func (c *commandContext) openGateway(ctx context.Context) (*gateway.Backend, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return openAnalysisBackend(ctx, cfg)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
