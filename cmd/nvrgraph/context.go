package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"nvrgraph/internal/catalog"
	"nvrgraph/internal/config"
	"nvrgraph/internal/failures"
	"nvrgraph/internal/history"
	"nvrgraph/internal/logging"
	"nvrgraph/internal/pipeline"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = failures.Wrap(failures.ErrConfiguration, "config", "load", "", err)
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
			if err := cfg.Validate(); err != nil {
				c.configErr = failures.Wrap(failures.ErrConfiguration, "config", "load", "", err)
				return
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
	})
	return c.config, c.configErr
}

// loggerFor returns the process logger, falling back to a nop logger when
// configuration failed to load.
func (c *commandContext) loggerFor() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

// catalogSource builds the element source selected by catalog.source, wrapped
// in the on-disk cache when enabled.
func (c *commandContext) catalogSource(cfg *config.Config, refresh bool) (catalog.Source, error) {
	var src catalog.Source
	switch cfg.Catalog.Source {
	case config.CatalogSourceStatic:
		return catalog.NewStaticSource(cfg.Catalog.Elements), nil
	case config.CatalogSourceInspect:
		src = catalog.NewInspectSource(cfg.InspectorBinary())
	case config.CatalogSourceRegistry:
		src = catalog.NewRegistrySource(pipeline.CandidateElements())
	default:
		return nil, failures.Wrap(failures.ErrConfiguration, "catalog", "select source",
			fmt.Sprintf("unknown catalog.source %q", cfg.Catalog.Source), nil)
	}
	if !cfg.CacheEnabled() {
		return src, nil
	}
	ttl := time.Duration(cfg.Catalog.CacheTTLSeconds) * time.Second
	return catalog.NewCachedSource(src, cfg.Paths.CatalogCache, ttl, c.loggerFor(), catalog.WithRefresh(refresh)), nil
}

func (c *commandContext) loadCatalog(ctx context.Context, cfg *config.Config, refresh bool) (*catalog.Catalog, error) {
	src, err := c.catalogSource(cfg, refresh)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	c.loggerFor().Debug("element catalog loaded",
		logging.String(logging.FieldComponent, "catalog"),
		logging.String("source", src.Name()),
		logging.Int("element_count", cat.Len()),
	)
	return cat, nil
}

func (c *commandContext) withHistory(ctx context.Context, fn func(*history.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(ctx, cfg.Paths.HistoryDB)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
