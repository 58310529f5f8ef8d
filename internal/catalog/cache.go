package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"nvrgraph/internal/logging"
)

type cacheFile struct {
	Source   string    `json:"source"`
	CachedAt time.Time `json:"cached_at"`
	Elements []Element `json:"elements"`
}

// CachedSource persists the listing of another source to a JSON file and
// serves it until the TTL expires. Writers serialize on a sibling lock file so
// concurrent renders never observe a torn cache.
type CachedSource struct {
	inner   Source
	path    string
	ttl     time.Duration
	refresh bool
	logger  *slog.Logger
	now     func() time.Time
}

// CacheOption configures a CachedSource.
type CacheOption func(*CachedSource)

// WithRefresh forces the wrapped source to be queried even when the cache is fresh.
func WithRefresh(refresh bool) CacheOption {
	return func(c *CachedSource) {
		c.refresh = refresh
	}
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) CacheOption {
	return func(c *CachedSource) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCachedSource wraps inner. A non-positive ttl or empty path disables caching.
func NewCachedSource(inner Source, path string, ttl time.Duration, logger *slog.Logger, opts ...CacheOption) *CachedSource {
	c := &CachedSource{
		inner:  inner,
		path:   path,
		ttl:    ttl,
		logger: logging.NewComponentLogger(logger, "catalog-cache"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name reports the wrapped source's name.
func (c *CachedSource) Name() string {
	return c.inner.Name()
}

// Elements serves the cached listing when fresh, otherwise queries the wrapped
// source and rewrites the cache.
func (c *CachedSource) Elements(ctx context.Context) ([]Element, error) {
	if c.path == "" || c.ttl <= 0 {
		return c.inner.Elements(ctx)
	}

	if !c.refresh {
		cached, err := c.read()
		switch {
		case err != nil:
			logging.WarnWithContext(c.logger, "failed to read element cache", "catalog_cache_read_failed",
				logging.Error(err),
				logging.String("path", c.path),
				logging.String(logging.FieldErrorHint, "delete the cache file if it keeps failing"),
				logging.String(logging.FieldImpact, "element listing will be probed again"),
			)
		case cached != nil && cached.Source == c.inner.Name() && c.now().Sub(cached.CachedAt) < c.ttl:
			c.logger.Debug("using cached element listing",
				logging.String("path", c.path),
				logging.Int("element_count", len(cached.Elements)),
			)
			return cached.Elements, nil
		}
	}

	elements, err := c.inner.Elements(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.write(ctx, elements); err != nil {
		logging.WarnWithContext(c.logger, "failed to write element cache", "catalog_cache_write_failed",
			logging.Error(err),
			logging.String("path", c.path),
			logging.String(logging.FieldErrorHint, "check permissions on the cache directory"),
			logging.String(logging.FieldImpact, "next render will probe elements again"),
		)
	}
	return elements, nil
}

func (c *CachedSource) read() (*cacheFile, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cache file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var cached cacheFile
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("parse cache file: %w", err)
	}
	return &cached, nil
}

func (c *CachedSource) write(ctx context.Context, elements []Element) error {
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	lock := flock.New(c.path + ".lock")
	locked, err := lock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return fmt.Errorf("lock cache: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock cache: %s is held by another process", lock.Path())
	}
	defer func() {
		_ = lock.Unlock()
	}()

	data, err := json.MarshalIndent(cacheFile{
		Source:   c.inner.Name(),
		CachedAt: c.now().UTC(),
		Elements: elements,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
