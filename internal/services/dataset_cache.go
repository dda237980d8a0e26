package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"investcli/internal/config"
	apperrors "investcli/internal/errors"
	"investcli/internal/infrastructure"
	"investcli/pkg/contracts/domain"
)

// DatasetLoader reads and types a canonical file.
type DatasetLoader func(ctx context.Context, path string) (*domain.CanonicalTable, error)

// datasetKey identifies one version of a file. A rewrite changes the size or
// modification time, so stale tables are never served.
type datasetKey struct {
	Path    string
	Size    int64
	ModTime int64
}

func (k datasetKey) String() string {
	return fmt.Sprintf("%s|%d|%d", k.Path, k.Size, k.ModTime)
}

// DatasetCache keeps recently loaded canonical tables in memory. Concurrent
// misses for the same file version share one load. Cached tables are shared
// between callers and must not be modified.
type DatasetCache struct {
	entries *lru.Cache[datasetKey, *domain.CanonicalTable]
	group   singleflight.Group
	load    DatasetLoader
	enabled bool
	metrics *infrastructure.BusinessMetrics
	logger  *slog.Logger
}

// NewDatasetCache creates a cache of cfg.Size tables. With caching disabled
// every Get loads from disk, still collapsing concurrent loads.
func NewDatasetCache(cfg config.CacheConfig, load DatasetLoader, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) (*DatasetCache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	size := cfg.Size
	if size <= 0 {
		size = 1
	}
	entries, err := lru.New[datasetKey, *domain.CanonicalTable](size)
	if err != nil {
		return nil, fmt.Errorf("create dataset cache: %w", err)
	}
	return &DatasetCache{
		entries: entries,
		load:    load,
		enabled: cfg.Enabled,
		metrics: metrics,
		logger:  logger.With(slog.String("component", "dataset_cache")),
	}, nil
}

// Get returns the table stored at path, loading it on a miss.
func (c *DatasetCache) Get(ctx context.Context, path string) (*domain.CanonicalTable, error) {
	key, err := c.keyFor(path)
	if err != nil {
		return nil, err
	}

	if c.enabled {
		if table, ok := c.entries.Get(key); ok {
			infrastructure.RecordCacheLookup(ctx, c.metrics, true)
			return table, nil
		}
		infrastructure.RecordCacheLookup(ctx, c.metrics, false)
	}

	// The shared load outlives any single caller; each caller only stops
	// waiting when its own ctx is done.
	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key.String(), func() (any, error) {
		start := time.Now()
		table, err := c.load(loadCtx, key.Path)
		infrastructure.RecordDatasetLoad(loadCtx, c.metrics, time.Since(start), err)
		if err != nil {
			return nil, err
		}
		if c.enabled {
			c.Invalidate(key.Path)
			c.entries.Add(key, table)
		}
		c.logger.InfoContext(loadCtx, "dataset loaded",
			slog.String("path", key.Path),
			slog.Int("records", table.Len()),
			slog.Duration("duration", time.Since(start)))
		return table, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.DebugContext(ctx, "dataset load shared", slog.String("path", key.Path))
		}
		return res.Val.(*domain.CanonicalTable), nil
	}
}

func (c *DatasetCache) keyFor(path string) (datasetKey, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return datasetKey{}, apperrors.NewStorageError("resolve dataset path", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return datasetKey{}, apperrors.NewNotFoundError("dataset", fmt.Errorf("%w: %s", ErrDatasetNotFound, abs)).
				WithContext("path", abs)
		}
		return datasetKey{}, apperrors.NewStorageError("stat dataset", err).WithContext("path", abs)
	}
	if info.IsDir() {
		return datasetKey{}, apperrors.NewNotFoundError("dataset", fmt.Errorf("%w: %s is a directory", ErrDatasetNotFound, abs))
	}
	return datasetKey{Path: abs, Size: info.Size(), ModTime: info.ModTime().UnixNano()}, nil
}

// Invalidate drops every cached version of path and reports how many were
// removed.
func (c *DatasetCache) Invalidate(path string) int {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	removed := 0
	for _, k := range c.entries.Keys() {
		if k.Path == abs && c.entries.Remove(k) {
			removed++
		}
	}
	return removed
}

// Purge empties the cache.
func (c *DatasetCache) Purge() {
	c.entries.Purge()
}

// Len returns the number of cached tables.
func (c *DatasetCache) Len() int {
	return c.entries.Len()
}
