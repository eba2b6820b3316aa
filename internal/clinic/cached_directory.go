package clinic

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/hackgods/clinic-scheduling/pkg/errors"
)

const doctorKeyPattern = "doctor:*"

// Cache is the keyed JSON cache the directory reads through.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type CacheObserver interface {
	ObserveCacheLookup(hit bool)
}

// CachedDirectory serves doctor lookups from a cache and drops every cached
// doctor whenever any doctor is saved or deleted. Cache failures are logged
// and fall back to the underlying store.
//
// A lookup that overlapped a write in this process does not fill the cache, so
// a doctor deleted mid-lookup is not cached again after the eviction.
type CachedDirectory struct {
	Directory
	cache    Cache
	ttl      time.Duration
	logger   *zap.Logger
	observer CacheObserver

	writes atomic.Uint64
}

func NewCachedDirectory(next Directory, cache Cache, ttl time.Duration, logger *zap.Logger, observer CacheObserver) *CachedDirectory {
	return &CachedDirectory{
		Directory: next,
		cache:     cache,
		ttl:       ttl,
		logger:    logger,
		observer:  observer,
	}
}

func doctorKey(id uuid.UUID) string {
	return fmt.Sprintf("doctor:%s", id)
}

func (c *CachedDirectory) FindDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	key := doctorKey(id)

	var cached Doctor
	err := c.cache.Get(ctx, key, &cached)
	switch {
	case err == nil:
		c.observe(true)
		return &cached, nil
	case !errors.Is(err, apperrors.ErrCacheMiss):
		c.logger.Warn("doctor cache read failed", zap.String("key", key), zap.Error(err))
	}
	c.observe(false)

	seen := c.writes.Load()
	doctor, err := c.Directory.FindDoctor(ctx, id)
	if err != nil {
		return nil, err
	}

	if c.writes.Load() != seen {
		return doctor, nil
	}
	if err := c.cache.Set(ctx, key, doctor, c.ttl); err != nil {
		c.logger.Warn("doctor cache write failed", zap.String("key", key), zap.Error(err))
	}
	return doctor, nil
}

func (c *CachedDirectory) SaveDoctor(ctx context.Context, d Doctor) (*Doctor, error) {
	saved, err := c.Directory.SaveDoctor(ctx, d)
	if err != nil {
		return nil, err
	}
	c.evict(ctx, "save")
	return saved, nil
}

func (c *CachedDirectory) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	if err := c.Directory.DeleteDoctor(ctx, id); err != nil {
		return err
	}
	c.evict(ctx, "delete")
	return nil
}

func (c *CachedDirectory) evict(ctx context.Context, action string) {
	c.writes.Add(1)
	if err := c.cache.DeleteByPattern(ctx, doctorKeyPattern); err != nil {
		c.logger.Warn("doctor cache eviction failed", zap.String("action", action), zap.Error(err))
		return
	}
	c.logger.Debug("doctor cache evicted", zap.String("action", action))
}

func (c *CachedDirectory) observe(hit bool) {
	if c.observer != nil {
		c.observer.ObserveCacheLookup(hit)
	}
}
