package clinic_test

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/clinic"
	"github.com/hackgods/clinic-scheduling/internal/memstore"
	apperrors "github.com/hackgods/clinic-scheduling/pkg/errors"
)

// mapCache is a JSON cache over a map, mirroring the Redis cache.
type mapCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	failGet bool
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string][]byte)}
}

func (c *mapCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return errors.New("cache down")
	}
	raw, ok := c.entries[key]
	if !ok {
		return apperrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *mapCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *mapCache) DeleteByPattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(c.entries, key)
		}
	}
	return nil
}

type hitCounter struct {
	hits, misses int
}

func (h *hitCounter) ObserveCacheLookup(hit bool) {
	if hit {
		h.hits++
		return
	}
	h.misses++
}

func TestCachedDirectoryReadsThrough(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	cache := newMapCache()
	counter := &hitCounter{}
	dir := clinic.NewCachedDirectory(store, cache, time.Minute, zap.NewNop(), counter)

	saved, err := dir.SaveDoctor(ctx, clinic.Doctor{Name: "Dr. Strange"})
	require.NoError(t, err)

	first, err := dir.FindDoctor(ctx, saved.ID)
	require.NoError(t, err)
	second, err := dir.FindDoctor(ctx, saved.ID)
	require.NoError(t, err)

	assert.Equal(t, "Dr. Strange", first.Name)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, counter.hits)
	assert.Equal(t, 1, counter.misses)
}

func TestCachedDirectoryEvictsAllDoctorsOnWrite(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	cache := newMapCache()
	dir := clinic.NewCachedDirectory(store, cache, time.Minute, zap.NewNop(), nil)

	a, err := dir.SaveDoctor(ctx, clinic.Doctor{Name: "A"})
	require.NoError(t, err)
	b, err := dir.SaveDoctor(ctx, clinic.Doctor{Name: "B"})
	require.NoError(t, err)

	_, err = dir.FindDoctor(ctx, a.ID)
	require.NoError(t, err)
	_, err = dir.FindDoctor(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, cache.entries, 2)

	renamed := *a
	renamed.Name = "A2"
	_, err = dir.SaveDoctor(ctx, renamed)
	require.NoError(t, err)
	assert.Empty(t, cache.entries)

	got, err := dir.FindDoctor(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "A2", got.Name)

	require.NoError(t, dir.DeleteDoctor(ctx, a.ID))
	_, err = dir.FindDoctor(ctx, a.ID)
	assert.ErrorIs(t, err, clinic.ErrDoctorNotFound)
}

func TestCachedDirectoryFallsBackWhenCacheFails(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	cache := newMapCache()
	cache.failGet = true
	dir := clinic.NewCachedDirectory(store, cache, time.Minute, zap.NewNop(), nil)

	saved, err := store.SaveDoctor(ctx, clinic.Doctor{Name: "Dr. Who"})
	require.NoError(t, err)

	got, err := dir.FindDoctor(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Who", got.Name)

	_, err = dir.FindDoctor(ctx, uuid.New())
	assert.ErrorIs(t, err, clinic.ErrDoctorNotFound)
}

// racingDirectory runs onRead after the store read and before the caller
// fills the cache.
type racingDirectory struct {
	clinic.Directory
	onRead func()
}

func (r *racingDirectory) FindDoctor(ctx context.Context, id uuid.UUID) (*clinic.Doctor, error) {
	d, err := r.Directory.FindDoctor(ctx, id)
	if hook := r.onRead; hook != nil {
		r.onRead = nil
		hook()
	}
	return d, err
}

func TestCachedDirectoryDoesNotCacheDoctorDeletedMidLookup(t *testing.T) {
	ctx := context.Background()
	store := &racingDirectory{Directory: memstore.New()}
	cache := newMapCache()
	dir := clinic.NewCachedDirectory(store, cache, time.Minute, zap.NewNop(), nil)

	gone, err := dir.SaveDoctor(ctx, clinic.Doctor{Name: "Dr. Gone"})
	require.NoError(t, err)

	store.onRead = func() {
		require.NoError(t, dir.DeleteDoctor(ctx, gone.ID))
	}

	_, err = dir.FindDoctor(ctx, gone.ID)
	require.NoError(t, err)
	assert.Empty(t, cache.entries)

	_, err = dir.FindDoctor(ctx, gone.ID)
	assert.ErrorIs(t, err, clinic.ErrDoctorNotFound)
}
