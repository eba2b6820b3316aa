package appointment

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/slot"
	apperrors "github.com/hackgods/clinic-scheduling/pkg/errors"
)

func TestBookingLockKey(t *testing.T) {
	id := uuid.MustParse("7b1f6c1e-4f39-4a53-9d0e-0c9a3c7a2b11")
	date := time.Date(2025, time.January, 1, 23, 30, 0, 0, time.UTC)

	assert.Equal(t, "booking:7b1f6c1e-4f39-4a53-9d0e-0c9a3c7a2b11:2025-01-01", BookingLockKey(id, date))
	assert.Equal(t, BookingLockKey(id, date), BookingLockKey(id, slot.DateOf(date)))
}

func TestLocalLockerSerialisesSameKey(t *testing.T) {
	l := NewLocalLocker(time.Second)

	var (
		inside  int32
		maxSeen int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.WithLock(context.Background(), "k", func(context.Context) error {
				n := atomic.AddInt32(&inside, 1)
				for {
					m := atomic.LoadInt32(&maxSeen)
					if n <= m || atomic.CompareAndSwapInt32(&maxSeen, m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen)
	assert.Empty(t, l.locks, "idle keys are released")
}

func TestLocalLockerTimesOutAsStoreUnavailable(t *testing.T) {
	l := NewLocalLocker(20 * time.Millisecond)

	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = l.WithLock(context.Background(), "k", func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	called := false
	err := l.WithLock(context.Background(), "k", func(context.Context) error {
		called = true
		return nil
	})
	close(release)

	require.Error(t, err)
	assert.True(t, apperrors.Retryable(err))
	assert.False(t, called)
}

func TestLocalLockerIndependentKeys(t *testing.T) {
	l := NewLocalLocker(50 * time.Millisecond)

	err := l.WithLock(context.Background(), "a", func(ctx context.Context) error {
		return l.WithLock(ctx, "b", func(context.Context) error { return nil })
	})
	assert.NoError(t, err)
}
