package activity

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/clinicpro/dashboard-service/pkg/types"
	"github.com/stretchr/testify/assert"
)

// fakeClock is a manually advanced clock for deterministic guard tests
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func countingFetch(calls *int64, records []types.RawRecord, err error) FetchFunc {
	return func(ctx context.Context) ([]types.RawRecord, error) {
		atomic.AddInt64(calls, 1)
		return records, err
	}
}

func TestRefresh_ThrottleRespected(t *testing.T) {
	clock := newFakeClock()
	var calls int64
	c := NewCoordinator(CoordinatorConfig{
		Fetch: countingFetch(&calls, []types.RawRecord{{"id": "1"}}, nil),
		TTL:   60 * time.Second,
		Clock: clock.Now,
	})

	assert.NoError(t, c.Refresh(context.Background(), false))
	clock.Advance(10 * time.Second)
	assert.NoError(t, c.Refresh(context.Background(), false))

	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
}

func TestRefresh_TTLExpiryAllowsRefetch(t *testing.T) {
	clock := newFakeClock()
	var calls int64
	c := NewCoordinator(CoordinatorConfig{
		Fetch: countingFetch(&calls, nil, nil),
		TTL:   60 * time.Second,
		Clock: clock.Now,
	})

	assert.NoError(t, c.Refresh(context.Background(), false))
	clock.Advance(61 * time.Second)
	assert.NoError(t, c.Refresh(context.Background(), false))

	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))
}

func TestRefresh_ForceBypassesThrottle(t *testing.T) {
	clock := newFakeClock()
	var calls int64
	c := NewCoordinator(CoordinatorConfig{
		Fetch: countingFetch(&calls, nil, nil),
		TTL:   60 * time.Second,
		Clock: clock.Now,
	})

	assert.NoError(t, c.Refresh(context.Background(), false))
	assert.NoError(t, c.Refresh(context.Background(), true))

	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))
}

func TestRefresh_ThrottleOnlyAppliesAfterFirstSuccess(t *testing.T) {
	clock := newFakeClock()
	var calls int64
	failing := true
	c := NewCoordinator(CoordinatorConfig{
		Fetch: func(ctx context.Context) ([]types.RawRecord, error) {
			atomic.AddInt64(&calls, 1)
			if failing {
				return nil, errors.New("upstream down")
			}
			return []types.RawRecord{{"id": "1"}}, nil
		},
		TTL:   60 * time.Second,
		Clock: clock.Now,
	})

	assert.Error(t, c.Refresh(context.Background(), false))
	failing = false

	// A failed fetch never starts the TTL window
	assert.NoError(t, c.Refresh(context.Background(), false))
	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))
}

func TestRefresh_AtMostOneInFlight(t *testing.T) {
	gate := make(chan struct{})
	var calls int64
	c := NewCoordinator(CoordinatorConfig{
		Fetch: func(ctx context.Context) ([]types.RawRecord, error) {
			atomic.AddInt64(&calls, 1)
			<-gate
			return []types.RawRecord{{"id": "1"}}, nil
		},
		TTL: 60 * time.Second,
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.Refresh(context.Background(), true))
		}()
	}

	// Let the burst land before releasing the single outstanding fetch
	assert.Eventually(t, c.Loading, time.Second, time.Millisecond)
	close(gate)
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
	assert.False(t, c.Loading())
}

func TestRefresh_FailureKeepsLastGoodRecords(t *testing.T) {
	clock := newFakeClock()
	calls := 0
	c := NewCoordinator(CoordinatorConfig{
		Fetch: func(ctx context.Context) ([]types.RawRecord, error) {
			calls++
			if calls == 1 {
				return []types.RawRecord{{"id": "1"}, {"id": "2"}}, nil
			}
			return nil, errors.New("upstream down")
		},
		TTL:   60 * time.Second,
		Clock: clock.Now,
	})

	assert.NoError(t, c.Refresh(context.Background(), false))
	fetchedAt := c.Snapshot().LastFetchedAt

	clock.Advance(90 * time.Second)
	err := c.Refresh(context.Background(), false)

	var dashErr *types.DashboardError
	assert.Error(t, err)
	assert.ErrorAs(t, err, &dashErr)
	assert.Equal(t, types.ErrCodeActivityFetchFailed, dashErr.Code)

	snap := c.Snapshot()
	assert.Len(t, snap.Records, 2)
	assert.Equal(t, fetchedAt, snap.LastFetchedAt, "lastFetchedAt only advances on success")
	assert.False(t, snap.Loading, "guard released after failure")
}

func TestRefresh_NilFetchResultCachedAsEmpty(t *testing.T) {
	clock := newFakeClock()
	var calls int64
	c := NewCoordinator(CoordinatorConfig{
		Fetch: countingFetch(&calls, nil, nil),
		TTL:   60 * time.Second,
		Clock: clock.Now,
	})

	assert.NoError(t, c.Refresh(context.Background(), false))

	snap := c.Snapshot()
	assert.NotNil(t, snap.Records)
	assert.Empty(t, snap.Records)
}

func TestCacheAge_NeverFetched(t *testing.T) {
	c := NewCoordinator(CoordinatorConfig{
		Fetch: countingFetch(new(int64), nil, nil),
	})

	_, fetched := c.CacheAge()
	assert.False(t, fetched)
}

func TestCacheAge_AfterSuccess(t *testing.T) {
	clock := newFakeClock()
	c := NewCoordinator(CoordinatorConfig{
		Fetch: countingFetch(new(int64), nil, nil),
		Clock: clock.Now,
	})

	assert.NoError(t, c.Refresh(context.Background(), false))
	clock.Advance(30 * time.Second)

	age, fetched := c.CacheAge()
	assert.True(t, fetched)
	assert.Equal(t, 30*time.Second, age)
}
