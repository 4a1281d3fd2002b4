package activity

import (
	"context"
	"sync"
	"time"

	"github.com/clinicpro/dashboard-service/pkg/logger"
	"github.com/clinicpro/dashboard-service/pkg/monitoring"
	"github.com/clinicpro/dashboard-service/pkg/types"
)

// FetchFunc retrieves the current activity-log records from the upstream
// service. A non-list upstream payload must be returned as an empty slice,
// not an error.
type FetchFunc func(ctx context.Context) ([]types.RawRecord, error)

// Coordinator owns the cached activity-log records and bounds how often the
// upstream service is hit: at most one fetch in flight at any time, and at
// most one non-forced fetch per TTL window after the first success. The
// clock and fetch function are injected so the guards are testable without
// timers or a network.
type Coordinator struct {
	fetch   FetchFunc
	clock   func() time.Time
	ttl     time.Duration
	logger  *logger.Logger
	metrics *monitoring.MetricsCollector

	mu            sync.Mutex
	records       []types.RawRecord
	lastFetchedAt time.Time
	fetched       bool
	inFlight      bool
}

// CoordinatorConfig holds the coordinator configuration
type CoordinatorConfig struct {
	Fetch   FetchFunc
	TTL     time.Duration
	Clock   func() time.Time
	Logger  *logger.Logger
	Metrics *monitoring.MetricsCollector
}

// DefaultTTL is the staleness budget for non-forced refreshes
const DefaultTTL = 60 * time.Second

// NewCoordinator creates a new fetch coordinator
func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Coordinator{
		fetch:   cfg.Fetch,
		clock:   clock,
		ttl:     ttl,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}
}

// Refresh refreshes the cached activity-log records. A call that observes an
// outstanding fetch returns immediately without side effects; it is not
// queued, and the outstanding fetch's result lands as authoritative. A
// non-forced call inside the TTL window after a successful fetch is likewise
// a no-op. force bypasses the TTL guard but never the in-flight guard.
//
// On failure the cache keeps its last-good records, lastFetchedAt does not
// advance, and the error is returned as a non-fatal upstream error. The
// in-flight guard is released on every exit path.
func (c *Coordinator) Refresh(ctx context.Context, force bool) error {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		c.recordSkip("in_flight")
		return nil
	}

	now := c.clock()
	if !force && c.fetched && now.Sub(c.lastFetchedAt) < c.ttl {
		c.mu.Unlock()
		c.recordSkip("throttled")
		return nil
	}

	c.inFlight = true
	c.mu.Unlock()

	records, err := c.fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false

	if err != nil {
		if c.logger != nil {
			c.logger.WithComponent("activity-coordinator").WithError(err).Warn("Activity refresh failed, serving last-good cache")
		}
		return types.NewUpstreamError(types.ErrCodeActivityFetchFailed, "failed to refresh activity log", err)
	}

	if records == nil {
		records = []types.RawRecord{}
	}
	c.records = records
	c.lastFetchedAt = c.clock()
	c.fetched = true

	if c.metrics != nil {
		c.metrics.RecordCacheSize(len(records))
	}
	if c.logger != nil {
		c.logger.WithComponent("activity-coordinator").WithFields(map[string]interface{}{
			"records": len(records),
			"forced":  force,
		}).Debug("Activity cache refreshed")
	}

	return nil
}

// Snapshot returns the cached records together with the loading flag. The
// returned slice is a copy; callers may not observe later refreshes through
// it.
func (c *Coordinator) Snapshot() types.ActivitySnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	records := make([]types.RawRecord, len(c.records))
	copy(records, c.records)

	return types.ActivitySnapshot{
		Records:       records,
		LastFetchedAt: c.lastFetchedAt,
		Loading:       c.inFlight,
	}
}

// Loading reports whether a fetch is currently outstanding
func (c *Coordinator) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// CacheAge returns how long ago the cache was last successfully refreshed.
// The boolean is false when no fetch has ever succeeded.
func (c *Coordinator) CacheAge() (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.fetched {
		return 0, false
	}
	return c.clock().Sub(c.lastFetchedAt), true
}

func (c *Coordinator) recordSkip(reason string) {
	if c.metrics != nil {
		c.metrics.RecordRefreshSkip(reason)
	}
}
