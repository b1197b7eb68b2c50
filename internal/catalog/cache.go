package catalog

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/rkilchmn/openrouter-free-scanner/internal/logger"
	"github.com/rkilchmn/openrouter-free-scanner/internal/store/cache"
	"github.com/rkilchmn/openrouter-free-scanner/pkg/api"
)

const snapshotKey = "catalog:candidates"
const snapshotTTL = 24 * time.Hour

// Cache publishes the filtered, sorted candidate list. The list is swapped
// atomically on refresh; readers always see a complete list and never block.
// Order is significant: it is the failover priority.
type Cache struct {
	client   *Client
	criteria Criteria
	sortBy   string
	reverse  bool

	current   atomic.Pointer[[]api.Model]
	snapshots cache.Service
}

type CacheOption func(*Cache)

// WithSnapshotStore keeps a last-good copy of the candidate list in the
// given store so a restart survives a catalog outage.
func WithSnapshotStore(s cache.Service) CacheOption {
	return func(c *Cache) { c.snapshots = s }
}

func NewCache(client *Client, criteria Criteria, sortBy string, reverse bool, opts ...CacheOption) *Cache {
	c := &Cache{
		client:   client,
		criteria: criteria,
		sortBy:   sortBy,
		reverse:  reverse,
	}
	empty := []api.Model{}
	c.current.Store(&empty)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Current returns the latest published candidate list. Lock-free; the
// returned slice must be treated as read-only.
func (c *Cache) Current() []api.Model {
	return *c.current.Load()
}

// Refresh fetches the catalog, rebuilds the candidate list, and publishes
// it. On failure the previous list stays in effect and the error is
// returned to the caller.
func (c *Cache) Refresh(ctx context.Context) error {
	models, err := c.client.Fetch(ctx)
	if err != nil {
		return err
	}

	candidates := Select(models, c.criteria, c.sortBy, c.reverse)
	c.current.Store(&candidates)

	if c.snapshots != nil {
		if err := c.snapshots.Set(ctx, snapshotKey, candidates, snapshotTTL); err != nil {
			logger.Warn("failed to store catalog snapshot", zap.Error(err))
		}
	}

	logger.Info("candidate list refreshed", zap.Int("models", len(candidates)))
	return nil
}

// Bootstrap performs the initial load. If the live fetch fails and a
// snapshot store holds a previous candidate list, that list is published
// instead and the fetch error is swallowed.
func (c *Cache) Bootstrap(ctx context.Context) error {
	err := c.Refresh(ctx)
	if err == nil {
		return nil
	}

	if c.snapshots != nil {
		var candidates []api.Model
		if snapErr := c.snapshots.Get(ctx, snapshotKey, &candidates); snapErr == nil && len(candidates) > 0 {
			c.current.Store(&candidates)
			logger.Warn("catalog fetch failed, serving snapshot",
				zap.Int("models", len(candidates)), zap.Error(err))
			return nil
		}
	}
	return err
}

// Run refreshes the candidate list on the given interval until ctx is done.
func (c *Cache) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				logger.Warn("catalog refresh failed, keeping last-good list", zap.Error(err))
			}
		}
	}
}
