package directory

import (
	"context"
	"sync"
	"time"

	"github.com/lheh1167/slack-pair-bot/pkg/domain/interfaces"
	"github.com/lheh1167/slack-pair-bot/pkg/domain/model"
	"github.com/lheh1167/slack-pair-bot/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/singleflight"
)

const snapshotKey = "snapshot"

// Cache holds the current directory snapshot and rebuilds it from the
// provider once it expires. Concurrent rebuilds are coalesced into a single
// provider call.
type Cache struct {
	provider interfaces.DirectoryProvider
	ttl      time.Duration
	now      func() time.Time

	mu       sync.RWMutex
	snapshot *model.DirectorySnapshot
	group    singleflight.Group
}

type Option func(*Cache)

// WithTTL sets how long a snapshot stays fresh
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

func NewCache(provider interfaces.DirectoryProvider, opts ...Option) *Cache {
	c := &Cache{
		provider: provider,
		ttl:      model.DefaultDirectoryTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// fresh returns the held snapshot if it has not expired
func (c *Cache) fresh() *model.DirectorySnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.snapshot != nil && !c.snapshot.IsExpired(c.now()) {
		return c.snapshot
	}
	return nil
}

// Get returns a snapshot that is fresh at the time of the call. Calls within
// the TTL return the same snapshot without touching the provider.
func (c *Cache) Get(ctx context.Context) (*model.DirectorySnapshot, error) {
	if s := c.fresh(); s != nil {
		return s, nil
	}
	return c.load(ctx, false)
}

// Refresh rebuilds the snapshot regardless of its age
func (c *Cache) Refresh(ctx context.Context) (*model.DirectorySnapshot, error) {
	return c.load(ctx, true)
}

func (c *Cache) load(ctx context.Context, force bool) (*model.DirectorySnapshot, error) {
	v, err, shared := c.group.Do(snapshotKey, func() (any, error) {
		// Double-check: another caller may have rebuilt it while we waited
		if !force {
			if s := c.fresh(); s != nil {
				return s, nil
			}
		}

		// Callers sharing this flight must not fail because the first one
		// was cancelled
		entries, err := c.provider.ListUsers(context.WithoutCancel(ctx))
		if err != nil {
			return nil, goerr.Wrap(ErrDirectoryUnavailable, "failed to list directory users",
				goerr.V("error", err))
		}

		snapshot := model.NewDirectorySnapshot(entries, c.now(), c.ttl)

		c.mu.Lock()
		c.snapshot = snapshot
		c.mu.Unlock()

		logging.From(ctx).Info("directory snapshot rebuilt",
			"entries", len(entries),
			"users", snapshot.Len(),
			"expires_at", snapshot.ExpiresAt(),
		)
		return snapshot, nil
	})
	if err != nil {
		return nil, err
	}

	if shared {
		logging.From(ctx).Debug("directory snapshot load was shared")
	}
	return v.(*model.DirectorySnapshot), nil
}

// Snapshot returns the held snapshot without fetching, or nil. The result
// may be expired.
func (c *Cache) Snapshot() *model.DirectorySnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Invalidate drops the held snapshot. The next Get rebuilds it.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = nil
}
