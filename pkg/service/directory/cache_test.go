package directory_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lheh1167/slack-pair-bot/pkg/domain/model"
	"github.com/lheh1167/slack-pair-bot/pkg/service/directory"
	"github.com/m-mizutani/gt"
)

type mockProvider struct {
	listUsers     func(ctx context.Context) ([]*model.DirectoryEntry, error)
	lookupByEmail func(ctx context.Context, email string) (*model.DirectoryEntry, error)
	calls         atomic.Int32
}

func (m *mockProvider) ListUsers(ctx context.Context) ([]*model.DirectoryEntry, error) {
	m.calls.Add(1)
	return m.listUsers(ctx)
}

func (m *mockProvider) LookupByEmail(ctx context.Context, email string) (*model.DirectoryEntry, error) {
	if m.lookupByEmail == nil {
		return nil, nil
	}
	return m.lookupByEmail(ctx, email)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
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

func staticEntries() []*model.DirectoryEntry {
	return []*model.DirectoryEntry{
		{ID: "U1", Handle: "alice", RealName: "Alice"},
		{ID: "U2", Handle: "bob", RealName: "Bob"},
		{ID: "B1", Handle: "bot", IsAutomated: true},
	}
}

func TestCache_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("calls within ttl reuse the snapshot", func(t *testing.T) {
		clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
		provider := &mockProvider{listUsers: func(ctx context.Context) ([]*model.DirectoryEntry, error) {
			return staticEntries(), nil
		}}
		cache := directory.NewCache(provider, directory.WithTTL(10*time.Minute), directory.WithClock(clock.Now))

		first, err := cache.Get(ctx)
		gt.NoError(t, err).Required()
		gt.Number(t, first.Len()).Equal(2)

		clock.Advance(9 * time.Minute)
		second, err := cache.Get(ctx)
		gt.NoError(t, err).Required()

		gt.Value(t, second).Equal(first)
		gt.Number(t, provider.calls.Load()).Equal(1)
	})

	t.Run("expired snapshot is rebuilt", func(t *testing.T) {
		clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
		provider := &mockProvider{listUsers: func(ctx context.Context) ([]*model.DirectoryEntry, error) {
			return staticEntries(), nil
		}}
		cache := directory.NewCache(provider, directory.WithTTL(10*time.Minute), directory.WithClock(clock.Now))

		first, err := cache.Get(ctx)
		gt.NoError(t, err).Required()

		clock.Advance(10 * time.Minute)
		second, err := cache.Get(ctx)
		gt.NoError(t, err).Required()

		gt.Number(t, provider.calls.Load()).Equal(2)
		gt.Bool(t, second.FetchedAt().After(first.FetchedAt())).True()
	})

	t.Run("concurrent misses are coalesced", func(t *testing.T) {
		release := make(chan struct{})
		provider := &mockProvider{listUsers: func(ctx context.Context) ([]*model.DirectoryEntry, error) {
			<-release
			return staticEntries(), nil
		}}
		cache := directory.NewCache(provider)

		var wg sync.WaitGroup
		results := make([]*model.DirectorySnapshot, 10)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				s, err := cache.Get(ctx)
				gt.NoError(t, err)
				results[i] = s
			}(i)
		}

		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		gt.Number(t, provider.calls.Load()).Equal(1)
		for _, s := range results {
			gt.Value(t, s).Equal(results[0])
		}
	})

	t.Run("cancelled first caller does not fail the shared load", func(t *testing.T) {
		entered := make(chan struct{})
		release := make(chan struct{})
		provider := &mockProvider{listUsers: func(ctx context.Context) ([]*model.DirectoryEntry, error) {
			close(entered)
			<-release
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return staticEntries(), nil
		}}
		cache := directory.NewCache(provider)

		firstCtx, cancel := context.WithCancel(ctx)
		firstDone := make(chan error, 1)
		go func() {
			_, err := cache.Get(firstCtx)
			firstDone <- err
		}()
		<-entered

		secondDone := make(chan error, 1)
		var second *model.DirectorySnapshot
		go func() {
			var err error
			second, err = cache.Get(ctx)
			secondDone <- err
		}()
		time.Sleep(20 * time.Millisecond)

		cancel()
		close(release)

		gt.NoError(t, <-firstDone)
		gt.NoError(t, <-secondDone).Required()
		gt.Number(t, second.Len()).Equal(2)
		gt.Number(t, provider.calls.Load()).Equal(1)
	})

	t.Run("provider failure is reported, stale snapshot is not served", func(t *testing.T) {
		clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
		var fail atomic.Bool
		provider := &mockProvider{listUsers: func(ctx context.Context) ([]*model.DirectoryEntry, error) {
			if fail.Load() {
				return nil, errors.New("slack is down")
			}
			return staticEntries(), nil
		}}
		cache := directory.NewCache(provider, directory.WithClock(clock.Now))

		_, err := cache.Get(ctx)
		gt.NoError(t, err).Required()

		fail.Store(true)
		clock.Advance(model.DefaultDirectoryTTL)

		s, err := cache.Get(ctx)
		gt.Error(t, err).Is(directory.ErrDirectoryUnavailable)
		gt.Value(t, s).Nil()

		// The expired snapshot is still visible for inspection only
		gt.Value(t, cache.Snapshot()).NotNil()
	})
}

func TestCache_RefreshAndInvalidate(t *testing.T) {
	ctx := context.Background()
	provider := &mockProvider{listUsers: func(ctx context.Context) ([]*model.DirectoryEntry, error) {
		return staticEntries(), nil
	}}
	cache := directory.NewCache(provider)

	gt.Value(t, cache.Snapshot()).Nil()

	_, err := cache.Get(ctx)
	gt.NoError(t, err).Required()

	_, err = cache.Refresh(ctx)
	gt.NoError(t, err).Required()
	gt.Number(t, provider.calls.Load()).Equal(2)

	cache.Invalidate()
	gt.Value(t, cache.Snapshot()).Nil()

	_, err = cache.Get(ctx)
	gt.NoError(t, err).Required()
	gt.Number(t, provider.calls.Load()).Equal(3)
}
