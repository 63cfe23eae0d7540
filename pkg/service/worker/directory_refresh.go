package worker

import (
	"context"
	"time"

	"github.com/lheh1167/slack-pair-bot/pkg/domain/interfaces"
	"github.com/lheh1167/slack-pair-bot/pkg/domain/model"
	"github.com/lheh1167/slack-pair-bot/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// DirectoryRefreshWorker mirrors the workspace directory into the repository
// on a fixed interval.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
type DirectoryRefreshWorker struct {
	repo      interfaces.Repository
	source    interfaces.DirectoryProvider
	interval  time.Duration
	onRefresh func()
	stopCh    chan struct{}
	doneCh    chan struct{}
}

type Option func(*DirectoryRefreshWorker)

// WithOnRefresh registers a callback run after every successful refresh,
// typically to invalidate an in-process directory cache
func WithOnRefresh(fn func()) Option {
	return func(w *DirectoryRefreshWorker) {
		w.onRefresh = fn
	}
}

// NewDirectoryRefreshWorker creates a worker copying source into repo
func NewDirectoryRefreshWorker(repo interfaces.Repository, source interfaces.DirectoryProvider, interval time.Duration, opts ...Option) *DirectoryRefreshWorker {
	w := &DirectoryRefreshWorker{
		repo:     repo,
		source:   source,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins the background refresh loop. The initial sync also runs in
// the background and does not block server startup.
func (w *DirectoryRefreshWorker) Start(ctx context.Context) error {
	logging.Default().Info("directory refresh worker starting",
		"interval", w.interval.String())

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *DirectoryRefreshWorker) Stop() {
	logging.Default().Info("directory refresh worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("directory refresh worker stopped")
}

func (w *DirectoryRefreshWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	if err := w.Refresh(ctx); err != nil {
		logging.Default().Error("initial directory refresh failed (will retry next interval)",
			"error", err.Error())
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.Refresh(ctx); err != nil {
				logging.Default().Error("directory refresh failed (will retry next interval)",
					"error", err.Error())
			}

		case <-w.stopCh:
			return

		case <-ctx.Done():
			logging.Default().Info("directory refresh worker context cancelled")
			return
		}
	}
}

// Refresh performs a single refresh cycle (Replace strategy: DeleteAll → SaveMany).
// On a source failure the existing mirror is kept.
func (w *DirectoryRefreshWorker) Refresh(ctx context.Context) error {
	startTime := time.Now()
	logging.Default().Info("starting directory refresh")

	existing, err := w.repo.Directory().GetMetadata(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to get existing metadata")
	}

	attempt := &model.DirectoryMetadata{
		LastRefreshSuccess: existing.LastRefreshSuccess,
		LastRefreshAttempt: startTime,
		UserCount:          existing.UserCount,
	}
	if err := w.repo.Directory().SaveMetadata(ctx, attempt); err != nil {
		return goerr.Wrap(err, "failed to save refresh attempt metadata")
	}

	entries, err := w.source.ListUsers(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to list directory users from source")
	}
	for _, e := range entries {
		e.UpdatedAt = startTime
	}

	if err := w.repo.Directory().DeleteAll(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete existing directory entries")
	}

	if err := w.repo.Directory().SaveMany(ctx, entries); err != nil {
		return goerr.Wrap(err, "failed to save directory entries", goerr.V("count", len(entries)))
	}

	success := &model.DirectoryMetadata{
		LastRefreshSuccess: startTime,
		LastRefreshAttempt: startTime,
		UserCount:          len(entries),
	}
	if err := w.repo.Directory().SaveMetadata(ctx, success); err != nil {
		return goerr.Wrap(err, "failed to save refresh success metadata")
	}

	if w.onRefresh != nil {
		w.onRefresh()
	}

	logging.Default().Info("directory refresh completed",
		"count", len(entries),
		"duration", time.Since(startTime).String())

	return nil
}
