package worker

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/idconsole/pkg/domain/types"
	"github.com/secmon-lab/idconsole/pkg/usecase"
	"github.com/secmon-lab/idconsole/pkg/utils/errutil"
	"github.com/secmon-lab/idconsole/pkg/utils/logging"
)

// DefaultSyncInterval is the period of the background silent sync
const DefaultSyncInterval = time.Hour

// Dashboard is the part of usecase.DashboardUseCase the worker drives
type Dashboard interface {
	Load(ctx context.Context) (int, error)
	IsStale(ctx context.Context) (bool, error)
	Sync(ctx context.Context, mode types.SyncMode) (*usecase.SyncOutcome, error)
}

var _ Dashboard = (*usecase.DashboardUseCase)(nil)

// SyncRefreshWorker keeps the displayed set fresh in the background
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - Overlapping syncs are joined by the sync use case, not serialized here
type SyncRefreshWorker struct {
	dashboard Dashboard
	interval  time.Duration
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewSyncRefreshWorker creates a new worker. A non-positive interval falls back to DefaultSyncInterval.
func NewSyncRefreshWorker(dashboard Dashboard, interval time.Duration) *SyncRefreshWorker {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	return &SyncRefreshWorker{
		dashboard: dashboard,
		interval:  interval,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start begins the background refresh loop
// - Startup check and periodic sync both run in a background goroutine
// - Does not block server startup
func (w *SyncRefreshWorker) Start(ctx context.Context) error {
	logging.From(ctx).Info("Sync refresh worker starting",
		"interval", w.interval.String())

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *SyncRefreshWorker) Stop() {
	logging.Default().Info("Sync refresh worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("Sync refresh worker stopped")
}

func (w *SyncRefreshWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	w.startup(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.sync(ctx, types.SyncModeSilent)

		case <-w.stopCh:
			logging.From(ctx).Info("Sync refresh worker received stop signal")
			return

		case <-ctx.Done():
			logging.From(ctx).Info("Sync refresh worker context cancelled")
			return
		}
	}
}

// startup shows the cache and refreshes it when needed: silently if the cache
// is older than the freshness threshold, explicitly if there is no cache at all
func (w *SyncRefreshWorker) startup(ctx context.Context) {
	logger := logging.From(ctx)

	count, err := w.dashboard.Load(ctx)
	if err != nil {
		logger.Error("Failed to load cached users", "error", err.Error())
	}

	if count == 0 {
		w.sync(ctx, types.SyncModeExplicit)
		return
	}

	stale, err := w.dashboard.IsStale(ctx)
	if err != nil {
		logger.Error("Failed to check cache freshness", "error", err.Error())
		return
	}
	if !stale {
		logger.Info("Cache is fresh, skipping startup sync", "count", count)
		return
	}
	w.sync(ctx, types.SyncModeSilent)
}

func (w *SyncRefreshWorker) sync(ctx context.Context, mode types.SyncMode) {
	outcome, err := w.dashboard.Sync(ctx, mode)
	if err != nil {
		// Log error but continue worker
		_ = errutil.Handle(ctx, goerr.Wrap(err, "sync failed, will retry next interval", goerr.V("mode", mode.String())), "background sync failed")
		return
	}
	logging.From(ctx).Info("Sync completed", "mode", mode.String(), "count", outcome.Count)
}
