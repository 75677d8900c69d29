package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/idconsole/pkg/domain/interfaces"
	"github.com/secmon-lab/idconsole/pkg/domain/model"
	"github.com/secmon-lab/idconsole/pkg/service/spectro"
	"github.com/secmon-lab/idconsole/pkg/utils/async"
	"github.com/secmon-lab/idconsole/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultStaleThreshold is the age after which the cache is refreshed at startup
	DefaultStaleThreshold = time.Hour

	syncFlightKey = "sync"
)

// Dispatcher runs handler detached from the caller
type Dispatcher func(ctx context.Context, handler func(ctx context.Context) error)

// SyncUseCase coordinates fetch-all, join, and cache replacement
type SyncUseCase struct {
	repo           interfaces.Repository
	spectro        spectro.Service
	staleThreshold time.Duration
	now            func() time.Time
	dispatch       Dispatcher
	onProgress     spectro.ProgressFunc

	flight singleflight.Group
}

// SyncOption is a functional option for SyncUseCase
type SyncOption func(*SyncUseCase)

// WithStaleThreshold sets the cache age after which IsStale reports true
func WithStaleThreshold(d time.Duration) SyncOption {
	return func(uc *SyncUseCase) {
		uc.staleThreshold = d
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) SyncOption {
	return func(uc *SyncUseCase) {
		uc.now = now
	}
}

// WithProgress receives the cumulative user count while users are fetched
func WithProgress(fn spectro.ProgressFunc) SyncOption {
	return func(uc *SyncUseCase) {
		uc.onProgress = fn
	}
}

// WithDispatcher replaces the runner of cache persistence, which is async.Dispatch by default
func WithDispatcher(d Dispatcher) SyncOption {
	return func(uc *SyncUseCase) {
		uc.dispatch = d
	}
}

// InlineDispatch runs handler in the calling goroutine and only logs its error
func InlineDispatch(ctx context.Context, handler func(ctx context.Context) error) {
	if err := handler(ctx); err != nil {
		logging.From(ctx).Error("inline handler failed", "error", err.Error())
	}
}

// NewSyncUseCase creates a SyncUseCase. repo is the durable cache and svc the upstream reader.
func NewSyncUseCase(repo interfaces.Repository, svc spectro.Service, opts ...SyncOption) *SyncUseCase {
	uc := &SyncUseCase{
		repo:           repo,
		spectro:        svc,
		staleThreshold: DefaultStaleThreshold,
		now:            time.Now,
		dispatch:       async.Dispatch,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// LoadCached returns the records of the last persisted sync
func (uc *SyncUseCase) LoadCached(ctx context.Context) ([]*model.ProcessedUser, error) {
	users, err := uc.repo.Identity().GetAll(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load cached users")
	}
	return users, nil
}

// Metadata returns the persisted sync metadata
func (uc *SyncUseCase) Metadata(ctx context.Context) (*model.SyncMetadata, error) {
	meta, err := uc.repo.Identity().GetMetadata(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get sync metadata")
	}
	return meta, nil
}

// LastSyncTime returns the time of the last successful sync, if any
func (uc *SyncUseCase) LastSyncTime(ctx context.Context) (time.Time, bool, error) {
	meta, err := uc.Metadata(ctx)
	if err != nil {
		return time.Time{}, false, err
	}
	return meta.LastSyncSuccess, meta.HasSynced(), nil
}

// IsStale reports whether no sync was recorded or the last one is older than the threshold
func (uc *SyncUseCase) IsStale(ctx context.Context) (bool, error) {
	meta, err := uc.Metadata(ctx)
	if err != nil {
		return false, err
	}
	return meta.IsStale(uc.now(), uc.staleThreshold), nil
}

// StaleThreshold returns the configured freshness threshold
func (uc *SyncUseCase) StaleThreshold() time.Duration {
	return uc.staleThreshold
}

// ForceSync fetches the three collections, joins them and returns the processed records.
// Cache persistence is dispatched in the background and its failures are only logged.
//
// Callers arriving while an attempt is in flight join that attempt and share its
// result, including the returned slice. The attempt is detached from the caller's
// cancellation so that one caller leaving does not truncate the result of the others.
func (uc *SyncUseCase) ForceSync(ctx context.Context) ([]*model.ProcessedUser, error) {
	v, err, shared := uc.flight.Do(syncFlightKey, func() (any, error) {
		return uc.sync(context.WithoutCancel(ctx))
	})
	if shared {
		logging.From(ctx).Debug("joined in-flight sync attempt")
	}
	if err != nil {
		return nil, err
	}
	return v.([]*model.ProcessedUser), nil
}

func (uc *SyncUseCase) sync(ctx context.Context) ([]*model.ProcessedUser, error) {
	syncID := model.NewSyncID()
	logger := logging.From(ctx).With("sync_id", syncID)
	ctx = logging.With(ctx, logger)
	startTime := uc.now()

	base := uc.spectro.ResolveBaseURL(ctx)
	ctx = spectro.WithBaseURL(ctx, base)
	logger.Info("Starting sync", "base_url", base)

	var (
		users []*model.RawUser
		roles []*model.RawRole
		teams []*model.RawTeam
	)

	// A zero errgroup.Group never cancels siblings: all three fetches settle before Wait returns
	var eg errgroup.Group
	eg.Go(func() error {
		var err error
		users, err = uc.spectro.ListUsers(ctx, uc.onProgress)
		return err
	})
	eg.Go(func() error {
		var err error
		roles, err = uc.spectro.ListRoles(ctx)
		return err
	})
	eg.Go(func() error {
		var err error
		teams, err = uc.spectro.ListTeams(ctx)
		return err
	})

	if err := eg.Wait(); err != nil {
		uc.recordAttempt(ctx, syncID, startTime)
		return nil, goerr.Wrap(err, "sync attempt failed", goerr.V(SyncIDKey, syncID))
	}

	processed := JoinUsers(users, roles, teams)
	logger.Info("Sync fetched and joined",
		"users", len(users),
		"roles", len(roles),
		"teams", len(teams),
		"processed", len(processed),
		"duration", time.Since(startTime).String())

	if len(processed) > 0 {
		snapshot := make([]*model.ProcessedUser, len(processed))
		for i, u := range processed {
			snapshot[i] = u.Clone()
		}
		uc.dispatch(ctx, func(ctx context.Context) error {
			return uc.persist(ctx, syncID, startTime, snapshot)
		})
	}

	return processed, nil
}

// persist replaces the cache and then records the success time
func (uc *SyncUseCase) persist(ctx context.Context, syncID model.SyncID, startTime time.Time, users []*model.ProcessedUser) error {
	if err := uc.repo.Identity().ReplaceAll(ctx, users); err != nil {
		return goerr.Wrap(err, "failed to persist synced users",
			goerr.V(SyncIDKey, syncID),
			goerr.V("count", len(users)))
	}

	meta := &model.SyncMetadata{
		LastSyncSuccess: uc.now(),
		LastSyncAttempt: startTime,
		LastSyncID:      syncID,
		RecordCount:     len(users),
	}
	if err := uc.repo.Identity().SaveMetadata(ctx, meta); err != nil {
		return goerr.Wrap(err, "failed to save sync metadata", goerr.V(SyncIDKey, syncID))
	}

	logging.From(ctx).Info("Sync persisted", "count", len(users))
	return nil
}

// recordAttempt stores the failed attempt time while keeping the last success intact
func (uc *SyncUseCase) recordAttempt(ctx context.Context, syncID model.SyncID, startTime time.Time) {
	logger := logging.From(ctx)

	existing, err := uc.repo.Identity().GetMetadata(ctx)
	if err != nil {
		logger.Warn("failed to read sync metadata", "error", err.Error())
		return
	}

	existing.LastSyncAttempt = startTime
	if err := uc.repo.Identity().SaveMetadata(ctx, existing); err != nil {
		logger.Warn("failed to record sync attempt", "error", err.Error())
	}
}
