package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/idconsole/pkg/domain/model"
	"github.com/secmon-lab/idconsole/pkg/domain/types"
	"github.com/secmon-lab/idconsole/pkg/utils/async"
	"github.com/secmon-lab/idconsole/pkg/utils/logging"
)

// Notice messages
const (
	MsgSyncCompleted    = "Sync completed successfully."
	MsgDatabaseUpdated  = "Database updated successfully with new records."
	MsgSyncFailed       = "Sync failed. Please check connection."
	MsgConnectionError  = "Connection Error: Unable to reach the Backend API."
	MsgFetchUsersFailed = "Failed to fetch users."
)

// Notifier receives every notice raised by the dashboard
type Notifier interface {
	Notify(ctx context.Context, notice *model.Notice) error
}

// SyncOutcome describes what one dashboard sync did to the displayed set
type SyncOutcome struct {
	Mode            types.SyncMode `json:"mode"`
	Count           int            `json:"count"`
	Notice          *model.Notice  `json:"notice,omitempty"`
	ConnectionError string         `json:"connectionError,omitempty"`
}

// DashboardStatus is a snapshot of the dashboard state
type DashboardStatus struct {
	Displayed       int           `json:"displayed"`
	Syncing         bool          `json:"syncing"`
	LastSyncSuccess *time.Time    `json:"lastSyncSuccess,omitempty"`
	LastSyncAttempt *time.Time    `json:"lastSyncAttempt,omitempty"`
	Stale           bool          `json:"stale"`
	RecordCount     int           `json:"recordCount"`
	Notice          *model.Notice `json:"notice,omitempty"`
	ConnectionError string        `json:"connectionError,omitempty"`
}

// DashboardUseCase owns the displayed user set and turns sync outcomes into notices
type DashboardUseCase struct {
	sync      *SyncUseCase
	notifiers []Notifier
	dispatch  Dispatcher
	now       func() time.Time

	mu      sync.RWMutex
	users   []*model.ProcessedUser
	notice  *model.Notice
	connErr string
	syncing int
}

// DashboardOption is a functional option for DashboardUseCase
type DashboardOption func(*DashboardUseCase)

// WithNotifier adds a notice sink. Delivery failures are only logged.
func WithNotifier(n Notifier) DashboardOption {
	return func(d *DashboardUseCase) {
		d.notifiers = append(d.notifiers, n)
	}
}

// WithNotifyDispatcher replaces the runner of notice delivery, which is async.Dispatch by default
func WithNotifyDispatcher(dispatch Dispatcher) DashboardOption {
	return func(d *DashboardUseCase) {
		d.dispatch = dispatch
	}
}

// WithDashboardClock replaces time.Now
func WithDashboardClock(now func() time.Time) DashboardOption {
	return func(d *DashboardUseCase) {
		d.now = now
	}
}

func NewDashboardUseCase(syncUC *SyncUseCase, opts ...DashboardOption) *DashboardUseCase {
	d := &DashboardUseCase{
		sync:     syncUC,
		dispatch: async.Dispatch,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Load displays the cached set and returns its size
func (d *DashboardUseCase) Load(ctx context.Context) (int, error) {
	users, err := d.sync.LoadCached(ctx)
	if err != nil {
		return 0, err
	}

	d.mu.Lock()
	d.users = users
	d.mu.Unlock()

	logging.From(ctx).Info("Loaded cached users", "count", len(users))
	return len(users), nil
}

// IsStale reports whether the cache needs a refresh
func (d *DashboardUseCase) IsStale(ctx context.Context) (bool, error) {
	return d.sync.IsStale(ctx)
}

// Sync runs a sync and updates the displayed set.
//
// An explicit sync raises a success notice when records were returned. Its failure
// becomes the connection error state while nothing is displayed, and an error notice
// otherwise. A silent sync never surfaces failures and raises an info notice only
// when the number of records changed.
func (d *DashboardUseCase) Sync(ctx context.Context, mode types.SyncMode) (*SyncOutcome, error) {
	if !mode.IsValid() {
		return nil, goerr.New("invalid sync mode", goerr.V(ModeKey, mode))
	}
	silent := mode.IsSilent()
	logger := logging.From(ctx).With(ModeKey, mode.String())
	ctx = logging.With(ctx, logger)

	d.mu.Lock()
	d.syncing++
	if !silent {
		d.connErr = ""
	}
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.syncing--
		d.mu.Unlock()
	}()

	data, err := d.sync.ForceSync(ctx)
	outcome := &SyncOutcome{Mode: mode}

	if err != nil {
		d.mu.Lock()
		displayed := len(d.users)
		switch {
		case silent:
			// keep the displayed set and stay quiet
		case displayed == 0:
			d.connErr = connectionMessage(err)
			outcome.ConnectionError = d.connErr
		default:
			outcome.Notice = d.raiseLocked(types.NoticeTypeError, MsgSyncFailed, mode)
		}
		d.mu.Unlock()

		logger.Warn("sync failed", "error", err.Error(), "displayed", displayed)
		d.forward(ctx, outcome.Notice)
		return outcome, err
	}

	d.mu.Lock()
	previous := len(d.users)
	d.users = data
	if silent && len(data) != previous {
		outcome.Notice = d.raiseLocked(types.NoticeTypeInfo, MsgDatabaseUpdated, mode)
	}
	if !silent && len(data) > 0 {
		outcome.Notice = d.raiseLocked(types.NoticeTypeSuccess, MsgSyncCompleted, mode)
	}
	if !silent {
		d.connErr = ""
	}
	d.mu.Unlock()

	outcome.Count = len(data)
	d.forward(ctx, outcome.Notice)
	return outcome, nil
}

// Users returns copies of the displayed records
func (d *DashboardUseCase) Users() []*model.ProcessedUser {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]*model.ProcessedUser, len(d.users))
	for i, u := range d.users {
		result[i] = u.Clone()
	}
	return result
}

// Query filters, sorts and pages the displayed set
func (d *DashboardUseCase) Query(q UserQuery) (*UserPage, error) {
	return QueryUsers(d.Users(), q)
}

// Stats summarizes the displayed set
func (d *DashboardUseCase) Stats() *Stats {
	return ComputeStats(d.Users())
}

// Notice returns the latest notice, if any
func (d *DashboardUseCase) Notice() *model.Notice {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.notice == nil {
		return nil
	}
	n := *d.notice
	return &n
}

// ConnectionError returns the error shown in place of an empty dashboard
func (d *DashboardUseCase) ConnectionError() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connErr
}

// Status combines the dashboard state with the persisted sync metadata
func (d *DashboardUseCase) Status(ctx context.Context) (*DashboardStatus, error) {
	meta, err := d.sync.Metadata(ctx)
	if err != nil {
		return nil, err
	}

	d.mu.RLock()
	status := &DashboardStatus{
		Displayed:       len(d.users),
		Syncing:         d.syncing > 0,
		Stale:           meta.IsStale(d.now(), d.sync.StaleThreshold()),
		RecordCount:     meta.RecordCount,
		ConnectionError: d.connErr,
	}
	if d.notice != nil {
		n := *d.notice
		status.Notice = &n
	}
	d.mu.RUnlock()

	if meta.HasSynced() {
		t := meta.LastSyncSuccess
		status.LastSyncSuccess = &t
	}
	if !meta.LastSyncAttempt.IsZero() {
		t := meta.LastSyncAttempt
		status.LastSyncAttempt = &t
	}
	return status, nil
}

// ExportCSV writes the displayed set as CSV. An empty set writes nothing and returns ErrNoUsers.
func (d *DashboardUseCase) ExportCSV(ctx context.Context, w io.Writer) (int, error) {
	users := d.Users()
	if len(users) == 0 {
		return 0, goerr.Wrap(ErrNoUsers, "nothing to export")
	}

	if err := WriteCSV(w, users); err != nil {
		return 0, err
	}

	d.mu.Lock()
	n := d.raiseLocked(types.NoticeTypeSuccess, exportedMessage(len(users)), types.SyncModeExplicit)
	d.mu.Unlock()
	d.forward(ctx, n)

	return len(users), nil
}

func (d *DashboardUseCase) raiseLocked(typ types.NoticeType, msg string, mode types.SyncMode) *model.Notice {
	n := &model.Notice{
		Type:      typ,
		Message:   msg,
		Mode:      mode,
		CreatedAt: d.now(),
	}
	d.notice = n
	copied := *n
	return &copied
}

func (d *DashboardUseCase) forward(ctx context.Context, notice *model.Notice) {
	if notice == nil {
		return
	}
	for _, n := range d.notifiers {
		d.dispatch(ctx, func(ctx context.Context) error {
			if err := n.Notify(ctx, notice); err != nil {
				return goerr.Wrap(err, "failed to deliver notice", goerr.V("message", notice.Message))
			}
			return nil
		})
	}
}

// connectionMessage maps transport failures to the connection error text
func connectionMessage(err error) string {
	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return MsgConnectionError
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return MsgFetchUsersFailed
}

func exportedMessage(n int) string {
	return fmt.Sprintf("Exported %d records to CSV", n)
}
