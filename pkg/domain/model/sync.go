package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/secmon-lab/idconsole/pkg/domain/types"
)

// SyncID identifies one sync attempt in logs and metadata
type SyncID string

// NewSyncID returns a time ordered sync attempt identifier
func NewSyncID() SyncID {
	return SyncID(uuid.Must(uuid.NewV7()).String())
}

// SyncMetadata tracks the freshness of the durable cache
type SyncMetadata struct {
	LastSyncSuccess time.Time // Last successful sync; zero if never synced
	LastSyncAttempt time.Time // Last attempt, success or failure
	LastSyncID      SyncID
	RecordCount     int // Number of records written by the last successful sync
}

// HasSynced reports whether a successful sync has ever been recorded
func (m *SyncMetadata) HasSynced() bool {
	return m != nil && !m.LastSyncSuccess.IsZero()
}

// IsStale reports whether the cache should be refreshed at now.
// A cache that has never been synced is always stale.
func (m *SyncMetadata) IsStale(now time.Time, threshold time.Duration) bool {
	if !m.HasSynced() {
		return true
	}
	return now.Sub(m.LastSyncSuccess) > threshold
}

// Notice is a user facing message describing a sync outcome
type Notice struct {
	Type      types.NoticeType `json:"type"`
	Message   string           `json:"message"`
	Mode      types.SyncMode   `json:"mode"`
	CreatedAt time.Time        `json:"createdAt"`
}
