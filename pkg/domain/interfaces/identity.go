package interfaces

import (
	"context"

	"github.com/secmon-lab/idconsole/pkg/domain/model"
)

// IdentityRepository is the durable cache of processed user records.
//
// The cache is only ever replaced wholesale:
// - NO individual Save(user) method, a sync writes the full set with ReplaceAll
// - ReplaceAll clears and inserts inside one transaction so readers never see a partial set
// - Sync freshness is tracked separately via GetMetadata/SaveMetadata
type IdentityRepository interface {
	// GetAll retrieves every cached record. Order is not guaranteed.
	GetAll(ctx context.Context) ([]*model.ProcessedUser, error)

	// ReplaceAll atomically clears the cache and stores users
	ReplaceAll(ctx context.Context, users []*model.ProcessedUser) error

	// DeleteAll clears the cache
	DeleteAll(ctx context.Context) error

	// GetMetadata retrieves sync metadata. A zero value is returned if no sync was recorded.
	GetMetadata(ctx context.Context) (*model.SyncMetadata, error)

	// SaveMetadata saves sync metadata
	SaveMetadata(ctx context.Context, metadata *model.SyncMetadata) error
}
