package memory

import (
	"context"
	"sync"

	"github.com/secmon-lab/idconsole/pkg/domain/interfaces"
	"github.com/secmon-lab/idconsole/pkg/domain/model"
)

type identityRepository struct {
	mu       sync.RWMutex
	users    map[model.UserID]*model.ProcessedUser
	metadata *model.SyncMetadata
}

var _ interfaces.IdentityRepository = &identityRepository{}

func newIdentityRepository() *identityRepository {
	return &identityRepository{
		users:    make(map[model.UserID]*model.ProcessedUser),
		metadata: &model.SyncMetadata{},
	}
}

// GetAll retrieves all cached users from memory
func (r *identityRepository) GetAll(ctx context.Context) ([]*model.ProcessedUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*model.ProcessedUser, 0, len(r.users))
	for _, user := range r.users {
		// Return a deep copy to prevent external modifications
		users = append(users, user.Clone())
	}

	return users, nil
}

// ReplaceAll swaps the whole set under a single write lock
func (r *identityRepository) ReplaceAll(ctx context.Context, users []*model.ProcessedUser) error {
	next := make(map[model.UserID]*model.ProcessedUser, len(users))
	for _, user := range users {
		next[user.ID] = user.Clone()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.users = next
	return nil
}

// DeleteAll deletes all cached users from memory
func (r *identityRepository) DeleteAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users = make(map[model.UserID]*model.ProcessedUser)
	return nil
}

// GetMetadata retrieves sync metadata
func (r *identityRepository) GetMetadata(ctx context.Context) (*model.SyncMetadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	metadataCopy := *r.metadata
	return &metadataCopy, nil
}

// SaveMetadata saves sync metadata
func (r *identityRepository) SaveMetadata(ctx context.Context, metadata *model.SyncMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	metadataCopy := *metadata
	r.metadata = &metadataCopy
	return nil
}
