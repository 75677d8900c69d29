package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/idconsole/pkg/domain/interfaces"
	"github.com/secmon-lab/idconsole/pkg/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	identityUsersCollection = "identity_users"
	syncMetadataCollection  = "identity_sync"
	syncStatusDocument      = "sync_status"
)

type identityRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.IdentityRepository = &identityRepository{}

func newIdentityRepository(client *firestore.Client) *identityRepository {
	return &identityRepository{
		client: client,
	}
}

// processedUserDoc is the Firestore persistence model
type processedUserDoc struct {
	ID            string     `firestore:"id"`
	Email         string     `firestore:"email"`
	FirstName     string     `firestore:"first_name"`
	LastName      string     `firestore:"last_name"`
	FullName      string     `firestore:"full_name"`
	IsActive      bool       `firestore:"is_active"`
	LastSignIn    *time.Time `firestore:"last_sign_in"`
	LastSignInRaw string     `firestore:"last_sign_in_raw"`
	RoleNames     []string   `firestore:"role_names"`
	TeamNames     []string   `firestore:"team_names"`
	ProjectNames  []string   `firestore:"project_names"`
	CreatedAt     string     `firestore:"created_at"`
}

// syncMetadataDoc is the Firestore persistence model for metadata
type syncMetadataDoc struct {
	LastSyncSuccess time.Time `firestore:"last_sync_success"`
	LastSyncAttempt time.Time `firestore:"last_sync_attempt"`
	LastSyncID      string    `firestore:"last_sync_id"`
	RecordCount     int       `firestore:"record_count"`
}

// UsersCollection returns the name of the collection holding cached users
func UsersCollection(prefix string) string {
	return prefixed(prefix, identityUsersCollection)
}

func prefixed(prefix, name string) string {
	if prefix != "" {
		return prefix + "_" + name
	}
	return name
}

func (r *identityRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(UsersCollection(r.collectionPrefix))
}

func (r *identityRepository) metadataCollection() *firestore.CollectionRef {
	return r.client.Collection(prefixed(r.collectionPrefix, syncMetadataCollection))
}

func toDoc(user *model.ProcessedUser) *processedUserDoc {
	doc := &processedUserDoc{
		ID:           string(user.ID),
		Email:        user.Email,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		FullName:     user.FullName,
		IsActive:     user.IsActive,
		RoleNames:    user.RoleNames,
		TeamNames:    user.TeamNames,
		ProjectNames: user.ProjectNames,
		CreatedAt:    user.CreatedAt,
	}
	doc.LastSignInRaw = user.LastSignIn.Raw()
	if at, ok := user.LastSignIn.Time(); ok {
		doc.LastSignIn = &at
	}
	return doc
}

func fromDoc(doc *processedUserDoc) *model.ProcessedUser {
	user := &model.ProcessedUser{
		ID:           model.UserID(doc.ID),
		Email:        doc.Email,
		FirstName:    doc.FirstName,
		LastName:     doc.LastName,
		FullName:     doc.FullName,
		IsActive:     doc.IsActive,
		RoleNames:    doc.RoleNames,
		TeamNames:    doc.TeamNames,
		ProjectNames: doc.ProjectNames,
		CreatedAt:    doc.CreatedAt,
	}
	switch {
	case doc.LastSignInRaw != "":
		user.LastSignIn = model.ParseSignInTime(doc.LastSignInRaw)
	case doc.LastSignIn != nil:
		user.LastSignIn = model.NewSignInTime(*doc.LastSignIn)
	}
	return user
}

// GetAll retrieves all cached users from Firestore
func (r *identityRepository) GetAll(ctx context.Context) ([]*model.ProcessedUser, error) {
	iter := r.collection().Documents(ctx)
	defer iter.Stop()

	var users []*model.ProcessedUser
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate cached users")
		}

		var userDoc processedUserDoc
		if err := doc.DataTo(&userDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal cached user", goerr.V("docID", doc.Ref.ID))
		}

		users = append(users, fromDoc(&userDoc))
	}

	return users, nil
}

// ReplaceAll deletes every existing document and writes users in a single transaction
func (r *identityRepository) ReplaceAll(ctx context.Context, users []*model.ProcessedUser) error {
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		// All reads must happen before any write in a transaction
		refs, err := tx.Documents(r.collection()).GetAll()
		if err != nil {
			return goerr.Wrap(err, "failed to list cached users in transaction")
		}

		keep := make(map[string]struct{}, len(users))
		for _, user := range users {
			keep[string(user.ID)] = struct{}{}
		}

		for _, doc := range refs {
			if _, ok := keep[doc.Ref.ID]; ok {
				continue
			}
			if err := tx.Delete(doc.Ref); err != nil {
				return goerr.Wrap(err, "failed to delete cached user", goerr.V("docID", doc.Ref.ID))
			}
		}

		for _, user := range users {
			if err := tx.Set(r.collection().Doc(string(user.ID)), toDoc(user)); err != nil {
				return goerr.Wrap(err, "failed to set cached user", goerr.V("user_id", user.ID))
			}
		}
		return nil
	})
	if err != nil {
		return goerr.Wrap(err, "failed to replace cached users", goerr.V("count", len(users)))
	}

	return nil
}

// DeleteAll deletes all cached users from Firestore
func (r *identityRepository) DeleteAll(ctx context.Context) error {
	iter := r.collection().Documents(ctx)
	defer iter.Stop()

	var refs []*firestore.DocumentRef
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return goerr.Wrap(err, "failed to iterate cached users for deletion")
		}
		refs = append(refs, doc.Ref)
	}

	if len(refs) == 0 {
		return nil
	}

	// Use BulkWriter which automatically handles batching
	bulkWriter := r.client.BulkWriter(ctx)
	defer bulkWriter.End()

	for _, ref := range refs {
		if _, err := bulkWriter.Delete(ref); err != nil {
			return goerr.Wrap(err, "failed to add Delete operation to bulk writer")
		}
	}

	bulkWriter.Flush()

	return nil
}

// GetMetadata retrieves sync metadata
func (r *identityRepository) GetMetadata(ctx context.Context) (*model.SyncMetadata, error) {
	doc, err := r.metadataCollection().Doc(syncStatusDocument).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return &model.SyncMetadata{}, nil
		}
		return nil, goerr.Wrap(err, "failed to get sync metadata")
	}

	var metadataDoc syncMetadataDoc
	if err := doc.DataTo(&metadataDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal sync metadata")
	}

	return &model.SyncMetadata{
		LastSyncSuccess: metadataDoc.LastSyncSuccess,
		LastSyncAttempt: metadataDoc.LastSyncAttempt,
		LastSyncID:      model.SyncID(metadataDoc.LastSyncID),
		RecordCount:     metadataDoc.RecordCount,
	}, nil
}

// SaveMetadata saves sync metadata
func (r *identityRepository) SaveMetadata(ctx context.Context, metadata *model.SyncMetadata) error {
	_, err := r.metadataCollection().Doc(syncStatusDocument).Set(ctx, &syncMetadataDoc{
		LastSyncSuccess: metadata.LastSyncSuccess,
		LastSyncAttempt: metadata.LastSyncAttempt,
		LastSyncID:      string(metadata.LastSyncID),
		RecordCount:     metadata.RecordCount,
	})
	if err != nil {
		return goerr.Wrap(err, "failed to save sync metadata")
	}
	return nil
}
