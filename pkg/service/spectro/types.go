package spectro

import (
	"context"

	"github.com/secmon-lab/idconsole/pkg/domain/model"
)

// Relay paths of the three resource collections
const (
	UsersPath = "/spectro/users"
	RolesPath = "/spectro/roles"
	TeamsPath = "/spectro/teams"
)

// Service provides read-only access to the upstream identity collections through the relay
type Service interface {
	// ListUsers retrieves every user. onProgress may be nil.
	ListUsers(ctx context.Context, onProgress ProgressFunc) ([]*model.RawUser, error)

	// ListRoles retrieves every role
	ListRoles(ctx context.Context) ([]*model.RawRole, error)

	// ListTeams retrieves every team summary
	ListTeams(ctx context.Context) ([]*model.RawTeam, error)

	// ResolveBaseURL returns the relay base URL a fetch would use now
	ResolveBaseURL(ctx context.Context) string
}

// ProgressFunc receives the cumulative number of items retrieved so far
type ProgressFunc func(count int)

// BaseURLResolver returns the relay base URL to use for a fetch
type BaseURLResolver interface {
	ResolveOrDefault(ctx context.Context) string
}

// StaticBaseURL is a BaseURLResolver that always returns itself
type StaticBaseURL string

func (s StaticBaseURL) ResolveOrDefault(ctx context.Context) string {
	return string(s)
}

type ctxBaseURLKey struct{}

// WithBaseURL pins the relay base URL for every fetch made with the returned context
func WithBaseURL(ctx context.Context, base string) context.Context {
	return context.WithValue(ctx, ctxBaseURLKey{}, base)
}

// BaseURLFrom returns the base URL pinned by WithBaseURL
func BaseURLFrom(ctx context.Context) (string, bool) {
	base, ok := ctx.Value(ctxBaseURLKey{}).(string)
	return base, ok && base != ""
}

// listResponse is the envelope of every list endpoint
type listResponse[T any] struct {
	Items    []T `json:"items"`
	ListMeta *struct {
		Continue string `json:"continue"`
		Count    int    `json:"count"`
		Limit    int    `json:"limit"`
		Offset   int    `json:"offset"`
	} `json:"listmeta,omitempty"`
	Metadata *struct {
		Continue           string `json:"continue"`
		RemainingItemCount *int   `json:"remainingItemCount,omitempty"`
	} `json:"metadata,omitempty"`
}

// nextCursor returns the continuation token, preferring listmeta over metadata
func (r *listResponse[T]) nextCursor() string {
	if r.ListMeta != nil && r.ListMeta.Continue != "" {
		return r.ListMeta.Continue
	}
	if r.Metadata != nil && r.Metadata.Continue != "" {
		return r.Metadata.Continue
	}
	return ""
}
