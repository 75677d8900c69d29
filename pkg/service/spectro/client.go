package spectro

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/idconsole/pkg/domain/model"
)

// client implements Service interface
type client struct {
	fetcher *Fetcher
}

// New creates a Service reading the three collections through fetcher
func New(fetcher *Fetcher) (Service, error) {
	if fetcher == nil || fetcher.resolver == nil {
		return nil, goerr.New("fetcher with a base URL resolver is required")
	}
	return &client{fetcher: fetcher}, nil
}

func (c *client) ListUsers(ctx context.Context, onProgress ProgressFunc) ([]*model.RawUser, error) {
	users, err := FetchAll[*model.RawUser](ctx, c.fetcher, UsersPath, onProgress)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list users")
	}
	return users, nil
}

func (c *client) ListRoles(ctx context.Context) ([]*model.RawRole, error) {
	roles, err := FetchAll[*model.RawRole](ctx, c.fetcher, RolesPath, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list roles")
	}
	return roles, nil
}

func (c *client) ListTeams(ctx context.Context) ([]*model.RawTeam, error) {
	teams, err := FetchAll[*model.RawTeam](ctx, c.fetcher, TeamsPath, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list teams")
	}
	return teams, nil
}

func (c *client) ResolveBaseURL(ctx context.Context) string {
	return c.fetcher.resolver.ResolveOrDefault(ctx)
}
