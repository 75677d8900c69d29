package usecase_test

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/secmon-lab/idconsole/pkg/domain/model"
	"github.com/secmon-lab/idconsole/pkg/service/spectro"
)

// mockSpectroService is a hand written spectro.Service for testing
type mockSpectroService struct {
	mu       sync.Mutex
	users    []*model.RawUser
	roles    []*model.RawRole
	teams    []*model.RawTeam
	usersErr error
	rolesErr error
	teamsErr error

	// started is closed on the first ListUsers call; release blocks ListUsers until closed
	started chan struct{}
	release chan struct{}

	usersCalled   int
	rolesCalled   int
	teamsCalled   int
	resolveCalled int

	// bases holds the base URL pinned in the context of every List call
	bases []string
}

var _ spectro.Service = (*mockSpectroService)(nil)

func newMockSpectroService() *mockSpectroService {
	return &mockSpectroService{}
}

func (m *mockSpectroService) set(users []*model.RawUser, roles []*model.RawRole, teams []*model.RawTeam) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users, m.roles, m.teams = users, roles, teams
}

func (m *mockSpectroService) setErrors(usersErr, rolesErr, teamsErr error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usersErr, m.rolesErr, m.teamsErr = usersErr, rolesErr, teamsErr
}

func (m *mockSpectroService) block() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = make(chan struct{})
	m.release = make(chan struct{})
}

func (m *mockSpectroService) ListUsers(ctx context.Context, onProgress spectro.ProgressFunc) ([]*model.RawUser, error) {
	m.mu.Lock()
	m.usersCalled++
	m.recordBase(ctx)
	started, release := m.started, m.release
	if started != nil && m.usersCalled == 1 {
		close(started)
	}
	users, err := m.users, m.usersErr
	m.mu.Unlock()

	if release != nil {
		<-release
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return nil, err
	}
	if onProgress != nil {
		onProgress(len(users))
	}
	return users, nil
}

func (m *mockSpectroService) ListRoles(ctx context.Context) ([]*model.RawRole, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rolesCalled++
	m.recordBase(ctx)
	if m.rolesErr != nil {
		return nil, m.rolesErr
	}
	return m.roles, nil
}

func (m *mockSpectroService) ListTeams(ctx context.Context) ([]*model.RawTeam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teamsCalled++
	m.recordBase(ctx)
	if m.teamsErr != nil {
		return nil, m.teamsErr
	}
	return m.teams, nil
}

func (m *mockSpectroService) ResolveBaseURL(ctx context.Context) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolveCalled++
	return "http://relay-" + strconv.Itoa(m.resolveCalled) + ".test:3001"
}

// recordBase must be called with m.mu held
func (m *mockSpectroService) recordBase(ctx context.Context) {
	base, _ := spectro.BaseURLFrom(ctx)
	m.bases = append(m.bases, base)
}

func (m *mockSpectroService) resolved() (count int, bases []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolveCalled, append([]string(nil), m.bases...)
}

func (m *mockSpectroService) calls() (users, roles, teams int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.usersCalled, m.rolesCalled, m.teamsCalled
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func rawUser(id, first, last string, roles ...model.RoleID) *model.RawUser {
	return &model.RawUser{
		Metadata: model.ObjectMeta{UID: id, CreationTimestamp: "2023-01-02T03:04:05Z"},
		Spec: model.RawUserSpec{
			FirstName: first,
			LastName:  last,
			EmailID:   id + "@example.com",
			Roles:     roles,
		},
		Status: model.RawUserStatus{IsActive: true},
	}
}

func rawRole(id, displayName, name string) *model.RawRole {
	return &model.RawRole{
		Metadata: model.ObjectMeta{UID: id, Name: name},
		Spec:     model.RawRoleSpec{DisplayName: displayName},
	}
}

func rawTeam(name string, members []model.UserID, projects ...string) *model.RawTeam {
	t := &model.RawTeam{Metadata: model.ObjectMeta{UID: "team-" + name, Name: name}}
	for _, m := range members {
		t.Spec.Users = append(t.Spec.Users, model.TeamMember{UID: m})
	}
	for _, p := range projects {
		t.Spec.Projects = append(t.Spec.Projects, model.TeamProject{UID: "p-" + p, Name: p})
	}
	return t
}
