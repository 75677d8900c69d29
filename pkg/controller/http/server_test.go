package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	httpctrl "github.com/secmon-lab/idconsole/pkg/controller/http"
	"github.com/secmon-lab/idconsole/pkg/domain/model"
	"github.com/secmon-lab/idconsole/pkg/repository/memory"
	"github.com/secmon-lab/idconsole/pkg/service/spectro"
	"github.com/secmon-lab/idconsole/pkg/usecase"
)

type mockSpectroService struct {
	mu    sync.Mutex
	users []*model.RawUser
	err   error
}

func (m *mockSpectroService) ListUsers(ctx context.Context, onProgress spectro.ProgressFunc) ([]*model.RawUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users, m.err
}

func (m *mockSpectroService) ListRoles(ctx context.Context) ([]*model.RawRole, error) {
	return []*model.RawRole{{Metadata: model.ObjectMeta{UID: "r1"}, Spec: model.RawRoleSpec{DisplayName: "Admin"}}}, nil
}

func (m *mockSpectroService) ListTeams(ctx context.Context) ([]*model.RawTeam, error) {
	return []*model.RawTeam{{
		Metadata: model.ObjectMeta{Name: "Platform"},
		Spec:     model.RawTeamSpec{Users: []model.TeamMember{{UID: "u1"}}},
	}}, nil
}

func (m *mockSpectroService) ResolveBaseURL(ctx context.Context) string {
	return "http://relay.test:3001"
}

func (m *mockSpectroService) setError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func newUser(id, first, last, signIn string) *model.RawUser {
	return &model.RawUser{
		Metadata: model.ObjectMeta{UID: id, CreationTimestamp: "2023-01-01T00:00:00Z"},
		Spec:     model.RawUserSpec{FirstName: first, LastName: last, EmailID: id + "@example.com", Roles: []model.RoleID{"r1"}},
		Status:   model.RawUserStatus{IsActive: true, LastSignIn: model.ParseSignInTime(signIn)},
	}
}

func setupServer(t *testing.T) (*httptest.Server, *mockSpectroService) {
	t.Helper()
	svc := &mockSpectroService{users: []*model.RawUser{
		newUser("u1", "Ann", "Lee", "Never"),
		newUser("u2", "Bob", "Ray", "2024-05-01T00:00:00Z"),
	}}
	uc := usecase.New(memory.New(), svc,
		usecase.WithSyncOptions(usecase.WithDispatcher(usecase.InlineDispatch)),
		usecase.WithDashboardOptions(usecase.WithNotifyDispatcher(usecase.InlineDispatch)),
	)

	srv, err := httpctrl.New(uc.Dashboard, httpctrl.WithClock(func() time.Time {
		return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	}))
	gt.NoError(t, err).Required()

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts, svc
}

func doRequest(t *testing.T, method, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	gt.NoError(t, err).Required()
	resp, err := http.DefaultClient.Do(req)
	gt.NoError(t, err).Required()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	gt.NoError(t, err).Required()
	return resp, body
}

func TestServer_Health(t *testing.T) {
	ts, _ := setupServer(t)
	resp, body := doRequest(t, http.MethodGet, ts.URL+"/health")
	gt.Value(t, resp.StatusCode).Equal(http.StatusOK)
	gt.Value(t, string(body)).Equal("ok")
}

func TestServer_SyncAndQuery(t *testing.T) {
	ts, _ := setupServer(t)

	resp, body := doRequest(t, http.MethodPost, ts.URL+"/api/sync")
	gt.Value(t, resp.StatusCode).Equal(http.StatusOK)

	var outcome struct {
		Mode   string `json:"mode"`
		Count  int    `json:"count"`
		Notice *struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"notice"`
	}
	gt.NoError(t, json.Unmarshal(body, &outcome)).Required()
	gt.Value(t, outcome.Mode).Equal("explicit")
	gt.Number(t, outcome.Count).Equal(2)
	gt.Value(t, outcome.Notice).NotNil().Required()
	gt.Value(t, outcome.Notice.Message).Equal(usecase.MsgSyncCompleted)

	t.Run("default sort puts never signed in last", func(t *testing.T) {
		resp, body := doRequest(t, http.MethodGet, ts.URL+"/api/users")
		gt.Value(t, resp.StatusCode).Equal(http.StatusOK)

		var page struct {
			Users []struct {
				ID         string   `json:"id"`
				FullName   string   `json:"fullName"`
				LastSignIn string   `json:"lastSignIn"`
				RoleNames  []string `json:"roleNames"`
				TeamNames  []string `json:"teamNames"`
			} `json:"users"`
			Total   int `json:"total"`
			PerPage int `json:"perPage"`
		}
		gt.NoError(t, json.Unmarshal(body, &page)).Required()
		gt.Number(t, page.Total).Equal(2)
		gt.Number(t, page.PerPage).Equal(12)
		gt.Array(t, page.Users).Length(2).Required()
		gt.Value(t, page.Users[0].ID).Equal("u2")
		gt.Value(t, page.Users[1].ID).Equal("u1")
		gt.Value(t, page.Users[1].LastSignIn).Equal("Never")
		gt.Value(t, page.Users[1].RoleNames).Equal([]string{"Admin"})
		gt.Value(t, page.Users[1].TeamNames).Equal([]string{"Platform"})
	})

	t.Run("search filters by team", func(t *testing.T) {
		resp, body := doRequest(t, http.MethodGet, ts.URL+"/api/users?q=platform")
		gt.Value(t, resp.StatusCode).Equal(http.StatusOK)
		gt.String(t, string(body)).Contains(`"total":1`)
	})

	t.Run("invalid sort is rejected", func(t *testing.T) {
		resp, _ := doRequest(t, http.MethodGet, ts.URL+"/api/users?sort=roles")
		gt.Value(t, resp.StatusCode).Equal(http.StatusBadRequest)
	})

	t.Run("non numeric page is rejected", func(t *testing.T) {
		resp, _ := doRequest(t, http.MethodGet, ts.URL+"/api/users?page=two")
		gt.Value(t, resp.StatusCode).Equal(http.StatusBadRequest)
	})

	t.Run("stats", func(t *testing.T) {
		resp, body := doRequest(t, http.MethodGet, ts.URL+"/api/stats")
		gt.Value(t, resp.StatusCode).Equal(http.StatusOK)
		gt.String(t, string(body)).Contains(`"total":2`)
		gt.String(t, string(body)).Contains(`"neverSignedIn":1`)
	})

	t.Run("status", func(t *testing.T) {
		resp, body := doRequest(t, http.MethodGet, ts.URL+"/api/status")
		gt.Value(t, resp.StatusCode).Equal(http.StatusOK)
		gt.String(t, string(body)).Contains(`"displayed":2`)
		gt.String(t, string(body)).Contains(`"recordCount":2`)
	})

	t.Run("export", func(t *testing.T) {
		resp, body := doRequest(t, http.MethodGet, ts.URL+"/api/export.csv")
		gt.Value(t, resp.StatusCode).Equal(http.StatusOK)
		gt.Value(t, resp.Header.Get("Content-Disposition")).Equal(`attachment; filename="spectro_users_2024-05-01.csv"`)
		gt.Bool(t, strings.HasPrefix(string(body), "ID,Full Name,Email,Status,Last Sign In,Roles,Teams,Created At\n")).True()
	})
}

func TestServer_SyncFailure(t *testing.T) {
	ts, svc := setupServer(t)
	svc.setError(errors.New("upstream unavailable"))

	resp, body := doRequest(t, http.MethodPost, ts.URL+"/api/sync")
	gt.Value(t, resp.StatusCode).Equal(http.StatusBadGateway)
	gt.String(t, string(body)).Contains(`"connectionError"`)
	gt.String(t, string(body)).Contains("upstream unavailable")
}

func TestServer_SilentSyncFailureIsQuiet(t *testing.T) {
	ts, svc := setupServer(t)
	resp, _ := doRequest(t, http.MethodPost, ts.URL+"/api/sync")
	gt.Value(t, resp.StatusCode).Equal(http.StatusOK)

	svc.setError(errors.New("upstream unavailable"))
	resp, body := doRequest(t, http.MethodPost, ts.URL+"/api/sync?mode=silent")
	gt.Value(t, resp.StatusCode).Equal(http.StatusOK)
	gt.String(t, string(body)).NotContains("upstream unavailable")
	gt.String(t, string(body)).Contains(`"mode":"silent"`)

	resp, body = doRequest(t, http.MethodGet, ts.URL+"/api/users")
	gt.Value(t, resp.StatusCode).Equal(http.StatusOK)
	gt.String(t, string(body)).Contains("u2")
}

func TestServer_SyncRejectsUnknownMode(t *testing.T) {
	ts, _ := setupServer(t)
	resp, _ := doRequest(t, http.MethodPost, ts.URL+"/api/sync?mode=loud")
	gt.Value(t, resp.StatusCode).Equal(http.StatusBadRequest)
}

func TestServer_ExportEmpty(t *testing.T) {
	ts, _ := setupServer(t)
	resp, _ := doRequest(t, http.MethodGet, ts.URL+"/api/export.csv")
	gt.Value(t, resp.StatusCode).Equal(http.StatusNotFound)
}

func TestServer_SyncRequiresPost(t *testing.T) {
	ts, _ := setupServer(t)
	resp, _ := doRequest(t, http.MethodGet, ts.URL+"/api/sync")
	gt.Value(t, resp.StatusCode).Equal(http.StatusMethodNotAllowed)
}
