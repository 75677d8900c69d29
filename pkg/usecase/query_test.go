package usecase_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/idconsole/pkg/domain/model"
	"github.com/secmon-lab/idconsole/pkg/usecase"
)

func processed(id, fullName, email string, signIn string, teams ...string) *model.ProcessedUser {
	return &model.ProcessedUser{
		ID:           model.UserID(id),
		FullName:     fullName,
		Email:        email,
		LastSignIn:   model.ParseSignInTime(signIn),
		RoleNames:    []string{},
		TeamNames:    teams,
		ProjectNames: []string{},
		CreatedAt:    "2023-01-01T00:00:00Z",
	}
}

func ids(users []*model.ProcessedUser) []model.UserID {
	result := make([]model.UserID, len(users))
	for i, u := range users {
		result[i] = u.ID
	}
	return result
}

func TestFilterUsers(t *testing.T) {
	users := []*model.ProcessedUser{
		processed("u1", "Ann Lee", "ann@example.com", "Never", "Platform"),
		processed("u2", "Bob Ray", "bob@corp.io", "Never", "Security"),
		processed("u3", "Cid Moe", "cid@example.com", "Never"),
	}

	t.Run("matches full name case-insensitively", func(t *testing.T) {
		gt.Value(t, ids(usecase.FilterUsers(users, "ann LEE"))).Equal([]model.UserID{"u1"})
	})

	t.Run("matches email", func(t *testing.T) {
		gt.Value(t, ids(usecase.FilterUsers(users, "corp.io"))).Equal([]model.UserID{"u2"})
	})

	t.Run("matches team name", func(t *testing.T) {
		gt.Value(t, ids(usecase.FilterUsers(users, "secur"))).Equal([]model.UserID{"u2"})
	})

	t.Run("empty term matches everything", func(t *testing.T) {
		gt.Array(t, usecase.FilterUsers(users, "")).Length(3)
	})

	t.Run("no match", func(t *testing.T) {
		gt.Array(t, usecase.FilterUsers(users, "zzz")).Length(0)
	})
}

func TestSortUsers(t *testing.T) {
	newUsers := func() []*model.ProcessedUser {
		return []*model.ProcessedUser{
			processed("old", "Bea", "b@x", "2024-01-01T00:00:00Z"),
			processed("never", "Abe", "c@x", "Never"),
			processed("new", "Cal", "a@x", "2024-06-01T00:00:00Z"),
		}
	}

	t.Run("last sign-in desc puts never last", func(t *testing.T) {
		users := newUsers()
		usecase.SortUsers(users, usecase.SortByLastSignIn, usecase.SortDesc)
		gt.Value(t, ids(users)).Equal([]model.UserID{"new", "old", "never"})
	})

	t.Run("last sign-in asc puts never first", func(t *testing.T) {
		users := newUsers()
		usecase.SortUsers(users, usecase.SortByLastSignIn, usecase.SortAsc)
		gt.Value(t, ids(users)).Equal([]model.UserID{"never", "old", "new"})
	})

	t.Run("full name asc", func(t *testing.T) {
		users := newUsers()
		usecase.SortUsers(users, usecase.SortByFullName, usecase.SortAsc)
		gt.Value(t, ids(users)).Equal([]model.UserID{"never", "old", "new"})
	})

	t.Run("email desc", func(t *testing.T) {
		users := newUsers()
		usecase.SortUsers(users, usecase.SortByEmail, usecase.SortDesc)
		gt.Value(t, ids(users)).Equal([]model.UserID{"never", "old", "new"})
	})

	t.Run("created at", func(t *testing.T) {
		users := newUsers()
		users[0].CreatedAt = "2022-01-01T00:00:00Z"
		users[1].CreatedAt = ""
		users[2].CreatedAt = "2023-01-01T00:00:00Z"
		usecase.SortUsers(users, usecase.SortByCreatedAt, usecase.SortAsc)
		gt.Value(t, ids(users)).Equal([]model.UserID{"never", "old", "new"})
	})
}

func TestQueryUsers(t *testing.T) {
	var users []*model.ProcessedUser
	for i := range 30 {
		users = append(users, processed(fmt.Sprintf("u%02d", i), fmt.Sprintf("User %02d", i), "x@x", "Never"))
	}

	t.Run("defaults to first page of twelve", func(t *testing.T) {
		page, err := usecase.QueryUsers(users, usecase.UserQuery{})
		gt.NoError(t, err).Required()
		gt.Array(t, page.Users).Length(12)
		gt.Number(t, page.Total).Equal(30)
		gt.Number(t, page.TotalPages).Equal(3)
		gt.Number(t, page.Page).Equal(1)
		gt.Number(t, page.PerPage).Equal(usecase.DefaultPerPage)
	})

	t.Run("last page is partial", func(t *testing.T) {
		page, err := usecase.QueryUsers(users, usecase.UserQuery{Page: 3, SortBy: usecase.SortByFullName, Order: usecase.SortAsc})
		gt.NoError(t, err).Required()
		gt.Array(t, page.Users).Length(6).Required()
		gt.Value(t, page.Users[0].ID).Equal(model.UserID("u24"))
	})

	t.Run("page past the end is empty", func(t *testing.T) {
		page, err := usecase.QueryUsers(users, usecase.UserQuery{Page: 9})
		gt.NoError(t, err).Required()
		gt.Bool(t, page.Users != nil).True()
		gt.Array(t, page.Users).Length(0)
	})

	t.Run("does not reorder input", func(t *testing.T) {
		_, err := usecase.QueryUsers(users, usecase.UserQuery{SortBy: usecase.SortByFullName, Order: usecase.SortDesc})
		gt.NoError(t, err).Required()
		gt.Value(t, users[0].ID).Equal(model.UserID("u00"))
	})

	t.Run("rejects invalid parameters", func(t *testing.T) {
		_, err := usecase.QueryUsers(users, usecase.UserQuery{SortBy: "roles"})
		gt.Error(t, err).Is(usecase.ErrInvalidSortKey)

		_, err = usecase.QueryUsers(users, usecase.UserQuery{Order: "up"})
		gt.Error(t, err).Is(usecase.ErrInvalidSortOrder)

		_, err = usecase.QueryUsers(users, usecase.UserQuery{Page: -1})
		gt.Error(t, err).Is(usecase.ErrInvalidPage)
	})
}

func TestParseCreatedAt(t *testing.T) {
	gt.Value(t, usecase.ParseCreatedAt("bad")).Equal(time.Unix(0, 0).UTC())
	gt.Value(t, usecase.ParseCreatedAt("2023-01-01T00:00:00Z")).Equal(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))
}
