package usecase_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/idconsole/pkg/domain/model"
	"github.com/secmon-lab/idconsole/pkg/usecase"
)

func TestJoinUsers(t *testing.T) {
	t.Run("resolves roles teams and projects", func(t *testing.T) {
		users := []*model.RawUser{{
			Metadata: model.ObjectMeta{UID: "u1", CreationTimestamp: "2023-01-01T00:00:00Z"},
			Spec: model.RawUserSpec{
				FirstName: "Ann",
				LastName:  "Lee",
				EmailID:   "ann@example.com",
				Roles:     []model.RoleID{"r1"},
			},
			Status: model.RawUserStatus{IsActive: true, LastSignIn: model.ParseSignInTime("Never")},
		}}
		roles := []*model.RawRole{rawRole("r1", "Admin", "admin")}
		teams := []*model.RawTeam{rawTeam("Platform", []model.UserID{"u1"}, "proj-x")}

		result := usecase.JoinUsers(users, roles, teams)
		gt.Array(t, result).Length(1).Required()

		u := result[0]
		gt.Value(t, u.ID).Equal(model.UserID("u1"))
		gt.Value(t, u.FullName).Equal("Ann Lee")
		gt.Value(t, u.Email).Equal("ann@example.com")
		gt.Bool(t, u.IsActive).True()
		gt.Value(t, u.RoleNames).Equal([]string{"Admin"})
		gt.Value(t, u.TeamNames).Equal([]string{"Platform"})
		gt.Value(t, u.ProjectNames).Equal([]string{"proj-x"})
		gt.Bool(t, u.LastSignIn.IsNever()).True()
		gt.Value(t, u.LastSignIn.String()).Equal("Never")
		gt.Value(t, u.CreatedAt).Equal("2023-01-01T00:00:00Z")
	})

	t.Run("unknown role id passes through", func(t *testing.T) {
		users := []*model.RawUser{rawUser("u1", "A", "B", "r1", "r-missing")}
		roles := []*model.RawRole{rawRole("r1", "Admin", "admin")}

		result := usecase.JoinUsers(users, roles, nil)
		gt.Value(t, result[0].RoleNames).Equal([]string{"Admin", "r-missing"})
	})

	t.Run("role without display name uses canonical name", func(t *testing.T) {
		users := []*model.RawUser{rawUser("u1", "A", "B", "r1")}
		roles := []*model.RawRole{rawRole("r1", "", "viewer")}

		result := usecase.JoinUsers(users, roles, nil)
		gt.Value(t, result[0].RoleNames).Equal([]string{"viewer"})
	})

	t.Run("team names keep duplicates in team order", func(t *testing.T) {
		users := []*model.RawUser{rawUser("u1", "A", "B")}
		teams := []*model.RawTeam{
			rawTeam("Ops", []model.UserID{"u1"}),
			rawTeam("Dev", []model.UserID{"u2", "u1"}),
			rawTeam("Ops", []model.UserID{"u1"}),
		}

		result := usecase.JoinUsers(users, nil, teams)
		gt.Value(t, result[0].TeamNames).Equal([]string{"Ops", "Dev", "Ops"})
	})

	t.Run("project names are deduplicated in first seen order", func(t *testing.T) {
		users := []*model.RawUser{rawUser("u1", "A", "B")}
		teams := []*model.RawTeam{
			rawTeam("Ops", []model.UserID{"u1"}, "p2", "p1"),
			rawTeam("Empty", []model.UserID{"u1"}),
			rawTeam("Dev", []model.UserID{"u1"}, "p1", "p3"),
		}

		result := usecase.JoinUsers(users, nil, teams)
		gt.Value(t, result[0].ProjectNames).Equal([]string{"p2", "p1", "p3"})
		gt.Value(t, result[0].TeamNames).Equal([]string{"Ops", "Empty", "Dev"})
	})

	t.Run("users without memberships get empty lists", func(t *testing.T) {
		users := []*model.RawUser{rawUser("u1", "A", "B")}

		result := usecase.JoinUsers(users, nil, []*model.RawTeam{rawTeam("Ops", []model.UserID{"u9"}, "p")})
		gt.Value(t, result[0].RoleNames).Equal([]string{})
		gt.Value(t, result[0].TeamNames).Equal([]string{})
		gt.Value(t, result[0].ProjectNames).Equal([]string{})
	})

	t.Run("output preserves user order", func(t *testing.T) {
		users := []*model.RawUser{
			rawUser("u3", "C", "C"),
			rawUser("u1", "A", "A"),
			rawUser("u2", "B", "B"),
		}

		result := usecase.JoinUsers(users, nil, nil)
		gt.Array(t, result).Length(3).Required()
		gt.Value(t, result[0].ID).Equal(model.UserID("u3"))
		gt.Value(t, result[1].ID).Equal(model.UserID("u1"))
		gt.Value(t, result[2].ID).Equal(model.UserID("u2"))
	})

	t.Run("empty input yields empty output", func(t *testing.T) {
		result := usecase.JoinUsers(nil, nil, nil)
		gt.Bool(t, result != nil).True()
		gt.Array(t, result).Length(0)
	})
}
