package usecase

import (
	"github.com/secmon-lab/idconsole/pkg/domain/model"
)

// JoinUsers cross-references the three raw collections into display records.
//
// Role ids that are not in roles pass through as their literal id. A user gets one
// team name per roster entry naming them, duplicates included. Project names are the
// deduplicated union over every team listing the user, in first-seen order.
// The output preserves the order of users.
func JoinUsers(users []*model.RawUser, roles []*model.RawRole, teams []*model.RawTeam) []*model.ProcessedUser {
	roleNames := make(map[model.RoleID]string, len(roles))
	for _, r := range roles {
		roleNames[r.ID()] = r.Label()
	}

	teamNames := make(map[model.UserID][]string)
	projects := make(map[model.UserID]*orderedSet)
	for _, t := range teams {
		for _, member := range t.Spec.Users {
			teamNames[member.UID] = append(teamNames[member.UID], t.Metadata.Name)

			if len(t.Spec.Projects) == 0 {
				continue
			}
			set, ok := projects[member.UID]
			if !ok {
				set = newOrderedSet()
				projects[member.UID] = set
			}
			for _, p := range t.Spec.Projects {
				set.add(p.Name)
			}
		}
	}

	result := make([]*model.ProcessedUser, 0, len(users))
	for _, u := range users {
		resolvedRoles := make([]string, 0, len(u.Spec.Roles))
		for _, rid := range u.Spec.Roles {
			if name, ok := roleNames[rid]; ok && name != "" {
				resolvedRoles = append(resolvedRoles, name)
			} else {
				resolvedRoles = append(resolvedRoles, string(rid))
			}
		}

		resolvedTeams := []string{}
		if names, ok := teamNames[u.ID()]; ok {
			resolvedTeams = append(resolvedTeams, names...)
		}

		resolvedProjects := []string{}
		if set, ok := projects[u.ID()]; ok {
			resolvedProjects = set.values()
		}

		result = append(result, &model.ProcessedUser{
			ID:           u.ID(),
			Email:        u.Spec.EmailID,
			FirstName:    u.Spec.FirstName,
			LastName:     u.Spec.LastName,
			FullName:     u.Spec.FirstName + " " + u.Spec.LastName,
			IsActive:     u.Status.IsActive,
			LastSignIn:   u.Status.LastSignIn,
			RoleNames:    resolvedRoles,
			TeamNames:    resolvedTeams,
			ProjectNames: resolvedProjects,
			CreatedAt:    u.Metadata.CreationTimestamp,
		})
	}

	return result
}

type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{})}
}

func (s *orderedSet) add(v string) {
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}

func (s *orderedSet) values() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}
