package usecase

import (
	"cmp"
	"slices"

	"github.com/secmon-lab/idconsole/pkg/domain/model"
)

// NameCount is a label with the number of users carrying it
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Stats summarizes the displayed set
type Stats struct {
	Total         int         `json:"total"`
	Active        int         `json:"active"`
	Inactive      int         `json:"inactive"`
	NeverSignedIn int         `json:"neverSignedIn"`
	TeamCount     int         `json:"teamCount"`
	Teams         []NameCount `json:"teams"`
	Roles         []NameCount `json:"roles"`
}

// ComputeStats counts users by status, sign-in, team and role.
// Team and role counts are ordered by count descending, then name.
func ComputeStats(users []*model.ProcessedUser) *Stats {
	stats := &Stats{Total: len(users)}
	teams := make(map[string]int)
	roles := make(map[string]int)

	for _, u := range users {
		if u.IsActive {
			stats.Active++
		} else {
			stats.Inactive++
		}
		if u.LastSignIn.IsNever() {
			stats.NeverSignedIn++
		}
		for _, t := range u.TeamNames {
			teams[t]++
		}
		for _, r := range u.RoleNames {
			roles[r]++
		}
	}

	stats.TeamCount = len(teams)
	stats.Teams = rankCounts(teams)
	stats.Roles = rankCounts(roles)
	return stats
}

func rankCounts(counts map[string]int) []NameCount {
	result := make([]NameCount, 0, len(counts))
	for name, n := range counts {
		result = append(result, NameCount{Name: name, Count: n})
	}
	slices.SortFunc(result, func(a, b NameCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return result
}
