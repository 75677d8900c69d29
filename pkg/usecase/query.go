package usecase

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/idconsole/pkg/domain/model"
)

// DefaultPerPage is the directory page size
const DefaultPerPage = 12

// SortKey selects the column a user listing is ordered by
type SortKey string

const (
	SortByLastSignIn SortKey = "lastSignIn"
	SortByCreatedAt  SortKey = "createdAt"
	SortByFullName   SortKey = "fullName"
	SortByEmail      SortKey = "email"
)

// SortOrder is asc or desc
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// UserQuery filters, orders and pages the displayed set
type UserQuery struct {
	Search  string
	SortBy  SortKey
	Order   SortOrder
	Page    int // 1-based
	PerPage int
}

// UserPage is one page of a user listing
type UserPage struct {
	Users      []*model.ProcessedUser `json:"users"`
	Total      int                    `json:"total"`
	Page       int                    `json:"page"`
	PerPage    int                    `json:"perPage"`
	TotalPages int                    `json:"totalPages"`
}

// Normalize fills defaults and validates q
func (q *UserQuery) Normalize() error {
	if q.SortBy == "" {
		q.SortBy = SortByLastSignIn
	}
	if q.Order == "" {
		q.Order = SortDesc
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PerPage == 0 {
		q.PerPage = DefaultPerPage
	}

	switch q.SortBy {
	case SortByLastSignIn, SortByCreatedAt, SortByFullName, SortByEmail:
	default:
		return goerr.Wrap(ErrInvalidSortKey, "unsupported sort key", goerr.V("sort", q.SortBy))
	}
	if q.Order != SortAsc && q.Order != SortDesc {
		return goerr.Wrap(ErrInvalidSortOrder, "unsupported sort order", goerr.V("order", q.Order))
	}
	if q.Page < 1 || q.PerPage < 1 {
		return goerr.Wrap(ErrInvalidPage, "page and per_page must be positive",
			goerr.V("page", q.Page),
			goerr.V("per_page", q.PerPage))
	}
	return nil
}

// QueryUsers applies q to users. users is not modified.
func QueryUsers(users []*model.ProcessedUser, q UserQuery) (*UserPage, error) {
	if err := q.Normalize(); err != nil {
		return nil, err
	}

	matched := FilterUsers(users, q.Search)
	SortUsers(matched, q.SortBy, q.Order)

	total := len(matched)
	page := &UserPage{
		Users:      []*model.ProcessedUser{},
		Total:      total,
		Page:       q.Page,
		PerPage:    q.PerPage,
		TotalPages: (total + q.PerPage - 1) / q.PerPage,
	}

	start := (q.Page - 1) * q.PerPage
	if start >= total {
		return page, nil
	}
	end := min(start+q.PerPage, total)
	page.Users = matched[start:end]
	return page, nil
}

// FilterUsers returns users whose full name, email or any team name contains term, case-insensitively
func FilterUsers(users []*model.ProcessedUser, term string) []*model.ProcessedUser {
	needle := strings.ToLower(term)
	result := make([]*model.ProcessedUser, 0, len(users))
	for _, u := range users {
		if matchUser(u, needle) {
			result = append(result, u)
		}
	}
	return result
}

func matchUser(u *model.ProcessedUser, needle string) bool {
	if needle == "" {
		return true
	}
	if strings.Contains(strings.ToLower(u.FullName), needle) ||
		strings.Contains(strings.ToLower(u.Email), needle) {
		return true
	}
	for _, t := range u.TeamNames {
		if strings.Contains(strings.ToLower(t), needle) {
			return true
		}
	}
	return false
}

// SortUsers orders users in place. Users without a sign-in sort as the Unix epoch.
func SortUsers(users []*model.ProcessedUser, key SortKey, order SortOrder) {
	compare := func(a, b *model.ProcessedUser) int {
		switch key {
		case SortByCreatedAt:
			return parseCreatedAt(a.CreatedAt).Compare(parseCreatedAt(b.CreatedAt))
		case SortByFullName:
			return cmp.Compare(a.FullName, b.FullName)
		case SortByEmail:
			return cmp.Compare(a.Email, b.Email)
		default:
			return a.LastSignIn.SortKey().Compare(b.LastSignIn.SortKey())
		}
	}

	slices.SortStableFunc(users, func(a, b *model.ProcessedUser) int {
		if order == SortAsc {
			return compare(a, b)
		}
		return compare(b, a)
	})
}

func parseCreatedAt(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Unix(0, 0).UTC()
	}
	return t
}
