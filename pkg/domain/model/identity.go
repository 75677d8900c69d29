package model

// UserID is the upstream identifier of a user. It is also the primary key of the durable cache.
type UserID string

// RoleID is the upstream identifier of a role
type RoleID string

// TeamID is the upstream identifier of a team
type TeamID string

// ObjectMeta is the metadata block shared by every upstream resource
type ObjectMeta struct {
	UID               string            `json:"uid"`
	Name              string            `json:"name,omitempty"`
	CreationTimestamp string            `json:"creationTimestamp,omitempty"`
	Labels            map[string]string `json:"labels,omitempty"`
	Annotations       map[string]string `json:"annotations,omitempty"`
}

// RawUser is a user record as returned by the upstream API. It only lives during one sync attempt.
type RawUser struct {
	Metadata ObjectMeta    `json:"metadata"`
	Spec     RawUserSpec   `json:"spec"`
	Status   RawUserStatus `json:"status"`
}

type RawUserSpec struct {
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	EmailID   string   `json:"emailId"`
	Roles     []RoleID `json:"roles,omitempty"`
}

type RawUserStatus struct {
	IsActive   bool       `json:"isActive"`
	LastSignIn SignInTime `json:"lastSignIn"`
}

// ID returns the user identifier
func (u *RawUser) ID() UserID {
	return UserID(u.Metadata.UID)
}

// RawRole is a role record as returned by the upstream API
type RawRole struct {
	Metadata ObjectMeta  `json:"metadata"`
	Spec     RawRoleSpec `json:"spec"`
}

type RawRoleSpec struct {
	DisplayName string `json:"displayName,omitempty"`
}

// ID returns the role identifier
func (r *RawRole) ID() RoleID {
	return RoleID(r.Metadata.UID)
}

// Label returns the human readable name of the role, falling back to the canonical name
func (r *RawRole) Label() string {
	if r.Spec.DisplayName != "" {
		return r.Spec.DisplayName
	}
	return r.Metadata.Name
}

// RawTeam is a team summary record as returned by the upstream API
type RawTeam struct {
	Metadata ObjectMeta  `json:"metadata"`
	Spec     RawTeamSpec `json:"spec"`
}

type RawTeamSpec struct {
	Users    []TeamMember `json:"users,omitempty"`
	Projects []TeamProject `json:"projects,omitempty"`
}

// TeamMember is a member entry of a team roster
type TeamMember struct {
	UID  UserID `json:"uid"`
	Name string `json:"name,omitempty"`
}

// TeamProject is a project associated with a team
type TeamProject struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
}

// ProcessedUser is the denormalized, display ready user record
type ProcessedUser struct {
	ID           UserID     `json:"id"`
	Email        string     `json:"email"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	FullName     string     `json:"fullName"`
	IsActive     bool       `json:"isActive"`
	LastSignIn   SignInTime `json:"lastSignIn"`
	RoleNames    []string   `json:"roleNames"`
	TeamNames    []string   `json:"teamNames"`
	ProjectNames []string   `json:"projectNames"`
	CreatedAt    string     `json:"createdAt"`
}

// StatusLabel returns "Active" or "Inactive"
func (u *ProcessedUser) StatusLabel() string {
	if u.IsActive {
		return "Active"
	}
	return "Inactive"
}

// Clone returns a deep copy of u
func (u *ProcessedUser) Clone() *ProcessedUser {
	c := *u
	c.RoleNames = cloneStrings(u.RoleNames)
	c.TeamNames = cloneStrings(u.TeamNames)
	c.ProjectNames = cloneStrings(u.ProjectNames)
	return &c
}

func cloneStrings(src []string) []string {
	if src == nil {
		return nil
	}
	dst := make([]string, len(src))
	copy(dst, src)
	return dst
}
