package domain

import "time"

// OwnerKind selects whether the snapshot owner is an organization or a
// single user account.
type OwnerKind string

const (
	OwnerKindOrg  OwnerKind = "org"
	OwnerKindUser OwnerKind = "user"
)

// Org holds the identity record of an organization owner.
type Org struct {
	Login       string `json:"login"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// PRStats holds merged pull request search counts for one author within
// the owner's repositories.
type PRStats struct {
	Total    int `json:"total"`
	Last3Mo  int `json:"last3mo"`
	Last12Mo int `json:"last12mo"`
}

// User represents a GitHub user record: an organization member, a
// user-mode owner, or a non-member pull request author.
type User struct {
	Login        string   `json:"login"`
	Name         string   `json:"name,omitempty"`
	AvatarURL    string   `json:"avatarUrl,omitempty"`
	Followers    int      `json:"followers"`
	Following    int      `json:"following"`
	PublicRepos  int      `json:"publicRepos"`
	StarredRepos int      `json:"starredRepos"`
	PRs          *PRStats `json:"prs,omitempty"`
}

// DateRange tracks the earliest and latest merge timestamps observed for
// one author.
type DateRange struct {
	Earliest time.Time `json:"earliest"`
	Latest   time.Time `json:"latest"`
}

// Repo represents one repository of the owner. Collaborators and
// LastUserPRMergedAt are populated only by the repo-pull-requests stage.
type Repo struct {
	Name               string         `json:"name"`
	Description        string         `json:"description,omitempty"`
	IsArchived         bool           `json:"isArchived"`
	IsFork             bool           `json:"isFork"`
	CreatedAt          time.Time      `json:"createdAt"`
	PushedAt           *time.Time     `json:"pushedAt,omitempty"`
	Stargazers         int            `json:"stargazers"`
	Languages          []string       `json:"languages,omitempty"`
	TotalPRs           int            `json:"totalPRs"`
	Collaborators      map[string]int `json:"collaborators,omitempty"`
	LastUserPRMergedAt *time.Time     `json:"lastUserPRMergedAt,omitempty"`
}

// Snapshot is the full persisted aggregate for one owner. Exactly one of
// Org and User is set once the owner stage has run.
type Snapshot struct {
	LastUpdated     time.Time             `json:"lastUpdated"`
	Org             *Org                  `json:"org,omitempty"`
	User            *User                 `json:"user,omitempty"`
	Members         []*User               `json:"members"`
	Repos           []*Repo               `json:"repos"`
	NonMemberLogins map[string]bool       `json:"nonMemberLogins"`
	PRDates         map[string]*DateRange `json:"prDates"`
	NonMembers      []*User               `json:"nonMembers"`
}

// NewSnapshot returns an empty, fully initialized snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Members:         []*User{},
		Repos:           []*Repo{},
		NonMemberLogins: map[string]bool{},
		PRDates:         map[string]*DateRange{},
		NonMembers:      []*User{},
	}
}

// Normalize initializes any nil collections. Documents written before a
// stage has run may omit fields; consumers rely on non-nil maps.
func (s *Snapshot) Normalize() {
	if s.Members == nil {
		s.Members = []*User{}
	}
	if s.Repos == nil {
		s.Repos = []*Repo{}
	}
	if s.NonMemberLogins == nil {
		s.NonMemberLogins = map[string]bool{}
	}
	if s.PRDates == nil {
		s.PRDates = map[string]*DateRange{}
	}
	if s.NonMembers == nil {
		s.NonMembers = []*User{}
	}
}

// HasMember reports whether login belongs to the current members list.
func (s *Snapshot) HasMember(login string) bool {
	for _, m := range s.Members {
		if m.Login == login {
			return true
		}
	}
	return false
}

// RepoByName returns the repo with the given name, or nil.
func (s *Snapshot) RepoByName(name string) *Repo {
	for _, r := range s.Repos {
		if r.Name == name {
			return r
		}
	}
	return nil
}
