package collector

import (
	"context"

	"github.com/orgraph/orgraph/internal/domain"
)

// Collector defines the interface to the remote directory API. Paginated
// operations fetch exactly one page per call; the cursor is opaque and is
// threaded back unchanged to retrieve the next page.
type Collector interface {
	// FetchOrg retrieves the identity record of an organization
	FetchOrg(ctx context.Context, login string) (*domain.Org, error)

	// FetchUser retrieves the profile of a single user
	FetchUser(ctx context.Context, login string) (*domain.User, error)

	// FetchMembers retrieves one page of organization members
	FetchMembers(ctx context.Context, org, cursor string) (domain.Page[*domain.User], error)

	// FetchRepos retrieves one page of the owner's repositories,
	// optionally filtered by visibility ("PUBLIC", "PRIVATE" or "")
	FetchRepos(ctx context.Context, kind domain.OwnerKind, login, cursor, visibility string) (domain.Page[*domain.Repo], error)

	// FetchPullRequests retrieves one page of a repository's pull requests
	FetchPullRequests(ctx context.Context, owner, repo, cursor string) (domain.Page[domain.PullRequest], error)

	// FetchPRStats retrieves merged pull request counts for an author
	// within the owner's repositories
	FetchPRStats(ctx context.Context, owner, login string) (*domain.PRStats, error)
}
