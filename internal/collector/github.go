package collector

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v55/github"
	"golang.org/x/oauth2"

	"github.com/orgraph/orgraph/internal/domain"
	apperrors "github.com/orgraph/orgraph/internal/errors"
)

// Page sizes per resource. Members mirror the directory's default page
// size; repos and pull requests use larger pages to reduce round-trips.
const (
	membersPageSize = 20
	reposPageSize   = 50
	prsPageSize     = 50
	topLanguages    = 5
)

// githubCollector implements Collector against the GitHub API. Paginated
// resources go through GraphQL (cursor-based); single-user profile
// lookups use the REST API.
type githubCollector struct {
	gql         *gqlClient
	rest        *github.Client
	rateLimiter RateLimiter
}

// NewGitHubCollector creates a new GitHub collector
func NewGitHubCollector(token string) Collector {
	ctx := context.Background()
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)

	return &githubCollector{
		gql:         &gqlClient{httpClient: tc},
		rest:        github.NewClient(tc),
		rateLimiter: NewRateLimiter(),
	}
}

type pageInfo struct {
	EndCursor   string `json:"endCursor"`
	HasNextPage bool   `json:"hasNextPage"`
}

type totalCount struct {
	TotalCount int `json:"totalCount"`
}

type searchCount struct {
	IssueCount int `json:"issueCount"`
}

// FetchOrg retrieves the identity record of an organization
func (c *githubCollector) FetchOrg(ctx context.Context, login string) (*domain.Org, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	query := `query ($login: String!) {
		organization(login: $login) {
			login
			name
			description
			avatarUrl
		}
	}`

	var result struct {
		Organization *struct {
			Login       string `json:"login"`
			Name        string `json:"name"`
			Description string `json:"description"`
			AvatarURL   string `json:"avatarUrl"`
		} `json:"organization"`
	}

	if err := c.gql.query(ctx, query, map[string]interface{}{"login": login}, &result); err != nil {
		return nil, fmt.Errorf("failed to fetch organization %s: %w", login, err)
	}
	if result.Organization == nil {
		return nil, apperrors.NewNotFoundError("organization " + login)
	}

	return &domain.Org{
		Login:       result.Organization.Login,
		Name:        result.Organization.Name,
		Description: result.Organization.Description,
		AvatarURL:   result.Organization.AvatarURL,
	}, nil
}

// FetchUser retrieves the profile of a single user
func (c *githubCollector) FetchUser(ctx context.Context, login string) (*domain.User, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	user, resp, err := c.rest.Users.Get(ctx, login)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, apperrors.NewNotFoundError("user " + login)
		}
		return nil, fmt.Errorf("failed to fetch user %s: %w", login, err)
	}
	c.updateRateLimitFromResponse(resp)

	return &domain.User{
		Login:       user.GetLogin(),
		Name:        user.GetName(),
		AvatarURL:   user.GetAvatarURL(),
		Followers:   user.GetFollowers(),
		Following:   user.GetFollowing(),
		PublicRepos: user.GetPublicRepos(),
	}, nil
}

// FetchMembers retrieves one page of organization members
func (c *githubCollector) FetchMembers(ctx context.Context, org, cursor string) (domain.Page[*domain.User], error) {
	var page domain.Page[*domain.User]

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return page, err
	}

	query := `query ($login: String!, $after: String, $pageSize: Int!) {
		organization(login: $login) {
			membersWithRole(first: $pageSize, after: $after) {
				pageInfo {
					endCursor
					hasNextPage
				}
				nodes {
					login
					name
					avatarUrl
					followers {
						totalCount
					}
					following {
						totalCount
					}
					repositories(isFork: false, privacy: PUBLIC) {
						totalCount
					}
					starredRepositories {
						totalCount
					}
				}
			}
		}
	}`

	variables := map[string]interface{}{
		"login":    org,
		"pageSize": membersPageSize,
	}
	if cursor != "" {
		variables["after"] = cursor
	}

	var result struct {
		Organization *struct {
			MembersWithRole struct {
				PageInfo pageInfo `json:"pageInfo"`
				Nodes    []struct {
					Login               string     `json:"login"`
					Name                string     `json:"name"`
					AvatarURL           string     `json:"avatarUrl"`
					Followers           totalCount `json:"followers"`
					Following           totalCount `json:"following"`
					Repositories        totalCount `json:"repositories"`
					StarredRepositories totalCount `json:"starredRepositories"`
				} `json:"nodes"`
			} `json:"membersWithRole"`
		} `json:"organization"`
	}

	if err := c.gql.query(ctx, query, variables, &result); err != nil {
		return page, fmt.Errorf("failed to fetch members for %s: %w", org, err)
	}
	if result.Organization == nil {
		return page, apperrors.NewNotFoundError("organization " + org)
	}

	conn := result.Organization.MembersWithRole
	for _, node := range conn.Nodes {
		page.Items = append(page.Items, &domain.User{
			Login:        node.Login,
			Name:         node.Name,
			AvatarURL:    node.AvatarURL,
			Followers:    node.Followers.TotalCount,
			Following:    node.Following.TotalCount,
			PublicRepos:  node.Repositories.TotalCount,
			StarredRepos: node.StarredRepositories.TotalCount,
		})
	}
	page.NextCursor = conn.PageInfo.EndCursor
	page.HasMore = conn.PageInfo.HasNextPage

	return page, nil
}

type repoConnection struct {
	Repositories struct {
		PageInfo pageInfo `json:"pageInfo"`
		Nodes    []struct {
			Name        string     `json:"name"`
			Description string     `json:"description"`
			IsArchived  bool       `json:"isArchived"`
			IsFork      bool       `json:"isFork"`
			CreatedAt   time.Time  `json:"createdAt"`
			PushedAt    *time.Time `json:"pushedAt"`
			Stargazers  int        `json:"stargazerCount"`
			Languages   struct {
				Nodes []struct {
					Name string `json:"name"`
				} `json:"nodes"`
			} `json:"languages"`
			PullRequests totalCount `json:"pullRequests"`
		} `json:"nodes"`
	} `json:"repositories"`
}

// FetchRepos retrieves one page of the owner's repositories
func (c *githubCollector) FetchRepos(ctx context.Context, kind domain.OwnerKind, login, cursor, visibility string) (domain.Page[*domain.Repo], error) {
	var page domain.Page[*domain.Repo]

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return page, err
	}

	rootField := "organization"
	if kind == domain.OwnerKindUser {
		rootField = "user"
	}

	query := fmt.Sprintf(`query ($login: String!, $after: String, $pageSize: Int!, $privacy: RepositoryPrivacy) {
		%s(login: $login) {
			repositories(first: $pageSize, after: $after, privacy: $privacy, ownerAffiliations: OWNER) {
				pageInfo {
					endCursor
					hasNextPage
				}
				nodes {
					name
					description
					isArchived
					isFork
					createdAt
					pushedAt
					stargazerCount
					languages(first: %d, orderBy: {field: SIZE, direction: DESC}) {
						nodes {
							name
						}
					}
					pullRequests {
						totalCount
					}
				}
			}
		}
	}`, rootField, topLanguages)

	variables := map[string]interface{}{
		"login":    login,
		"pageSize": reposPageSize,
	}
	if cursor != "" {
		variables["after"] = cursor
	}
	if visibility != "" {
		variables["privacy"] = visibility
	}

	var result struct {
		Organization *repoConnection `json:"organization"`
		User         *repoConnection `json:"user"`
	}

	if err := c.gql.query(ctx, query, variables, &result); err != nil {
		return page, fmt.Errorf("failed to fetch repositories for %s: %w", login, err)
	}

	conn := result.Organization
	if kind == domain.OwnerKindUser {
		conn = result.User
	}
	if conn == nil {
		return page, apperrors.NewNotFoundError(rootField + " " + login)
	}

	for _, node := range conn.Repositories.Nodes {
		repo := &domain.Repo{
			Name:        node.Name,
			Description: node.Description,
			IsArchived:  node.IsArchived,
			IsFork:      node.IsFork,
			CreatedAt:   node.CreatedAt,
			PushedAt:    node.PushedAt,
			Stargazers:  node.Stargazers,
			TotalPRs:    node.PullRequests.TotalCount,
		}
		for _, lang := range node.Languages.Nodes {
			repo.Languages = append(repo.Languages, lang.Name)
		}
		page.Items = append(page.Items, repo)
	}
	page.NextCursor = conn.Repositories.PageInfo.EndCursor
	page.HasMore = conn.Repositories.PageInfo.HasNextPage

	return page, nil
}

// FetchPullRequests retrieves one page of a repository's pull requests
func (c *githubCollector) FetchPullRequests(ctx context.Context, owner, repo, cursor string) (domain.Page[domain.PullRequest], error) {
	var page domain.Page[domain.PullRequest]

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return page, err
	}

	query := `query ($owner: String!, $name: String!, $after: String, $pageSize: Int!) {
		repository(owner: $owner, name: $name) {
			pullRequests(first: $pageSize, after: $after) {
				pageInfo {
					endCursor
					hasNextPage
				}
				nodes {
					mergedAt
					author {
						login
						__typename
					}
				}
			}
		}
	}`

	variables := map[string]interface{}{
		"owner":    owner,
		"name":     repo,
		"pageSize": prsPageSize,
	}
	if cursor != "" {
		variables["after"] = cursor
	}

	var result struct {
		Repository *struct {
			PullRequests struct {
				PageInfo pageInfo `json:"pageInfo"`
				Nodes    []struct {
					MergedAt *time.Time `json:"mergedAt"`
					Author   *struct {
						Login    string `json:"login"`
						TypeName string `json:"__typename"`
					} `json:"author"`
				} `json:"nodes"`
			} `json:"pullRequests"`
		} `json:"repository"`
	}

	if err := c.gql.query(ctx, query, variables, &result); err != nil {
		return page, fmt.Errorf("failed to fetch pull requests for %s/%s: %w", owner, repo, err)
	}
	if result.Repository == nil {
		return page, apperrors.NewNotFoundError("repository " + owner + "/" + repo)
	}

	conn := result.Repository.PullRequests
	for _, node := range conn.Nodes {
		pr := domain.PullRequest{MergedAt: node.MergedAt}
		if node.Author != nil {
			pr.Author = &domain.PRAuthor{
				Login: node.Author.Login,
				IsBot: node.Author.TypeName == "Bot",
			}
		}
		page.Items = append(page.Items, pr)
	}
	page.NextCursor = conn.PageInfo.EndCursor
	page.HasMore = conn.PageInfo.HasNextPage

	return page, nil
}

// FetchPRStats retrieves merged pull request counts for an author within
// the owner's repositories
func (c *githubCollector) FetchPRStats(ctx context.Context, owner, login string) (*domain.PRStats, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	query := `query ($all: String!, $recent: String!, $year: String!) {
		total: search(query: $all, first: 1, type: ISSUE) {
			issueCount
		}
		last3mo: search(query: $recent, first: 1, type: ISSUE) {
			issueCount
		}
		last12mo: search(query: $year, first: 1, type: ISSUE) {
			issueCount
		}
	}`

	base := fmt.Sprintf("is:pr org:%s author:%s", owner, login)
	now := time.Now()
	variables := map[string]interface{}{
		"all":    base,
		"recent": base + " created:>=" + now.AddDate(0, -3, 0).Format("2006-01-02"),
		"year":   base + " created:>=" + now.AddDate(0, -12, 0).Format("2006-01-02"),
	}

	var result struct {
		Total    searchCount `json:"total"`
		Last3Mo  searchCount `json:"last3mo"`
		Last12Mo searchCount `json:"last12mo"`
	}

	if err := c.gql.query(ctx, query, variables, &result); err != nil {
		return nil, fmt.Errorf("failed to fetch PR stats for %s in %s: %w", login, owner, err)
	}

	return &domain.PRStats{
		Total:    result.Total.IssueCount,
		Last3Mo:  result.Last3Mo.IssueCount,
		Last12Mo: result.Last12Mo.IssueCount,
	}, nil
}

// updateRateLimitFromResponse updates the rate limiter from API response
func (c *githubCollector) updateRateLimitFromResponse(resp *github.Response) {
	if resp != nil && resp.Rate.Remaining >= 0 {
		c.rateLimiter.UpdateLimit(resp.Rate.Remaining, resp.Rate.Reset.Time)
	}
}
