package classify

import (
	"testing"
	"time"

	"github.com/orgraph/orgraph/internal/domain"
)

func ts(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func pr(login string, mergedAt *time.Time) domain.PullRequest {
	return domain.PullRequest{
		Author:   &domain.PRAuthor{Login: login},
		MergedAt: mergedAt,
	}
}

func merged(login, date string) domain.PullRequest {
	t := ts(date)
	return pr(login, &t)
}

func TestClassifyAggregates(t *testing.T) {
	snap := domain.NewSnapshot()
	snap.Members = []*domain.User{{Login: "a"}}
	repo := &domain.Repo{Name: "widgets"}

	PullRequests(snap, repo, []domain.PullRequest{
		merged("a", "2023-01-01"),
		merged("a", "2023-03-01"),
		pr("b", nil),
	})

	dates, ok := snap.PRDates["a"]
	if !ok {
		t.Fatal("expected prDates entry for a")
	}
	if !dates.Earliest.Equal(ts("2023-01-01")) || !dates.Latest.Equal(ts("2023-03-01")) {
		t.Fatalf("unexpected date range: %v - %v", dates.Earliest, dates.Latest)
	}
	if got := repo.Collaborators["a"]; got != 2 {
		t.Fatalf("expected 2 merged PRs for a, got %d", got)
	}

	// b has no merged PR: no dates, no collaborator entry, but it is
	// recorded as a non-member author
	if _, ok := snap.PRDates["b"]; ok {
		t.Fatal("unmerged PR must not create a prDates entry")
	}
	if _, ok := repo.Collaborators["b"]; ok {
		t.Fatal("unmerged PR must not create a collaborator entry")
	}
	if !snap.NonMemberLogins["b"] {
		t.Fatal("expected b in nonMemberLogins")
	}
	if snap.NonMemberLogins["a"] {
		t.Fatal("member a must not be in nonMemberLogins")
	}
}

func TestClassifyDateRangeOrdering(t *testing.T) {
	snap := domain.NewSnapshot()

	// Out-of-order delivery across batches
	PullRequests(snap, nil, []domain.PullRequest{merged("x", "2022-06-01")})
	PullRequests(snap, nil, []domain.PullRequest{merged("x", "2021-02-01")})
	PullRequests(snap, nil, []domain.PullRequest{merged("x", "2024-11-01")})

	for login, dates := range snap.PRDates {
		if dates.Earliest.After(dates.Latest) {
			t.Fatalf("earliest > latest for %s", login)
		}
	}
	dates := snap.PRDates["x"]
	if !dates.Earliest.Equal(ts("2021-02-01")) || !dates.Latest.Equal(ts("2024-11-01")) {
		t.Fatalf("unexpected range: %v - %v", dates.Earliest, dates.Latest)
	}
}

func TestClassifySkipsBotsAndGhosts(t *testing.T) {
	snap := domain.NewSnapshot()
	repo := &domain.Repo{Name: "widgets"}
	mergedAt := ts("2023-05-05")

	PullRequests(snap, repo, []domain.PullRequest{
		{Author: nil, MergedAt: &mergedAt},
		{Author: &domain.PRAuthor{Login: "dependabot", IsBot: true}, MergedAt: &mergedAt},
	})

	if len(snap.PRDates) != 0 {
		t.Fatalf("expected no prDates entries, got %d", len(snap.PRDates))
	}
	if len(snap.NonMemberLogins) != 0 {
		t.Fatalf("expected no nonMemberLogins, got %v", snap.NonMemberLogins)
	}
	if len(repo.Collaborators) != 0 {
		t.Fatalf("expected no collaborators, got %v", repo.Collaborators)
	}
	if repo.LastUserPRMergedAt != nil {
		t.Fatal("bot merge must not set lastUserPRMergedAt")
	}
}

func TestClassifyLastUserPRMergedAt(t *testing.T) {
	snap := domain.NewSnapshot()
	repo := &domain.Repo{Name: "widgets"}

	PullRequests(snap, repo, []domain.PullRequest{
		merged("a", "2023-03-01"),
		merged("b", "2023-01-01"), // earlier, must not move the mark back
	})

	if repo.LastUserPRMergedAt == nil || !repo.LastUserPRMergedAt.Equal(ts("2023-03-01")) {
		t.Fatalf("unexpected lastUserPRMergedAt: %v", repo.LastUserPRMergedAt)
	}
}

func TestClassifyNonMemberDisjointFromMembers(t *testing.T) {
	snap := domain.NewSnapshot()
	snap.Members = []*domain.User{{Login: "m1"}, {Login: "m2"}}

	PullRequests(snap, nil, []domain.PullRequest{
		merged("m1", "2023-01-01"),
		merged("outsider", "2023-01-02"),
		merged("m2", "2023-01-03"),
	})

	for login := range snap.NonMemberLogins {
		if snap.HasMember(login) {
			t.Fatalf("login %s is both member and non-member", login)
		}
	}
	if !snap.NonMemberLogins["outsider"] {
		t.Fatal("expected outsider in nonMemberLogins")
	}
}

func TestClassifyWithoutRepoContext(t *testing.T) {
	snap := domain.NewSnapshot()

	PullRequests(snap, nil, []domain.PullRequest{merged("a", "2023-01-01")})

	if _, ok := snap.PRDates["a"]; !ok {
		t.Fatal("expected prDates entry without repo context")
	}
}

func TestClassifyCollaboratorCountsPositive(t *testing.T) {
	snap := domain.NewSnapshot()
	repo := &domain.Repo{Name: "widgets"}

	PullRequests(snap, repo, []domain.PullRequest{
		merged("a", "2023-01-01"),
		merged("b", "2023-02-01"),
		merged("a", "2023-03-01"),
		pr("c", nil),
	})

	for login, count := range repo.Collaborators {
		if count <= 0 {
			t.Fatalf("collaborator count for %s is %d", login, count)
		}
	}
	if repo.Collaborators["a"] != 2 || repo.Collaborators["b"] != 1 {
		t.Fatalf("unexpected counts: %v", repo.Collaborators)
	}
}
