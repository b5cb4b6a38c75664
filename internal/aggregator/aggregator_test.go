package aggregator

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

func TestSummarize(t *testing.T) {
	snap := domain.NewSnapshot()
	snap.Org = &domain.Org{Login: "acme"}
	snap.Members = []*domain.User{{Login: "a"}, {Login: "b"}}
	snap.Repos = []*domain.Repo{
		{Name: "widgets", Collaborators: map[string]int{"a": 3, "c": 1}},
		{Name: "gadgets", Collaborators: map[string]int{"a": 2, "b": 5}},
	}
	snap.NonMemberLogins = map[string]bool{"c": true}
	snap.PRDates = map[string]*domain.DateRange{
		"a": {Earliest: ts("2021-05-01"), Latest: ts("2023-02-01")},
		"b": {Earliest: ts("2022-01-01"), Latest: ts("2024-06-01")},
	}

	s := Summarize(snap)

	if s.Owner != "acme" || s.Kind != "org" {
		t.Fatalf("owner = %s/%s", s.Owner, s.Kind)
	}
	if s.Members != 2 || s.Repos != 2 || s.NonMembers != 1 {
		t.Fatalf("counts = %d/%d/%d", s.Members, s.Repos, s.NonMembers)
	}
	if s.TotalMergedPRs != 11 {
		t.Fatalf("totalMergedPRs = %d, want 11", s.TotalMergedPRs)
	}
	if s.ActiveFrom == nil || !s.ActiveFrom.Equal(ts("2021-05-01")) {
		t.Fatalf("activeFrom = %v", s.ActiveFrom)
	}
	if s.ActiveTo == nil || !s.ActiveTo.Equal(ts("2024-06-01")) {
		t.Fatalf("activeTo = %v", s.ActiveTo)
	}

	// a has 5 merged PRs across both repos and sorts before b on the tie
	want := []Collaborator{{"a", 5}, {"b", 5}, {"c", 1}}
	if len(s.TopCollaborators) != len(want) {
		t.Fatalf("topCollaborators = %+v", s.TopCollaborators)
	}
	for i, c := range want {
		if s.TopCollaborators[i] != c {
			t.Fatalf("topCollaborators[%d] = %+v, want %+v", i, s.TopCollaborators[i], c)
		}
	}
}

func TestSummarizeEmptySnapshot(t *testing.T) {
	s := Summarize(domain.NewSnapshot())
	if s.Owner != "" || s.TotalMergedPRs != 0 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if s.ActiveFrom != nil || s.ActiveTo != nil {
		t.Fatal("empty snapshot must have no active span")
	}
	if s.TopCollaborators == nil {
		t.Fatal("topCollaborators must be non-nil for JSON encoding")
	}
}

func TestSummarizeUserMode(t *testing.T) {
	snap := domain.NewSnapshot()
	snap.User = &domain.User{Login: "solo"}
	s := Summarize(snap)
	if s.Owner != "solo" || s.Kind != "user" {
		t.Fatalf("owner = %s/%s", s.Owner, s.Kind)
	}
}

func TestRepoCollaboratorsSorted(t *testing.T) {
	repo := &domain.Repo{
		Name:          "widgets",
		Collaborators: map[string]int{"x": 1, "y": 9, "z": 9},
	}
	got := RepoCollaborators(repo)
	want := []Collaborator{{"y", 9}, {"z", 9}, {"x", 1}}
	if len(got) != len(want) {
		t.Fatalf("got %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}
