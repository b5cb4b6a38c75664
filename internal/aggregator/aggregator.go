// Package aggregator derives read-only summary views from a snapshot
// document. It never mutates the snapshot.
package aggregator

import (
	"sort"
	"time"

	"github.com/orgraph/orgraph/internal/domain"
)

const topCollaboratorLimit = 10

// Collaborator pairs a login with its merged pull request count.
type Collaborator struct {
	Login     string `json:"login"`
	MergedPRs int    `json:"mergedPRs"`
}

// Summary is the owner-level rollup served by the API and CLI.
type Summary struct {
	Owner            string         `json:"owner"`
	Kind             string         `json:"kind"`
	LastUpdated      time.Time      `json:"lastUpdated"`
	Members          int            `json:"members"`
	Repos            int            `json:"repos"`
	NonMembers       int            `json:"nonMembers"`
	TotalMergedPRs   int            `json:"totalMergedPRs"`
	ActiveFrom       *time.Time     `json:"activeFrom,omitempty"`
	ActiveTo         *time.Time     `json:"activeTo,omitempty"`
	TopCollaborators []Collaborator `json:"topCollaborators"`
}

// Summarize computes the owner-level rollup for one snapshot.
func Summarize(snap *domain.Snapshot) *Summary {
	s := &Summary{
		LastUpdated:      snap.LastUpdated,
		Members:          len(snap.Members),
		Repos:            len(snap.Repos),
		NonMembers:       len(snap.NonMemberLogins),
		TopCollaborators: []Collaborator{},
	}

	switch {
	case snap.Org != nil:
		s.Owner = snap.Org.Login
		s.Kind = string(domain.OwnerKindOrg)
	case snap.User != nil:
		s.Owner = snap.User.Login
		s.Kind = string(domain.OwnerKindUser)
	}

	totals := map[string]int{}
	for _, repo := range snap.Repos {
		for login, count := range repo.Collaborators {
			totals[login] += count
			s.TotalMergedPRs += count
		}
	}
	s.TopCollaborators = rank(totals, topCollaboratorLimit)

	for _, dates := range snap.PRDates {
		if s.ActiveFrom == nil || dates.Earliest.Before(*s.ActiveFrom) {
			t := dates.Earliest
			s.ActiveFrom = &t
		}
		if s.ActiveTo == nil || dates.Latest.After(*s.ActiveTo) {
			t := dates.Latest
			s.ActiveTo = &t
		}
	}

	return s
}

// RepoCollaborators returns the repo's collaborators sorted by merged
// PR count descending, ties broken by login.
func RepoCollaborators(repo *domain.Repo) []Collaborator {
	return rank(repo.Collaborators, len(repo.Collaborators))
}

func rank(totals map[string]int, limit int) []Collaborator {
	out := make([]Collaborator, 0, len(totals))
	for login, count := range totals {
		out = append(out, Collaborator{Login: login, MergedPRs: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MergedPRs != out[j].MergedPRs {
			return out[i].MergedPRs > out[j].MergedPRs
		}
		return out[i].Login < out[j].Login
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
