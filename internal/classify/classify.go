// Package classify folds pull request records into the snapshot's
// per-author aggregates.
package classify

import (
	"github.com/orgraph/orgraph/internal/domain"
)

// PullRequests folds one batch of pull request records into the
// snapshot. Records with no author (deleted accounts) or a bot author
// contribute nothing. Authors absent from the current members list are
// added to the non-member login set. Merged records extend the author's
// merge date range and, when repo is non-nil, its collaborator tally and
// last merge timestamp.
//
// Membership is evaluated against the members list as it stands now; a
// later members refresh does not retroactively reclassify.
func PullRequests(snap *domain.Snapshot, repo *domain.Repo, prs []domain.PullRequest) {
	for _, pr := range prs {
		if pr.Author == nil || pr.Author.IsBot {
			continue
		}
		login := pr.Author.Login

		if !snap.HasMember(login) {
			snap.NonMemberLogins[login] = true
		}

		if pr.MergedAt == nil {
			continue
		}
		mergedAt := *pr.MergedAt

		if dates, ok := snap.PRDates[login]; ok {
			if mergedAt.Before(dates.Earliest) {
				dates.Earliest = mergedAt
			}
			if mergedAt.After(dates.Latest) {
				dates.Latest = mergedAt
			}
		} else {
			snap.PRDates[login] = &domain.DateRange{Earliest: mergedAt, Latest: mergedAt}
		}

		if repo != nil {
			if repo.Collaborators == nil {
				repo.Collaborators = map[string]int{}
			}
			repo.Collaborators[login]++

			if repo.LastUserPRMergedAt == nil || mergedAt.After(*repo.LastUserPRMergedAt) {
				t := mergedAt
				repo.LastUserPRMergedAt = &t
			}
		}
	}
}
