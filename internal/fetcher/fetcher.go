// Package fetcher sequences the snapshot stages: owner, members,
// member-stats, repos, repo-pull-requests, non-members and
// non-member-stats, checkpointing the snapshot after every remote
// call's worth of work.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/orgraph/orgraph/internal/classify"
	"github.com/orgraph/orgraph/internal/collector"
	"github.com/orgraph/orgraph/internal/domain"
	"github.com/orgraph/orgraph/internal/storage"
)

// Options configures one orchestrator run.
type Options struct {
	// Owner is the organization or user login to aggregate
	Owner string

	// Kind selects whether Owner names an organization or a user
	Kind domain.OwnerKind

	// Stages is the validated set of enabled stages
	Stages StageSet

	// Visibility filters the repos stage: "PUBLIC", "PRIVATE" or ""
	Visibility string
}

// Skipped records one item that a stage gave up on. Per-repo pull
// request failures and per-login user lookups are expected partial-data
// conditions and are reported here instead of aborting the run.
type Skipped struct {
	Stage Stage
	Item  string
	Err   error
}

// Fetcher drives the stage pipeline against one snapshot store.
type Fetcher struct {
	collector collector.Collector
	store     storage.Store
}

// New creates a fetcher
func New(c collector.Collector, s storage.Store) *Fetcher {
	return &Fetcher{collector: c, store: s}
}

// checkpointError marks a snapshot save failure. Save failures are
// fatal even inside loops that otherwise isolate per-item errors.
type checkpointError struct {
	err error
}

func (e *checkpointError) Error() string { return "checkpoint failed: " + e.err.Error() }
func (e *checkpointError) Unwrap() error { return e.err }

// Run executes the enabled stages in dependency order. It returns the
// items skipped by recovering stages; a non-nil error means the run
// aborted and the remaining stages did not execute. The snapshot is
// checkpointed up to the last successful step either way.
func (f *Fetcher) Run(ctx context.Context, opts Options) ([]Skipped, error) {
	runID := uuid.New().String()[:8]
	log.Printf("[run %s] fetching %s %q, stages: %v", runID, opts.Kind, opts.Owner, opts.Stages.Ordered())

	snap, err := f.store.Load(ctx, opts.Owner)
	if err != nil {
		return nil, err
	}

	skipped := []Skipped{}
	for _, stage := range opts.Stages.Ordered() {
		start := time.Now()
		err := f.runStage(ctx, stage, opts, snap, &skipped)
		if err != nil {
			return skipped, fmt.Errorf("stage %s: %w", stage, err)
		}
		log.Printf("[run %s] stage %s done in %s", runID, stage, time.Since(start).Round(time.Millisecond))
	}

	log.Printf("[run %s] complete, %d item(s) skipped", runID, len(skipped))
	return skipped, nil
}

func (f *Fetcher) runStage(ctx context.Context, stage Stage, opts Options, snap *domain.Snapshot, skipped *[]Skipped) error {
	switch stage {
	case StageOwner:
		return f.runOwner(ctx, opts, snap)
	case StageMembers:
		return f.runMembers(ctx, opts, snap)
	case StageMemberStats:
		return f.runMemberStats(ctx, opts, snap)
	case StageRepos:
		return f.runRepos(ctx, opts, snap)
	case StageRepoPRs:
		return f.runRepoPullRequests(ctx, opts, snap, skipped)
	case StageNonMembers:
		return f.runNonMembers(ctx, opts, snap, skipped)
	case StageNonMemberStats:
		return f.runNonMemberStats(ctx, opts, snap)
	default:
		return fmt.Errorf("unknown stage %q", stage)
	}
}

// checkpoint rewrites the full snapshot to stable storage.
func (f *Fetcher) checkpoint(ctx context.Context, owner string, snap *domain.Snapshot) error {
	snap.LastUpdated = time.Now().UTC()
	if err := f.store.Save(ctx, owner, snap); err != nil {
		return &checkpointError{err: err}
	}
	return nil
}

// runOwner fetches the owner identity record and replaces the
// snapshot's owner variant.
func (f *Fetcher) runOwner(ctx context.Context, opts Options, snap *domain.Snapshot) error {
	if opts.Kind == domain.OwnerKindUser {
		user, err := f.collector.FetchUser(ctx, opts.Owner)
		if err != nil {
			return err
		}
		snap.User = user
		snap.Org = nil
	} else {
		org, err := f.collector.FetchOrg(ctx, opts.Owner)
		if err != nil {
			return err
		}
		snap.Org = org
		snap.User = nil
	}
	return f.checkpoint(ctx, opts.Owner, snap)
}

// runMembers fully replaces the members list. In user mode the sole
// member is the owner itself.
func (f *Fetcher) runMembers(ctx context.Context, opts Options, snap *domain.Snapshot) error {
	if opts.Kind == domain.OwnerKindUser {
		if snap.User == nil {
			user, err := f.collector.FetchUser(ctx, opts.Owner)
			if err != nil {
				return err
			}
			snap.User = user
		}
		snap.Members = []*domain.User{snap.User}
		return f.checkpoint(ctx, opts.Owner, snap)
	}

	snap.Members = []*domain.User{}
	fetch := func(ctx context.Context, cursor string) (domain.Page[*domain.User], error) {
		return f.collector.FetchMembers(ctx, opts.Owner, cursor)
	}
	return EachPage(ctx, fetch, func(items []*domain.User) error {
		snap.Members = append(snap.Members, items...)
		return f.checkpoint(ctx, opts.Owner, snap)
	})
}

// runMemberStats attaches PR statistics to each member. A failed stats
// fetch aborts the remaining stages; the snapshot keeps the stats
// gathered so far.
func (f *Fetcher) runMemberStats(ctx context.Context, opts Options, snap *domain.Snapshot) error {
	for _, member := range snap.Members {
		stats, err := f.collector.FetchPRStats(ctx, opts.Owner, member.Login)
		if err != nil {
			return fmt.Errorf("stats for %s: %w", member.Login, err)
		}
		member.PRs = stats
		if err := f.checkpoint(ctx, opts.Owner, snap); err != nil {
			return err
		}
	}
	return nil
}

// runRepos fully replaces the repo list.
func (f *Fetcher) runRepos(ctx context.Context, opts Options, snap *domain.Snapshot) error {
	snap.Repos = []*domain.Repo{}
	fetch := func(ctx context.Context, cursor string) (domain.Page[*domain.Repo], error) {
		return f.collector.FetchRepos(ctx, opts.Kind, opts.Owner, cursor, opts.Visibility)
	}
	return EachPage(ctx, fetch, func(items []*domain.Repo) error {
		snap.Repos = append(snap.Repos, items...)
		return f.checkpoint(ctx, opts.Owner, snap)
	})
}

// runRepoPullRequests paginates each repo's pull requests through the
// classifier. This is a destructive refresh at repo granularity: the
// repo's collaborator tallies and last merge timestamp are reset before
// its pages are re-folded, so reruns do not double-count. A fetch
// failure for one repo is logged and skipped; the loop moves on.
func (f *Fetcher) runRepoPullRequests(ctx context.Context, opts Options, snap *domain.Snapshot, skipped *[]Skipped) error {
	for _, repo := range snap.Repos {
		repo.Collaborators = nil
		repo.LastUserPRMergedAt = nil

		fetch := func(ctx context.Context, cursor string) (domain.Page[domain.PullRequest], error) {
			return f.collector.FetchPullRequests(ctx, opts.Owner, repo.Name, cursor)
		}
		err := EachPage(ctx, fetch, func(items []domain.PullRequest) error {
			classify.PullRequests(snap, repo, items)
			return f.checkpoint(ctx, opts.Owner, snap)
		})
		if err != nil {
			var cerr *checkpointError
			if errors.As(err, &cerr) {
				return err
			}
			log.Printf("Skipping pull requests for %s/%s: %v", opts.Owner, repo.Name, err)
			*skipped = append(*skipped, Skipped{Stage: StageRepoPRs, Item: repo.Name, Err: err})
		}
	}
	return nil
}

// runNonMembers fetches the profile of every accumulated non-member
// login. Lookups that fail (bot accounts without a user profile,
// deleted users) are logged and skipped; the login simply stays absent
// from the fetched list.
func (f *Fetcher) runNonMembers(ctx context.Context, opts Options, snap *domain.Snapshot, skipped *[]Skipped) error {
	logins := make([]string, 0, len(snap.NonMemberLogins))
	for login := range snap.NonMemberLogins {
		logins = append(logins, login)
	}
	sort.Strings(logins)

	snap.NonMembers = []*domain.User{}
	for _, login := range logins {
		user, err := f.collector.FetchUser(ctx, login)
		if err != nil {
			log.Printf("Skipping user %s: %v", login, err)
			*skipped = append(*skipped, Skipped{Stage: StageNonMembers, Item: login, Err: err})
			continue
		}
		snap.NonMembers = append(snap.NonMembers, user)
		if err := f.checkpoint(ctx, opts.Owner, snap); err != nil {
			return err
		}
	}
	return nil
}

// runNonMemberStats attaches PR statistics to each fetched non-member,
// with the same abort-on-failure posture as member-stats.
func (f *Fetcher) runNonMemberStats(ctx context.Context, opts Options, snap *domain.Snapshot) error {
	for _, user := range snap.NonMembers {
		stats, err := f.collector.FetchPRStats(ctx, opts.Owner, user.Login)
		if err != nil {
			return fmt.Errorf("stats for %s: %w", user.Login, err)
		}
		user.PRs = stats
		if err := f.checkpoint(ctx, opts.Owner, snap); err != nil {
			return err
		}
	}
	return nil
}
