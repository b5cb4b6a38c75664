package domain

import "time"

// Page is one page of a cursor-paginated resource. NextCursor is opaque:
// callers thread it back into the next fetch without inspecting it.
type Page[T any] struct {
	Items      []T
	NextCursor string
	HasMore    bool
}

// PRAuthor identifies the author of a pull request.
type PRAuthor struct {
	Login string
	IsBot bool
}

// PullRequest is the wire record consumed by classification. Author is
// nil for deleted (ghost) accounts; MergedAt is nil for unmerged PRs.
type PullRequest struct {
	Author   *PRAuthor
	MergedAt *time.Time
}
