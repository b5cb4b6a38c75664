package fetcher

import (
	"context"

	"github.com/orgraph/orgraph/internal/domain"
)

// PageFunc fetches one page of a resource for the given opaque cursor.
type PageFunc[T any] func(ctx context.Context, cursor string) (domain.Page[T], error)

// EachPage drives a paginated resource to exhaustion, starting from an
// empty cursor and threading each NextCursor back unchanged. The fold
// callback runs once per page; any error from fetch or fold stops the
// loop and is returned to the caller, which decides whether to skip or
// abort.
func EachPage[T any](ctx context.Context, fetch PageFunc[T], fold func(items []T) error) error {
	cursor := ""
	for {
		page, err := fetch(ctx, cursor)
		if err != nil {
			return err
		}
		if err := fold(page.Items); err != nil {
			return err
		}
		if !page.HasMore {
			return nil
		}
		cursor = page.NextCursor
	}
}
