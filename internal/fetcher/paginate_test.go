package fetcher

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/orgraph/orgraph/internal/domain"
)

func TestEachPageDrivesToExhaustion(t *testing.T) {
	pages := []domain.Page[int]{
		{Items: []int{1, 2}, NextCursor: "c1", HasMore: true},
		{Items: []int{3}, NextCursor: "c2", HasMore: true},
		{Items: []int{4, 5}, HasMore: false},
	}

	var cursors []string
	fetch := func(_ context.Context, cursor string) (domain.Page[int], error) {
		cursors = append(cursors, cursor)
		idx := 0
		if cursor != "" {
			n, err := strconv.Atoi(cursor[1:])
			if err != nil {
				t.Fatalf("unexpected cursor %q", cursor)
			}
			idx = n
		}
		return pages[idx], nil
	}

	var got []int
	err := EachPage(context.Background(), fetch, func(items []int) error {
		got = append(got, items...)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 5 {
		t.Fatalf("folded %d items, want 5", len(got))
	}
	if len(cursors) != 3 || cursors[0] != "" || cursors[1] != "c1" || cursors[2] != "c2" {
		t.Fatalf("cursor threading broken: %v", cursors)
	}
}

func TestEachPagePropagatesFetchError(t *testing.T) {
	boom := errors.New("boom")
	fetch := func(_ context.Context, _ string) (domain.Page[int], error) {
		return domain.Page[int]{}, boom
	}
	err := EachPage(context.Background(), fetch, func([]int) error { return nil })
	if !errors.Is(err, boom) {
		t.Fatalf("expected fetch error, got %v", err)
	}
}

func TestEachPagePropagatesFoldError(t *testing.T) {
	boom := errors.New("boom")
	fetch := func(_ context.Context, _ string) (domain.Page[int], error) {
		return domain.Page[int]{Items: []int{1}, HasMore: true}, nil
	}
	calls := 0
	err := EachPage(context.Background(), fetch, func([]int) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fold error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("fold called %d times, want 1", calls)
	}
}
