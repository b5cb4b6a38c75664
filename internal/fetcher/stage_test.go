package fetcher

import (
	"reflect"
	"testing"
)

func TestParseStagesAll(t *testing.T) {
	for _, list := range []string{"all", "", "  all  "} {
		set, err := ParseStages(list)
		if err != nil {
			t.Fatalf("ParseStages(%q): %v", list, err)
		}
		if len(set) != len(stageOrder) {
			t.Fatalf("ParseStages(%q) enabled %d stages, want %d", list, len(set), len(stageOrder))
		}
	}
}

func TestParseStagesSubset(t *testing.T) {
	set, err := ParseStages(" repos , owner ")
	if err != nil {
		t.Fatal(err)
	}
	if !set[StageRepos] || !set[StageOwner] {
		t.Fatalf("missing stages: %v", set)
	}
	if set[StageMembers] {
		t.Fatal("members must not be enabled")
	}
}

func TestParseStagesUnknown(t *testing.T) {
	if _, err := ParseStages("owner,bogus"); err == nil {
		t.Fatal("expected error for unknown stage")
	}
}

func TestOrderedIgnoresInputOrder(t *testing.T) {
	set, err := ParseStages("repo-pull-requests,owner,repos")
	if err != nil {
		t.Fatal(err)
	}
	want := []Stage{StageOwner, StageRepos, StageRepoPRs}
	if got := set.Ordered(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Ordered() = %v, want %v", got, want)
	}
}
