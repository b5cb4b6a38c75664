package fetcher

import (
	"fmt"
	"strings"
)

// Stage names one unit of orchestration work.
type Stage string

const (
	StageOwner          Stage = "owner"
	StageMembers        Stage = "members"
	StageMemberStats    Stage = "member-stats"
	StageRepos          Stage = "repos"
	StageRepoPRs        Stage = "repo-pull-requests"
	StageNonMembers     Stage = "non-members"
	StageNonMemberStats Stage = "non-member-stats"
)

// stageOrder is the fixed execution order. Later stages read fields
// populated by earlier ones, so enabled stages always run in this
// sequence regardless of how they were listed.
var stageOrder = []Stage{
	StageOwner,
	StageMembers,
	StageMemberStats,
	StageRepos,
	StageRepoPRs,
	StageNonMembers,
	StageNonMemberStats,
}

// StageSet is a validated set of enabled stages.
type StageSet map[Stage]bool

// ParseStages parses a comma-separated stage list. The single value
// "all" enables every stage; unknown names are rejected.
func ParseStages(list string) (StageSet, error) {
	set := StageSet{}
	if strings.TrimSpace(list) == "" || strings.TrimSpace(list) == "all" {
		for _, s := range stageOrder {
			set[s] = true
		}
		return set, nil
	}

	known := map[Stage]bool{}
	for _, s := range stageOrder {
		known[s] = true
	}

	for _, part := range strings.Split(list, ",") {
		name := Stage(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		if !known[name] {
			return nil, fmt.Errorf("unknown stage %q (valid: %s, or all)", name, stageList())
		}
		set[name] = true
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("no stages selected")
	}
	return set, nil
}

// Ordered returns the enabled stages in execution order.
func (s StageSet) Ordered() []Stage {
	out := []Stage{}
	for _, stage := range stageOrder {
		if s[stage] {
			out = append(out, stage)
		}
	}
	return out
}

func stageList() string {
	names := make([]string, len(stageOrder))
	for i, s := range stageOrder {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
