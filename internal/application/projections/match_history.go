package projections

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// NoScoreLabel is shown for past matches without a reported result.
const NoScoreLabel = "No score reported"

// MatchHistoryQuery carries query parameters.
type MatchHistoryQuery struct{}

// MatchRecord is one past match.
type MatchRecord struct {
	SessionSummary
	TeamA      []string `json:"teamA"`
	TeamB      []string `json:"teamB"`
	ScoreLabel string   `json:"scoreLabel"`
}

// MatchHistoryResult carries the query result.
type MatchHistoryResult struct {
	Matches []MatchRecord `json:"matches"`
}

// MatchHistoryDeps holds dependencies for MatchHistory.
type MatchHistoryDeps struct {
	Sessions SessionReader
	Now      func() time.Time
}

// QueryMatchHistory lists past sessions that had teams, newest first.
// PRE: none
// POST: sessions dated today or later, and sessions without teams, are excluded
func QueryMatchHistory(_ context.Context, _ MatchHistoryQuery, deps MatchHistoryDeps) (MatchHistoryResult, error) {
	now := time.Now()
	if deps.Now != nil {
		now = deps.Now()
	}

	matches := []MatchRecord{}
	for _, s := range deps.Sessions.List() {
		if !s.IsPast(now) || !s.HasTeams() {
			continue
		}
		label := NoScoreLabel
		if s.Score != nil {
			label = fmt.Sprintf("Team A %d - %d Team B", s.Score.TeamA, s.Score.TeamB)
		}
		matches = append(matches, MatchRecord{
			SessionSummary: summarize(s, ""),
			TeamA:          s.TeamA,
			TeamB:          s.TeamB,
			ScoreLabel:     label,
		})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Date > matches[j].Date })

	return MatchHistoryResult{Matches: matches}, nil
}
