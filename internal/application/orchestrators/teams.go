package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"eagles/internal/application/sessions"
	"eagles/internal/domain/session"
)

var (
	// ErrSessionNotFound is the session store's not-found error.
	ErrSessionNotFound = sessions.ErrNotFound
	ErrTeamsRequired   = errors.New("teams must be generated before a score is recorded")
)

// generateAttempts bounds how often team generation redraws after the roster
// changed between reading it and storing the teams.
const generateAttempts = 3

// --- Generate Teams ---

// GenerateTeamsInput carries input for the generate teams orchestrator.
type GenerateTeamsInput struct {
	SessionID string
}

// GenerateTeamsDeps holds dependencies for GenerateTeams.
type GenerateTeamsDeps struct {
	Sessions SessionStore
	Players  PlayerDirectory
	Metrics  TeamMetrics // optional
	Rand     *rand.Rand  // optional; defaults to a time-seeded source
}

// GenerateTeamsResult carries the balanced teams and their total weights.
type GenerateTeamsResult struct {
	Session session.Session
	WeightA int
	WeightB int
}

// ExecuteGenerateTeams balances the enrolled players of a session into two teams.
// Players with no registered skill level weigh the same as a beginner.
// PRE: SessionID is non-empty
// POST: the session's teams partition its enrolled players; previous teams are replaced.
// A roster that keeps changing during generation yields session.ErrTeamsIncomplete.
func ExecuteGenerateTeams(ctx context.Context, input GenerateTeamsInput, deps GenerateTeamsDeps) (GenerateTeamsResult, error) {
	if input.SessionID == "" {
		return GenerateTeamsResult{}, errors.New("session ID is required")
	}

	rng := deps.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	weightOf := func(username string) int {
		return session.SkillWeight(deps.Players.SkillLevel(username))
	}

	var (
		teamA, teamB []string
		updated      session.Session
		err          error
	)
	for attempt := 1; attempt <= generateAttempts; attempt++ {
		sess, ok := deps.Sessions.Get(input.SessionID)
		if !ok {
			return GenerateTeamsResult{}, ErrSessionNotFound
		}
		teamA, teamB = session.BalanceTeams(sess.EnrolledPlayers, weightOf, rng)
		updated, err = deps.Sessions.SetTeams(ctx, input.SessionID, teamA, teamB)
		if !errors.Is(err, session.ErrTeamsIncomplete) && !errors.Is(err, session.ErrNotOnRoster) {
			break
		}
		slog.Warn("team_event", "event", "roster_changed", "session_id", input.SessionID, "attempt", attempt)
	}
	if err != nil {
		return GenerateTeamsResult{}, err
	}
	if deps.Metrics != nil {
		deps.Metrics.RecordTeamsGenerated()
	}

	result := GenerateTeamsResult{
		Session: updated,
		WeightA: session.TeamWeight(teamA, weightOf),
		WeightB: session.TeamWeight(teamB, weightOf),
	}
	slog.Info("team_event", "event", "teams_generated", "session_id", input.SessionID,
		"players", len(teamA)+len(teamB), "weight_a", result.WeightA, "weight_b", result.WeightB)
	return result, nil
}

// --- Swap Players ---

// SwapPlayersInput carries input for the swap players orchestrator.
type SwapPlayersInput struct {
	SessionID string
	PlayerX   string
	PlayerY   string
}

// SwapPlayersDeps holds dependencies for SwapPlayers.
type SwapPlayersDeps struct {
	Sessions SessionStore
}

// ExecuteSwapPlayers exchanges two players between the teams of a session.
// A pair that does not straddle both teams leaves the teams untouched and reports swapped=false.
// PRE: SessionID, PlayerX and PlayerY are non-empty
// POST: on swapped=true the players have traded places
func ExecuteSwapPlayers(ctx context.Context, input SwapPlayersInput, deps SwapPlayersDeps) (session.Session, bool, error) {
	if input.SessionID == "" || input.PlayerX == "" || input.PlayerY == "" {
		return session.Session{}, false, errors.New("session ID and both players are required")
	}
	return deps.Sessions.SwapPlayers(ctx, input.SessionID, input.PlayerX, input.PlayerY)
}

// --- Clear Teams ---

// ClearTeamsInput carries input for the clear teams orchestrator.
type ClearTeamsInput struct {
	SessionID string
}

// ClearTeamsDeps holds dependencies for ClearTeams.
type ClearTeamsDeps struct {
	Sessions SessionStore
}

// ExecuteClearTeams removes the team assignment of a session.
// PRE: SessionID is non-empty
// POST: the session has no teams; rosters are unchanged
func ExecuteClearTeams(ctx context.Context, input ClearTeamsInput, deps ClearTeamsDeps) (session.Session, error) {
	if input.SessionID == "" {
		return session.Session{}, errors.New("session ID is required")
	}
	return deps.Sessions.ClearTeams(ctx, input.SessionID)
}

// --- Record Score ---

// RecordScoreInput carries input for the record score orchestrator.
type RecordScoreInput struct {
	SessionID string
	TeamA     int
	TeamB     int
}

// RecordScoreDeps holds dependencies for RecordScore.
type RecordScoreDeps struct {
	Sessions SessionStore
}

// ExecuteRecordScore stores the match result of a session that has teams.
// PRE: SessionID is non-empty; scores are non-negative
// POST: the session carries the score
func ExecuteRecordScore(ctx context.Context, input RecordScoreInput, deps RecordScoreDeps) (session.Session, error) {
	if input.SessionID == "" {
		return session.Session{}, errors.New("session ID is required")
	}
	sess, ok := deps.Sessions.Get(input.SessionID)
	if !ok {
		return session.Session{}, ErrSessionNotFound
	}
	if !sess.HasTeams() {
		return session.Session{}, ErrTeamsRequired
	}
	return deps.Sessions.RecordScore(ctx, input.SessionID, input.TeamA, input.TeamB)
}
