package orchestrators

import (
	"context"

	"eagles/internal/domain/player"
	"eagles/internal/domain/session"
)

// SessionStore defines the session store operations used by orchestrators.
type SessionStore interface {
	Get(id string) (session.Session, bool)
	Enroll(ctx context.Context, id, username string) (session.EnrollResult, error)
	Unenroll(ctx context.Context, id, username string) (session.UnenrollOutcome, error)
	SetTeams(ctx context.Context, id string, teamA, teamB []string) (session.Session, error)
	SwapPlayers(ctx context.Context, id, x, y string) (session.Session, bool, error)
	ClearTeams(ctx context.Context, id string) (session.Session, error)
	RecordScore(ctx context.Context, id string, a, b int) (session.Session, error)
}

// PlayerDirectory defines the identity lookups used by orchestrators.
type PlayerDirectory interface {
	Lookup(username string) (player.User, bool)
	SkillLevel(username string) string
}

// TeamMetrics records team generation.
type TeamMetrics interface {
	RecordTeamsGenerated()
}
