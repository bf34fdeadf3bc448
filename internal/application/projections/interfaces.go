package projections

import (
	"eagles/internal/domain/player"
	"eagles/internal/domain/session"
)

// SessionReader exposes the session collection for queries.
type SessionReader interface {
	List() []session.Session
}

// UserReader exposes the user registry for queries.
type UserReader interface {
	Users() []player.User
}

// SessionSummary is the list-row view of a session.
type SessionSummary struct {
	ID         string           `json:"id"`
	Title      string           `json:"title"`
	Date       string           `json:"date"`
	Time       string           `json:"time"`
	Location   string           `json:"location"`
	Capacity   int              `json:"capacity"`
	Enrolled   int              `json:"enrolled"`
	Waitlisted int              `json:"waitlisted"`
	HasTeams   bool             `json:"hasTeams"`
	Status     EnrollmentStatus `json:"status,omitempty"`
	Score      *session.Score   `json:"score,omitempty"`
}

func summarize(s session.Session, username string) SessionSummary {
	sum := SessionSummary{
		ID:         s.ID,
		Title:      s.Title,
		Date:       s.Date,
		Time:       s.Time,
		Location:   s.Location,
		Capacity:   s.Capacity,
		Enrolled:   len(s.EnrolledPlayers),
		Waitlisted: len(s.Waitlist),
		HasTeams:   s.HasTeams(),
		Score:      s.Score,
	}
	if username != "" {
		sum.Status = StatusFor(s, username)
	}
	return sum
}
