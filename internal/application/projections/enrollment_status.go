package projections

import (
	"context"

	"eagles/internal/application/sessions"
	"eagles/internal/domain/session"
)

// EnrollmentStatus is a player's standing in one session.
type EnrollmentStatus string

// Enrollment statuses, in precedence order.
const (
	StatusSignedUp   EnrollmentStatus = "signed_up"
	StatusWaitlisted EnrollmentStatus = "waitlisted"
	StatusFull       EnrollmentStatus = "full"
	StatusAvailable  EnrollmentStatus = "available"
)

// ErrSessionNotFound is the session store's not-found error.
var ErrSessionNotFound = sessions.ErrNotFound

// StatusFor derives username's status in s.
// PRE: none
// POST: signed_up beats waitlisted beats full beats available
func StatusFor(s session.Session, username string) EnrollmentStatus {
	switch {
	case contains(s.EnrolledPlayers, username):
		return StatusSignedUp
	case contains(s.Waitlist, username):
		return StatusWaitlisted
	case s.IsFull():
		return StatusFull
	default:
		return StatusAvailable
	}
}

// EnrollmentStatusQuery carries query parameters.
type EnrollmentStatusQuery struct {
	SessionID string
	Username  string
}

// EnrollmentStatusResult carries the query result.
type EnrollmentStatusResult struct {
	Status EnrollmentStatus `json:"status"`
	// WaitlistPosition is 1-based, 0 when not waitlisted.
	WaitlistPosition int `json:"waitlistPosition"`
	OpenSpots        int `json:"openSpots"`
}

// EnrollmentStatusDeps holds dependencies for EnrollmentStatus.
type EnrollmentStatusDeps struct {
	Sessions SessionReader
}

// QueryEnrollmentStatus reports a player's standing in a session.
// PRE: SessionID is non-empty
// POST: returns ErrSessionNotFound for unknown ids
func QueryEnrollmentStatus(_ context.Context, query EnrollmentStatusQuery, deps EnrollmentStatusDeps) (EnrollmentStatusResult, error) {
	for _, s := range deps.Sessions.List() {
		if s.ID != query.SessionID {
			continue
		}
		res := EnrollmentStatusResult{
			Status:    StatusFor(s, query.Username),
			OpenSpots: s.Capacity - len(s.EnrolledPlayers),
		}
		if res.OpenSpots < 0 {
			res.OpenSpots = 0
		}
		for i, u := range s.Waitlist {
			if u == query.Username {
				res.WaitlistPosition = i + 1
			}
		}
		return res, nil
	}
	return EnrollmentStatusResult{}, ErrSessionNotFound
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
