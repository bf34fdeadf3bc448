package session

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Max length constants.
const (
	MinTitleLength    = 3
	MaxTitleLength    = 200
	MinLocationLength = 2
	MaxLocationLength = 200
	MaxNotesLength    = 4000
)

// DateLayout is the calendar-date wire format for Session.Date.
const DateLayout = "2006-01-02"

// EnrollResult is the outcome of an enrollment attempt.
type EnrollResult string

// Enrollment results
const (
	Enrolled        EnrollResult = "enrolled"
	SessionFull     EnrollResult = "session_full"
	AlreadyEnrolled EnrollResult = "already_enrolled"
)

// Domain errors
var (
	ErrTitleTooShort         = errors.New("title must be at least 3 characters")
	ErrLocationTooShort      = errors.New("location is required")
	ErrDateRequired          = errors.New("date is required")
	ErrInvalidDate           = errors.New("date must be YYYY-MM-DD")
	ErrTimeRequired          = errors.New("time is required")
	ErrInvalidTime           = errors.New("time must be HH:MM")
	ErrInvalidCapacity       = errors.New("capacity must be at least 1")
	ErrCapacityBelowEnrolled = errors.New("capacity cannot be lower than the number of enrolled players")
	ErrNegativeScore         = errors.New("score cannot be negative")
	ErrTeamsMismatch         = errors.New("teamA and teamB must be set together")
)

// Score is a reported match result.
type Score struct {
	TeamA int `json:"teamA" yaml:"teamA"`
	TeamB int `json:"teamB" yaml:"teamB"`
}

// Session is a scheduled club event with capacity-limited enrollment.
// INVARIANT: len(EnrolledPlayers) <= Capacity
// INVARIANT: EnrolledPlayers and Waitlist are disjoint and duplicate-free
// INVARIANT: TeamA and TeamB are either both nil or both set
type Session struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Date            string   `json:"date"`
	Time            string   `json:"time"`
	Location        string   `json:"location"`
	Capacity        int      `json:"capacity"`
	EnrolledPlayers []string `json:"enrolledPlayers"`
	Waitlist        []string `json:"waitlist"`
	TeamA           []string `json:"teamA"`
	TeamB           []string `json:"teamB"`
	Score           *Score   `json:"score,omitempty"`
	Notes           string   `json:"notes,omitempty"`
}

// NewSession carries the administrator-supplied fields for a new session.
type NewSession struct {
	Title    string `json:"title"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Location string `json:"location"`
	Capacity int    `json:"capacity"`
	Notes    string `json:"notes,omitempty"`
	Score    *Score `json:"score,omitempty"`
}

// Patch carries a partial session update. Nil fields are left untouched.
// ClearScore and ClearTeams remove the optional fields explicitly.
type Patch struct {
	Title      *string   `json:"title,omitempty"`
	Date       *string   `json:"date,omitempty"`
	Time       *string   `json:"time,omitempty"`
	Location   *string   `json:"location,omitempty"`
	Capacity   *int      `json:"capacity,omitempty"`
	Notes      *string   `json:"notes,omitempty"`
	Score      *Score    `json:"score,omitempty"`
	ClearScore bool      `json:"clearScore,omitempty"`
	TeamA      *[]string `json:"teamA"`
	TeamB      *[]string `json:"teamB"`
	ClearTeams bool      `json:"clearTeams,omitempty"`
}

// UnenrollOutcome describes what a withdrawal changed.
type UnenrollOutcome struct {
	WasEnrolled   bool
	WasWaitlisted bool
	Promoted      string // username moved from the waitlist head, empty if none
}

// FromNew builds a session with empty rosters from administrator input.
// PRE: id is non-empty
// POST: EnrolledPlayers and Waitlist are empty, non-nil slices
func FromNew(id string, n NewSession) Session {
	return Session{
		ID:              id,
		Title:           strings.TrimSpace(n.Title),
		Date:            NormalizeDate(n.Date),
		Time:            strings.TrimSpace(n.Time),
		Location:        strings.TrimSpace(n.Location),
		Capacity:        n.Capacity,
		EnrolledPlayers: []string{},
		Waitlist:        []string{},
		Score:           n.Score,
		Notes:           n.Notes,
	}
}

// Validate checks the session's descriptive fields and roster invariants.
// PRE: none
// POST: returns nil if valid, error describing the first violation otherwise
func (s *Session) Validate() error {
	if len(strings.TrimSpace(s.Title)) < MinTitleLength {
		return ErrTitleTooShort
	}
	if len(s.Title) > MaxTitleLength {
		return fmt.Errorf("title cannot exceed %d characters", MaxTitleLength)
	}
	if s.Date == "" {
		return ErrDateRequired
	}
	if _, err := time.Parse(DateLayout, s.Date); err != nil {
		return ErrInvalidDate
	}
	if s.Time == "" {
		return ErrTimeRequired
	}
	if _, err := time.Parse("15:04", s.Time); err != nil {
		return ErrInvalidTime
	}
	if len(strings.TrimSpace(s.Location)) < MinLocationLength {
		return ErrLocationTooShort
	}
	if len(s.Location) > MaxLocationLength {
		return fmt.Errorf("location cannot exceed %d characters", MaxLocationLength)
	}
	if len(s.Notes) > MaxNotesLength {
		return fmt.Errorf("notes cannot exceed %d characters", MaxNotesLength)
	}
	if s.Capacity < 1 {
		return ErrInvalidCapacity
	}
	if len(s.EnrolledPlayers) > s.Capacity {
		return ErrCapacityBelowEnrolled
	}
	if s.Score != nil && (s.Score.TeamA < 0 || s.Score.TeamB < 0) {
		return ErrNegativeScore
	}
	if (s.TeamA == nil) != (s.TeamB == nil) {
		return ErrTeamsMismatch
	}
	return nil
}

// Enroll signs a player up, waitlisting them when the session is full.
// PRE: username is non-empty
// POST: username appended to EnrolledPlayers (Enrolled) or Waitlist (SessionFull);
// nothing changes when the player is already on either list (AlreadyEnrolled)
func (s *Session) Enroll(username string) EnrollResult {
	if indexOf(s.EnrolledPlayers, username) >= 0 || indexOf(s.Waitlist, username) >= 0 {
		return AlreadyEnrolled
	}
	if len(s.EnrolledPlayers) < s.Capacity {
		s.EnrolledPlayers = append(s.EnrolledPlayers, username)
		return Enrolled
	}
	s.Waitlist = append(s.Waitlist, username)
	return SessionFull
}

// Unenroll removes a player from the roster and waitlist.
// If an enrolled player leaves and there is room, the head of the waitlist is promoted.
// PRE: username is non-empty
// POST: username on neither list; teams cleared if the player was enrolled
func (s *Session) Unenroll(username string) UnenrollOutcome {
	out := UnenrollOutcome{
		WasEnrolled:   indexOf(s.EnrolledPlayers, username) >= 0,
		WasWaitlisted: indexOf(s.Waitlist, username) >= 0,
	}

	s.EnrolledPlayers = without(s.EnrolledPlayers, username)
	s.Waitlist = without(s.Waitlist, username)

	if out.WasEnrolled && len(s.Waitlist) > 0 && len(s.EnrolledPlayers) < s.Capacity {
		out.Promoted = s.Waitlist[0]
		s.Waitlist = append([]string{}, s.Waitlist[1:]...)
		s.EnrolledPlayers = append(s.EnrolledPlayers, out.Promoted)
	}

	if out.WasEnrolled {
		s.TeamA = nil
		s.TeamB = nil
	}
	return out
}

// HasTeams reports whether team assignments are present.
func (s *Session) HasTeams() bool {
	return s.TeamA != nil && s.TeamB != nil
}

// IsFull reports whether every enrolled slot is taken.
func (s *Session) IsFull() bool {
	return len(s.EnrolledPlayers) >= s.Capacity
}

// IsPast reports whether the session's date is before today's date.
// A session taking place today still counts as upcoming.
// PRE: none
// POST: returns false for unparseable dates
func (s *Session) IsPast(now time.Time) bool {
	d, err := time.ParseInLocation(DateLayout, s.Date, now.Location())
	if err != nil {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return d.Before(today)
}

// Clone returns a deep copy so callers never share slice storage with a store.
func (s Session) Clone() Session {
	out := s
	out.EnrolledPlayers = append([]string{}, s.EnrolledPlayers...)
	out.Waitlist = append([]string{}, s.Waitlist...)
	if s.TeamA != nil {
		out.TeamA = append([]string{}, s.TeamA...)
	}
	if s.TeamB != nil {
		out.TeamB = append([]string{}, s.TeamB...)
	}
	if s.Score != nil {
		score := *s.Score
		out.Score = &score
	}
	return out
}

// Apply merges a patch into a copy of the session.
// PRE: none
// POST: Returns the merged session (not yet validated); the input is not modified
func Apply(s Session, p Patch) Session {
	out := s.Clone()
	if p.Title != nil {
		out.Title = strings.TrimSpace(*p.Title)
	}
	if p.Date != nil {
		out.Date = NormalizeDate(*p.Date)
	}
	if p.Time != nil {
		out.Time = strings.TrimSpace(*p.Time)
	}
	if p.Location != nil {
		out.Location = strings.TrimSpace(*p.Location)
	}
	if p.Capacity != nil {
		out.Capacity = *p.Capacity
	}
	if p.Notes != nil {
		out.Notes = *p.Notes
	}
	if p.ClearScore {
		out.Score = nil
	} else if p.Score != nil {
		score := *p.Score
		out.Score = &score
	}
	if p.ClearTeams {
		out.TeamA, out.TeamB = nil, nil
	} else {
		if p.TeamA != nil {
			out.TeamA = append([]string{}, (*p.TeamA)...)
		}
		if p.TeamB != nil {
			out.TeamB = append([]string{}, (*p.TeamB)...)
		}
	}
	return out
}

// NormalizeDate reduces an ISO timestamp to its calendar date.
// Values that already are YYYY-MM-DD, or that cannot be parsed, are returned trimmed.
func NormalizeDate(v string) string {
	v = strings.TrimSpace(v)
	if _, err := time.Parse(DateLayout, v); err == nil {
		return v
	}
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t.Format(DateLayout)
	}
	return v
}

func indexOf(list []string, v string) int {
	for i, item := range list {
		if item == v {
			return i
		}
	}
	return -1
}

func without(list []string, v string) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		if item != v {
			out = append(out, item)
		}
	}
	return out
}
