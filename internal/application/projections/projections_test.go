package projections

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"eagles/internal/application/listutil"
	"eagles/internal/domain/player"
	"eagles/internal/domain/session"
)

// mockSessions implements SessionReader for testing.
type mockSessions struct{ sessions []session.Session }

func (m mockSessions) List() []session.Session { return m.sessions }

// mockUsers implements UserReader for testing.
type mockUsers struct{ users []player.User }

func (m mockUsers) Users() []player.User { return m.users }

var fixedTime = time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

func sess(id, date string, capacity int, enrolled, waitlist []string) session.Session {
	if enrolled == nil {
		enrolled = []string{}
	}
	if waitlist == nil {
		waitlist = []string{}
	}
	return session.Session{
		ID: id, Title: "Session " + id, Date: date, Time: "18:00", Location: "Gym",
		Capacity: capacity, EnrolledPlayers: enrolled, Waitlist: waitlist,
	}
}

func withTeams(s session.Session, score *session.Score) session.Session {
	s.TeamA = []string{"a"}
	s.TeamB = []string{"b"}
	s.Score = score
	return s
}

// --- QueryEnrollmentStatus tests ---

// TestStatusFor tests badge precedence.
func TestStatusFor(t *testing.T) {
	full := sess("1", "2026-10-21", 1, []string{"ana"}, []string{"ben", "cat"})
	open := sess("2", "2026-10-21", 3, []string{"ana"}, nil)

	tests := []struct {
		name     string
		s        session.Session
		username string
		want     EnrollmentStatus
	}{
		{"enrolled", full, "ana", StatusSignedUp},
		{"waitlisted", full, "cat", StatusWaitlisted},
		{"full", full, "dan", StatusFull},
		{"available", open, "dan", StatusAvailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusFor(tt.s, tt.username); got != tt.want {
				t.Errorf("StatusFor() = %s, want %s", got, tt.want)
			}
		})
	}
}

// TestQueryEnrollmentStatus tests waitlist positions and open spots.
func TestQueryEnrollmentStatus(t *testing.T) {
	deps := EnrollmentStatusDeps{Sessions: mockSessions{[]session.Session{
		sess("1", "2026-10-21", 1, []string{"ana"}, []string{"ben", "cat"}),
	}}}

	res, err := QueryEnrollmentStatus(context.Background(), EnrollmentStatusQuery{SessionID: "1", Username: "cat"}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusWaitlisted || res.WaitlistPosition != 2 || res.OpenSpots != 0 {
		t.Errorf("result = %+v", res)
	}

	_, err = QueryEnrollmentStatus(context.Background(), EnrollmentStatusQuery{SessionID: "nope"}, deps)
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("error = %v, want ErrSessionNotFound", err)
	}
}

// --- QuerySessionList tests ---

// TestQuerySessionList tests the upcoming/past split and date ordering.
func TestQuerySessionList(t *testing.T) {
	deps := SessionListDeps{
		Sessions: mockSessions{[]session.Session{
			sess("today", "2026-10-19", 2, nil, nil),
			sess("soon", "2026-10-21", 2, []string{"ana"}, nil),
			sess("later", "2026-10-24", 2, nil, nil),
			sess("yesterday", "2026-10-18", 2, nil, nil),
			sess("lastweek", "2026-10-12", 2, nil, nil),
		}},
		Now: fixedNow,
	}

	up, err := QuerySessionList(context.Background(), SessionListQuery{Username: "ana"}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if up.View != ViewUpcoming {
		t.Errorf("View = %q, want upcoming", up.View)
	}
	wantIDs := []string{"later", "soon", "today"}
	if len(up.Sessions) != len(wantIDs) {
		t.Fatalf("upcoming = %d, want %d", len(up.Sessions), len(wantIDs))
	}
	for i, id := range wantIDs {
		if up.Sessions[i].ID != id {
			t.Errorf("upcoming[%d] = %s, want %s", i, up.Sessions[i].ID, id)
		}
	}
	if up.Sessions[1].Status != StatusSignedUp || up.Sessions[0].Status != StatusAvailable {
		t.Errorf("statuses = %s, %s", up.Sessions[0].Status, up.Sessions[1].Status)
	}

	past, _ := QuerySessionList(context.Background(), SessionListQuery{View: ViewPast}, deps)
	if len(past.Sessions) != 2 || past.Sessions[0].ID != "yesterday" {
		t.Errorf("past = %+v", past.Sessions)
	}
	if past.Sessions[0].Status != "" {
		t.Error("status should be empty without a username")
	}
}

// --- QueryMatchHistory tests ---

// TestQueryMatchHistory tests filtering and score labels.
func TestQueryMatchHistory(t *testing.T) {
	deps := MatchHistoryDeps{
		Sessions: mockSessions{[]session.Session{
			withTeams(sess("old", "2026-10-10", 2, nil, nil), nil),
			withTeams(sess("recent", "2026-10-17", 2, nil, nil), &session.Score{TeamA: 2, TeamB: 1}),
			sess("noteams", "2026-10-16", 2, nil, nil),
			withTeams(sess("today", "2026-10-19", 2, nil, nil), nil),
		}},
		Now: fixedNow,
	}

	res, err := QueryMatchHistory(context.Background(), MatchHistoryQuery{}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Matches) != 2 {
		t.Fatalf("matches = %d, want 2", len(res.Matches))
	}
	if res.Matches[0].ID != "recent" || res.Matches[0].ScoreLabel != "Team A 2 - 1 Team B" {
		t.Errorf("first = %+v", res.Matches[0])
	}
	if res.Matches[1].ScoreLabel != NoScoreLabel {
		t.Errorf("second label = %q", res.Matches[1].ScoreLabel)
	}
}

// --- QueryCalendar tests ---

// TestQueryCalendar tests month filtering and day grouping.
func TestQueryCalendar(t *testing.T) {
	deps := CalendarDeps{
		Sessions: mockSessions{[]session.Session{
			sess("b", "2026-10-21", 2, nil, nil),
			sess("a", "2026-10-05", 2, nil, nil),
			sess("c", "2026-10-21", 2, nil, nil),
			sess("nov", "2026-11-02", 2, nil, nil),
		}},
		Now: fixedNow,
	}

	res, err := QueryCalendar(context.Background(), CalendarQuery{}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Month != "2026-10" || len(res.Days) != 2 {
		t.Fatalf("result = %+v", res)
	}
	if res.Days[0].Date != "2026-10-05" || len(res.Days[1].Sessions) != 2 || res.Days[1].Sessions[0].ID != "b" {
		t.Errorf("days = %+v", res.Days)
	}

	nov, _ := QueryCalendar(context.Background(), CalendarQuery{Month: "2026-11"}, deps)
	if len(nov.Days) != 1 {
		t.Errorf("november days = %d, want 1", len(nov.Days))
	}

	if _, err := QueryCalendar(context.Background(), CalendarQuery{Month: "October"}, deps); !errors.Is(err, ErrInvalidMonth) {
		t.Errorf("error = %v, want ErrInvalidMonth", err)
	}
}

// --- QueryPlayerStats tests ---

func statsUser(name, skill string, played, wins, points int) player.User {
	u := player.New(name, skill, "")
	u.Stats = player.Stats{MatchesPlayed: played, Wins: wins, Losses: played - wins, PointsScored: points}
	return u
}

// TestQueryPlayerStats tests win rates, sorting, filtering and pagination.
func TestQueryPlayerStats(t *testing.T) {
	deps := PlayerStatsDeps{Users: mockUsers{[]player.User{
		statsUser("Manu", player.SkillAdvanced, 20, 15, 150),
		statsUser("player1", player.SkillIntermediate, 15, 8, 95),
		statsUser("player2", player.SkillBeginner, 3, 1, 12),
		statsUser("rookie", "", 0, 0, 0),
	}}}
	ctx := context.Background()

	res, err := QueryPlayerStats(ctx, PlayerStatsQuery{}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Rows) != 4 || res.Rows[0].Username != "Manu" {
		t.Fatalf("rows = %+v", res.Rows)
	}
	if res.Rows[1].WinRate != 53.3 || res.Rows[2].WinRate != 33.3 || res.Rows[3].WinRate != 0 {
		t.Errorf("win rates = %v, %v, %v", res.Rows[1].WinRate, res.Rows[2].WinRate, res.Rows[3].WinRate)
	}

	q := listutil.Parse(url.Values{"sort": {"points"}, "dir": {"desc"}, "per_page": {"10"}}, PlayerStatsColumns)
	res, _ = QueryPlayerStats(ctx, PlayerStatsQuery{Query: q}, deps)
	if res.Rows[0].Username != "Manu" || res.Rows[3].Username != "rookie" {
		t.Errorf("points desc = %s .. %s", res.Rows[0].Username, res.Rows[3].Username)
	}

	q = listutil.Parse(url.Values{"q": {"PLAYER"}, "skill": {player.SkillBeginner}}, PlayerStatsColumns)
	res, _ = QueryPlayerStats(ctx, PlayerStatsQuery{Query: q}, deps)
	if len(res.Rows) != 1 || res.Rows[0].Username != "player2" {
		t.Errorf("filtered rows = %+v", res.Rows)
	}

	q = listutil.Query{Page: 2, PerPage: 3}
	res, _ = QueryPlayerStats(ctx, PlayerStatsQuery{Query: q}, deps)
	if len(res.Rows) != 1 || res.PageInfo.TotalPages != 2 || res.PageInfo.Total != 4 {
		t.Errorf("page 2 = %+v / %+v", res.Rows, res.PageInfo)
	}
}

// --- QuerySquads tests ---

func squadUser(username string, teams ...string) player.User {
	return player.User{Username: username, Teams: teams}
}

// TestQuerySquads tests grouping by profile squads and captain reporting.
func TestQuerySquads(t *testing.T) {
	deps := SquadsDeps{
		Users: mockUsers{[]player.User{
			squadUser("Manu", "Eagles A"),
			squadUser("player1", "Eagles A"),
			squadUser("player3", "Eagles B", "Eagles A"),
			squadUser("rookie"),
		}},
		Captains: map[string]string{"Eagles A": "Manu", "Eagles B": "player4"},
	}

	res, err := QuerySquads(context.Background(), SquadsQuery{}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Squads) != 2 {
		t.Fatalf("squads = %+v, want 2", res.Squads)
	}
	a, b := res.Squads[0], res.Squads[1]
	if a.Name != "Eagles A" || a.Captain != "Manu" || len(a.Players) != 3 || a.Players[2] != "player3" {
		t.Errorf("Eagles A = %+v", a)
	}
	if b.Name != "Eagles B" || b.Captain != "" || len(b.Players) != 1 {
		t.Errorf("Eagles B = %+v, want no captain since player4 is not a member", b)
	}
}
