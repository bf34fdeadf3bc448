package projections

import (
	"context"
	"sort"
	"strings"

	"eagles/internal/application/listutil"
)

// PlayerStatsColumns are the sort columns and exact-match filters of the statistics table.
var PlayerStatsColumns = listutil.Columns{
	Sort:    []string{"username", "matches", "wins", "winRate", "points"},
	Filters: []string{"skill", "role"},
}

// PlayerStatsQuery carries query parameters.
type PlayerStatsQuery struct {
	listutil.Query
}

// PlayerStatsRow is one line of the statistics table.
type PlayerStatsRow struct {
	Username      string  `json:"username"`
	SkillLevel    string  `json:"skillLevel,omitempty"`
	Role          string  `json:"role,omitempty"`
	MatchesPlayed int     `json:"matchesPlayed"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	WinRate       float64 `json:"winRate"`
	PointsScored  int     `json:"pointsScored"`
}

// PlayerStatsResult carries the query result.
type PlayerStatsResult struct {
	Rows     []PlayerStatsRow  `json:"rows"`
	PageInfo listutil.PageInfo `json:"pageInfo"`
}

// PlayerStatsDeps holds dependencies for PlayerStats.
type PlayerStatsDeps struct {
	Users UserReader
}

// QueryPlayerStats builds the statistics table for all registered players.
// PRE: none
// POST: rows are filtered, sorted (registration order by default) and paginated
// INVARIANT: WinRate is player.Stats.WinRate, 0 without matches
func QueryPlayerStats(_ context.Context, query PlayerStatsQuery, deps PlayerStatsDeps) (PlayerStatsResult, error) {
	rows := []PlayerStatsRow{}
	for _, u := range deps.Users.Users() {
		if !query.Matches(u.Username) || !query.Accepts("skill", u.SkillLevel) || !query.Accepts("role", u.Role) {
			continue
		}
		rows = append(rows, PlayerStatsRow{
			Username:      u.Username,
			SkillLevel:    u.SkillLevel,
			Role:          u.Role,
			MatchesPlayed: u.Stats.MatchesPlayed,
			Wins:          u.Stats.Wins,
			Losses:        u.Stats.Losses,
			WinRate:       u.Stats.WinRate(),
			PointsScored:  u.Stats.PointsScored,
		})
	}

	if less := statsLess(query.Sort); less != nil {
		sort.SliceStable(rows, func(i, j int) bool {
			if query.Desc {
				return less(rows[j], rows[i])
			}
			return less(rows[i], rows[j])
		})
	}

	page, info := listutil.Paginate(rows, query.Query)
	return PlayerStatsResult{Rows: page, PageInfo: info}, nil
}

func statsLess(column string) func(a, b PlayerStatsRow) bool {
	switch column {
	case "username":
		return func(a, b PlayerStatsRow) bool { return strings.ToLower(a.Username) < strings.ToLower(b.Username) }
	case "matches":
		return func(a, b PlayerStatsRow) bool { return a.MatchesPlayed < b.MatchesPlayed }
	case "wins":
		return func(a, b PlayerStatsRow) bool { return a.Wins < b.Wins }
	case "winRate":
		return func(a, b PlayerStatsRow) bool { return a.WinRate < b.WinRate }
	case "points":
		return func(a, b PlayerStatsRow) bool { return a.PointsScored < b.PointsScored }
	default:
		return nil
	}
}
