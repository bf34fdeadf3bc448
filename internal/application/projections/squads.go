package projections

import (
	"context"
	"sort"
)

// SquadsQuery carries query parameters.
type SquadsQuery struct{}

// SquadRow is one standing club squad.
type SquadRow struct {
	Name    string   `json:"name"`
	Captain string   `json:"captain,omitempty"`
	Players []string `json:"players"`
}

// SquadsResult carries the query result.
type SquadsResult struct {
	Squads []SquadRow `json:"squads"`
}

// SquadsDeps holds dependencies for Squads.
type SquadsDeps struct {
	Users    UserReader
	Captains map[string]string // squad name to captain username
}

// QuerySquads groups registered players by the squads listed on their profiles.
// PRE: none
// POST: squads sorted by name; players in registration order; a captain who is
// no longer a member is not reported
func QuerySquads(_ context.Context, _ SquadsQuery, deps SquadsDeps) (SquadsResult, error) {
	byName := map[string]*SquadRow{}
	for _, u := range deps.Users.Users() {
		for _, name := range u.Teams {
			row, ok := byName[name]
			if !ok {
				row = &SquadRow{Name: name, Players: []string{}}
				byName[name] = row
			}
			row.Players = append(row.Players, u.Username)
		}
	}

	result := SquadsResult{Squads: make([]SquadRow, 0, len(byName))}
	for _, row := range byName {
		if captain := deps.Captains[row.Name]; captain != "" {
			for _, p := range row.Players {
				if p == captain {
					row.Captain = captain
					break
				}
			}
		}
		result.Squads = append(result.Squads, *row)
	}
	sort.Slice(result.Squads, func(i, j int) bool { return result.Squads[i].Name < result.Squads[j].Name })
	return result, nil
}
