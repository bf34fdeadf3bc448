package session

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"eagles/internal/domain/player"
)

// Skill weights used for team balancing.
const (
	WeightBeginner     = 1
	WeightIntermediate = 2
	WeightAdvanced     = 3
	MaxSkillWeight     = WeightAdvanced
)

// SkillWeight maps a skill level to its balancing weight.
// Unset or unknown levels weigh the same as a beginner.
func SkillWeight(level string) int {
	switch level {
	case player.SkillIntermediate:
		return WeightIntermediate
	case player.SkillAdvanced:
		return WeightAdvanced
	default:
		return WeightBeginner
	}
}

// Team assignment errors
var (
	ErrNotOnRoster         = errors.New("team member is not enrolled in the session")
	ErrDuplicateTeamMember = errors.New("player is assigned to a team more than once")
	ErrTeamsIncomplete     = errors.New("teams must include every enrolled player")
)

// ValidateTeams checks that teamA and teamB split enrolled between them:
// every member is enrolled, nobody is listed twice, and nobody is left out.
// PRE: enrolled is duplicate-free
// POST: ErrTeamsIncomplete signals a roster that changed since the teams were drawn
func ValidateTeams(enrolled, teamA, teamB []string) error {
	seen := make(map[string]bool, len(enrolled))
	for _, team := range [][]string{teamA, teamB} {
		for _, username := range team {
			if indexOf(enrolled, username) < 0 {
				return fmt.Errorf("%w: %s", ErrNotOnRoster, username)
			}
			if seen[username] {
				return fmt.Errorf("%w: %s", ErrDuplicateTeamMember, username)
			}
			seen[username] = true
		}
	}
	if len(seen) != len(enrolled) {
		return ErrTeamsIncomplete
	}
	return nil
}

type weighted struct {
	username string
	weight   int
}

// BalanceTeams splits players into two teams of similar total skill weight.
// Players are shuffled with rng, stably sorted by descending weight and dealt
// greedily to whichever team currently weighs less (ties go to team A).
// PRE: rng is non-nil; weightOf returns a positive weight for any username
// POST: len(teamA)+len(teamB) == len(players); |sum(A)-sum(B)| <= max single weight
// INVARIANT: players is not mutated
func BalanceTeams(players []string, weightOf func(string) int, rng *rand.Rand) (teamA, teamB []string) {
	pool := make([]weighted, len(players))
	for i, username := range players {
		pool[i] = weighted{username: username, weight: weightOf(username)}
	}

	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	sort.SliceStable(pool, func(i, j int) bool { return pool[i].weight > pool[j].weight })

	teamA = []string{}
	teamB = []string{}
	sumA, sumB := 0, 0
	for _, p := range pool {
		if sumA <= sumB {
			teamA = append(teamA, p.username)
			sumA += p.weight
		} else {
			teamB = append(teamB, p.username)
			sumB += p.weight
		}
	}
	return teamA, teamB
}

// SwapPlayers exchanges x and y between the two teams, keeping positions.
// Either x or y may be the team A member. When the pair does not straddle the
// two teams the input is returned unchanged and swapped is false.
// PRE: none
// POST: on success x and y have traded places; all other members are fixed
func SwapPlayers(teamA, teamB []string, x, y string) (newA, newB []string, swapped bool) {
	newA = append([]string{}, teamA...)
	newB = append([]string{}, teamB...)

	ai, bi := indexOf(newA, x), indexOf(newB, y)
	if ai < 0 || bi < 0 {
		ai, bi = indexOf(newA, y), indexOf(newB, x)
	}
	if ai < 0 || bi < 0 {
		return newA, newB, false
	}
	newA[ai], newB[bi] = newB[bi], newA[ai]
	return newA, newB, true
}

// TeamWeight sums the weights of a team's members.
func TeamWeight(team []string, weightOf func(string) int) int {
	total := 0
	for _, username := range team {
		total += weightOf(username)
	}
	return total
}
