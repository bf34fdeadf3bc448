package session

import (
	"errors"
	"math/rand"
	"reflect"
	"sort"
	"testing"
)

func weightsFrom(levels map[string]string) func(string) int {
	return func(username string) int {
		return SkillWeight(levels[username])
	}
}

// TestSkillWeight tests the level to weight mapping.
func TestSkillWeight(t *testing.T) {
	tests := map[string]int{
		"beginner":     1,
		"intermediate": 2,
		"advanced":     3,
		"":             1,
		"wizard":       1,
	}
	for level, want := range tests {
		if got := SkillWeight(level); got != want {
			t.Errorf("SkillWeight(%q) = %d, want %d", level, got, want)
		}
	}
}

// TestBalanceTeams_Bound tests team sizes and weight difference over many seeds.
func TestBalanceTeams_Bound(t *testing.T) {
	levels := map[string]string{
		"Manu": "advanced", "player1": "intermediate", "player2": "beginner",
		"player3": "advanced", "player4": "intermediate", "player5": "beginner",
		"player6": "advanced", "player7": "",
	}
	players := []string{"Manu", "player1", "player2", "player3", "player4", "player5", "player6", "player7", "ghost"}
	weightOf := weightsFrom(levels)

	for seed := int64(0); seed < 200; seed++ {
		teamA, teamB := BalanceTeams(players, weightOf, rand.New(rand.NewSource(seed)))

		if len(teamA)+len(teamB) != len(players) {
			t.Fatalf("seed %d: sizes %d+%d != %d", seed, len(teamA), len(teamB), len(players))
		}
		all := append(append([]string{}, teamA...), teamB...)
		sort.Strings(all)
		want := append([]string{}, players...)
		sort.Strings(want)
		if !reflect.DeepEqual(all, want) {
			t.Fatalf("seed %d: teams %v do not partition the roster", seed, all)
		}

		diff := TeamWeight(teamA, weightOf) - TeamWeight(teamB, weightOf)
		if diff < 0 {
			diff = -diff
		}
		if diff > MaxSkillWeight {
			t.Fatalf("seed %d: weight difference %d exceeds %d", seed, diff, MaxSkillWeight)
		}
	}
}

// TestBalanceTeams_EqualWeights tests that ties alternate starting with team A.
func TestBalanceTeams_EqualWeights(t *testing.T) {
	players := []string{"a", "b", "c", "d", "e"}
	teamA, teamB := BalanceTeams(players, func(string) int { return 1 }, rand.New(rand.NewSource(7)))
	if len(teamA) != 3 || len(teamB) != 2 {
		t.Errorf("sizes = %d/%d, want 3/2", len(teamA), len(teamB))
	}
}

// TestBalanceTeams_Empty tests that no players yields two empty, non-nil teams.
func TestBalanceTeams_Empty(t *testing.T) {
	teamA, teamB := BalanceTeams(nil, func(string) int { return 1 }, rand.New(rand.NewSource(1)))
	if teamA == nil || teamB == nil || len(teamA)+len(teamB) != 0 {
		t.Errorf("got %v / %v, want two empty teams", teamA, teamB)
	}
}

// TestBalanceTeams_Deterministic tests that the same seed gives the same split.
func TestBalanceTeams_Deterministic(t *testing.T) {
	players := []string{"a", "b", "c", "d", "e", "f"}
	weightOf := weightsFrom(map[string]string{"a": "advanced", "c": "intermediate", "e": "advanced"})

	a1, b1 := BalanceTeams(players, weightOf, rand.New(rand.NewSource(42)))
	a2, b2 := BalanceTeams(players, weightOf, rand.New(rand.NewSource(42)))
	if !reflect.DeepEqual(a1, a2) || !reflect.DeepEqual(b1, b2) {
		t.Errorf("same seed produced %v|%v and %v|%v", a1, b1, a2, b2)
	}
	if !reflect.DeepEqual(players, []string{"a", "b", "c", "d", "e", "f"}) {
		t.Error("BalanceTeams must not reorder its input")
	}
}

// TestSwapPlayers tests exchanges in both directions and the silent no-op.
func TestSwapPlayers(t *testing.T) {
	teamA := []string{"a1", "a2", "a3"}
	teamB := []string{"b1", "b2"}

	tests := []struct {
		name        string
		x, y        string
		wantA       []string
		wantB       []string
		wantSwapped bool
	}{
		{"a then b", "a2", "b1", []string{"a1", "b1", "a3"}, []string{"a2", "b2"}, true},
		{"b then a", "b2", "a1", []string{"b2", "a2", "a3"}, []string{"b1", "a1"}, true},
		{"both on a", "a1", "a2", teamA, teamB, false},
		{"unknown", "a1", "zz", teamA, teamB, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gotA, gotB, swapped := SwapPlayers(teamA, teamB, tc.x, tc.y)
			if swapped != tc.wantSwapped {
				t.Errorf("swapped = %v, want %v", swapped, tc.wantSwapped)
			}
			if !reflect.DeepEqual(gotA, tc.wantA) || !reflect.DeepEqual(gotB, tc.wantB) {
				t.Errorf("got %v | %v, want %v | %v", gotA, gotB, tc.wantA, tc.wantB)
			}
		})
	}

	if !reflect.DeepEqual(teamA, []string{"a1", "a2", "a3"}) {
		t.Error("SwapPlayers must not modify its input")
	}
}

// TestValidateTeams tests the roster split rules.
func TestValidateTeams(t *testing.T) {
	roster := []string{"a", "b", "c"}
	tests := []struct {
		name  string
		teamA []string
		teamB []string
		want  error
	}{
		{"split", []string{"a", "c"}, []string{"b"}, nil},
		{"stranger", []string{"a", "z"}, []string{"b", "c"}, ErrNotOnRoster},
		{"duplicate", []string{"a", "a"}, []string{"b", "c"}, ErrDuplicateTeamMember},
		{"overlap", []string{"a", "b"}, []string{"b", "c"}, ErrDuplicateTeamMember},
		{"missing", []string{"a"}, []string{"b"}, ErrTeamsIncomplete},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTeams(roster, tt.teamA, tt.teamB)
			if tt.want == nil && err != nil {
				t.Errorf("ValidateTeams() error = %v, want nil", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("ValidateTeams() error = %v, want %v", err, tt.want)
			}
		})
	}

	if err := ValidateTeams([]string{}, []string{}, []string{}); err != nil {
		t.Errorf("empty roster error = %v", err)
	}
}
