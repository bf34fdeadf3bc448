package player

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Max length constants for user-editable fields.
const (
	MinUsernameLength = 2
	MaxUsernameLength = 50
	MaxEmailLength    = 254
)

// Skill level constants
const (
	SkillBeginner     = "beginner"
	SkillIntermediate = "intermediate"
	SkillAdvanced     = "advanced"
)

// Court role constants
const (
	RoleSetter        = "setter"
	RoleOutsideHitter = "outside_hitter"
	RoleOpposite      = "opposite"
	RoleMiddleBlocker = "middle_blocker"
	RoleLibero        = "libero"
)

// ValidSkillLevels contains all valid skill level values.
var ValidSkillLevels = []string{SkillBeginner, SkillIntermediate, SkillAdvanced}

// ValidRoles contains all valid court role values.
var ValidRoles = []string{RoleSetter, RoleOutsideHitter, RoleOpposite, RoleMiddleBlocker, RoleLibero}

// Domain errors
var (
	ErrEmptyUsername    = errors.New("username cannot be empty")
	ErrUsernameTooShort = errors.New("username must be at least 2 characters")
	ErrUsernameTooLong  = errors.New("username cannot exceed 50 characters")
	ErrInvalidSkill     = errors.New("skill level must be one of: beginner, intermediate, advanced")
	ErrInvalidRole      = errors.New("role must be one of: setter, outside_hitter, opposite, middle_blocker, libero")
	ErrNegativeStats    = errors.New("stats cannot be negative")
	ErrInvalidEmail     = errors.New("email must contain '@'")
)

// Stats holds a player's match record.
type Stats struct {
	MatchesPlayed int `json:"matchesPlayed" yaml:"matchesPlayed"`
	Wins          int `json:"wins" yaml:"wins"`
	Losses        int `json:"losses" yaml:"losses"`
	PointsScored  int `json:"pointsScored" yaml:"pointsScored"`
}

// User is a registered club player.
type User struct {
	Username   string   `json:"username" yaml:"username"`
	SkillLevel string   `json:"skillLevel,omitempty" yaml:"skillLevel"`
	Role       string   `json:"role,omitempty" yaml:"role"`
	Stats      Stats    `json:"stats" yaml:"stats"`
	Teams      []string `json:"teams,omitempty" yaml:"teams"`
	AvatarURL  string   `json:"avatarUrl,omitempty" yaml:"avatarUrl"`
	Email      string   `json:"email,omitempty" yaml:"email"`
}

// Patch carries a partial profile update. Nil fields are left untouched.
// Username is deliberately absent: it is immutable once registered.
type Patch struct {
	SkillLevel *string   `json:"skillLevel,omitempty"`
	Role       *string   `json:"role,omitempty"`
	Stats      *Stats    `json:"stats,omitempty"`
	Teams      *[]string `json:"teams,omitempty"`
	AvatarURL  *string   `json:"avatarUrl,omitempty"`
	Email      *string   `json:"email,omitempty"`
}

// New creates a freshly registered user with zeroed stats.
// PRE: none (call Validate before persisting)
// POST: Returns a user with zero Stats and an empty squad list
func New(username, skillLevel, role string) User {
	return User{
		Username:   strings.TrimSpace(username),
		SkillLevel: skillLevel,
		Role:       role,
		Teams:      []string{},
	}
}

// Validate checks if the User has valid data.
// PRE: User struct is populated
// POST: Returns nil if valid, error otherwise
func (u *User) Validate() error {
	name := strings.TrimSpace(u.Username)
	if name == "" {
		return ErrEmptyUsername
	}
	if len(name) < MinUsernameLength {
		return ErrUsernameTooShort
	}
	if len(name) > MaxUsernameLength {
		return ErrUsernameTooLong
	}
	if u.SkillLevel != "" && !contains(ValidSkillLevels, u.SkillLevel) {
		return ErrInvalidSkill
	}
	if u.Role != "" && !contains(ValidRoles, u.Role) {
		return ErrInvalidRole
	}
	if err := u.Stats.Validate(); err != nil {
		return err
	}
	if u.Email != "" {
		if len(u.Email) > MaxEmailLength {
			return fmt.Errorf("email cannot exceed %d characters", MaxEmailLength)
		}
		if !strings.Contains(u.Email, "@") {
			return ErrInvalidEmail
		}
	}
	return nil
}

// Validate checks that every counter is non-negative.
// INVARIANT: Stats fields are not mutated
func (s Stats) Validate() error {
	if s.MatchesPlayed < 0 || s.Wins < 0 || s.Losses < 0 || s.PointsScored < 0 {
		return ErrNegativeStats
	}
	return nil
}

// WinRate returns the percentage of played matches that were won, rounded to one decimal.
// INVARIANT: Stats fields are not mutated
func (s Stats) WinRate() float64 {
	if s.MatchesPlayed <= 0 {
		return 0
	}
	rate := float64(s.Wins) / float64(s.MatchesPlayed) * 100
	return math.Round(rate*10) / 10
}

// Apply merges a patch into a copy of the user.
// PRE: none
// POST: Returns the merged user; the input user is not modified
func Apply(u User, p Patch) User {
	out := u.Clone()
	if p.SkillLevel != nil {
		out.SkillLevel = *p.SkillLevel
	}
	if p.Role != nil {
		out.Role = *p.Role
	}
	if p.Stats != nil {
		out.Stats = *p.Stats
	}
	if p.Teams != nil {
		out.Teams = append([]string{}, (*p.Teams)...)
	}
	if p.AvatarURL != nil {
		out.AvatarURL = *p.AvatarURL
	}
	if p.Email != nil {
		out.Email = *p.Email
	}
	return out
}

// Clone returns a deep copy so callers never share slice storage with a store.
func (u User) Clone() User {
	out := u
	if u.Teams != nil {
		out.Teams = append([]string{}, u.Teams...)
	}
	return out
}

// WithoutAvatar returns a copy with the avatar payload stripped.
// Used for the active-user record, which never carries image data.
func (u User) WithoutAvatar() User {
	out := u.Clone()
	out.AvatarURL = ""
	return out
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.SkillLevel == nil && p.Role == nil && p.Stats == nil &&
		p.Teams == nil && p.AvatarURL == nil && p.Email == nil
}

// ChangesRecord reports whether the patch touches the club-maintained fields
// (match stats and squad membership) rather than the player's own profile.
func (p Patch) ChangesRecord() bool {
	return p.Stats != nil || p.Teams != nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
