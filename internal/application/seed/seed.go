// Package seed provides the built-in dataset used when no stored state exists
// or the stored state cannot be read.
package seed

import (
	_ "embed"
	"fmt"
	"slices"
	"time"

	"eagles/internal/domain/player"
	"eagles/internal/domain/session"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

type sessionRecord struct {
	Title           string         `yaml:"title"`
	DayOffset       int            `yaml:"dayOffset"`
	Time            string         `yaml:"time"`
	Location        string         `yaml:"location"`
	Capacity        int            `yaml:"capacity"`
	EnrolledPlayers []string       `yaml:"enrolledPlayers"`
	Waitlist        []string       `yaml:"waitlist"`
	TeamA           []string       `yaml:"teamA"`
	TeamB           []string       `yaml:"teamB"`
	Score           *session.Score `yaml:"score"`
}

type dataset struct {
	Users    []player.User   `yaml:"users"`
	Squads   []Squad         `yaml:"squads"`
	Sessions []sessionRecord `yaml:"sessions"`
}

// Squad is a standing club team with a captain.
type Squad struct {
	Name    string   `yaml:"name"`
	Captain string   `yaml:"captain"`
	Players []string `yaml:"players"`
}

// Dataset is a materialised copy of the default data.
type Dataset struct {
	Users    []player.User
	Squads   []Squad
	Sessions []session.Session
}

// Options controls how the default data is materialised.
type Options struct {
	Now        func() time.Time
	GenerateID func() string
}

// Load parses the embedded dataset, resolving session day offsets against opts.Now.
// PRE: none
// POST: every user and session passes Validate; each call returns fresh slices
func Load(opts Options) (Dataset, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.GenerateID == nil {
		opts.GenerateID = func() string { return uuid.New().String() }
	}

	var raw dataset
	if err := yaml.Unmarshal(defaultYAML, &raw); err != nil {
		return Dataset{}, fmt.Errorf("failed to parse default dataset: %w", err)
	}

	out := Dataset{
		Users:    make([]player.User, 0, len(raw.Users)),
		Squads:   raw.Squads,
		Sessions: make([]session.Session, 0, len(raw.Sessions)),
	}
	for _, u := range raw.Users {
		if u.Teams == nil {
			u.Teams = []string{}
		}
		for _, sq := range raw.Squads {
			if slices.Contains(sq.Players, u.Username) && !slices.Contains(u.Teams, sq.Name) {
				u.Teams = append(u.Teams, sq.Name)
			}
		}
		if err := u.Validate(); err != nil {
			return Dataset{}, fmt.Errorf("default user %q: %w", u.Username, err)
		}
		out.Users = append(out.Users, u)
	}

	today := opts.Now()
	for _, r := range raw.Sessions {
		s := session.Session{
			ID:              opts.GenerateID(),
			Title:           r.Title,
			Date:            today.AddDate(0, 0, r.DayOffset).Format(session.DateLayout),
			Time:            r.Time,
			Location:        r.Location,
			Capacity:        r.Capacity,
			EnrolledPlayers: nonNil(r.EnrolledPlayers),
			Waitlist:        nonNil(r.Waitlist),
			TeamA:           r.TeamA,
			TeamB:           r.TeamB,
			Score:           r.Score,
		}
		if err := s.Validate(); err != nil {
			return Dataset{}, fmt.Errorf("default session %q: %w", r.Title, err)
		}
		out.Sessions = append(out.Sessions, s)
	}
	return out, nil
}

// Captains maps each built-in squad to its captain.
func Captains() map[string]string {
	out := map[string]string{}
	for _, sq := range MustLoad(Options{}).Squads {
		out[sq.Name] = sq.Captain
	}
	return out
}

// MustLoad is Load for callers that cannot recover from a broken embedded file.
func MustLoad(opts Options) Dataset {
	ds, err := Load(opts)
	if err != nil {
		panic(err)
	}
	return ds
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
