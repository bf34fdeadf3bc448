// Package sessions owns club sessions, their rosters and team assignments.
package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"eagles/internal/adapters/storage"
	"eagles/internal/application/seed"
	"eagles/internal/domain/session"

	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("session not found")
	ErrNoTeams     = errors.New("session has no teams")
	ErrNotOnRoster = session.ErrNotOnRoster
)

// Metrics is the subset of metrics.Recorder used by the store.
type Metrics interface {
	RecordPersistFailure(key string)
	RecordEnrollment(result string)
	RecordPromotion()
}

type noopMetrics struct{}

func (noopMetrics) RecordPersistFailure(string) {}
func (noopMetrics) RecordEnrollment(string)     {}
func (noopMetrics) RecordPromotion()            {}

// Options configures a Store. Zero values select the defaults.
type Options struct {
	Logger     *slog.Logger
	Metrics    Metrics
	Now        func() time.Time
	GenerateID func() string
	// Defaults returns the sessions used when nothing is stored or the stored copy is unreadable.
	Defaults func() []session.Session
}

// Store is the Session Store. It is safe for concurrent use.
// INVARIANT: every stored session satisfies session.Validate
// INVARIANT: session ids are unique
type Store struct {
	kv         storage.KV
	logger     *slog.Logger
	metrics    Metrics
	generateID func() string
	defaults   func() []session.Session

	mu       sync.RWMutex
	sessions []session.Session
	loading  bool
}

// New creates a Store in the loading state. Call Load before use.
// PRE: kv is non-nil
// POST: Loading() is true until Load returns
func New(kv storage.KV, opts Options) *Store {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = noopMetrics{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.GenerateID == nil {
		opts.GenerateID = func() string { return uuid.New().String() }
	}
	if opts.Defaults == nil {
		now, gen := opts.Now, opts.GenerateID
		opts.Defaults = func() []session.Session {
			return seed.MustLoad(seed.Options{Now: now, GenerateID: gen}).Sessions
		}
	}
	return &Store{
		kv:         kv,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		generateID: opts.GenerateID,
		defaults:   opts.Defaults,
		sessions:   []session.Session{},
		loading:    true,
	}
}

// Load hydrates the sessions from storage.
// An absent record is replaced by the default dataset, which is then persisted.
// An unreadable record falls back to the default dataset without overwriting storage.
// PRE: none
// POST: Loading() is false
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.loading = false }()

	list, err := s.read(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.sessions = s.defaults()
		s.logger.Info("session_event", "event", "sessions_seeded", "sessions", len(s.sessions))
		s.persist(ctx)
	case err != nil:
		s.sessions = s.defaults()
		s.logger.Warn("load_fallback", "key", storage.KeySessions, "error", err)
	default:
		s.sessions = list
	}
}

func (s *Store) read(ctx context.Context) ([]session.Session, error) {
	raw, err := s.kv.Get(ctx, storage.KeySessions)
	if err != nil {
		return nil, err
	}
	var list []session.Session
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("corrupt %s: %w", storage.KeySessions, err)
	}
	out := make([]session.Session, 0, len(list))
	for _, sess := range list {
		// Older records carry full ISO timestamps and may omit empty rosters.
		sess.Date = session.NormalizeDate(sess.Date)
		out = append(out, sess.Clone())
	}
	return out, nil
}

// Create stores a new session with empty rosters.
// PRE: none
// POST: on success the session is appended with a fresh id; on error nothing changes
func (s *Store) Create(ctx context.Context, n session.NewSession) (session.Session, error) {
	sess := session.FromNew(s.generateID(), n)
	if err := sess.Validate(); err != nil {
		return session.Session{}, fmt.Errorf("invalid session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = append(s.sessions, sess)
	s.persist(ctx)
	s.logger.Info("session_event", "event", "session_created", "session_id", sess.ID, "title", sess.Title, "date", sess.Date)
	return sess.Clone(), nil
}

// Update merges patch into the session.
// Teams set through the patch must split the enrolled players, as with SetTeams.
// PRE: none
// POST: on success the session is replaced by the validated merge; ErrNotFound if id is unknown
func (s *Store) Update(ctx context.Context, id string, patch session.Patch) (session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return session.Session{}, ErrNotFound
	}
	merged := session.Apply(s.sessions[idx], patch)
	if err := merged.Validate(); err != nil {
		return session.Session{}, fmt.Errorf("invalid session: %w", err)
	}
	if !patch.ClearTeams && (patch.TeamA != nil || patch.TeamB != nil) {
		if err := session.ValidateTeams(merged.EnrolledPlayers, merged.TeamA, merged.TeamB); err != nil {
			return session.Session{}, err
		}
	}
	s.sessions[idx] = merged
	s.persist(ctx)
	s.logger.Info("session_event", "event", "session_updated", "session_id", id)
	return merged.Clone(), nil
}

// Delete removes the session. Deleting an unknown id is a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil
	}
	s.sessions = append(s.sessions[:idx:idx], s.sessions[idx+1:]...)
	s.persist(ctx)
	s.logger.Info("session_event", "event", "session_deleted", "session_id", id)
	return nil
}

// Enroll signs username up for the session, waitlisting when full.
// PRE: username is non-empty
// POST: see session.Session.Enroll; nothing is written for AlreadyEnrolled
func (s *Store) Enroll(ctx context.Context, id, username string) (session.EnrollResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return "", ErrNotFound
	}
	result := s.sessions[idx].Enroll(username)
	if result != session.AlreadyEnrolled {
		s.persist(ctx)
	}
	s.metrics.RecordEnrollment(string(result))
	s.logger.Info("enroll_event", "event", "enroll", "session_id", id, "username", username, "result", result)
	return result, nil
}

// Unenroll withdraws username from the session, promoting the waitlist head when a slot frees up.
// PRE: username is non-empty
// POST: see session.Session.Unenroll; nothing is written when username was on neither list
func (s *Store) Unenroll(ctx context.Context, id, username string) (session.UnenrollOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return session.UnenrollOutcome{}, ErrNotFound
	}
	out := s.sessions[idx].Unenroll(username)
	if !out.WasEnrolled && !out.WasWaitlisted {
		return out, nil
	}
	s.persist(ctx)
	s.logger.Info("enroll_event", "event", "withdraw", "session_id", id, "username", username,
		"was_enrolled", out.WasEnrolled, "promoted", out.Promoted)
	if out.Promoted != "" {
		s.metrics.RecordPromotion()
		s.logger.Info("enroll_event", "event", "waitlist_promoted", "session_id", id, "username", out.Promoted)
	}
	return out, nil
}

// SetTeams stores a team assignment.
// PRE: none
// POST: the session carries copies of both teams, or nothing changes and the
// session.ValidateTeams error is returned (ErrTeamsIncomplete when the roster moved on)
func (s *Store) SetTeams(ctx context.Context, id string, teamA, teamB []string) (session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return session.Session{}, ErrNotFound
	}
	sess := &s.sessions[idx]
	if err := session.ValidateTeams(sess.EnrolledPlayers, teamA, teamB); err != nil {
		return session.Session{}, err
	}
	sess.TeamA = append([]string{}, teamA...)
	sess.TeamB = append([]string{}, teamB...)
	s.persist(ctx)
	s.logger.Info("team_event", "event", "teams_set", "session_id", id, "team_a", len(teamA), "team_b", len(teamB))
	return sess.Clone(), nil
}

// SwapPlayers exchanges x and y between the session's teams.
// When x and y do not sit on opposite teams the call is a silent no-op and swapped is false.
// PRE: none
// POST: ErrNoTeams when no teams exist; nothing is written unless swapped
func (s *Store) SwapPlayers(ctx context.Context, id, x, y string) (session.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return session.Session{}, false, ErrNotFound
	}
	cur := &s.sessions[idx]
	if !cur.HasTeams() {
		return session.Session{}, false, ErrNoTeams
	}
	teamA, teamB, swapped := session.SwapPlayers(cur.TeamA, cur.TeamB, x, y)
	if !swapped {
		return cur.Clone(), false, nil
	}
	cur.TeamA, cur.TeamB = teamA, teamB
	s.persist(ctx)
	s.logger.Info("team_event", "event", "players_swapped", "session_id", id, "x", x, "y", y)
	return cur.Clone(), true, nil
}

// ClearTeams removes any team assignment, leaving the rosters untouched.
func (s *Store) ClearTeams(ctx context.Context, id string) (session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return session.Session{}, ErrNotFound
	}
	sess := &s.sessions[idx]
	sess.TeamA, sess.TeamB = nil, nil
	s.persist(ctx)
	s.logger.Info("team_event", "event", "teams_cleared", "session_id", id)
	return sess.Clone(), nil
}

// RecordScore stores the match result for the session.
// PRE: a and b are non-negative
func (s *Store) RecordScore(ctx context.Context, id string, a, b int) (session.Session, error) {
	if a < 0 || b < 0 {
		return session.Session{}, session.ErrNegativeScore
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return session.Session{}, ErrNotFound
	}
	sess := &s.sessions[idx]
	sess.Score = &session.Score{TeamA: a, TeamB: b}
	s.persist(ctx)
	s.logger.Info("session_event", "event", "score_recorded", "session_id", id, "team_a", a, "team_b", b)
	return sess.Clone(), nil
}

// List returns copies of all sessions in creation order.
func (s *Store) List() []session.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]session.Session, len(s.sessions))
	for i, sess := range s.sessions {
		out[i] = sess.Clone()
	}
	return out
}

// Get returns a copy of the session with id.
func (s *Store) Get(id string) (session.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return session.Session{}, false
	}
	return s.sessions[idx].Clone(), true
}

// Loading reports whether the initial hydration is still in progress.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Store) indexOf(id string) int {
	for i, sess := range s.sessions {
		if sess.ID == id {
			return i
		}
	}
	return -1
}

// persist writes the full session list. Failures are logged and counted, never returned.
// PRE: caller holds s.mu for writing
func (s *Store) persist(ctx context.Context) {
	data, err := json.Marshal(s.sessions)
	if err == nil {
		err = s.kv.Set(ctx, storage.KeySessions, data)
	}
	if err != nil {
		s.logger.Error("persist_failed", "key", storage.KeySessions, "error", err)
		s.metrics.RecordPersistFailure(storage.KeySessions)
	}
}
