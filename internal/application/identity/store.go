// Package identity owns the user registry and the active user of one club device.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"eagles/internal/adapters/storage"
	"eagles/internal/application/seed"
	"eagles/internal/domain/player"
)

var (
	ErrUnknownUser   = errors.New("no user with that username")
	ErrUsernameTaken = errors.New("username is already taken")
)

// DefaultAdminUsernames is the administrator allow-list used when none is configured.
var DefaultAdminUsernames = []string{"Manu"}

// Metrics is the subset of metrics.Recorder used by the store.
type Metrics interface {
	RecordPersistFailure(key string)
}

type noopMetrics struct{}

func (noopMetrics) RecordPersistFailure(string) {}

// Options configures a Store. Zero values select the defaults.
type Options struct {
	AdminUsernames []string
	Logger         *slog.Logger
	Metrics        Metrics
	// Defaults returns the registry used when nothing is stored or the stored copy is unreadable.
	Defaults func() []player.User
}

// RegisterInput carries the fields of a new registration.
// Credential is accepted for interface compatibility and never checked.
type RegisterInput struct {
	Username   string
	Credential string
	SkillLevel string
	Role       string
}

// Store is the Identity Store. It is safe for concurrent use.
// INVARIANT: usernames in users are unique
// INVARIANT: active is "" or the username of a registered user
type Store struct {
	kv       storage.KV
	logger   *slog.Logger
	metrics  Metrics
	admins   map[string]bool
	defaults func() []player.User

	mu      sync.RWMutex
	users   []player.User
	active  string
	loading bool
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
	if opts.Defaults == nil {
		opts.Defaults = func() []player.User { return seed.MustLoad(seed.Options{}).Users }
	}
	admins := opts.AdminUsernames
	if len(admins) == 0 {
		admins = DefaultAdminUsernames
	}

	s := &Store{
		kv:       kv,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		admins:   make(map[string]bool, len(admins)),
		defaults: opts.Defaults,
		users:    []player.User{},
		loading:  true,
	}
	for _, name := range admins {
		if name = strings.TrimSpace(name); name != "" {
			s.admins[name] = true
		}
	}
	return s
}

// Load hydrates the registry and active user from storage.
// An absent registry is replaced by the default dataset, which is then persisted.
// An unreadable registry falls back to the default dataset without overwriting storage.
// PRE: none
// POST: Loading() is false; the active user, if any, is re-resolved against the registry
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.loading = false }()

	users, err := s.readUsers(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.users = s.defaults()
		s.logger.Info("identity_event", "event", "registry_seeded", "users", len(s.users))
		s.persistUsers(ctx)
	case err != nil:
		s.users = s.defaults()
		s.logger.Warn("load_fallback", "key", storage.KeyUsers, "error", err)
	default:
		s.users = users
	}

	s.active = ""
	if name, err := s.readActive(ctx); err == nil {
		if _, ok := s.find(name); ok {
			s.active = name
		}
	} else if !errors.Is(err, storage.ErrNotFound) {
		s.logger.Warn("load_fallback", "key", storage.KeyActiveUser, "error", err)
	}
}

func (s *Store) readUsers(ctx context.Context) ([]player.User, error) {
	raw, err := s.kv.Get(ctx, storage.KeyUsers)
	if err != nil {
		return nil, err
	}
	var users []player.User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("corrupt %s: %w", storage.KeyUsers, err)
	}
	if users == nil {
		users = []player.User{}
	}
	return users, nil
}

func (s *Store) readActive(ctx context.Context) (string, error) {
	raw, err := s.kv.Get(ctx, storage.KeyActiveUser)
	if err != nil {
		return "", err
	}
	var rec player.User
	if err := json.Unmarshal(raw, &rec); err != nil {
		return "", fmt.Errorf("corrupt %s: %w", storage.KeyActiveUser, err)
	}
	return rec.Username, nil
}

// Login makes username the active user. The credential is not verified.
// PRE: none
// POST: on success the active user is username; on ErrUnknownUser nothing changes
func (s *Store) Login(ctx context.Context, username, credential string) (player.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.find(username)
	if !ok {
		s.logger.Info("auth_event", "event", "login_failed", "username", username, "reason", "not_found")
		return player.User{}, ErrUnknownUser
	}
	s.active = u.Username
	s.persist(ctx)
	s.logger.Info("auth_event", "event", "login", "username", u.Username)
	return u.Clone(), nil
}

// Register creates a user with zeroed stats and makes it the active user.
// PRE: none
// POST: on success the registry holds exactly one new user; on error the registry is unchanged
func (s *Store) Register(ctx context.Context, in RegisterInput) (player.User, error) {
	u := player.New(in.Username, in.SkillLevel, in.Role)
	if err := u.Validate(); err != nil {
		return player.User{}, fmt.Errorf("invalid registration: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.find(u.Username); exists {
		s.logger.Info("auth_event", "event", "register_rejected", "username", u.Username, "reason", "taken")
		return player.User{}, ErrUsernameTaken
	}
	s.users = append(s.users, u)
	s.active = u.Username
	s.persist(ctx)
	s.logger.Info("auth_event", "event", "registered", "username", u.Username, "skill", u.SkillLevel, "role", u.Role)
	return u.Clone(), nil
}

// Logout clears the active user. Calling it while logged out is a no-op apart from persistence.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != "" {
		s.logger.Info("auth_event", "event", "logout", "username", s.active)
	}
	s.active = ""
	s.persist(ctx)
}

// Lookup returns the user registered under username.
func (s *Store) Lookup(username string) (player.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.find(username)
	if !ok {
		return player.User{}, false
	}
	return u.Clone(), true
}

// UpdateProfile merges patch into the named user's record.
// PRE: none
// POST: on success the record is replaced by the validated merge; the active view follows automatically
func (s *Store) UpdateProfile(ctx context.Context, username string, patch player.Patch) (player.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(username)
	if idx < 0 {
		return player.User{}, ErrUnknownUser
	}
	merged := player.Apply(s.users[idx], patch)
	if err := merged.Validate(); err != nil {
		return player.User{}, fmt.Errorf("invalid profile: %w", err)
	}
	s.users[idx] = merged
	s.persist(ctx)
	s.logger.Info("identity_event", "event", "profile_updated", "username", username)
	return merged.Clone(), nil
}

// IsAdmin reports whether username is on the administrator allow-list.
func (s *Store) IsAdmin(username string) bool {
	return s.admins[username]
}

// Users returns a copy of the registry in registration order.
func (s *Store) Users() []player.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]player.User, len(s.users))
	for i, u := range s.users {
		out[i] = u.Clone()
	}
	return out
}

// Active returns the full record of the active user.
func (s *Store) Active() (player.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == "" {
		return player.User{}, false
	}
	u, ok := s.find(s.active)
	if !ok {
		return player.User{}, false
	}
	return u.Clone(), true
}

// Loading reports whether the initial hydration is still in progress.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// SkillLevel returns the skill level of username, or "" when unknown.
func (s *Store) SkillLevel(username string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.find(username)
	if !ok {
		return ""
	}
	return u.SkillLevel
}

func (s *Store) find(username string) (player.User, bool) {
	if idx := s.indexOf(username); idx >= 0 {
		return s.users[idx], true
	}
	return player.User{}, false
}

func (s *Store) indexOf(username string) int {
	for i, u := range s.users {
		if u.Username == username {
			return i
		}
	}
	return -1
}

// persist writes the registry and the active-user record.
// Failures are logged and counted, never returned.
// PRE: caller holds s.mu for writing
func (s *Store) persist(ctx context.Context) {
	s.persistUsers(ctx)

	if s.active == "" {
		if err := s.kv.Delete(ctx, storage.KeyActiveUser); err != nil {
			s.persistFailed(storage.KeyActiveUser, err)
		}
		return
	}
	u, _ := s.find(s.active)
	s.write(ctx, storage.KeyActiveUser, u.WithoutAvatar())
}

func (s *Store) persistUsers(ctx context.Context) {
	s.write(ctx, storage.KeyUsers, s.users)
}

func (s *Store) write(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.persistFailed(key, err)
		return
	}
	if err := s.kv.Set(ctx, key, data); err != nil {
		s.persistFailed(key, err)
	}
}

func (s *Store) persistFailed(key string, err error) {
	s.logger.Error("persist_failed", "key", key, "error", err)
	s.metrics.RecordPersistFailure(key)
}
