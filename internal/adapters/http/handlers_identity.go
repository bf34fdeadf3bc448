package web

import (
	"errors"
	"log/slog"
	"net/http"

	"eagles/internal/adapters/http/middleware"
	"eagles/internal/application/identity"
	"eagles/internal/application/listutil"
	"eagles/internal/application/projections"
	"eagles/internal/domain/player"

	"github.com/go-chi/chi/v5"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	SkillLevel string `json:"skillLevel"`
	Role       string `json:"role"`
}

// userResponse is a user record plus the caller-relevant admin flag.
type userResponse struct {
	player.User
	IsAdmin bool `json:"isAdmin"`
}

// handleLogin handles POST /api/login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := strictDecode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	u, err := s.identity.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, identity.ErrUnknownUser) {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	s.startLogin(w, r, u)
}

// handleRegister handles POST /api/register
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := strictDecode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	u, err := s.identity.Register(r.Context(), identity.RegisterInput{
		Username:   req.Username,
		Credential: req.Password,
		SkillLevel: req.SkillLevel,
		Role:       req.Role,
	})
	if err != nil {
		fail(w, err)
		return
	}
	s.startLogin(w, r, u)
}

func (s *Server) startLogin(w http.ResponseWriter, r *http.Request, u player.User) {
	if old, err := r.Cookie(middleware.LoginCookieName); err == nil {
		s.logins.Revoke(old.Value)
	}
	token, err := s.logins.Issue(u.Username)
	if err != nil {
		internalError(w, err)
		return
	}
	middleware.SetLoginCookie(w, token, s.secure)
	writeJSON(w, http.StatusOK, userResponse{User: u, IsAdmin: s.identity.IsAdmin(u.Username)})
}

// handleLogout handles POST /api/logout
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.LoginCookieName); err == nil {
		s.logins.Revoke(cookie.Value)
	}
	s.identity.Logout(r.Context())
	middleware.ClearLoginCookie(w, s.secure)
	w.WriteHeader(http.StatusNoContent)
}

// handleMe handles GET /api/me
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	username := caller(r)
	u, ok := s.identity.Lookup(username)
	if !ok {
		writeError(w, http.StatusUnauthorized, "login required")
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: u, IsAdmin: s.identity.IsAdmin(username)})
}

// handleActive handles GET /api/active
func (s *Server) handleActive(w http.ResponseWriter, r *http.Request) {
	u, ok := s.identity.Active()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"active": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"active": u.WithoutAvatar()})
}

// handlePlayers handles GET /api/players
func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	query := listutil.Parse(r.URL.Query(), projections.PlayerStatsColumns)
	result, err := projections.QueryPlayerStats(r.Context(), projections.PlayerStatsQuery{Query: query}, projections.PlayerStatsDeps{
		Users: s.identity,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handlePlayer handles GET /api/players/{username}
// The email address is shown only to the player and administrators.
func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	u, ok := s.identity.Lookup(username)
	if !ok {
		writeError(w, http.StatusNotFound, identity.ErrUnknownUser.Error())
		return
	}
	if viewer := caller(r); viewer != username && !s.identity.IsAdmin(viewer) {
		u.Email = ""
	}
	writeJSON(w, http.StatusOK, u)
}

// handleUpdatePlayer handles PATCH /api/players/{username}
func (s *Server) handleUpdatePlayer(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if !s.requireSelfOrAdmin(w, r, username) {
		return
	}
	var patch player.Patch
	if err := strictDecode(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if viewer := caller(r); patch.ChangesRecord() && !s.identity.IsAdmin(viewer) {
		slog.Warn("auth_denied", "path", r.URL.Path, "username", viewer, "detail", "stats or teams")
		writeError(w, http.StatusForbidden, "only administrators can change stats or teams")
		return
	}
	u, err := s.identity.UpdateProfile(r.Context(), username, patch)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// handleSquads handles GET /api/squads
func (s *Server) handleSquads(w http.ResponseWriter, r *http.Request) {
	result, err := projections.QuerySquads(r.Context(), projections.SquadsQuery{}, projections.SquadsDeps{
		Users:    s.identity,
		Captains: s.captains,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
