package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"eagles/internal/adapters/http/middleware"
	"eagles/internal/application/identity"
	"eagles/internal/application/orchestrators"
	"eagles/internal/application/projections"
	"eagles/internal/application/sessions"
	"eagles/internal/domain/player"
	"eagles/internal/domain/session"
)

// validationErrors are the domain errors reported as 400.
var validationErrors = []error{
	player.ErrEmptyUsername,
	player.ErrUsernameTooShort,
	player.ErrUsernameTooLong,
	player.ErrInvalidSkill,
	player.ErrInvalidRole,
	player.ErrNegativeStats,
	player.ErrInvalidEmail,
	session.ErrTitleTooShort,
	session.ErrLocationTooShort,
	session.ErrDateRequired,
	session.ErrInvalidDate,
	session.ErrTimeRequired,
	session.ErrInvalidTime,
	session.ErrInvalidCapacity,
	session.ErrCapacityBelowEnrolled,
	session.ErrNegativeScore,
	session.ErrTeamsMismatch,
	projections.ErrInvalidMonth,
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode_error", "error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// internalError logs the error and sends a generic 500 response.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// optionalDecode is strictDecode that accepts an empty body.
func optionalDecode(r *http.Request, v any) error {
	if err := strictDecode(r, v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// fail maps an application error to its HTTP status.
func fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sessions.ErrNotFound),
		errors.Is(err, identity.ErrUnknownUser),
		errors.Is(err, orchestrators.ErrUnknownPlayer):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, identity.ErrUsernameTaken),
		errors.Is(err, sessions.ErrNoTeams),
		errors.Is(err, sessions.ErrNotOnRoster),
		errors.Is(err, session.ErrDuplicateTeamMember),
		errors.Is(err, session.ErrTeamsIncomplete),
		errors.Is(err, orchestrators.ErrTeamsRequired):
		writeError(w, http.StatusConflict, err.Error())
	case isValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		internalError(w, err)
	}
}

func isValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// requireAdmin returns the caller's login when the caller is an administrator.
// Otherwise it writes 401 or 403 and returns false.
func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) (middleware.Login, bool) {
	login, ok := middleware.LoginFrom(r.Context())
	if !ok {
		slog.Warn("auth_denied", "path", r.URL.Path, "reason", "anonymous")
		writeError(w, http.StatusUnauthorized, "login required")
		return middleware.Login{}, false
	}
	if !s.identity.IsAdmin(login.Username) {
		slog.Warn("auth_denied", "path", r.URL.Path, "username", login.Username, "required", "admin")
		writeError(w, http.StatusForbidden, "administrator only")
		return middleware.Login{}, false
	}
	return login, true
}

// requireSelfOrAdmin checks that the caller may act on behalf of username.
func (s *Server) requireSelfOrAdmin(w http.ResponseWriter, r *http.Request, username string) bool {
	login, ok := middleware.LoginFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "login required")
		return false
	}
	if login.Username == username || s.identity.IsAdmin(login.Username) {
		return true
	}
	slog.Warn("auth_denied", "path", r.URL.Path, "username", login.Username, "target", username)
	writeError(w, http.StatusForbidden, "you may only act for yourself")
	return false
}

// caller returns the username of the logged-in caller, or "".
func caller(r *http.Request) string {
	login, _ := middleware.LoginFrom(r.Context())
	return login.Username
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.identity.Loading() || s.sessions.Loading() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "loading"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
