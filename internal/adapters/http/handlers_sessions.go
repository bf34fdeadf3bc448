package web

import (
	"net/http"

	"eagles/internal/application/orchestrators"
	"eagles/internal/application/projections"
	"eagles/internal/domain/session"

	"github.com/go-chi/chi/v5"
)

// sessionDetail is a session plus the caller's standing in it.
type sessionDetail struct {
	session.Session
	Enrollment *projections.EnrollmentStatusResult `json:"enrollment,omitempty"`
}

// rosterRequest optionally names the player an administrator acts for.
type rosterRequest struct {
	Username string `json:"username"`
}

type withdrawResponse struct {
	WasEnrolled   bool   `json:"wasEnrolled"`
	WasWaitlisted bool   `json:"wasWaitlisted"`
	Promoted      string `json:"promoted,omitempty"`
	NoticeSent    bool   `json:"noticeSent"`
}

type teamsResponse struct {
	Session session.Session `json:"session"`
	WeightA int             `json:"weightA"`
	WeightB int             `json:"weightB"`
}

type swapRequest struct {
	PlayerX string `json:"playerX"`
	PlayerY string `json:"playerY"`
}

type swapResponse struct {
	Session session.Session `json:"session"`
	Swapped bool            `json:"swapped"`
}

// handleSessions handles GET /api/sessions?view=upcoming|past
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	result, err := projections.QuerySessionList(r.Context(), projections.SessionListQuery{
		View:     r.URL.Query().Get("view"),
		Username: caller(r),
	}, projections.SessionListDeps{Sessions: s.sessions, Now: s.now})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleSession handles GET /api/sessions/{id}
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok := s.sessions.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, projections.ErrSessionNotFound.Error())
		return
	}
	detail := sessionDetail{Session: sess}
	if username := caller(r); username != "" {
		status, err := projections.QueryEnrollmentStatus(r.Context(), projections.EnrollmentStatusQuery{
			SessionID: id,
			Username:  username,
		}, projections.EnrollmentStatusDeps{Sessions: s.sessions})
		if err != nil {
			fail(w, err)
			return
		}
		detail.Enrollment = &status
	}
	writeJSON(w, http.StatusOK, detail)
}

// handleCreateSession handles POST /api/sessions
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	var n session.NewSession
	if err := strictDecode(r, &n); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	sess, err := s.sessions.Create(r.Context(), n)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

// handleUpdateSession handles PATCH /api/sessions/{id}
func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	var patch session.Patch
	if err := strictDecode(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	sess, err := s.sessions.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// handleDeleteSession handles DELETE /api/sessions/{id}
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	if err := s.sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// rosterTarget resolves the player an enroll or withdraw request acts for.
func (s *Server) rosterTarget(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req rosterRequest
	if err := optionalDecode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return "", false
	}
	if req.Username == "" {
		return caller(r), true
	}
	if !s.requireSelfOrAdmin(w, r, req.Username) {
		return "", false
	}
	return req.Username, true
}

// handleEnroll handles POST /api/sessions/{id}/enroll
func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	username, ok := s.rosterTarget(w, r)
	if !ok {
		return
	}
	result, err := orchestrators.ExecuteEnroll(r.Context(), orchestrators.EnrollInput{
		SessionID: chi.URLParam(r, "id"),
		Username:  username,
	}, orchestrators.EnrollDeps{Sessions: s.sessions, Players: s.identity})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]session.EnrollResult{"result": result})
}

// handleWithdraw handles POST /api/sessions/{id}/withdraw
func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	username, ok := s.rosterTarget(w, r)
	if !ok {
		return
	}
	result, err := orchestrators.ExecuteWithdraw(r.Context(), orchestrators.WithdrawInput{
		SessionID: chi.URLParam(r, "id"),
		Username:  username,
	}, orchestrators.WithdrawDeps{
		Sessions: s.sessions,
		Players:  s.identity,
		Sender:   s.sender,
		From:     s.from,
		ReplyTo:  s.replyTo,
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, withdrawResponse{
		WasEnrolled:   result.Outcome.WasEnrolled,
		WasWaitlisted: result.Outcome.WasWaitlisted,
		Promoted:      result.Outcome.Promoted,
		NoticeSent:    result.NoticeSent,
	})
}

// handleGenerateTeams handles POST /api/sessions/{id}/teams
func (s *Server) handleGenerateTeams(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	result, err := orchestrators.ExecuteGenerateTeams(r.Context(), orchestrators.GenerateTeamsInput{
		SessionID: chi.URLParam(r, "id"),
	}, orchestrators.GenerateTeamsDeps{
		Sessions: s.sessions,
		Players:  s.identity,
		Metrics:  s.metrics,
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, teamsResponse{Session: result.Session, WeightA: result.WeightA, WeightB: result.WeightB})
}

// handleClearTeams handles DELETE /api/sessions/{id}/teams
func (s *Server) handleClearTeams(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	sess, err := orchestrators.ExecuteClearTeams(r.Context(), orchestrators.ClearTeamsInput{
		SessionID: chi.URLParam(r, "id"),
	}, orchestrators.ClearTeamsDeps{Sessions: s.sessions})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// handleSwapPlayers handles POST /api/sessions/{id}/teams/swap
func (s *Server) handleSwapPlayers(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	var req swapRequest
	if err := strictDecode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.PlayerX == "" || req.PlayerY == "" {
		writeError(w, http.StatusBadRequest, "playerX and playerY are required")
		return
	}
	sess, swapped, err := orchestrators.ExecuteSwapPlayers(r.Context(), orchestrators.SwapPlayersInput{
		SessionID: chi.URLParam(r, "id"),
		PlayerX:   req.PlayerX,
		PlayerY:   req.PlayerY,
	}, orchestrators.SwapPlayersDeps{Sessions: s.sessions})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, swapResponse{Session: sess, Swapped: swapped})
}

// handleRecordScore handles PUT /api/sessions/{id}/score
func (s *Server) handleRecordScore(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	var score session.Score
	if err := strictDecode(r, &score); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	sess, err := orchestrators.ExecuteRecordScore(r.Context(), orchestrators.RecordScoreInput{
		SessionID: chi.URLParam(r, "id"),
		TeamA:     score.TeamA,
		TeamB:     score.TeamB,
	}, orchestrators.RecordScoreDeps{Sessions: s.sessions})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// handleHistory handles GET /api/history
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	result, err := projections.QueryMatchHistory(r.Context(), projections.MatchHistoryQuery{}, projections.MatchHistoryDeps{
		Sessions: s.sessions,
		Now:      s.now,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleCalendar handles GET /api/calendar?month=YYYY-MM
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	result, err := projections.QueryCalendar(r.Context(), projections.CalendarQuery{
		Month: r.URL.Query().Get("month"),
	}, projections.CalendarDeps{Sessions: s.sessions, Now: s.now})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
