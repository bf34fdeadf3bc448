package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	emailAdapter "eagles/internal/adapters/email"
	"eagles/internal/domain/session"
)

// ErrUnknownPlayer is returned when the named player is not registered.
var ErrUnknownPlayer = errors.New("player is not registered")

// --- Enroll ---

// EnrollInput carries input for the enroll orchestrator.
type EnrollInput struct {
	SessionID string
	Username  string
}

// EnrollDeps holds dependencies for Enroll.
type EnrollDeps struct {
	Sessions SessionStore
	Players  PlayerDirectory
}

// ExecuteEnroll signs a registered player up for a session.
// PRE: SessionID and Username are non-empty
// POST: the player is enrolled or waitlisted, or the result is already_enrolled
func ExecuteEnroll(ctx context.Context, input EnrollInput, deps EnrollDeps) (session.EnrollResult, error) {
	if input.SessionID == "" || input.Username == "" {
		return "", errors.New("session ID and username are required")
	}
	if _, ok := deps.Players.Lookup(input.Username); !ok {
		return "", ErrUnknownPlayer
	}
	return deps.Sessions.Enroll(ctx, input.SessionID, input.Username)
}

// --- Withdraw ---

// WithdrawInput carries input for the withdraw orchestrator.
type WithdrawInput struct {
	SessionID string
	Username  string
}

// WithdrawDeps holds dependencies for Withdraw.
type WithdrawDeps struct {
	Sessions SessionStore
	Players  PlayerDirectory
	Sender   emailAdapter.Sender // optional; nil disables promotion notices
	From     string
	ReplyTo  string
}

// WithdrawResult reports what the withdrawal changed.
type WithdrawResult struct {
	Outcome    session.UnenrollOutcome
	NoticeSent bool
}

// ExecuteWithdraw removes a player from a session and notifies any promoted player.
// A failed notice is logged and never fails the withdrawal.
// PRE: SessionID and Username are non-empty
// POST: the player is on neither list; the waitlist head fills any freed slot
func ExecuteWithdraw(ctx context.Context, input WithdrawInput, deps WithdrawDeps) (WithdrawResult, error) {
	if input.SessionID == "" || input.Username == "" {
		return WithdrawResult{}, errors.New("session ID and username are required")
	}

	out, err := deps.Sessions.Unenroll(ctx, input.SessionID, input.Username)
	if err != nil {
		return WithdrawResult{}, err
	}
	result := WithdrawResult{Outcome: out}
	if out.Promoted == "" || deps.Sender == nil {
		return result, nil
	}

	result.NoticeSent = sendPromotionNotice(ctx, input.SessionID, out.Promoted, deps)
	return result, nil
}

func sendPromotionNotice(ctx context.Context, sessionID, username string, deps WithdrawDeps) bool {
	promoted, ok := deps.Players.Lookup(username)
	if !ok || promoted.Email == "" {
		slog.Info("notice_event", "event", "promotion_notice_skipped", "session_id", sessionID, "username", username, "reason", "no_email")
		return false
	}
	sess, ok := deps.Sessions.Get(sessionID)
	if !ok {
		return false
	}

	notice, err := ComposePromotionNotice(sess, username)
	if err != nil {
		slog.Error("notice_event", "event", "promotion_notice_failed", "session_id", sessionID, "username", username, "error", err)
		return false
	}
	_, err = deps.Sender.Send(ctx, emailAdapter.Message{
		To:      []string{promoted.Email},
		From:    deps.From,
		ReplyTo: deps.ReplyTo,
		Subject: notice.Subject,
		HTML:    notice.HTML,
		Text:    notice.Markdown,
		Kind:    PromotionNoticeKind,
	})
	if err != nil {
		slog.Error("notice_event", "event", "promotion_notice_failed", "session_id", sessionID, "username", username, "error", err)
		return false
	}
	slog.Info("notice_event", "event", "promotion_notice_sent", "session_id", sessionID, "username", username)
	return true
}
