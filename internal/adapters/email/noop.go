package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// NoopSender accepts every message and only logs it.
// It stands in for a provider when EAGLES_RESEND_KEY is unset.
type NoopSender struct {
	now func() time.Time
}

// NewNoopSender returns a logging sender.
func NewNoopSender() *NoopSender {
	return &NoopSender{now: time.Now}
}

// Send logs msg and returns a synthetic receipt.
func (s *NoopSender) Send(_ context.Context, msg Message) (Receipt, error) {
	at := s.now()
	slog.Info("notice_event", "event", "email_skipped", "kind", msg.Kind, "to", msg.To, "subject", msg.Subject)
	return Receipt{ID: fmt.Sprintf("noop-%d", at.UnixNano()), AcceptedAt: at}, nil
}
