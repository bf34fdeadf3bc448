package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/resend/resend-go/v2"
)

// ErrNoRecipients is returned for a message without a To address.
var ErrNoRecipients = errors.New("email has no recipients")

// ResendSender delivers messages through the Resend API.
type ResendSender struct {
	client  *resend.Client
	from    string
	replyTo string
}

// NewResendSender builds a sender with default From and Reply-To addresses.
// PRE: apiKey is a Resend API key
func NewResendSender(apiKey, from, replyTo string) *ResendSender {
	return &ResendSender{
		client:  resend.NewClient(apiKey),
		from:    from,
		replyTo: replyTo,
	}
}

// Send hands msg to Resend.
// PRE: msg has at least one recipient
// POST: the receipt carries Resend's message id
func (s *ResendSender) Send(ctx context.Context, msg Message) (Receipt, error) {
	req, err := s.request(msg)
	if err != nil {
		return Receipt{}, err
	}

	resp, err := s.client.Emails.SendWithContext(ctx, req)
	if err != nil {
		slog.Error("notice_event", "event", "email_failed", "provider", "resend", "kind", msg.Kind, "error", err)
		return Receipt{}, fmt.Errorf("resend: %w", err)
	}
	slog.Info("notice_event", "event", "email_sent", "provider", "resend", "kind", msg.Kind, "message_id", resp.Id)
	return Receipt{ID: resp.Id, AcceptedAt: time.Now()}, nil
}

// request maps msg onto the Resend payload, filling in the defaults.
func (s *ResendSender) request(msg Message) (*resend.SendEmailRequest, error) {
	if len(msg.To) == 0 {
		return nil, ErrNoRecipients
	}
	req := &resend.SendEmailRequest{
		From:    firstNonEmpty(msg.From, s.from),
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
		ReplyTo: firstNonEmpty(msg.ReplyTo, s.replyTo),
	}
	if msg.Kind != "" {
		req.Tags = []resend.Tag{{Name: "kind", Value: msg.Kind}}
	}
	return req, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
