// Package email delivers club notices to players.
package email

import (
	"context"
	"time"
)

// Message is one outbound notice.
type Message struct {
	To      []string
	From    string // empty selects the sender's default address
	ReplyTo string // empty selects the sender's default reply-to
	Subject string
	HTML    string // sanitised before it reaches the sender
	Text    string // plain-text alternative, usually the source markdown
	Kind    string // short label attached to the message, e.g. "waitlist_promotion"
}

// Receipt is returned for an accepted message.
type Receipt struct {
	ID         string
	AcceptedAt time.Time
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) (Receipt, error)
}
