package orchestrators

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"eagles/internal/domain/session"
)

// noticeRenderer converts notice markdown. Raw HTML in the input is escaped (WithUnsafe is NOT set).
var noticeRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

var noticePolicy = bluemonday.UGCPolicy()

// PromotionNoticeKind labels promotion notices at the email provider.
const PromotionNoticeKind = "waitlist_promotion"

// PromotionNotice is the message sent to a player moved off a waitlist.
type PromotionNotice struct {
	Subject  string
	Markdown string
	HTML     string
}

// ComposePromotionNotice builds the notice for username's promotion into sess.
// PRE: sess has a title; username is non-empty
// POST: HTML is the sanitised rendering of Markdown
func ComposePromotionNotice(sess session.Session, username string) (PromotionNotice, error) {
	var md strings.Builder
	fmt.Fprintf(&md, "# You're in, %s!\n\n", username)
	fmt.Fprintf(&md, "A spot opened up in **%s** and you have been moved off the waitlist.\n\n", sess.Title)
	fmt.Fprintf(&md, "- **Date:** %s\n", sess.Date)
	fmt.Fprintf(&md, "- **Time:** %s\n", sess.Time)
	fmt.Fprintf(&md, "- **Location:** %s\n", sess.Location)
	if notes := strings.TrimSpace(sess.Notes); notes != "" {
		fmt.Fprintf(&md, "\n%s\n", notes)
	}
	md.WriteString("\nIf you can no longer make it, please withdraw so the next player gets the spot.\n")

	var buf bytes.Buffer
	if err := noticeRenderer.Convert([]byte(md.String()), &buf); err != nil {
		return PromotionNotice{}, fmt.Errorf("rendering notice: %w", err)
	}

	return PromotionNotice{
		Subject:  fmt.Sprintf("You're off the waitlist for %s", sess.Title),
		Markdown: md.String(),
		HTML:     noticePolicy.Sanitize(buf.String()),
	}, nil
}
