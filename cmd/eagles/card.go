package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"eagles/internal/application/projections"
	"eagles/internal/domain/session"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// sessionCard renders a session as a markdown card.
// status is the active user's enrollment, nil when nobody is logged in.
func sessionCard(s session.Session, status *projections.EnrollmentStatusResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", s.Title)
	fmt.Fprintf(&b, "**%s** at **%s**, %s\n\n", s.Date, s.Time, s.Location)
	fmt.Fprintf(&b, "Spots: %d/%d", len(s.EnrolledPlayers), s.Capacity)
	if n := len(s.Waitlist); n > 0 {
		fmt.Fprintf(&b, ", %d waitlisted", n)
	}
	b.WriteString("\n\n")

	if status != nil {
		switch status.Status {
		case projections.StatusSignedUp:
			b.WriteString("You are **signed up**.\n\n")
		case projections.StatusWaitlisted:
			fmt.Fprintf(&b, "You are **waitlisted** at position %d.\n\n", status.WaitlistPosition)
		case projections.StatusFull:
			b.WriteString("This session is **full**; enrolling joins the waitlist.\n\n")
		default:
			fmt.Fprintf(&b, "%d spots open.\n\n", status.OpenSpots)
		}
	}

	if s.Notes != "" {
		fmt.Fprintf(&b, "> %s\n\n", strings.ReplaceAll(s.Notes, "\n", "\n> "))
	}

	writeList(&b, "Players", s.EnrolledPlayers)
	writeList(&b, "Waitlist", s.Waitlist)
	if s.HasTeams() {
		writeList(&b, "Team A", s.TeamA)
		writeList(&b, "Team B", s.TeamB)
	}
	if s.Score != nil {
		fmt.Fprintf(&b, "## Score\n\nTeam A **%d** - **%d** Team B\n", s.Score.TeamA, s.Score.TeamB)
	}
	return b.String()
}

func writeList(b *strings.Builder, heading string, names []string) {
	if len(names) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", heading)
	for i, n := range names {
		fmt.Fprintf(b, "%d. %s\n", i+1, n)
	}
	b.WriteString("\n")
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// renderMarkdown styles md for the terminal unless plain is set.
func renderMarkdown(md string, plain bool) (string, error) {
	if plain {
		return md, nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}

// badge colours an enrollment status for the session table.
func badge(status projections.EnrollmentStatus) string {
	if status == "" {
		return "-"
	}
	p := termenv.ColorProfile()
	s := termenv.String(string(status))
	switch status {
	case projections.StatusSignedUp:
		s = s.Foreground(p.Color("#22c55e"))
	case projections.StatusWaitlisted:
		s = s.Foreground(p.Color("#f59e0b"))
	case projections.StatusFull:
		s = s.Foreground(p.Color("#ef4444"))
	}
	return s.String()
}
