package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"eagles/internal/app"
	"eagles/internal/application/orchestrators"
	"eagles/internal/application/projections"
	"eagles/internal/application/sessions"
	"eagles/internal/domain/session"

	"github.com/spf13/cobra"
)

func (c *cli) sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"session"},
		Short:   "List, show, create and delete sessions",
	}
	cmd.AddCommand(c.sessionsListCmd(), c.sessionsShowCmd(), c.sessionsCreateCmd(), c.sessionsDeleteCmd())
	return cmd
}

func (c *cli) sessionsListCmd() *cobra.Command {
	var past bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List upcoming sessions (or past ones with --past)",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			q := projections.SessionListQuery{View: projections.ViewUpcoming}
			if past {
				q.View = projections.ViewPast
			}
			if u, ok := a.Identity.Active(); ok {
				q.Username = u.Username
			}
			result, err := projections.QuerySessionList(cmd.Context(), q, projections.SessionListDeps{Sessions: a.Sessions})
			if err != nil {
				return err
			}
			if len(result.Sessions) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No %s sessions\n", result.View)
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDATE\tTIME\tTITLE\tLOCATION\tSPOTS\tSTATUS")
			for _, s := range result.Sessions {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d/%d\t%s\n",
					s.ID, s.Date, s.Time, s.Title, s.Location, s.Enrolled, s.Capacity, badge(s.Status))
			}
			return tw.Flush()
		}),
	}
	cmd.Flags().BoolVar(&past, "past", false, "list sessions dated before today")
	return cmd
}

func (c *cli) sessionsShowCmd() *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a session card",
		Args:  cobra.ExactArgs(1),
		RunE: c.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			sess, ok := a.Sessions.Get(args[0])
			if !ok {
				return sessions.ErrNotFound
			}
			var status *projections.EnrollmentStatusResult
			if u, ok := a.Identity.Active(); ok {
				st, err := projections.QueryEnrollmentStatus(cmd.Context(), projections.EnrollmentStatusQuery{
					SessionID: sess.ID,
					Username:  u.Username,
				}, projections.EnrollmentStatusDeps{Sessions: a.Sessions})
				if err != nil {
					return err
				}
				status = &st
			}
			w := cmd.OutOrStdout()
			out, err := renderMarkdown(sessionCard(sess, status), plain || !isTerminal(w))
			if err != nil {
				return err
			}
			fmt.Fprint(w, out)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "print the raw markdown card (implied when stdout is not a terminal)")
	return cmd
}

func (c *cli) sessionsCreateCmd() *cobra.Command {
	var in session.NewSession
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a session (administrators only)",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			if _, err := requireAdmin(a); err != nil {
				return err
			}
			sess, err := a.Sessions.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created session %s\n", sess.ID)
			return nil
		}),
	}
	flags := cmd.Flags()
	flags.StringVar(&in.Title, "title", "", "session title")
	flags.StringVar(&in.Date, "date", "", "date as YYYY-MM-DD")
	flags.StringVar(&in.Time, "time", "", "start time as HH:MM")
	flags.StringVar(&in.Location, "location", "", "venue")
	flags.IntVar(&in.Capacity, "capacity", 12, "maximum enrolled players")
	flags.StringVar(&in.Notes, "notes", "", "free-form notes")
	return cmd
}

func (c *cli) sessionsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a session (administrators only)",
		Args:  cobra.ExactArgs(1),
		RunE: c.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			if _, err := requireAdmin(a); err != nil {
				return err
			}
			if err := a.Sessions.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", args[0])
			return nil
		}),
	}
}

func (c *cli) enrollCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enroll <id> [username]",
		Short: "Sign up for a session, joining the waitlist when it is full",
		Args:  cobra.RangeArgs(1, 2),
		RunE: c.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			username, err := actingFor(a, args, 1)
			if err != nil {
				return err
			}
			result, err := orchestrators.ExecuteEnroll(cmd.Context(), orchestrators.EnrollInput{
				SessionID: args[0],
				Username:  username,
			}, orchestrators.EnrollDeps{Sessions: a.Sessions, Players: a.Identity})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch result {
			case session.Enrolled:
				fmt.Fprintf(out, "%s is signed up\n", username)
			case session.SessionFull:
				st, err := projections.QueryEnrollmentStatus(cmd.Context(), projections.EnrollmentStatusQuery{
					SessionID: args[0],
					Username:  username,
				}, projections.EnrollmentStatusDeps{Sessions: a.Sessions})
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Session is full; %s is on the waitlist (position %d)\n", username, st.WaitlistPosition)
			case session.AlreadyEnrolled:
				fmt.Fprintf(out, "%s is already signed up or waitlisted\n", username)
			}
			return nil
		}),
	}
}

func (c *cli) withdrawCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "withdraw <id> [username]",
		Short: "Leave a session or its waitlist",
		Args:  cobra.RangeArgs(1, 2),
		RunE: c.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			username, err := actingFor(a, args, 1)
			if err != nil {
				return err
			}
			result, err := orchestrators.ExecuteWithdraw(cmd.Context(), orchestrators.WithdrawInput{
				SessionID: args[0],
				Username:  username,
			}, orchestrators.WithdrawDeps{
				Sessions: a.Sessions,
				Players:  a.Identity,
				Sender:   a.Sender,
				From:     a.Config.ResendFrom,
				ReplyTo:  a.Config.ReplyTo,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case result.Outcome.WasEnrolled:
				fmt.Fprintf(out, "%s withdrew from the session\n", username)
			case result.Outcome.WasWaitlisted:
				fmt.Fprintf(out, "%s left the waitlist\n", username)
			default:
				fmt.Fprintf(out, "%s was not signed up\n", username)
			}
			if p := result.Outcome.Promoted; p != "" {
				fmt.Fprintf(out, "%s was promoted from the waitlist", p)
				if result.NoticeSent {
					fmt.Fprint(out, " and notified by email")
				}
				fmt.Fprintln(out)
			}
			return nil
		}),
	}
}

func (c *cli) teamsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "teams",
		Short: "Generate, adjust and clear session teams (administrators only)",
	}

	generate := &cobra.Command{
		Use:   "generate <id>",
		Short: "Split the enrolled players into two skill-balanced teams",
		Args:  cobra.ExactArgs(1),
		RunE: c.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			if _, err := requireAdmin(a); err != nil {
				return err
			}
			result, err := orchestrators.ExecuteGenerateTeams(cmd.Context(), orchestrators.GenerateTeamsInput{
				SessionID: args[0],
			}, orchestrators.GenerateTeamsDeps{
				Sessions: a.Sessions,
				Players:  a.Identity,
				Metrics:  a.Metrics,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Team A (weight %d): %s\n", result.WeightA, strings.Join(result.Session.TeamA, ", "))
			fmt.Fprintf(out, "Team B (weight %d): %s\n", result.WeightB, strings.Join(result.Session.TeamB, ", "))
			return nil
		}),
	}

	swap := &cobra.Command{
		Use:   "swap <id> <player> <player>",
		Short: "Exchange two players between Team A and Team B",
		Args:  cobra.ExactArgs(3),
		RunE: c.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			if _, err := requireAdmin(a); err != nil {
				return err
			}
			_, swapped, err := orchestrators.ExecuteSwapPlayers(cmd.Context(), orchestrators.SwapPlayersInput{
				SessionID: args[0],
				PlayerX:   args[1],
				PlayerY:   args[2],
			}, orchestrators.SwapPlayersDeps{Sessions: a.Sessions})
			if err != nil {
				return err
			}
			if !swapped {
				fmt.Fprintf(cmd.OutOrStdout(), "%s and %s are not on opposite teams; nothing changed\n", args[1], args[2])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Swapped %s and %s\n", args[1], args[2])
			return nil
		}),
	}

	clearTeams := &cobra.Command{
		Use:   "clear <id>",
		Short: "Remove both teams from a session",
		Args:  cobra.ExactArgs(1),
		RunE: c.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			if _, err := requireAdmin(a); err != nil {
				return err
			}
			if _, err := orchestrators.ExecuteClearTeams(cmd.Context(), orchestrators.ClearTeamsInput{
				SessionID: args[0],
			}, orchestrators.ClearTeamsDeps{Sessions: a.Sessions}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Teams cleared")
			return nil
		}),
	}

	cmd.AddCommand(generate, swap, clearTeams)
	return cmd
}

func (c *cli) scoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score <id> <teamA> <teamB>",
		Short: "Record the final score of a session (administrators only)",
		Args:  cobra.ExactArgs(3),
		RunE: c.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			if _, err := requireAdmin(a); err != nil {
				return err
			}
			teamA, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid Team A score %q", args[1])
			}
			teamB, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid Team B score %q", args[2])
			}
			sess, err := orchestrators.ExecuteRecordScore(cmd.Context(), orchestrators.RecordScoreInput{
				SessionID: args[0],
				TeamA:     teamA,
				TeamB:     teamB,
			}, orchestrators.RecordScoreDeps{Sessions: a.Sessions})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Score recorded for %s: %d - %d\n", sess.Title, sess.Score.TeamA, sess.Score.TeamB)
			return nil
		}),
	}
}

func (c *cli) historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List past matches with their teams and scores",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			result, err := projections.QueryMatchHistory(cmd.Context(), projections.MatchHistoryQuery{}, projections.MatchHistoryDeps{
				Sessions: a.Sessions,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(result.Matches) == 0 {
				fmt.Fprintln(out, "No matches played yet")
				return nil
			}
			for _, m := range result.Matches {
				fmt.Fprintf(out, "%s  %s (%s)\n", m.Date, m.Title, m.ScoreLabel)
				fmt.Fprintf(out, "  Team A: %s\n", strings.Join(m.TeamA, ", "))
				fmt.Fprintf(out, "  Team B: %s\n", strings.Join(m.TeamB, ", "))
			}
			return nil
		}),
	}
}
