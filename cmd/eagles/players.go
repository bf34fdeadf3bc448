package main

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"text/tabwriter"

	"eagles/internal/app"
	"eagles/internal/application/identity"
	"eagles/internal/application/listutil"
	"eagles/internal/application/projections"
	"eagles/internal/application/seed"
	"eagles/internal/domain/player"

	"github.com/spf13/cobra"
)

func (c *cli) registerCmd() *cobra.Command {
	var in identity.RegisterInput
	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Register a new player and log in as them",
		Args:  cobra.ExactArgs(1),
		RunE: c.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			in.Username = args[0]
			u, err := a.Identity.Register(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered and logged in as %s\n", u.Username)
			return nil
		}),
	}
	cmd.Flags().StringVar(&in.Credential, "password", "", "password (accepted, not checked)")
	cmd.Flags().StringVar(&in.SkillLevel, "skill", "", "beginner, intermediate or advanced")
	cmd.Flags().StringVar(&in.Role, "role", "", "setter, outside_hitter, opposite, middle_blocker or libero")
	return cmd
}

func (c *cli) loginCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Make a registered player the active user of this device",
		Args:  cobra.ExactArgs(1),
		RunE: c.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			u, err := a.Identity.Login(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			suffix := ""
			if a.Identity.IsAdmin(u.Username) {
				suffix = " (admin)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s%s\n", u.Username, suffix)
			return nil
		}),
	}
	cmd.Flags().StringVar(&password, "password", "", "password (accepted, not checked)")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the active user",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			a.Identity.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		}),
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the active user",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			u, ok := a.Identity.Active()
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				return nil
			}
			printPlayer(cmd, u, a.Identity.IsAdmin(u.Username))
			return nil
		}),
	}
}

func (c *cli) playersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "players",
		Short: "List, inspect and update players",
	}
	cmd.AddCommand(c.playersListCmd(), c.playersShowCmd(), c.playersUpdateCmd())
	return cmd
}

func (c *cli) playersListCmd() *cobra.Command {
	var sortCol, dir, search, skill, role string
	var page, perPage int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the player statistics table",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			q := url.Values{}
			q.Set("sort", sortCol)
			q.Set("dir", dir)
			q.Set("q", search)
			q.Set("skill", skill)
			q.Set("role", role)
			q.Set("page", strconv.Itoa(page))
			q.Set("per_page", strconv.Itoa(perPage))
			query := listutil.Parse(q, projections.PlayerStatsColumns)

			result, err := projections.QueryPlayerStats(cmd.Context(), projections.PlayerStatsQuery{Query: query}, projections.PlayerStatsDeps{
				Users: a.Identity,
			})
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "USERNAME\tSKILL\tROLE\tMATCHES\tWINS\tLOSSES\tWIN%\tPOINTS")
			for _, row := range result.Rows {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%.1f\t%d\n",
					row.Username, dash(row.SkillLevel), dash(row.Role),
					row.MatchesPlayed, row.Wins, row.Losses, row.WinRate, row.PointsScored)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			info := result.PageInfo
			fmt.Fprintf(cmd.OutOrStdout(), "page %d/%d (%d players)\n", info.Page, info.TotalPages, info.Total)
			return nil
		}),
	}
	cmd.Flags().StringVar(&sortCol, "sort", "", "username, matches, wins, winRate or points")
	cmd.Flags().StringVar(&dir, "dir", "asc", "asc or desc")
	cmd.Flags().StringVarP(&search, "search", "q", "", "filter by username substring")
	cmd.Flags().StringVar(&skill, "skill", "", "only this skill level")
	cmd.Flags().StringVar(&role, "role", "", "only this court role")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&perPage, "per-page", listutil.DefaultPerPage, "rows per page (10, 20, 50 or 100)")
	return cmd
}

func (c *cli) playersShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <username>",
		Short: "Show one player's profile",
		Args:  cobra.ExactArgs(1),
		RunE: c.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			u, ok := a.Identity.Lookup(args[0])
			if !ok {
				return identity.ErrUnknownUser
			}
			printPlayer(cmd, u, a.Identity.IsAdmin(u.Username))
			return nil
		}),
	}
}

func (c *cli) playersUpdateCmd() *cobra.Command {
	var skill, role, email, avatar string
	cmd := &cobra.Command{
		Use:   "update [username]",
		Short: "Update your profile (administrators may name another player)",
		Args:  cobra.MaximumNArgs(1),
		RunE: c.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			username, err := actingFor(a, args, 0)
			if err != nil {
				return err
			}
			var patch player.Patch
			flags := cmd.Flags()
			if flags.Changed("skill") {
				patch.SkillLevel = &skill
			}
			if flags.Changed("role") {
				patch.Role = &role
			}
			if flags.Changed("email") {
				patch.Email = &email
			}
			if flags.Changed("avatar") {
				patch.AvatarURL = &avatar
			}
			if patch.IsEmpty() {
				return fmt.Errorf("nothing to update; pass --skill, --role, --email or --avatar")
			}
			u, err := a.Identity.UpdateProfile(cmd.Context(), username, patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", u.Username)
			return nil
		}),
	}
	cmd.Flags().StringVar(&skill, "skill", "", "beginner, intermediate or advanced")
	cmd.Flags().StringVar(&role, "role", "", "court role")
	cmd.Flags().StringVar(&email, "email", "", "address for waitlist promotion notices")
	cmd.Flags().StringVar(&avatar, "avatar", "", "avatar image URL")
	return cmd
}

func printPlayer(cmd *cobra.Command, u player.User, admin bool) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s", u.Username)
	if admin {
		fmt.Fprint(out, " (admin)")
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  skill:    %s\n", dash(u.SkillLevel))
	fmt.Fprintf(out, "  role:     %s\n", dash(u.Role))
	fmt.Fprintf(out, "  email:    %s\n", dash(u.Email))
	fmt.Fprintf(out, "  record:   %d played, %d won, %d lost (%.1f%%)\n",
		u.Stats.MatchesPlayed, u.Stats.Wins, u.Stats.Losses, u.Stats.WinRate())
	fmt.Fprintf(out, "  points:   %d\n", u.Stats.PointsScored)
}

func (c *cli) squadsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "squads",
		Short: "List the club squads and their captains",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			result, err := projections.QuerySquads(cmd.Context(), projections.SquadsQuery{}, projections.SquadsDeps{
				Users:    a.Identity,
				Captains: seed.Captains(),
			})
			if err != nil {
				return err
			}
			if len(result.Squads) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No squads")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SQUAD\tCAPTAIN\tPLAYERS")
			for _, sq := range result.Squads {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", sq.Name, dash(sq.Captain), strings.Join(sq.Players, ", "))
			}
			return tw.Flush()
		}),
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
