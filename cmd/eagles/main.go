package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"eagles/internal/app"
	"eagles/internal/config"
	"eagles/internal/domain/player"
	"eagles/internal/logger"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

var (
	errNotLoggedIn = errors.New("not logged in; run `eagles login <username>` first")
	errNotAdmin    = errors.New("this command is for administrators only")
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// cli carries the persistent flags shared by every command.
type cli struct {
	verbose bool
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "eagles",
		Short: "Eagles volleyball club manager",
		Long: `Manage club players, sessions, waitlists and balanced teams from the terminal.
Commands act as the device's active user; run "eagles login <username>" first.
Storage is selected with EAGLES_STORE and friends, the same as the server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if c.verbose {
				logger.SetupDefault(cmd.ErrOrStderr(), slog.LevelDebug)
				return
			}
			slog.SetDefault(logger.Discard())
		},
	}
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log structured events to stderr")

	root.AddCommand(
		c.registerCmd(),
		c.loginCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.playersCmd(),
		c.sessionsCmd(),
		c.enrollCmd(),
		c.withdrawCmd(),
		c.teamsCmd(),
		c.scoreCmd(),
		c.historyCmd(),
		c.squadsCmd(),
		serveCmd(),
		versionCmd(),
	)
	return root
}

// withApp opens the configured stores for the duration of one command.
func (c *cli) withApp(fn func(cmd *cobra.Command, args []string, a *app.App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		a, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, args, a)
	}
}

func requireActive(a *app.App) (player.User, error) {
	u, ok := a.Identity.Active()
	if !ok {
		return player.User{}, errNotLoggedIn
	}
	return u, nil
}

func requireAdmin(a *app.App) (player.User, error) {
	u, err := requireActive(a)
	if err != nil {
		return player.User{}, err
	}
	if !a.Identity.IsAdmin(u.Username) {
		return player.User{}, errNotAdmin
	}
	return u, nil
}

// actingFor resolves the optional [username] argument at index i.
// Players act for themselves; administrators may name anyone.
func actingFor(a *app.App, args []string, i int) (string, error) {
	u, err := requireActive(a)
	if err != nil {
		return "", err
	}
	if len(args) <= i || args[i] == u.Username {
		return u.Username, nil
	}
	if !a.Identity.IsAdmin(u.Username) {
		return "", fmt.Errorf("only administrators may act for %s", args[i])
	}
	return args[i], nil
}
