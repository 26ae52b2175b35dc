// Package cli implements the checkmate command line over internal/app.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aanduque/checkmate/internal/app"
	"github.com/aanduque/checkmate/internal/config"
	"github.com/aanduque/checkmate/internal/store"
	"github.com/aanduque/checkmate/internal/tui"
	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

// Options customize a root command. The zero value runs against the real
// clock and launches the dashboard when no subcommand is given.
type Options struct {
	Clock func() time.Time
	// RunTUI replaces the dashboard launcher.
	RunTUI func(svc *app.Service, cfg *config.Config) error
}

// env is the state shared by every subcommand of one invocation.
type env struct {
	opts Options

	configPath string
	dbPath     string
	verbose    bool

	cfg   *config.Config
	store *store.Store
	svc   *app.Service
	log   *slog.Logger
}

// NewRootCmd builds the checkmate command tree.
func NewRootCmd(opts Options) *cobra.Command {
	e := &env{opts: opts}

	root := &cobra.Command{
		Use:   "checkmate",
		Short: "Checkmate - decide what to work on right now",
		Long: `Checkmate plans work in 7-day sprints measured in effort points and
picks one focus task at a time.

Run without arguments to open the focus dashboard.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return e.open(cmd.ErrOrStderr())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return e.close()
		},
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			run := e.opts.RunTUI
			if run == nil {
				run = tui.Run
			}
			return run(e.svc, e.cfg)
		},
	}

	root.PersistentFlags().StringVar(&e.configPath, "config", "", "config file (default ~/.config/checkmate/config.toml)")
	root.PersistentFlags().StringVar(&e.dbPath, "db", "", "database file (overrides db_path)")
	root.PersistentFlags().BoolVarP(&e.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newVersionCmd(),
		newAddCmd(e),
		newListCmd(e),
		newShowCmd(e),
		newEditCmd(e),
		newDoneCmd(e),
		newCancelCmd(e),
		newDeleteCmd(e),
		newMoveCmd(e),
		newSkipCmd(e),
		newUnskipCmd(e),
		newCommentCmd(e),
		newSessionCmd(e),
		newFocusCmd(e),
		newSpawnCmd(e),
		newRecurCmd(e),
		newTagCmd(e),
		newSprintCmd(e),
		newRoutineCmd(e),
		newExportCmd(e),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd(Options{}).Execute()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "checkmate %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
		},
	}
}

func (e *env) open(stderr io.Writer) error {
	cfg, err := config.Load(e.configPath)
	if err != nil {
		return err
	}
	e.cfg = cfg

	lvl, err := cfg.Level()
	if err != nil {
		return err
	}
	if e.verbose {
		lvl = slog.LevelDebug
	}
	e.log = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: lvl}))

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	path := e.dbPath
	if path == "" {
		path = cfg.DBPath
	}
	if path == "" {
		if path, err = store.DefaultDBPath(); err != nil {
			return err
		}
	}
	s, err := store.New(path)
	if err != nil {
		return err
	}
	s.SetLocation(loc)
	e.store = s
	e.log.Debug("opened database", "path", path, "timezone", loc.String())

	e.svc = app.New(app.Deps{
		Tasks:    s.Tasks(),
		Tags:     s.Tags(),
		Sprints:  s.Sprints(),
		Routines: s.Routines(),
		Settings: s,
		Clock:    e.opts.Clock,
		Location: loc,
	})
	return nil
}

func (e *env) close() error {
	if e.store == nil {
		return nil
	}
	err := e.store.Close()
	e.store = nil
	return err
}
