package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/aanduque/checkmate/internal/app"
	"github.com/aanduque/checkmate/internal/task"
	"github.com/spf13/cobra"
)

func parseRating(s string) (task.Rating, error) {
	r := task.Rating(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", fmt.Errorf("%w: %q (use focused, neutral or distracted)", task.ErrInvalidRating, s)
	}
	return r, nil
}

func newSessionCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Track focus sessions",
	}

	start := &cobra.Command{
		Use:   "start [task-id]",
		Short: "Start a focus session (defaults to the focus task)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var t *task.Task
			if len(args) == 1 {
				var err error
				if t, err = e.resolveTask(args[0]); err != nil {
					return err
				}
			} else {
				view, err := e.svc.Focus("", app.FocusOptions{})
				if err != nil {
					return err
				}
				if view.Empty() {
					return fmt.Errorf("no focus task: pass a task id")
				}
				t = view.Focus
			}
			sess, err := e.svc.StartSession(t.ID)
			if err != nil {
				return err
			}
			e.log.Info("session started", "task", t.ID, "session", sess.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "%s Focusing on %s since %s\n",
				successStyle.Render("●"), t.Title, sess.StartedAt.Format("15:04"))
			return nil
		},
	}

	var (
		rating string
		notes  string
	)
	stop := &cobra.Command{
		Use:     "stop",
		Aliases: []string{"done"},
		Short:   "Complete the running session",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := parseRating(rating)
			if err != nil {
				return err
			}
			t, sess, err := e.svc.RunningSession()
			if err != nil {
				return err
			}
			if t == nil {
				return task.ErrSessionNotInProgress
			}
			if t, err = e.svc.CompleteSession(t.ID, sess.ID, r, notes); err != nil {
				return err
			}
			done := sessionByID(t, sess.ID)
			e.log.Info("session completed", "task", t.ID, "session", sess.ID, "duration", done.Duration())
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s on %s\n",
				successStyle.Render("✓"), formatDuration(done.Duration()), t.Title)
			return nil
		},
	}
	stop.Flags().StringVarP(&rating, "rating", "r", "", "focused, neutral or distracted")
	stop.Flags().StringVarP(&notes, "notes", "n", "", "session notes")

	abandon := &cobra.Command{
		Use:   "abandon",
		Short: "Abandon the running session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, sess, err := e.svc.RunningSession()
			if err != nil {
				return err
			}
			if t == nil {
				return task.ErrSessionNotInProgress
			}
			if _, err := e.svc.AbandonSession(t.ID, sess.ID); err != nil {
				return err
			}
			e.log.Info("session abandoned", "task", t.ID, "session", sess.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "Abandoned session on %s\n", t.Title)
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the running session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, sess, err := e.svc.RunningSession()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if t == nil {
				fmt.Fprintln(out, mutedStyle.Render("No session running."))
				return nil
			}
			elapsed := e.svc.Now().Sub(sess.StartedAt)
			fmt.Fprintf(out, "%s %s  %s\n", successStyle.Render("●"), formatDuration(elapsed), t.Title)
			return nil
		},
	}

	var (
		from     string
		to       string
		duration time.Duration
		logRate  string
		logNotes string
	)
	logCmd := &cobra.Command{
		Use:   "log <task-id>",
		Short: "Record a session that happened away from the timer",
		Long: `Record a completed session.

Give the start with --from and either --to or --duration. Times are HH:MM
(today), "YYYY-MM-DD HH:MM" or RFC 3339. Sessions are limited to 12 hours.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := e.resolveTask(args[0])
			if err != nil {
				return err
			}
			now := e.svc.Now()
			start, err := parseWhen(from, now)
			if err != nil {
				return err
			}
			var end time.Time
			switch {
			case to != "" && duration != 0:
				return fmt.Errorf("use either --to or --duration")
			case to != "":
				if end, err = parseWhen(to, now); err != nil {
					return err
				}
			case duration > 0:
				end = start.Add(duration)
			default:
				return fmt.Errorf("missing session end: pass --to or --duration")
			}
			r, err := parseRating(logRate)
			if err != nil {
				return err
			}
			sess, err := e.svc.LogSession(t.ID, start, end, r, logNotes)
			if err != nil {
				return err
			}
			e.log.Info("session logged", "task", t.ID, "session", sess.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "Logged %s on %s\n", formatDuration(sess.Duration()), t.Title)
			return nil
		},
	}
	logCmd.Flags().StringVar(&from, "from", "", "session start")
	logCmd.Flags().StringVar(&to, "to", "", "session end")
	logCmd.Flags().DurationVar(&duration, "duration", 0, "session length, e.g. 25m")
	logCmd.Flags().StringVarP(&logRate, "rating", "r", "", "focused, neutral or distracted")
	logCmd.Flags().StringVarP(&logNotes, "notes", "n", "", "session notes")
	_ = logCmd.MarkFlagRequired("from")

	cmd.AddCommand(start, stop, abandon, status, logCmd)
	return cmd
}

func sessionByID(t *task.Task, id string) task.Session {
	for _, s := range t.Sessions {
		if s.ID == id {
			return s
		}
	}
	return task.Session{}
}
