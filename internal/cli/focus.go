package cli

import (
	"fmt"

	"github.com/aanduque/checkmate/internal/app"
	"github.com/spf13/cobra"
)

func newFocusCmd(e *env) *cobra.Command {
	var (
		sprintRef string
		all       bool
		limit     int
	)
	cmd := &cobra.Command{
		Use:   "focus",
		Short: "Show the task to work on now and what comes next",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := e.svc.Focus(e.resolveSprint(sprintRef), app.FocusOptions{IgnoreRoutine: all})
			if err != nil {
				return err
			}
			tags, err := e.tagIndex()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, t := range view.Returned {
				fmt.Fprintf(out, "%s %s is back from its day skip\n", warningStyle.Render("↩"), t.Title)
			}
			if view.Routine != nil {
				how := "active"
				if view.Manual {
					how = "manual"
				}
				fmt.Fprintf(out, "%s %s %s\n", mutedStyle.Render("routine:"), view.Routine.Name, mutedStyle.Render("("+how+")"))
			}
			if view.Empty() {
				fmt.Fprintln(out, mutedStyle.Render("Nothing to focus on in sprint "+view.SprintID+"."))
				return nil
			}

			f := view.Focus
			fmt.Fprintf(out, "%s %s\n", focusStyle.Render("▶ "+f.Title), idStyle.Render(shortID(f.ID)))
			fmt.Fprintf(out, "  %s\n", mutedStyle.Render(fmt.Sprintf("%s · %d points", effortString(f, tags), f.Points())))
			if sess, ok := f.ActiveSession(); ok {
				fmt.Fprintf(out, "  %s %s\n", successStyle.Render("●"), formatDuration(e.svc.Now().Sub(sess.StartedAt)))
			}

			next := view.UpNext
			if !cmd.Flags().Changed("limit") {
				limit = e.cfg.Focus.ShowUpNext
			}
			if limit > 0 && len(next) > limit {
				next = next[:limit]
			}
			if len(next) > 0 {
				fmt.Fprintln(out, titleStyle.Render("Up next"))
				for _, t := range next {
					printTaskLine(out, t, tags)
				}
			}
			if hidden := len(view.UpNext) - len(next); hidden > 0 {
				fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("  … %d more", hidden)))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&sprintRef, "sprint", "s", "", "sprint id (default current)")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "ignore the active routine's filter")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "up-next tasks to show, 0 for all (default from config)")
	return cmd
}

func newSpawnCmd(e *env) *cobra.Command {
	var sprintRef string
	cmd := &cobra.Command{
		Use:   "spawn",
		Short: "Create this sprint's instances of recurring templates",
		Long: `Create task instances for every occurrence of every active recurring
template within a sprint. Running it again creates nothing new.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id := e.resolveSprint(sprintRef)
			created, err := e.svc.SpawnForSprint(id)
			if err != nil {
				return err
			}
			e.log.Info("spawned recurring instances", "sprint", id, "count", len(created))
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Spawned %d task(s) for sprint %s\n", len(created), id)
			if len(created) == 0 {
				return nil
			}
			tags, err := e.tagIndex()
			if err != nil {
				return err
			}
			for _, t := range created {
				printTaskLine(out, t, tags)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&sprintRef, "sprint", "s", "", "sprint id, current or next (default current)")
	return cmd
}

func newRecurCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recur",
		Short: "Manage recurrence rules of templates",
	}

	set := &cobra.Command{
		Use:   "set <task-id> <rrule>",
		Short: "Make a backlog task a recurring template",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := e.resolveTask(args[0])
			if err != nil {
				return err
			}
			if t, err = e.svc.SetRecurrence(t.ID, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s repeats %s\n", t.Title, t.Recurrence)
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear <task-id>",
		Short: "Turn a template back into a plain task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := e.resolveTask(args[0])
			if err != nil {
				return err
			}
			if t, err = e.svc.ClearRecurrence(t.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s no longer repeats\n", t.Title)
			return nil
		},
	}

	next := &cobra.Command{
		Use:   "next <task-id>",
		Short: "Show a template's next occurrence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := e.resolveTask(args[0])
			if err != nil {
				return err
			}
			at, ok, err := e.svc.NextOccurrence(t.ID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !ok {
				fmt.Fprintf(out, "%s has no further occurrences\n", t.Title)
				return nil
			}
			fmt.Fprintf(out, "%s next occurs %s\n", t.Title, formatTime(at))
			return nil
		},
	}

	cmd.AddCommand(set, clearCmd, next)
	return cmd
}
