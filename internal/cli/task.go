package cli

import (
	"fmt"
	"strings"

	"github.com/aanduque/checkmate/internal/task"
	"github.com/spf13/cobra"
)

func newAddCmd(e *env) *cobra.Command {
	var (
		effortSpec  string
		description string
		sprintRef   string
		every       string
	)
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task in the backlog",
		Long: `Create a task in the backlog.

Effort is a list of category:points pairs using tag names, for example
"work:3" or "work:2,home:1". Points must be Fibonacci values (0, 1, 2, 3,
5, 8, 13, 21). Use --sprint to place the task in a sprint right away and
--every to make it a recurring template instead.

Examples:
  checkmate add "Write report" --effort work:3 --sprint current
  checkmate add "Water plants" --effort home:1 --every "FREQ=WEEKLY;BYDAY=MO,TH"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			alloc, err := e.svc.ResolveEffort(effortSpec)
			if err != nil {
				return err
			}
			if every != "" && sprintRef != "" {
				return fmt.Errorf("--every and --sprint cannot be combined: templates live in the backlog")
			}

			var t *task.Task
			if every != "" {
				t, err = e.svc.CreateTemplate(args[0], alloc, every)
			} else {
				t, err = e.svc.CreateTask(args[0], alloc)
			}
			if err != nil {
				return err
			}
			if description != "" {
				if t, err = e.svc.UpdateDescription(t.ID, description); err != nil {
					return err
				}
			}
			if sprintRef != "" {
				if t, err = e.svc.MoveToSprint(t.ID, e.resolveSprint(sprintRef)); err != nil {
					return err
				}
			}
			e.log.Info("task created", "id", t.ID, "points", t.Points())

			tags, err := e.tagIndex()
			if err != nil {
				return err
			}
			printTaskLine(cmd.OutOrStdout(), t, tags)
			return nil
		},
	}
	cmd.Flags().StringVarP(&effortSpec, "effort", "e", "", "effort allocation, e.g. work:3,home:1")
	cmd.Flags().StringVarP(&description, "description", "d", "", "task description")
	cmd.Flags().StringVarP(&sprintRef, "sprint", "s", "", "sprint id, \"current\" or \"next\"")
	cmd.Flags().StringVar(&every, "every", "", "recurrence rule (RRULE) for a template")
	_ = cmd.MarkFlagRequired("effort")
	return cmd
}

func newListCmd(e *env) *cobra.Command {
	var (
		sprintRef string
		backlog   bool
		templates bool
		status    string
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				tasks []*task.Task
				err   error
			)
			switch {
			case templates:
				tasks, err = e.svc.Templates()
			case backlog:
				tasks, err = e.svc.Backlog()
			case sprintRef != "":
				tasks, err = e.svc.SprintTasks(e.resolveSprint(sprintRef))
			case status != "":
				s := task.Status(strings.ToLower(status))
				if !s.IsValid() {
					return fmt.Errorf("invalid status %q: use active, completed or canceled", status)
				}
				tasks, err = e.svc.TasksByStatus(s)
			default:
				tasks, err = e.svc.Tasks()
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(tasks) == 0 {
				fmt.Fprintln(out, mutedStyle.Render("No tasks."))
				return nil
			}
			tags, err := e.tagIndex()
			if err != nil {
				return err
			}
			for _, t := range tasks {
				printTaskLine(out, t, tags)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&sprintRef, "sprint", "s", "", "only tasks in this sprint (id, current or next)")
	cmd.Flags().BoolVarP(&backlog, "backlog", "b", false, "only backlog tasks")
	cmd.Flags().BoolVar(&templates, "templates", false, "only recurring templates")
	cmd.Flags().StringVar(&status, "status", "", "only tasks with this status")
	return cmd
}

func newShowCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task with its comments and sessions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := e.resolveTask(args[0])
			if err != nil {
				return err
			}
			tags, err := e.tagIndex()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render(t.Title))
			fmt.Fprintf(out, "  id:        %s\n", idStyle.Render(t.ID))
			fmt.Fprintf(out, "  status:    %s\n", t.Status)
			fmt.Fprintf(out, "  location:  %s\n", t.Location)
			fmt.Fprintf(out, "  effort:    %s (%d points)\n", effortString(t, tags), t.Points())
			fmt.Fprintf(out, "  created:   %s\n", formatTime(t.CreatedAt.In(e.svc.Now().Location())))
			if t.Description != "" {
				fmt.Fprintf(out, "  notes:     %s\n", t.Description)
			}
			if t.Recurrence != "" {
				fmt.Fprintf(out, "  repeats:   %s\n", t.Recurrence)
			}
			if t.ParentID != "" {
				fmt.Fprintf(out, "  template:  %s\n", shortID(t.ParentID))
			}
			if t.Skip != nil {
				fmt.Fprintf(out, "  skip:      %s\n", describeSkip(t))
			}
			if len(t.SprintHistory) > 0 {
				fmt.Fprintf(out, "  sprints:   %s\n", strings.Join(t.SprintHistory, ", "))
			}
			fmt.Fprintf(out, "  focused:   %s\n", formatDuration(t.FocusedTime()))

			if len(t.Comments) > 0 {
				fmt.Fprintln(out, titleStyle.Render("Comments"))
				for _, c := range t.Comments {
					mark := " "
					if c.SkipJustification {
						mark = "⏸"
					}
					fmt.Fprintf(out, "  %s %s %s  %s\n", mark, idStyle.Render(shortID(c.ID)),
						mutedStyle.Render(formatTime(c.CreatedAt)), c.Text)
				}
			}
			if len(t.Sessions) > 0 {
				fmt.Fprintln(out, titleStyle.Render("Sessions"))
				for _, s := range t.Sessions {
					dur := formatDuration(s.Duration())
					if s.EndedAt == nil {
						dur = "running"
					}
					line := fmt.Sprintf("  %s %s  %-11s %s", idStyle.Render(shortID(s.ID)),
						formatTime(s.StartedAt), s.Status, dur)
					if s.Rating != task.RatingNone {
						line += "  " + string(s.Rating)
					}
					if s.Notes != "" {
						line += mutedStyle.Render("  " + s.Notes)
					}
					fmt.Fprintln(out, line)
				}
			}
			return nil
		},
	}
}

func describeSkip(t *task.Task) string {
	switch {
	case t.Skip.Kind == task.SkipForNow:
		return "skipped for now"
	case t.Skip.Returned:
		return "returned from day skip"
	}
	return "hidden until " + formatTime(t.Skip.ReturnAt)
}

func newEditCmd(e *env) *cobra.Command {
	var (
		title       string
		description string
		effortSpec  string
		order       int
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a task's title, description, effort or order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := e.resolveTask(args[0])
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if !flags.Changed("title") && !flags.Changed("description") &&
				!flags.Changed("effort") && !flags.Changed("order") {
				return fmt.Errorf("nothing to change: pass --title, --description, --effort or --order")
			}

			if flags.Changed("title") {
				if t, err = e.svc.UpdateTitle(t.ID, title); err != nil {
					return err
				}
			}
			if flags.Changed("description") {
				if t, err = e.svc.UpdateDescription(t.ID, description); err != nil {
					return err
				}
			}
			if flags.Changed("effort") {
				alloc, err := e.svc.ResolveEffort(effortSpec)
				if err != nil {
					return err
				}
				if t, err = e.svc.UpdateEffort(t.ID, alloc); err != nil {
					return err
				}
			}
			if flags.Changed("order") {
				if t, err = e.svc.SetOrder(t.ID, order); err != nil {
					return err
				}
			}
			e.log.Info("task updated", "id", t.ID)

			tags, err := e.tagIndex()
			if err != nil {
				return err
			}
			printTaskLine(cmd.OutOrStdout(), t, tags)
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	cmd.Flags().StringVarP(&effortSpec, "effort", "e", "", "new effort allocation")
	cmd.Flags().IntVarP(&order, "order", "o", 0, "manual sort order (lower first)")
	return cmd
}

func newDoneCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "done <id>",
		Aliases: []string{"complete"},
		Short:   "Mark a task completed",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := e.resolveTask(args[0])
			if err != nil {
				return err
			}
			if t, err = e.svc.Complete(t.ID); err != nil {
				return err
			}
			e.log.Info("task completed", "id", t.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "%s Completed %s\n", successStyle.Render("✓"), t.Title)
			return nil
		},
	}
}

func newCancelCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := e.resolveTask(args[0])
			if err != nil {
				return err
			}
			if t, err = e.svc.Cancel(t.ID); err != nil {
				return err
			}
			e.log.Info("task canceled", "id", t.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "%s Canceled %s\n", mutedStyle.Render("✗"), t.Title)
			return nil
		},
	}
}

func newDeleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a task permanently",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := e.resolveTask(args[0])
			if err != nil {
				return err
			}
			if err := e.svc.DeleteTask(t.ID); err != nil {
				return err
			}
			e.log.Info("task deleted", "id", t.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", t.Title)
			return nil
		},
	}
}

func newMoveCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <sprint-id|current|next|backlog>",
		Short: "Move a task to a sprint or back to the backlog",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := e.resolveTask(args[0])
			if err != nil {
				return err
			}
			if strings.EqualFold(args[1], "backlog") {
				t, err = e.svc.MoveToBacklog(t.ID)
			} else {
				t, err = e.svc.MoveToSprint(t.ID, e.resolveSprint(args[1]))
			}
			if err != nil {
				return err
			}
			e.log.Info("task moved", "id", t.ID, "location", t.Location.String())
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to %s\n", t.Title, t.Location)
			return nil
		},
	}
}
