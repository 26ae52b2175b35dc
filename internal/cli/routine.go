package cli

import (
	"fmt"
	"strings"

	"github.com/aanduque/checkmate/internal/app"
	"github.com/aanduque/checkmate/internal/routine"
	"github.com/spf13/cobra"
)

const routineHelp = `Activation expressions see dayOfWeek (0 = Sunday), hour, minute,
minutesSinceMidnight, isWeekday, isWeekend and time ("HH:MM").
Filter expressions see title, description, points, tags (category names),
categories (category ids), inSprint, isTemplate, isInstance, skipped and
order. Blank expressions always match.`

// resolveRoutine finds a routine by case-insensitive name or id prefix.
func (e *env) resolveRoutine(ref string) (*routine.Routine, error) {
	routines, err := e.svc.Routines()
	if err != nil {
		return nil, err
	}
	for _, r := range routines {
		if strings.EqualFold(r.Name, strings.TrimSpace(ref)) {
			return r, nil
		}
	}
	ids := make([]string, len(routines))
	for i, r := range routines {
		ids[i] = r.ID
	}
	id, err := matchID(ids, ref, "routine")
	if err != nil {
		return nil, err
	}
	return e.svc.Routine(id)
}

func newRoutineCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routine",
		Short: "Manage context routines that filter the focus queue",
		Long:  "Manage context routines that filter the focus queue.\n\n" + routineHelp,
	}

	var (
		priority    int
		activation  string
		filter      string
		description string
	)
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a routine",
		Long: `Create a routine.

` + routineHelp + `

Example:
  checkmate routine add "Work hours" --priority 5 \
    --when "isWeekday && hour >= 9 && hour < 17" --filter '"work" in tags'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := e.svc.CreateRoutine(args[0], priority, activation, filter, description)
			if err != nil {
				return err
			}
			e.log.Info("routine created", "id", r.ID, "name", r.Name)
			fmt.Fprintf(cmd.OutOrStdout(), "Created routine %s (priority %d)\n", r.Name, r.Priority)
			return nil
		},
	}
	add.Flags().IntVarP(&priority, "priority", "p", routine.MinPriority, "priority from 1 to 10; higher wins")
	add.Flags().StringVarP(&activation, "when", "w", "", "activation expression")
	add.Flags().StringVarP(&filter, "filter", "f", "", "task filter expression")
	add.Flags().StringVarP(&description, "description", "d", "", "description")

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List routines by priority",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			routines, err := e.svc.Routines()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(routines) == 0 {
				fmt.Fprintln(out, mutedStyle.Render("No routines."))
				return nil
			}
			active, _, err := e.svc.ActiveRoutine()
			if err != nil {
				return err
			}
			for _, r := range routines {
				mark := " "
				if active != nil && active.ID == r.ID {
					mark = focusStyle.Render("▶")
				}
				fmt.Fprintf(out, "%s %2d  %-20s %s\n", mark, r.Priority, r.Name, idStyle.Render(shortID(r.ID)))
				if r.Activation != "" {
					fmt.Fprintf(out, "        %s %s\n", mutedStyle.Render("when:  "), r.Activation)
				}
				if r.Filter != "" {
					fmt.Fprintf(out, "        %s %s\n", mutedStyle.Render("filter:"), r.Filter)
				}
			}
			return nil
		},
	}

	activeCmd := &cobra.Command{
		Use:   "active",
		Short: "Show the routine in effect now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, manual, err := e.svc.ActiveRoutine()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if r == nil {
				fmt.Fprintln(out, mutedStyle.Render("No routine active."))
				return nil
			}
			how := "by schedule"
			if manual {
				how = "manually"
			}
			fmt.Fprintf(out, "%s %s\n", r.Name, mutedStyle.Render("("+how+")"))
			return nil
		},
	}

	use := &cobra.Command{
		Use:   "use <routine>",
		Short: "Pin a routine regardless of the clock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := e.resolveRoutine(args[0])
			if err != nil {
				return err
			}
			if err := e.svc.SetRoutineOverride(r.ID); err != nil {
				return err
			}
			e.log.Info("routine override set", "id", r.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "Using %s until `checkmate routine auto`\n", r.Name)
			return nil
		},
	}

	auto := &cobra.Command{
		Use:   "auto",
		Short: "Return to clock-based routine activation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.svc.ClearRoutineOverride(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Routines follow the clock again")
			return nil
		},
	}

	var (
		editName        string
		editPriority    int
		editActivation  string
		editFilter      string
		editDescription string
	)
	edit := &cobra.Command{
		Use:   "edit <routine>",
		Short: "Change a routine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := e.resolveRoutine(args[0])
			if err != nil {
				return err
			}
			var c app.RoutineChange
			flags := cmd.Flags()
			if flags.Changed("name") {
				c.Name = &editName
			}
			if flags.Changed("priority") {
				c.Priority = &editPriority
			}
			if flags.Changed("when") {
				c.Activation = &editActivation
			}
			if flags.Changed("filter") {
				c.Filter = &editFilter
			}
			if flags.Changed("description") {
				c.Description = &editDescription
			}
			if r, err = e.svc.UpdateRoutine(r.ID, c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated routine %s\n", r.Name)
			return nil
		},
	}
	edit.Flags().StringVar(&editName, "name", "", "new name")
	edit.Flags().IntVarP(&editPriority, "priority", "p", 0, "new priority")
	edit.Flags().StringVarP(&editActivation, "when", "w", "", "new activation expression")
	edit.Flags().StringVarP(&editFilter, "filter", "f", "", "new filter expression")
	edit.Flags().StringVarP(&editDescription, "description", "d", "", "new description")

	rm := &cobra.Command{
		Use:     "rm <routine>",
		Aliases: []string{"delete"},
		Short:   "Delete a routine",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := e.resolveRoutine(args[0])
			if err != nil {
				return err
			}
			if err := e.svc.DeleteRoutine(r.ID); err != nil {
				return err
			}
			e.log.Info("routine deleted", "id", r.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted routine %s\n", r.Name)
			return nil
		},
	}

	cmd.AddCommand(add, list, activeCmd, use, auto, edit, rm)
	return cmd
}
