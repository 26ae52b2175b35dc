package cli

import (
	"fmt"
	"strconv"

	"github.com/aanduque/checkmate/internal/sprint"
	"github.com/spf13/cobra"
)

func newSprintCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sprint",
		Short: "Inspect sprints and their health",
	}

	show := &cobra.Command{
		Use:   "show [sprint-id|current|next]",
		Short: "Show sprint health per category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := ""
			if len(args) == 1 {
				ref = args[0]
			}
			h, err := e.svc.SprintHealth(e.resolveSprint(ref))
			if err != nil {
				return err
			}
			printHealth(cmd, h)
			return nil
		},
	}

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List sprints that hold tasks or overrides",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sprints, err := e.svc.Sprints()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			current := e.svc.CurrentSprintID()
			if len(sprints) == 0 {
				fmt.Fprintln(out, mutedStyle.Render("No sprints yet."))
				return nil
			}
			for _, sp := range sprints {
				mark := " "
				if sp.ID == current {
					mark = focusStyle.Render("▶")
				}
				fmt.Fprintf(out, "%s %s  %s – %s\n", mark, sp.ID,
					sp.Start.Format("Mon Jan 02"), sp.End.Format("Mon Jan 02"))
			}
			return nil
		},
	}

	var clearOverride bool
	capacity := &cobra.Command{
		Use:   "capacity <sprint-id|current|next> <tag> [points]",
		Short: "Override a category's capacity for one sprint",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := e.resolveSprint(args[0])
			t, err := e.svc.LookupTag(args[1])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if clearOverride {
				if _, err := e.svc.ClearSprintCapacity(id, t.ID); err != nil {
					return err
				}
				fmt.Fprintf(out, "%s uses its default capacity in sprint %s\n", t.Name, id)
				return nil
			}
			if len(args) != 3 {
				return fmt.Errorf("missing points: pass a capacity or --clear")
			}
			points, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid points %q", args[2])
			}
			if _, err := e.svc.SetSprintCapacity(id, t.ID, points); err != nil {
				return err
			}
			e.log.Info("sprint capacity set", "sprint", id, "tag", t.ID, "points", points)
			fmt.Fprintf(out, "%s capacity is %d points in sprint %s\n", t.Name, points, id)
			return nil
		},
	}
	capacity.Flags().BoolVar(&clearOverride, "clear", false, "remove the override")

	cmd.AddCommand(show, list, capacity)
	return cmd
}

func printHealth(cmd *cobra.Command, h sprint.Health) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s  %s  %s\n",
		titleStyle.Render("Sprint"), h.SprintID,
		healthStyle(h.Status).Render(string(h.Status)),
		mutedStyle.Render(fmt.Sprintf("%d day(s) left", h.DaysRemaining)))
	if len(h.Categories) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("  No categories."))
		return
	}
	fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("  %-16s %8s %8s %10s %12s  %s",
		"Category", "Assigned", "Capacity", "Needed/d", "Sustainable", "Status")))
	for _, c := range h.Categories {
		fmt.Fprintf(out, "  %-16s %8d %8d %10.2f %12.2f  %s\n",
			c.Name, c.Assigned, c.Capacity, c.NeededRate, c.SustainableRate,
			healthStyle(c.Status).Render(string(c.Status)))
	}
}
