package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

func newTagCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage effort categories",
	}

	var (
		color    string
		capacity int
	)
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("capacity") {
				capacity = e.cfg.DefaultCapacity
			}
			t, err := e.svc.CreateTag(args[0], color, capacity)
			if err != nil {
				return err
			}
			e.log.Info("tag created", "id", t.ID, "name", t.Name)
			fmt.Fprintf(cmd.OutOrStdout(), "Created tag %s (%d points/week)\n", t.Name, t.Capacity)
			return nil
		},
	}
	add.Flags().StringVarP(&color, "color", "c", "", "hex color, e.g. #2EC4B6")
	add.Flags().IntVar(&capacity, "capacity", 0, "weekly capacity in points (default from config)")

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List categories",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tags, err := e.svc.Tags()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, t := range tags {
				dot := lipgloss.NewStyle().Foreground(lipgloss.Color(t.Color)).Render("●")
				fmt.Fprintf(out, "%s %-20s %3d pts/week  %s\n", dot, t.Name, t.Capacity, idStyle.Render(shortID(t.ID)))
			}
			return nil
		},
	}

	rename := &cobra.Command{
		Use:   "rename <tag> <new-name>",
		Short: "Rename a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := e.svc.LookupTag(args[0])
			if err != nil {
				return err
			}
			if t, err = e.svc.RenameTag(t.ID, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed tag to %s\n", t.Name)
			return nil
		},
	}

	capacityCmd := &cobra.Command{
		Use:   "capacity <tag> <points>",
		Short: "Set a category's default weekly capacity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := e.svc.LookupTag(args[0])
			if err != nil {
				return err
			}
			points, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid capacity %q", args[1])
			}
			if t, err = e.svc.SetTagCapacity(t.ID, points); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s capacity is %d points/week\n", t.Name, t.Capacity)
			return nil
		},
	}

	colorCmd := &cobra.Command{
		Use:   "color <tag> <hex>",
		Short: "Change a category's color",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := e.svc.LookupTag(args[0])
			if err != nil {
				return err
			}
			if t, err = e.svc.SetTagColor(t.ID, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s color is %s\n", t.Name, t.Color)
			return nil
		},
	}

	rm := &cobra.Command{
		Use:     "rm <tag>",
		Aliases: []string{"delete"},
		Short:   "Delete an unused category",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := e.svc.LookupTag(args[0])
			if err != nil {
				return err
			}
			if err := e.svc.DeleteTag(t.ID); err != nil {
				return err
			}
			e.log.Info("tag deleted", "id", t.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted tag %s\n", t.Name)
			return nil
		},
	}

	cmd.AddCommand(add, list, rename, capacityCmd, colorCmd, rm)
	return cmd
}
