package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSkipCmd(e *env) *cobra.Command {
	var day string
	cmd := &cobra.Command{
		Use:   "skip <id>",
		Short: "Deprioritize a task for now, or hide it until tomorrow",
		Long: `Deprioritize a task.

Without flags the task moves behind every unskipped task in the focus
queue. With --day it disappears from focus until the next midnight; the
reason is stored as a justification comment.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := e.resolveTask(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if cmd.Flags().Changed("day") {
				if t, err = e.svc.SkipForDay(t.ID, day); err != nil {
					return err
				}
				e.log.Info("task skipped for the day", "id", t.ID, "return_at", t.Skip.ReturnAt)
				fmt.Fprintf(out, "Skipped %s until %s\n", t.Title, formatTime(t.Skip.ReturnAt))
				return nil
			}
			if t, err = e.svc.SkipForNow(t.ID); err != nil {
				return err
			}
			e.log.Info("task skipped for now", "id", t.ID)
			fmt.Fprintf(out, "Skipped %s for now\n", t.Title)
			return nil
		},
	}
	cmd.Flags().StringVar(&day, "day", "", "hide until midnight with this justification")
	return cmd
}

func newUnskipCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "unskip <id>",
		Short: "Clear a task's skip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := e.resolveTask(args[0])
			if err != nil {
				return err
			}
			if t, err = e.svc.ClearSkip(t.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Unskipped %s\n", t.Title)
			return nil
		},
	}
}

func newCommentCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comment",
		Short: "Manage task comments",
	}

	add := &cobra.Command{
		Use:   "add <task-id> <text>...",
		Short: "Add a comment",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := e.resolveTask(args[0])
			if err != nil {
				return err
			}
			c, err := e.svc.AddComment(t.ID, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			e.log.Info("comment added", "task", t.ID, "comment", c.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "Added comment %s\n", idStyle.Render(shortID(c.ID)))
			return nil
		},
	}

	edit := &cobra.Command{
		Use:   "edit <task-id> <comment-id> <text>...",
		Short: "Replace a comment's text",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := e.resolveTask(args[0])
			if err != nil {
				return err
			}
			cid, err := resolveComment(t, args[1])
			if err != nil {
				return err
			}
			if _, err := e.svc.EditComment(t.ID, cid, strings.Join(args[2:], " ")); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Edited comment %s\n", idStyle.Render(shortID(cid)))
			return nil
		},
	}

	rm := &cobra.Command{
		Use:     "rm <task-id> <comment-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a comment",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := e.resolveTask(args[0])
			if err != nil {
				return err
			}
			cid, err := resolveComment(t, args[1])
			if err != nil {
				return err
			}
			if _, err := e.svc.DeleteComment(t.ID, cid); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted comment %s\n", idStyle.Render(shortID(cid)))
			return nil
		},
	}

	cmd.AddCommand(add, edit, rm)
	return cmd
}
