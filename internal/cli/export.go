package cli

import (
	"fmt"
	"strings"

	"github.com/aanduque/checkmate/internal/export"
	"github.com/aanduque/checkmate/internal/sprint"
	"github.com/aanduque/checkmate/internal/task"
	"github.com/spf13/cobra"
)

func newExportCmd(e *env) *cobra.Command {
	var (
		format    string
		outPath   string
		sprintRef string
	)
	names := make([]string, len(export.Formats))
	for i, f := range export.Formats {
		names[i] = string(f)
	}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export tasks, sessions and sprint health",
		Long: `Export tasks to CSV, JSON or YAML.

With --sprint only that sprint's tasks are exported and the report carries
the sprint's health. Without --out the report goes to stdout.

Formats: ` + strings.Join(names, ", "),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			var (
				tasks  []*task.Task
				health *sprint.Health
			)
			if sprintRef != "" {
				id := e.resolveSprint(sprintRef)
				if tasks, err = e.svc.SprintTasks(id); err != nil {
					return err
				}
				h, err := e.svc.SprintHealth(id)
				if err != nil {
					return err
				}
				health = &h
			} else if tasks, err = e.svc.Tasks(); err != nil {
				return err
			}
			tags, err := e.tagIndex()
			if err != nil {
				return err
			}

			report := export.NewReport(tasks, tags, health, e.svc.Now())
			if outPath == "" {
				return export.Write(cmd.OutOrStdout(), f, report)
			}
			if err := export.ToFile(outPath, f, report); err != nil {
				return err
			}
			e.log.Info("exported", "format", string(f), "path", outPath, "tasks", report.Count)
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d task(s) to %s\n", report.Count, outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(export.FormatJSON), "output format")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&sprintRef, "sprint", "s", "", "only this sprint (id, current or next)")
	return cmd
}
