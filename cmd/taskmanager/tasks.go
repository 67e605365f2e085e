package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"task-manager/internal/model"
	"task-manager/internal/recurrence"
	"task-manager/internal/service"
)

type listOptions struct {
	status     string
	sort       string
	categories []string
	search     string
}

func newListCmd(opts *rootOptions) *cobra.Command {
	lo := &listOptions{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filters, key, err := lo.parse()
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			today := a.store.Today()
			tasks := service.SortTasks(service.FilterTasks(a.store.All(), filters, today), key)
			return printTasks(cmd.OutOrStdout(), tasks, today)
		},
	}
	cmd.Flags().StringVar(&lo.status, "status", string(model.StatusAll), "all, active, completed or overdue")
	cmd.Flags().StringVar(&lo.sort, "sort", string(model.SortByDueDate), "dueDate, priority, category or createdAt")
	cmd.Flags().StringSliceVar(&lo.categories, "category", nil, "only these categories (repeatable)")
	cmd.Flags().StringVar(&lo.search, "search", "", "case-insensitive text in title or description")
	return cmd
}

func (lo *listOptions) parse() (model.Filters, model.SortKey, error) {
	status, err := model.ParseStatus(lo.status)
	if err != nil {
		return model.Filters{}, "", err
	}
	key, err := model.ParseSortKey(lo.sort)
	if err != nil {
		return model.Filters{}, "", err
	}
	filters := model.Filters{Status: status, Search: strings.TrimSpace(lo.search)}
	for _, raw := range lo.categories {
		c, err := model.ParseCategory(raw)
		if err != nil {
			return model.Filters{}, "", err
		}
		filters.Categories = append(filters.Categories, c)
	}
	return filters, key, nil
}

func printTasks(out io.Writer, tasks []model.Task, today model.Date) error {
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(out, "No tasks.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tTITLE\tCATEGORY\tPRIORITY\tDUE\tREPEATS")
	for _, task := range tasks {
		status := "active"
		switch {
		case task.Completed:
			status = "done"
		case task.HasDueDate() && recurrence.IsOverdue(task.DueDate, today):
			status = "overdue"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			task.ShortID(), status, task.Title, task.Category, task.Priority,
			recurrence.FormatDueText(task.DueDate, today), recurrence.Describe(task.RecurrencePattern))
	}
	return w.Flush()
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show task statistics and charts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			stats := a.store.Statistics()
			fmt.Fprintf(out, "Total %d  Active %d  Completed %d  Overdue %d  Recurring %d  Done %d%%\n",
				stats.Total, stats.Active, stats.Completed, stats.Overdue, stats.Recurring, stats.CompletionRate)

			charts := service.BuildCharts(a.store.All(), time.Now())
			for _, section := range []struct {
				title  string
				series service.ChartSeries
			}{
				{"By category", charts.Category},
				{"By priority", charts.Priority},
				{"Completed, last 7 days", charts.Trend},
			} {
				if len(section.series.Values) == 0 {
					continue
				}
				fmt.Fprintf(out, "\n%s\n%s\n", section.title, section.series.Bars(20))
			}
			return nil
		},
	}
}

func newPreviewCmd(opts *rootOptions) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "preview <task-id>",
		Short: "Show upcoming occurrences of a recurring task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			task, err := a.store.Resolve(args[0])
			if err != nil {
				return err
			}
			dates, err := a.store.Occurrences(task.ID, count)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s\n", task.Title, recurrence.Describe(task.RecurrencePattern))
			for _, d := range dates {
				fmt.Fprintf(out, "  %s  %s\n", d, d.Format("Monday"))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 5, "number of occurrences")
	return cmd
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export tasks as JSON or iCalendar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			var data []byte
			switch strings.ToLower(format) {
			case "json":
				data, err = a.exporter.ExportJSON(cmd.Context())
			case "ics":
				var ics string
				ics, err = service.BuildCalendarICS(a.store.All(), time.Now())
				data = []byte(ics)
			default:
				return fmt.Errorf("unknown format %q (use json or ics)", format)
			}
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "json or ics")
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write, stdout when empty")
	return cmd
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace tasks and settings with a JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.exporter.Import(cmd.Context(), raw)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d tasks\n", n)
			return nil
		},
	}
}
