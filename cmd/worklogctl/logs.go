package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"worklog/internal/client"
	"worklog/internal/worklog"

	"github.com/spf13/cobra"
)

var (
	addDate     string
	addWait     bool
	addInterval time.Duration
	dayDate     string
)

var addCmd = &cobra.Command{
	Use:   "add <content>",
	Short: "Append a task to a day's log",
	Long: `Append a task to a day's log. Tags are derived by the server in the
background; pass --wait to poll until they show up.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var dayCmd = &cobra.Command{
	Use:   "day",
	Short: "Show a day's tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := apiClient()
		if err != nil {
			return err
		}
		wl, err := c.DayLog(cmd.Context(), dayDate)
		if err != nil {
			return err
		}
		printTasks(cmd.OutOrStdout(), wl.Tasks)
		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&addDate, "date", today(), "day to log against (YYYY-MM-DD)")
	addCmd.Flags().BoolVar(&addWait, "wait", false, "poll until the task has tags")
	addCmd.Flags().DurationVar(&addInterval, "interval", client.DefaultPollInterval, "poll interval for --wait")

	dayCmd.Flags().StringVar(&dayDate, "date", today(), "day to show (YYYY-MM-DD)")
}

func runAdd(cmd *cobra.Command, args []string) error {
	c, err := apiClient()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	wl, err := c.AddTask(cmd.Context(), addDate, strings.Join(args, " "))
	if err != nil {
		return err
	}
	task := wl.Tasks[len(wl.Tasks)-1]
	fmt.Fprintf(out, "added to %s (%d tasks)\n", wl.Date, len(wl.Tasks))

	if !addWait {
		return nil
	}

	p := client.NewTagPoller(c)
	p.Interval = addInterval
	task, ok, err := p.Wait(cmd.Context(), wl.Date, task.ID)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(out, "no tags yet")
		return nil
	}
	fmt.Fprintf(out, "tags: %s\n", strings.Join(task.Tags, ", "))
	return nil
}

func printTasks(w io.Writer, tasks []worklog.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "nothing logged")
		return
	}
	for i, t := range tasks {
		line := fmt.Sprintf("%2d. %s", i+1, t.Content)
		if len(t.Tags) > 0 {
			line += "  [" + strings.Join(t.Tags, ", ") + "]"
		}
		fmt.Fprintln(w, line)
	}
}

var (
	exportStart string
	exportEnd   string
	exportOut   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download logs as an xlsx spreadsheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := apiClient()
		if err != nil {
			return err
		}

		f, err := os.Create(exportOut)
		if err != nil {
			return err
		}
		if err := c.Export(cmd.Context(), exportStart, exportEnd, f); err != nil {
			_ = f.Close()
			_ = os.Remove(exportOut)
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportStart, "start", "", "first day (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportEnd, "end", "", "last day (YYYY-MM-DD)")
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "worklog_summary.xlsx", "output file")
}
