package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"worklog/internal/worklog"

	"github.com/spf13/cobra"
)

var (
	summaryStart string
	summaryEnd   string
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "AI summary of a date range (defaults to the last 7 days)",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := apiClient()
		if err != nil {
			return err
		}
		start, end := summaryStart, summaryEnd
		if start == "" {
			start = worklog.FormatDay(time.Now().AddDate(0, 0, -6))
		}
		if end == "" {
			end = today()
		}

		s, err := c.AISummary(cmd.Context(), start, end)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), s)
		return nil
	},
}

var standupCmd = &cobra.Command{
	Use:   "standup",
	Short: "Draft today's standup from recent logs",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := apiClient()
		if err != nil {
			return err
		}
		s, err := c.Standup(cmd.Context())
		if err != nil {
			return err
		}
		if s == "" {
			s = "no recent activity"
		}
		fmt.Fprintln(cmd.OutOrStdout(), s)
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Find tasks containing text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q := strings.TrimSpace(strings.Join(args, " "))
		if q == "" {
			return errors.New("empty search")
		}
		c, err := apiClient()
		if err != nil {
			return err
		}
		hits, err := c.Search(cmd.Context(), q)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, h := range hits {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", h.Date, h.Content, strings.Join(h.Tags, ", "))
		}
		return tw.Flush()
	},
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List tags by usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := apiClient()
		if err != nil {
			return err
		}
		tags, err := c.Tags(cmd.Context())
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, t := range tags {
			fmt.Fprintf(tw, "%s\t%d\n", t.Tag, t.Count)
		}
		return tw.Flush()
	},
}

func init() {
	summaryCmd.Flags().StringVar(&summaryStart, "start", "", "first day (YYYY-MM-DD)")
	summaryCmd.Flags().StringVar(&summaryEnd, "end", "", "last day (YYYY-MM-DD)")
}
