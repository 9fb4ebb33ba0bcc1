package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"audiosurv/internal/alerts"
	"audiosurv/internal/alertview"
	"audiosurv/internal/api"
)

func newAlertsCommand(ctx *commandContext) *cobra.Command {
	alertsCmd := &cobra.Command{
		Use:   "alerts",
		Short: "Browse and manage stored alerts",
	}

	alertsCmd.AddCommand(newAlertsListCommand(ctx))
	alertsCmd.AddCommand(newAlertsShowCommand(ctx))
	alertsCmd.AddCommand(newAlertsRecentCommand(ctx))
	alertsCmd.AddCommand(newAlertsSummaryCommand(ctx))
	alertsCmd.AddCommand(newAlertsDeleteCommand(ctx))

	return alertsCmd
}

func newAlertsListCommand(ctx *commandContext) *cobra.Command {
	var sortFlag string
	var filter string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := alertview.ParseSortOrder(sortFlag)
			if err != nil {
				return err
			}
			rt, err := ctx.openRuntime(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer func() { _ = rt.close(cmd.Context()) }()

			list, version := rt.alerts.Snapshot()
			view := alertview.DeriveView(list, order, filter)
			if jsonOutput {
				return writeJSON(cmd, api.FromView(view, order, filter, version))
			}

			out := cmd.OutOrStdout()
			if len(view) == 0 {
				if strings.TrimSpace(filter) != "" {
					fmt.Fprintf(out, "No alerts match %q\n", filter)
				} else {
					fmt.Fprintln(out, "No alerts")
				}
				return nil
			}
			colorize := shouldColorize(out)
			rows := make([][]string, 0, len(view))
			for _, a := range view {
				rows = append(rows, []string{
					a.ID,
					formatTimestamp(a.Timestamp),
					renderRating(a.ThreatRating, colorize),
					truncate(a.KeywordDetected, 24),
					string(a.AnalysisState),
					truncate(a.SemanticSummary, 60),
				})
			}
			fmt.Fprint(out, renderTable(
				[]string{"ID", "Time", "Threat", "Keyword", "State", "Summary"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			fmt.Fprintf(out, "\n%d alert(s)\n", len(view))
			return nil
		},
	}

	cmd.Flags().StringVar(&sortFlag, "sort", string(alertview.SortNewest), "Sort order: newest, oldest, or threat")
	cmd.Flags().StringVar(&filter, "filter", "", "Only show alerts whose detected keyword contains this text")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newAlertsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer func() { _ = rt.close(cmd.Context()) }()

			id := strings.TrimSpace(args[0])
			a, ok := rt.alerts.Get(id)
			if !ok {
				return fmt.Errorf("alert %s: %w", id, alerts.ErrNotFound)
			}
			if jsonOutput {
				return writeJSON(cmd, api.FromAlert(a, false))
			}
			printAlert(cmd.OutOrStdout(), a, shouldColorize(cmd.OutOrStdout()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newAlertsRecentCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show the most recent alert",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer func() { _ = rt.close(cmd.Context()) }()

			a, ok := alertview.MostRecent(rt.alerts.Alerts())
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "No alerts")
				return nil
			}
			if jsonOutput {
				return writeJSON(cmd, api.FromAlert(a, false))
			}
			printAlert(cmd.OutOrStdout(), a, shouldColorize(cmd.OutOrStdout()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newAlertsSummaryCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Count alerts by threat rating",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer func() { _ = rt.close(cmd.Context()) }()

			list := rt.alerts.Alerts()
			summary := alertview.Summarize(list)
			var recent *alerts.Alert
			if a, ok := alertview.MostRecent(list); ok {
				recent = &a
			}
			if jsonOutput {
				return writeJSON(cmd, api.FromSummary(summary, recent))
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			rows := [][]string{
				{renderRating(alerts.ThreatHigh, colorize), strconv.Itoa(summary.High)},
				{renderRating(alerts.ThreatMedium, colorize), strconv.Itoa(summary.Medium)},
				{renderRating(alerts.ThreatLow, colorize), strconv.Itoa(summary.Low)},
				{"Total", strconv.Itoa(summary.Total)},
			}
			fmt.Fprint(out, renderTable([]string{"Threat", "Alerts"}, rows, []columnAlignment{alignLeft, alignRight}))
			fmt.Fprintln(out)
			if summary.Preliminary > 0 {
				fmt.Fprintf(out, "%d alert(s) awaiting deep analysis\n", summary.Preliminary)
			}
			if recent != nil {
				fmt.Fprintf(out, "Most recent: %s (%s, %s)\n", recent.ID, recent.KeywordDetected, formatTimestamp(recent.Timestamp))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newAlertsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a completed alert",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer func() { _ = rt.close(cmd.Context()) }()

			id := strings.TrimSpace(args[0])
			removed, err := rt.alerts.Remove(id)
			if err != nil {
				if errors.Is(err, alerts.ErrDeletionRejected) {
					return fmt.Errorf("alert %s is still being analyzed and cannot be deleted", id)
				}
				return err
			}
			if !removed {
				return fmt.Errorf("alert %s: %w", id, alerts.ErrNotFound)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted alert %s\n", id)
			return nil
		},
	}
}
