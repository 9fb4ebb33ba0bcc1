package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"audiosurv/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var alertID string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the audiosurv log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.LogPath()
			if path == "" {
				return errors.New("file logging is disabled (paths.log_dir is empty)")
			}
			out := cmd.OutOrStdout()
			return logs.Tail(cmd.Context(), path, logs.Options{
				Lines:    lines,
				Follow:   follow,
				Contains: alertID,
			}, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines")
	cmd.Flags().StringVar(&alertID, "alert", "", "Only show lines mentioning this alert id")
	return cmd
}
