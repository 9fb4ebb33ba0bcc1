package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"audiosurv/internal/alerts"
	"audiosurv/internal/api"
	"audiosurv/internal/notifications"
	"audiosurv/internal/pipeline"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var mimeType string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "scan <file>",
		Short: "Run the two-tier analysis on an audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := strings.TrimSpace(args[0])
			audio, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read audio: %w", err)
			}

			rt, err := ctx.openRuntime(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer func() { _ = rt.close(cmd.Context()) }()

			backend, err := ctx.openGateway(cmd.Context())
			if err != nil {
				return err
			}
			defer backend.Close()

			logger := ctx.log()
			observers := []pipeline.Observer{
				notifications.NewObserver(notifications.NewService(rt.cfg), rt.cfg.Notifications, logger),
			}
			if !jsonOutput {
				observers = append(observers, progressPrinter(cmd.OutOrStdout(), shouldColorize(cmd.OutOrStdout())))
			}
			p, err := pipeline.New(pipeline.Options{
				Gateway:   backend.Gateway,
				Store:     rt.alerts,
				Logger:    logger,
				Observers: observers,
			})
			if err != nil {
				return err
			}

			result, runErr := p.Submit(cmd.Context(), pipeline.Submission{
				Audio:    audio,
				MimeType: strings.TrimSpace(mimeType),
				Filename: filepath.Base(path),
			})
			if jsonOutput {
				if err := writeJSON(cmd, api.FromScanResult(result)); err != nil {
					return err
				}
			}
			if runErr != nil {
				return fmt.Errorf("scan failed: %s", alerts.Message(runErr))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mimeType, "mime", "", "Audio MIME type (detected from the file when omitted)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the final result as JSON")
	return cmd
}

// progressPrinter reports each pipeline transition as it happens.
func progressPrinter(out io.Writer, colorize bool) pipeline.Observer {
	return pipeline.ObserverFunc(func(e pipeline.Event) {
		switch e.To {
		case pipeline.StateSubmitted:
			fmt.Fprintln(out, renderStatusLine("Submitted", statusInfo, fmt.Sprintf("%s (%s)", e.Filename, e.MimeType), colorize))
		case pipeline.StateTierOneComplete:
			msg := fmt.Sprintf("%s keyword %q, preliminary %s", e.Alert.ID, e.Alert.KeywordDetected, e.Alert.ThreatRating)
			fmt.Fprintln(out, renderStatusLine("Initial scan", statusOK, msg, colorize))
			fmt.Fprintln(out, renderStatusLine("Deep analysis", statusInfo, "running", colorize))
		case pipeline.StateTierTwoComplete:
			fmt.Fprintln(out, renderStatusLine("Deep analysis", ratingKind(e.Alert.ThreatRating), fmt.Sprintf("%s %s threat", e.Alert.ID, e.Alert.ThreatRating), colorize))
			fmt.Fprintln(out)
			printAlert(out, e.Alert, colorize)
		case pipeline.StateFailed:
			label := "Initial scan"
			if e.From == pipeline.StateTierOneComplete {
				label = "Deep analysis"
			}
			fmt.Fprintln(out, renderStatusLine(label, statusError, alerts.Message(e.Err), colorize))
		}
	})
}
