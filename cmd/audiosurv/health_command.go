package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"audiosurv/internal/api"
	"audiosurv/internal/preflight"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check directories, storage and analysis backends",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			backend, gatewayErr := ctx.openGateway(cmd.Context())
			if gatewayErr == nil {
				defer backend.Close()
			}
			results := preflight.RunAll(cmd.Context(), cfg, backend)
			if gatewayErr != nil {
				results = append(results, preflight.Result{Name: "Analysis", Detail: gatewayErr.Error()})
			}

			if jsonOutput {
				if err := writeJSON(cmd, api.FromPreflight(results)); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, r := range results {
					kind := statusOK
					if !r.Passed {
						kind = statusError
					}
					fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
				}
			}
			if !preflight.Ready(results) {
				return errors.New("one or more dependencies are unavailable")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
