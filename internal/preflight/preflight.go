package preflight

import (
	"context"

	"audiosurv/internal/config"
	"audiosurv/internal/gateway"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every applicable check. A nil backend skips the analysis
// provider checks.
func RunAll(ctx context.Context, cfg *config.Config, backend *gateway.Backend) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Data directory", cfg.Paths.DataDir))
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	results = append(results, CheckStorage(ctx, cfg))

	if backend != nil {
		results = append(results, CheckGateway(ctx, backend)...)
	}

	return results
}

// Ready reports whether every result passed.
func Ready(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
