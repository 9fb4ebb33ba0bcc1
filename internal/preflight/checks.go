package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"audiosurv/internal/config"
	"audiosurv/internal/gateway"
	"audiosurv/internal/persistence"
)

const (
	storageTimeout = 5 * time.Second
	gatewayTimeout = 30 * time.Second
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckStorage opens the configured backend and reads the alert collection key.
// A missing key passes; the store seeds or starts empty in that case.
func CheckStorage(ctx context.Context, cfg *config.Config) Result {
	name := "Storage (" + cfg.Storage.Backend + ")"

	backend, err := persistence.Open(cfg)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	defer backend.Close()

	checkCtx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	data, err := backend.Get(checkCtx, persistence.KeyAlerts)
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return Result{Name: name, Passed: true, Detail: "reachable (no saved alerts)"}
	case err != nil:
		return Result{Name: name, Detail: summarizeError(err)}
	default:
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("reachable (%d bytes saved)", len(data))}
	}
}

// CheckGateway runs every analysis provider health probe.
func CheckGateway(ctx context.Context, backend *gateway.Backend) []Result {
	checkCtx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	health := backend.HealthCheck(checkCtx)
	results := make([]Result, 0, len(health))
	for _, h := range health {
		if h.Err != nil {
			results = append(results, Result{Name: h.Name, Detail: summarizeError(h.Err)})
			continue
		}
		results = append(results, Result{Name: h.Name, Passed: true, Detail: "API reachable"})
	}
	return results
}

// summarizeError produces a human-readable summary for a failed probe.
func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (API unreachable)"
	}
	if gwErr, ok := gateway.AsGatewayError(err); ok {
		return gwErr.Detail()
	}
	return err.Error()
}
