package preflight_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"audiosurv/internal/config"
	"audiosurv/internal/gateway"
	"audiosurv/internal/persistence"
	"audiosurv/internal/preflight"
	"audiosurv/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := preflight.CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := preflight.CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := preflight.CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckStorageMissingKeyPasses(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStorage(config.StorageFile))
	result := preflight.CheckStorage(context.Background(), cfg)
	if !result.Passed {
		t.Fatalf("expected empty file storage to pass, got: %s", result.Detail)
	}
	if !strings.Contains(result.Name, "file") {
		t.Fatalf("expected backend name in %q", result.Name)
	}
}

func TestCheckStorageReportsSavedBytes(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStorage(config.StorageSQLite))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	backend, err := persistence.Open(cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := backend.Put(context.Background(), persistence.KeyAlerts, []byte("[]")); err != nil {
		t.Fatalf("put: %v", err)
	}
	_ = backend.Close()

	result := preflight.CheckStorage(context.Background(), cfg)
	if !result.Passed || !strings.Contains(result.Detail, "2 bytes") {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestCheckStorageUnsupportedBackend(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStorage("tape"))
	if result := preflight.CheckStorage(context.Background(), cfg); result.Passed {
		t.Fatal("expected unsupported backend to fail")
	}
}

func TestCheckGatewaySummarizesFailures(t *testing.T) {
	fake := &testsupport.FakeGateway{HealthErr: errors.New("quota exhausted")}
	results := preflight.CheckGateway(context.Background(), gateway.NewBackend(fake, fake))
	if len(results) != 1 {
		t.Fatalf("expected one gateway result, got %d", len(results))
	}
	if results[0].Passed || results[0].Detail != "quota exhausted" {
		t.Fatalf("unexpected result %+v", results[0])
	}

	fake.HealthErr = context.DeadlineExceeded
	results = preflight.CheckGateway(context.Background(), gateway.NewBackend(fake, fake))
	if !strings.Contains(results[0].Detail, "timed out") {
		t.Fatalf("expected timeout summary, got %q", results[0].Detail)
	}
}

func TestRunAll(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	fake := &testsupport.FakeGateway{}

	results := preflight.RunAll(context.Background(), cfg, gateway.NewBackend(fake, fake))
	if len(results) != 4 {
		t.Fatalf("expected data dir, log dir, storage and gateway checks, got %+v", results)
	}
	if !preflight.Ready(results) {
		t.Fatalf("expected all checks to pass, got %+v", results)
	}

	results = preflight.RunAll(context.Background(), cfg, nil)
	if len(results) != 3 {
		t.Fatalf("expected gateway checks to be skipped without a backend, got %d results", len(results))
	}
	if preflight.RunAll(context.Background(), nil, nil) != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestReady(t *testing.T) {
	if !preflight.Ready(nil) {
		t.Fatal("expected no results to be ready")
	}
	if preflight.Ready([]preflight.Result{{Passed: true}, {Passed: false}}) {
		t.Fatal("expected a failing result to make the set not ready")
	}
}
