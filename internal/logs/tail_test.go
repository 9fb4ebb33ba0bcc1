package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"audiosurv/internal/logs"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audiosurv.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func collect(t *testing.T, path string, opts logs.Options) []string {
	t.Helper()
	var lines []string
	if err := logs.Tail(context.Background(), path, opts, func(line string) { lines = append(lines, line) }); err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	return lines
}

func TestTailLastLines(t *testing.T) {
	path := writeLog(t, "a\nb\nc\n")

	lines := collect(t, path, logs.Options{Lines: 2})
	if len(lines) != 2 || lines[0] != "b" || lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", lines)
	}

	lines = collect(t, path, logs.Options{Lines: 10})
	if len(lines) != 3 || lines[0] != "a" {
		t.Fatalf("expected whole file, got %#v", lines)
	}

	if lines := collect(t, path, logs.Options{}); len(lines) != 0 {
		t.Fatalf("expected no lines for zero limit, got %#v", lines)
	}
}

func TestTailFiltersLines(t *testing.T) {
	path := writeLog(t, "alert_id=alert-temp-1 submitted\nalert_id=alert-temp-2 submitted\nalert_id=alert-temp-1 complete\n")

	lines := collect(t, path, logs.Options{Lines: 5, Contains: "alert-temp-1"})
	if len(lines) != 2 || lines[1] != "alert_id=alert-temp-1 complete" {
		t.Fatalf("unexpected filtered lines: %#v", lines)
	}
}

func TestTailMissingFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.log")
	if lines := collect(t, path, logs.Options{Lines: 5}); len(lines) != 0 {
		t.Fatalf("expected no lines, got %#v", lines)
	}
}

func TestTailFollowPicksUpAppendedLines(t *testing.T) {
	path := writeLog(t, "start\n")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var mu sync.Mutex
	var lines []string
	got := make(chan string, 4)
	done := make(chan error, 1)
	go func() {
		done <- logs.Tail(ctx, path, logs.Options{Lines: 1, Follow: true, Poll: 10 * time.Millisecond}, func(line string) {
			mu.Lock()
			lines = append(lines, line)
			mu.Unlock()
			got <- line
		})
	}()

	if first := <-got; first != "start" {
		t.Fatalf("expected initial line, got %q", first)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	if _, err := f.WriteString("later\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	_ = f.Close()

	select {
	case line := <-got:
		if line != "later" {
			t.Fatalf("unexpected follow line %q", line)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for appended line")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("follow returned error: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(lines) != 2 {
		t.Fatalf("expected two lines, got %#v", lines)
	}
}

func TestTailRequiresEmit(t *testing.T) {
	if err := logs.Tail(context.Background(), "unused", logs.Options{}, nil); err == nil {
		t.Fatal("expected error without emit")
	}
}
