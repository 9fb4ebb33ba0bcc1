package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"audiosurv/internal/api"
	"audiosurv/internal/config"
	"audiosurv/internal/gateway"
	"audiosurv/internal/testsupport"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	gateway    *testsupport.FakeGateway
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")
	t.Setenv("AUDIOSURV_API_TOKEN", "")

	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q

[gemini]
api_key = "secret-key"

[storage]
backend = "file"
seed_demo_alerts = false

[logging]
format = "json"
level = "debug"
`, filepath.Join(base, "data"), filepath.Join(base, "logs"))
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	fake := &testsupport.FakeGateway{}
	previous := openAnalysisBackend
	openAnalysisBackend = func(context.Context, *config.Config) (*gateway.Backend, error) {
		return gateway.NewBackend(fake, fake), nil
	}
	t.Cleanup(func() { openAnalysisBackend = previous })

	return &cliTestEnv{baseDir: base, configPath: configPath, gateway: fake}
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func (e *cliTestEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, stderr, err := e.run(t, args...)
	if err != nil {
		t.Fatalf("%v failed: %v\nstdout: %s\nstderr: %s", args, err, out, stderr)
	}
	return out
}

func (e *cliTestEnv) writeAudio(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(e.baseDir, "audio", name)
	testsupport.WriteBytes(t, path, []byte("RIFF\x24\x00\x00\x00WAVEfmt "))
	return path
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\noutput:\n%s", needle, haystack)
	}
}

func decodeJSON[T any](t *testing.T, data string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		t.Fatalf("decode json: %v\n%s", err, data)
	}
	return v
}

func TestScanPersistsCompletedAlert(t *testing.T) {
	env := setupCLITestEnv(t)
	clip := env.writeAudio(t, "clip.wav")

	out := env.mustRun(t, "scan", clip)
	requireContains(t, out, "Initial scan:")
	requireContains(t, out, "Deep analysis:")
	requireContains(t, out, testsupport.DefaultDeep.SemanticSummary)
	requireContains(t, out, "package: contraband shipment")

	if got := env.gateway.MimeTypes(); len(got) != 1 || got[0] != "audio/wav" {
		t.Fatalf("expected audio/wav submission, got %v", got)
	}

	list := decodeJSON[api.AlertList](t, env.mustRun(t, "alerts", "list", "--json"))
	if list.Total != 1 || len(list.Alerts) != 1 {
		t.Fatalf("expected one stored alert, got %+v", list)
	}
	stored := list.Alerts[0]
	if !strings.HasPrefix(stored.ID, "alert-") || strings.HasPrefix(stored.ID, "alert-temp-") {
		t.Fatalf("expected final alert id, got %q", stored.ID)
	}
	if stored.AnalysisState != "complete" || stored.ThreatRating != "High" {
		t.Fatalf("unexpected stored alert %+v", stored)
	}
	if stored.AudioSrc != "" {
		t.Fatal("expected persisted alert to omit audio")
	}
}

func TestScanJSONReportsResult(t *testing.T) {
	env := setupCLITestEnv(t)
	clip := env.writeAudio(t, "clip.wav")

	result := decodeJSON[api.ScanResult](t, env.mustRun(t, "scan", clip, "--json"))
	if result.State != "tier_two_complete" {
		t.Fatalf("unexpected scan result %+v", result)
	}
	if result.Alert == nil || result.Alert.ID != result.FinalID {
		t.Fatalf("expected alert with final id, got %+v", result)
	}
}

func TestScanDeepFailureLeavesNoAlert(t *testing.T) {
	env := setupCLITestEnv(t)
	env.gateway.DeepFunc = func(context.Context, string) (gateway.DeepAnalysis, error) {
		return gateway.DeepAnalysis{}, errors.New("model overloaded")
	}
	clip := env.writeAudio(t, "clip.wav")

	out, _, err := env.run(t, "scan", clip)
	if err == nil {
		t.Fatal("expected scan to fail")
	}
	requireContains(t, err.Error(), "scan failed")
	requireContains(t, out, "Deep analysis:")

	list := decodeJSON[api.AlertList](t, env.mustRun(t, "alerts", "list", "--json"))
	if list.Total != 0 {
		t.Fatalf("expected the preliminary alert to be withdrawn, got %+v", list)
	}
}

func TestScanMissingFile(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := env.run(t, "scan", filepath.Join(env.baseDir, "missing.wav")); err == nil {
		t.Fatal("expected error for missing audio file")
	}
}

func TestAlertsCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	env.mustRun(t, "scan", env.writeAudio(t, "clip.wav"))

	out := env.mustRun(t, "alerts", "list")
	requireContains(t, out, "1 alert(s)")
	requireContains(t, out, "package")

	out = env.mustRun(t, "alerts", "list", "--filter", "no such text")
	requireContains(t, out, "No alerts match")

	if _, _, err := env.run(t, "alerts", "list", "--sort", "loudest"); err == nil {
		t.Fatal("expected invalid sort order to fail")
	}

	out = env.mustRun(t, "alerts", "summary")
	requireContains(t, out, "Total")
	requireContains(t, out, "Most recent:")

	summary := decodeJSON[api.Summary](t, env.mustRun(t, "alerts", "summary", "--json"))
	if summary.High != 1 || summary.Total != 1 || summary.MostRecent == nil {
		t.Fatalf("unexpected summary %+v", summary)
	}

	recent := decodeJSON[api.Alert](t, env.mustRun(t, "alerts", "recent", "--json"))
	if recent.ID != summary.MostRecent.ID {
		t.Fatalf("recent %q does not match summary %q", recent.ID, summary.MostRecent.ID)
	}
	requireContains(t, env.mustRun(t, "alerts", "show", recent.ID), "Threat:      High")

	if _, _, err := env.run(t, "alerts", "delete", "alert-unknown"); err == nil {
		t.Fatal("expected delete of unknown alert to fail")
	}
	requireContains(t, env.mustRun(t, "alerts", "delete", recent.ID), "Deleted alert")
	requireContains(t, env.mustRun(t, "alerts", "recent"), "No alerts")
}

func TestKeywordsCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	args := []string{"keywords", "add", "shipment", "--rating", "high"}
	for i := 0; i < 4; i++ {
		args = append(args, "--sample", env.writeAudio(t, fmt.Sprintf("s%d.wav", i)))
	}
	if _, _, err := env.run(t, args...); err == nil {
		t.Fatal("expected keyword with four samples to be rejected")
	}

	args = append(args, "--sample", env.writeAudio(t, "s4.wav"), "--json")
	added := decodeJSON[api.Keyword](t, env.mustRun(t, args...))
	if added.ID == "" || added.InitialRating != "High" || len(added.Samples) != 5 {
		t.Fatalf("unexpected keyword %+v", added)
	}

	out := env.mustRun(t, "keywords", "list")
	requireContains(t, out, "shipment")
	requireContains(t, out, added.ID)

	analysis := decodeJSON[api.KeywordAnalysis](t, env.mustRun(t, "keywords", "analyze", added.ID, "--transcript", "the shipment lands at dawn", "--json"))
	if analysis.Keyword != "shipment" || analysis.FullTranscript != "the shipment lands at dawn" {
		t.Fatalf("unexpected analysis %+v", analysis)
	}

	if _, _, err := env.run(t, "keywords", "analyze", added.ID); err == nil {
		t.Fatal("expected analyze without transcript to fail")
	}

	requireContains(t, env.mustRun(t, "keywords", "remove", added.ID), "Removed keyword")
	requireContains(t, env.mustRun(t, "keywords", "list"), "No keywords")
	if _, _, err := env.run(t, "keywords", "remove", added.ID); err == nil {
		t.Fatal("expected second remove to fail")
	}
}

func TestConfigCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	target := filepath.Join(env.baseDir, "generated", "config.toml")
	requireContains(t, env.mustRun(t, "config", "init", "--path", target), "Wrote sample configuration")
	if _, _, err := env.run(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse to overwrite")
	}
	env.mustRun(t, "config", "init", "--path", target, "--overwrite")

	out := env.mustRun(t, "config", "show")
	if strings.Contains(out, "secret-key") {
		t.Fatalf("expected api key to be redacted:\n%s", out)
	}
	requireContains(t, out, redacted)
	requireContains(t, out, "[storage]")
	requireContains(t, out, "file")

	out = env.mustRun(t, "config", "validate")
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.configPath)
}

func TestEphemeralKeepsNothing(t *testing.T) {
	env := setupCLITestEnv(t)
	env.mustRun(t, "--ephemeral", "scan", env.writeAudio(t, "clip.wav"))
	list := decodeJSON[api.AlertList](t, env.mustRun(t, "alerts", "list", "--json"))
	if list.Total != 0 {
		t.Fatalf("expected ephemeral scan to leave storage empty, got %d alerts", list.Total)
	}
}

func TestHealthCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out := env.mustRun(t, "health")
	requireContains(t, out, "Data directory:")
	requireContains(t, out, "Storage (file):")
	requireContains(t, out, "gateway:")

	env.gateway.HealthErr = errors.New("quota exhausted")
	out, _, err := env.run(t, "health", "--json")
	if err == nil {
		t.Fatal("expected health to fail when a backend is down")
	}
	checks := decodeJSON[[]api.HealthCheck](t, out)
	var gatewayCheck *api.HealthCheck
	for i := range checks {
		if checks[i].Name == "gateway" {
			gatewayCheck = &checks[i]
		}
	}
	if gatewayCheck == nil || gatewayCheck.Ready || !strings.Contains(gatewayCheck.Detail, "quota exhausted") {
		t.Fatalf("unexpected gateway check %+v", gatewayCheck)
	}
}

func TestTestNotifyWithoutTopic(t *testing.T) {
	env := setupCLITestEnv(t)
	requireContains(t, env.mustRun(t, "test-notify"), "Notifications are disabled")
}

func TestLogsCommandFiltersByAlert(t *testing.T) {
	env := setupCLITestEnv(t)
	result := decodeJSON[api.ScanResult](t, env.mustRun(t, "scan", env.writeAudio(t, "clip.wav"), "--json"))

	out := env.mustRun(t, "logs", "-n", "200", "--alert", result.TempID)
	requireContains(t, out, "scan submitted")
	requireContains(t, out, "alert complete")
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if !strings.Contains(line, result.TempID) {
			t.Fatalf("unfiltered line in output: %q", line)
		}
	}

	if out := env.mustRun(t, "logs", "--alert", "alert-temp-none"); strings.TrimSpace(out) != "" {
		t.Fatalf("expected no lines for unknown alert, got:\n%s", out)
	}
}
