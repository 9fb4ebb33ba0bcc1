package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"audiosurv/internal/config"
)

func clearAnalysisEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"GEMINI_API_KEY", "API_KEY", "OPENROUTER_API_KEY", "AUDIOSURV_API_TOKEN", "AUDIOSURV_REDIS_PASSWORD"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaultConfigUsesEnvKeyAndExpandsPaths(t *testing.T) {
	clearAnalysisEnv(t)
	t.Setenv("GEMINI_API_KEY", "test-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "audiosurv")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Gemini.APIKey != "test-key" {
		t.Fatalf("expected gemini key from env, got %q", cfg.Gemini.APIKey)
	}
	if cfg.Gemini.TimeoutSeconds != 0 {
		t.Fatalf("expected unbounded gemini requests by default, got %d", cfg.Gemini.TimeoutSeconds)
	}
	if cfg.Analysis.DeepBackend != config.DeepBackendGemini {
		t.Fatalf("unexpected deep backend: %q", cfg.Analysis.DeepBackend)
	}
	if cfg.Storage.Backend != config.StorageSQLite {
		t.Fatalf("unexpected storage backend: %q", cfg.Storage.Backend)
	}
	if cfg.LLM.MaxAttempts != 1 {
		t.Fatalf("expected a single LLM attempt by default, got %d", cfg.LLM.MaxAttempts)
	}
	if cfg.Server.Bind != "127.0.0.1:7488" {
		t.Fatalf("unexpected server bind: %q", cfg.Server.Bind)
	}
	if got := cfg.DatabasePath(); got != filepath.Join(wantData, "audiosurv.db") {
		t.Fatalf("unexpected database path: %q", got)
	}
	if err := cfg.RequireAnalysisCredentials(); err != nil {
		t.Fatalf("RequireAnalysisCredentials: %v", err)
	}
}

func TestLoadFallsBackToGenericAPIKey(t *testing.T) {
	clearAnalysisEnv(t)
	t.Setenv("API_KEY", "generic")
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Gemini.APIKey != "generic" {
		t.Fatalf("expected API_KEY fallback, got %q", cfg.Gemini.APIKey)
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	clearAnalysisEnv(t)
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("GEMINI_API_KEY=from-dotenv\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("GEMINI_API_KEY") })

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Gemini.APIKey != "from-dotenv" {
		t.Fatalf("expected key from .env, got %q", cfg.Gemini.APIKey)
	}
}

func TestMissingKeyOnlyFailsWhenAnalysisRequired(t *testing.T) {
	clearAnalysisEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load should not require a key: %v", err)
	}
	err = cfg.RequireAnalysisCredentials()
	if err == nil || !strings.Contains(err.Error(), "gemini.api_key") {
		t.Fatalf("expected gemini.api_key error, got %v", err)
	}

	cfg.Gemini.APIKey = "set"
	cfg.Analysis.DeepBackend = config.DeepBackendOpenRouter
	err = cfg.RequireAnalysisCredentials()
	if err == nil || !strings.Contains(err.Error(), "llm.api_key") {
		t.Fatalf("expected llm.api_key error, got %v", err)
	}
}

func TestLoadCustomConfigFile(t *testing.T) {
	clearAnalysisEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	payload := map[string]any{
		"paths": map[string]any{
			"data_dir": "~/surv",
		},
		"gemini": map[string]any{
			"api_key":         "file-key",
			"timeout_seconds": 45,
		},
		"analysis": map[string]any{
			"deep_backend": "OpenRouter",
		},
		"llm": map[string]any{
			"api_key": "or-key",
		},
		"storage": map[string]any{
			"backend":    "Redis",
			"redis_addr": "10.0.0.5:6380",
		},
		"logging": map[string]any{
			"format": "JSON",
		},
	}
	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.Paths.DataDir != filepath.Join(tempHome, "surv") {
		t.Fatalf("unexpected data dir: %q", cfg.Paths.DataDir)
	}
	if cfg.Gemini.TimeoutSeconds != 45 {
		t.Fatalf("unexpected timeout: %d", cfg.Gemini.TimeoutSeconds)
	}
	if cfg.Analysis.DeepBackend != config.DeepBackendOpenRouter {
		t.Fatalf("expected normalized deep backend, got %q", cfg.Analysis.DeepBackend)
	}
	if cfg.Storage.Backend != config.StorageRedis || cfg.Storage.RedisAddr != "10.0.0.5:6380" {
		t.Fatalf("unexpected storage: %+v", cfg.Storage)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected lower-cased log format, got %q", cfg.Logging.Format)
	}
	if cfg.GetLLM().APIKey != "or-key" {
		t.Fatalf("unexpected llm key: %q", cfg.GetLLM().APIKey)
	}
}

func TestValidateRejectsUnknownValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"deep backend", func(c *config.Config) { c.Analysis.DeepBackend = "claude" }, "analysis.deep_backend"},
		{"storage", func(c *config.Config) { c.Storage.Backend = "postgres" }, "storage.backend"},
		{"redis addr", func(c *config.Config) {
			c.Storage.Backend = config.StorageRedis
			c.Storage.RedisAddr = " "
		}, "storage.redis_addr"},
		{"min rating", func(c *config.Config) { c.Notifications.MinRating = "Severe" }, "notifications.min_rating"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"log level", func(c *config.Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"timeout", func(c *config.Config) { c.Gemini.TimeoutSeconds = -1 }, "gemini.timeout_seconds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	clearAnalysisEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Storage.Backend != config.StorageSQLite {
		t.Fatalf("unexpected sample storage backend: %q", cfg.Storage.Backend)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q: %v", dir, err)
		}
	}
}
