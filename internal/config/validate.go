package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAnalysis(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// RequireAnalysisCredentials reports a descriptive error when the configured
// analysis backends have no API key. Commands that never call the gateway
// skip this check so alert browsing works offline.
func (c *Config) RequireAnalysisCredentials() error {
	if c.Gemini.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/audiosurv/config.toml"
		}
		return fmt.Errorf("gemini.api_key is required. Set GEMINI_API_KEY env var or edit %s (create with 'audiosurv config init')", defaultPath)
	}
	if c.Analysis.DeepBackend == DeepBackendOpenRouter && c.LLM.APIKey == "" {
		return errors.New("llm.api_key is required when analysis.deep_backend is \"openrouter\". Set OPENROUTER_API_KEY")
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	switch c.Analysis.DeepBackend {
	case DeepBackendGemini, DeepBackendOpenRouter:
	default:
		return fmt.Errorf("analysis.deep_backend: unsupported value %q (want %q or %q)", c.Analysis.DeepBackend, DeepBackendGemini, DeepBackendOpenRouter)
	}
	if c.Gemini.TimeoutSeconds < 0 {
		return errors.New("gemini.timeout_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case StorageSQLite, StorageFile, StorageMemory:
	case StorageRedis:
		if strings.TrimSpace(c.Storage.RedisAddr) == "" {
			return errors.New("storage.redis_addr must be set when storage.backend is \"redis\"")
		}
		if c.Storage.RedisDB < 0 {
			return errors.New("storage.redis_db must not be negative")
		}
	default:
		return fmt.Errorf("storage.backend: unsupported value %q", c.Storage.Backend)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	switch strings.ToLower(c.Notifications.MinRating) {
	case "low", "medium", "high":
		return nil
	default:
		return fmt.Errorf("notifications.min_rating: unsupported value %q", c.Notifications.MinRating)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
