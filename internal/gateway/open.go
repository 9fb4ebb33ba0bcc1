package gateway

import (
	"context"
	"errors"
	"fmt"

	"audiosurv/internal/config"
	"audiosurv/internal/services/gemini"
	"audiosurv/internal/services/llm"
)

// Backend bundles the configured gateway with keyword analysis, health checks
// and the resources that must be released on shutdown.
type Backend struct {
	Gateway  Gateway
	Keywords KeywordAnalyzer

	checks []namedCheck
	closer func() error
}

type namedCheck struct {
	name  string
	check HealthChecker
}

// HealthResult reports one backend's health.
type HealthResult struct {
	Name string
	Err  error
}

// Open builds the backend selected by cfg. It fails when required API keys are missing.
func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	if cfg == nil {
		return nil, errors.New("gateway: config is nil")
	}
	if err := cfg.RequireAnalysisCredentials(); err != nil {
		return nil, err
	}
	client, err := gemini.NewClient(ctx, gemini.Config{
		APIKey:         cfg.Gemini.APIKey,
		TimeoutSeconds: cfg.Gemini.TimeoutSeconds,
	})
	if err != nil {
		return nil, fmt.Errorf("gateway: %w", err)
	}
	geminiGateway := NewGemini(client, GeminiModels{
		Scan:    cfg.Gemini.ScanModel,
		Deep:    cfg.Gemini.DeepModel,
		Keyword: cfg.Gemini.KeywordModel,
	})

	backend := &Backend{
		Gateway:  geminiGateway,
		Keywords: geminiGateway,
		checks:   []namedCheck{{name: "gemini", check: geminiGateway}},
		closer:   client.Close,
	}

	if cfg.Analysis.DeepBackend == config.DeepBackendOpenRouter {
		llmCfg := cfg.GetLLM()
		deep := NewOpenRouterDeep(llm.NewClient(llm.Config{
			APIKey:         llmCfg.APIKey,
			BaseURL:        llmCfg.BaseURL,
			Model:          llmCfg.Model,
			Referer:        llmCfg.Referer,
			Title:          llmCfg.Title,
			TimeoutSeconds: llmCfg.TimeoutSeconds,
			MaxAttempts:    llmCfg.MaxAttempts,
		}))
		backend.Gateway = Composite{Initial: geminiGateway, Deep: deep}
		backend.checks = append(backend.checks, namedCheck{name: "openrouter", check: deep})
	}
	return backend, nil
}

// NewBackend wraps an existing gateway, for tests and embedding.
func NewBackend(gw Gateway, keywords KeywordAnalyzer) *Backend {
	b := &Backend{Gateway: gw, Keywords: keywords}
	if checker, ok := gw.(HealthChecker); ok {
		b.checks = append(b.checks, namedCheck{name: "gateway", check: checker})
	}
	return b
}

// HealthCheck runs every backend check.
func (b *Backend) HealthCheck(ctx context.Context) []HealthResult {
	results := make([]HealthResult, 0, len(b.checks))
	for _, c := range b.checks {
		results = append(results, HealthResult{Name: c.name, Err: c.check.HealthCheck(ctx)})
	}
	return results
}

// Close releases SDK resources.
func (b *Backend) Close() error {
	if b == nil || b.closer == nil {
		return nil
	}
	return b.closer()
}
