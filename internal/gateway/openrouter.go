package gateway

import (
	"context"
	"errors"
)

const providerOpenRouter = "OpenRouter"

// Completer issues JSON chat completions. *llm.Client satisfies it.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// OpenRouterDeep serves the deep tier through an OpenRouter-compatible API.
type OpenRouterDeep struct {
	client Completer
}

// NewOpenRouterDeep wraps client.
func NewOpenRouterDeep(client Completer) *OpenRouterDeep {
	return &OpenRouterDeep{client: client}
}

func (o *OpenRouterDeep) DeepAnalysis(ctx context.Context, transcript string) (DeepAnalysis, error) {
	const op = "deep analysis"
	content, err := o.client.CompleteJSON(ctx, deepAnalysisSystemPrompt, deepAnalysisPrompt(transcript))
	if err != nil {
		return DeepAnalysis{}, newError(TierDeep, providerOpenRouter, op, err)
	}
	analysis, _, err := decodeDeepAnalysis(content)
	if err != nil {
		return DeepAnalysis{}, newError(TierDeep, providerOpenRouter, op, err)
	}
	return analysis, nil
}

func (o *OpenRouterDeep) HealthCheck(ctx context.Context) error {
	checker, ok := o.client.(HealthChecker)
	if !ok {
		return errors.New("openrouter client does not support health checks")
	}
	return checker.HealthCheck(ctx)
}
