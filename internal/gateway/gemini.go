package gateway

import (
	"context"
	"errors"
	"strings"

	"audiosurv/internal/alerts"
	"audiosurv/internal/services/gemini"
)

const providerGemini = "Gemini"

// Generator issues Gemini JSON requests. *gemini.Client satisfies it.
type Generator interface {
	GenerateJSON(ctx context.Context, req gemini.Request) (string, error)
}

type modelChecker interface {
	HealthCheck(ctx context.Context, model string) error
}

// GeminiModels names the model used for each call.
type GeminiModels struct {
	Scan    string
	Deep    string
	Keyword string
}

// GeminiGateway serves both tiers and keyword analysis through Gemini.
type GeminiGateway struct {
	gen    Generator
	models GeminiModels
}

// NewGemini builds a gateway around gen.
func NewGemini(gen Generator, models GeminiModels) *GeminiGateway {
	return &GeminiGateway{gen: gen, models: models}
}

// InitialScan transcribes audio and returns the tier-one assessment.
func (g *GeminiGateway) InitialScan(ctx context.Context, audio []byte, mimeType string) (InitialScan, error) {
	const op = "initial scan"
	if len(audio) == 0 {
		return InitialScan{}, newError(TierInitial, providerGemini, op, errors.New("audio payload is empty"))
	}
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	content, err := g.gen.GenerateJSON(ctx, gemini.Request{
		Model:  g.models.Scan,
		System: initialScanSystemPrompt,
		Prompt: initialScanPrompt,
		Audio:  &gemini.Audio{MIMEType: mimeType, Data: audio},
		Schema: initialScanSchema,
	})
	if err != nil {
		return InitialScan{}, newError(TierInitial, providerGemini, op, err)
	}
	scan, err := decodeInitialScan(content)
	if err != nil {
		return InitialScan{}, newError(TierInitial, providerGemini, op, err)
	}
	return scan, nil
}

// DeepAnalysis runs the tier-two assessment on a transcript.
func (g *GeminiGateway) DeepAnalysis(ctx context.Context, transcript string) (DeepAnalysis, error) {
	const op = "deep analysis"
	content, err := g.gen.GenerateJSON(ctx, gemini.Request{
		Model:  g.models.Deep,
		System: deepAnalysisSystemPrompt,
		Prompt: deepAnalysisPrompt(transcript),
		Schema: deepAnalysisSchema,
	})
	if err != nil {
		return DeepAnalysis{}, newError(TierDeep, providerGemini, op, err)
	}
	analysis, _, err := decodeDeepAnalysis(content)
	if err != nil {
		return DeepAnalysis{}, newError(TierDeep, providerGemini, op, err)
	}
	return analysis, nil
}

// KeywordAnalysis assesses transcript in light of an operator keyword. An
// empty transcript in the reply falls back to the input transcript.
func (g *GeminiGateway) KeywordAnalysis(ctx context.Context, keyword alerts.Keyword, transcript string) (KeywordAnalysis, error) {
	const op = "keyword analysis"
	content, err := g.gen.GenerateJSON(ctx, gemini.Request{
		Model:  g.models.Keyword,
		System: keywordAnalysisSystemPrompt,
		Prompt: keywordAnalysisPrompt(keyword, transcript),
		Schema: keywordAnalysisSchema,
	})
	if err != nil {
		return KeywordAnalysis{}, newError(TierKeyword, providerGemini, op, err)
	}
	analysis, echoed, err := decodeDeepAnalysis(content)
	if err != nil {
		return KeywordAnalysis{}, newError(TierKeyword, providerGemini, op, err)
	}
	if echoed == "" {
		echoed = transcript
	}
	return KeywordAnalysis{DeepAnalysis: analysis, FullTranscript: echoed}, nil
}

// HealthCheck verifies the scan and deep models are reachable.
func (g *GeminiGateway) HealthCheck(ctx context.Context) error {
	checker, ok := g.gen.(modelChecker)
	if !ok {
		return nil
	}
	for _, model := range []string{g.models.Scan, g.models.Deep} {
		if err := checker.HealthCheck(ctx, model); err != nil {
			return err
		}
	}
	return nil
}
