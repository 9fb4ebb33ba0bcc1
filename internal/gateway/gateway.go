package gateway

import (
	"context"

	"audiosurv/internal/alerts"
)

// TranscriptPlaceholder replaces an empty tier-one transcript.
const TranscriptPlaceholder = "[Transcription not provided by model]"

// InitialScan is the tier-one result.
type InitialScan struct {
	KeywordDetected string
	ThreatRating    alerts.ThreatRating
	FullTranscript  string
}

// DeepAnalysis is the tier-two result.
type DeepAnalysis struct {
	ThreatRating       alerts.ThreatRating
	SemanticSummary    string
	EnglishTranslation string
	SlangDetected      []alerts.SlangTerm
}

// KeywordAnalysis is the result of analyzing a transcript against an
// operator-defined keyword.
type KeywordAnalysis struct {
	DeepAnalysis
	FullTranscript string
}

// InitialScanner performs tier one.
type InitialScanner interface {
	InitialScan(ctx context.Context, audio []byte, mimeType string) (InitialScan, error)
}

// DeepAnalyzer performs tier two.
type DeepAnalyzer interface {
	DeepAnalysis(ctx context.Context, transcript string) (DeepAnalysis, error)
}

// Gateway performs both tiers.
type Gateway interface {
	InitialScanner
	DeepAnalyzer
}

// KeywordAnalyzer scores a transcript in the context of a known keyword.
type KeywordAnalyzer interface {
	KeywordAnalysis(ctx context.Context, keyword alerts.Keyword, transcript string) (KeywordAnalysis, error)
}

// HealthChecker verifies backend credentials and model availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Composite routes tier one and tier two to separate backends.
type Composite struct {
	Initial InitialScanner
	Deep    DeepAnalyzer
}

func (c Composite) InitialScan(ctx context.Context, audio []byte, mimeType string) (InitialScan, error) {
	return c.Initial.InitialScan(ctx, audio, mimeType)
}

func (c Composite) DeepAnalysis(ctx context.Context, transcript string) (DeepAnalysis, error) {
	return c.Deep.DeepAnalysis(ctx, transcript)
}
