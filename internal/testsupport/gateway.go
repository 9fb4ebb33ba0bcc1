package testsupport

import (
	"context"
	"sync"

	"audiosurv/internal/alerts"
	"audiosurv/internal/gateway"
)

// FakeGateway is a scriptable analysis gateway. Nil funcs return canned
// results: a Medium scan of "package" and a High deep analysis.
type FakeGateway struct {
	ScanFunc    func(ctx context.Context, audio []byte, mimeType string) (gateway.InitialScan, error)
	DeepFunc    func(ctx context.Context, transcript string) (gateway.DeepAnalysis, error)
	KeywordFunc func(ctx context.Context, keyword alerts.Keyword, transcript string) (gateway.KeywordAnalysis, error)
	HealthErr   error

	mu          sync.Mutex
	scans       int
	deeps       int
	keywords    int
	transcripts []string
	mimeTypes   []string
}

// DefaultScan is the canned tier-one result.
var DefaultScan = gateway.InitialScan{
	KeywordDetected: "package",
	ThreatRating:    alerts.ThreatMedium,
	FullTranscript:  "the package arrives at the north gate tonight",
}

// DefaultDeep is the canned tier-two result.
var DefaultDeep = gateway.DeepAnalysis{
	ThreatRating:       alerts.ThreatHigh,
	SemanticSummary:    "Coordinated delivery of contraband at a named location and time.",
	EnglishTranslation: "N/A",
	SlangDetected:      []alerts.SlangTerm{{Term: "package", Meaning: "contraband shipment"}},
}

func (f *FakeGateway) InitialScan(ctx context.Context, audio []byte, mimeType string) (gateway.InitialScan, error) {
	f.mu.Lock()
	f.scans++
	f.mimeTypes = append(f.mimeTypes, mimeType)
	fn := f.ScanFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, audio, mimeType)
	}
	return DefaultScan, nil
}

func (f *FakeGateway) DeepAnalysis(ctx context.Context, transcript string) (gateway.DeepAnalysis, error) {
	f.mu.Lock()
	f.deeps++
	f.transcripts = append(f.transcripts, transcript)
	fn := f.DeepFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, transcript)
	}
	return DefaultDeep, nil
}

func (f *FakeGateway) KeywordAnalysis(ctx context.Context, keyword alerts.Keyword, transcript string) (gateway.KeywordAnalysis, error) {
	f.mu.Lock()
	f.keywords++
	fn := f.KeywordFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, keyword, transcript)
	}
	return gateway.KeywordAnalysis{DeepAnalysis: DefaultDeep, FullTranscript: transcript}, nil
}

func (f *FakeGateway) HealthCheck(context.Context) error {
	return f.HealthErr
}

// Calls returns how many scans, deep analyses and keyword analyses ran.
func (f *FakeGateway) Calls() (scans, deeps, keywords int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scans, f.deeps, f.keywords
}

// Transcripts returns the transcripts passed to DeepAnalysis.
func (f *FakeGateway) Transcripts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.transcripts...)
}

// MimeTypes returns the MIME types passed to InitialScan.
func (f *FakeGateway) MimeTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.mimeTypes...)
}
