package alerts

import (
	"fmt"
	"strings"
	"time"
)

// ThreatRating is the assessed severity of an alert.
type ThreatRating string

const (
	ThreatLow    ThreatRating = "Low"
	ThreatMedium ThreatRating = "Medium"
	ThreatHigh   ThreatRating = "High"
)

// ThreatRatings lists the ratings in ascending severity.
var ThreatRatings = []ThreatRating{ThreatLow, ThreatMedium, ThreatHigh}

// ParseThreatRating accepts a rating in any letter case.
func ParseThreatRating(value string) (ThreatRating, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "low":
		return ThreatLow, nil
	case "medium":
		return ThreatMedium, nil
	case "high":
		return ThreatHigh, nil
	default:
		return "", fmt.Errorf("%w: unknown threat rating %q", ErrValidation, value)
	}
}

// Valid reports whether r is one of the known ratings.
func (r ThreatRating) Valid() bool {
	switch r {
	case ThreatLow, ThreatMedium, ThreatHigh:
		return true
	default:
		return false
	}
}

// Rank orders ratings for display: High first, unknown values last.
func (r ThreatRating) Rank() int {
	switch r {
	case ThreatHigh:
		return 0
	case ThreatMedium:
		return 1
	case ThreatLow:
		return 2
	default:
		return 3
	}
}

// AnalysisState tracks which pipeline tier produced the alert's current fields.
type AnalysisState string

const (
	StatePreliminary AnalysisState = "preliminary"
	StateComplete    AnalysisState = "complete"
)

// PlaceholderSummary is shown while deep analysis is outstanding.
const PlaceholderSummary = "Performing deep semantic analysis..."

// SlangTerm is one slang or code-word annotation produced by deep analysis.
type SlangTerm struct {
	Term    string `json:"term"`
	Meaning string `json:"meaning"`
}

// Alert is one assessed audio submission.
type Alert struct {
	ID                 string        `json:"id"`
	Timestamp          time.Time     `json:"timestamp"`
	KeywordDetected    string        `json:"keywordDetected"`
	ThreatRating       ThreatRating  `json:"threatRating"`
	SemanticSummary    string        `json:"semanticSummary"`
	FullTranscript     string        `json:"fullTranscript"`
	EnglishTranslation string        `json:"englishTranslation,omitempty"`
	SlangDetected      []SlangTerm   `json:"slangDetected,omitempty"`
	AudioSrc           string        `json:"audioSrc,omitempty"`
	AnalysisState      AnalysisState `json:"analysisState"`
}

// IsPreliminary reports whether deep analysis is still outstanding.
func (a Alert) IsPreliminary() bool {
	return a.AnalysisState == StatePreliminary
}

// Clone returns a copy that shares no slices with a.
func (a Alert) Clone() Alert {
	if a.SlangDetected != nil {
		slang := make([]SlangTerm, len(a.SlangDetected))
		copy(slang, a.SlangDetected)
		a.SlangDetected = slang
	}
	return a
}

// Stripped returns the persisted form of the alert: no audio payload.
func (a Alert) Stripped() Alert {
	out := a.Clone()
	out.AudioSrc = ""
	return out
}

// AlertPatch names the fields a Patch call replaces. Nil fields are left alone.
type AlertPatch struct {
	ID                 *string
	ThreatRating       *ThreatRating
	SemanticSummary    *string
	EnglishTranslation *string
	SlangDetected      *[]SlangTerm
	AnalysisState      *AnalysisState
}

// Apply returns a with every non-nil patch field replaced.
func (p AlertPatch) Apply(a Alert) Alert {
	out := a.Clone()
	if p.ID != nil {
		out.ID = *p.ID
	}
	if p.ThreatRating != nil {
		out.ThreatRating = *p.ThreatRating
	}
	if p.SemanticSummary != nil {
		out.SemanticSummary = *p.SemanticSummary
	}
	if p.EnglishTranslation != nil {
		out.EnglishTranslation = *p.EnglishTranslation
	}
	if p.SlangDetected != nil {
		if *p.SlangDetected == nil {
			out.SlangDetected = nil
		} else {
			out.SlangDetected = append([]SlangTerm(nil), (*p.SlangDetected)...)
		}
	}
	if p.AnalysisState != nil {
		out.AnalysisState = *p.AnalysisState
	}
	return out
}

// AudioSample is one reference recording attached to a keyword.
type AudioSample struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	AudioSrc string `json:"audioSrc,omitempty"`
}

// Keyword is an operator-defined term with its analyst-assigned starting rating.
type Keyword struct {
	ID            string        `json:"id"`
	Term          string        `json:"term"`
	InitialRating ThreatRating  `json:"initialRating"`
	Samples       []AudioSample `json:"samples"`
}

// RequiredKeywordSamples is the number of reference recordings a new keyword needs.
const RequiredKeywordSamples = 5

// Clone returns a copy that shares no slices with k.
func (k Keyword) Clone() Keyword {
	if k.Samples != nil {
		samples := make([]AudioSample, len(k.Samples))
		copy(samples, k.Samples)
		k.Samples = samples
	}
	return k
}

// Stripped returns the persisted form of the keyword with sample audio removed.
func (k Keyword) Stripped() Keyword {
	out := k.Clone()
	for i := range out.Samples {
		out.Samples[i].AudioSrc = ""
	}
	return out
}

// ValidateKeyword checks a keyword submitted through the add form.
func ValidateKeyword(k Keyword) error {
	if strings.TrimSpace(k.Term) == "" {
		return fmt.Errorf("%w: keyword term cannot be empty", ErrValidation)
	}
	if !k.InitialRating.Valid() {
		return fmt.Errorf("%w: unknown initial rating %q", ErrValidation, k.InitialRating)
	}
	if len(k.Samples) != RequiredKeywordSamples {
		return fmt.Errorf("%w: you must upload exactly %d audio samples", ErrValidation, RequiredKeywordSamples)
	}
	return nil
}
