package gateway

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"

	"audiosurv/internal/alerts"
	"audiosurv/internal/services/llm"
)

type initialScanPayload struct {
	KeywordDetected string `json:"keyword_detected"`
	ThreatRating    string `json:"threat_rating"`
	FullTranscript  string `json:"full_transcript"`
}

type slangPayload struct {
	Term    string `json:"term"`
	Meaning string `json:"meaning"`
}

type deepAnalysisPayload struct {
	ThreatRating       string         `json:"threat_rating"`
	SemanticSummary    string         `json:"semantic_summary"`
	EnglishTranslation string         `json:"english_translation"`
	SlangDetected      []slangPayload `json:"slang_detected"`
	FullTranscript     string         `json:"full_transcript"`
}

var errMissingRating = errors.New("response has no valid threat_rating")

func ratingSchema(description string) *genai.Schema {
	enum := make([]string, 0, len(alerts.ThreatRatings))
	for i := len(alerts.ThreatRatings) - 1; i >= 0; i-- {
		enum = append(enum, string(alerts.ThreatRatings[i]))
	}
	return &genai.Schema{Type: genai.TypeString, Enum: enum, Description: description}
}

func stringSchema(description string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: description}
}

var initialScanSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"keyword_detected": stringSchema("The most significant keyword, phrase, or topic found in the transcript."),
		"threat_rating":    ratingSchema("The preliminary assessed threat rating."),
		"full_transcript":  stringSchema("The full transcript that was analyzed."),
	},
	Required: []string{"keyword_detected", "threat_rating", "full_transcript"},
}

var deepAnalysisSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"threat_rating":       ratingSchema("The final, most accurate threat rating."),
		"semantic_summary":    stringSchema("A detailed summary of the context, intent, and reasoning for the assigned threat rating."),
		"english_translation": stringSchema("An English translation of the original transcript. If the transcript is already in English, this is the same as the original transcript."),
		"slang_detected": {
			Type:        genai.TypeArray,
			Description: "Slang terms or code words found in the transcript.",
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"term":    stringSchema("The slang term or code word as spoken."),
					"meaning": stringSchema("Its likely meaning in context."),
				},
				Required: []string{"term", "meaning"},
			},
		},
	},
	Required: []string{"threat_rating", "semantic_summary", "english_translation"},
}

var keywordAnalysisSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"threat_rating":       ratingSchema("The final assessed threat rating."),
		"semantic_summary":    stringSchema("A brief summary of the context and the reasoning for the assigned threat rating."),
		"full_transcript":     stringSchema("The full transcript that was analyzed."),
		"english_translation": stringSchema("An English translation of the full transcript. If the original was English, this is the same as the transcript."),
	},
	Required: []string{"threat_rating", "semantic_summary", "full_transcript", "english_translation"},
}

func decodeInitialScan(content string) (InitialScan, error) {
	var payload initialScanPayload
	if err := llm.DecodeJSON(content, &payload); err != nil {
		return InitialScan{}, fmt.Errorf("decode initial scan: %w", err)
	}
	rating, err := alerts.ParseThreatRating(payload.ThreatRating)
	if err != nil {
		return InitialScan{}, fmt.Errorf("%w: %v", errMissingRating, err)
	}
	transcript := strings.TrimSpace(payload.FullTranscript)
	if transcript == "" {
		transcript = TranscriptPlaceholder
	}
	return InitialScan{
		KeywordDetected: strings.TrimSpace(payload.KeywordDetected),
		ThreatRating:    rating,
		FullTranscript:  transcript,
	}, nil
}

func decodeDeepAnalysis(content string) (DeepAnalysis, string, error) {
	var payload deepAnalysisPayload
	if err := llm.DecodeJSON(content, &payload); err != nil {
		return DeepAnalysis{}, "", fmt.Errorf("decode deep analysis: %w", err)
	}
	rating, err := alerts.ParseThreatRating(payload.ThreatRating)
	if err != nil {
		return DeepAnalysis{}, "", fmt.Errorf("%w: %v", errMissingRating, err)
	}
	var slang []alerts.SlangTerm
	for _, s := range payload.SlangDetected {
		term := strings.TrimSpace(s.Term)
		if term == "" {
			continue
		}
		slang = append(slang, alerts.SlangTerm{Term: term, Meaning: strings.TrimSpace(s.Meaning)})
	}
	return DeepAnalysis{
		ThreatRating:       rating,
		SemanticSummary:    strings.TrimSpace(payload.SemanticSummary),
		EnglishTranslation: strings.TrimSpace(payload.EnglishTranslation),
		SlangDetected:      slang,
	}, strings.TrimSpace(payload.FullTranscript), nil
}
