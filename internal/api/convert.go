package api

import (
	"fmt"
	"strings"

	"audiosurv/internal/alerts"
	"audiosurv/internal/alertview"
	"audiosurv/internal/gateway"
	"audiosurv/internal/pipeline"
	"audiosurv/internal/preflight"
)

// FromAlert converts an alert to its API representation. The audio payload is
// carried only when includeAudio is set.
func FromAlert(a alerts.Alert, includeAudio bool) Alert {
	dto := Alert{
		ID:                 a.ID,
		KeywordDetected:    a.KeywordDetected,
		ThreatRating:       string(a.ThreatRating),
		SemanticSummary:    a.SemanticSummary,
		FullTranscript:     a.FullTranscript,
		EnglishTranslation: a.EnglishTranslation,
		SlangDetected:      fromSlang(a.SlangDetected),
		AnalysisState:      string(a.AnalysisState),
	}
	if !a.Timestamp.IsZero() {
		dto.Timestamp = a.Timestamp.UTC().Format(dateTimeFormat)
	}
	if includeAudio {
		dto.AudioSrc = a.AudioSrc
	}
	return dto
}

// FromAlerts converts a slice of alerts, preserving order.
func FromAlerts(list []alerts.Alert, includeAudio bool) []Alert {
	out := make([]Alert, 0, len(list))
	for _, a := range list {
		out = append(out, FromAlert(a, includeAudio))
	}
	return out
}

// FromView wraps a derived view with the parameters and store version that
// produced it.
func FromView(list []alerts.Alert, order alertview.SortOrder, filter string, version uint64) AlertList {
	return AlertList{
		Alerts:  FromAlerts(list, false),
		Total:   len(list),
		Sort:    string(order),
		Filter:  filter,
		Version: version,
	}
}

// FromSummary converts threat counts and the optional most recent alert.
func FromSummary(s alertview.ThreatSummary, recent *alerts.Alert) Summary {
	dto := Summary{
		High:        s.High,
		Medium:      s.Medium,
		Low:         s.Low,
		Total:       s.Total,
		Preliminary: s.Preliminary,
	}
	if recent != nil {
		a := FromAlert(*recent, false)
		dto.MostRecent = &a
	}
	return dto
}

// FromScanResult converts a terminal pipeline result.
func FromScanResult(r pipeline.Result) ScanResult {
	dto := ScanResult{
		State:   string(r.State),
		TempID:  r.TempID,
		FinalID: r.FinalID,
	}
	if r.Alert.ID != "" && r.State == pipeline.StateTierTwoComplete {
		a := FromAlert(r.Alert, false)
		dto.Alert = &a
	}
	if r.Err != nil {
		dto.Error = alerts.Message(r.Err)
	}
	return dto
}

// FromKeyword converts a keyword library entry.
func FromKeyword(k alerts.Keyword) Keyword {
	dto := Keyword{
		ID:            k.ID,
		Term:          k.Term,
		InitialRating: string(k.InitialRating),
		Samples:       make([]AudioSample, 0, len(k.Samples)),
	}
	for _, s := range k.Samples {
		dto.Samples = append(dto.Samples, AudioSample{ID: s.ID, Name: s.Name})
	}
	return dto
}

// FromKeywords converts the keyword library.
func FromKeywords(list []alerts.Keyword) KeywordList {
	out := KeywordList{Keywords: make([]Keyword, 0, len(list))}
	for _, k := range list {
		out.Keywords = append(out.Keywords, FromKeyword(k))
	}
	return out
}

// ToKeyword validates a keyword request and converts it to the domain model.
func ToKeyword(req KeywordRequest) (alerts.Keyword, error) {
	rating, err := alerts.ParseThreatRating(req.InitialRating)
	if err != nil {
		return alerts.Keyword{}, err
	}
	k := alerts.Keyword{
		Term:          strings.TrimSpace(req.Term),
		InitialRating: rating,
		Samples:       make([]alerts.AudioSample, 0, len(req.Samples)),
	}
	for i, s := range req.Samples {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			name = fmt.Sprintf("sample-%d", i+1)
		}
		k.Samples = append(k.Samples, alerts.AudioSample{Name: name, AudioSrc: s.AudioSrc})
	}
	if err := alerts.ValidateKeyword(k); err != nil {
		return alerts.Keyword{}, err
	}
	return k, nil
}

// FromKeywordAnalysis converts a keyword analysis result.
func FromKeywordAnalysis(term string, r gateway.KeywordAnalysis) KeywordAnalysis {
	return KeywordAnalysis{
		Keyword:            term,
		ThreatRating:       string(r.ThreatRating),
		SemanticSummary:    r.SemanticSummary,
		FullTranscript:     r.FullTranscript,
		EnglishTranslation: r.EnglishTranslation,
		SlangDetected:      fromSlang(r.SlangDetected),
	}
}

// FromPreflight converts readiness check results.
func FromPreflight(results []preflight.Result) []HealthCheck {
	out := make([]HealthCheck, 0, len(results))
	for _, r := range results {
		out = append(out, HealthCheck{Name: r.Name, Ready: r.Passed, Detail: r.Detail})
	}
	return out
}

func fromSlang(terms []alerts.SlangTerm) []SlangTerm {
	if len(terms) == 0 {
		return nil
	}
	out := make([]SlangTerm, len(terms))
	for i, s := range terms {
		out[i] = SlangTerm{Term: s.Term, Meaning: s.Meaning}
	}
	return out
}
