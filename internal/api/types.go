package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Alert describes an alert in a transport-friendly format.
type Alert struct {
	ID                 string      `json:"id"`
	Timestamp          string      `json:"timestamp"`
	KeywordDetected    string      `json:"keywordDetected"`
	ThreatRating       string      `json:"threatRating"`
	SemanticSummary    string      `json:"semanticSummary"`
	FullTranscript     string      `json:"fullTranscript"`
	EnglishTranslation string      `json:"englishTranslation,omitempty"`
	SlangDetected      []SlangTerm `json:"slangDetected,omitempty"`
	AudioSrc           string      `json:"audioSrc,omitempty"`
	AnalysisState      string      `json:"analysisState"`
}

// SlangTerm is one slang annotation.
type SlangTerm struct {
	Term    string `json:"term"`
	Meaning string `json:"meaning"`
}

// AlertList wraps a derived alert view.
type AlertList struct {
	Alerts  []Alert `json:"alerts"`
	Total   int     `json:"total"`
	Sort    string  `json:"sort"`
	Filter  string  `json:"filter,omitempty"`
	Version uint64  `json:"version"`
}

// Summary reports threat counts and the most recent alert.
type Summary struct {
	High        int    `json:"high"`
	Medium      int    `json:"medium"`
	Low         int    `json:"low"`
	Total       int    `json:"total"`
	Preliminary int    `json:"preliminary"`
	MostRecent  *Alert `json:"mostRecent,omitempty"`
}

// ScanAccepted is returned when an asynchronous scan starts.
type ScanAccepted struct {
	TempID string `json:"tempId"`
	State  string `json:"state"`
}

// ScanResult is the terminal outcome of a scan.
type ScanResult struct {
	State   string `json:"state"`
	TempID  string `json:"tempId"`
	FinalID string `json:"finalId,omitempty"`
	Alert   *Alert `json:"alert,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Keyword describes a keyword library entry.
type Keyword struct {
	ID            string        `json:"id"`
	Term          string        `json:"term"`
	InitialRating string        `json:"initialRating"`
	Samples       []AudioSample `json:"samples"`
}

// AudioSample is one reference recording attached to a keyword.
type AudioSample struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	AudioSrc string `json:"audioSrc,omitempty"`
}

// KeywordRequest is the body of POST /api/keywords.
type KeywordRequest struct {
	Term          string        `json:"term"`
	InitialRating string        `json:"initialRating"`
	Samples       []AudioSample `json:"samples"`
}

// KeywordList wraps the keyword library.
type KeywordList struct {
	Keywords []Keyword `json:"keywords"`
}

// KeywordAnalysis is the result of analyzing a transcript against a keyword.
type KeywordAnalysis struct {
	Keyword            string      `json:"keyword"`
	ThreatRating       string      `json:"threatRating"`
	SemanticSummary    string      `json:"semanticSummary"`
	FullTranscript     string      `json:"fullTranscript"`
	EnglishTranslation string      `json:"englishTranslation,omitempty"`
	SlangDetected      []SlangTerm `json:"slangDetected,omitempty"`
}

// Status reports server runtime information.
type Status struct {
	Alerts       int    `json:"alerts"`
	Preliminary  int    `json:"preliminary"`
	Keywords     int    `json:"keywords"`
	StoreVersion uint64 `json:"storeVersion"`
	Storage      string `json:"storage"`
	DeepBackend  string `json:"deepBackend"`
	PID          int    `json:"pid"`
}

// HealthCheck captures one backend readiness probe.
type HealthCheck struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}
