package alerts

import "time"

// DemoAlerts returns the sample alerts shown on first launch, timestamped
// relative to now.
func DemoAlerts(now time.Time) []Alert {
	return []Alert{
		{
			ID:              "alert-1",
			Timestamp:       now.Add(-5 * time.Minute),
			KeywordDetected: "emergency",
			ThreatRating:    ThreatHigh,
			SemanticSummary: "A distress call was identified, indicating a critical situation requiring immediate attention at the main entrance.",
			FullTranscript:  "This is an emergency! We need all units to respond to the main entrance immediately, situation critical.",
			AnalysisState:   StateComplete,
		},
		{
			ID:              "alert-2",
			Timestamp:       now.Add(-15 * time.Minute),
			KeywordDetected: "package",
			ThreatRating:    ThreatMedium,
			SemanticSummary: `Unusual conversation regarding a "package" delivery at a non-standard location and time. Context suggests potential illicit activity.`,
			FullTranscript:  "Did you get the package? Make sure no one sees you. The drop is behind the old warehouse at midnight.",
			AnalysisState:   StateComplete,
			SlangDetected: []SlangTerm{
				{Term: "package", Meaning: "Illicit item or contraband"},
				{Term: "the drop", Meaning: "The location for a secret exchange"},
			},
		},
		{
			ID:              "alert-4",
			Timestamp:       now.Add(-25 * time.Minute),
			KeywordDetected: "package",
			ThreatRating:    ThreatLow,
			SemanticSummary: "A standard delivery confirmation was detected. No threat identified.",
			FullTranscript:  "Hi, just confirming the package was delivered to the front desk. Please sign for it when you can.",
			AnalysisState:   StateComplete,
		},
		{
			ID:              "alert-3",
			Timestamp:       now.Add(-30 * time.Minute),
			KeywordDetected: "rendezvous",
			ThreatRating:    ThreatLow,
			SemanticSummary: "A meeting was scheduled, but the context appears to be a standard business arrangement without any overt threats.",
			FullTranscript:  "Confirming the rendezvous for tomorrow at 10 AM in the conference room to discuss the project proposal.",
			AnalysisState:   StateComplete,
		},
	}
}
