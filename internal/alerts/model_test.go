package alerts

import (
	"errors"
	"fmt"
	"testing"
)

func TestParseThreatRating(t *testing.T) {
	cases := []struct {
		in   string
		want ThreatRating
	}{
		{"High", ThreatHigh},
		{"medium", ThreatMedium},
		{"  LOW ", ThreatLow},
	}
	for _, tc := range cases {
		got, err := ParseThreatRating(tc.in)
		if err != nil {
			t.Fatalf("ParseThreatRating(%q) returned error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseThreatRating(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
	if _, err := ParseThreatRating("critical"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for unknown rating, got %v", err)
	}
}

func TestThreatRatingRank(t *testing.T) {
	if !(ThreatHigh.Rank() < ThreatMedium.Rank() && ThreatMedium.Rank() < ThreatLow.Rank()) {
		t.Fatal("expected High < Medium < Low rank order")
	}
	if ThreatRating("bogus").Rank() <= ThreatLow.Rank() {
		t.Fatal("expected unknown rating to rank after Low")
	}
}

func TestAlertPatchApplyReplacesOnlyNamedFields(t *testing.T) {
	base := Alert{
		ID:              "alert-temp-1",
		KeywordDetected: "emergency",
		ThreatRating:    ThreatLow,
		SemanticSummary: PlaceholderSummary,
		FullTranscript:  "help",
		AudioSrc:        "data:audio/wav;base64,AAAA",
		AnalysisState:   StatePreliminary,
	}
	id := "alert-final"
	rating := ThreatHigh
	state := StateComplete
	slang := []SlangTerm{{Term: "package", Meaning: "contraband"}}
	got := AlertPatch{ID: &id, ThreatRating: &rating, AnalysisState: &state, SlangDetected: &slang}.Apply(base)

	if got.ID != id || got.ThreatRating != ThreatHigh || got.AnalysisState != StateComplete {
		t.Fatalf("patched fields not applied: %#v", got)
	}
	if got.FullTranscript != "help" || got.KeywordDetected != "emergency" || got.AudioSrc != base.AudioSrc {
		t.Fatalf("unpatched fields changed: %#v", got)
	}
	if got.SemanticSummary != PlaceholderSummary {
		t.Fatalf("summary should be untouched, got %q", got.SemanticSummary)
	}
	slang[0].Term = "mutated"
	if got.SlangDetected[0].Term != "package" {
		t.Fatal("patched slang shares storage with the caller")
	}
	if base.ID != "alert-temp-1" {
		t.Fatal("Apply mutated its input")
	}
}

func TestStrippedRemovesAudio(t *testing.T) {
	a := Alert{ID: "a", AudioSrc: "data:audio/mp3;base64,AAAA"}
	if got := a.Stripped(); got.AudioSrc != "" {
		t.Fatalf("expected audio stripped, got %q", got.AudioSrc)
	}
	if a.AudioSrc == "" {
		t.Fatal("Stripped mutated the receiver")
	}

	k := Keyword{ID: "kw", Samples: []AudioSample{{ID: "s1", AudioSrc: "data:x"}}}
	if got := k.Stripped(); got.Samples[0].AudioSrc != "" {
		t.Fatal("expected keyword sample audio stripped")
	}
	if k.Samples[0].AudioSrc == "" {
		t.Fatal("Stripped mutated keyword samples")
	}
}

func TestValidateKeyword(t *testing.T) {
	samples := make([]AudioSample, RequiredKeywordSamples)
	if err := ValidateKeyword(Keyword{Term: "package", InitialRating: ThreatMedium, Samples: samples}); err != nil {
		t.Fatalf("expected valid keyword, got %v", err)
	}
	if err := ValidateKeyword(Keyword{Term: " ", InitialRating: ThreatLow, Samples: samples}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for blank term, got %v", err)
	}
	if err := ValidateKeyword(Keyword{Term: "x", InitialRating: ThreatLow, Samples: samples[:2]}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for sample count, got %v", err)
	}
}

type displayErr struct{}

func (displayErr) Error() string          { return "low level detail" }
func (displayErr) DisplayMessage() string { return "Friendly message." }

func TestMessagePrefersDisplayMessage(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", displayErr{})
	if got := Message(wrapped); got != "Friendly message." {
		t.Fatalf("Message = %q", got)
	}
	if got := Message(errors.New("plain")); got != "plain" {
		t.Fatalf("Message = %q", got)
	}
	if got := Message(nil); got != "" {
		t.Fatalf("Message(nil) = %q", got)
	}
}
