package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
)

func TestResponseTextJoinsTextParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{
				genai.Text(`{"keywordDetected":`),
				genai.Blob{MIMEType: "audio/wav", Data: []byte{1}},
				genai.Text(`"pickup"}`),
			}},
		}},
	}
	got, err := responseText(resp)
	if err != nil {
		t.Fatalf("responseText: %v", err)
	}
	if got != `{"keywordDetected":"pickup"}` {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestResponseTextEmpty(t *testing.T) {
	cases := map[string]*genai.GenerateContentResponse{
		"nil":           nil,
		"no candidates": {},
		"no content":    {Candidates: []*genai.Candidate{{}}},
		"blank text":    {Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []genai.Part{genai.Text("  ")}}}}},
		"blocked":       {PromptFeedback: &genai.PromptFeedback{BlockReason: genai.BlockReasonSafety}},
	}
	for name, resp := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := responseText(resp); !errors.Is(err, ErrEmptyResponse) {
				t.Fatalf("expected ErrEmptyResponse, got %v", err)
			}
		})
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(context.Background(), Config{APIKey: "  "}); err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestGenerateJSONValidatesRequest(t *testing.T) {
	c := &Client{}
	if _, err := c.GenerateJSON(context.Background(), Request{}); err == nil {
		t.Fatal("expected error for missing model")
	}
}
