package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Config captures the settings required to reach Gemini.
type Config struct {
	APIKey string
	// TimeoutSeconds bounds each request. Zero leaves requests unbounded.
	TimeoutSeconds int
}

// Audio is an inline audio payload.
type Audio struct {
	MIMEType string
	Data     []byte
}

// Request describes one JSON generation call.
type Request struct {
	Model  string
	System string
	Prompt string
	Audio  *Audio
	Schema *genai.Schema
}

// ErrEmptyResponse reports a reply with no text parts.
var ErrEmptyResponse = errors.New("gemini returned no text")

// Client issues generateContent calls.
type Client struct {
	client  *genai.Client
	timeout time.Duration
}

// NewClient connects to Gemini with the supplied API key. Extra options are
// passed to the underlying SDK (tests use option.WithEndpoint).
func NewClient(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	clientOpts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	client, err := genai.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	var timeout time.Duration
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &Client{client: client, timeout: timeout}, nil
}

// GenerateJSON runs req and returns the reply text, expected to be JSON.
func (c *Client) GenerateJSON(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Model) == "" {
		return "", errors.New("gemini: model is required")
	}
	model := c.client.GenerativeModel(req.Model)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = req.Schema
	if system := strings.TrimSpace(req.System); system != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(system))
	}

	parts := make([]genai.Part, 0, 2)
	if req.Audio != nil {
		parts = append(parts, genai.Blob{MIMEType: req.Audio.MIMEType, Data: req.Audio.Data})
	}
	if prompt := strings.TrimSpace(req.Prompt); prompt != "" {
		parts = append(parts, genai.Text(prompt))
	}
	if len(parts) == 0 {
		return "", errors.New("gemini: request has no content")
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content (%s): %w", req.Model, err)
	}
	return responseText(resp)
}

// HealthCheck fetches model metadata to verify the key and model name.
func (c *Client) HealthCheck(ctx context.Context, modelName string) error {
	if _, err := c.client.GenerativeModel(modelName).Info(ctx); err != nil {
		return fmt.Errorf("gemini: model %s: %w", modelName, err)
	}
	return nil
}

// Close releases resources held by the client.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil {
			return "", fmt.Errorf("%w: prompt blocked (%s)", ErrEmptyResponse, resp.PromptFeedback.BlockReason)
		}
		return "", ErrEmptyResponse
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return "", fmt.Errorf("%w (finish_reason=%s)", ErrEmptyResponse, candidate.FinishReason)
	}
	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	out := strings.TrimSpace(text.String())
	if out == "" {
		return "", fmt.Errorf("%w (finish_reason=%s)", ErrEmptyResponse, candidate.FinishReason)
	}
	return out, nil
}
