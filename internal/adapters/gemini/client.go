package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Client drives both LLM stages against the Gemini API. It implements
// ports.Analyzer and ports.Advisor.
type Client struct {
	genai *genai.Client
	model string
}

// NewClient creates a Client for the given model using an API key.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini.NewClient: empty API key")
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini.NewClient: %w", err)
	}
	return &Client{genai: cli, model: model}, nil
}

// generate sends one prompt and returns the raw text of the first candidate.
func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.genai.Models.GenerateContent(ctx, c.model, genai.Text(prompt),
		&genai.GenerateContentConfig{
			Temperature: genai.Ptr[float32](0.2),
		})
	if err != nil {
		return "", fmt.Errorf("gemini.generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini.generate: empty response")
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}
