// Package generative wraps the Gemini generation API for estimate synthesis.
package generative

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Generator produces a text completion from a system instruction and a user
// prompt. The synthesizer validates whatever comes back; implementations do
// not retry.
type Generator interface {
	Generate(ctx context.Context, system, prompt string, maxTokens int, temperature float32) (string, error)
}

// Client generates completions using Google's Gemini API.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient creates a generation client. The API key is required; the model
// defaults to gemini-2.0-flash when unset.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &Client{client: client, model: model}, nil
}

// Generate runs a single completion and returns the concatenated text parts.
func (c *Client) Generate(ctx context.Context, system, prompt string, maxTokens int, temperature float32) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(temperature),
		MaxOutputTokens: int32(maxTokens),
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	result, err := c.client.Models.GenerateContent(ctx,
		c.model,
		genai.Text(prompt),
		cfg,
	)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("empty completion returned")
	}

	return text, nil
}
