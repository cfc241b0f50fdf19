// Package embedding wraps the Gemini embedding API for retrieval queries.
package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Embedder produces a query vector for semantic search. Implementations
// return an error rather than a partial vector; callers treat any error as
// "vector search unavailable for this run".
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// retrievalTaskType marks query embeddings as retrieval queries so the
// service produces vectors comparable with the indexed documents.
const retrievalTaskType = "RETRIEVAL_QUERY"

// Client generates retrieval-query embeddings using Google's Gemini API.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient creates an embedding client. The API key is required; the model
// defaults to gemini-embedding-001 when unset.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = "gemini-embedding-001"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &Client{client: client, model: model}, nil
}

// EmbedQuery generates an embedding for a single retrieval query.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}

	result, err := c.client.Models.EmbedContent(ctx,
		c.model,
		contents,
		embedConfig(),
	)
	if err != nil {
		return nil, fmt.Errorf("GenAI embed failed: %w", err)
	}

	if len(result.Embeddings) == 0 || len(result.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}

	return result.Embeddings[0].Values, nil
}

func embedConfig() *genai.EmbedContentConfig {
	return &genai.EmbedContentConfig{TaskType: retrievalTaskType}
}
