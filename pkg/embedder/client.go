// Package embedder defines the embedding client used by the coverage
// evaluator.
package embedder

import "context"

// Client defines the interface for embedding operations.
type Client interface {
	// Embed generates embeddings for the given texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedSingle generates an embedding for a single text.
	EmbedSingle(ctx context.Context, text string) ([]float32, error)

	// Close cleans up any resources.
	Close() error
}

// Config holds configuration for embedding clients.
type Config struct {
	Model     string `json:"model"`
	BatchSize int    `json:"batch_size"`
	BaseURL   string `json:"base_url,omitempty"` // OpenAI-compatible services
}
