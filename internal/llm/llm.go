package llm

import "context"

// Generator produces a free-text completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// Moderator screens text against the remote content policy.
type Moderator interface {
	Moderate(ctx context.Context, text string) (bool, error)
}

// Embedder maps texts to embedding vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
