package llm

import (
	"context"
	"fmt"
	"math"

	openai "github.com/sashabaranov/go-openai"

	"github.com/blockgpt-labs/blockgpt/server/internal/config"
)

// NewOpenAIClient builds the shared API client from configuration.
func NewOpenAIClient(cfg config.OpenAIConfig) *openai.Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(clientCfg)
}

type openAIGenerator struct {
	client      *openai.Client
	model       string
	temperature float32
}

// NewOpenAIGenerator returns a Generator backed by the chat completions endpoint.
func NewOpenAIGenerator(client *openai.Client, cfg config.OpenAIConfig) Generator {
	temperature := cfg.Temperature
	if temperature == 0 {
		// go-openai drops a zero temperature from the request body; the
		// smallest positive float32 keeps sampling effectively deterministic.
		temperature = math.SmallestNonzeroFloat32
	}

	return &openAIGenerator{
		client:      client,
		model:       cfg.ChatModel,
		temperature: temperature,
	}
}

func (g *openAIGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: g.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

type openAIModerator struct {
	client *openai.Client
}

// NewOpenAIModerator returns a Moderator backed by the moderations endpoint.
func NewOpenAIModerator(client *openai.Client) Moderator {
	return &openAIModerator{client: client}
}

func (m *openAIModerator) Moderate(ctx context.Context, text string) (bool, error) {
	resp, err := m.client.Moderations(ctx, openai.ModerationRequest{Input: text})
	if err != nil {
		return false, fmt.Errorf("create moderation: %w", err)
	}

	for _, result := range resp.Results {
		if result.Flagged {
			return true, nil
		}
	}
	return false, nil
}

type openAIEmbedder struct {
	client    *openai.Client
	model     string
	dimension int
}

// NewOpenAIEmbedder returns an Embedder backed by the embeddings endpoint.
func NewOpenAIEmbedder(client *openai.Client, cfg config.OpenAIConfig) Embedder {
	return &openAIEmbedder{
		client:    client,
		model:     cfg.EmbeddingModel,
		dimension: cfg.EmbeddingDimension,
	}
}

func (e *openAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}

	results := make([][]float32, len(resp.Data))
	for i, datum := range resp.Data {
		if e.dimension > 0 && len(datum.Embedding) != e.dimension {
			return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", e.dimension, len(datum.Embedding))
		}
		results[i] = datum.Embedding
	}

	return results, nil
}
