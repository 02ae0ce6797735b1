package corpus

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/blockgpt-labs/blockgpt/server/internal/llm"
)

// Searcher returns the k passages most similar to the query.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]string, error)
}

// Index stores corpus passage embeddings in Postgres and delegates
// nearest-neighbor ranking to pgvector. Passages are embedded once at startup
// and immutable for the process lifetime.
type Index struct {
	pool      *pgxpool.Pool
	embedder  llm.Embedder
	dimension int
}

// NewIndex wraps the shared pool and embedder.
func NewIndex(pool *pgxpool.Pool, embedder llm.Embedder, dimension int) *Index {
	return &Index{pool: pool, embedder: embedder, dimension: dimension}
}

// EnsureSchema creates the vector extension and the passage table.
func (i *Index) EnsureSchema(ctx context.Context) error {
	if i.dimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive")
	}

	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS corpus_passages (
			id UUID PRIMARY KEY,
			position INT NOT NULL,
			content TEXT NOT NULL,
			embedding VECTOR(%d) NOT NULL
		)`, i.dimension),
	}

	for _, stmt := range stmts {
		if _, err := i.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("execute corpus schema statement: %w", err)
		}
	}

	return nil
}

// Reindex replaces the stored passages with the supplied set, embedding them
// in one batch.
func (i *Index) Reindex(ctx context.Context, passages []string) error {
	if len(passages) == 0 {
		return fmt.Errorf("no passages to index")
	}

	vectors, err := i.embedder.Embed(ctx, passages)
	if err != nil {
		return fmt.Errorf("embed passages: %w", err)
	}
	if len(vectors) != len(passages) {
		return fmt.Errorf("embedder returned %d vectors for %d passages", len(vectors), len(passages))
	}

	if _, err := i.pool.Exec(ctx, "TRUNCATE corpus_passages"); err != nil {
		return fmt.Errorf("truncate corpus passages: %w", err)
	}

	for idx, passage := range passages {
		_, err := i.pool.Exec(ctx,
			"INSERT INTO corpus_passages (id, position, content, embedding) VALUES ($1, $2, $3, $4)",
			uuid.New(), idx, passage, pgvector.NewVector(vectors[idx]))
		if err != nil {
			return fmt.Errorf("insert passage %d: %w", idx, err)
		}
	}

	return nil
}

// Search embeds the query and returns the k nearest passages in distance
// order, position as the stable tiebreak.
func (i *Index) Search(ctx context.Context, query string, k int) ([]string, error) {
	if k <= 0 {
		return nil, fmt.Errorf("search limit must be positive")
	}

	vectors, err := i.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedder returned no vectors")
	}

	rows, err := i.pool.Query(ctx, `
		SELECT content
		FROM corpus_passages
		ORDER BY embedding <-> $1::vector, position
		LIMIT $2
	`, pgvector.NewVector(vectors[0]), k)
	if err != nil {
		return nil, fmt.Errorf("query similar passages: %w", err)
	}
	defer rows.Close()

	passages := make([]string, 0, k)
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, fmt.Errorf("scan passage: %w", err)
		}
		passages = append(passages, content)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("query similar passages: %w", rows.Err())
	}

	return passages, nil
}

var _ Searcher = (*Index)(nil)
