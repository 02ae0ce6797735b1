package corpus

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// fakeEmbedder maps known texts to fixed low-dimension vectors so the index
// can be exercised without the remote embedding service.
type fakeEmbedder struct {
	vectors map[string][]float32
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, ok := f.vectors[text]
		if !ok {
			vec = []float32{0, 0, 0}
		}
		out[i] = vec
	}
	return out, nil
}

func TestIndexSearchOrdersByDistance(t *testing.T) {
	if os.Getenv("RUN_DB_INTEGRATION_TESTS") != "1" {
		t.Skip("set RUN_DB_INTEGRATION_TESTS=1 to run database integration checks")
	}

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_DSN not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	t.Cleanup(pool.Close)
	t.Cleanup(func() {
		pool.Exec(ctx, "DROP TABLE IF EXISTS corpus_passages")
	})

	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"bitcoin basics":  {1, 0, 0},
		"ethereum basics": {0, 1, 0},
		"ripple basics":   {0, 0, 1},
		"about bitcoin":   {0.9, 0.1, 0},
	}}

	index := NewIndex(pool, embedder, 3)
	if err := index.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema err: %v", err)
	}
	if err := index.Reindex(ctx, []string{"bitcoin basics", "ethereum basics", "ripple basics"}); err != nil {
		t.Fatalf("Reindex err: %v", err)
	}

	passages, err := index.Search(ctx, "about bitcoin", 2)
	if err != nil {
		t.Fatalf("Search err: %v", err)
	}

	if len(passages) != 2 {
		t.Fatalf("expected 2 passages, got %d", len(passages))
	}
	if passages[0] != "bitcoin basics" {
		t.Fatalf("expected nearest passage first, got %q", passages[0])
	}
}
