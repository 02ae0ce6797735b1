package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/blockgpt-labs/blockgpt/server/internal/config"
	"github.com/blockgpt-labs/blockgpt/server/internal/corpus"
	"github.com/blockgpt-labs/blockgpt/server/internal/handler"
	"github.com/blockgpt-labs/blockgpt/server/internal/llm"
	"github.com/blockgpt-labs/blockgpt/server/internal/realtime"
	chatservice "github.com/blockgpt-labs/blockgpt/server/internal/service/chat"
	"github.com/blockgpt-labs/blockgpt/server/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	pool, err := pgxpool.New(ctx, cfg.Store.PostgresDSN)
	if err != nil {
		log.Fatalf("failed to create postgres pool: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("failed to reach postgres: %v", err)
	}

	client := llm.NewOpenAIClient(cfg.OpenAI)
	embedder := llm.NewOpenAIEmbedder(client, cfg.OpenAI)
	pipeline := llm.NewPipeline(
		llm.NewOpenAIGenerator(client, cfg.OpenAI),
		llm.NewOpenAIModerator(client),
	)

	passages, err := corpus.LoadPassages(cfg.Corpus.Path)
	if err != nil {
		log.Fatalf("failed to load corpus: %v", err)
	}

	index := corpus.NewIndex(pool, embedder, cfg.OpenAI.EmbeddingDimension)
	if err := index.EnsureSchema(ctx); err != nil {
		log.Fatalf("failed to prepare corpus schema: %v", err)
	}
	if err := index.Reindex(ctx, passages); err != nil {
		log.Fatalf("failed to index corpus: %v", err)
	}
	log.Printf("indexed %d corpus passages from %s", len(passages), cfg.Corpus.Path)

	hub := realtime.NewHub()
	chatSvc := chatservice.NewService(
		store.NewPostgresStore(pool),
		index,
		pipeline,
		hub,
		cfg.Corpus.SearchLimit,
		log.Default(),
	)

	router := handler.NewRouter(chatSvc, hub)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("BlockGPT server listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
