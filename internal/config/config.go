package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config aggregates every setting the service reads at startup.
type Config struct {
	Server ServerConfig
	OpenAI OpenAIConfig
	Store  StoreConfig
	Corpus CorpusConfig
}

// Load reads configuration from environment variables. Missing remote-service
// credentials or the database DSN abort startup at the caller.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	openAI, err := loadOpenAIConfig()
	if err != nil {
		return nil, err
	}

	store, err := loadStoreConfig()
	if err != nil {
		return nil, err
	}

	corpus, err := loadCorpusConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, OpenAI: openAI, Store: store, Corpus: corpus}, nil
}

// ServerConfig describes the HTTP listen address.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "9000"
	}

	if strings.Contains(port, ":") {
		// Allow ":9000" or "127.0.0.1:9000" verbatim.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// OpenAIConfig holds credentials and model identifiers for the remote
// generation, embedding, and moderation endpoints.
type OpenAIConfig struct {
	APIKey             string
	BaseURL            string
	ChatModel          string
	EmbeddingModel     string
	EmbeddingDimension int
	Temperature        float32
}

func loadOpenAIConfig() (OpenAIConfig, error) {
	apiKey := strings.TrimSpace(os.Getenv("OPEN_AI"))
	if apiKey == "" {
		return OpenAIConfig{}, fmt.Errorf("OPEN_AI API key is not set")
	}

	dimension, err := parseOptionalIntEnv("OPENAI_EMBEDDING_DIMENSION")
	if err != nil {
		return OpenAIConfig{}, err
	}
	embeddingDimension := 1536
	if dimension != nil {
		if *dimension <= 0 {
			return OpenAIConfig{}, fmt.Errorf("OPENAI_EMBEDDING_DIMENSION must be positive")
		}
		embeddingDimension = *dimension
	}

	temperature, err := parseOptionalFloat32Env("OPENAI_TEMPERATURE")
	if err != nil {
		return OpenAIConfig{}, err
	}
	// Deterministic sampling unless explicitly overridden.
	temp := float32(0)
	if temperature != nil {
		temp = *temperature
	}

	return OpenAIConfig{
		APIKey:             apiKey,
		BaseURL:            strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		ChatModel:          getEnvOrDefault("OPENAI_CHAT_MODEL", "gpt-3.5-turbo-16k"),
		EmbeddingModel:     getEnvOrDefault("OPENAI_EMBEDDING_MODEL", "text-embedding-ada-002"),
		EmbeddingDimension: embeddingDimension,
		Temperature:        temp,
	}, nil
}

// StoreConfig describes the conversation database connection.
type StoreConfig struct {
	PostgresDSN string
}

func loadStoreConfig() (StoreConfig, error) {
	dsn := strings.TrimSpace(os.Getenv("POSTGRES_DSN"))
	if dsn == "" {
		return StoreConfig{}, fmt.Errorf("POSTGRES_DSN is not set")
	}
	return StoreConfig{PostgresDSN: dsn}, nil
}

// CorpusConfig describes the retrieval corpus source and search depth.
type CorpusConfig struct {
	Path        string
	SearchLimit int
}

func loadCorpusConfig() (CorpusConfig, error) {
	limit, err := parseOptionalIntEnv("CORPUS_SEARCH_LIMIT")
	if err != nil {
		return CorpusConfig{}, err
	}
	searchLimit := 4
	if limit != nil {
		if *limit < 1 {
			return CorpusConfig{}, fmt.Errorf("CORPUS_SEARCH_LIMIT must be at least 1")
		}
		searchLimit = *limit
	}

	return CorpusConfig{
		Path:        getEnvOrDefault("CORPUS_PATH", "./items.txt"),
		SearchLimit: searchLimit,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalFloat32Env(key string) (*float32, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	result := float32(val)
	return &result, nil
}
