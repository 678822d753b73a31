package config

import (
	"os"
	"strconv"
	"time"
)

// Config carries every tunable the pipeline and the server read. Values the
// original research flow hard-coded (question cap, source cap, truncation,
// chunking, retrieval depth) are named here with the same defaults so they
// are set once at construction instead of scattered through call sites.
type Config struct {
	GroqApiKey      string
	GoogleApiKey    string
	OpenAIApiKey    string
	AnthropicApiKey string
	SerperApiKey    string
	MistralApiKey   string

	DatabaseURL string
	Port        string

	LLMProvider    string
	GroqModel      string
	GoogleModel    string
	AnthropicModel string

	EmbeddingProvider string
	EmbeddingModel    string
	EmbeddingDim      int

	SearchProvider string
	SearchCountry  string
	SearchLanguage string

	MaxQuestions          int
	MaxSourcesPerQuestion int
	MaxContentChars       int
	FetchTimeout          time.Duration
	ChunkSize             int
	ChunkOverlap          int
	RetrievalK            int
	CollectionName        string
}

func Load() *Config {
	return &Config{
		GroqApiKey:      getEnv("GROQ_API_KEY", ""),
		GoogleApiKey:    getEnv("GOOGLE_API_KEY", ""),
		OpenAIApiKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicApiKey: getEnv("ANTHROPIC_API_KEY", ""),
		SerperApiKey:    getEnv("SERPER_API_KEY", ""),
		MistralApiKey:   getEnv("MISTRAL_API_KEY", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		Port:        getEnv("PORT", "3000"),

		LLMProvider:    getEnv("LLM_PROVIDER", "groq"),
		GroqModel:      getEnv("GROQ_MODEL", "llama-3.1-8b-instant"),
		GoogleModel:    getEnv("GOOGLE_MODEL", "gemini-3-flash-preview"),
		AnthropicModel: getEnv("ANTHROPIC_MODEL", "claude-3-5-haiku-20241022"),

		EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "openai"),
		EmbeddingModel:    getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingDim:      getEnvAsInt("EMBEDDING_DIM", 1536),

		SearchProvider: getEnv("SEARCH_PROVIDER", "serper"),
		SearchCountry:  getEnv("SEARCH_COUNTRY", "us"),
		SearchLanguage: getEnv("SEARCH_LANGUAGE", "en"),

		MaxQuestions:          getEnvAsInt("MAX_QUESTIONS", 5),
		MaxSourcesPerQuestion: getEnvAsInt("MAX_SOURCES_PER_QUESTION", 2),
		MaxContentChars:       getEnvAsInt("MAX_CONTENT_CHARS", 5000),
		FetchTimeout:          getEnvAsSeconds("FETCH_TIMEOUT_SECONDS", 10),
		ChunkSize:             getEnvAsInt("CHUNK_SIZE", 800),
		ChunkOverlap:          getEnvAsInt("CHUNK_OVERLAP", 100),
		RetrievalK:            getEnvAsInt("RETRIEVAL_K", 3),
		CollectionName:        getEnv("COLLECTION_NAME", "research_db"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSeconds(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultValue)) * time.Second
}
