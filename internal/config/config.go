package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Gateway  GatewayConfig
	Ai       AIConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type GatewayConfig struct {
	RetrievalBaseURL   string
	RetrievalToken     string
	RetrievalTimeoutMs int
	ToolTimeoutMs      int
	LLMTimeoutMs       int
	ChannelDeadlineMs  int
	TaskRetentionSec   int
	CacheTTLSec        int
	DefaultTopK        int
	DefaultThreshold   float64
	RagConfThreshold   float64
	KBIngestTopic      string
	ExtraTriggers      string // "tool=phrase|phrase,tool2=phrase"
}

type AIConfig struct {
	EmbeddingProvider string // "ollama" or "stub"
	OllamaBaseURL     string
	OllamaEmbedModel  string
	LLMProvider       string // "ollama" or "stub"
	LLMModel          string // e.g. "qwen2.5", "llama3"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Gateway: GatewayConfig{
			RetrievalBaseURL:   getEnv("RETRIEVAL_BASE_URL", ""),
			RetrievalToken:     getEnv("RETRIEVAL_TOKEN", ""),
			RetrievalTimeoutMs: getEnvAsInt("RETRIEVAL_TIMEOUT_MS", 2000),
			ToolTimeoutMs:      getEnvAsInt("TOOL_TIMEOUT_MS", 500),
			LLMTimeoutMs:       getEnvAsInt("LLM_TIMEOUT_MS", 8000),
			ChannelDeadlineMs:  getEnvAsInt("CHANNEL_DEADLINE_MS", 4500),
			TaskRetentionSec:   getEnvAsInt("TASK_RETENTION_SEC", 600),
			CacheTTLSec:        getEnvAsInt("TOOL_CACHE_TTL_SEC", 300),
			DefaultTopK:        getEnvAsInt("RAG_DEFAULT_TOP_K", 3),
			DefaultThreshold:   getEnvAsFloat("RAG_DEFAULT_THRESHOLD", 0.3),
			RagConfThreshold:   getEnvAsFloat("RAG_CONF_THRESHOLD", 0.7),
			KBIngestTopic:      getEnv("INGEST_KB_DOCUMENT_TOPIC_NAME", "INGEST_KB_DOCUMENT"),
			ExtraTriggers:      getEnv("TOOL_EXTRA_TRIGGERS", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaEmbedModel:  getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "stub"),
			LLMModel:          getEnv("LLM_MODEL", "qwen2.5"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
