package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	LLMProvider  string // "gemini" or "openai"
	GeminiAPIKey string
	OpenAIAPIKey string

	EmbeddingModel string
	ChatModel      string

	DatabaseURL string
	StorageDir  string
	HTTPPort    string
	LogLevel    string
	JWTSecret   string

	ChunkSize        int
	MatchCount       int
	DefaultChatTitle string
}

var AppConfig Config

func LoadConfig() {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = Config{
		LLMProvider:      getEnv("LLM_PROVIDER", "gemini"),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		EmbeddingModel:   getEnv("EMBEDDING_MODEL", ""),
		ChatModel:        getEnv("CHAT_MODEL", ""),
		DatabaseURL:      getEnv("DATABASE_URL", "resume_chat.db"),
		StorageDir:       getEnv("STORAGE_DIR", "user_files"),
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		ChunkSize:        getEnvAsInt("CHUNK_SIZE", 800),
		MatchCount:       getEnvAsInt("MATCH_COUNT", 5),
		DefaultChatTitle: getEnv("DEFAULT_CHAT_TITLE", "New Chat"),
	}

	switch AppConfig.LLMProvider {
	case "gemini":
		if AppConfig.GeminiAPIKey == "" {
			log.Fatal("GEMINI_API_KEY environment variable is required")
		}
	case "openai":
		if AppConfig.OpenAIAPIKey == "" {
			log.Fatal("OPENAI_API_KEY environment variable is required")
		}
	default:
		log.Fatalf("Unknown LLM_PROVIDER %q (expected \"gemini\" or \"openai\")", AppConfig.LLMProvider)
	}

	if AppConfig.JWTSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}

	if AppConfig.ChunkSize <= 0 {
		log.Fatalf("CHUNK_SIZE must be positive, got %d", AppConfig.ChunkSize)
	}
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
