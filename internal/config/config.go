package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Logging
	LogLevel  string
	LogFormat string

	// Database
	DatabaseURL   string
	MigrationsDir string

	// Redis
	RedisURL     string
	ChatCacheTTL time.Duration

	// JWT
	JWTSecret string

	// Inference
	InferenceProvider     string // "huggingface" | "gemini"
	InferenceTimeout      time.Duration
	InferenceFallbackText string
	AIRequestsPerMin      int // <= 0 disables the /ai rate limit

	// Hugging Face
	HFAPIURL string
	HFAPIKey string

	// Gemini
	GeminiAPIKey         string
	GeminiModel          string
	GeminiConcurrentReqs int

	// Frontend
	FrontendURL string
}

const (
	DefaultHFAPIURL     = "https://api-inference.huggingface.co/models/facebook/opt-125m"
	DefaultFallbackText = "⚠️ No response from Hugging Face model."
)

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                  getEnvOrDefault("PORT", "8080"),
		Env:                   getEnvOrDefault("ENV", "development"),
		LogLevel:              getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:             getEnvOrDefault("LOG_FORMAT", "json"),
		DatabaseURL:           mustGetEnv("DATABASE_URL"),
		MigrationsDir:         getEnvOrDefault("MIGRATIONS_DIR", "migrations"),
		RedisURL:              mustGetEnv("REDIS_URL"),
		ChatCacheTTL:          getEnvAsDurationOrDefault("CHAT_CACHE_TTL", 5*time.Minute),
		JWTSecret:             mustGetEnv("JWT_SECRET"),
		InferenceProvider:     getEnvOrDefault("INFERENCE_PROVIDER", "huggingface"),
		InferenceTimeout:      getEnvAsDurationOrDefault("INFERENCE_TIMEOUT", 60*time.Second),
		InferenceFallbackText: getEnvOrDefault("INFERENCE_FALLBACK_TEXT", DefaultFallbackText),
		AIRequestsPerMin:      getEnvAsIntOrDefault("AI_RATE_LIMIT_PER_MINUTE", 30),
		HFAPIURL:              getEnvOrDefault("HF_API_URL", DefaultHFAPIURL),
		HFAPIKey:              getEnvOrDefault("HF_API_KEY", ""),
		GeminiAPIKey:          getEnvOrDefault("GEMINI_API_KEY", ""),
		GeminiModel:           getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiConcurrentReqs:  getEnvAsIntOrDefault("GEMINI_CONCURRENT_REQUESTS", 5),
		FrontendURL:           getEnvOrDefault("FRONTEND_URL", "http://localhost:3000"),
	}

	return cfg
}

// IsDevelopment reports whether the server runs with ENV=development.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
