package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	DBUrl         string
	DBAutoMigrate bool
	// Logging
	LogLevel string
	LogJSON  bool
	// LLM provider
	LLMProvider       string // "openai" or "gemini"
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIBaseURL     string // empty = provider default
	OpenAITemperature float64
	OpenAIMaxTokens   int
	GeminiAPIKey      string
	GeminiModel       string
	GeminiBaseURL     string // empty = provider default
	LogLLMUsage       bool
	LLMTimeout        time.Duration // 0 = transport default
	LLMMaxRetries     int
	// Matching prompt parameters
	MatchLanguage       string
	MatchOnlineRadiusKm int
	// CORS
	CORSAllowedOrigins []string // appended to the built-in development origins
	CORSPreviewPrefix  string   // allows https://<prefix>*.vercel.app preview deployments
	// Redis (optional, backs the /ai/match rate limiter)
	RedisURL      string
	RedisPassword string
	// Rate limiting for the matching endpoint; 0 leaves it unthrottled
	MatchRateLimit         int
	MatchRateWindowSeconds int
}

func LoadConfig() (*Config, error) {
	// .env is optional; real deployments inject the environment directly
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		DBUrl:         getEnv("DATABASE_URL", "postgresql://localhost/inclusive_matching"),
		DBAutoMigrate: getEnvBool("DB_AUTO_MIGRATE", true),
		LogLevel:      strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogJSON:       getEnvBool("LOG_JSON", true),
		// LLM
		LLMProvider:       strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
		OpenAIAPIKey:      strings.TrimSpace(getEnv("OPENAI_API_KEY", "")),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:     strings.TrimSpace(getEnv("OPENAI_BASE_URL", "")),
		OpenAITemperature: getEnvFloat("OPENAI_TEMPERATURE", 0.1),
		OpenAIMaxTokens:   getEnvInt("OPENAI_MAX_TOKENS", 1200),
		GeminiAPIKey:      strings.TrimSpace(getEnv("GEMINI_API_KEY", "")),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiBaseURL:     strings.TrimSpace(getEnv("GEMINI_BASE_URL", "")),
		LogLLMUsage:       getEnv("LOG_LLM_USAGE", "0") == "1",
		LLMTimeout:        getEnvDuration("LLM_TIMEOUT", 0),
		LLMMaxRetries:     getEnvInt("LLM_MAX_RETRIES", 0),
		// Prompt
		MatchLanguage:       getEnv("MATCH_LANGUAGE", "ru"),
		MatchOnlineRadiusKm: getEnvInt("MATCH_ONLINE_RADIUS_KM", 50),
		// CORS
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
		CORSPreviewPrefix:  strings.TrimSpace(getEnv("CORS_PREVIEW_PREFIX", "inclusive-matching")),
		// Redis
		RedisURL:      getEnv("REDIS_URL", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		// Rate limiting
		MatchRateLimit:         getEnvInt("MATCH_RATE_LIMIT", 0),
		MatchRateWindowSeconds: getEnvInt("MATCH_RATE_WINDOW_SECONDS", 60),
	}

	if os.Getenv("DATABASE_URL") == "" {
		log.Println("WARNING: DATABASE_URL is missing. Falling back to postgresql://localhost/inclusive_matching")
	}

	switch cfg.LLMProvider {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			log.Println("WARNING: GEMINI_API_KEY is not set. /ai/match will return 502 until it is configured.")
		}
	default:
		if cfg.OpenAIAPIKey == "" {
			log.Println("WARNING: OPENAI_API_KEY is not set. /ai/match will return 502 until it is configured.")
		}
	}

	if cfg.RedisURL == "" {
		log.Println("WARNING: REDIS_URL not configured. Rate limiting will use in-memory fallback.")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt returns an integer environment variable or fallback if not set/invalid
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool returns a boolean environment variable or fallback if not set/invalid
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return boolVal
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return fallback
}

// getEnvDuration accepts Go duration strings ("30s") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return fallback
}

// getEnvList splits a comma-separated variable, dropping blanks and trailing slashes.
func getEnvList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimRight(strings.TrimSpace(item), "/")
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
