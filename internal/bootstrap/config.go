package bootstrap

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServerAddr     string
	LogLevel       string
	APIKey         string
	AllowedOrigins []string

	VLMEnabled   bool
	VLMModel     string
	VLMDevice    string
	VLMMaxTokens int
	OllamaURL    string

	OCRLanguage string

	MemoryServiceURL string
	MemoryAPIKey     string

	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration

	WatchIntervalMS      int
	WatchChangeThreshold float64
	CaptureTimeout       time.Duration
}

func LoadConfig() *Config {
	return &Config{
		ServerAddr:     getEnv("SERVER_ADDR", ":3006"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		APIKey:         getEnv("API_KEY", ""),
		AllowedOrigins: splitAndTrim(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		VLMEnabled:   getEnvBool("VLM_ENABLED", true),
		VLMModel:     getEnv("VLM_MODEL", "minicpm-v"),
		VLMDevice:    getEnv("VLM_DEVICE", "auto"),
		VLMMaxTokens: getEnvInt("VLM_MAX_TOKENS", 256),
		OllamaURL:    getEnv("OLLAMA_URL", "http://localhost:11434"),

		OCRLanguage: getEnv("OCR_LANGUAGE", "eng"),

		MemoryServiceURL: getEnv("USER_MEMORY_SERVICE_URL", "http://localhost:3003"),
		MemoryAPIKey:     getEnv("USER_MEMORY_API_KEY", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		CacheTTL:      time.Duration(getEnvInt("CACHE_TTL_SECONDS", 300)) * time.Second,

		WatchIntervalMS:      getEnvInt("WATCH_INTERVAL_MS", 2000),
		WatchChangeThreshold: getEnvFloat("WATCH_CHANGE_THRESHOLD", 0.08),
		CaptureTimeout:       time.Duration(getEnvInt("CAPTURE_TIMEOUT_MS", 2000)) * time.Millisecond,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.EqualFold(value, "true")
	}
	return defaultValue
}

func splitAndTrim(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
