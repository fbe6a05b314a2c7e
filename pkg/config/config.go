package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	AppEnv      string
	Port        string
	FrontendURL string
	LogLevel    string

	JWTSecret    string
	JWTExpiresIn time.Duration

	DatabasePath string
	DatabaseURL  string

	TwelveDataAPIKey   string
	TwelveDataBaseURL  string
	CurrencyAPIBaseURL string
	TikaURL            string
	LLMProvider        string
	OllamaURL          string
	OllamaModel        string
	GeminiAPIKey       string
	GeminiModel        string
	MaxUploadBytes     int64

	CacheDriver        string
	CacheDir           string
	RedisURL           string
	CacheLocalSize     int
	CacheTTL           time.Duration
	CachePruneInterval time.Duration

	EnableScheduler bool
	SendGridAPIKey  string
	MailFrom        string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		JWTSecret:    getEnv("JWT_SECRET", "dev_secret_change_me"),
		JWTExpiresIn: getDuration("JWT_EXPIRES_IN", 7*24*time.Hour),

		DatabasePath: getEnv("DATABASE_PATH", "./data/wealthtrack.db"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),

		TwelveDataAPIKey:   os.Getenv("TWELVEDATA_API_KEY"),
		TwelveDataBaseURL:  getEnv("TWELVEDATA_BASE_URL", "https://api.twelvedata.com"),
		CurrencyAPIBaseURL: getEnv("CURRENCY_API_BASE_URL", "https://cdn.jsdelivr.net/npm"),
		TikaURL:            getEnv("TIKA_URL", "http://tika:9998"),
		LLMProvider:        getEnv("LLM_PROVIDER", "ollama"),
		OllamaURL:          getEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:        getEnv("OLLAMA_MODEL", "gemma3n:e2b"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		MaxUploadBytes:     int64(getInt("MAX_UPLOAD_BYTES", 10*1024*1024)),

		CacheDriver:        getEnv("CACHE_DRIVER", "leveldb"),
		CacheDir:           getEnv("CACHE_DIR", "./cache"),
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379/0"),
		CacheLocalSize:     getInt("CACHE_LOCAL_SIZE", 1024),
		CacheTTL:           getDuration("CACHE_TTL", 30*time.Minute),
		CachePruneInterval: getDuration("CACHE_PRUNE_INTERVAL", time.Hour),

		EnableScheduler: os.Getenv("ENABLE_SCHEDULER") == "true",
		SendGridAPIKey:  os.Getenv("SENDGRID_API_KEY"),
		MailFrom:        getEnv("MAIL_FROM", "no-reply@wealthtrack.local"),
	}
}

// IsProduction reports whether the app runs with APP_ENV=production
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// getDuration accepts Go durations ("90m") and a day suffix ("7d")
func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if n := len(value); n > 1 && value[n-1] == 'd' {
		days, err := strconv.Atoi(value[:n-1])
		if err == nil {
			return time.Duration(days) * 24 * time.Hour
		}
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
