package config

import (
	"examforge/internal/logger"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends
const (
	StorageMongo  = "mongo"
	StorageMemory = "memory"
)

// Config holds everything the server reads from the environment
type Config struct {
	Port           string
	MongoURI       string
	MongoDB        string
	RedisAddr      string
	StorageBackend string

	JWTSecret      string
	AuthorUsername string
	AuthorPassword string

	LogLevel string
	LogFile  string

	SchedulerPoll  time.Duration
	SchedulerBatch int
	GenerationSalt string

	AnswerRatePerSec float64
	AnswerBurst      int

	CORSAllowedOrigins []string
}

// Load reads a .env file when present, then the process environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:           getEnv("PORT", "8080"),
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:        getEnv("MONGO_DB", "examforge"),
		RedisAddr:      strings.TrimPrefix(getEnv("REDIS_URI", "localhost:6379"), "redis://"),
		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", StorageMongo)),

		JWTSecret:      getEnv("JWT_SECRET", "dev-secret-change-me"),
		AuthorUsername: getEnv("AUTHOR_USERNAME", "author"),
		AuthorPassword: getEnv("AUTHOR_PASSWORD", "author"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),

		SchedulerPoll:  time.Duration(getInt("SCHEDULER_POLL_MS", 1000)) * time.Millisecond,
		SchedulerBatch: getInt("SCHEDULER_BATCH", 50),
		GenerationSalt: getEnv("GENERATION_SALT", "examforge"),

		AnswerRatePerSec: getFloat("ANSWER_RATE_PER_SEC", 5),
		AnswerBurst:      getInt("ANSWER_BURST", 10),

		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		logger.Warn("config: invalid %s=%q, using %d", key, raw, defaultVal)
		return defaultVal
	}
	return v
}

func getFloat(key string, defaultVal float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultVal
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		logger.Warn("config: invalid %s=%q, using %g", key, raw, defaultVal)
		return defaultVal
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
