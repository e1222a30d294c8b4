package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	JWTSecret   string
	MongoURI    string
	DBName      string
	PostgresURI string // Optional audit sink; empty disables archiving
	SkipAuth    bool
	Environment string
	AppId       string

	DefaultBatchSize     int
	RecordWriteTimeoutMs int
	RetentionDays        int // Terminal operations older than this are swept; 0 disables
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file successfully")
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		JWTSecret:   getEnv("JWT_SECRET", "secret"),
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:      getEnv("DB_NAME", "go-inspect"),
		PostgresURI: getEnv("POSTGRES_URI", ""),
		SkipAuth:    getEnv("SKIP_AUTH", "false") == "true",
		Environment: getEnv("ENVIRONMENT", "development"),
		AppId:       getEnv("APP_ID", "go-inspect"),

		DefaultBatchSize:     getEnvInt("DEFAULT_BATCH_SIZE", 100),
		RecordWriteTimeoutMs: getEnvInt("RECORD_WRITE_TIMEOUT_MS", 5000),
		RetentionDays:        getEnvInt("OPERATION_RETENTION_DAYS", 30),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
