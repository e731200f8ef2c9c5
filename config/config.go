package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	OpenAIKey   string
	TextModel   string
	VisionModel string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3PublicURL string

	MaxRetries     int
	MaxPages       int
	MaxScrolls     int
	RateLimitMs    int
	NavTimeoutSec  int
	MaxSiteWorkers int

	CSVOutputPath string
	ChromeBin     string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresDB:       getEnv("POSTGRES_DB", "projectdb"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		OpenAIKey:   getEnv("OPENAI_API_KEY", ""),
		TextModel:   getEnv("OPENAI_TEXT_MODEL", "gpt-4"),
		VisionModel: getEnv("OPENAI_VISION_MODEL", "gpt-4o"),

		S3Bucket:    getEnv("S3_BUCKET", ""),
		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:  getEnv("S3_ENDPOINT", ""),
		S3PublicURL: getEnv("S3_PUBLIC_URL", ""),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		MaxPages:       getEnvInt("MAX_PAGES", 250),
		MaxScrolls:     getEnvInt("MAX_SCROLLS", 40),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 2000),
		NavTimeoutSec:  getEnvInt("NAV_TIMEOUT_SEC", 60),
		MaxSiteWorkers: getEnvInt("MAX_SITE_WORKERS", 3),

		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", ""),
		ChromeBin:     getEnv("CHROME_BIN", ""),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// RelocationEnabled reports whether scraped images should be mirrored to S3.
func (c *Config) RelocationEnabled() bool {
	return c.S3Bucket != ""
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}
