package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// DefaultClaimNumberPrefix is used when CLAIM_NUMBER_PREFIX is not set
	DefaultClaimNumberPrefix = "CLM"
)

type Config struct {
	ServerPort  string
	DBPath      string
	Environment string
	UploadDir   string
	// Remote database (libSQL / Turso)
	TursoDatabaseURL string
	TursoAuthToken   string
	// Cloudflare R2 Storage
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	// Email (Resend)
	ResendAPIKey  string
	EmailFrom     string
	EmailFromName string
	EmailTestMode bool // When true, emails are logged to console instead of sent
	// Other
	AllowedOrigins        []string
	AppURL                string
	MaxUploadMB           int
	UploadRatePerMinute   int
	TransferRatePerMinute int
	ClaimNumberPrefix     string
	ChromePath            string
}

func Load() *Config {
	// Load .env file (ignore error if not present - use system env vars)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return &Config{
		ServerPort:            getEnv("SERVER_PORT", "8080"),
		DBPath:                getEnv("DB_PATH", "db/claims.db"),
		Environment:           getEnv("ENVIRONMENT", "development"),
		UploadDir:             getEnv("UPLOAD_DIR", "static/uploads"),
		TursoDatabaseURL:      getEnv("TURSO_DATABASE_URL", ""),
		TursoAuthToken:        getEnv("TURSO_AUTH_TOKEN", ""),
		R2AccountID:           getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:         getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey:     getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:          getEnv("R2_BUCKET_NAME", ""),
		ResendAPIKey:          getEnv("RESEND_API_KEY", ""),
		EmailFrom:             getEnv("EMAIL_FROM", "claims@example.org"),
		EmailFromName:         getEnv("EMAIL_FROM_NAME", "Claims Desk"),
		EmailTestMode:         getEnvBool("EMAIL_TEST_MODE", true), // Default true for safety
		AllowedOrigins:        strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		AppURL:                getEnv("APP_URL", "http://localhost:8080"),
		MaxUploadMB:           getEnvInt("MAX_UPLOAD_MB", 25),
		UploadRatePerMinute:   getEnvInt("UPLOAD_RATE_PER_MINUTE", 30),
		TransferRatePerMinute: getEnvInt("TRANSFER_RATE_PER_MINUTE", 60),
		ClaimNumberPrefix:     getEnv("CLAIM_NUMBER_PREFIX", DefaultClaimNumberPrefix),
		ChromePath:            getEnv("CHROME_PATH", ""),
	}
}

// R2Configured reports whether every R2 credential is present
func (c *Config) R2Configured() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" && c.R2BucketName != ""
}

// Validate checks combinations that getEnv defaults cannot catch.
// A partially configured R2 block is only an error in production.
func (c *Config) Validate() error {
	partialR2 := !c.R2Configured() &&
		(c.R2AccountID != "" || c.R2AccessKeyID != "" || c.R2SecretAccessKey != "" || c.R2BucketName != "")
	if partialR2 && c.Environment == "production" {
		return fmt.Errorf("R2 storage is partially configured: set R2_ACCOUNT_ID, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY and R2_BUCKET_NAME")
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive (got %d)", c.MaxUploadMB)
	}
	if c.UploadRatePerMinute <= 0 || c.TransferRatePerMinute <= 0 {
		return fmt.Errorf("UPLOAD_RATE_PER_MINUTE and TRANSFER_RATE_PER_MINUTE must be positive")
	}
	if c.ClaimNumberPrefix == "" {
		return fmt.Errorf("CLAIM_NUMBER_PREFIX must not be empty")
	}
	return nil
}

// MaxUploadBytes returns the upload limit in bytes
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) * 1024 * 1024
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Printf("Using default value for %s: %s", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	// Accept common boolean representations
	switch strings.ToLower(value) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("[WARNING] Invalid integer for %s (%q), using default %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}
