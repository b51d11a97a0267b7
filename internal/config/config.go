package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	LogLevel    string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	// Booking holds.
	HoldMinutes      int64
	SweepIntervalSec int64

	// Settlement economics.
	Currency          string
	CommissionPercent int64
	GatewayFeeFlat    int64

	// Payment provider (Cashfree-compatible).
	CashfreeEnv           string
	CashfreeAppID         string
	CashfreeSecretKey     string
	CashfreeWebhookSecret string
	PublicBaseURL         string

	// Live seat updates. Empty addr disables the publisher.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Ticket artifact storage.
	ArtifactDir     string
	ArtifactBaseURL string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "clubhive"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		LogLevel:    getenv("LOG_LEVEL", "info"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "clubhive"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     int(getenvInt64("DATABASE_MAX_IDLE_CONN", 5)),
		DBMaxOpenConn:     int(getenvInt64("DATABASE_MAX_OPEN_CONN", 25)),
		DBConnMaxLifetime: int(getenvInt64("DATABASE_CONN_MAX_LIFETIME", 3600)),
		DBConnMaxIdleTime: int(getenvInt64("DATABASE_CONN_MAX_IDLE_TIME", 600)),

		HoldMinutes:      getenvInt64("HOLD_MINUTES", 15),
		SweepIntervalSec: getenvInt64("HOLD_SWEEP_INTERVAL_SEC", 60),

		Currency:          strings.ToUpper(getenv("CURRENCY", "INR")),
		CommissionPercent: getenvInt64("COMMISSION_PERCENT", 10),
		GatewayFeeFlat:    getenvInt64("GATEWAY_FEE_FLAT", 0),

		CashfreeEnv:           strings.ToUpper(getenv("CASHFREE_ENV", "SANDBOX")),
		CashfreeAppID:         strings.TrimSpace(getenv("CASHFREE_APP_ID", "")),
		CashfreeSecretKey:     strings.TrimSpace(getenv("CASHFREE_SECRET_KEY", "")),
		CashfreeWebhookSecret: strings.TrimSpace(getenv("CASHFREE_WEBHOOK_SECRET", "")),
		PublicBaseURL:         getenv("PUBLIC_BASE_URL", "http://localhost:8080"),

		RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword: strings.TrimSpace(getenv("REDIS_PASSWORD", "")),
		RedisDB:       int(getenvInt64("REDIS_DB", 0)),

		ArtifactDir:     getenv("ARTIFACT_DIR", "./public/tickets"),
		ArtifactBaseURL: getenv("ARTIFACT_BASE_URL", "http://localhost:8080/tickets"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}
