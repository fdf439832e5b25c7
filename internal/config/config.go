package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	// AppEnv is the running environment (development/production).
	AppEnv string
	// LogLevel is one of debug, info, warn, error.
	LogLevel string
	// SourceKind is the default driver kind for jobs that do not name one.
	SourceKind string
	// SourceDSN is the default connection string for jobs that do not name one.
	SourceDSN string
	// AWSRegion is the AWS region for s3:// destinations.
	AWSRegion string
	// S3Bucket is the bucket used for keys without an s3:// prefix when StorageType is "s3".
	S3Bucket string
	// S3Endpoint is an optional custom endpoint (MinIO and other S3-compatible stores).
	S3Endpoint string
	// S3PathStyle enables path-style addressing (required for some S3 providers).
	S3PathStyle bool
	// S3AccessKey and S3SecretKey are the static credentials used for S3.
	S3AccessKey string
	S3SecretKey string
	// StorageType selects where plain paths go: "local" or "s3".
	StorageType string
	// LocalStoragePath is the directory relative paths are written under.
	LocalStoragePath string
	// WebSocketHeaders are sent when dialing ws:// and wss:// destinations, as "Key=Value" pairs.
	WebSocketHeaders []string
	// WorkerCount is the number of concurrent export jobs allowed.
	WorkerCount int
	// MaxDBConcurrency restricts the global number of concurrent source queries.
	MaxDBConcurrency int64
	// DefaultTimeout is the maximum duration for an export job.
	DefaultTimeout time.Duration
	// MetricsAddr is the listen address of the Prometheus endpoint; empty disables it.
	MetricsAddr string

	// Writer defaults.
	Delimiter    string
	Enclosure    string
	BOM          bool
	UseCRLF      bool
	FormulaGuard bool
	SheetName    string
}

func Load() *Config {
	return &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		SourceKind:       getEnv("SOURCE_KIND", "mysql"),
		SourceDSN:        getEnv("SOURCE_DSN", ""),
		AWSRegion:        getEnv("AWS_REGION", "us-east-1"),
		S3Bucket:         getEnv("S3_BUCKET", ""),
		S3Endpoint:       getEnv("S3_ENDPOINT", ""),
		S3PathStyle:      getEnvBool("S3_PATH_STYLE", false),
		S3AccessKey:      getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:      getEnv("S3_SECRET_KEY", ""),
		StorageType:      getEnv("STORAGE_TYPE", "local"),
		LocalStoragePath: getEnv("LOCAL_STORAGE_PATH", ""),
		WebSocketHeaders: getEnvSlice("WEBSOCKET_HEADERS", nil),
		WorkerCount:      getEnvInt("WORKER_COUNT", 4),
		MaxDBConcurrency: int64(getEnvInt("MAX_DB_CONCURRENCY", 2)),
		DefaultTimeout:   getEnvDuration("DEFAULT_TIMEOUT", 15*time.Minute),
		MetricsAddr:      getEnv("METRICS_ADDR", ""),
		Delimiter:        getEnv("CSV_DELIMITER", ","),
		Enclosure:        getEnv("CSV_ENCLOSURE", `"`),
		BOM:              getEnvBool("CSV_BOM", true),
		UseCRLF:          getEnvBool("CSV_CRLF", false),
		FormulaGuard:     getEnvBool("FORMULA_GUARD", false),
		SheetName:        getEnv("SHEET_NAME", "Sheet1"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// getEnvSlice splits a comma separated value, dropping empty items.
func getEnvSlice(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var result []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	return result
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
