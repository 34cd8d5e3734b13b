// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Storage backends for uploaded files.
const (
	StorageFS = "fs"
	StorageS3 = "s3"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// DefaultLocale is the language of change comments when the request's
	// Accept-Language matches no catalog. Defaults to "en".
	DefaultLocale string

	// MaxUploadBytes caps request bodies, cover photos included. Defaults to 5 MiB.
	MaxUploadBytes int64

	// StorageBackend selects where cover photos are stored: "fs" (default) or "s3".
	StorageBackend string

	// MediaRoot is the directory used by the fs backend. Defaults to "./media".
	MediaRoot string

	// S3Bucket is required when StorageBackend is "s3".
	S3Bucket string
	// S3Prefix is prepended to every object key.
	S3Prefix string
	// S3Endpoint overrides the S3 endpoint, e.g. for MinIO. Optional.
	S3Endpoint string
	// AWSRegion is passed to the AWS SDK; empty uses the SDK's own resolution.
	AWSRegion string

	// AutoMigrate applies pending migrations on startup. Defaults to false.
	AutoMigrate bool
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set and any
// values that cannot be parsed.
func Load() (Config, error) {
	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		CORSOrigins:    splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		DefaultLocale:  getEnv("DEFAULT_LOCALE", "en"),
		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", StorageFS)),
		MediaRoot:      getEnv("MEDIA_ROOT", "./media"),
		S3Bucket:       os.Getenv("S3_BUCKET"),
		S3Prefix:       os.Getenv("S3_PREFIX"),
		S3Endpoint:     os.Getenv("S3_ENDPOINT"),
		AWSRegion:      os.Getenv("AWS_REGION"),
	}

	var missing, invalid []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	maxUpload, err := strconv.ParseInt(getEnv("MAX_UPLOAD_BYTES", "5242880"), 10, 64)
	if err != nil || maxUpload <= 0 {
		invalid = append(invalid, "MAX_UPLOAD_BYTES must be a positive integer")
	}
	cfg.MaxUploadBytes = maxUpload

	cfg.AutoMigrate, err = strconv.ParseBool(getEnv("AUTO_MIGRATE", "false"))
	if err != nil {
		invalid = append(invalid, "AUTO_MIGRATE must be a boolean")
	}

	switch cfg.StorageBackend {
	case StorageFS:
	case StorageS3:
		if cfg.S3Bucket == "" {
			missing = append(missing, "S3_BUCKET")
		}
	default:
		invalid = append(invalid, fmt.Sprintf("STORAGE_BACKEND must be %q or %q", StorageFS, StorageS3))
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(invalid, "; "))
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
