package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration loaded from environment variables.
type Config struct {
	DatabaseURL          string
	Port                 string
	StorageRoot          string
	PublicDir            string
	MigrationsDir        string
	PublicBaseURL        string
	MaxUploadBytes       int64
	MaxUploadFiles       int
	UploadMemoryBytes    int64
	FetchTimeout         time.Duration
	FetchMaxBytes        int64
	IngestRatePerSecond  float64
	IngestBurst          int
	OrphanSweepOnStart   bool
	OrphanGrace          time.Duration
	MetricsSampleSeconds int
	CorsOrigins          []string
	LogDir               string
	LogRetentionDays     int
}

func Load() Config {
	return Config{
		DatabaseURL:          mustEnv("DATABASE_URL"),
		Port:                 envOr("PORT", "8080"),
		StorageRoot:          envOr("STORAGE_ROOT", "hosted-sites"),
		PublicDir:            envOr("PUBLIC_DIR", "public"),
		MigrationsDir:        envOr("MIGRATIONS_DIR", "migrations"),
		PublicBaseURL:        strings.TrimRight(envOr("PUBLIC_BASE_URL", ""), "/"),
		MaxUploadBytes:       int64(envOrInt("MAX_UPLOAD_BYTES", 50<<20)),
		MaxUploadFiles:       envOrInt("MAX_UPLOAD_FILES", 50),
		UploadMemoryBytes:    int64(envOrInt("UPLOAD_MEMORY_BYTES", 32<<20)),
		FetchTimeout:         time.Duration(envOrInt("FETCH_TIMEOUT_SECONDS", 30)) * time.Second,
		FetchMaxBytes:        int64(envOrInt("FETCH_MAX_BYTES", 50<<20)),
		IngestRatePerSecond:  envOrFloat("INGEST_RATE_PER_SECOND", 5),
		IngestBurst:          envOrInt("INGEST_BURST", 10),
		OrphanSweepOnStart:   envOrBool("ORPHAN_SWEEP_ON_START", false),
		OrphanGrace:          time.Duration(envOrInt("ORPHAN_GRACE_SECONDS", 300)) * time.Second,
		MetricsSampleSeconds: envOrInt("METRICS_SAMPLE_INTERVAL", 5),
		CorsOrigins:          parseCSV(envOr("CORS_ORIGINS", "*")),
		LogDir:               envOr("LOG_DIR", "storage/logs"),
		LogRetentionDays:     clampRetention(envOrInt("LOG_RETENTION_DAYS", 7)),
	}
}

func mustEnv(key string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		panic("missing env var: " + key)
	}
	return value
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// clampRetention keeps log retention between one and seven days.
func clampRetention(days int) int {
	if days <= 0 {
		return 7
	}
	if days > 7 {
		return 7
	}
	return days
}

func parseCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value != "" {
			items = append(items, value)
		}
	}
	return items
}
