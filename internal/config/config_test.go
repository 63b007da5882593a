package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/sites")
	t.Setenv("PORT", "")
	t.Setenv("STORAGE_ROOT", "")
	t.Setenv("CORS_ORIGINS", "")
	t.Setenv("MAX_UPLOAD_FILES", "")
	t.Setenv("UPLOAD_MEMORY_BYTES", "")
	t.Setenv("FETCH_TIMEOUT_SECONDS", "")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "hosted-sites", cfg.StorageRoot)
	assert.Equal(t, int64(50<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 50, cfg.MaxUploadFiles)
	assert.Equal(t, int64(32<<20), cfg.UploadMemoryBytes)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, []string{"*"}, cfg.CorsOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/sites")
	t.Setenv("PUBLIC_BASE_URL", "https://pages.example.com/")
	t.Setenv("ORPHAN_SWEEP_ON_START", "true")
	t.Setenv("INGEST_RATE_PER_SECOND", "0.5")
	t.Setenv("LOG_RETENTION_DAYS", "30")
	t.Setenv("CORS_ORIGINS", "https://a.test, https://b.test,")

	cfg := Load()
	assert.Equal(t, "https://pages.example.com", cfg.PublicBaseURL)
	assert.True(t, cfg.OrphanSweepOnStart)
	assert.Equal(t, 0.5, cfg.IngestRatePerSecond)
	assert.Equal(t, 7, cfg.LogRetentionDays)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CorsOrigins)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	require.Panics(t, func() { Load() })
}

func TestEnvOrIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("MAX_UPLOAD_FILES", "lots")
	assert.Equal(t, 50, envOrInt("MAX_UPLOAD_FILES", 50))
}
