package services

import (
	"context"
	"testing"
	"time"

	"sitehost/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestMetricsOldestFirst(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	now := time.Now().UTC()
	columns := []string{"id", "captured_at", "process_rss_bytes", "system_memory_total_bytes", "system_memory_used_bytes",
		"disk_total_bytes", "disk_used_bytes", "process_cpu_load", "system_cpu_load"}
	mock.ExpectQuery(`FROM server_metric_samples`).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("b", now, 2, 10, 5, 100, 50, 0.2, 0.3).
			AddRow("a", now.Add(-5*time.Second), 1, 10, 4, 100, 49, 0.1, 0.2))

	samples, err := LatestMetrics(context.Background(), sqlx.NewDb(conn, "pgx"), 2)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, "a", samples[0].ID)
	assert.Equal(t, int64(50), samples[1].DiskUsedBytes)
}

func TestCaptureMetricsStoresSample(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectExec(`INSERT INTO server_metric_samples`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	sample, err := CaptureMetrics(context.Background(), sqlx.NewDb(conn, "pgx"), t.TempDir())
	require.NoError(t, err)
	assert.NotEmpty(t, sample.ID)
	assert.False(t, sample.CapturedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMetricsHubBroadcastDropsWhenFull(t *testing.T) {
	hub := NewMetricsHub()
	for i := 0; i < 32; i++ {
		hub.Broadcast(models.MetricSample{ID: "x"})
	}
	assert.Len(t, hub.ch, cap(hub.ch))
	assert.Equal(t, 0, hub.Clients())
}
