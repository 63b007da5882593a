package models

import "time"

// Site origin types. A site's type is fixed at creation.
const (
	SiteTypeUpload = "upload"
	SiteTypeURL    = "url"
	SiteTypeCode   = "code"
)

// Site is one row of hosted_sites. FileCount and SizeBytes describe the
// initial write only and are never recomputed.
type Site struct {
	ID           int64     `db:"id" json:"id"`
	SiteID       string    `db:"site_id" json:"site_id"`
	Name         string    `db:"name" json:"name"`
	Type         string    `db:"type" json:"type"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	LastAccessed time.Time `db:"last_accessed" json:"last_accessed"`
	FileCount    int       `db:"file_count" json:"file_count"`
	SizeBytes    int64     `db:"size_bytes" json:"size_bytes"`
}

type SiteStats struct {
	TotalSites int `db:"total_sites" json:"totalSites"`
	Uploads    int `db:"uploads" json:"uploads"`
	Codes      int `db:"codes" json:"codes"`
	URLs       int `db:"urls" json:"urls"`
}

type MetricSample struct {
	ID                string    `db:"id" json:"-"`
	CapturedAt        time.Time `db:"captured_at" json:"capturedAt"`
	ProcessRSSBytes   int64     `db:"process_rss_bytes" json:"processRssBytes"`
	SystemMemoryTotal int64     `db:"system_memory_total_bytes" json:"systemMemoryTotalBytes"`
	SystemMemoryUsed  int64     `db:"system_memory_used_bytes" json:"systemMemoryUsedBytes"`
	DiskTotalBytes    int64     `db:"disk_total_bytes" json:"diskTotalBytes"`
	DiskUsedBytes     int64     `db:"disk_used_bytes" json:"diskUsedBytes"`
	ProcessCpuLoad    float64   `db:"process_cpu_load" json:"processCpuLoad"`
	SystemCpuLoad     float64   `db:"system_cpu_load" json:"systemCpuLoad"`
}
