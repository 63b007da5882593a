package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

const adminTimeLayout = "1/2/2006, 3:04:05 PM"

type AdminSiteResponse struct {
	SiteID       string `json:"site_id"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	CreatedAt    string `json:"created_at"`
	LastAccessed string `json:"last_accessed"`
	FileCount    int    `json:"file_count"`
	SizeBytes    int64  `json:"size_bytes"`
	URL          string `json:"url"`
	SizeMB       string `json:"size_mb"`
}

func (s *Server) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Registry.Stats(r.Context())
	if err != nil {
		s.Log.Errorw("admin stats failed", "err", err)
		WriteError(w, http.StatusInternalServerError, "Failed to get admin stats")
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

// AdminSites lists sites with display-ready timestamps and sizes.
func (s *Server) AdminSites(w http.ResponseWriter, r *http.Request) {
	sites, err := s.Registry.List(r.Context())
	if err != nil {
		s.Log.Errorw("admin sites failed", "err", err)
		WriteError(w, http.StatusInternalServerError, "Failed to get admin sites")
		return
	}
	items := make([]AdminSiteResponse, 0, len(sites))
	for _, site := range sites {
		items = append(items, AdminSiteResponse{
			SiteID:       site.SiteID,
			Name:         site.Name,
			Type:         site.Type,
			CreatedAt:    formatDisplayTime(site.CreatedAt),
			LastAccessed: formatDisplayTime(site.LastAccessed),
			FileCount:    site.FileCount,
			SizeBytes:    site.SizeBytes,
			URL:          s.siteURL(r, site.SiteID),
			SizeMB:       formatMebibytes(site.SizeBytes),
		})
	}
	WriteJSON(w, http.StatusOK, items)
}

// formatDisplayTime keeps the wall clock stored by the database; TIMESTAMP
// columns carry no zone.
func formatDisplayTime(t time.Time) string {
	return t.Format(adminTimeLayout)
}

func formatMebibytes(size int64) string {
	return fmt.Sprintf("%.2f", float64(size)/(1024*1024))
}

func (s *Server) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := s.Reconciler.Sweep(r.Context())
	if err != nil {
		s.Log.Errorw("orphan sweep failed", "err", err)
		WriteError(w, http.StatusInternalServerError, "Failed to reconcile sites")
		return
	}
	WriteJSON(w, http.StatusOK, report)
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.Registry.Ping(ctx); err != nil {
		s.Log.Warnw("health check failed", "err", err)
		WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func parseInt(raw string, fallback int) int {
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
