package httpapi

import (
	"errors"
	"net/http"
	"net/url"

	"sitehost/internal/metrics"
	"sitehost/internal/models"
	"sitehost/internal/services"

	"github.com/go-chi/chi/v5"
)

type FileEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

type SiteResponse struct {
	models.Site
	URL string `json:"url"`
}

type SiteInfoResponse struct {
	models.Site
	Files []FileEntry `json:"files"`
	URL   string      `json:"url"`
}

// SiteInfo returns the registry row with a live listing of the directory.
func (s *Server) SiteInfo(w http.ResponseWriter, r *http.Request) {
	siteID, valid := parseSiteID(chi.URLParam(r, "siteId"))
	if !valid {
		WriteError(w, http.StatusNotFound, "Site not found")
		return
	}
	site, err := s.Registry.Get(r.Context(), siteID)
	if errors.Is(err, services.ErrSiteNotFound) {
		WriteError(w, http.StatusNotFound, "Site not found")
		return
	}
	if err != nil {
		s.Log.Errorw("get site failed", "siteId", siteID, "err", err)
		WriteError(w, http.StatusInternalServerError, "Failed to get site info")
		return
	}
	names, err := s.Store.List(siteID)
	if err != nil && !errors.Is(err, services.ErrSiteNotFound) {
		s.Log.Errorw("list site files failed", "siteId", siteID, "err", err)
		WriteError(w, http.StatusInternalServerError, "Failed to get site info")
		return
	}
	files := make([]FileEntry, 0, len(names))
	for _, name := range names {
		files = append(files, FileEntry{Name: name, Path: sitePath(siteID) + "/" + url.PathEscape(name)})
	}
	WriteJSON(w, http.StatusOK, SiteInfoResponse{
		Site:  site,
		Files: files,
		URL:   s.siteURL(r, siteID),
	})
}

func (s *Server) ListSites(w http.ResponseWriter, r *http.Request) {
	sites, err := s.Registry.List(r.Context())
	if err != nil {
		s.Log.Errorw("list sites failed", "err", err)
		WriteError(w, http.StatusInternalServerError, "Failed to get sites")
		return
	}
	items := make([]SiteResponse, 0, len(sites))
	for _, site := range sites {
		items = append(items, SiteResponse{Site: site, URL: s.siteURL(r, site.SiteID)})
	}
	WriteJSON(w, http.StatusOK, items)
}

// DeleteSite removes the row and the directory together; a directory that is
// already gone does not fail the request.
func (s *Server) DeleteSite(w http.ResponseWriter, r *http.Request) {
	siteID, valid := parseSiteID(chi.URLParam(r, "siteId"))
	if !valid {
		WriteError(w, http.StatusNotFound, "Site not found")
		return
	}
	_, err := s.Registry.Delete(r.Context(), siteID, func() error {
		return s.Store.Remove(siteID)
	})
	if errors.Is(err, services.ErrSiteNotFound) {
		WriteError(w, http.StatusNotFound, "Site not found")
		return
	}
	if err != nil {
		s.Log.Errorw("delete site failed", "siteId", siteID, "err", err)
		WriteError(w, http.StatusInternalServerError, "Failed to delete site")
		return
	}
	metrics.SitesDeleted.Inc()
	s.Log.Infow("site deleted", "siteId", siteID)
	WriteJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Site deleted successfully"})
}
