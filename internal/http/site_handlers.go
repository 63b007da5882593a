package httpapi

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"

	"sitehost/internal/metrics"
	"sitehost/internal/services"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ServeSite serves the root file of a site, picked by services.RootStrategies.
func (s *Server) ServeSite(w http.ResponseWriter, r *http.Request) {
	siteID, ok := s.openSite(w, r, "Error serving site")
	if !ok {
		return
	}
	name, err := s.Store.ResolveRoot(siteID)
	switch {
	case errors.Is(err, services.ErrNoFiles):
		WriteText(w, http.StatusNotFound, "No files found in site")
		return
	case errors.Is(err, services.ErrSiteNotFound):
		WriteText(w, http.StatusNotFound, "Site not found")
		return
	case err != nil:
		s.Log.Errorw("resolve site root failed", "siteId", siteID, "err", err)
		WriteText(w, http.StatusInternalServerError, "Error serving site")
		return
	}
	s.serveFile(w, r, siteID, name, "Error serving site")
}

func (s *Server) ServeSiteFile(w http.ResponseWriter, r *http.Request) {
	siteID, ok := s.openSite(w, r, "Error serving file")
	if !ok {
		return
	}
	name, err := fileParam(r)
	if err != nil {
		WriteText(w, http.StatusNotFound, "File not found")
		return
	}
	s.serveFile(w, r, siteID, name, "Error serving file")
}

// openSite checks that the site directory exists and then bumps
// last_accessed. Unknown sites are answered with 404 and never touched.
func (s *Server) openSite(w http.ResponseWriter, r *http.Request, failure string) (string, bool) {
	siteID, valid := parseSiteID(chi.URLParam(r, "siteId"))
	if !valid {
		WriteText(w, http.StatusNotFound, "Site not found")
		return "", false
	}
	exists, err := s.Store.Exists(siteID)
	if err != nil {
		s.Log.Errorw("stat site failed", "siteId", siteID, "err", err)
		WriteText(w, http.StatusInternalServerError, failure)
		return "", false
	}
	if !exists {
		WriteText(w, http.StatusNotFound, "Site not found")
		return "", false
	}
	if err := s.Registry.Touch(r.Context(), siteID); err != nil {
		s.Log.Warnw("touch last_accessed failed", "siteId", siteID, "err", err)
	}
	return siteID, true
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, siteID, name, failure string) {
	file, info, err := s.Store.Open(siteID, name)
	if errors.Is(err, services.ErrFileNotFound) {
		WriteText(w, http.StatusNotFound, "File not found")
		return
	}
	if err != nil {
		s.Log.Errorw("open site file failed", "siteId", siteID, "file", name, "err", err)
		WriteText(w, http.StatusInternalServerError, failure)
		return
	}
	defer file.Close()

	contentType, err := detectContentType(file, name)
	if err != nil {
		s.Log.Errorw("detect content type failed", "siteId", siteID, "file", name, "err", err)
		WriteText(w, http.StatusInternalServerError, failure)
		return
	}
	w.Header().Set("Content-Type", contentType)
	metrics.SitesServed.Inc()
	http.ServeContent(w, r, name, info.ModTime(), file)
}

// detectContentType uses the extension first and sniffs the content when the
// extension is unknown. The file is rewound before returning.
func detectContentType(file io.ReadSeeker, name string) (string, error) {
	if byExt := mime.TypeByExtension(filepath.Ext(name)); byExt != "" {
		return byExt, nil
	}
	detected, err := mimetype.DetectReader(file)
	if err != nil {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return detected.String(), nil
}

// fileParam returns the decoded file name segment. chi matches against
// RawPath when it is set, so only then is the param still escaped.
func fileParam(r *http.Request) (string, error) {
	name := chi.URLParam(r, "filename")
	if r.URL.RawPath == "" {
		return name, nil
	}
	return url.PathUnescape(name)
}

// parseSiteID accepts only the canonical UUID form used for directory names.
func parseSiteID(raw string) (string, bool) {
	parsed, err := uuid.Parse(raw)
	if err != nil || parsed.String() != raw {
		return "", false
	}
	return raw, true
}
