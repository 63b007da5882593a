package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"sitehost/internal/services"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type DeployResponse struct {
	Success bool   `json:"success"`
	SiteID  string `json:"siteId"`
	URL     string `json:"url"`
	Message string `json:"message"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Error: message})
}

// WriteText sends a plain-text body, used by the site serving routes.
func WriteText(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(message))
}

func mapServiceError(w http.ResponseWriter, err error) bool {
	var serr services.ServiceError
	if errors.As(err, &serr) {
		WriteError(w, serr.Status, serr.Message)
		return true
	}
	return false
}

// baseURL prefers the configured public address and otherwise rebuilds it
// from the request.
func (s *Server) baseURL(r *http.Request) string {
	if s.Config.PublicBaseURL != "" {
		return s.Config.PublicBaseURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}
	return scheme + "://" + r.Host
}

func (s *Server) siteURL(r *http.Request, siteID string) string {
	return s.baseURL(r) + sitePath(siteID)
}

func sitePath(siteID string) string {
	return "/site/" + siteID
}
