package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"reflect"
	"strings"

	"sitehost/internal/services"

	"github.com/go-playground/validator/v10"
)

type DeployURLRequest struct {
	URL         string `json:"url" validate:"required,url"`
	ProjectName string `json:"projectName" validate:"max=255"`
}

type DeployCodeRequest struct {
	Code        string `json:"code" validate:"required"`
	ProjectName string `json:"projectName" validate:"max=255"`
	Filename    string `json:"filename" validate:"max=255"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var validationMessages = map[string]string{
	"url.required":    "URL is required",
	"url.url":         "URL is invalid",
	"code.required":   "Code is required",
	"projectName.max": "projectName must be at most 255 characters",
	"filename.max":    "filename must be at most 255 characters",
}

// validationMessage returns the client message for the first failing field.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		key := verrs[0].Field() + "." + verrs[0].Tag()
		if msg, ok := validationMessages[key]; ok {
			return msg
		}
		return verrs[0].Field() + " is invalid"
	}
	return "Invalid payload"
}

func (s *Server) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.Config.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.Config.UploadMemoryBytes); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large"):
			WriteError(w, http.StatusRequestEntityTooLarge, "Upload too large")
		case errors.Is(err, http.ErrNotMultipart):
			WriteError(w, http.StatusBadRequest, "No files uploaded")
		default:
			WriteError(w, http.StatusBadRequest, "Invalid upload")
		}
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			s.Log.Warnw("upload temp cleanup failed", "err", err)
		}
	}()

	headers := r.MultipartForm.File["files"]
	if len(headers) > s.Config.MaxUploadFiles {
		WriteError(w, http.StatusBadRequest, "Too many files")
		return
	}
	files := make([]services.UploadFile, 0, len(headers))
	for _, header := range headers {
		files = append(files, uploadFile(header))
	}

	siteID, err := s.Deployer.DeployFiles(r.Context(), r.FormValue("projectName"), files)
	if err != nil {
		if mapServiceError(w, err) {
			return
		}
		s.Log.Errorw("upload failed", "err", err)
		WriteError(w, http.StatusInternalServerError, "Upload failed")
		return
	}
	s.Log.Infow("site published", "siteId", siteID, "type", "upload", "files", len(files))
	WriteJSON(w, http.StatusOK, DeployResponse{
		Success: true,
		SiteID:  siteID,
		URL:     s.siteURL(r, siteID),
		Message: "Files uploaded successfully",
	})
}

func uploadFile(header *multipart.FileHeader) services.UploadFile {
	return services.UploadFile{
		Name: header.Filename,
		Open: func() (io.ReadCloser, error) { return header.Open() },
	}
}

func (s *Server) DeployURL(w http.ResponseWriter, r *http.Request) {
	var req DeployURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if err := validate.Struct(req); err != nil {
		WriteError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	siteID, err := s.Deployer.DeployURL(r.Context(), req.ProjectName, req.URL)
	if err != nil {
		if mapServiceError(w, err) {
			return
		}
		var upstream *services.UpstreamFetchError
		if errors.As(err, &upstream) {
			s.Log.Warnw("deploy url upstream rejected", "url", req.URL, "upstreamStatus", upstream.Status)
		} else {
			s.Log.Errorw("deploy url failed", "url", req.URL, "err", err)
		}
		WriteError(w, http.StatusInternalServerError, "Failed to deploy URL: "+err.Error())
		return
	}
	s.Log.Infow("site published", "siteId", siteID, "type", "url", "source", req.URL)
	WriteJSON(w, http.StatusOK, DeployResponse{
		Success: true,
		SiteID:  siteID,
		URL:     s.siteURL(r, siteID),
		Message: "URL deployed successfully",
	})
}

func (s *Server) DeployCode(w http.ResponseWriter, r *http.Request) {
	var req DeployCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if err := validate.Struct(req); err != nil {
		WriteError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	siteID, err := s.Deployer.DeployCode(r.Context(), req.ProjectName, req.Filename, req.Code)
	if err != nil {
		if mapServiceError(w, err) {
			return
		}
		s.Log.Errorw("deploy code failed", "err", err)
		WriteError(w, http.StatusInternalServerError, "Failed to deploy code")
		return
	}
	s.Log.Infow("site published", "siteId", siteID, "type", "code")
	WriteJSON(w, http.StatusOK, DeployResponse{
		Success: true,
		SiteID:  siteID,
		URL:     s.siteURL(r, siteID),
		Message: "Code deployed successfully",
	})
}
