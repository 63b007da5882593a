package services

import (
	"errors"
	"fmt"
	"net/http"
)

// ServiceError carries the status and message a handler should send back.
type ServiceError struct {
	Status  int
	Message string
}

func (e ServiceError) Error() string {
	return e.Message
}

func ErrBadRequest(msg string) error {
	return ServiceError{Status: http.StatusBadRequest, Message: msg}
}

var (
	ErrSiteNotFound = errors.New("site not found")
	ErrFileNotFound = errors.New("file not found")
	ErrNoFiles      = errors.New("no files found in site")
	ErrInvalidName  = errors.New("invalid file name")
)

// UpstreamFetchError reports a non-success status from a URL deployment.
type UpstreamFetchError struct {
	Status     int
	StatusText string
}

func (e *UpstreamFetchError) Error() string {
	return "Failed to fetch: " + e.StatusText
}

func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
