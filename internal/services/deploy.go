package services

import (
	"bytes"
	"context"
	"io"
	"strings"

	"sitehost/internal/metrics"
	"sitehost/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultUploadName = "Untitled Project"
	DefaultURLName    = "URL Project"
	DefaultCodeName   = "Code Project"
)

// UploadFile is one uploaded part. Open is called once.
type UploadFile struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// Deployer turns submissions into sites: files first, registry row second.
type Deployer struct {
	Registry *Registry
	Store    *Store
	Fetcher  *Fetcher
}

func NewDeployer(registry *Registry, store *Store, fetcher *Fetcher) *Deployer {
	return &Deployer{Registry: registry, Store: store, Fetcher: fetcher}
}

func (d *Deployer) DeployFiles(ctx context.Context, name string, files []UploadFile) (string, error) {
	if len(files) == 0 {
		return "", ErrBadRequest("No files uploaded")
	}
	for _, file := range files {
		if _, err := SafeFileName(file.Name); err != nil {
			return "", ErrBadRequest("Invalid file name: " + file.Name)
		}
	}
	return d.publish(ctx, models.SiteTypeUpload, orDefault(name, DefaultUploadName), func(siteID string) (int, int64, error) {
		var total int64
		for _, file := range files {
			size, err := d.copyUpload(siteID, file)
			if err != nil {
				return 0, 0, WrapError(err, "store "+file.Name)
			}
			total += size
		}
		return len(files), total, nil
	})
}

func (d *Deployer) copyUpload(siteID string, file UploadFile) (int64, error) {
	body, err := file.Open()
	if err != nil {
		return 0, err
	}
	defer body.Close()
	return d.Store.WriteFile(siteID, file.Name, body)
}

func (d *Deployer) DeployURL(ctx context.Context, name, rawURL string) (string, error) {
	if strings.TrimSpace(rawURL) == "" {
		return "", ErrBadRequest("URL is required")
	}
	page, err := d.Fetcher.Fetch(ctx, rawURL)
	if err != nil {
		metrics.DeployErrors.WithLabelValues(models.SiteTypeURL).Inc()
		return "", err
	}
	return d.publish(ctx, models.SiteTypeURL, orDefault(name, DefaultURLName), func(siteID string) (int, int64, error) {
		size, err := d.Store.WriteFile(siteID, page.FileName, bytes.NewReader(page.Body))
		return 1, size, err
	})
}

func (d *Deployer) DeployCode(ctx context.Context, name, filename, code string) (string, error) {
	if code == "" {
		return "", ErrBadRequest("Code is required")
	}
	if filename == "" {
		filename = DefaultIndexFile
	}
	if _, err := SafeFileName(filename); err != nil {
		return "", ErrBadRequest("Invalid filename")
	}
	return d.publish(ctx, models.SiteTypeCode, orDefault(name, DefaultCodeName), func(siteID string) (int, int64, error) {
		size, err := d.Store.WriteFile(siteID, filename, strings.NewReader(code))
		return 1, size, err
	})
}

// publish allocates a site id, lets write fill its directory and records
// the row. The directory is removed again if either step fails.
func (d *Deployer) publish(ctx context.Context, siteType, name string, write func(siteID string) (int, int64, error)) (string, error) {
	siteID := uuid.NewString()
	if err := d.Store.Create(siteID); err != nil {
		metrics.DeployErrors.WithLabelValues(siteType).Inc()
		return "", WrapError(err, "create site directory")
	}
	count, size, err := write(siteID)
	if err == nil {
		err = d.Registry.Insert(ctx, NewSite{
			SiteID:    siteID,
			Name:      name,
			Type:      siteType,
			FileCount: count,
			SizeBytes: size,
		})
		err = WrapError(err, "insert site")
	}
	if err != nil {
		metrics.DeployErrors.WithLabelValues(siteType).Inc()
		if rmErr := d.Store.Remove(siteID); rmErr != nil {
			zap.S().Warnw("orphaned site directory", "siteId", siteID, "err", rmErr)
		}
		return "", err
	}
	metrics.SitesDeployed.WithLabelValues(siteType).Inc()
	return siteID, nil
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
