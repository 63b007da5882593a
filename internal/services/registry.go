package services

import (
	"context"
	"database/sql"
	"errors"

	"sitehost/internal/models"

	"github.com/jmoiron/sqlx"
)

const siteColumns = `id, site_id, name, type, created_at, last_accessed, file_count, size_bytes`

// Registry is the hosted_sites table.
type Registry struct {
	DB *sqlx.DB
}

func NewRegistry(db *sqlx.DB) *Registry {
	return &Registry{DB: db}
}

type NewSite struct {
	SiteID    string
	Name      string
	Type      string
	FileCount int
	SizeBytes int64
}

func (r *Registry) Insert(ctx context.Context, site NewSite) error {
	_, err := r.DB.ExecContext(ctx, `
INSERT INTO hosted_sites (site_id, name, type, file_count, size_bytes)
VALUES ($1, $2, $3, $4, $5)
`, site.SiteID, site.Name, site.Type, site.FileCount, site.SizeBytes)
	return err
}

func (r *Registry) Get(ctx context.Context, siteID string) (models.Site, error) {
	var site models.Site
	err := r.DB.GetContext(ctx, &site, `SELECT `+siteColumns+` FROM hosted_sites WHERE site_id = $1`, siteID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Site{}, ErrSiteNotFound
	}
	return site, err
}

// List returns every site, newest first.
func (r *Registry) List(ctx context.Context) ([]models.Site, error) {
	sites := []models.Site{}
	if err := r.DB.SelectContext(ctx, &sites, `SELECT `+siteColumns+` FROM hosted_sites ORDER BY created_at DESC`); err != nil {
		return nil, err
	}
	return sites, nil
}

func (r *Registry) SiteIDs(ctx context.Context) ([]string, error) {
	ids := []string{}
	if err := r.DB.SelectContext(ctx, &ids, `SELECT site_id FROM hosted_sites`); err != nil {
		return nil, err
	}
	return ids, nil
}

// Touch bumps last_accessed. Unknown ids are ignored.
func (r *Registry) Touch(ctx context.Context, siteID string) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE hosted_sites SET last_accessed = CURRENT_TIMESTAMP WHERE site_id = $1`, siteID)
	return err
}

// Delete removes the row of a site and then calls removeFiles inside the
// same transaction. When removeFiles fails the row is kept.
func (r *Registry) Delete(ctx context.Context, siteID string, removeFiles func() error) (models.Site, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return models.Site{}, err
	}
	var site models.Site
	err = tx.GetContext(ctx, &site, `DELETE FROM hosted_sites WHERE site_id = $1 RETURNING `+siteColumns, siteID)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return models.Site{}, ErrSiteNotFound
		}
		return models.Site{}, err
	}
	if removeFiles != nil {
		if err := removeFiles(); err != nil {
			_ = tx.Rollback()
			return models.Site{}, WrapError(err, "remove site files")
		}
	}
	if err := tx.Commit(); err != nil {
		return models.Site{}, err
	}
	return site, nil
}

func (r *Registry) Stats(ctx context.Context) (models.SiteStats, error) {
	var stats models.SiteStats
	err := r.DB.GetContext(ctx, &stats, `
SELECT count(*) AS total_sites,
       count(*) FILTER (WHERE type = 'upload') AS uploads,
       count(*) FILTER (WHERE type = 'code') AS codes,
       count(*) FILTER (WHERE type = 'url') AS urls
FROM hosted_sites
`)
	return stats, err
}

func (r *Registry) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}
