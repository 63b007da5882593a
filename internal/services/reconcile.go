package services

import (
	"context"
	"sort"
	"time"

	"sitehost/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReconcileReport struct {
	RemovedDirectories []string `json:"removedDirectories"`
	MissingDirectories []string `json:"missingDirectories"`
}

// Reconciler finds directories without a registry row and rows without a
// directory. Only the directories are cleaned up; rows are reported.
type Reconciler struct {
	Registry *Registry
	Store    *Store
	Grace    time.Duration
	Now      func() time.Time
}

func NewReconciler(registry *Registry, store *Store, grace time.Duration) *Reconciler {
	return &Reconciler{Registry: registry, Store: store, Grace: grace, Now: time.Now}
}

func (r *Reconciler) Sweep(ctx context.Context) (ReconcileReport, error) {
	report := ReconcileReport{RemovedDirectories: []string{}, MissingDirectories: []string{}}
	ids, err := r.Registry.SiteIDs(ctx)
	if err != nil {
		return report, WrapError(err, "load site ids")
	}
	dirs, err := r.Store.Dirs()
	if err != nil {
		return report, WrapError(err, "list site directories")
	}

	known := make(map[string]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}
	onDisk := make(map[string]bool, len(dirs))
	cutoff := r.Now().Add(-r.Grace)
	for _, dir := range dirs {
		onDisk[dir.Name] = true
		if known[dir.Name] {
			continue
		}
		// Directories younger than the grace period may belong to an
		// ingestion that has not inserted its row yet.
		if dir.ModTime.After(cutoff) {
			continue
		}
		if _, err := uuid.Parse(dir.Name); err != nil {
			continue
		}
		if err := r.Store.Remove(dir.Name); err != nil {
			zap.S().Warnw("orphan removal failed", "siteId", dir.Name, "err", err)
			continue
		}
		metrics.OrphansRemoved.Inc()
		report.RemovedDirectories = append(report.RemovedDirectories, dir.Name)
	}
	for _, id := range ids {
		if !onDisk[id] {
			report.MissingDirectories = append(report.MissingDirectories, id)
		}
	}
	sort.Strings(report.RemovedDirectories)
	sort.Strings(report.MissingDirectories)
	zap.S().Infow("orphan sweep finished",
		"removed", len(report.RemovedDirectories),
		"missing", len(report.MissingDirectories),
	)
	return report, nil
}
