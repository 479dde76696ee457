package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/pmdelrosario/merkado-backend/pkg/db/models"
	"github.com/pmdelrosario/merkado-backend/pkg/logger"
)

const orphanProofRetentionDays = 7

type OrphanProofCleanupJobParams struct {
	Logger        *logger.Logger
	ProofRepo     orphanProofRepo
	ObjectStore   proofObjectRemover
	RetentionDays int
}

// orphanProofRepo lists and deletes proof bookkeeping rows that never got
// claimed by an order.
type orphanProofRepo interface {
	ListOrphanProofsBefore(ctx context.Context, cutoff time.Time) ([]models.ProofUpload, error)
	DeleteProofUpload(ctx context.Context, objectPath string) error
}

type proofObjectRemover interface {
	Remove(ctx context.Context, objectPath string) error
}

func NewOrphanProofCleanupJob(params OrphanProofCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.ProofRepo == nil {
		return nil, fmt.Errorf("proof repository required")
	}
	if params.ObjectStore == nil {
		return nil, fmt.Errorf("object store required")
	}
	retention := params.RetentionDays
	if retention <= 0 {
		retention = orphanProofRetentionDays
	}
	return &orphanProofCleanupJob{
		logg:          params.Logger,
		repo:          params.ProofRepo,
		store:         params.ObjectStore,
		retentionDays: retention,
		now:           time.Now,
	}, nil
}

type orphanProofCleanupJob struct {
	logg          *logger.Logger
	repo          orphanProofRepo
	store         proofObjectRemover
	retentionDays int
	now           func() time.Time
}

func (j *orphanProofCleanupJob) Name() string { return "orphan-proof-cleanup" }

// Run deletes proof objects whose submission never reached order creation.
// The object goes first; a row whose object delete fails is kept so the next
// cycle retries it.
func (j *orphanProofCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retentionDays) * 24 * time.Hour)

	rows, err := j.repo.ListOrphanProofsBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("query orphan proofs: %w", err)
	}

	var deleted, skipped int
	for _, row := range rows {
		if err := j.store.Remove(ctx, row.ObjectPath); err != nil {
			skipped++
			j.logg.Warn(j.logg.WithField(ctx, "object_path", row.ObjectPath), "orphan proof object delete failed")
			continue
		}
		if err := j.repo.DeleteProofUpload(ctx, row.ObjectPath); err != nil {
			return fmt.Errorf("delete orphan proof row: %w", err)
		}
		deleted++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retentionDays,
		"candidates":     len(rows),
		"deleted":        deleted,
		"skipped":        skipped,
	})
	j.logg.Info(logCtx, "orphan proof cleanup complete")
	return nil
}
