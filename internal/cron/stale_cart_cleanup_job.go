package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/pmdelrosario/merkado-backend/pkg/logger"
)

const staleCartRetentionDays = 30

type StaleCartCleanupJobParams struct {
	Logger        *logger.Logger
	CartRepo      staleCartRepo
	RetentionDays int
}

type staleCartRepo interface {
	DeleteInactiveBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

func NewStaleCartCleanupJob(params StaleCartCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.CartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	retention := params.RetentionDays
	if retention <= 0 {
		retention = staleCartRetentionDays
	}
	return &staleCartCleanupJob{
		logg:          params.Logger,
		repo:          params.CartRepo,
		retentionDays: retention,
		now:           time.Now,
	}, nil
}

type staleCartCleanupJob struct {
	logg          *logger.Logger
	repo          staleCartRepo
	retentionDays int
	now           func() time.Time
}

func (j *staleCartCleanupJob) Name() string { return "stale-cart-cleanup" }

func (j *staleCartCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retentionDays) * 24 * time.Hour)

	deleted, err := j.repo.DeleteInactiveBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("stale cart cleanup: %w", err)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retentionDays,
		"carts_deleted":  deleted,
	})
	j.logg.Info(logCtx, "stale cart cleanup complete")
	return nil
}
