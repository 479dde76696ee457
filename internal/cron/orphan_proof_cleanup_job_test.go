package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pmdelrosario/merkado-backend/pkg/db/models"
	"github.com/pmdelrosario/merkado-backend/pkg/logger"
)

func TestOrphanProofCleanupDeletesUnclaimedObjects(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	rows := []models.ProofUpload{
		{ObjectPath: "proofs/sess-a/one.png"},
		{ObjectPath: "proofs/sess-b/two.png"},
	}
	repo := &fakeOrphanProofRepo{rows: rows}
	store := &fakeProofRemover{}
	job := newOrphanProofCleanupJob(t, repo, store)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	expectedCutoff := now.UTC().Add(-orphanProofRetentionDays * 24 * time.Hour)
	if !repo.lastCutoff.Equal(expectedCutoff) {
		t.Fatalf("expected cutoff %s got %s", expectedCutoff, repo.lastCutoff)
	}
	if len(store.removed) != 2 {
		t.Fatalf("expected 2 objects removed, got %d", len(store.removed))
	}
	if len(repo.deletedPaths) != 2 {
		t.Fatalf("expected 2 rows deleted, got %d", len(repo.deletedPaths))
	}
}

func TestOrphanProofCleanupKeepsRowWhenObjectDeleteFails(t *testing.T) {
	t.Parallel()

	repo := &fakeOrphanProofRepo{rows: []models.ProofUpload{
		{ObjectPath: "proofs/sess-a/stuck.png"},
		{ObjectPath: "proofs/sess-b/fine.png"},
	}}
	store := &fakeProofRemover{failPaths: map[string]bool{"proofs/sess-a/stuck.png": true}}
	job := newOrphanProofCleanupJob(t, repo, store)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// The stuck row stays for the next cycle.
	if len(repo.deletedPaths) != 1 || repo.deletedPaths[0] != "proofs/sess-b/fine.png" {
		t.Fatalf("expected only the removable row deleted, got %v", repo.deletedPaths)
	}
}

func TestOrphanProofCleanupPropagatesListErrors(t *testing.T) {
	t.Parallel()

	repo := &fakeOrphanProofRepo{listErr: errors.New("list failure")}
	job := newOrphanProofCleanupJob(t, repo, &fakeProofRemover{})

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func newOrphanProofCleanupJob(t *testing.T, repo *fakeOrphanProofRepo, store *fakeProofRemover) *orphanProofCleanupJob {
	t.Helper()
	jobIface, err := NewOrphanProofCleanupJob(OrphanProofCleanupJobParams{
		Logger:      logger.New(logger.Options{ServiceName: "test"}),
		ProofRepo:   repo,
		ObjectStore: store,
	})
	if err != nil {
		t.Fatalf("NewOrphanProofCleanupJob: %v", err)
	}
	job, ok := jobIface.(*orphanProofCleanupJob)
	if !ok {
		t.Fatalf("expected orphanProofCleanupJob, got %T", jobIface)
	}
	return job
}

type fakeOrphanProofRepo struct {
	rows         []models.ProofUpload
	listErr      error
	lastCutoff   time.Time
	deletedPaths []string
}

func (f *fakeOrphanProofRepo) ListOrphanProofsBefore(ctx context.Context, cutoff time.Time) ([]models.ProofUpload, error) {
	f.lastCutoff = cutoff
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.rows, nil
}

func (f *fakeOrphanProofRepo) DeleteProofUpload(ctx context.Context, objectPath string) error {
	f.deletedPaths = append(f.deletedPaths, objectPath)
	return nil
}

type fakeProofRemover struct {
	removed   []string
	failPaths map[string]bool
}

func (f *fakeProofRemover) Remove(ctx context.Context, objectPath string) error {
	if f.failPaths[objectPath] {
		return errors.New("remove failure")
	}
	f.removed = append(f.removed, objectPath)
	return nil
}
