package repos

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/celestiaorg/trustgig/internal/db"
	"github.com/celestiaorg/trustgig/internal/db/models"
	apperrors "github.com/celestiaorg/trustgig/internal/errors"
)

// LedgerRepository stores the append-only escrow entries of jobs
type LedgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a new ledger repository instance
func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *LedgerRepository) WithTx(tx *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: tx}
}

// Append writes a new entry. A second entry of the same kind for a job is rejected.
func (r *LedgerRepository) Append(ctx context.Context, entry *models.LedgerEntry) error {
	err := r.db.WithContext(ctx).Create(entry).Error
	if db.IsDuplicateKeyError(err) {
		return apperrors.InvalidStatef("job %d already has a %s entry", entry.JobID, entry.Kind)
	}
	if err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

// Get returns the entry of the given kind for a job
func (r *LedgerRepository) Get(ctx context.Context, jobID uint, kind models.LedgerEntryKind) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("job_id = ? AND kind = ?", jobID, kind).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFoundf("job %d has no %s entry", jobID, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}
	return &entry, nil
}

// ListByJob returns the entries of a job in the order they were written
func (r *LedgerRepository) ListByJob(ctx context.Context, jobID uint) ([]models.LedgerEntry, error) {
	entries := []models.LedgerEntry{}
	err := r.db.WithContext(ctx).Where("job_id = ?", jobID).Order("id ASC").Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	return entries, nil
}

// SumReleased returns the total released value across all jobs
func (r *LedgerRepository) SumReleased(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.LedgerEntry{}).
		Where("kind = ?", models.LedgerEntryRelease).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum released value: %w", err)
	}
	return total, nil
}
