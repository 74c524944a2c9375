package repos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/celestiaorg/trustgig/internal/db"
	"github.com/celestiaorg/trustgig/internal/db/models"
	apperrors "github.com/celestiaorg/trustgig/internal/errors"
)

// JobRepository is the durable job store. It enforces entity invariants on
// creation only; transition preconditions belong to the caller.
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new job repository instance
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *JobRepository) WithTx(tx *gorm.DB) *JobRepository {
	return &JobRepository{db: tx}
}

// CreateJob allocates the next job id and persists an open job.
// The deposited value must match the reward.
func (r *JobRepository) CreateJob(
	ctx context.Context,
	client, description string,
	reward int64,
	durationDays uint32,
	deposited int64,
) (uint, error) {
	if client == "" {
		return 0, apperrors.InvalidInputf("client identity is required")
	}
	if reward <= 0 {
		return 0, apperrors.InvalidInputf("reward must be positive, got %d", reward)
	}
	if deposited != reward {
		return 0, apperrors.InvalidInputf("deposited value %d does not match reward %d", deposited, reward)
	}

	var id uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		next, err := nextValue(tx, models.JobCounterName)
		if err != nil {
			return err
		}
		job := &models.Job{
			ID:           next,
			Client:       client,
			Description:  description,
			Reward:       reward,
			DurationDays: durationDays,
			Status:       models.JobStatusOpen,
		}
		if err := job.Validate(); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, "invalid job")
		}
		if err := tx.Create(job).Error; err != nil {
			return fmt.Errorf("failed to create job: %w", err)
		}
		id = next
		return nil
	})
	return id, err
}

// nextValue increments the named counter and returns the new value. The
// UPDATE holds the row lock until the enclosing transaction ends, which
// serializes concurrent creators and keeps ids dense on rollback.
func nextValue(tx *gorm.DB, name string) (uint, error) {
	res := tx.Model(&models.Counter{}).
		Where("name = ?", name).
		Update("value", gorm.Expr("value + ?", 1))
	if res.Error != nil {
		return 0, fmt.Errorf("failed to increment %q counter: %w", name, res.Error)
	}
	if res.RowsAffected != 1 {
		return 0, fmt.Errorf("counter %q is not initialized", name)
	}
	var counter models.Counter
	if err := tx.Where("name = ?", name).First(&counter).Error; err != nil {
		return 0, fmt.Errorf("failed to read %q counter: %w", name, err)
	}
	return counter.Value, nil
}

// Get retrieves a job with its applicants in insertion order
func (r *JobRepository) Get(ctx context.Context, id uint) (*models.Job, error) {
	return r.get(r.db.WithContext(ctx), id)
}

// GetForUpdate retrieves a job and locks its row for the rest of the
// enclosing transaction. Dialects without row locks ignore the clause.
func (r *JobRepository) GetForUpdate(ctx context.Context, id uint) (*models.Job, error) {
	return r.get(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *JobRepository) get(db *gorm.DB, id uint) (*models.Job, error) {
	if id == 0 {
		return nil, apperrors.NotFoundf("job %d not found", id)
	}
	var job models.Job
	err := db.Preload("Applicants", orderByID).Where("id = ?", id).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFoundf("job %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

// AppendApplicant adds identity to the applicant set of a job
func (r *JobRepository) AppendApplicant(ctx context.Context, id uint, identity string) error {
	applicant := &models.Applicant{JobID: id, Identity: identity}
	err := r.db.WithContext(ctx).Create(applicant).Error
	if db.IsDuplicateKeyError(err) {
		return apperrors.AlreadyAppliedf("%s already applied to job %d", identity, id)
	}
	if err != nil {
		return fmt.Errorf("failed to add applicant: %w", err)
	}
	return nil
}

// Assign records the selected freelancer, the deadline and the locked amount
func (r *JobRepository) Assign(
	ctx context.Context,
	id uint,
	freelancer string,
	deadline time.Time,
	amount int64,
	durationDays uint32,
) error {
	return r.update(ctx, id, map[string]interface{}{
		models.JobFreelancerField: freelancer,
		models.JobDeadlineField:   deadline,
		models.JobAmountField:     amount,
		models.JobDurationField:   durationDays,
		models.JobStatusField:     models.JobStatusAssigned,
	})
}

// SetStatus updates the status of a job
func (r *JobRepository) SetStatus(ctx context.Context, id uint, status models.JobStatus) error {
	return r.update(ctx, id, map[string]interface{}{
		models.JobStatusField: status,
	})
}

// Settle moves a job to a terminal status and zeroes its escrowed amount
func (r *JobRepository) Settle(ctx context.Context, id uint, status models.JobStatus) error {
	if !status.IsTerminal() {
		return fmt.Errorf("cannot settle job %d into non-terminal status %s", id, status)
	}
	return r.update(ctx, id, map[string]interface{}{
		models.JobStatusField: status,
		models.JobAmountField: 0,
	})
}

func (r *JobRepository) update(ctx context.Context, id uint, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.Job{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("failed to update job %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFoundf("job %d not found", id)
	}
	return nil
}

// Counter returns the highest allocated job id
func (r *JobRepository) Counter(ctx context.Context) (uint, error) {
	var counter models.Counter
	err := r.db.WithContext(ctx).Where("name = ?", models.JobCounterName).First(&counter).Error
	if err != nil {
		return 0, fmt.Errorf("failed to read job counter: %w", err)
	}
	return counter.Value, nil
}

// ListRecent scans a window of ids from the counter (or opts.Before) downward
// and returns the jobs in it that match the filters, newest first.
func (r *JobRepository) ListRecent(ctx context.Context, opts *models.ListOptions) ([]models.Job, error) {
	if opts == nil {
		opts = &models.ListOptions{}
	}
	counter, err := r.Counter(ctx)
	if err != nil {
		return nil, err
	}
	bottom, top := opts.Window(counter)
	if top == 0 {
		return []models.Job{}, nil
	}

	db := r.db.WithContext(ctx).Model(&models.Job{}).
		Preload("Applicants", orderByID).
		Where("id BETWEEN ? AND ?", bottom, top)
	if opts.Status != nil {
		db = db.Where(models.JobStatusField+" = ?", *opts.Status)
	}
	if opts.Client != "" {
		db = db.Where(models.JobClientField+" = ?", opts.Client)
	}
	if opts.Participant != "" {
		applied := r.db.Model(&models.Applicant{}).Select("job_id").Where("identity = ?", opts.Participant)
		db = db.Where(
			r.db.Where(models.JobFreelancerField+" = ?", opts.Participant).Or("id IN (?)", applied),
		)
	}

	jobs := []models.Job{}
	if err := db.Order("id DESC").Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

// OverdueCursor is the position of the last overdue job a scan has seen
type OverdueCursor struct {
	Deadline time.Time
	JobID    uint
}

// ListOverdue returns assigned jobs whose deadline is before now, ordered by
// deadline then id, starting after the cursor
func (r *JobRepository) ListOverdue(ctx context.Context, now time.Time, after OverdueCursor, limit int) ([]models.Job, error) {
	if limit <= 0 || limit > models.DefaultLimit {
		limit = models.DefaultLimit
	}
	db := r.db.WithContext(ctx).
		Where(models.JobStatusField+" = ?", models.JobStatusAssigned).
		Where(models.JobDeadlineField+" < ?", now)
	if !after.Deadline.IsZero() {
		db = db.Where(
			r.db.Where(models.JobDeadlineField+" > ?", after.Deadline).
				Or(models.JobDeadlineField+" = ? AND id > ?", after.Deadline, after.JobID),
		)
	}

	var jobs []models.Job
	err := db.Order(models.JobDeadlineField + " ASC").
		Order("id ASC").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue jobs: %w", err)
	}
	return jobs, nil
}

// Count returns the number of jobs in any of the given statuses, or all jobs when none is given
func (r *JobRepository) Count(ctx context.Context, statuses ...models.JobStatus) (int64, error) {
	var count int64
	db := r.db.WithContext(ctx).Model(&models.Job{})
	if len(statuses) > 0 {
		db = db.Where(models.JobStatusField+" IN ?", statuses)
	}
	if err := db.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	return count, nil
}

// CountActive returns the number of assigned or completed jobs where identity is the client or the freelancer
func (r *JobRepository) CountActive(ctx context.Context, identity string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Job{}).
		Where(models.JobStatusField+" IN ?", []models.JobStatus{models.JobStatusAssigned, models.JobStatusCompleted}).
		Where(r.db.Where(models.JobClientField+" = ?", identity).Or(models.JobFreelancerField+" = ?", identity)).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count active jobs: %w", err)
	}
	return count, nil
}
