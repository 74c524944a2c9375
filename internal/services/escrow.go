package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/celestiaorg/trustgig/internal/db/models"
	"github.com/celestiaorg/trustgig/internal/db/repos"
	apperrors "github.com/celestiaorg/trustgig/internal/errors"
	"github.com/celestiaorg/trustgig/internal/events"
	"github.com/celestiaorg/trustgig/internal/lock"
	"github.com/celestiaorg/trustgig/internal/logger"
)

// Operation names used in logs and errors
const (
	OpPostJob          = "postJob"
	OpApplyForJob      = "applyForJob"
	OpSelectFreelancer = "selectFreelancer"
	OpCancelJob        = "cancelJob"
	OpMarkCompleted    = "markCompleted"
	OpRequestRevision  = "requestRevision"
	OpApproveAndPay    = "approveAndPay"
	OpFreelancerRefund = "freelancerRefund"
	OpRefund           = "refund"
)

// JobFilter selects which recent jobs a listing returns
type JobFilter string

// Job filters
const (
	// FilterAll returns every job in the window
	FilterAll JobFilter = "all"
	// FilterMarketplace returns open jobs
	FilterMarketplace JobFilter = "marketplace"
	// FilterHires returns jobs posted by the caller
	FilterHires JobFilter = "hires"
	// FilterGigs returns jobs the caller was selected for or applied to
	FilterGigs JobFilter = "gigs"
)

// Stats summarizes the job store for a caller
type Stats struct {
	TotalJobs     uint  `json:"total_jobs"`
	OpenMarket    int64 `json:"open_market"`
	MyActiveJobs  int64 `json:"my_active_jobs"`
	TotalReleased int64 `json:"total_released"`
}

// effect is the committed outcome of a transition
type effect struct {
	event        events.EventType
	status       models.JobStatus
	amount       int64
	counterparty string
}

// mutation runs inside the job's transaction, after the row is loaded and locked
type mutation func(ctx context.Context, tx *gorm.DB, jobs *repos.JobRepository, job *models.Job) (effect, error)

// Escrow is the job state machine. Every mutating operation holds the job's
// lock and commits the status change and any fund movement in one transaction.
type Escrow struct {
	db      *gorm.DB
	jobs    *repos.JobRepository
	ledger  *Ledger
	locker  lock.Locker
	clock   Clock
	publish func(events.Event)
}

// NewEscrow creates a new escrow state machine
func NewEscrow(db *gorm.DB, jobs *repos.JobRepository, ledger *Ledger, locker lock.Locker, clock Clock) *Escrow {
	if clock == nil {
		clock = RealClock{}
	}
	return &Escrow{db: db, jobs: jobs, ledger: ledger, locker: locker, clock: clock, publish: events.Publish}
}

// WithPublisher replaces the sink committed events are published to
func (e *Escrow) WithPublisher(publish func(events.Event)) *Escrow {
	e.publish = publish
	return e
}

// PostJob creates an open job and deposits payment as its reward
func (e *Escrow) PostJob(ctx context.Context, caller, description string, durationDays uint32, payment int64) (uint, error) {
	fields := map[string]interface{}{"op": OpPostJob, "caller": caller}
	if caller == "" {
		return 0, e.reject(fields, apperrors.Unauthorizedf("caller identity is required"))
	}
	if !ValidDuration(durationDays) {
		return 0, e.reject(fields, apperrors.InvalidInputf("duration must be between 1 and %d days, got %d", MaxDurationDays, durationDays))
	}
	if payment <= 0 {
		return 0, e.reject(fields, apperrors.InvalidInputf("payment must be positive, got %d", payment))
	}

	release, err := e.locker.Lock(ctx, lock.CounterKey(models.JobCounterName))
	if err != nil {
		return 0, e.reject(fields, err)
	}
	defer release()

	var id uint
	ctx = context.WithoutCancel(ctx)
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		id, err = e.jobs.WithTx(tx).CreateJob(ctx, caller, description, payment, durationDays, payment)
		if err != nil {
			return err
		}
		return e.ledger.Deposit(ctx, tx, id, caller, payment)
	})
	if err != nil {
		return 0, e.reject(fields, err)
	}

	e.commit(OpPostJob, id, caller, effect{
		event:  events.EventJobPosted,
		status: models.JobStatusOpen,
		amount: payment,
	})
	return id, nil
}

// ApplyForJob adds the caller to the applicants of an open job. Applying to a
// job that is not open is an authorization failure, like applying to your own.
func (e *Escrow) ApplyForJob(ctx context.Context, id uint, caller string) error {
	return e.transition(ctx, OpApplyForJob, id, caller,
		func(ctx context.Context, _ *gorm.DB, jobs *repos.JobRepository, job *models.Job) (effect, error) {
			if IsClient(job, caller) {
				return effect{}, apperrors.Unauthorizedf("client cannot apply to their own job %d", id)
			}
			if job.Status != models.JobStatusOpen {
				return effect{}, apperrors.Unauthorizedf("job %d is %s and no longer takes applications", id, job.Status)
			}
			if IsApplicant(job, caller) {
				return effect{}, apperrors.AlreadyAppliedf("%s already applied to job %d", caller, id)
			}
			if err := jobs.AppendApplicant(ctx, id, caller); err != nil {
				return effect{}, err
			}
			return effect{event: events.EventJobApplied, status: models.JobStatusOpen}, nil
		})
}

// SelectFreelancer assigns an applicant, starts the deadline and locks the reward
func (e *Escrow) SelectFreelancer(ctx context.Context, id uint, caller, freelancer string, durationDays uint32) error {
	return e.transition(ctx, OpSelectFreelancer, id, caller,
		func(ctx context.Context, _ *gorm.DB, jobs *repos.JobRepository, job *models.Job) (effect, error) {
			if !IsClient(job, caller) {
				return effect{}, apperrors.Unauthorizedf("only the client can select a freelancer for job %d", id)
			}
			if err := requireStatus(OpSelectFreelancer, job, models.JobStatusOpen); err != nil {
				return effect{}, err
			}
			if !ValidDuration(durationDays) {
				return effect{}, apperrors.InvalidInputf("duration must be between 1 and %d days, got %d", MaxDurationDays, durationDays)
			}
			if !IsApplicant(job, freelancer) {
				return effect{}, apperrors.InvalidInputf("%q did not apply to job %d", freelancer, id)
			}
			deadline := DeadlineFor(e.clock.Now(), durationDays)
			if err := jobs.Assign(ctx, id, freelancer, deadline, job.Reward, durationDays); err != nil {
				return effect{}, err
			}
			return effect{
				event:        events.EventFreelancerSelected,
				status:       models.JobStatusAssigned,
				amount:       job.Reward,
				counterparty: freelancer,
			}, nil
		})
}

// CancelJob withdraws an open job and returns the deposited reward to the client
func (e *Escrow) CancelJob(ctx context.Context, id uint, caller string) error {
	return e.transition(ctx, OpCancelJob, id, caller,
		func(ctx context.Context, tx *gorm.DB, jobs *repos.JobRepository, job *models.Job) (effect, error) {
			if !IsClient(job, caller) {
				return effect{}, apperrors.Unauthorizedf("only the client can cancel job %d", id)
			}
			if err := requireStatus(OpCancelJob, job, models.JobStatusOpen); err != nil {
				return effect{}, err
			}
			return e.settle(ctx, tx, jobs, job, models.JobStatusRefunded, job.Client, job.Reward, models.ReleaseReasonCancel)
		})
}

// MarkCompleted records that the freelancer delivered
func (e *Escrow) MarkCompleted(ctx context.Context, id uint, caller string) error {
	return e.transition(ctx, OpMarkCompleted, id, caller,
		func(ctx context.Context, _ *gorm.DB, jobs *repos.JobRepository, job *models.Job) (effect, error) {
			if !IsFreelancer(job, caller) {
				return effect{}, apperrors.Unauthorizedf("only the freelancer can complete job %d", id)
			}
			if err := requireStatus(OpMarkCompleted, job, models.JobStatusAssigned); err != nil {
				return effect{}, err
			}
			if err := jobs.SetStatus(ctx, id, models.JobStatusCompleted); err != nil {
				return effect{}, err
			}
			return effect{event: events.EventJobCompleted, status: models.JobStatusCompleted}, nil
		})
}

// RequestRevision sends completed work back to the freelancer. Deadline and escrow are unchanged.
func (e *Escrow) RequestRevision(ctx context.Context, id uint, caller string) error {
	return e.transition(ctx, OpRequestRevision, id, caller,
		func(ctx context.Context, _ *gorm.DB, jobs *repos.JobRepository, job *models.Job) (effect, error) {
			if !IsClient(job, caller) {
				return effect{}, apperrors.Unauthorizedf("only the client can request a revision of job %d", id)
			}
			if err := requireStatus(OpRequestRevision, job, models.JobStatusCompleted); err != nil {
				return effect{}, err
			}
			if err := jobs.SetStatus(ctx, id, models.JobStatusAssigned); err != nil {
				return effect{}, err
			}
			return effect{
				event:        events.EventRevisionRequested,
				status:       models.JobStatusAssigned,
				counterparty: job.Freelancer,
			}, nil
		})
}

// ApproveAndPay releases the escrow to the freelancer
func (e *Escrow) ApproveAndPay(ctx context.Context, id uint, caller string) error {
	return e.transition(ctx, OpApproveAndPay, id, caller,
		func(ctx context.Context, tx *gorm.DB, jobs *repos.JobRepository, job *models.Job) (effect, error) {
			if !IsClient(job, caller) {
				return effect{}, apperrors.Unauthorizedf("only the client can pay job %d", id)
			}
			if err := requireStatus(OpApproveAndPay, job, models.JobStatusCompleted); err != nil {
				return effect{}, err
			}
			return e.settle(ctx, tx, jobs, job, models.JobStatusPaid, job.Freelancer, job.Amount, models.ReleaseReasonPayment)
		})
}

// FreelancerRefund lets the freelancer give up an assigned job and return the escrow to the client
func (e *Escrow) FreelancerRefund(ctx context.Context, id uint, caller string) error {
	return e.transition(ctx, OpFreelancerRefund, id, caller,
		func(ctx context.Context, tx *gorm.DB, jobs *repos.JobRepository, job *models.Job) (effect, error) {
			if !IsFreelancer(job, caller) {
				return effect{}, apperrors.Unauthorizedf("only the freelancer can withdraw from job %d", id)
			}
			if err := requireStatus(OpFreelancerRefund, job, models.JobStatusAssigned); err != nil {
				return effect{}, err
			}
			return e.settle(ctx, tx, jobs, job, models.JobStatusRefunded, job.Client, job.Amount, models.ReleaseReasonFreelancerRefund)
		})
}

// Refund returns the escrow to the client. An assigned job must be past its
// deadline; a completed job can be refunded at any time.
func (e *Escrow) Refund(ctx context.Context, id uint, caller string) error {
	return e.transition(ctx, OpRefund, id, caller,
		func(ctx context.Context, tx *gorm.DB, jobs *repos.JobRepository, job *models.Job) (effect, error) {
			if !IsClient(job, caller) {
				return effect{}, apperrors.Unauthorizedf("only the client can refund job %d", id)
			}
			if err := requireStatus(OpRefund, job, models.JobStatusAssigned, models.JobStatusCompleted); err != nil {
				return effect{}, err
			}
			if job.Status == models.JobStatusAssigned && !IsLate(job, e.clock.Now()) {
				return effect{}, apperrors.DeadlineNotReachedf("job %d deadline %s has not passed", id, job.Deadline.Format(time.RFC3339))
			}
			return e.settle(ctx, tx, jobs, job, models.JobStatusRefunded, job.Client, job.Amount, models.ReleaseReasonRefund)
		})
}

// settle moves the job to a terminal status and then releases value to recipient
func (e *Escrow) settle(
	ctx context.Context,
	tx *gorm.DB,
	jobs *repos.JobRepository,
	job *models.Job,
	status models.JobStatus,
	recipient string,
	value int64,
	reason models.ReleaseReason,
) (effect, error) {
	if err := jobs.Settle(ctx, job.ID, status); err != nil {
		return effect{}, err
	}
	if err := e.ledger.Release(ctx, tx, job.ID, recipient, value, reason); err != nil {
		return effect{}, err
	}
	eventType := events.EventJobRefunded
	if status == models.JobStatusPaid {
		eventType = events.EventJobPaid
	}
	return effect{event: eventType, status: status, amount: value, counterparty: recipient}, nil
}

// transition runs fn under the job lock in a single transaction. The lock wait
// honours ctx; once acquired the transaction runs to completion.
func (e *Escrow) transition(ctx context.Context, op string, id uint, caller string, fn mutation) error {
	fields := map[string]interface{}{"op": op, "job_id": id, "caller": caller}
	if caller == "" {
		return e.reject(fields, apperrors.Unauthorizedf("caller identity is required"))
	}

	release, err := e.locker.Lock(ctx, lock.JobKey(id))
	if err != nil {
		return e.reject(fields, err)
	}
	defer release()

	var result effect
	ctx = context.WithoutCancel(ctx)
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		jobs := e.jobs.WithTx(tx)
		job, err := jobs.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		result, err = fn(ctx, tx, jobs, job)
		return err
	})
	if err != nil {
		return e.reject(fields, err)
	}

	e.commit(op, id, caller, result)
	return nil
}

func (e *Escrow) commit(op string, id uint, caller string, result effect) {
	logger.InfoWithFields("job operation committed", map[string]interface{}{
		"op":     op,
		"job_id": id,
		"caller": caller,
		"status": result.status.String(),
	})
	e.publish(events.Event{
		Type:         result.event,
		JobID:        id,
		Caller:       caller,
		Status:       result.status.String(),
		Amount:       result.amount,
		Counterparty: result.counterparty,
		At:           e.clock.Now(),
	})
}

func (e *Escrow) reject(fields map[string]interface{}, err error) error {
	fields["code"] = string(apperrors.CodeOf(err))
	fields["error"] = err.Error()
	logger.WarnWithFields("job operation rejected", fields)
	return err
}

func requireStatus(op string, job *models.Job, allowed ...models.JobStatus) error {
	for _, s := range allowed {
		if job.Status == s {
			return nil
		}
	}
	return apperrors.InvalidStatef("cannot %s job %d in status %s", op, job.ID, job.Status)
}

// GetJob returns the public view of a job
func (e *Escrow) GetJob(ctx context.Context, id uint) (*models.JobView, error) {
	job, err := e.jobs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	view := job.View()
	return &view, nil
}

// JobCounter returns the number of jobs ever created, which is also the highest id
func (e *Escrow) JobCounter(ctx context.Context) (uint, error) {
	return e.jobs.Counter(ctx)
}

// RecentJobs returns the jobs in the recent window matching filter from the caller's point of view
func (e *Escrow) RecentJobs(ctx context.Context, caller string, filter JobFilter, window int, before uint) ([]models.JobView, error) {
	opts := &models.ListOptions{Limit: window, Before: before}
	switch filter {
	case "", FilterAll:
	case FilterMarketplace:
		open := models.JobStatusOpen
		opts.Status = &open
	case FilterHires:
		if caller == "" {
			return nil, apperrors.Unauthorizedf("caller identity is required for %s", filter)
		}
		opts.Client = caller
	case FilterGigs:
		if caller == "" {
			return nil, apperrors.Unauthorizedf("caller identity is required for %s", filter)
		}
		opts.Participant = caller
	default:
		return nil, apperrors.InvalidInputf("unknown job filter %q", filter)
	}

	jobs, err := e.jobs.ListRecent(ctx, opts)
	if err != nil {
		return nil, err
	}
	views := make([]models.JobView, 0, len(jobs))
	for i := range jobs {
		views = append(views, jobs[i].View())
	}
	return views, nil
}

// Stats returns the dashboard counters for caller
func (e *Escrow) Stats(ctx context.Context, caller string) (*Stats, error) {
	total, err := e.jobs.Counter(ctx)
	if err != nil {
		return nil, err
	}
	open, err := e.jobs.Count(ctx, models.JobStatusOpen)
	if err != nil {
		return nil, err
	}
	released, err := e.ledger.TotalReleased(ctx)
	if err != nil {
		return nil, err
	}
	stats := &Stats{TotalJobs: total, OpenMarket: open, TotalReleased: released}
	if caller != "" {
		if stats.MyActiveJobs, err = e.jobs.CountActive(ctx, caller); err != nil {
			return nil, err
		}
	}
	return stats, nil
}

// LedgerEntries returns the escrow movements of a job
func (e *Escrow) LedgerEntries(ctx context.Context, id uint) ([]models.LedgerEntry, error) {
	if _, err := e.jobs.Get(ctx, id); err != nil {
		return nil, err
	}
	return e.ledger.Entries(ctx, id)
}

// OverdueJobs returns assigned jobs whose deadline has passed, after the cursor
func (e *Escrow) OverdueJobs(ctx context.Context, after repos.OverdueCursor, limit int) ([]models.Job, error) {
	return e.jobs.ListOverdue(ctx, e.clock.Now(), after, limit)
}

// Now returns the escrow's current time
func (e *Escrow) Now() time.Time {
	return e.clock.Now()
}
