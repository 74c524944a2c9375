package services

import (
	"context"
	"sync"
	"time"

	"github.com/celestiaorg/trustgig/internal/db/repos"
	"github.com/celestiaorg/trustgig/internal/events"
	"github.com/celestiaorg/trustgig/internal/logger"
)

// LaunchDeadlineWatcher periodically scans for assigned jobs past their deadline
// and publishes one deadline_passed event per job. It moves no funds; the
// client still decides whether to refund.
func LaunchDeadlineWatcher(ctx context.Context, wg *sync.WaitGroup, escrow *Escrow, interval time.Duration, batch int) {
	defer wg.Done()
	if interval <= 0 {
		interval = time.Minute
	}

	logger.Info("Deadline watcher started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var cursor repos.OverdueCursor
	for {
		cursor = scanOverdue(ctx, escrow, cursor, batch)

		select {
		case <-ctx.Done():
			logger.Info("Deadline watcher received shutdown signal, stopping...")
			return
		case <-ticker.C:
		}
	}
}

// scanOverdue publishes every overdue job after cursor and returns the new cursor
func scanOverdue(ctx context.Context, escrow *Escrow, cursor repos.OverdueCursor, batch int) repos.OverdueCursor {
	for {
		jobs, err := escrow.OverdueJobs(ctx, cursor, batch)
		if err != nil {
			logger.Errorf("Deadline watcher error fetching overdue jobs: %v", err)
			return cursor
		}
		if len(jobs) == 0 {
			return cursor
		}

		jobIDs := make([]uint, len(jobs))
		for i, job := range jobs {
			jobIDs[i] = job.ID
			escrow.publish(events.Event{
				Type:         events.EventDeadlinePassed,
				JobID:        job.ID,
				Status:       job.Status.String(),
				Amount:       job.Amount,
				Counterparty: job.Client,
				At:           escrow.Now(),
			})
			cursor = repos.OverdueCursor{Deadline: *job.Deadline, JobID: job.ID}
		}
		logger.Infof("Deadline watcher found %d overdue jobs: %v", len(jobs), jobIDs)

		if len(jobs) < batch || ctx.Err() != nil {
			return cursor
		}
	}
}
