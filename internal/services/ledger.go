package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/celestiaorg/trustgig/internal/db/models"
	"github.com/celestiaorg/trustgig/internal/db/repos"
	apperrors "github.com/celestiaorg/trustgig/internal/errors"
)

// Wallet moves value in and out of identities' balances inside a transaction
type Wallet interface {
	Debit(ctx context.Context, tx *gorm.DB, identity string, amount int64) error
	Credit(ctx context.Context, tx *gorm.DB, identity string, amount int64) error
}

// Ledger holds custody of job funds. Every job has one deposit and at most one release.
type Ledger struct {
	entries *repos.LedgerRepository
	wallet  Wallet
}

// NewLedger creates a new escrow ledger
func NewLedger(entries *repos.LedgerRepository, wallet Wallet) *Ledger {
	return &Ledger{entries: entries, wallet: wallet}
}

// Deposit takes value from the client into the job's escrow
func (l *Ledger) Deposit(ctx context.Context, tx *gorm.DB, jobID uint, from string, value int64) error {
	entry := &models.LedgerEntry{
		JobID:        jobID,
		Kind:         models.LedgerEntryDeposit,
		Counterparty: from,
		Amount:       value,
	}
	if err := l.entries.WithTx(tx).Append(ctx, entry); err != nil {
		return err
	}
	return l.wallet.Debit(ctx, tx, from, value)
}

// Release pays value out of the job's escrow to a single recipient. The entry is
// written before the transfer, so a failed transfer rolls back with it.
func (l *Ledger) Release(
	ctx context.Context,
	tx *gorm.DB,
	jobID uint,
	to string,
	value int64,
	reason models.ReleaseReason,
) error {
	entries := l.entries.WithTx(tx)
	deposit, err := entries.Get(ctx, jobID, models.LedgerEntryDeposit)
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeInternal, "job %d has no escrow", jobID)
	}
	if value != deposit.Amount {
		err := fmt.Errorf("release of %d does not match deposit of %d", value, deposit.Amount)
		return apperrors.Wrapf(err, apperrors.ErrCodeInternal, "job %d escrow mismatch", jobID)
	}

	entry := &models.LedgerEntry{
		JobID:        jobID,
		Kind:         models.LedgerEntryRelease,
		Counterparty: to,
		Amount:       value,
		Reason:       reason,
	}
	if err := entries.Append(ctx, entry); err != nil {
		return err
	}
	return l.wallet.Credit(ctx, tx, to, value)
}

// Entries returns the ledger entries of a job
func (l *Ledger) Entries(ctx context.Context, jobID uint) ([]models.LedgerEntry, error) {
	return l.entries.ListByJob(ctx, jobID)
}

// TotalReleased returns the value paid out of escrow across all jobs
func (l *Ledger) TotalReleased(ctx context.Context) (int64, error) {
	return l.entries.SumReleased(ctx)
}
