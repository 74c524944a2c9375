package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LedgerEntryKind is the direction of an escrow movement
type LedgerEntryKind string

// Ledger entry kinds. A job has at most one entry of each kind.
const (
	// LedgerEntryDeposit records the reward taken into custody at posting
	LedgerEntryDeposit LedgerEntryKind = "deposit"
	// LedgerEntryRelease records the single release out of custody
	LedgerEntryRelease LedgerEntryKind = "release"
)

// ReleaseReason tells why the escrow of a job was released
type ReleaseReason string

// Release reasons
const (
	ReleaseReasonPayment          ReleaseReason = "payment"
	ReleaseReasonCancel           ReleaseReason = "cancel"
	ReleaseReasonFreelancerRefund ReleaseReason = "freelancer_refund"
	ReleaseReasonRefund           ReleaseReason = "refund"
)

// LedgerEntry is an append-only record of funds entering or leaving a job's escrow.
// The unique (job_id, kind) index caps every job at one deposit and one release.
type LedgerEntry struct {
	ID           uint            `json:"-" gorm:"primaryKey"`
	Reference    string          `json:"reference" gorm:"not null;uniqueIndex"`
	JobID        uint            `json:"job_id" gorm:"not null;uniqueIndex:idx_job_entry_kind"`
	Kind         LedgerEntryKind `json:"kind" gorm:"not null;uniqueIndex:idx_job_entry_kind"`
	Counterparty string          `json:"counterparty" gorm:"not null;index"`
	Amount       int64           `json:"amount" gorm:"not null"`
	Reason       ReleaseReason   `json:"reason,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Validate ensures that the entry is well formed
func (e *LedgerEntry) Validate() error {
	if e.JobID == 0 {
		return fmt.Errorf("ledger entry job_id must be positive")
	}
	if e.Counterparty == "" {
		return fmt.Errorf("ledger entry counterparty cannot be empty")
	}
	if e.Amount <= 0 {
		return fmt.Errorf("ledger entry amount must be positive")
	}
	switch e.Kind {
	case LedgerEntryDeposit:
	case LedgerEntryRelease:
		if e.Reason == "" {
			return fmt.Errorf("release entry requires a reason")
		}
	default:
		return fmt.Errorf("invalid ledger entry kind: %s", e.Kind)
	}
	return nil
}

// BeforeCreate is a GORM hook that assigns the transfer reference and validates the entry
func (e *LedgerEntry) BeforeCreate(_ *gorm.DB) error {
	if e.Reference == "" {
		e.Reference = uuid.NewString()
	}
	return e.Validate()
}

// Account is the wallet balance of an identity
type Account struct {
	Identity  string    `json:"identity" gorm:"primaryKey"`
	Balance   int64     `json:"balance" gorm:"not null;default:0"`
	UpdatedAt time.Time `json:"updated_at"`
}
