// Package wallet keeps the balances escrow deposits are drawn from and releases are paid into.
package wallet

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/celestiaorg/trustgig/internal/db/models"
	"github.com/celestiaorg/trustgig/internal/db/repos"
	apperrors "github.com/celestiaorg/trustgig/internal/errors"
)

// Book moves value between identities and the escrow. Transfers join the
// caller's transaction so they commit or roll back with the job transition.
type Book struct {
	db       *gorm.DB
	accounts *repos.AccountRepository
}

// NewBook creates a wallet book over the accounts table
func NewBook(db *gorm.DB) *Book {
	return &Book{db: db, accounts: repos.NewAccountRepository(db)}
}

// Debit takes amount from identity inside tx
func (b *Book) Debit(ctx context.Context, tx *gorm.DB, identity string, amount int64) error {
	if err := b.accounts.WithTx(tx).Debit(ctx, identity, amount); err != nil {
		if errors.Is(err, repos.ErrInsufficientBalance) {
			return apperrors.Wrapf(err, apperrors.ErrCodeTransferFailure, "cannot take %d from %s", amount, identity)
		}
		return apperrors.Wrap(err, apperrors.ErrCodeTransferFailure, "debit failed")
	}
	return nil
}

// Credit pays amount to identity inside tx
func (b *Book) Credit(ctx context.Context, tx *gorm.DB, identity string, amount int64) error {
	if err := b.accounts.WithTx(tx).Credit(ctx, identity, amount); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeTransferFailure, "cannot pay %d to %s", amount, identity)
	}
	return nil
}

// Fund credits identity outside of any job. It backs the development faucet.
func (b *Book) Fund(ctx context.Context, identity string, amount int64) (*models.Account, error) {
	if identity == "" {
		return nil, apperrors.InvalidInputf("identity is required")
	}
	if amount <= 0 {
		return nil, apperrors.InvalidInputf("amount must be positive, got %d", amount)
	}
	if err := b.accounts.Credit(ctx, identity, amount); err != nil {
		return nil, err
	}
	return b.accounts.Get(ctx, identity)
}

// Balance returns the account of identity
func (b *Book) Balance(ctx context.Context, identity string) (*models.Account, error) {
	if identity == "" {
		return nil, apperrors.InvalidInputf("identity is required")
	}
	return b.accounts.Get(ctx, identity)
}
