package repos

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/celestiaorg/trustgig/internal/db/models"
)

// ErrInsufficientBalance is returned when a debit exceeds the account balance
var ErrInsufficientBalance = errors.New("insufficient balance")

// AccountRepository stores wallet balances
type AccountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new account repository instance
func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *AccountRepository) WithTx(tx *gorm.DB) *AccountRepository {
	return &AccountRepository{db: tx}
}

// Get returns the account of identity. Unknown identities have a zero balance.
func (r *AccountRepository) Get(ctx context.Context, identity string) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).Where("identity = ?", identity).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.Account{Identity: identity}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// Credit adds amount to the balance of identity, opening the account if needed
func (r *AccountRepository) Credit(ctx context.Context, identity string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("credit amount must be positive, got %d", amount)
	}
	account := &models.Account{Identity: identity, Balance: amount}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "identity"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"balance":    gorm.Expr("accounts.balance + ?", amount),
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(account).Error
	if err != nil {
		return fmt.Errorf("failed to credit %s: %w", identity, err)
	}
	return nil
}

// Debit subtracts amount from the balance of identity. The balance never goes negative.
func (r *AccountRepository) Debit(ctx context.Context, identity string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("debit amount must be positive, got %d", amount)
	}
	res := r.db.WithContext(ctx).Model(&models.Account{}).
		Where("identity = ? AND balance >= ?", identity, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return fmt.Errorf("failed to debit %s: %w", identity, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("debit %d from %s: %w", amount, identity, ErrInsufficientBalance)
	}
	return nil
}
