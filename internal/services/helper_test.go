package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/celestiaorg/trustgig/internal/db"
	"github.com/celestiaorg/trustgig/internal/db/repos"
	apperrors "github.com/celestiaorg/trustgig/internal/errors"
	"github.com/celestiaorg/trustgig/internal/events"
	"github.com/celestiaorg/trustgig/internal/lock"
	"github.com/celestiaorg/trustgig/internal/wallet"
)

const (
	client     = "0xc1e47"
	freelancer = "0xf2ee1"
	outsider   = "0x07e72"

	startingBalance = int64(1_000)
)

// TestSetup wires an escrow over a throwaway sqlite database
type TestSetup struct {
	DB         *gorm.DB
	JobRepo    *repos.JobRepository
	LedgerRepo *repos.LedgerRepository
	Book       *wallet.Book
	Ledger     *Ledger
	Escrow     *Escrow
	Clock      *FixedClock
	Events     *recorder
	ctx        context.Context
}

// recorder captures published events
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) publish(e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// ofType returns the recorded events of type typ
func (r *recorder) ofType(typ events.EventType) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// NewTestSetup creates a new test setup with funded client and freelancer accounts
func NewTestSetup(t *testing.T) *TestSetup {
	return newTestSetupWithWallet(t, nil)
}

// newTestSetupWithWallet lets wrap decorate the wallet the ledger moves funds through
func newTestSetupWithWallet(t *testing.T, wrap func(Wallet) Wallet) *TestSetup {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "escrow.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err, "Failed to create database")
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb), "Failed to run migrations")

	ts := &TestSetup{
		DB:         gdb,
		JobRepo:    repos.NewJobRepository(gdb),
		LedgerRepo: repos.NewLedgerRepository(gdb),
		Book:       wallet.NewBook(gdb),
		Clock:      NewFixedClock(time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)),
		ctx:        context.Background(),
	}
	var w Wallet = ts.Book
	if wrap != nil {
		w = wrap(w)
	}
	ts.Ledger = NewLedger(ts.LedgerRepo, w)
	ts.Events = &recorder{}
	ts.Escrow = NewEscrow(gdb, ts.JobRepo, ts.Ledger, lock.NewMemory(), ts.Clock).WithPublisher(ts.Events.publish)

	for _, identity := range []string{client, outsider} {
		_, err := ts.Book.Fund(ts.ctx, identity, startingBalance)
		require.NoError(t, err)
	}
	return ts
}

func (ts *TestSetup) balance(t *testing.T, identity string) int64 {
	t.Helper()
	account, err := ts.Book.Balance(ts.ctx, identity)
	require.NoError(t, err)
	return account.Balance
}

// postJob posts a job by client with the given reward
func (ts *TestSetup) postJob(t *testing.T, reward int64) uint {
	t.Helper()
	id, err := ts.Escrow.PostJob(ts.ctx, client, "Landing page", 7, reward)
	require.NoError(t, err)
	return id
}

// assignedJob returns a job assigned to freelancer for durationDays
func (ts *TestSetup) assignedJob(t *testing.T, reward int64, durationDays uint32) uint {
	t.Helper()
	id := ts.postJob(t, reward)
	require.NoError(t, ts.Escrow.ApplyForJob(ts.ctx, id, freelancer))
	require.NoError(t, ts.Escrow.SelectFreelancer(ts.ctx, id, client, freelancer, durationDays))
	return id
}

// completedJob returns a job assigned to freelancer and marked completed
func (ts *TestSetup) completedJob(t *testing.T, reward int64) uint {
	t.Helper()
	id := ts.assignedJob(t, reward, 7)
	require.NoError(t, ts.Escrow.MarkCompleted(ts.ctx, id, freelancer))
	return id
}

// failingWallet debits normally but fails every credit
type failingWallet struct {
	Wallet
	creditCalls int
}

func (w *failingWallet) Credit(_ context.Context, _ *gorm.DB, identity string, _ int64) error {
	w.creditCalls++
	return apperrors.Wrapf(errors.New("payout rail unavailable"), apperrors.ErrCodeTransferFailure, "cannot pay %s", identity)
}
