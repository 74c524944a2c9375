package test

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/celestiaorg/trustgig/internal/db/repos"
	"github.com/celestiaorg/trustgig/internal/events"
	"github.com/celestiaorg/trustgig/internal/services"
	"github.com/celestiaorg/trustgig/internal/wallet"
	"github.com/celestiaorg/trustgig/pkg/api/v1/client"
)

// DefaultTestTimeout is the default timeout for test suites.
const DefaultTestTimeout = 30 * time.Second

// Epoch is the time the suite clock starts at.
var Epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// Suite encapsulates all components needed for end-to-end testing.
type Suite struct {
	t *testing.T

	// Server components
	App    *fiber.App
	Server *httptest.Server

	// Client components. APIClient sends no caller identity; use ClientFor to act as someone.
	APIClient client.Client

	// Database components
	DB         *gorm.DB
	JobRepo    *repos.JobRepository
	LedgerRepo *repos.LedgerRepository
	Book       *wallet.Book

	// Engine components
	Escrow *services.Escrow
	Clock  *services.FixedClock
	Events *Recorder

	ctx        context.Context
	cancelFunc context.CancelFunc
	cleanup    func()
}

// NewSuite creates a new test suite.
// The suite must be cleaned up after use by calling Cleanup.
func NewSuite(t *testing.T) *Suite {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), DefaultTestTimeout)

	suite := &Suite{
		t:          t,
		ctx:        ctx,
		cancelFunc: cancel,
		Clock:      services.NewFixedClock(Epoch),
		Events:     &Recorder{},
	}
	suite.cleanup = func() {
		if suite.cancelFunc != nil {
			suite.cancelFunc()
		}
	}

	SetupTestDB(suite, nil)
	SetupServer(suite)

	return suite
}

// Cleanup tears down the test suite, releasing all resources.
// This should be deferred immediately after creating the suite.
func (s *Suite) Cleanup() {
	if s.cleanup != nil {
		s.cleanup()
	}
}

// T returns the testing.T instance for this suite
func (s *Suite) T() *testing.T {
	return s.t
}

// Context returns the suite's context, which is automatically
// canceled when the suite is cleaned up.
func (s *Suite) Context() context.Context {
	return s.ctx
}

// Require returns a require.Assertions instance for this suite.
func (s *Suite) Require() *require.Assertions {
	return require.New(s.t)
}

// Fund credits identity directly in the book
func (s *Suite) Fund(identity string, amount int64) {
	_, err := s.Book.Fund(s.ctx, identity, amount)
	s.Require().NoError(err, "Failed to fund %s", identity)
}

// Balance returns the balance of identity as stored in the book
func (s *Suite) Balance(identity string) int64 {
	account, err := s.Book.Balance(s.ctx, identity)
	s.Require().NoError(err, "Failed to read balance of %s", identity)
	return account.Balance
}

// Retry retries a function until it succeeds or the number of retries is reached.
func (s *Suite) Retry(fn func() error, retries int, interval time.Duration) (err error) {
	for i := 0; i < retries; i++ {
		err = fn()
		if err == nil {
			return nil
		}
		time.Sleep(interval)
	}
	return
}

// Recorder captures the lifecycle events the escrow publishes
type Recorder struct {
	mu     sync.Mutex
	events []events.Event
}

// Publish records e
func (r *Recorder) Publish(e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Types returns the types of the recorded events for job id, in publish order
func (r *Recorder) Types(id uint) []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.EventType
	for _, e := range r.events {
		if e.JobID == id {
			out = append(out, e.Type)
		}
	}
	return out
}
