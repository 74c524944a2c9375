package services

import (
	"sync"
	"time"

	"github.com/celestiaorg/trustgig/internal/db/models"
)

// Day is the length of one unit of job duration
const Day = 24 * time.Hour

// MaxDurationDays bounds job durations so deadlines stay representable
const MaxDurationDays = 36500

// ValidDuration reports whether durationDays is within [1, MaxDurationDays]
func ValidDuration(durationDays uint32) bool {
	return durationDays >= 1 && durationDays <= MaxDurationDays
}

// Clock is the time source of the escrow
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock
type RealClock struct{}

// Now returns the current UTC time truncated to seconds
func (RealClock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// FixedClock is a settable clock for tests and replays
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock creates a clock stopped at t
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{now: t.UTC()}
}

// Now returns the clock's current time
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t.UTC()
}

// Advance moves the clock forward by d
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// DeadlineFor returns the deadline of an assignment made at assignedAt
func DeadlineFor(assignedAt time.Time, durationDays uint32) time.Time {
	return assignedAt.Add(time.Duration(durationDays) * Day)
}

// IsLate reports whether now is strictly after the job's deadline.
// Jobs without a deadline are never late.
func IsLate(job *models.Job, now time.Time) bool {
	if job.Deadline == nil {
		return false
	}
	return now.After(*job.Deadline)
}
