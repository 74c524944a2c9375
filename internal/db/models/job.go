package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Job field names used in queries and updates
const (
	JobStatusField     = "status"
	JobAmountField     = "amount"
	JobFreelancerField = "freelancer"
	JobDeadlineField   = "deadline"
	JobDurationField   = "duration_days"
	JobClientField     = "client"
)

// JobStatus represents the position of a job in the escrow lifecycle
type JobStatus int

// Job status constants
const (
	// JobStatusOpen indicates the job accepts applicants; the reward is deposited but not locked
	JobStatusOpen JobStatus = iota
	// JobStatusAssigned indicates a freelancer was selected and the reward is locked
	JobStatusAssigned
	// JobStatusCompleted indicates the freelancer delivered and awaits the client's decision
	JobStatusCompleted
	// JobStatusPaid indicates the escrow was released to the freelancer (terminal)
	JobStatusPaid
	// JobStatusRefunded indicates the escrow was released back to the client (terminal)
	JobStatusRefunded
)

var jobStatusNames = []string{
	"open",
	"assigned",
	"completed",
	"paid",
	"refunded",
}

// ParseJobStatus converts a string representation of a job status to JobStatus type
func ParseJobStatus(str string) (JobStatus, error) {
	for i, status := range jobStatusNames {
		if status == str {
			return JobStatus(i), nil
		}
	}
	return JobStatus(0), fmt.Errorf("invalid job status: %s", str)
}

func (s JobStatus) String() string {
	if s < 0 || int(s) >= len(jobStatusNames) {
		return fmt.Sprintf("status(%d)", int(s))
	}
	return jobStatusNames[s]
}

// IsTerminal reports whether no further transition is possible
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusPaid || s == JobStatusRefunded
}

// HoldsEscrow reports whether a job in this status has a locked, releasable amount
func (s JobStatus) HoldsEscrow() bool {
	return s == JobStatusAssigned || s == JobStatusCompleted
}

// MarshalJSON implements the json.Marshaler interface for JobStatus
func (s JobStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for JobStatus
func (s *JobStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	status, err := ParseJobStatus(str)
	if err != nil {
		return err
	}

	*s = status
	return nil
}

// Job is a paid job posted by a client. Jobs are never deleted; the id is
// allocated from the job counter and is dense across the whole store.
type Job struct {
	ID           uint        `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Client       string      `json:"client" gorm:"not null;index"`
	Freelancer   string      `json:"freelancer" gorm:"index"`
	Description  string      `json:"description" gorm:"type:text;not null"`
	Reward       int64       `json:"reward" gorm:"not null"`
	Amount       int64       `json:"amount" gorm:"not null;default:0"`
	DurationDays uint32      `json:"duration" gorm:"not null"`
	Deadline     *time.Time  `json:"deadline,omitempty" gorm:"index"`
	Status       JobStatus   `json:"status" gorm:"not null;index"`
	Applicants   []Applicant `json:"-" gorm:"foreignKey:JobID"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Validate checks the entity invariants that must hold whatever the status
func (j *Job) Validate() error {
	if j.ID == 0 {
		return fmt.Errorf("job id must be positive")
	}
	if j.Client == "" {
		return fmt.Errorf("job client cannot be empty")
	}
	if j.Reward <= 0 {
		return fmt.Errorf("job reward must be positive")
	}
	if j.Freelancer != "" && j.Freelancer == j.Client {
		return fmt.Errorf("job freelancer cannot be the client")
	}
	if j.Status.HoldsEscrow() != (j.Amount > 0) {
		return fmt.Errorf("job amount %d inconsistent with status %s", j.Amount, j.Status)
	}
	if j.Status == JobStatusOpen && j.Deadline != nil {
		return fmt.Errorf("open job cannot have a deadline")
	}
	return nil
}

// HasApplicant reports whether identity is in the applicant set
func (j *Job) HasApplicant(identity string) bool {
	for _, a := range j.Applicants {
		if a.Identity == identity {
			return true
		}
	}
	return false
}

// ApplicantIdentities returns the applicant set in insertion order
func (j *Job) ApplicantIdentities() []string {
	out := make([]string, 0, len(j.Applicants))
	for _, a := range j.Applicants {
		out = append(out, a.Identity)
	}
	return out
}

// View returns the public read model of the job
func (j *Job) View() JobView {
	return JobView{
		ID:          j.ID,
		Client:      j.Client,
		Freelancer:  j.Freelancer,
		Amount:      j.Amount,
		Reward:      j.Reward,
		Deadline:    j.Deadline,
		Status:      j.Status,
		Description: j.Description,
		Applicants:  j.ApplicantIdentities(),
		Duration:    j.DurationDays,
	}
}

// JobView is the read model returned by getJob
type JobView struct {
	ID          uint       `json:"id"`
	Client      string     `json:"client"`
	Freelancer  string     `json:"freelancer"`
	Amount      int64      `json:"amount"`
	Reward      int64      `json:"reward"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Status      JobStatus  `json:"status"`
	Description string     `json:"description"`
	Applicants  []string   `json:"applicants"`
	Duration    uint32     `json:"duration"`
}

// Applicant is an identity that applied to an open job. The auto-incremented id
// keeps applicants in insertion order.
type Applicant struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	JobID     uint      `json:"job_id" gorm:"not null;uniqueIndex:idx_job_applicant"`
	Identity  string    `json:"identity" gorm:"not null;uniqueIndex:idx_job_applicant"`
	CreatedAt time.Time `json:"created_at"`
}

// JobCounterName is the name of the counter row that allocates job ids
const JobCounterName = "jobs"

// Counter is a named, monotonically increasing sequence
type Counter struct {
	Name  string `gorm:"primaryKey"`
	Value uint   `gorm:"not null;default:0"`
}
