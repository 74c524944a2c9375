package handlers

import (
	"fmt"
	"strings"

	"github.com/celestiaorg/trustgig/internal/db/models"
	"github.com/celestiaorg/trustgig/internal/services"
)

// JobPostParams defines the parameters for posting a job
type JobPostParams struct {
	Description  string `json:"description"`
	DurationDays uint32 `json:"duration_days"`
	Payment      int64  `json:"payment"`
}

// Validate validates the parameters for posting a job
func (p JobPostParams) Validate() error {
	if p.Payment <= 0 {
		return fmt.Errorf("%s", strings.ToLower(ErrMsgJobPaymentInvalid))
	}
	if !services.ValidDuration(p.DurationDays) {
		return fmt.Errorf("%s", strings.ToLower(ErrMsgJobDurationInvalid))
	}
	return nil
}

// JobIDParams identifies the job an operation targets. Job ids start at 1; zero is
// left to the store, which reports it as not found.
type JobIDParams struct {
	JobID uint `json:"job_id"`
}

// JobSelectParams defines the parameters for selecting a freelancer
type JobSelectParams struct {
	JobID        uint   `json:"job_id"`
	Freelancer   string `json:"freelancer"`
	DurationDays uint32 `json:"duration_days"`
}

// Validate validates the parameters for selecting a freelancer
func (p JobSelectParams) Validate() error {
	if p.Freelancer == "" {
		return fmt.Errorf("%s", strings.ToLower(ErrMsgFreelancerRequired))
	}
	if !services.ValidDuration(p.DurationDays) {
		return fmt.Errorf("%s", strings.ToLower(ErrMsgJobDurationInvalid))
	}
	return nil
}

// JobListParams defines the parameters for listing recent jobs
type JobListParams struct {
	Filter string `json:"filter,omitempty"`
	Window int    `json:"window,omitempty"`
	Before uint   `json:"before,omitempty"`
}

// Validate validates the parameters for listing recent jobs
func (p JobListParams) Validate() error {
	switch services.JobFilter(p.Filter) {
	case "", services.FilterAll, services.FilterMarketplace, services.FilterHires, services.FilterGigs:
	default:
		return fmt.Errorf("%s: %s", strings.ToLower(ErrMsgJobFilterInvalid), p.Filter)
	}
	if p.Window < 0 || p.Window > models.DefaultLimit {
		return fmt.Errorf("%s", strings.ToLower(ErrMsgJobWindowInvalid))
	}
	return nil
}

// AccountParams defines the parameters for reading a balance; the caller is used when Identity is empty
type AccountParams struct {
	Identity string `json:"identity,omitempty"`
}

// AccountFundParams defines the parameters for funding an account
type AccountFundParams struct {
	Identity string `json:"identity,omitempty"`
	Amount   int64  `json:"amount"`
}

// Validate validates the parameters for funding an account
func (p AccountFundParams) Validate() error {
	if p.Amount <= 0 {
		return fmt.Errorf("%s", strings.ToLower(ErrMsgAmountInvalid))
	}
	return nil
}
