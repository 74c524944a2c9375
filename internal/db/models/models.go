// Package models defines the persisted escrow entities
package models

const (
	// DefaultLimit is the max number of rows that are retrieved from the DB per listing call
	DefaultLimit = 50
	// DefaultRecentWindow is how many of the most recent jobs a listing covers by default
	DefaultRecentWindow = 20
)

// ListOptions represents the bounded recent-window read over the job arena.
// Jobs are enumerated from the counter downward; filters are applied inside the window.
type ListOptions struct {
	Limit       int        `json:"limit"`                 // Size of the window (number of ids scanned)
	Before      uint       `json:"before,omitempty"`      // Start below this id; zero means from the counter
	Status      *JobStatus `json:"status,omitempty"`      // Only jobs in this status
	Client      string     `json:"client,omitempty"`      // Only jobs posted by this identity
	Participant string     `json:"participant,omitempty"` // Only jobs where this identity is the freelancer or an applicant
}

// Window returns the inclusive id range [bottom, top] scanned for the given job counter.
// top is zero when there is nothing to scan.
func (o *ListOptions) Window(counter uint) (bottom, top uint) {
	size := DefaultRecentWindow
	top = counter
	if o != nil {
		if o.Limit > 0 {
			size = o.Limit
		}
		if o.Before > 0 && o.Before-1 < top {
			top = o.Before - 1
		}
	}
	if size > DefaultLimit {
		size = DefaultLimit
	}
	if top == 0 {
		return 0, 0
	}
	bottom = 1
	if top > uint(size) {
		bottom = top - uint(size) + 1
	}
	return bottom, top
}
