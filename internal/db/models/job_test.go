package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStatus(t *testing.T) {
	tests := []struct {
		status      JobStatus
		stringValue string
		terminal    bool
		holds       bool
	}{
		{JobStatusOpen, "open", false, false},
		{JobStatusAssigned, "assigned", false, true},
		{JobStatusCompleted, "completed", false, true},
		{JobStatusPaid, "paid", true, false},
		{JobStatusRefunded, "refunded", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.stringValue, func(t *testing.T) {
			assert.Equal(t, tt.stringValue, tt.status.String())
			assert.Equal(t, tt.terminal, tt.status.IsTerminal())
			assert.Equal(t, tt.holds, tt.status.HoldsEscrow())

			parsed, err := ParseJobStatus(tt.stringValue)
			require.NoError(t, err)
			assert.Equal(t, tt.status, parsed)

			data, err := json.Marshal(tt.status)
			require.NoError(t, err)
			assert.Equal(t, `"`+tt.stringValue+`"`, string(data))
		})
	}

	_, err := ParseJobStatus("disputed")
	assert.Error(t, err)

	var s JobStatus
	assert.Error(t, json.Unmarshal([]byte(`"disputed"`), &s))
	assert.Error(t, json.Unmarshal([]byte(`3`), &s))
	assert.Equal(t, "status(9)", JobStatus(9).String())
}

func TestJobValidate(t *testing.T) {
	deadline := time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)
	valid := func() Job {
		return Job{ID: 1, Client: "0xclient", Description: "Landing page", Reward: 100, DurationDays: 7}
	}

	tests := []struct {
		name    string
		mutate  func(j *Job)
		wantErr string
	}{
		{"open job", func(_ *Job) {}, ""},
		{"assigned job", func(j *Job) {
			j.Status, j.Freelancer, j.Amount, j.Deadline = JobStatusAssigned, "0xfree", 100, &deadline
		}, ""},
		{"paid job", func(j *Job) {
			j.Status, j.Freelancer, j.Deadline = JobStatusPaid, "0xfree", &deadline
		}, ""},
		{"missing id", func(j *Job) { j.ID = 0 }, "id must be positive"},
		{"missing client", func(j *Job) { j.Client = "" }, "client cannot be empty"},
		{"zero reward", func(j *Job) { j.Reward = 0 }, "reward must be positive"},
		{"client is freelancer", func(j *Job) { j.Freelancer = j.Client }, "cannot be the client"},
		{"assigned without amount", func(j *Job) { j.Status = JobStatusAssigned }, "inconsistent"},
		{"refunded with amount", func(j *Job) { j.Status, j.Amount = JobStatusRefunded, 100 }, "inconsistent"},
		{"open with deadline", func(j *Job) { j.Deadline = &deadline }, "cannot have a deadline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := valid()
			tt.mutate(&job)
			err := job.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestJobView(t *testing.T) {
	job := Job{
		ID:           4,
		Client:       "0xclient",
		Description:  "Logo",
		Reward:       250,
		DurationDays: 3,
		Applicants: []Applicant{
			{ID: 2, JobID: 4, Identity: "0xa"},
			{ID: 5, JobID: 4, Identity: "0xb"},
		},
	}

	view := job.View()
	assert.Equal(t, []string{"0xa", "0xb"}, view.Applicants)
	assert.Equal(t, uint32(3), view.Duration)
	assert.Nil(t, view.Deadline)
	assert.True(t, job.HasApplicant("0xb"))
	assert.False(t, job.HasApplicant("0xc"))

	data, err := json.Marshal(view)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "deadline")
	assert.Contains(t, string(data), `"status":"open"`)

	empty := (&Job{}).View()
	assert.NotNil(t, empty.Applicants)
}

func TestLedgerEntryValidate(t *testing.T) {
	entry := LedgerEntry{JobID: 1, Kind: LedgerEntryDeposit, Counterparty: "0xclient", Amount: 10}
	assert.NoError(t, entry.Validate())

	entry.Kind = LedgerEntryRelease
	assert.Error(t, entry.Validate(), "release needs a reason")
	entry.Reason = ReleaseReasonPayment
	assert.NoError(t, entry.Validate())

	entry.Amount = 0
	assert.Error(t, entry.Validate())

	entry = LedgerEntry{JobID: 1, Kind: "mint", Counterparty: "0xclient", Amount: 10}
	assert.Error(t, entry.Validate())

	require.NoError(t, (&LedgerEntry{JobID: 1, Kind: LedgerEntryDeposit, Counterparty: "0xc", Amount: 1}).BeforeCreate(nil))
}

func TestListOptionsWindow(t *testing.T) {
	tests := []struct {
		name    string
		opts    *ListOptions
		counter uint
		bottom  uint
		top     uint
	}{
		{name: "empty store", opts: nil, counter: 0, bottom: 0, top: 0},
		{name: "nil options use the default window", opts: nil, counter: 45, bottom: 26, top: 45},
		{name: "window larger than the store", opts: &ListOptions{Limit: 10}, counter: 3, bottom: 1, top: 3},
		{name: "before moves the top", opts: &ListOptions{Limit: 5, Before: 11}, counter: 40, bottom: 6, top: 10},
		{name: "before above the counter is ignored", opts: &ListOptions{Limit: 5, Before: 100}, counter: 7, bottom: 3, top: 7},
		{name: "before one scans nothing", opts: &ListOptions{Before: 1}, counter: 7, bottom: 0, top: 0},
		{name: "limit is capped", opts: &ListOptions{Limit: 500}, counter: 200, bottom: 151, top: 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bottom, top := tt.opts.Window(tt.counter)
			assert.Equal(t, tt.bottom, bottom)
			assert.Equal(t, tt.top, top)
		})
	}
}
