// Package mock provides a function-field implementation of the API client for tests
package mock

import (
	"context"
	"sync"

	"github.com/celestiaorg/trustgig/internal/db/models"
	"github.com/celestiaorg/trustgig/internal/services"
	"github.com/celestiaorg/trustgig/internal/types"
	"github.com/celestiaorg/trustgig/pkg/api/v1/client"
	"github.com/celestiaorg/trustgig/pkg/api/v1/handlers"
)

var _ client.Client = &MockClient{}

// Call is a recorded invocation
type Call struct {
	Method string
	Args   []interface{}
}

// MockClient implements the Client interface for testing.
// Unset function fields return zero values and no error.
type MockClient struct {
	HealthCheckFn      func(ctx context.Context) (map[string]string, error)
	PostJobFn          func(ctx context.Context, params handlers.JobPostParams) (uint, error)
	ApplyForJobFn      func(ctx context.Context, id uint) (models.JobView, error)
	SelectFreelancerFn func(ctx context.Context, params handlers.JobSelectParams) (models.JobView, error)
	CancelJobFn        func(ctx context.Context, id uint) (models.JobView, error)
	MarkCompletedFn    func(ctx context.Context, id uint) (models.JobView, error)
	RequestRevisionFn  func(ctx context.Context, id uint) (models.JobView, error)
	ApproveAndPayFn    func(ctx context.Context, id uint) (models.JobView, error)
	FreelancerRefundFn func(ctx context.Context, id uint) (models.JobView, error)
	RefundFn           func(ctx context.Context, id uint) (models.JobView, error)
	GetJobFn           func(ctx context.Context, id uint) (models.JobView, error)
	JobCounterFn       func(ctx context.Context) (uint, error)
	ListJobsFn         func(ctx context.Context, params handlers.JobListParams) (types.ListResponse[models.JobView], error)
	RecentJobsFn       func(ctx context.Context, window int) ([]models.JobView, error)
	StatsFn            func(ctx context.Context) (services.Stats, error)
	LedgerEntriesFn    func(ctx context.Context, id uint) ([]models.LedgerEntry, error)
	BalanceFn          func(ctx context.Context, identity string) (models.Account, error)
	FundFn             func(ctx context.Context, identity string, amount int64) (models.Account, error)

	mu    sync.Mutex
	calls []Call
}

func (m *MockClient) record(method string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Method: method, Args: args})
}

// Calls returns the recorded invocations in order
func (m *MockClient) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

func (m *MockClient) jobCall(ctx context.Context, method string, fn func(context.Context, uint) (models.JobView, error), id uint) (models.JobView, error) {
	m.record(method, id)
	if fn != nil {
		return fn(ctx, id)
	}
	return models.JobView{ID: id}, nil
}

// HealthCheck implements Client
func (m *MockClient) HealthCheck(ctx context.Context) (map[string]string, error) {
	m.record("HealthCheck")
	if m.HealthCheckFn != nil {
		return m.HealthCheckFn(ctx)
	}
	return map[string]string{"status": "healthy"}, nil
}

// PostJob implements Client
func (m *MockClient) PostJob(ctx context.Context, params handlers.JobPostParams) (uint, error) {
	m.record("PostJob", params)
	if m.PostJobFn != nil {
		return m.PostJobFn(ctx, params)
	}
	return 0, nil
}

// ApplyForJob implements Client
func (m *MockClient) ApplyForJob(ctx context.Context, id uint) (models.JobView, error) {
	return m.jobCall(ctx, "ApplyForJob", m.ApplyForJobFn, id)
}

// SelectFreelancer implements Client
func (m *MockClient) SelectFreelancer(ctx context.Context, params handlers.JobSelectParams) (models.JobView, error) {
	m.record("SelectFreelancer", params)
	if m.SelectFreelancerFn != nil {
		return m.SelectFreelancerFn(ctx, params)
	}
	return models.JobView{ID: params.JobID, Freelancer: params.Freelancer}, nil
}

// CancelJob implements Client
func (m *MockClient) CancelJob(ctx context.Context, id uint) (models.JobView, error) {
	return m.jobCall(ctx, "CancelJob", m.CancelJobFn, id)
}

// MarkCompleted implements Client
func (m *MockClient) MarkCompleted(ctx context.Context, id uint) (models.JobView, error) {
	return m.jobCall(ctx, "MarkCompleted", m.MarkCompletedFn, id)
}

// RequestRevision implements Client
func (m *MockClient) RequestRevision(ctx context.Context, id uint) (models.JobView, error) {
	return m.jobCall(ctx, "RequestRevision", m.RequestRevisionFn, id)
}

// ApproveAndPay implements Client
func (m *MockClient) ApproveAndPay(ctx context.Context, id uint) (models.JobView, error) {
	return m.jobCall(ctx, "ApproveAndPay", m.ApproveAndPayFn, id)
}

// FreelancerRefund implements Client
func (m *MockClient) FreelancerRefund(ctx context.Context, id uint) (models.JobView, error) {
	return m.jobCall(ctx, "FreelancerRefund", m.FreelancerRefundFn, id)
}

// Refund implements Client
func (m *MockClient) Refund(ctx context.Context, id uint) (models.JobView, error) {
	return m.jobCall(ctx, "Refund", m.RefundFn, id)
}

// GetJob implements Client
func (m *MockClient) GetJob(ctx context.Context, id uint) (models.JobView, error) {
	return m.jobCall(ctx, "GetJob", m.GetJobFn, id)
}

// JobCounter implements Client
func (m *MockClient) JobCounter(ctx context.Context) (uint, error) {
	m.record("JobCounter")
	if m.JobCounterFn != nil {
		return m.JobCounterFn(ctx)
	}
	return 0, nil
}

// ListJobs implements Client
func (m *MockClient) ListJobs(ctx context.Context, params handlers.JobListParams) (types.ListResponse[models.JobView], error) {
	m.record("ListJobs", params)
	if m.ListJobsFn != nil {
		return m.ListJobsFn(ctx, params)
	}
	return types.ListResponse[models.JobView]{Rows: []models.JobView{}}, nil
}

// RecentJobs implements Client
func (m *MockClient) RecentJobs(ctx context.Context, window int) ([]models.JobView, error) {
	m.record("RecentJobs", window)
	if m.RecentJobsFn != nil {
		return m.RecentJobsFn(ctx, window)
	}
	return []models.JobView{}, nil
}

// Stats implements Client
func (m *MockClient) Stats(ctx context.Context) (services.Stats, error) {
	m.record("Stats")
	if m.StatsFn != nil {
		return m.StatsFn(ctx)
	}
	return services.Stats{}, nil
}

// LedgerEntries implements Client
func (m *MockClient) LedgerEntries(ctx context.Context, id uint) ([]models.LedgerEntry, error) {
	m.record("LedgerEntries", id)
	if m.LedgerEntriesFn != nil {
		return m.LedgerEntriesFn(ctx, id)
	}
	return []models.LedgerEntry{}, nil
}

// Balance implements Client
func (m *MockClient) Balance(ctx context.Context, identity string) (models.Account, error) {
	m.record("Balance", identity)
	if m.BalanceFn != nil {
		return m.BalanceFn(ctx, identity)
	}
	return models.Account{Identity: identity}, nil
}

// Fund implements Client
func (m *MockClient) Fund(ctx context.Context, identity string, amount int64) (models.Account, error) {
	m.record("Fund", identity, amount)
	if m.FundFn != nil {
		return m.FundFn(ctx, identity, amount)
	}
	return models.Account{Identity: identity, Balance: amount}, nil
}
