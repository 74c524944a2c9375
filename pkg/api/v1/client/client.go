// Package client provides the API client for interacting with the TrustGig API
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/celestiaorg/trustgig/internal/db/models"
	"github.com/celestiaorg/trustgig/internal/services"
	"github.com/celestiaorg/trustgig/internal/types"
	"github.com/celestiaorg/trustgig/pkg/api/v1/handlers"
	"github.com/celestiaorg/trustgig/pkg/api/v1/middleware"
	"github.com/celestiaorg/trustgig/pkg/api/v1/routes"
)

const (
	// DefaultTimeout is the default timeout for API requests
	DefaultTimeout = 30 * time.Second
	// DefaultRecentWindow is how many jobs RecentJobs reads below the counter
	DefaultRecentWindow = models.DefaultRecentWindow

	recentJobsConcurrency = 8
)

// Client is the interface for API client
type Client interface {
	// Health Check
	HealthCheck(ctx context.Context) (map[string]string, error)

	// Job lifecycle
	PostJob(ctx context.Context, params handlers.JobPostParams) (uint, error)
	ApplyForJob(ctx context.Context, id uint) (models.JobView, error)
	SelectFreelancer(ctx context.Context, params handlers.JobSelectParams) (models.JobView, error)
	CancelJob(ctx context.Context, id uint) (models.JobView, error)
	MarkCompleted(ctx context.Context, id uint) (models.JobView, error)
	RequestRevision(ctx context.Context, id uint) (models.JobView, error)
	ApproveAndPay(ctx context.Context, id uint) (models.JobView, error)
	FreelancerRefund(ctx context.Context, id uint) (models.JobView, error)
	Refund(ctx context.Context, id uint) (models.JobView, error)

	// Job reads
	GetJob(ctx context.Context, id uint) (models.JobView, error)
	JobCounter(ctx context.Context) (uint, error)
	ListJobs(ctx context.Context, params handlers.JobListParams) (types.ListResponse[models.JobView], error)
	RecentJobs(ctx context.Context, window int) ([]models.JobView, error)
	Stats(ctx context.Context) (services.Stats, error)
	LedgerEntries(ctx context.Context, id uint) ([]models.LedgerEntry, error)

	// Accounts
	Balance(ctx context.Context, identity string) (models.Account, error)
	Fund(ctx context.Context, identity string, amount int64) (models.Account, error)
}

var _ Client = &APIClient{}

// Options contains configuration options for the API client
type Options struct {
	// BaseURL is the base URL of the API
	BaseURL string

	// Timeout is the request timeout
	Timeout time.Duration

	// Caller is the identity sent with every request
	Caller string
}

// DefaultOptions returns the default client options
func DefaultOptions() *Options {
	return &Options{
		BaseURL: routes.DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
}

// APIClient implements the Client interface
type APIClient struct {
	baseURL string
	timeout time.Duration
	caller  string
}

// NewClient creates a new API client with the given options
func NewClient(opts *Options) (Client, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &APIClient{
		baseURL: opts.BaseURL,
		timeout: timeout,
		caller:  opts.Caller,
	}, nil
}

// APIError is a failure reported by the server
type APIError struct {
	// StatusCode is the HTTP status of the response
	StatusCode int
	// Code is the escrow error code (e.g. "invalid_state"), empty for transport level failures
	Code string
	// Message is the server's error message
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("RPC error: %s (code: %d, %s)", e.Message, e.StatusCode, e.Code)
	}
	return fmt.Sprintf("RPC error: %s (code: %d)", e.Message, e.StatusCode)
}

// ErrorCode returns the escrow error code carried by err, or "" when err is not an APIError
func ErrorCode(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

// createAgent creates a new Fiber Agent for the given method and endpoint
func (c *APIClient) createAgent(ctx context.Context, method, endpoint string, body interface{}) (*fiber.Agent, error) {
	fullURL := c.baseURL + endpoint

	var agent *fiber.Agent
	switch method {
	case http.MethodGet:
		agent = fiber.Get(fullURL)
	case http.MethodPost:
		agent = fiber.Post(fullURL)
	default:
		return nil, fmt.Errorf("unsupported HTTP method: %s", method)
	}

	// Set timeout from context or client default
	if deadline, ok := ctx.Deadline(); ok {
		agent.Timeout(time.Until(deadline))
	} else {
		agent.Timeout(c.timeout)
	}

	agent.Set("Content-Type", "application/json")
	agent.Set("Accept", "application/json")
	if c.caller != "" {
		agent.Set(middleware.CallerHeader, c.caller)
	}

	if body != nil {
		agent.JSON(body)
	}

	return agent, nil
}

// doRequest sends the HTTP request and processes the response
func (c *APIClient) doRequest(agent *fiber.Agent, v interface{}) error {
	statusCode, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("error sending request: %w", errs[0])
	}

	if statusCode < 200 || statusCode >= 300 {
		var errResp types.ErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
			return &APIError{StatusCode: statusCode, Code: errResp.Code, Message: errResp.Error}
		}
		return &APIError{StatusCode: statusCode, Message: string(body)}
	}

	if v != nil && len(body) > 0 {
		if err := json.Unmarshal(body, v); err != nil {
			return fmt.Errorf("error decoding response: %w", err)
		}
	}

	return nil
}

// executeRequest creates an agent, sends the request, and processes the response
func (c *APIClient) executeRequest(ctx context.Context, method, endpoint string, body, response interface{}) error {
	agent, err := c.createAgent(ctx, method, endpoint, body)
	if err != nil {
		return err
	}

	return c.doRequest(agent, response)
}

// executeRPC performs the actual RPC call
func (c *APIClient) executeRPC(ctx context.Context, method string, params interface{}, result interface{}) error {
	requestBody := handlers.RPCRequest{
		Method: method,
		Params: params,
		ID:     uuid.NewString(),
	}

	agent, err := c.createAgent(ctx, http.MethodPost, routes.RPCURL(), requestBody)
	if err != nil {
		return err
	}

	statusCode, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("error sending RPC request: %w", errs[0])
	}

	var rpcResp handlers.RPCResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		if statusCode < 200 || statusCode >= 300 {
			return &APIError{StatusCode: statusCode, Message: string(body)}
		}
		return fmt.Errorf("failed to unmarshal RPC response body: %w", err)
	}

	if rpcResp.Error != nil {
		apiErr := &APIError{StatusCode: rpcResp.Error.Code, Message: rpcResp.Error.Message}
		if code, ok := rpcResp.Error.Data.(string); ok {
			apiErr.Code = code
		}
		return apiErr
	}

	if statusCode < 200 || statusCode >= 300 {
		return &APIError{StatusCode: statusCode, Message: string(body)}
	}

	if !rpcResp.Success {
		return fmt.Errorf("RPC call failed without specific error details")
	}

	if rpcResp.ID != requestBody.ID {
		return fmt.Errorf("RPC response id %q does not match request id %q", rpcResp.ID, requestBody.ID)
	}

	if result == nil {
		return nil
	}

	// rpcResp.Data is decoded generically; round trip it into the target type.
	dataBytes, err := json.Marshal(rpcResp.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal RPC data field: %w", err)
	}

	if err := json.Unmarshal(dataBytes, result); err != nil {
		return fmt.Errorf("failed to unmarshal RPC data into result: %w", err)
	}

	return nil
}

// HealthCheck checks the health of the API
func (c *APIClient) HealthCheck(ctx context.Context) (map[string]string, error) {
	var response map[string]string
	if err := c.executeRequest(ctx, http.MethodGet, routes.HealthCheckURL(), nil, &response); err != nil {
		return map[string]string{}, err
	}
	return response, nil
}

// PostJob posts a job funded by the caller and returns its id
func (c *APIClient) PostJob(ctx context.Context, params handlers.JobPostParams) (uint, error) {
	var response types.JobIDResponse
	if err := c.executeRPC(ctx, handlers.JobPost, params, &response); err != nil {
		return 0, err
	}
	return response.ID, nil
}

// ApplyForJob adds the caller to the applicants of an open job
func (c *APIClient) ApplyForJob(ctx context.Context, id uint) (models.JobView, error) {
	return c.jobRPC(ctx, handlers.JobApply, handlers.JobIDParams{JobID: id})
}

// SelectFreelancer assigns an applicant to the caller's job
func (c *APIClient) SelectFreelancer(ctx context.Context, params handlers.JobSelectParams) (models.JobView, error) {
	return c.jobRPC(ctx, handlers.JobSelect, params)
}

// CancelJob cancels an open job and refunds the caller
func (c *APIClient) CancelJob(ctx context.Context, id uint) (models.JobView, error) {
	return c.jobRPC(ctx, handlers.JobCancel, handlers.JobIDParams{JobID: id})
}

// MarkCompleted marks the caller's assigned job as delivered
func (c *APIClient) MarkCompleted(ctx context.Context, id uint) (models.JobView, error) {
	return c.jobRPC(ctx, handlers.JobComplete, handlers.JobIDParams{JobID: id})
}

// RequestRevision sends a completed job back to the freelancer
func (c *APIClient) RequestRevision(ctx context.Context, id uint) (models.JobView, error) {
	return c.jobRPC(ctx, handlers.JobRevision, handlers.JobIDParams{JobID: id})
}

// ApproveAndPay releases the escrow to the freelancer
func (c *APIClient) ApproveAndPay(ctx context.Context, id uint) (models.JobView, error) {
	return c.jobRPC(ctx, handlers.JobPay, handlers.JobIDParams{JobID: id})
}

// FreelancerRefund lets the assigned freelancer return the escrow to the client
func (c *APIClient) FreelancerRefund(ctx context.Context, id uint) (models.JobView, error) {
	return c.jobRPC(ctx, handlers.JobWithdraw, handlers.JobIDParams{JobID: id})
}

// Refund returns the escrow to the client once the deadline has passed
func (c *APIClient) Refund(ctx context.Context, id uint) (models.JobView, error) {
	return c.jobRPC(ctx, handlers.JobRefund, handlers.JobIDParams{JobID: id})
}

func (c *APIClient) jobRPC(ctx context.Context, method string, params interface{}) (models.JobView, error) {
	var job models.JobView
	if err := c.executeRPC(ctx, method, params, &job); err != nil {
		return models.JobView{}, err
	}
	return job, nil
}

// GetJob retrieves a job by ID
func (c *APIClient) GetJob(ctx context.Context, id uint) (models.JobView, error) {
	var job models.JobView
	if err := c.executeRequest(ctx, http.MethodGet, routes.GetJobURL(id), nil, &job); err != nil {
		return models.JobView{}, err
	}
	return job, nil
}

// JobCounter returns the number of jobs ever created
func (c *APIClient) JobCounter(ctx context.Context) (uint, error) {
	var response types.CounterResponse
	if err := c.executeRequest(ctx, http.MethodGet, routes.GetJobCounterURL(), nil, &response); err != nil {
		return 0, err
	}
	return response.Counter, nil
}

// ListJobs lists a filtered window of recent jobs
func (c *APIClient) ListJobs(ctx context.Context, params handlers.JobListParams) (types.ListResponse[models.JobView], error) {
	var response types.ListResponse[models.JobView]
	if err := c.executeRPC(ctx, handlers.JobList, params, &response); err != nil {
		return types.ListResponse[models.JobView]{}, err
	}
	return response, nil
}

// RecentJobs reads the window most recent jobs one by one, from the counter downward.
// The result is ordered newest first.
func (c *APIClient) RecentJobs(ctx context.Context, window int) ([]models.JobView, error) {
	if window <= 0 {
		window = DefaultRecentWindow
	}

	counter, err := c.JobCounter(ctx)
	if err != nil {
		return nil, err
	}
	if counter == 0 {
		return []models.JobView{}, nil
	}

	n := window
	if uint(n) > counter {
		n = int(counter)
	}
	jobs := make([]models.JobView, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(recentJobsConcurrency)
	for i := 0; i < n; i++ {
		id := counter - uint(i)
		g.Go(func() error {
			job, err := c.GetJob(gctx, id)
			if err != nil {
				return fmt.Errorf("failed to get job %d: %w", id, err)
			}
			jobs[i] = job
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return jobs, nil
}

// Stats returns the dashboard counters for the caller
func (c *APIClient) Stats(ctx context.Context) (services.Stats, error) {
	var stats services.Stats
	if err := c.executeRPC(ctx, handlers.JobStats, nil, &stats); err != nil {
		return services.Stats{}, err
	}
	return stats, nil
}

// LedgerEntries lists the escrow movements of a job
func (c *APIClient) LedgerEntries(ctx context.Context, id uint) ([]models.LedgerEntry, error) {
	var response types.ListResponse[models.LedgerEntry]
	if err := c.executeRPC(ctx, handlers.JobLedger, handlers.JobIDParams{JobID: id}, &response); err != nil {
		return nil, err
	}
	return response.Rows, nil
}

// Balance returns the account of identity, the caller's when identity is empty
func (c *APIClient) Balance(ctx context.Context, identity string) (models.Account, error) {
	var account models.Account
	if err := c.executeRPC(ctx, handlers.AccountBalance, handlers.AccountParams{Identity: identity}, &account); err != nil {
		return models.Account{}, err
	}
	return account, nil
}

// Fund credits identity from the development faucet
func (c *APIClient) Fund(ctx context.Context, identity string, amount int64) (models.Account, error) {
	var account models.Account
	params := handlers.AccountFundParams{Identity: identity, Amount: amount}
	if err := c.executeRPC(ctx, handlers.AccountFund, params, &account); err != nil {
		return models.Account{}, err
	}
	return account, nil
}
