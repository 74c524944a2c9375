package handlers

import (
	"context"
	"strconv"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/celestiaorg/trustgig/internal/db/models"
	apperrors "github.com/celestiaorg/trustgig/internal/errors"
	"github.com/celestiaorg/trustgig/internal/services"
	"github.com/celestiaorg/trustgig/internal/types"
)

// JobHandlers contains all job related handlers
type JobHandlers struct {
	escrow *services.Escrow
}

// NewJobHandlers creates the job handlers on top of the escrow engine
func NewJobHandlers(escrow *services.Escrow) *JobHandlers {
	return &JobHandlers{escrow: escrow}
}

// Post handles posting a new job funded by the caller
func (h *JobHandlers) Post(c *fiber.Ctx, caller string, req RPCRequest) error {
	params, err := parseParams[JobPostParams](req)
	if err != nil {
		return respondWithInvalidParams(c, ErrMsgInvalidParams, err, req.ID)
	}

	if err := params.Validate(); err != nil {
		return respondWithInvalidParams(c, "", err, req.ID)
	}

	id, err := h.escrow.PostJob(c.Context(), caller, params.Description, params.DurationDays, params.Payment)
	if err != nil {
		return respondWithAppError(c, err, req.ID)
	}

	return respondWithData(c, types.JobIDResponse{ID: id}, req.ID)
}

// Apply handles a freelancer applying for an open job
func (h *JobHandlers) Apply(c *fiber.Ctx, caller string, req RPCRequest) error {
	params, err := parseParams[JobIDParams](req)
	if err != nil {
		return respondWithInvalidParams(c, ErrMsgInvalidParams, err, req.ID)
	}

	if err := h.escrow.ApplyForJob(c.Context(), params.JobID, caller); err != nil {
		return respondWithAppError(c, err, req.ID)
	}

	return h.respondWithJob(c, params.JobID, req.ID)
}

// Select handles the client choosing a freelancer among the applicants
func (h *JobHandlers) Select(c *fiber.Ctx, caller string, req RPCRequest) error {
	params, err := parseParams[JobSelectParams](req)
	if err != nil {
		return respondWithInvalidParams(c, ErrMsgInvalidParams, err, req.ID)
	}

	if err := params.Validate(); err != nil {
		return respondWithInvalidParams(c, "", err, req.ID)
	}

	if err := h.escrow.SelectFreelancer(c.Context(), params.JobID, caller, params.Freelancer, params.DurationDays); err != nil {
		return respondWithAppError(c, err, req.ID)
	}

	return h.respondWithJob(c, params.JobID, req.ID)
}

// Transition handles the operations that only need a job id and the caller:
// cancel, complete, revision, pay, withdraw and refund.
func (h *JobHandlers) Transition(c *fiber.Ctx, caller string, req RPCRequest) error {
	params, err := parseParams[JobIDParams](req)
	if err != nil {
		return respondWithInvalidParams(c, ErrMsgInvalidParams, err, req.ID)
	}

	var op func(ctx context.Context, id uint, caller string) error
	switch req.Method {
	case JobCancel:
		op = h.escrow.CancelJob
	case JobComplete:
		op = h.escrow.MarkCompleted
	case JobRevision:
		op = h.escrow.RequestRevision
	case JobPay:
		op = h.escrow.ApproveAndPay
	case JobWithdraw:
		op = h.escrow.FreelancerRefund
	case JobRefund:
		op = h.escrow.Refund
	default:
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgUnknownJobMethod, nil, req.ID)
	}

	if err := op(c.Context(), params.JobID, caller); err != nil {
		return respondWithAppError(c, err, req.ID)
	}

	return h.respondWithJob(c, params.JobID, req.ID)
}

// Get handles retrieving a job by id
func (h *JobHandlers) Get(c *fiber.Ctx, _ string, req RPCRequest) error {
	params, err := parseParams[JobIDParams](req)
	if err != nil {
		return respondWithInvalidParams(c, ErrMsgInvalidParams, err, req.ID)
	}

	return h.respondWithJob(c, params.JobID, req.ID)
}

// Counter handles reading the job counter
func (h *JobHandlers) Counter(c *fiber.Ctx, _ string, req RPCRequest) error {
	counter, err := h.escrow.JobCounter(c.Context())
	if err != nil {
		return respondWithAppError(c, err, req.ID)
	}

	return respondWithData(c, types.CounterResponse{Counter: counter}, req.ID)
}

// List handles listing a window of recent jobs from the caller's point of view
func (h *JobHandlers) List(c *fiber.Ctx, caller string, req RPCRequest) error {
	params, err := parseParams[JobListParams](req)
	if err != nil {
		return respondWithInvalidParams(c, ErrMsgInvalidParams, err, req.ID)
	}

	if err := params.Validate(); err != nil {
		return respondWithInvalidParams(c, "", err, req.ID)
	}

	// Pin the window to the counter read here so the pagination matches the rows.
	counter, err := h.escrow.JobCounter(c.Context())
	if err != nil {
		return respondWithAppError(c, err, req.ID)
	}
	before := params.Before
	if before == 0 || before > counter+1 {
		before = counter + 1
	}

	rows, err := h.escrow.RecentJobs(c.Context(), caller, services.JobFilter(params.Filter), params.Window, before)
	if err != nil {
		return respondWithAppError(c, err, req.ID)
	}

	opts := &models.ListOptions{Limit: params.Window, Before: before}
	bottom, top := opts.Window(counter)
	pagination := types.PaginationResponse{Total: len(rows), Top: top}
	if top > 0 {
		pagination.Limit = int(top - bottom + 1)
	}
	if bottom > 1 {
		pagination.Next = bottom
	}

	return respondWithData(c, types.ListResponse[models.JobView]{
		Rows:       rows,
		Pagination: pagination,
	}, req.ID)
}

// Stats handles the dashboard counters
func (h *JobHandlers) Stats(c *fiber.Ctx, caller string, req RPCRequest) error {
	stats, err := h.escrow.Stats(c.Context(), caller)
	if err != nil {
		return respondWithAppError(c, err, req.ID)
	}

	return respondWithData(c, stats, req.ID)
}

// Ledger handles listing the escrow movements of a job
func (h *JobHandlers) Ledger(c *fiber.Ctx, _ string, req RPCRequest) error {
	params, err := parseParams[JobIDParams](req)
	if err != nil {
		return respondWithInvalidParams(c, ErrMsgInvalidParams, err, req.ID)
	}

	entries, err := h.escrow.LedgerEntries(c.Context(), params.JobID)
	if err != nil {
		return respondWithAppError(c, err, req.ID)
	}

	return respondWithData(c, types.ListResponse[models.LedgerEntry]{
		Rows:       entries,
		Pagination: types.PaginationResponse{Total: len(entries), Limit: len(entries)},
	}, req.ID)
}

func (h *JobHandlers) respondWithJob(c *fiber.Ctx, id uint, reqID string) error {
	job, err := h.escrow.GetJob(c.Context(), id)
	if err != nil {
		return respondWithAppError(c, err, reqID)
	}

	return respondWithData(c, job, reqID)
}

// GetJob handles GET /jobs/:id
func (h *JobHandlers) GetJob(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Error: ErrMsgJobIDInvalid,
			Code:  string(apperrors.ErrCodeInvalidInput),
		})
	}

	job, err := h.escrow.GetJob(c.Context(), uint(id))
	if err != nil {
		return respondWithError(c, err)
	}

	return c.JSON(job)
}

// GetCounter handles GET /jobs/counter
func (h *JobHandlers) GetCounter(c *fiber.Ctx) error {
	counter, err := h.escrow.JobCounter(c.Context())
	if err != nil {
		return respondWithError(c, err)
	}

	return c.JSON(types.CounterResponse{Counter: counter})
}

func respondWithError(c *fiber.Ctx, err error) error {
	code := apperrors.CodeOf(err)
	message := err.Error()
	if code == apperrors.ErrCodeInternal {
		message = ErrMsgInternal
	}
	return c.Status(StatusFor(err)).JSON(types.ErrorResponse{
		Error: message,
		Code:  string(code),
	})
}
