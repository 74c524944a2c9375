// Package handlers provides HTTP request handling
package handlers

import (
	"encoding/json"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/celestiaorg/trustgig/pkg/api/v1/middleware"
)

// RPCRequest defines the structure for RPC-style API requests
type RPCRequest struct {
	// Method is the operation to perform (e.g., "job.post", "account.balance")
	Method string `json:"method"`

	// Params contains the operation parameters
	Params interface{} `json:"params"`

	// ID is an optional request identifier that will be echoed back in the response
	ID string `json:"id,omitempty"`
}

// RPCResponse defines the structure for RPC-style API responses
type RPCResponse struct {
	// Data contains the operation result
	Data interface{} `json:"data,omitempty"`

	// Error contains error information if the operation failed
	Error *RPCError `json:"error,omitempty"`

	// ID echoes back the request ID if provided
	ID string `json:"id,omitempty"`

	// Success indicates if the operation was successful
	Success bool `json:"success"`
}

// RPCError defines the structure for RPC errors
type RPCError struct {
	// Code is the HTTP status of the failure
	Code int `json:"code"`

	// Message is a human-readable error message
	Message string `json:"message"`

	// Data contains additional error details; for escrow failures it is the error code
	Data interface{} `json:"data,omitempty"`
}

// RPCHandler handles RPC-style API requests for jobs and accounts
type RPCHandler struct {
	JobHandlers     *JobHandlers
	AccountHandlers *AccountHandlers
}

// HandleRPC handles all RPC requests for various resource types
func (h *RPCHandler) HandleRPC(c *fiber.Ctx) error {
	var req RPCRequest
	if err := c.BodyParser(&req); err != nil {
		return respondWithInvalidParams(c, ErrMsgInvalidReqFormat, err, req.ID)
	}

	if req.Method == "" {
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgMethodRequired, nil, req.ID)
	}

	caller := middleware.CallerFrom(c)
	if IsMutatingMethod(req.Method) && caller == "" {
		return respondWithRPCError(c, fiber.StatusUnauthorized, ErrMsgCallerRequired, nil, req.ID)
	}

	switch {
	case IsJobMethod(req.Method):
		return h.handleJobMethod(c, caller, req)
	case IsAccountMethod(req.Method):
		return h.handleAccountMethod(c, caller, req)
	default:
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgUnknownMethod, nil, req.ID)
	}
}

// handleJobMethod routes job methods to their respective handlers
func (h *RPCHandler) handleJobMethod(c *fiber.Ctx, caller string, req RPCRequest) error {
	if h.JobHandlers == nil {
		return respondWithRPCError(c, fiber.StatusInternalServerError, "Job handlers not configured", nil, req.ID)
	}

	switch req.Method {
	case JobPost:
		return h.JobHandlers.Post(c, caller, req)
	case JobApply:
		return h.JobHandlers.Apply(c, caller, req)
	case JobSelect:
		return h.JobHandlers.Select(c, caller, req)
	case JobCancel, JobComplete, JobRevision, JobPay, JobWithdraw, JobRefund:
		return h.JobHandlers.Transition(c, caller, req)
	case JobGet:
		return h.JobHandlers.Get(c, caller, req)
	case JobCounter:
		return h.JobHandlers.Counter(c, caller, req)
	case JobList:
		return h.JobHandlers.List(c, caller, req)
	case JobStats:
		return h.JobHandlers.Stats(c, caller, req)
	case JobLedger:
		return h.JobHandlers.Ledger(c, caller, req)
	default:
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgUnknownJobMethod, nil, req.ID)
	}
}

// handleAccountMethod routes account methods to their respective handlers
func (h *RPCHandler) handleAccountMethod(c *fiber.Ctx, caller string, req RPCRequest) error {
	if h.AccountHandlers == nil {
		return respondWithRPCError(c, fiber.StatusInternalServerError, "Account handlers not configured", nil, req.ID)
	}

	switch req.Method {
	case AccountBalance:
		return h.AccountHandlers.Balance(c, caller, req)
	case AccountFund:
		return h.AccountHandlers.Fund(c, caller, req)
	default:
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgUnknownAccountMethod, nil, req.ID)
	}
}

// parseParams is a helper function to parse RPC parameters into a specific struct type
func parseParams[T any](req RPCRequest) (T, error) {
	var params T
	if req.Params == nil {
		return params, nil
	}

	paramsJSON, err := json.Marshal(req.Params)
	if err != nil {
		return params, err
	}

	if err := json.Unmarshal(paramsJSON, &params); err != nil {
		return params, err
	}

	return params, nil
}

func respondWithData(c *fiber.Ctx, data interface{}, id string) error {
	return c.JSON(RPCResponse{
		Data:    data,
		Success: true,
		ID:      id,
	})
}

// Helper to create a standardized RPC error response
func respondWithRPCError(c *fiber.Ctx, httpCode int, message string, data interface{}, id string) error {
	return c.Status(httpCode).JSON(RPCResponse{
		Error: &RPCError{
			Code:    httpCode,
			Message: message,
			Data:    data,
		},
		Success: false,
		ID:      id,
	})
}
