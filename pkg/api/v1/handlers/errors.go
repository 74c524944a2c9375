package handlers

import (
	fiber "github.com/gofiber/fiber/v2"

	apperrors "github.com/celestiaorg/trustgig/internal/errors"
)

// Common error messages
const (
	ErrMsgInvalidParams        = "Invalid parameters"
	ErrMsgInvalidReqFormat     = "Invalid request format"
	ErrMsgMethodRequired       = "Method is required"
	ErrMsgUnknownMethod        = "Unknown method"
	ErrMsgUnknownJobMethod     = "Unknown job method"
	ErrMsgUnknownAccountMethod = "Unknown account method"
	ErrMsgCallerRequired       = "Caller identity is required"
	ErrMsgInternal             = "Internal error"
)

// Job error messages
const (
	ErrMsgJobIDInvalid       = "Invalid job id"
	ErrMsgJobPaymentInvalid  = "Payment must be positive"
	ErrMsgJobDurationInvalid = "Duration must be between 1 and 36500 days"
	ErrMsgFreelancerRequired = "Freelancer is required"
	ErrMsgJobFilterInvalid   = "Invalid job filter"
	ErrMsgJobWindowInvalid   = "Window must be between 0 and 50"
)

// Account error messages
const (
	ErrMsgIdentityRequired = "Identity is required"
	ErrMsgAmountInvalid    = "Amount must be positive"
	ErrMsgFaucetDisabled   = "Wallet faucet is disabled"
)

// StatusFor maps an error to the HTTP status the API answers with
func StatusFor(err error) int {
	switch apperrors.CodeOf(err) {
	case apperrors.ErrCodeNotFound:
		return fiber.StatusNotFound
	case apperrors.ErrCodeInvalidInput:
		return fiber.StatusBadRequest
	case apperrors.ErrCodeAlreadyApplied, apperrors.ErrCodeInvalidState:
		return fiber.StatusConflict
	case apperrors.ErrCodeUnauthorized:
		return fiber.StatusForbidden
	case apperrors.ErrCodeDeadlineNotReached:
		return fiber.StatusPreconditionFailed
	case apperrors.ErrCodeTransferFailure:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// respondWithAppError writes err as an RPC error carrying its code in data.
// Internal failures are not echoed to the caller.
func respondWithAppError(c *fiber.Ctx, err error, id string) error {
	code := apperrors.CodeOf(err)
	message := err.Error()
	if code == apperrors.ErrCodeInternal {
		message = ErrMsgInternal
	}
	return respondWithRPCError(c, StatusFor(err), message, string(code), id)
}

// respondWithInvalidParams answers 400 with the invalid_input code. A non-empty prefix is
// prepended to the validation message.
func respondWithInvalidParams(c *fiber.Ctx, prefix string, err error, id string) error {
	message := err.Error()
	if prefix != "" {
		message = prefix + ": " + message
	}
	return respondWithRPCError(c, fiber.StatusBadRequest, message, string(apperrors.ErrCodeInvalidInput), id)
}
