package handlers

import (
	fiber "github.com/gofiber/fiber/v2"

	apperrors "github.com/celestiaorg/trustgig/internal/errors"
	"github.com/celestiaorg/trustgig/internal/wallet"
)

// AccountHandlers contains all account related handlers
type AccountHandlers struct {
	book   *wallet.Book
	faucet bool
}

// NewAccountHandlers creates the account handlers. account.fund is refused unless faucet is set.
func NewAccountHandlers(book *wallet.Book, faucet bool) *AccountHandlers {
	return &AccountHandlers{book: book, faucet: faucet}
}

// Balance handles reading the balance of an identity, the caller's by default
func (h *AccountHandlers) Balance(c *fiber.Ctx, caller string, req RPCRequest) error {
	params, err := parseParams[AccountParams](req)
	if err != nil {
		return respondWithInvalidParams(c, ErrMsgInvalidParams, err, req.ID)
	}

	identity := params.Identity
	if identity == "" {
		identity = caller
	}
	if identity == "" {
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgIdentityRequired, string(apperrors.ErrCodeInvalidInput), req.ID)
	}

	account, err := h.book.Balance(c.Context(), identity)
	if err != nil {
		return respondWithAppError(c, err, req.ID)
	}

	return respondWithData(c, account, req.ID)
}

// Fund handles crediting an account from the development faucet
func (h *AccountHandlers) Fund(c *fiber.Ctx, caller string, req RPCRequest) error {
	if !h.faucet {
		return respondWithRPCError(c, fiber.StatusForbidden, ErrMsgFaucetDisabled, nil, req.ID)
	}

	params, err := parseParams[AccountFundParams](req)
	if err != nil {
		return respondWithInvalidParams(c, ErrMsgInvalidParams, err, req.ID)
	}

	if err := params.Validate(); err != nil {
		return respondWithInvalidParams(c, "", err, req.ID)
	}

	identity := params.Identity
	if identity == "" {
		identity = caller
	}

	account, err := h.book.Fund(c.Context(), identity, params.Amount)
	if err != nil {
		return respondWithAppError(c, err, req.ID)
	}

	return respondWithData(c, account, req.ID)
}
