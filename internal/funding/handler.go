package funding

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/qoin-wallet/qoin_gateway/internal/ledger"
	"github.com/qoin-wallet/qoin_gateway/internal/stellar"
	"github.com/qoin-wallet/qoin_gateway/internal/vault"
	"github.com/qoin-wallet/qoin_gateway/internal/wallet"
)

// Handler exposes deposit and withdrawal endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a funding handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type depositRequest struct {
	WalletAddress string          `json:"wallet_address"`
	Amount        decimal.Decimal `json:"amount"`
}

type depositResponse struct {
	TxRef        string          `json:"tx_ref"`
	AmountMinted decimal.Decimal `json:"amount_minted"`
	NewBalance   decimal.Decimal `json:"new_balance"`
}

type withdrawRequest struct {
	WalletAddress string          `json:"wallet_address"`
	Amount        decimal.Decimal `json:"amount"`
	SecretKey     string          `json:"secret_key"`
}

type withdrawResponse struct {
	TxRef        string          `json:"tx_ref"`
	AmountBurned decimal.Decimal `json:"amount_burned"`
	NewBalance   decimal.Decimal `json:"new_balance"`
}

// Deposit mints tokens against an off-ledger deposit.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	var req depositRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	res, err := h.service.Deposit(c.UserContext(), req.WalletAddress, req.Amount)
	if err != nil {
		return mapError(err)
	}

	return c.Status(http.StatusOK).JSON(depositResponse{
		TxRef:        res.TxRef,
		AmountMinted: res.Amount,
		NewBalance:   res.NewBalance,
	})
}

// Withdraw burns tokens and releases the backing deposit.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	var req withdrawRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	res, err := h.service.Withdraw(c.UserContext(), req.WalletAddress, req.Amount, req.SecretKey)
	if err != nil {
		return mapError(err)
	}

	return c.Status(http.StatusOK).JSON(withdrawResponse{
		TxRef:        res.TxRef,
		AmountBurned: res.Amount,
		NewBalance:   res.NewBalance,
	})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, wallet.ErrNotFound):
		return fiber.NewError(http.StatusNotFound, "wallet not found")
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return fiber.NewError(http.StatusBadRequest, "insufficient balance")
	case errors.Is(err, vault.ErrDecryptFailed):
		return fiber.NewError(http.StatusInternalServerError, "custodial secret unavailable")
	case errors.Is(err, stellar.ErrRejected):
		return fiber.NewError(http.StatusBadGateway, err.Error())
	default:
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
}
