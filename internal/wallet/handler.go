package wallet

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/qoin-wallet/qoin_gateway/internal/ledger"
	"github.com/qoin-wallet/qoin_gateway/internal/stellar"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service  *Service
	currency string
}

// NewHandler builds a wallet HTTP handler. currency is the asset code
// reported in balance responses.
func NewHandler(service *Service, currency string) *Handler {
	return &Handler{service: service, currency: currency}
}

type createRequest struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
}

type createResponse struct {
	WalletAddress string `json:"wallet_address"`
	SecretKey     string `json:"secret_key"`
	Warning       string `json:"warning"`
}

type balanceResponse struct {
	WalletAddress string          `json:"wallet_address"`
	BalanceLocal  decimal.Decimal `json:"balance_local"`
	BalanceLedger decimal.Decimal `json:"balance_ledger"`
	Currency      string          `json:"currency"`
}

type entryResponse struct {
	ID          string          `json:"id"`
	FromAddress string          `json:"from_address"`
	ToAddress   string          `json:"to_address"`
	Amount      decimal.Decimal `json:"amount"`
	Fee         decimal.Decimal `json:"fee"`
	TxRef       string          `json:"tx_ref"`
	Kind        string          `json:"kind"`
	CreatedAt   string          `json:"created_at"`
}

// Create provisions a wallet for an application account.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	w, secret, err := h.service.Create(c.UserContext(), CreateInput{UserID: req.AccountID, Email: req.Email})
	if err != nil {
		switch {
		case errors.Is(err, ErrExists):
			return fiber.NewError(http.StatusConflict, "wallet already exists for this account")
		case errors.Is(err, stellar.ErrRejected):
			return fiber.NewError(http.StatusBadGateway, err.Error())
		default:
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}

	return c.Status(http.StatusCreated).JSON(createResponse{
		WalletAddress: w.Address,
		SecretKey:     secret,
		Warning:       "Save this secret key! It cannot be recovered.",
	})
}

// Balance reports the cached and live ledger balances side by side.
func (h *Handler) Balance(c *fiber.Ctx) error {
	pair, err := h.service.Balance(c.UserContext(), c.Params("address"))
	if err != nil {
		return statusForError(err)
	}

	return c.Status(http.StatusOK).JSON(balanceResponse{
		WalletAddress: pair.Address,
		BalanceLocal:  pair.Local,
		BalanceLedger: pair.Ledger,
		Currency:      h.currency,
	})
}

// Transactions returns the bookkeeping history for an address, newest first.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "limit must be an integer")
		}
		limit = parsed
	}

	entries, err := h.service.History(c.UserContext(), c.Params("address"), limit)
	if err != nil {
		return statusForError(err)
	}

	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{
			ID:          e.ID,
			FromAddress: e.FromAddress,
			ToAddress:   e.ToAddress,
			Amount:      e.Amount,
			Fee:         e.Fee,
			TxRef:       e.TxHash,
			Kind:        e.Kind,
			CreatedAt:   e.CreatedAt.Format(time.RFC3339),
		})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"wallet_address": c.Params("address"),
		"transactions":   out,
	})
}

// statusForError maps the shared error taxonomy onto HTTP statuses so
// callers can branch on stable kinds instead of parsing failure strings.
func statusForError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, "wallet not found")
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return fiber.NewError(http.StatusBadRequest, "insufficient balance")
	case errors.Is(err, stellar.ErrRejected):
		return fiber.NewError(http.StatusBadGateway, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
