package payments

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

// Handler exposes the transfer endpoint.
type Handler struct {
	service *Service
}

// NewHandler constructs a payments handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type sendRequest struct {
	FromAddress string          `json:"from_address"`
	ToAddress   string          `json:"to_address"`
	Amount      decimal.Decimal `json:"amount"`
	SecretKey   string          `json:"secret_key"`
}

type sendResponse struct {
	TxRef      string          `json:"tx_ref"`
	AmountSent decimal.Decimal `json:"amount_sent"`
	FeeCharged decimal.Decimal `json:"fee_charged"`
	NewBalance decimal.Decimal `json:"new_balance"`
}

// Send settles a fee-charged wallet-to-wallet payment.
func (h *Handler) Send(c *fiber.Ctx) error {
	var req sendRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	res, err := h.service.Transfer(c.UserContext(), TransferInput{
		FromAddress: req.FromAddress,
		ToAddress:   req.ToAddress,
		Amount:      req.Amount,
		Secret:      req.SecretKey,
	})
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInsufficientBalance):
			return fiber.NewError(http.StatusBadRequest, "insufficient balance")
		case errors.Is(err, wallet.ErrNotFound):
			return fiber.NewError(http.StatusNotFound, "wallet not found")
		case errors.Is(err, vault.ErrDecryptFailed):
			return fiber.NewError(http.StatusInternalServerError, "custodial secret unavailable")
		case errors.Is(err, stellar.ErrRejected):
			return fiber.NewError(http.StatusBadGateway, err.Error())
		default:
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}

	return c.Status(http.StatusOK).JSON(sendResponse{
		TxRef:      res.TxRef,
		AmountSent: res.AmountSent,
		FeeCharged: res.Fee,
		NewBalance: res.SenderBalance,
	})
}
