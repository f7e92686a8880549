package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/qoin-wallet/qoin_gateway/internal/wallet"
)

// RegisterWalletRoutes wires wallet creation behind the API key.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler) {
	r.Post("/wallet/create", h.Create)
}

// RegisterWalletReadRoutes wires the public balance and history endpoints.
func RegisterWalletReadRoutes(r fiber.Router, h *wallet.Handler) {
	r.Get("/balance/:address", h.Balance)
	r.Get("/transactions/:address", h.Transactions)
}
