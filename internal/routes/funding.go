package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/qoin-wallet/qoin_gateway/internal/funding"
)

// RegisterFundingRoutes wires deposit and withdrawal endpoints.
func RegisterFundingRoutes(r fiber.Router, h *funding.Handler) {
	r.Post("/deposit", h.Deposit)
	r.Post("/withdraw", h.Withdraw)
}
