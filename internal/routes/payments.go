package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/qoin-wallet/qoin_gateway/internal/payments"
)

// RegisterPaymentRoutes wires the transfer endpoint.
func RegisterPaymentRoutes(r fiber.Router, h *payments.Handler) {
	r.Post("/send", h.Send)
}
