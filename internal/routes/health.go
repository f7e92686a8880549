package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RegisterInfoRoutes adds the service banner and the health endpoint.
func RegisterInfoRoutes(app *fiber.App, d Deps) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": d.Cfg.AppName,
			"asset":   d.Cfg.AssetCode,
			"network": d.Cfg.Network,
			"endpoints": fiber.Map{
				"create_wallet": "POST /api/wallet/create",
				"deposit":       "POST /api/deposit",
				"send":          "POST /api/send",
				"withdraw":      "POST /api/withdraw",
				"balance":       "GET /api/balance/{address}",
				"transactions":  "GET /api/transactions/{address}",
			},
		})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		dbStatus := "ok"
		redisStatus := "ok"

		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if d.DB != nil {
			if err := d.DB.Ping(ctx); err != nil {
				dbStatus = err.Error()
			}
		}
		if d.Cache != nil {
			if err := d.Cache.Ping(ctx).Err(); err != nil {
				redisStatus = err.Error()
			}
		}
		status := http.StatusOK
		healthy := "healthy"
		if dbStatus != "ok" || redisStatus != "ok" {
			status = http.StatusServiceUnavailable
			healthy = "degraded"
		}
		return c.Status(status).JSON(fiber.Map{
			"status":    healthy,
			"checks":    fiber.Map{"postgres": dbStatus, "redis": redisStatus},
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
}
