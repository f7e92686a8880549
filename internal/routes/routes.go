package routes

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/qoin-wallet/qoin_gateway/internal/config"
	"github.com/qoin-wallet/qoin_gateway/internal/funding"
	"github.com/qoin-wallet/qoin_gateway/internal/ledger"
	"github.com/qoin-wallet/qoin_gateway/internal/middleware"
	"github.com/qoin-wallet/qoin_gateway/internal/notification"
	"github.com/qoin-wallet/qoin_gateway/internal/payments"
	"github.com/qoin-wallet/qoin_gateway/internal/stellar"
	"github.com/qoin-wallet/qoin_gateway/internal/vault"
	"github.com/qoin-wallet/qoin_gateway/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes. Outside of dev the
// durable backends are mandatory; in dev missing ones fall back to in-memory
// equivalents so the gateway can run standalone.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cfg.GatewayURL == "" {
			return fmt.Errorf("LEDGER_GATEWAY_URL is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterInfoRoutes(app, d)

	var entries ledger.Repository
	if d.DB != nil {
		entries = ledger.NewPostgresRepository(d.DB)
	} else {
		entries = ledger.NewInMemory()
	}

	var wallets wallet.Repository
	if d.DB != nil {
		wallets = wallet.NewPostgresRepository(d.DB)
	} else {
		wallets = wallet.NewMemoryRepository()
	}

	var chain stellar.Client
	if d.Cfg.GatewayURL != "" {
		chain = stellar.NewGatewayClient(d.Cfg.GatewayURL, d.Cfg.AssetCode, d.Cfg.IssuerAddress, d.Cfg.Network)
	} else {
		chain = stellar.NewSimulator()
	}

	secrets, err := vault.New(d.Cfg.EncryptionKey, d.Cfg.EncryptionSalt)
	if err != nil {
		return fmt.Errorf("build secret vault: %w", err)
	}

	var notifier notification.Notifier
	if d.Cfg.EmailAPIURL != "" {
		notifier = notification.NewEmailNotifier(d.Cfg.EmailAPIURL, d.Cfg.EmailAPIKey, d.Cfg.EmailFrom)
	} else {
		notifier = notification.NewLoggerNotifier(d.Logger)
	}

	locks := ledger.NewAccountLocks()

	walletSvc, err := wallet.NewService(wallet.Deps{
		Repo:     wallets,
		Entries:  entries,
		Chain:    chain,
		Vault:    secrets,
		Notifier: notifier,
		Cache:    d.Cache,
		CacheTTL: d.Cfg.BalanceCacheTTL,
	})
	if err != nil {
		return err
	}

	paymentSvc, err := payments.NewService(context.Background(), payments.Deps{
		Wallets:    wallets,
		Entries:    entries,
		Locks:      locks,
		Chain:      chain,
		Vault:      secrets,
		Notifier:   notifier,
		Logger:     d.Logger,
		FeeAddress: d.Cfg.FeeWalletAddress,
		FeeRate:    d.Cfg.FeeRate,
	})
	if err != nil {
		return err
	}

	fundingSvc, err := funding.NewService(funding.Deps{
		Wallets:  wallets,
		Entries:  entries,
		Locks:    locks,
		Chain:    chain,
		Vault:    secrets,
		Notifier: notifier,
		Logger:   d.Logger,
	})
	if err != nil {
		return err
	}

	walletHandler := wallet.NewHandler(walletSvc, d.Cfg.AssetCode)
	paymentHandler := payments.NewHandler(paymentSvc)
	fundingHandler := funding.NewHandler(fundingSvc)

	api := app.Group("/api")

	// Public read endpoints
	RegisterWalletReadRoutes(api, walletHandler)

	// Money movement requires the shared API key
	protected := api.Group("", middleware.APIKeyAuth(d.Cfg.APIKey), middleware.RateLimit(d.Cache, 60))
	RegisterWalletRoutes(protected, walletHandler)
	RegisterFundingRoutes(protected, fundingHandler)
	RegisterPaymentRoutes(protected, paymentHandler)

	return nil
}
