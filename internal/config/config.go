package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	defaultAppName         = "QoinGateway"
	defaultAppEnv          = "development"
	defaultPort            = "8080"
	defaultLogLevel        = "info"
	defaultAssetCode       = "QOIN"
	defaultNetwork         = "testnet"
	defaultFeeRate         = "0.01"
	defaultShutdownDelay   = 10 * time.Second
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultBalanceCacheTTL = 15 * time.Second
)

// Config captures application runtime configuration loaded from environment
// variables. There is no process-wide singleton: the struct is built once in
// main and handed to constructors explicitly.
type Config struct {
	AppName  string
	AppEnv   string
	Port     string
	LogLevel string

	DatabaseURL string
	RedisURL    string

	// APIKey is the static shared secret expected in the X-API-Key header.
	APIKey string

	// EncryptionKey and EncryptionSalt feed the key derivation for the
	// custodial secret vault.
	EncryptionKey  string
	EncryptionSalt string

	// GatewayURL points at the HTTP signing gateway in front of the ledger
	// network. When empty the in-memory ledger simulator is used instead.
	GatewayURL string
	Network    string
	AssetCode  string

	// IssuerAddress is the asset issuer; burns pay back to it.
	IssuerAddress    string
	FeeWalletAddress string
	FeeRate          decimal.Decimal

	EmailAPIURL string
	EmailAPIKey string
	EmailFrom   string

	ShutdownPeriod  time.Duration
	IdempotencyTTL  time.Duration
	BalanceCacheTTL time.Duration
}

// Load reads configuration from the environment, applying an optional .env
// file first, and validates required values.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppName:          getEnv("APP_NAME", defaultAppName),
		AppEnv:           strings.ToLower(getEnv("APP_ENV", defaultAppEnv)),
		Port:             getEnv("PORT", defaultPort),
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		APIKey:           os.Getenv("API_SECRET_KEY"),
		EncryptionKey:    os.Getenv("ENCRYPTION_KEY"),
		EncryptionSalt:   getEnv("ENCRYPTION_SALT", "qoin-vault-v1"),
		GatewayURL:       os.Getenv("LEDGER_GATEWAY_URL"),
		Network:          getEnv("LEDGER_NETWORK", defaultNetwork),
		AssetCode:        getEnv("ASSET_CODE", defaultAssetCode),
		IssuerAddress:    os.Getenv("ISSUER_ADDRESS"),
		FeeWalletAddress: os.Getenv("FEE_WALLET_ADDRESS"),
		EmailAPIURL:      os.Getenv("EMAIL_API_URL"),
		EmailAPIKey:      os.Getenv("EMAIL_API_KEY"),
		EmailFrom:        getEnv("EMAIL_FROM", "no-reply@qoin.local"),
		ShutdownPeriod:   defaultShutdownDelay,
		IdempotencyTTL:   defaultIdempotencyTTL,
		BalanceCacheTTL:  defaultBalanceCacheTTL,
	}

	rate, err := decimal.NewFromString(getEnv("FEE_RATE", defaultFeeRate))
	if err != nil {
		return Config{}, fmt.Errorf("invalid FEE_RATE: %w", err)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return Config{}, fmt.Errorf("FEE_RATE must be in [0, 1), got %s", rate)
	}
	cfg.FeeRate = rate

	if v := os.Getenv("SHUTDOWN_TIMEOUT_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SHUTDOWN_TIMEOUT_SECONDS: %w", err)
		}
		cfg.ShutdownPeriod = time.Duration(seconds) * time.Second
	}

	if v := os.Getenv("IDEMPOTENCY_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid IDEMPOTENCY_TTL: %w", err)
		}
		cfg.IdempotencyTTL = d
	}

	if v := os.Getenv("BALANCE_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid BALANCE_CACHE_TTL: %w", err)
		}
		cfg.BalanceCacheTTL = d
	}

	if cfg.APIKey == "" {
		return Config{}, fmt.Errorf("API_SECRET_KEY must be set")
	}

	if cfg.EncryptionKey == "" {
		return Config{}, fmt.Errorf("ENCRYPTION_KEY must be set")
	}

	if cfg.FeeWalletAddress == "" {
		return Config{}, fmt.Errorf("FEE_WALLET_ADDRESS must be set")
	}

	if cfg.GatewayURL != "" && cfg.IssuerAddress == "" {
		return Config{}, fmt.Errorf("ISSUER_ADDRESS must be set when LEDGER_GATEWAY_URL is configured")
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether the configuration targets a local development
// environment, where the Postgres and Redis backends may be absent.
func (c Config) IsDev() bool {
	switch c.AppEnv {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
