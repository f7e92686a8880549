package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/qoin-wallet/qoin_gateway/internal/ledger"
	"github.com/qoin-wallet/qoin_gateway/internal/notification"
	"github.com/qoin-wallet/qoin_gateway/internal/stellar"
	"github.com/qoin-wallet/qoin_gateway/internal/vault"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200

	ledgerBalanceKeyPrefix = "ledgerbal:v1:"
)

// Deps aggregates the collaborators required by the wallet service.
type Deps struct {
	Repo     Repository
	Entries  ledger.Repository
	Chain    stellar.Client
	Vault    *vault.Vault
	Notifier notification.Notifier

	// Cache, when present, memoizes live ledger balance lookups.
	Cache    *redis.Client
	CacheTTL time.Duration
}

// Service exposes wallet lifecycle, balance, and history operations.
type Service struct {
	repo     Repository
	entries  ledger.Repository
	chain    stellar.Client
	vault    *vault.Vault
	notifier notification.Notifier
	cache    *redis.Client
	cacheTTL time.Duration
}

// NewService builds a wallet service instance.
func NewService(d Deps) (*Service, error) {
	if d.Repo == nil || d.Entries == nil || d.Chain == nil || d.Vault == nil {
		return nil, fmt.Errorf("wallet service requires repo, entries, chain and vault")
	}
	if d.CacheTTL <= 0 {
		d.CacheTTL = 15 * time.Second
	}
	return &Service{
		repo:     d.Repo,
		entries:  d.Entries,
		chain:    d.Chain,
		vault:    d.Vault,
		notifier: d.Notifier,
		cache:    d.Cache,
		cacheTTL: d.CacheTTL,
	}, nil
}

// CreateInput captures data required to provision a wallet.
type CreateInput struct {
	UserID string
	Email  string
}

// Create provisions a custodial wallet: a fresh keypair on the ledger
// network, a trustline to the gateway asset, and a wallet row with the
// secret sealed at rest. The plaintext secret is returned exactly once.
func (s *Service) Create(ctx context.Context, input CreateInput) (Wallet, string, error) {
	if input.UserID == "" {
		return Wallet{}, "", fmt.Errorf("user id is required")
	}
	if !strings.Contains(input.Email, "@") {
		return Wallet{}, "", fmt.Errorf("valid email is required")
	}

	// one wallet per application account
	if _, err := s.repo.GetByUser(ctx, input.UserID); err == nil {
		return Wallet{}, "", ErrExists
	} else if !errors.Is(err, ErrNotFound) {
		return Wallet{}, "", err
	}

	kp, err := s.chain.CreateAccount(ctx)
	if err != nil {
		return Wallet{}, "", fmt.Errorf("create ledger account: %w", err)
	}

	if _, err := s.chain.EstablishTrustline(ctx, kp.Secret); err != nil {
		return Wallet{}, "", fmt.Errorf("establish trustline: %w", err)
	}

	sealed, err := s.vault.Seal(kp.Secret)
	if err != nil {
		return Wallet{}, "", fmt.Errorf("seal secret: %w", err)
	}

	w := Wallet{
		UserID:    input.UserID,
		Email:     input.Email,
		Address:   kp.Address,
		SecretEnc: sealed,
		Balance:   decimal.Zero,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, w); err != nil {
		return Wallet{}, "", err
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:    notification.KindWalletCreated,
			To:      w.Email,
			Subject: "Your Qoin wallet is ready",
			Body:    fmt.Sprintf("Wallet %s has been created for your account.", w.Address),
		})
	}

	return w, kp.Secret, nil
}

// Get retrieves wallet metadata by ledger address.
func (s *Service) Get(ctx context.Context, address string) (Wallet, error) {
	return s.repo.GetByAddress(ctx, address)
}

// GetByUser retrieves wallet metadata by application account identifier.
func (s *Service) GetByUser(ctx context.Context, userID string) (Wallet, error) {
	return s.repo.GetByUser(ctx, userID)
}

// Balance returns both views of the wallet's funds: the cached balance this
// service settles against and the live on-ledger figure. The two may
// disagree transiently; no reconciliation is attempted here.
func (s *Service) Balance(ctx context.Context, address string) (BalancePair, error) {
	w, err := s.repo.GetByAddress(ctx, address)
	if err != nil {
		return BalancePair{}, err
	}

	live, err := s.ledgerBalance(ctx, address)
	if err != nil {
		return BalancePair{}, err
	}

	return BalancePair{
		Address: w.Address,
		Local:   w.Balance,
		Ledger:  live,
		AsOf:    time.Now().UTC(),
	}, nil
}

// History returns the bookkeeping entries touching the address, newest
// first. Limit defaults to 50 and is capped at 200.
func (s *Service) History(ctx context.Context, address string, limit int) ([]ledger.Entry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.entries.ListByAddress(ctx, address, limit)
}

func (s *Service) ledgerBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	key := ledgerBalanceKeyPrefix + address

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key).Result(); err == nil {
			if bal, parseErr := decimal.NewFromString(cached); parseErr == nil {
				return bal, nil
			}
		}
	}

	live, err := s.chain.Balance(ctx, address)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ledger balance for %s: %w", address, err)
	}

	if s.cache != nil {
		// best effort; a cold cache only costs an extra network lookup
		_ = s.cache.Set(ctx, key, live.String(), s.cacheTTL).Err()
	}

	return live, nil
}
