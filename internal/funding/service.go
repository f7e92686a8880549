package funding

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/qoin-wallet/qoin_gateway/internal/ledger"
	"github.com/qoin-wallet/qoin_gateway/internal/notification"
	"github.com/qoin-wallet/qoin_gateway/internal/stellar"
	"github.com/qoin-wallet/qoin_gateway/internal/vault"
	"github.com/qoin-wallet/qoin_gateway/internal/wallet"
)

// Deps aggregates collaborators for deposit and withdrawal settlement.
type Deps struct {
	Wallets  wallet.Repository
	Entries  ledger.Repository
	Locks    *ledger.AccountLocks
	Chain    stellar.Client
	Vault    *vault.Vault
	Notifier notification.Notifier
	Logger   *slog.Logger
}

// Service settles deposits (mint) and withdrawals (burn) against the
// external ledger. Cached balances move only after the network accepted the
// corresponding submission, and each completed settlement appends exactly
// one bookkeeping entry.
type Service struct {
	wallets  wallet.Repository
	entries  ledger.Repository
	locks    *ledger.AccountLocks
	chain    stellar.Client
	vault    *vault.Vault
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewService builds the funding service.
func NewService(d Deps) (*Service, error) {
	if d.Wallets == nil || d.Entries == nil || d.Locks == nil || d.Chain == nil || d.Vault == nil {
		return nil, fmt.Errorf("funding service requires wallets, entries, locks, chain and vault")
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Service{
		wallets:  d.Wallets,
		entries:  d.Entries,
		locks:    d.Locks,
		chain:    d.Chain,
		vault:    d.Vault,
		notifier: d.Notifier,
		logger:   d.Logger,
	}, nil
}

// Result describes a settled deposit or withdrawal.
type Result struct {
	TxRef       string
	Amount      decimal.Decimal
	NewBalance  decimal.Decimal
	CompletedAt time.Time
}

// Deposit mints the amount to the wallet's ledger address, then credits the
// cached balance and records the entry from the issuer sentinel.
func (s *Service) Deposit(ctx context.Context, address string, amount decimal.Decimal) (Result, error) {
	if amount.Sign() <= 0 {
		return Result{}, fmt.Errorf("amount must be positive")
	}

	w, err := s.wallets.GetByAddress(ctx, address)
	if err != nil {
		return Result{}, err
	}

	amount = amount.Round(stellar.Precision)

	release := s.locks.Acquire(w.Address)
	defer release()

	txRef, err := s.chain.Mint(ctx, w.Address, amount)
	if err != nil {
		return Result{}, err
	}

	balance, err := s.wallets.Credit(ctx, w.Address, amount)
	if err != nil {
		s.logger.Error("credit failed after settled mint", "tx_ref", txRef, "error", err)
		return Result{}, err
	}

	entry := ledger.Entry{
		ID:          uuid.NewString(),
		FromAddress: ledger.IssuerAddress,
		ToAddress:   w.Address,
		Amount:      amount,
		Fee:         decimal.Zero,
		TxHash:      txRef,
		Kind:        ledger.KindDeposit,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.entries.Append(ctx, entry); err != nil {
		s.logger.Error("bookkeeping append failed for settled deposit", "tx_ref", txRef, "error", err)
		return Result{}, err
	}

	if s.notifier != nil && w.Email != "" {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:    notification.KindDeposit,
			To:      w.Email,
			Subject: "Deposit settled",
			Body:    fmt.Sprintf("%s Qoins were minted to wallet %s.", amount, w.Address),
		})
	}

	return Result{TxRef: txRef, Amount: amount, NewBalance: balance, CompletedAt: time.Now().UTC()}, nil
}

// Withdraw burns the amount from the wallet, then debits the cached balance
// and records the entry to the burn sentinel. Secret may be empty, in which
// case the sealed custodial secret is opened.
func (s *Service) Withdraw(ctx context.Context, address string, amount decimal.Decimal, secret string) (Result, error) {
	if amount.Sign() <= 0 {
		return Result{}, fmt.Errorf("amount must be positive")
	}

	w, err := s.wallets.GetByAddress(ctx, address)
	if err != nil {
		return Result{}, err
	}

	if secret == "" {
		if secret, err = s.vault.Open(w.SecretEnc); err != nil {
			return Result{}, err
		}
	}

	amount = amount.Round(stellar.Precision)

	release := s.locks.Acquire(w.Address)
	defer release()

	balance, err := s.wallets.Balance(ctx, w.Address)
	if err != nil {
		return Result{}, err
	}
	if balance.LessThan(amount) {
		return Result{}, ledger.ErrInsufficientBalance
	}

	txRef, err := s.chain.Burn(ctx, secret, amount)
	if err != nil {
		return Result{}, err
	}

	newBalance, err := s.wallets.Debit(ctx, w.Address, amount)
	if err != nil {
		s.logger.Error("debit failed after settled burn", "tx_ref", txRef, "error", err)
		return Result{}, err
	}

	entry := ledger.Entry{
		ID:          uuid.NewString(),
		FromAddress: w.Address,
		ToAddress:   ledger.BurnAddress,
		Amount:      amount,
		Fee:         decimal.Zero,
		TxHash:      txRef,
		Kind:        ledger.KindWithdrawal,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.entries.Append(ctx, entry); err != nil {
		s.logger.Error("bookkeeping append failed for settled withdrawal", "tx_ref", txRef, "error", err)
		return Result{}, err
	}

	if s.notifier != nil && w.Email != "" {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:    notification.KindWithdrawal,
			To:      w.Email,
			Subject: "Withdrawal settled",
			Body:    fmt.Sprintf("%s Qoins were burned from wallet %s.", amount, w.Address),
		})
	}

	return Result{TxRef: txRef, Amount: amount, NewBalance: newBalance, CompletedAt: time.Now().UTC()}, nil
}
