package payments

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

// Deps aggregates the collaborators for the transfer settlement service.
type Deps struct {
	Wallets    wallet.Repository
	Entries    ledger.Repository
	Locks      *ledger.AccountLocks
	Chain      stellar.Client
	Vault      *vault.Vault
	Notifier   notification.Notifier
	Logger     *slog.Logger
	FeeAddress string
	FeeRate    decimal.Decimal
}

// Service settles fee-charged transfers between custodial wallets. Per
// transfer it computes the fee split, drives the external ledger payments,
// and only then mutates cached balances and appends the bookkeeping entry.
type Service struct {
	wallets    wallet.Repository
	entries    ledger.Repository
	locks      *ledger.AccountLocks
	chain      stellar.Client
	vault      *vault.Vault
	notifier   notification.Notifier
	logger     *slog.Logger
	feeAddress string
	feeRate    decimal.Decimal
}

// NewService builds the transfer service, ensuring the fee-collection wallet
// row exists so fee credits always have a destination.
func NewService(ctx context.Context, d Deps) (*Service, error) {
	if d.Wallets == nil || d.Entries == nil || d.Locks == nil || d.Chain == nil || d.Vault == nil {
		return nil, fmt.Errorf("payments service requires wallets, entries, locks, chain and vault")
	}
	if d.FeeAddress == "" {
		return nil, fmt.Errorf("fee-collection address is required")
	}
	if d.FeeRate.IsNegative() || d.FeeRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("fee rate must be in [0, 1), got %s", d.FeeRate)
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	err := d.Wallets.Ensure(ctx, wallet.Wallet{
		Address:   d.FeeAddress,
		Balance:   decimal.Zero,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("ensure fee wallet: %w", err)
	}

	return &Service{
		wallets:    d.Wallets,
		entries:    d.Entries,
		locks:      d.Locks,
		chain:      d.Chain,
		vault:      d.Vault,
		notifier:   d.Notifier,
		logger:     d.Logger,
		feeAddress: d.FeeAddress,
		feeRate:    d.FeeRate,
	}, nil
}

// TransferInput captures a requested wallet-to-wallet payment. Secret may be
// empty, in which case the sender's sealed custodial secret is opened.
type TransferInput struct {
	FromAddress string
	ToAddress   string
	Amount      decimal.Decimal
	Secret      string
}

// TransferResult describes a settled transfer.
type TransferResult struct {
	TxRef         string
	AmountSent    decimal.Decimal // net amount the recipient received
	Fee           decimal.Decimal
	SenderBalance decimal.Decimal
	CompletedAt   time.Time
}

// Split computes the fee split for a gross amount at the given rate, rounded
// to the ledger's asset precision. fee + net always equals gross exactly.
func Split(gross, rate decimal.Decimal) (fee, net decimal.Decimal) {
	fee = gross.Mul(rate).Round(stellar.Precision)
	net = gross.Sub(fee)
	return fee, net
}

// Transfer settles one fee-charged payment. Both touched wallets stay locked
// for the full settlement so concurrent transfers observe each other's
// balance mutations; a sufficiency check that passed cannot be invalidated
// before the debit lands.
func (s *Service) Transfer(ctx context.Context, input TransferInput) (TransferResult, error) {
	if input.Amount.Sign() <= 0 {
		return TransferResult{}, fmt.Errorf("amount must be positive")
	}
	if input.FromAddress == "" || input.ToAddress == "" {
		return TransferResult{}, fmt.Errorf("sender and recipient addresses are required")
	}
	if input.FromAddress == input.ToAddress {
		return TransferResult{}, fmt.Errorf("cannot transfer to the sending wallet")
	}

	sender, err := s.wallets.GetByAddress(ctx, input.FromAddress)
	if err != nil {
		return TransferResult{}, err
	}
	recipient, err := s.wallets.GetByAddress(ctx, input.ToAddress)
	if err != nil {
		return TransferResult{}, err
	}

	secret := input.Secret
	if secret == "" {
		if secret, err = s.vault.Open(sender.SecretEnc); err != nil {
			return TransferResult{}, err
		}
	}

	amount := input.Amount.Round(stellar.Precision)
	fee, net := Split(amount, s.feeRate)

	release := s.locks.Acquire(sender.Address, recipient.Address)
	defer release()

	balance, err := s.wallets.Balance(ctx, sender.Address)
	if err != nil {
		return TransferResult{}, err
	}
	if balance.LessThan(amount) {
		return TransferResult{}, ledger.ErrInsufficientBalance
	}

	txRef, err := s.chain.SendPayment(ctx, secret, recipient.Address, net)
	if err != nil {
		return TransferResult{}, err
	}

	// The primary leg is on the ledger and cannot be un-sent. If the fee
	// leg fails the transfer stays committed and the outstanding fee is
	// logged for reconciliation.
	feeSettled := fee.Sign() > 0
	if feeSettled {
		if _, feeErr := s.chain.SendPayment(ctx, secret, s.feeAddress, fee); feeErr != nil {
			feeSettled = false
			s.logger.Error("fee leg failed after primary payment, fee outstanding",
				"tx_ref", txRef,
				"sender", sender.Address,
				"fee", fee.String(),
				"error", feeErr)
		}
	}

	senderBalance, err := s.wallets.Debit(ctx, sender.Address, amount)
	if err != nil {
		// unreachable under the lock discipline; kept as a backstop so an
		// external success is never silently lost
		s.logger.Error("debit failed after settled ledger payment", "tx_ref", txRef, "error", err)
		return TransferResult{}, err
	}
	if _, err := s.wallets.Credit(ctx, recipient.Address, net); err != nil {
		s.logger.Error("recipient credit failed after settled ledger payment", "tx_ref", txRef, "error", err)
		return TransferResult{}, err
	}
	if feeSettled {
		if _, err := s.wallets.Credit(ctx, s.feeAddress, fee); err != nil {
			s.logger.Error("fee wallet credit failed", "tx_ref", txRef, "error", err)
		}
	}

	entry := ledger.Entry{
		ID:          uuid.NewString(),
		FromAddress: sender.Address,
		ToAddress:   recipient.Address,
		Amount:      amount,
		Fee:         fee,
		TxHash:      txRef,
		Kind:        ledger.KindTransfer,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.entries.Append(ctx, entry); err != nil {
		s.logger.Error("bookkeeping append failed for settled transfer", "tx_ref", txRef, "error", err)
		return TransferResult{}, err
	}

	if s.notifier != nil && recipient.Email != "" {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:    notification.KindTransferReceived,
			To:      recipient.Email,
			Subject: "You received Qoins",
			Body:    fmt.Sprintf("Wallet %s received %s from %s.", recipient.Address, net, sender.Address),
		})
	}

	return TransferResult{
		TxRef:         txRef,
		AmountSent:    net,
		Fee:           fee,
		SenderBalance: senderBalance,
		CompletedAt:   time.Now().UTC(),
	}, nil
}
