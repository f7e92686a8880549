package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInsufficientBalance occurs when a wallet's cached balance cannot cover a
// requested debit.
var ErrInsufficientBalance = errors.New("insufficient balance")

const (
	// KindDeposit marks entries created by minting against a deposit.
	KindDeposit = "deposit"
	// KindTransfer marks fee-charged wallet-to-wallet payments.
	KindTransfer = "transfer"
	// KindWithdrawal marks entries created by burning against a withdrawal.
	KindWithdrawal = "withdrawal"

	// IssuerAddress is the sentinel source of minted value. It never exists
	// as a wallet row.
	IssuerAddress = "ISSUER"
	// BurnAddress is the sentinel destination of burned value.
	BurnAddress = "BURNED"
)

// Entry is one immutable record of value movement. Entries are append-only:
// exactly one per completed settlement, none for failed ones.
type Entry struct {
	ID          string
	FromAddress string
	ToAddress   string
	Amount      decimal.Decimal
	Fee         decimal.Decimal
	TxHash      string
	Kind        string
	CreatedAt   time.Time
}

// Repository persists the append-only bookkeeping log.
type Repository interface {
	Append(ctx context.Context, entry Entry) error
	// ListByAddress returns entries where the address is sender or
	// receiver, newest first, bounded by limit.
	ListByAddress(ctx context.Context, address string, limit int) ([]Entry, error)
}
