package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet represents one custodial ledger account. The address and sealed
// secret are generated together at creation time and never change.
type Wallet struct {
	UserID    string
	Email     string
	Address   string
	SecretEnc []byte
	Balance   decimal.Decimal
	CreatedAt time.Time
}

// BalancePair holds the two views of a wallet's funds: the locally cached
// figure this service maintains and the live figure reported by the ledger
// network. They can disagree transiently; callers get both.
type BalancePair struct {
	Address string
	Local   decimal.Decimal
	Ledger  decimal.Decimal
	AsOf    time.Time
}
