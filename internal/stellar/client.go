package stellar

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrRejected indicates the ledger network refused or failed a submission.
// The gateway never retries: a rejected submission surfaces to the caller
// with no local state change.
var ErrRejected = errors.New("ledger rejected transaction")

// ErrAccountNotFound indicates the address does not exist on the ledger.
var ErrAccountNotFound = errors.New("ledger account not found")

// Precision is the number of decimal places the ledger carries for asset
// amounts. All amounts crossing the network boundary are rounded to it.
const Precision = 7

// Keypair is a freshly generated ledger identity. The secret is only ever
// held in memory long enough to be sealed and returned once to the caller.
type Keypair struct {
	Address string
	Secret  string
}

// Client is the boundary to the external ledger network. Account creation,
// signing and submission all happen on the far side of this interface.
type Client interface {
	// CreateAccount generates a keypair and activates the account on the
	// network (testnet funding included where the network supports it).
	CreateAccount(ctx context.Context) (Keypair, error)

	// EstablishTrustline lets the account hold the gateway asset. Returns
	// the network transaction hash.
	EstablishTrustline(ctx context.Context, secret string) (string, error)

	// Mint issues new tokens from the issuer to the destination address.
	Mint(ctx context.Context, destination string, amount decimal.Decimal) (string, error)

	// SendPayment moves tokens between accounts, signed with the source
	// secret.
	SendPayment(ctx context.Context, sourceSecret, destination string, amount decimal.Decimal) (string, error)

	// Burn permanently removes tokens by paying them back to the issuer.
	Burn(ctx context.Context, sourceSecret string, amount decimal.Decimal) (string, error)

	// Balance returns the live on-ledger asset balance for the address.
	// Unknown accounts report zero, matching the network's view of an
	// account that never held the asset.
	Balance(ctx context.Context, address string) (decimal.Decimal, error)
}
