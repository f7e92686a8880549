package funding

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/qoin-wallet/qoin_gateway/internal/ledger"
	"github.com/qoin-wallet/qoin_gateway/internal/logging"
	"github.com/qoin-wallet/qoin_gateway/internal/stellar"
	"github.com/qoin-wallet/qoin_gateway/internal/vault"
	"github.com/qoin-wallet/qoin_gateway/internal/wallet"
)

type fixture struct {
	svc     *Service
	sim     *stellar.Simulator
	wallets wallet.Repository
	entries ledger.Repository
	vault   *vault.Vault
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	vlt, err := vault.New("pass", "salt")
	if err != nil {
		t.Fatalf("vault: %v", err)
	}

	f := &fixture{
		sim:     stellar.NewSimulator(),
		wallets: wallet.NewMemoryRepository(),
		entries: ledger.NewInMemory(),
		vault:   vlt,
	}

	f.svc, err = NewService(Deps{
		Wallets: f.wallets,
		Entries: f.entries,
		Locks:   ledger.NewAccountLocks(),
		Chain:   f.sim,
		Vault:   vlt,
		Logger:  logging.Discard(),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return f
}

func (f *fixture) newWallet(t *testing.T, userID string, balance int64) (wallet.Wallet, string) {
	t.Helper()
	ctx := context.Background()

	kp, err := f.sim.CreateAccount(ctx)
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	f.sim.SeedAccount(kp, decimal.NewFromInt(1_000_000))

	sealed, err := f.vault.Seal(kp.Secret)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	w := wallet.Wallet{
		UserID:    userID,
		Email:     userID + "@example.com",
		Address:   kp.Address,
		SecretEnc: sealed,
		Balance:   decimal.NewFromInt(balance),
	}
	if err := f.wallets.Create(ctx, w); err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	return w, kp.Secret
}

func (f *fixture) listEntries(t *testing.T, address string) []ledger.Entry {
	t.Helper()
	entries, err := f.entries.ListByAddress(context.Background(), address, 100)
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	return entries
}

func TestDepositToFreshWallet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	w, _ := f.newWallet(t, "alice", 0)

	res, err := f.svc.Deposit(ctx, w.Address, decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if !res.NewBalance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected balance 100, got %s", res.NewBalance)
	}
	if res.TxRef == "" {
		t.Fatal("expected transaction reference")
	}

	entries := f.listEntries(t, w.Address)
	if len(entries) != 1 {
		t.Fatalf("expected one deposit entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Kind != ledger.KindDeposit || e.FromAddress != ledger.IssuerAddress || e.ToAddress != w.Address {
		t.Fatalf("unexpected entry: %+v", e)
	}
	if !e.Fee.IsZero() {
		t.Fatalf("deposits carry no fee, got %s", e.Fee)
	}
}

func TestDepositUnknownWallet(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Deposit(context.Background(), "GMISSING", decimal.NewFromInt(10))
	if !errors.Is(err, wallet.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDepositRejectedMintLeavesNoTrace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	w, _ := f.newWallet(t, "alice", 0)
	f.sim.RejectNext(1)

	if _, err := f.svc.Deposit(ctx, w.Address, decimal.NewFromInt(100)); !errors.Is(err, stellar.ErrRejected) {
		t.Fatalf("expected rejection, got %v", err)
	}

	balance, _ := f.wallets.Balance(ctx, w.Address)
	if !balance.IsZero() {
		t.Fatalf("rejected mint mutated balance: %s", balance)
	}
	if n := len(f.listEntries(t, w.Address)); n != 0 {
		t.Fatalf("rejected mint appended %d entries", n)
	}
}

func TestDepositValidation(t *testing.T) {
	f := newFixture(t)
	w, _ := f.newWallet(t, "alice", 0)

	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-10)} {
		if _, err := f.svc.Deposit(context.Background(), w.Address, amount); err == nil {
			t.Fatalf("expected validation error for amount %s", amount)
		}
	}
}

func TestWithdrawSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	w, secret := f.newWallet(t, "alice", 100)

	res, err := f.svc.Withdraw(ctx, w.Address, decimal.NewFromInt(40), secret)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if !res.NewBalance.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("expected balance 60, got %s", res.NewBalance)
	}

	entries := f.listEntries(t, w.Address)
	if len(entries) != 1 {
		t.Fatalf("expected one withdrawal entry, got %d", len(entries))
	}
	if entries[0].Kind != ledger.KindWithdrawal || entries[0].ToAddress != ledger.BurnAddress {
		t.Fatalf("unexpected entry: %+v", entries[0])
	}
}

func TestWithdrawInsufficientBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	w, secret := f.newWallet(t, "alice", 100)

	_, err := f.svc.Withdraw(ctx, w.Address, decimal.NewFromInt(150), secret)
	if !errors.Is(err, ledger.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	balance, _ := f.wallets.Balance(ctx, w.Address)
	if !balance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("rejected withdrawal mutated balance: %s", balance)
	}
	if n := len(f.listEntries(t, w.Address)); n != 0 {
		t.Fatalf("rejected withdrawal appended %d entries", n)
	}
}

func TestWithdrawWithCustodialSecret(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	w, _ := f.newWallet(t, "alice", 100)

	// no secret in the request: the sealed custodial secret is used
	res, err := f.svc.Withdraw(ctx, w.Address, decimal.NewFromInt(25), "")
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if !res.NewBalance.Equal(decimal.NewFromInt(75)) {
		t.Fatalf("expected balance 75, got %s", res.NewBalance)
	}
}

func TestWithdrawRejectedBurnLeavesNoTrace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	w, secret := f.newWallet(t, "alice", 100)
	f.sim.RejectNext(1)

	if _, err := f.svc.Withdraw(ctx, w.Address, decimal.NewFromInt(10), secret); !errors.Is(err, stellar.ErrRejected) {
		t.Fatalf("expected rejection, got %v", err)
	}

	balance, _ := f.wallets.Balance(ctx, w.Address)
	if !balance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("rejected burn mutated balance: %s", balance)
	}
	if n := len(f.listEntries(t, w.Address)); n != 0 {
		t.Fatalf("rejected burn appended %d entries", n)
	}
}
