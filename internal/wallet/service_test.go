package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/qoin-wallet/qoin_gateway/internal/ledger"
	"github.com/qoin-wallet/qoin_gateway/internal/notification"
	"github.com/qoin-wallet/qoin_gateway/internal/stellar"
	"github.com/qoin-wallet/qoin_gateway/internal/vault"
)

type recordingNotifier struct {
	messages []notification.Message
}

func (n *recordingNotifier) Send(_ context.Context, msg notification.Message) error {
	n.messages = append(n.messages, msg)
	return nil
}

func newTestService(t *testing.T, sim *stellar.Simulator, notifier notification.Notifier) (*Service, Repository) {
	t.Helper()

	vlt, err := vault.New("test passphrase", "test salt")
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}

	repo := NewMemoryRepository()
	svc, err := NewService(Deps{
		Repo:     repo,
		Entries:  ledger.NewInMemory(),
		Chain:    sim,
		Vault:    vlt,
		Notifier: notifier,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo
}

func TestCreateSealsSecretAndNotifies(t *testing.T) {
	sim := stellar.NewSimulator()
	notifier := &recordingNotifier{}
	svc, repo := newTestService(t, sim, notifier)
	ctx := context.Background()

	w, secret, err := svc.Create(ctx, CreateInput{UserID: "user-1", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if secret == "" {
		t.Fatal("expected plaintext secret returned once")
	}
	if len(w.SecretEnc) == 0 {
		t.Fatal("expected sealed secret on the wallet row")
	}
	if string(w.SecretEnc) == secret {
		t.Fatal("secret stored in plaintext")
	}
	if !w.Balance.IsZero() {
		t.Fatalf("fresh wallet balance should be zero, got %s", w.Balance)
	}

	stored, err := repo.GetByAddress(ctx, w.Address)
	if err != nil {
		t.Fatalf("stored wallet lookup: %v", err)
	}
	if stored.UserID != "user-1" || stored.Email != "alice@example.com" {
		t.Fatalf("unexpected stored wallet: %+v", stored)
	}

	if len(notifier.messages) != 1 || notifier.messages[0].Kind != notification.KindWalletCreated {
		t.Fatalf("expected wallet_created notification, got %+v", notifier.messages)
	}
}

func TestCreateSealedSecretOpensBack(t *testing.T) {
	sim := stellar.NewSimulator()
	vlt, err := vault.New("pass", "salt")
	if err != nil {
		t.Fatalf("vault: %v", err)
	}
	repo := NewMemoryRepository()
	svc, err := NewService(Deps{Repo: repo, Entries: ledger.NewInMemory(), Chain: sim, Vault: vlt})
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	w, secret, err := svc.Create(context.Background(), CreateInput{UserID: "u", Email: "u@example.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	opened, err := vlt.Open(w.SecretEnc)
	if err != nil {
		t.Fatalf("open sealed secret: %v", err)
	}
	if opened != secret {
		t.Fatal("sealed secret does not round trip")
	}
}

func TestCreateRejectsDuplicateAccount(t *testing.T) {
	svc, _ := newTestService(t, stellar.NewSimulator(), nil)
	ctx := context.Background()

	if _, _, err := svc.Create(ctx, CreateInput{UserID: "user-1", Email: "a@example.com"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, _, err := svc.Create(ctx, CreateInput{UserID: "user-1", Email: "b@example.com"}); !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists for duplicate account, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t, stellar.NewSimulator(), nil)
	ctx := context.Background()

	if _, _, err := svc.Create(ctx, CreateInput{UserID: "", Email: "a@b.c"}); err == nil {
		t.Fatal("expected error for missing user id")
	}
	if _, _, err := svc.Create(ctx, CreateInput{UserID: "u", Email: "not-an-email"}); err == nil {
		t.Fatal("expected error for invalid email")
	}
}

func TestCreateLedgerRejection(t *testing.T) {
	sim := stellar.NewSimulator()
	sim.RejectNext(1)
	svc, repo := newTestService(t, sim, nil)

	if _, _, err := svc.Create(context.Background(), CreateInput{UserID: "u", Email: "u@example.com"}); !errors.Is(err, stellar.ErrRejected) {
		t.Fatalf("expected ledger rejection, got %v", err)
	}

	if _, err := repo.GetByUser(context.Background(), "u"); !errors.Is(err, ErrNotFound) {
		t.Fatal("no wallet row should exist after a rejected creation")
	}
}

func TestBalanceReturnsBothViews(t *testing.T) {
	sim := stellar.NewSimulator()
	svc, repo := newTestService(t, sim, nil)
	ctx := context.Background()

	w, _, err := svc.Create(ctx, CreateInput{UserID: "u", Email: "u@example.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// drift the two views apart: mint on ledger without settling locally
	if _, err := sim.Mint(ctx, w.Address, decimal.NewFromInt(75)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := repo.Credit(ctx, w.Address, decimal.NewFromInt(50)); err != nil {
		t.Fatalf("credit: %v", err)
	}

	pair, err := svc.Balance(ctx, w.Address)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !pair.Local.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected local 50, got %s", pair.Local)
	}
	if !pair.Ledger.Equal(decimal.NewFromInt(75)) {
		t.Fatalf("expected ledger 75, got %s", pair.Ledger)
	}
}

func TestBalanceUnknownWallet(t *testing.T) {
	svc, _ := newTestService(t, stellar.NewSimulator(), nil)
	if _, err := svc.Balance(context.Background(), "GMISSING"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHistoryLimitClamping(t *testing.T) {
	sim := stellar.NewSimulator()
	vlt, _ := vault.New("pass", "salt")
	repo := NewMemoryRepository()
	entries := ledger.NewInMemory()
	svc, err := NewService(Deps{Repo: repo, Entries: entries, Chain: sim, Vault: vlt})
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := entries.Append(ctx, ledger.Entry{
			ID:          "e",
			FromAddress: ledger.IssuerAddress,
			ToAddress:   "GA",
			Amount:      decimal.NewFromInt(int64(i + 1)),
			Kind:        ledger.KindDeposit,
		})
		if err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := svc.History(ctx, "GA", 2)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected limit honored, got %d entries", len(got))
	}

	got, err = svc.History(ctx, "GA", 0)
	if err != nil {
		t.Fatalf("history default: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected all 3 with default limit, got %d", len(got))
	}
}
