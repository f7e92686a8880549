package stellar

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Simulator is an in-memory ledger network used in development mode and unit
// tests. It keeps on-ledger balances per address and hands out synthetic
// transaction hashes, so settlement logic can be exercised without a network.
type Simulator struct {
	mu         sync.Mutex
	balances   map[string]decimal.Decimal
	secrets    map[string]string // secret -> address
	trustlines map[string]bool

	// rejectNext holds errors to return from upcoming submissions, consumed
	// in order. Tests use it to simulate network failures mid-settlement.
	rejectNext []error
}

// NewSimulator builds an empty simulated ledger.
func NewSimulator() *Simulator {
	return &Simulator{
		balances:   make(map[string]decimal.Decimal),
		secrets:    make(map[string]string),
		trustlines: make(map[string]bool),
	}
}

// RejectNext queues a failure for the next n submissions.
func (s *Simulator) RejectNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < n; i++ {
		s.rejectNext = append(s.rejectNext, ErrRejected)
	}
}

// RejectAfter queues n successful submissions followed by one failure.
func (s *Simulator) RejectAfter(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < n; i++ {
		s.rejectNext = append(s.rejectNext, nil)
	}
	s.rejectNext = append(s.rejectNext, ErrRejected)
}

func (s *Simulator) nextOutcome() error {
	if len(s.rejectNext) == 0 {
		return nil
	}
	err := s.rejectNext[0]
	s.rejectNext = s.rejectNext[1:]
	return err
}

// CreateAccount generates a random keypair and registers the account with a
// zero balance.
func (s *Simulator) CreateAccount(_ context.Context) (Keypair, error) {
	kp := Keypair{
		Address: "G" + randomKey(),
		Secret:  "S" + randomKey(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.nextOutcome(); err != nil {
		return Keypair{}, err
	}
	s.balances[kp.Address] = decimal.Zero
	s.secrets[kp.Secret] = kp.Address
	return kp, nil
}

// EstablishTrustline marks the account as able to hold the asset.
func (s *Simulator) EstablishTrustline(_ context.Context, secret string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.nextOutcome(); err != nil {
		return "", err
	}

	address, ok := s.secrets[secret]
	if !ok {
		return "", fmt.Errorf("%w: unknown secret", ErrRejected)
	}
	s.trustlines[address] = true
	return uuid.NewString(), nil
}

// Mint credits freshly issued tokens to the destination.
func (s *Simulator) Mint(_ context.Context, destination string, amount decimal.Decimal) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.nextOutcome(); err != nil {
		return "", err
	}
	if amount.Sign() <= 0 {
		return "", fmt.Errorf("%w: non-positive amount", ErrRejected)
	}

	s.balances[destination] = s.balances[destination].Add(amount.Round(Precision))
	return uuid.NewString(), nil
}

// SendPayment moves tokens between simulated accounts.
func (s *Simulator) SendPayment(_ context.Context, sourceSecret, destination string, amount decimal.Decimal) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.nextOutcome(); err != nil {
		return "", err
	}
	if amount.Sign() <= 0 {
		return "", fmt.Errorf("%w: non-positive amount", ErrRejected)
	}

	source, ok := s.secrets[sourceSecret]
	if !ok {
		return "", fmt.Errorf("%w: unknown secret", ErrRejected)
	}

	amount = amount.Round(Precision)
	if s.balances[source].LessThan(amount) {
		return "", fmt.Errorf("%w: underfunded source %s", ErrRejected, source)
	}

	s.balances[source] = s.balances[source].Sub(amount)
	s.balances[destination] = s.balances[destination].Add(amount)
	return uuid.NewString(), nil
}

// Burn pays the amount into a sink address, mirroring an issuer pay-back.
func (s *Simulator) Burn(ctx context.Context, sourceSecret string, amount decimal.Decimal) (string, error) {
	return s.SendPayment(ctx, sourceSecret, "BURN_SINK", amount)
}

// Balance reports the simulated on-ledger balance.
func (s *Simulator) Balance(_ context.Context, address string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	balance, ok := s.balances[address]
	if !ok {
		return decimal.Zero, nil
	}
	return balance, nil
}

// SeedAccount registers a keypair with an opening on-ledger balance. Test
// helper, mirroring what deposits would otherwise build up.
func (s *Simulator) SeedAccount(kp Keypair, balance decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[kp.Address] = balance
	s.secrets[kp.Secret] = kp.Address
	s.trustlines[kp.Address] = true
}

func randomKey() string {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		panic(fmt.Sprintf("stellar simulator: entropy unavailable: %v", err))
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw)
}
