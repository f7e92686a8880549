package wallet

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/qoin-wallet/qoin_gateway/internal/ledger"
)

type memoryRepository struct {
	mu     sync.RWMutex
	byAddr map[string]Wallet
	byUser map[string]string // user id -> address
}

// NewMemoryRepository constructs an in-memory repository for tests and
// development mode.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		byAddr: make(map[string]Wallet),
		byUser: make(map[string]string),
	}
}

func (r *memoryRepository) Create(_ context.Context, w Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byAddr[w.Address]; exists {
		return ErrExists
	}
	if _, exists := r.byUser[w.UserID]; exists && w.UserID != "" {
		return ErrExists
	}
	r.byAddr[w.Address] = w
	if w.UserID != "" {
		r.byUser[w.UserID] = w.Address
	}
	return nil
}

func (r *memoryRepository) Ensure(_ context.Context, w Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byAddr[w.Address]; exists {
		return nil
	}
	r.byAddr[w.Address] = w
	if w.UserID != "" {
		r.byUser[w.UserID] = w.Address
	}
	return nil
}

func (r *memoryRepository) GetByAddress(_ context.Context, address string) (Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.byAddr[address]
	if !ok {
		return Wallet{}, ErrNotFound
	}
	return w, nil
}

func (r *memoryRepository) GetByUser(_ context.Context, userID string) (Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	addr, ok := r.byUser[userID]
	if !ok {
		return Wallet{}, ErrNotFound
	}
	return r.byAddr[addr], nil
}

func (r *memoryRepository) Balance(_ context.Context, address string) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.byAddr[address]
	if !ok {
		return decimal.Zero, ErrNotFound
	}
	return w.Balance, nil
}

func (r *memoryRepository) Credit(_ context.Context, address string, amount decimal.Decimal) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.byAddr[address]
	if !ok {
		return decimal.Zero, ErrNotFound
	}
	w.Balance = w.Balance.Add(amount)
	r.byAddr[address] = w
	return w.Balance, nil
}

func (r *memoryRepository) Debit(_ context.Context, address string, amount decimal.Decimal) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.byAddr[address]
	if !ok {
		return decimal.Zero, ErrNotFound
	}
	if w.Balance.LessThan(amount) {
		return decimal.Zero, ledger.ErrInsufficientBalance
	}
	w.Balance = w.Balance.Sub(amount)
	r.byAddr[address] = w
	return w.Balance, nil
}
