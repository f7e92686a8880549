package ledger

import (
	"sort"
	"sync"
)

// AccountLocks serializes settlement per ledger address. Two concurrent
// settlements touching the same address observe each other's balance
// mutations; settlements on disjoint addresses proceed in parallel.
type AccountLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewAccountLocks builds an empty lock registry.
func NewAccountLocks() *AccountLocks {
	return &AccountLocks{locks: make(map[string]*sync.Mutex)}
}

func (a *AccountLocks) lockFor(address string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()

	l, ok := a.locks[address]
	if !ok {
		l = &sync.Mutex{}
		a.locks[address] = l
	}
	return l
}

// Acquire locks every distinct address and returns a release function.
// Addresses are locked in sorted order so two settlements over the same pair
// cannot deadlock.
func (a *AccountLocks) Acquire(addresses ...string) func() {
	distinct := make([]string, 0, len(addresses))
	seen := make(map[string]bool, len(addresses))
	for _, addr := range addresses {
		if addr == "" || seen[addr] {
			continue
		}
		seen[addr] = true
		distinct = append(distinct, addr)
	}
	sort.Strings(distinct)

	held := make([]*sync.Mutex, 0, len(distinct))
	for _, addr := range distinct {
		l := a.lockFor(addr)
		l.Lock()
		held = append(held, l)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
