package core

import (
	"sync"

	"github.com/holiman/uint256"

	"github.com/sigstream/sigstream/core/types"
)

// Ledger tracks native-currency balances. Subscribe moves the attached
// payment to the channel owner through it; a failed transfer fails the
// whole subscription.
type Ledger struct {
	mu       sync.RWMutex
	balances map[types.Address]*uint256.Int
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{balances: make(map[types.Address]*uint256.Int)}
}

// Deposit credits addr by amount.
func (l *Ledger) Deposit(addr types.Address, amount *uint256.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	bal, ok := l.balances[addr]
	if !ok {
		bal = new(uint256.Int)
		l.balances[addr] = bal
	}
	bal.Add(bal, amount)
}

// BalanceOf returns a copy of addr's balance.
func (l *Ledger) BalanceOf(addr types.Address) *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if bal, ok := l.balances[addr]; ok {
		return new(uint256.Int).Set(bal)
	}
	return new(uint256.Int)
}

// Transfer moves amount from one account to another atomically, failing
// with ErrInsufficientFunds when from cannot cover it.
func (l *Ledger) Transfer(from, to types.Address, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	src, ok := l.balances[from]
	if !ok || src.Lt(amount) {
		return ErrInsufficientFunds
	}
	dst, ok := l.balances[to]
	if !ok {
		dst = new(uint256.Int)
		l.balances[to] = dst
	}
	src.Sub(src, amount)
	dst.Add(dst, amount)
	return nil
}
