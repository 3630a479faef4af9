// Package treasury implements the fund-transfer capability as an in-memory
// custody account. It stands in for the external transfer primitive:
// participants hold balances, Deposit moves value into auction custody and
// Pay moves custodied value back out.
package treasury

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/cloudx-io/raffleauction/core"
)

// ErrInsufficientFunds is returned when a participant balance or the
// custody account cannot cover a transfer.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrBalanceOverflow is returned when a transfer would push a balance or the
// custody account past the largest representable amount.
var ErrBalanceOverflow = errors.New("balance overflow")

// Treasury tracks per-participant balances and the auction custody balance.
// Implements core.FundCustody.
type Treasury struct {
	mu       sync.Mutex
	balances map[core.ParticipantID]uint64
	custody  uint64
}

// New returns an empty treasury.
func New() *Treasury {
	return &Treasury{balances: make(map[core.ParticipantID]uint64)}
}

// Credit adds value to a participant's balance. This is the boundary where
// external value enters the system (the daemon credits the value attached
// to an incoming bid request before the engine draws it into custody).
func (t *Treasury) Credit(p core.ParticipantID, amount uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if amount > math.MaxUint64-t.balances[p] {
		return fmt.Errorf("credit %d to %s: %w", amount, p, ErrBalanceOverflow)
	}
	t.balances[p] += amount
	return nil
}

// BalanceOf returns a participant's free balance.
func (t *Treasury) BalanceOf(p core.ParticipantID) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balances[p]
}

// CustodyBalance returns the value currently held in auction custody.
func (t *Treasury) CustodyBalance() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.custody
}

// Deposit moves value from a participant's balance into custody.
func (t *Treasury) Deposit(from core.ParticipantID, amount uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.balances[from] < amount {
		return fmt.Errorf("deposit %d from %s: %w", amount, from, ErrInsufficientFunds)
	}
	if amount > math.MaxUint64-t.custody {
		return fmt.Errorf("deposit %d from %s: %w", amount, from, ErrBalanceOverflow)
	}
	t.balances[from] -= amount
	t.custody += amount
	return nil
}

// Pay moves custodied value to a participant or the proceeds recipient.
func (t *Treasury) Pay(to core.ParticipantID, amount uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.custody < amount {
		return fmt.Errorf("pay %d to %s: %w", amount, to, ErrInsufficientFunds)
	}
	if amount > math.MaxUint64-t.balances[to] {
		return fmt.Errorf("pay %d to %s: %w", amount, to, ErrBalanceOverflow)
	}
	t.custody -= amount
	t.balances[to] += amount
	return nil
}
