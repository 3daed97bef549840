// Package bank abstracts the pooled ledger the game draws from: the live
// contract balance and the outbound payout transfers.
package bank

import (
	"context"
	"fmt"
	"sync"
)

// Bank is the ledger the game service settles against. Deposit credits the
// pool with a ticket payment, Balance reports the pool's live holdings for a
// denom, and Pay moves funds out of the pool.
type Bank interface {
	Deposit(ctx context.Context, from, denom string, amount uint64) error
	Balance(ctx context.Context, denom string) (uint64, error)
	Pay(ctx context.Context, recipient, denom string, amount uint64) error
}

// MemoryBank is an in-process Bank keeping balances per denom. It is used in
// tests and local development, where no external ledger is available.
type MemoryBank struct {
	mu       sync.Mutex
	balances map[string]uint64
	payments []PaymentRecord
}

// PaymentRecord captures an executed Pay call for inspection in tests.
type PaymentRecord struct {
	Recipient string
	Denom     string
	Amount    uint64
}

var _ Bank = (*MemoryBank)(nil)

// NewMemoryBank creates a bank with zero balances.
func NewMemoryBank() *MemoryBank {
	return &MemoryBank{balances: make(map[string]uint64)}
}

// Deposit credits the pool. Shoot ticket payments land here.
func (b *MemoryBank) Deposit(_ context.Context, _, denom string, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[denom] += amount
	return nil
}

func (b *MemoryBank) Balance(_ context.Context, denom string) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[denom], nil
}

func (b *MemoryBank) Pay(_ context.Context, recipient, denom string, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.balances[denom] < amount {
		return fmt.Errorf("insufficient funds: have %d%s, need %d%s", b.balances[denom], denom, amount, denom)
	}
	b.balances[denom] -= amount
	b.payments = append(b.payments, PaymentRecord{Recipient: recipient, Denom: denom, Amount: amount})
	return nil
}

// Payments returns a copy of the executed payments in order.
func (b *MemoryBank) Payments() []PaymentRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]PaymentRecord, len(b.payments))
	copy(out, b.payments)
	return out
}
