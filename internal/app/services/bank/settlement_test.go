package bank

import (
	"context"
	"testing"

	"github.com/R3E-Network/longshot/internal/app/domain/game"
	"github.com/R3E-Network/longshot/internal/app/storage"
	"github.com/R3E-Network/longshot/internal/app/storage/memory"
)

// storeCompleter finalises transfers directly against the store, standing in
// for the game service.
type storeCompleter struct {
	store storage.TransferStore
}

func (c storeCompleter) CompleteTransfer(ctx context.Context, id string, success bool, message string) (game.Transfer, error) {
	tr, err := c.store.GetTransfer(ctx, id)
	if err != nil {
		return game.Transfer{}, err
	}
	if success {
		tr.Status = game.TransferCompleted
	} else {
		tr.Status = game.TransferFailed
	}
	tr.Message = message
	return c.store.UpdateTransfer(ctx, tr)
}

func TestSettlementPollerPaysPendingTransfers(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	ledger := NewMemoryBank()
	if err := ledger.Deposit(ctx, "funder", "uluna", 100); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	queued, err := store.CreateTransfer(ctx, game.Transfer{
		Kind:      game.TransferReward,
		Recipient: "player",
		Denom:     "uluna",
		Amount:    80,
		Status:    game.TransferPending,
	})
	if err != nil {
		t.Fatalf("create transfer: %v", err)
	}

	poller := NewSettlementPoller(store, storeCompleter{store: store}, NewLedgerResolver(ledger), nil)
	poller.Tick(ctx)

	settled, err := store.GetTransfer(ctx, queued.ID)
	if err != nil {
		t.Fatalf("get transfer: %v", err)
	}
	if settled.Status != game.TransferCompleted {
		t.Fatalf("expected completed, got %s", settled.Status)
	}

	balance, _ := ledger.Balance(ctx, "uluna")
	if balance != 20 {
		t.Fatalf("expected remaining balance 20, got %d", balance)
	}
	payments := ledger.Payments()
	if len(payments) != 1 || payments[0].Recipient != "player" || payments[0].Amount != 80 {
		t.Fatalf("unexpected payments: %+v", payments)
	}
}

func TestSettlementPollerFailsOverdrawnTransfer(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	ledger := NewMemoryBank()
	if err := ledger.Deposit(ctx, "funder", "uluna", 10); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	queued, err := store.CreateTransfer(ctx, game.Transfer{
		Kind:      game.TransferReward,
		Recipient: "player",
		Denom:     "uluna",
		Amount:    80,
		Status:    game.TransferPending,
	})
	if err != nil {
		t.Fatalf("create transfer: %v", err)
	}

	poller := NewSettlementPoller(store, storeCompleter{store: store}, NewLedgerResolver(ledger), nil)
	poller.Tick(ctx)

	settled, err := store.GetTransfer(ctx, queued.ID)
	if err != nil {
		t.Fatalf("get transfer: %v", err)
	}
	if settled.Status != game.TransferFailed {
		t.Fatalf("expected failed, got %s", settled.Status)
	}
	if settled.Message == "" {
		t.Fatal("expected failure message")
	}

	balance, _ := ledger.Balance(ctx, "uluna")
	if balance != 10 {
		t.Fatalf("expected untouched balance 10, got %d", balance)
	}
}

func TestSettlementPollerStartStop(t *testing.T) {
	store := memory.New()
	poller := NewSettlementPoller(store, nil, NewLedgerResolver(NewMemoryBank()), nil)

	ctx := context.Background()
	if err := poller.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := poller.Start(ctx); err != nil {
		t.Fatalf("double start: %v", err)
	}
	if err := poller.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := poller.Stop(ctx); err != nil {
		t.Fatalf("double stop: %v", err)
	}
}
