package storage

import (
	"context"

	"github.com/R3E-Network/longshot/internal/app/domain/game"
)

// ConfigStore persists the singleton contract configuration.
type ConfigStore interface {
	// InitConfig stores the configuration exactly once. A second call fails
	// with game.ErrAlreadyInitialized.
	InitConfig(ctx context.Context, cfg game.Config) (game.Config, error)
	UpdateConfig(ctx context.Context, cfg game.Config) (game.Config, error)
	GetConfig(ctx context.Context) (game.Config, error)
}

// DeadlineStore persists per-player shoot deadlines. There is no delete:
// entries are only ever created or overwritten.
type DeadlineStore interface {
	PutDeadline(ctx context.Context, d game.Deadline) (game.Deadline, error)
	GetDeadline(ctx context.Context, player string) (game.Deadline, error)
}

// TransferStore journals declared transfer intents and their settlement state.
type TransferStore interface {
	CreateTransfer(ctx context.Context, tr game.Transfer) (game.Transfer, error)
	UpdateTransfer(ctx context.Context, tr game.Transfer) (game.Transfer, error)
	GetTransfer(ctx context.Context, id string) (game.Transfer, error)
	ListTransfers(ctx context.Context) ([]game.Transfer, error)
	ListPendingTransfers(ctx context.Context) ([]game.Transfer, error)
}
