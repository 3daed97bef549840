package app

import (
	"context"
	"fmt"

	banksvc "github.com/R3E-Network/longshot/internal/app/services/bank"
	gamesvc "github.com/R3E-Network/longshot/internal/app/services/game"
	"github.com/R3E-Network/longshot/internal/app/storage"
	"github.com/R3E-Network/longshot/internal/app/storage/memory"
	"github.com/R3E-Network/longshot/internal/app/system"
	"github.com/R3E-Network/longshot/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Configs   storage.ConfigStore
	Deadlines storage.DeadlineStore
	Transfers storage.TransferStore
}

// Application ties domain services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Game *gamesvc.Service
	Pool banksvc.Bank
}

// New builds a fully initialised application with the provided stores. A nil
// pool falls back to the in-memory bank.
func New(stores Stores, pool banksvc.Bank, log *logger.Logger, gameOpts ...gamesvc.Option) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Configs == nil {
		stores.Configs = mem
	}
	if stores.Deadlines == nil {
		stores.Deadlines = mem
	}
	if stores.Transfers == nil {
		stores.Transfers = mem
	}
	if pool == nil {
		pool = banksvc.NewMemoryBank()
	}

	manager := system.NewManager()

	gameService := gamesvc.New(stores.Configs, stores.Deadlines, stores.Transfers, pool, log, gameOpts...)

	if err := manager.Register(system.NoopService{ServiceName: "game"}); err != nil {
		return nil, fmt.Errorf("register game service: %w", err)
	}

	resolver := banksvc.NewLedgerResolver(pool)
	settlement := banksvc.NewSettlementPoller(stores.Transfers, gameService, resolver, log)
	if err := manager.Register(settlement); err != nil {
		return nil, fmt.Errorf("register %s: %w", settlement.Name(), err)
	}

	return &Application{
		manager: manager,
		log:     log,
		Game:    gameService,
		Pool:    pool,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
