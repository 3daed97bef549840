package bank

import (
	"context"
	"sync"
	"time"

	"github.com/R3E-Network/longshot/internal/app/domain/game"
	"github.com/R3E-Network/longshot/internal/app/storage"
	"github.com/R3E-Network/longshot/internal/app/system"
	"github.com/R3E-Network/longshot/pkg/logger"
)

// PayoutResolver attempts to execute a queued transfer against the ledger.
type PayoutResolver interface {
	Resolve(ctx context.Context, tr game.Transfer) (done bool, success bool, message string, retryAfter time.Duration, err error)
}

// TransferCompleter finalises a pending transfer once it has been resolved.
// The game service satisfies this.
type TransferCompleter interface {
	CompleteTransfer(ctx context.Context, id string, success bool, message string) (game.Transfer, error)
}

// LedgerResolver pays transfers straight from a Bank. A payment rejected by
// the ledger, such as an overdrawn pool, fails the transfer rather than
// retrying it: the pool will not refill on its own.
type LedgerResolver struct {
	ledger Bank
}

func NewLedgerResolver(ledger Bank) *LedgerResolver {
	return &LedgerResolver{ledger: ledger}
}

func (r *LedgerResolver) Resolve(ctx context.Context, tr game.Transfer) (bool, bool, string, time.Duration, error) {
	if err := r.ledger.Pay(ctx, tr.Recipient, tr.Denom, tr.Amount); err != nil {
		return true, false, err.Error(), 0, nil
	}
	return true, true, "", 0, nil
}

// SettlementPoller watches queued transfers and settles them using the resolver.
type SettlementPoller struct {
	store     storage.TransferStore
	completer TransferCompleter
	resolver  PayoutResolver
	interval  time.Duration
	log       *logger.Logger

	mu          sync.Mutex
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	running     bool
	nextAttempt map[string]time.Time
}

var _ system.Service = (*SettlementPoller)(nil)

func NewSettlementPoller(store storage.TransferStore, completer TransferCompleter, resolver PayoutResolver, log *logger.Logger) *SettlementPoller {
	if log == nil {
		log = logger.NewDefault("payout-settlement")
	}
	return &SettlementPoller{
		store:       store,
		completer:   completer,
		resolver:    resolver,
		interval:    5 * time.Second,
		log:         log,
		nextAttempt: make(map[string]time.Time),
	}
}

func (p *SettlementPoller) Name() string { return "payout-settlement" }

func (p *SettlementPoller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				p.Tick(runCtx)
			}
		}
	}()

	p.log.Info("payout settlement poller started")
	return nil
}

func (p *SettlementPoller) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	cancel := p.cancel
	p.running = false
	p.cancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.wg.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	return nil
}

// Tick processes the pending transfers once. The poller calls it on every
// interval; tests call it directly.
func (p *SettlementPoller) Tick(ctx context.Context) {
	transfers, err := p.store.ListPendingTransfers(ctx)
	if err != nil {
		p.log.WithError(err).Warn("list pending transfers failed")
		return
	}

	now := time.Now()
	for _, tr := range transfers {
		if !p.shouldAttempt(tr.ID, now) {
			continue
		}

		done, success, message, retryAfter, err := p.resolver.Resolve(ctx, tr)
		if err != nil {
			p.log.WithError(err).Warnf("resolver error for transfer %s", tr.ID)
			p.scheduleNext(tr.ID, retryAfter)
			continue
		}

		if !done {
			p.scheduleNext(tr.ID, retryAfter)
			continue
		}

		if p.completer == nil {
			p.log.Warnf("no completer attached; cannot settle %s", tr.ID)
			continue
		}

		if _, err := p.completer.CompleteTransfer(ctx, tr.ID, success, message); err != nil {
			p.log.WithError(err).Warnf("complete transfer %s failed", tr.ID)
			p.scheduleNext(tr.ID, retryAfter)
			continue
		}
		p.log.Infof("transfer %s settled (success=%t)", tr.ID, success)
		p.clearSchedule(tr.ID)
	}
}

func (p *SettlementPoller) shouldAttempt(id string, now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	next, ok := p.nextAttempt[id]
	if !ok || now.After(next) {
		return true
	}
	return false
}

func (p *SettlementPoller) scheduleNext(id string, after time.Duration) {
	if after <= 0 {
		after = p.interval
	}
	p.mu.Lock()
	p.nextAttempt[id] = time.Now().Add(after)
	p.mu.Unlock()
}

func (p *SettlementPoller) clearSchedule(id string) {
	p.mu.Lock()
	delete(p.nextAttempt, id)
	p.mu.Unlock()
}
