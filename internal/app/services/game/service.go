// Package game implements the longshot jackpot rules: ticket shots that open a
// short eligibility window and owner-declared goal shots that pay out from the
// live pool.
package game

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jonboulle/clockwork"

	"github.com/R3E-Network/longshot/internal/app/domain/game"
	"github.com/R3E-Network/longshot/internal/app/services/bank"
	"github.com/R3E-Network/longshot/internal/app/storage"
	"github.com/R3E-Network/longshot/pkg/logger"
)

// Service coordinates the game state machine over the configured stores and
// the pool ledger.
type Service struct {
	configs   storage.ConfigStore
	deadlines storage.DeadlineStore
	transfers storage.TransferStore
	pool      bank.Bank
	clock     clockwork.Clock
	log       *logger.Logger

	reshootLockout bool
}

// Option customises service construction.
type Option func(*Service)

// WithClock overrides the wall clock. Tests use a fake clock to step through
// deadline windows deterministically.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Service) { s.clock = clock }
}

// WithReshootLockout rejects a shoot while the player's previous window is
// still open, instead of silently extending it.
func WithReshootLockout() Option {
	return func(s *Service) { s.reshootLockout = true }
}

// New creates the game service.
func New(configs storage.ConfigStore, deadlines storage.DeadlineStore, transfers storage.TransferStore, pool bank.Bank, log *logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.NewDefault("game")
	}
	s := &Service{
		configs:   configs,
		deadlines: deadlines,
		transfers: transfers,
		pool:      pool,
		clock:     clockwork.NewRealClock(),
		log:       log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InitParams are the initialization inputs. Nil optionals fall back to the
// defaults; an empty owner falls back to the sender.
type InitParams struct {
	Owner            string
	Denom            string
	TicketPrice      *uint64
	RewardPercentage *uint8
	AdminPercentage  *uint8
	RoundDuration    *int64
}

// Initialize creates the singleton configuration. It can only succeed once.
func (s *Service) Initialize(ctx context.Context, sender string, params InitParams) (game.Config, error) {
	denom := strings.TrimSpace(params.Denom)
	if denom == "" {
		return game.Config{}, fmt.Errorf("denom is required")
	}

	owner := strings.TrimSpace(params.Owner)
	if owner == "" {
		owner = sender
	}

	cfg := game.Config{
		Owner:            owner,
		TicketPrice:      game.DefaultTicketPrice,
		RewardPercentage: game.DefaultRewardPercentage,
		AdminPercentage:  game.DefaultAdminPercentage,
		RoundDuration:    game.DefaultRoundDuration,
		Denom:            denom,
	}
	if params.TicketPrice != nil {
		cfg.TicketPrice = *params.TicketPrice
	}
	if params.RewardPercentage != nil {
		cfg.RewardPercentage = *params.RewardPercentage
	}
	if params.AdminPercentage != nil {
		cfg.AdminPercentage = *params.AdminPercentage
	}
	if params.RoundDuration != nil {
		cfg.RoundDuration = *params.RoundDuration
	}

	stored, err := s.configs.InitConfig(ctx, cfg)
	if err != nil {
		return game.Config{}, err
	}

	s.log.WithFields(map[string]any{
		"owner":             stored.Owner,
		"ticket_price":      stored.TicketPrice,
		"reward_percentage": stored.RewardPercentage,
		"admin_percentage":  stored.AdminPercentage,
		"round_duration":    stored.RoundDuration,
		"denom":             stored.Denom,
	}).Info("game initialized")
	return stored, nil
}

// SetTicketPrice updates the ticket price. Owner only.
func (s *Service) SetTicketPrice(ctx context.Context, caller string, price uint64) (game.Config, error) {
	return s.updateConfig(ctx, caller, "set_ticket_price", func(cfg *game.Config) {
		cfg.TicketPrice = price
	})
}

// SetRewardPercentage updates the player payout percentage. Owner only.
func (s *Service) SetRewardPercentage(ctx context.Context, caller string, pct uint8) (game.Config, error) {
	return s.updateConfig(ctx, caller, "set_reward_percentage", func(cfg *game.Config) {
		cfg.RewardPercentage = pct
	})
}

// SetAdminPercentage updates the admin payout percentage. Owner only.
func (s *Service) SetAdminPercentage(ctx context.Context, caller string, pct uint8) (game.Config, error) {
	return s.updateConfig(ctx, caller, "set_admin_percentage", func(cfg *game.Config) {
		cfg.AdminPercentage = pct
	})
}

func (s *Service) updateConfig(ctx context.Context, caller, method string, apply func(*game.Config)) (game.Config, error) {
	cfg, err := s.configs.GetConfig(ctx)
	if err != nil {
		return game.Config{}, err
	}
	if caller != cfg.Owner {
		return game.Config{}, game.ErrUnauthorized
	}

	apply(&cfg)

	stored, err := s.configs.UpdateConfig(ctx, cfg)
	if err != nil {
		return game.Config{}, err
	}
	s.log.WithField("method", method).Info("config updated")
	return stored, nil
}

// Shoot takes a ticket payment and opens (or renews) the player's goal window.
// The payment must match the configured price and denom exactly.
func (s *Service) Shoot(ctx context.Context, player string, payment game.Payment) (game.Deadline, error) {
	cfg, err := s.configs.GetConfig(ctx)
	if err != nil {
		return game.Deadline{}, err
	}

	if payment.Denom == "" {
		return game.Deadline{}, game.ErrInvalidPayment
	}
	if payment.Denom != cfg.Denom || payment.Amount != cfg.TicketPrice {
		return game.Deadline{}, &game.PaymentError{
			ExpectedDenom:  cfg.Denom,
			ExpectedAmount: cfg.TicketPrice,
			ActualDenom:    payment.Denom,
			ActualAmount:   payment.Amount,
		}
	}

	now := s.clock.Now().Unix()

	if s.reshootLockout {
		existing, err := s.deadlines.GetDeadline(ctx, player)
		switch {
		case err == nil:
			if existing.StatusAt(now) == game.StatusActive {
				return game.Deadline{}, game.ErrDeadlineNotPassed
			}
		case !errors.Is(err, game.ErrDeadlineNotFound):
			return game.Deadline{}, fmt.Errorf("check shoot deadline: %w", err)
		}
	}

	if payment.Amount > 0 {
		if err := s.pool.Deposit(ctx, player, payment.Denom, payment.Amount); err != nil {
			return game.Deadline{}, fmt.Errorf("deposit ticket: %w", err)
		}
	}

	deadline, err := s.deadlines.PutDeadline(ctx, game.Deadline{
		Player:    player,
		ExpiresAt: now + cfg.RoundDuration,
	})
	if err != nil {
		// The ticket is already in the pool; hand it back so a failed shoot
		// leaves no trace.
		if payment.Amount > 0 {
			if rerr := s.pool.Pay(ctx, player, payment.Denom, payment.Amount); rerr != nil {
				s.log.WithError(rerr).Errorf("refund ticket for %s failed", player)
			}
		}
		return game.Deadline{}, err
	}

	s.log.WithFields(map[string]any{
		"player":         player,
		"shoot_deadline": deadline.ExpiresAt,
	}).Info("shoot accepted")
	return deadline, nil
}

// GoalShot declares a goal for the player and queues the payout transfers.
// Only the owner may call it, the player must have shot, and the player's
// window must still be open. The deadline entry is left in place so the call
// can be repeated while the window lasts.
func (s *Service) GoalShot(ctx context.Context, caller, player string) (game.Settlement, error) {
	cfg, err := s.configs.GetConfig(ctx)
	if err != nil {
		return game.Settlement{}, err
	}
	if caller != cfg.Owner {
		return game.Settlement{}, game.ErrUnauthorized
	}

	deadline, err := s.deadlines.GetDeadline(ctx, player)
	if err != nil {
		if errors.Is(err, game.ErrDeadlineNotFound) {
			return game.Settlement{}, game.ErrPlayerNotJoined
		}
		return game.Settlement{}, err
	}
	now := s.clock.Now().Unix()
	if now >= deadline.ExpiresAt {
		return game.Settlement{}, game.ErrDeadlinePassed
	}

	balance, err := s.pool.Balance(ctx, cfg.Denom)
	if err != nil {
		return game.Settlement{}, fmt.Errorf("query pool balance: %w", err)
	}

	st := computeSettlement(cfg, player, balance)
	stored := make([]game.Transfer, 0, len(st.Transfers))
	for _, tr := range st.Transfers {
		created, err := s.transfers.CreateTransfer(ctx, tr)
		if err != nil {
			return game.Settlement{}, fmt.Errorf("queue %s transfer: %w", tr.Kind, err)
		}
		stored = append(stored, created)
	}
	st.Transfers = stored

	s.log.WithFields(map[string]any{
		"player":        player,
		"pre_balance":   st.PoolBalance,
		"reward_amount": st.RewardAmount,
		"admin_amount":  st.AdminAmount,
	}).Info("goal shot settled")
	return st, nil
}

// Config returns the current configuration.
func (s *Service) Config(ctx context.Context) (game.Config, error) {
	return s.configs.GetConfig(ctx)
}

// ShootDeadline returns the player's deadline and derived status. A player
// with no recorded shot fails with game.ErrDeadlineNotFound.
func (s *Service) ShootDeadline(ctx context.Context, player string) (game.Deadline, game.PlayerStatus, error) {
	deadline, err := s.deadlines.GetDeadline(ctx, player)
	if err != nil {
		return game.Deadline{}, game.StatusUnjoined, err
	}
	return deadline, deadline.StatusAt(s.clock.Now().Unix()), nil
}

// PoolBalance reports the pool's live balance in the configured denom.
func (s *Service) PoolBalance(ctx context.Context) (uint64, string, error) {
	cfg, err := s.configs.GetConfig(ctx)
	if err != nil {
		return 0, "", err
	}
	balance, err := s.pool.Balance(ctx, cfg.Denom)
	if err != nil {
		return 0, "", err
	}
	return balance, cfg.Denom, nil
}

// Transfers lists all queued transfers, oldest first.
func (s *Service) Transfers(ctx context.Context) ([]game.Transfer, error) {
	return s.transfers.ListTransfers(ctx)
}

// CompleteTransfer finalises a pending transfer after the settlement poller
// resolves it. Non-pending transfers are left untouched.
func (s *Service) CompleteTransfer(ctx context.Context, id string, success bool, message string) (game.Transfer, error) {
	tr, err := s.transfers.GetTransfer(ctx, id)
	if err != nil {
		return game.Transfer{}, err
	}
	if tr.Status != game.TransferPending {
		return tr, nil
	}

	if success {
		tr.Status = game.TransferCompleted
	} else {
		tr.Status = game.TransferFailed
	}
	tr.Message = message

	updated, err := s.transfers.UpdateTransfer(ctx, tr)
	if err != nil {
		return game.Transfer{}, err
	}
	s.log.WithFields(map[string]any{
		"transfer": updated.ID,
		"status":   updated.Status,
	}).Info("transfer finalised")
	return updated, nil
}
