package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/R3E-Network/longshot/internal/app/domain/game"
	"github.com/R3E-Network/longshot/internal/app/storage"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ storage.ConfigStore = (*Store)(nil)
var _ storage.DeadlineStore = (*Store)(nil)
var _ storage.TransferStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS longshot_config (
			singleton         BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (singleton),
			owner             TEXT NOT NULL,
			ticket_price      BIGINT NOT NULL,
			reward_percentage SMALLINT NOT NULL,
			admin_percentage  SMALLINT NOT NULL,
			round_duration    BIGINT NOT NULL,
			denom             TEXT NOT NULL,
			created_at        TIMESTAMPTZ NOT NULL,
			updated_at        TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS longshot_deadlines (
			player     TEXT PRIMARY KEY,
			expires_at BIGINT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS longshot_transfers (
			id         TEXT PRIMARY KEY,
			kind       TEXT NOT NULL,
			recipient  TEXT NOT NULL,
			denom      TEXT NOT NULL,
			amount     BIGINT NOT NULL,
			status     TEXT NOT NULL,
			message    TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
	`)
	return err
}

// --- ConfigStore ------------------------------------------------------------

func (s *Store) InitConfig(ctx context.Context, cfg game.Config) (game.Config, error) {
	now := time.Now().UTC()
	cfg.CreatedAt = now
	cfg.UpdatedAt = now

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO longshot_config (singleton, owner, ticket_price, reward_percentage, admin_percentage, round_duration, denom, created_at, updated_at)
		VALUES (TRUE, $1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (singleton) DO NOTHING
	`, cfg.Owner, int64(cfg.TicketPrice), int16(cfg.RewardPercentage), int16(cfg.AdminPercentage), cfg.RoundDuration, cfg.Denom, cfg.CreatedAt, cfg.UpdatedAt)
	if err != nil {
		return game.Config{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return game.Config{}, game.ErrAlreadyInitialized
	}
	return cfg, nil
}

func (s *Store) UpdateConfig(ctx context.Context, cfg game.Config) (game.Config, error) {
	cfg.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE longshot_config
		SET owner = $1, ticket_price = $2, reward_percentage = $3, admin_percentage = $4, round_duration = $5, denom = $6, updated_at = $7
		WHERE singleton
	`, cfg.Owner, int64(cfg.TicketPrice), int16(cfg.RewardPercentage), int16(cfg.AdminPercentage), cfg.RoundDuration, cfg.Denom, cfg.UpdatedAt)
	if err != nil {
		return game.Config{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return game.Config{}, game.ErrNotInitialized
	}
	return cfg, nil
}

func (s *Store) GetConfig(ctx context.Context) (game.Config, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT owner, ticket_price, reward_percentage, admin_percentage, round_duration, denom, created_at, updated_at
		FROM longshot_config
		WHERE singleton
	`)

	var (
		cfg       game.Config
		price     int64
		rewardPct int16
		adminPct  int16
	)
	if err := row.Scan(&cfg.Owner, &price, &rewardPct, &adminPct, &cfg.RoundDuration, &cfg.Denom, &cfg.CreatedAt, &cfg.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return game.Config{}, game.ErrNotInitialized
		}
		return game.Config{}, err
	}
	cfg.TicketPrice = uint64(price)
	cfg.RewardPercentage = uint8(rewardPct)
	cfg.AdminPercentage = uint8(adminPct)
	return cfg, nil
}

// --- DeadlineStore ----------------------------------------------------------

func (s *Store) PutDeadline(ctx context.Context, d game.Deadline) (game.Deadline, error) {
	d.UpdatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO longshot_deadlines (player, expires_at, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (player) DO UPDATE SET expires_at = $2, updated_at = $3
	`, d.Player, d.ExpiresAt, d.UpdatedAt)
	if err != nil {
		return game.Deadline{}, err
	}
	return d, nil
}

func (s *Store) GetDeadline(ctx context.Context, player string) (game.Deadline, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT player, expires_at, updated_at
		FROM longshot_deadlines
		WHERE player = $1
	`, player)

	var d game.Deadline
	if err := row.Scan(&d.Player, &d.ExpiresAt, &d.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return game.Deadline{}, game.ErrDeadlineNotFound
		}
		return game.Deadline{}, err
	}
	return d, nil
}

// --- TransferStore ----------------------------------------------------------

func (s *Store) CreateTransfer(ctx context.Context, tr game.Transfer) (game.Transfer, error) {
	if tr.ID == "" {
		tr.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	tr.CreatedAt = now
	tr.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO longshot_transfers (id, kind, recipient, denom, amount, status, message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, tr.ID, string(tr.Kind), tr.Recipient, tr.Denom, int64(tr.Amount), string(tr.Status), tr.Message, tr.CreatedAt, tr.UpdatedAt)
	if err != nil {
		return game.Transfer{}, err
	}
	return tr, nil
}

func (s *Store) UpdateTransfer(ctx context.Context, tr game.Transfer) (game.Transfer, error) {
	tr.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE longshot_transfers
		SET kind = $2, recipient = $3, denom = $4, amount = $5, status = $6, message = $7, updated_at = $8
		WHERE id = $1
	`, tr.ID, string(tr.Kind), tr.Recipient, tr.Denom, int64(tr.Amount), string(tr.Status), tr.Message, tr.UpdatedAt)
	if err != nil {
		return game.Transfer{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return game.Transfer{}, sql.ErrNoRows
	}
	return tr, nil
}

func (s *Store) GetTransfer(ctx context.Context, id string) (game.Transfer, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, recipient, denom, amount, status, message, created_at, updated_at
		FROM longshot_transfers
		WHERE id = $1
	`, id)
	return scanTransfer(row)
}

func (s *Store) ListTransfers(ctx context.Context) ([]game.Transfer, error) {
	return s.listTransfers(ctx, `
		SELECT id, kind, recipient, denom, amount, status, message, created_at, updated_at
		FROM longshot_transfers
		ORDER BY created_at, id
	`)
}

func (s *Store) ListPendingTransfers(ctx context.Context) ([]game.Transfer, error) {
	return s.listTransfers(ctx, `
		SELECT id, kind, recipient, denom, amount, status, message, created_at, updated_at
		FROM longshot_transfers
		WHERE status = 'pending'
		ORDER BY created_at, id
	`)
}

func (s *Store) listTransfers(ctx context.Context, query string) ([]game.Transfer, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []game.Transfer
	for rows.Next() {
		tr, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, tr)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransfer(row rowScanner) (game.Transfer, error) {
	var (
		tr     game.Transfer
		kind   string
		status string
		amount int64
	)
	if err := row.Scan(&tr.ID, &kind, &tr.Recipient, &tr.Denom, &amount, &status, &tr.Message, &tr.CreatedAt, &tr.UpdatedAt); err != nil {
		return game.Transfer{}, err
	}
	tr.Kind = game.TransferKind(kind)
	tr.Status = game.TransferStatus(status)
	tr.Amount = uint64(amount)
	return tr, nil
}
