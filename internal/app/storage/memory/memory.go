package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/R3E-Network/longshot/internal/app/domain/game"
	"github.com/R3E-Network/longshot/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local development.
type Store struct {
	mu        sync.RWMutex
	nextID    int64
	config    *game.Config
	deadlines map[string]game.Deadline
	transfers map[string]game.Transfer
}

var _ storage.ConfigStore = (*Store)(nil)
var _ storage.DeadlineStore = (*Store)(nil)
var _ storage.TransferStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:    1,
		deadlines: make(map[string]game.Deadline),
		transfers: make(map[string]game.Transfer),
	}
}

func (s *Store) nextIDLocked() string {
	id := s.nextID
	s.nextID++
	return fmt.Sprintf("%d", id)
}

// ConfigStore implementation --------------------------------------------------

func (s *Store) InitConfig(_ context.Context, cfg game.Config) (game.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config != nil {
		return game.Config{}, game.ErrAlreadyInitialized
	}

	now := time.Now().UTC()
	cfg.CreatedAt = now
	cfg.UpdatedAt = now

	stored := cfg
	s.config = &stored
	return cfg, nil
}

func (s *Store) UpdateConfig(_ context.Context, cfg game.Config) (game.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config == nil {
		return game.Config{}, game.ErrNotInitialized
	}

	cfg.CreatedAt = s.config.CreatedAt
	cfg.UpdatedAt = time.Now().UTC()

	stored := cfg
	s.config = &stored
	return cfg, nil
}

func (s *Store) GetConfig(_ context.Context) (game.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.config == nil {
		return game.Config{}, game.ErrNotInitialized
	}
	return *s.config, nil
}

// DeadlineStore implementation ------------------------------------------------

func (s *Store) PutDeadline(_ context.Context, d game.Deadline) (game.Deadline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d.UpdatedAt = time.Now().UTC()
	s.deadlines[d.Player] = d
	return d, nil
}

func (s *Store) GetDeadline(_ context.Context, player string) (game.Deadline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.deadlines[player]
	if !ok {
		return game.Deadline{}, game.ErrDeadlineNotFound
	}
	return d, nil
}

// TransferStore implementation ------------------------------------------------

func (s *Store) CreateTransfer(_ context.Context, tr game.Transfer) (game.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tr.ID == "" {
		tr.ID = s.nextIDLocked()
	} else if _, exists := s.transfers[tr.ID]; exists {
		return game.Transfer{}, fmt.Errorf("transfer %s already exists", tr.ID)
	}

	now := time.Now().UTC()
	tr.CreatedAt = now
	tr.UpdatedAt = now

	s.transfers[tr.ID] = tr
	return tr, nil
}

func (s *Store) UpdateTransfer(_ context.Context, tr game.Transfer) (game.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.transfers[tr.ID]
	if !ok {
		return game.Transfer{}, fmt.Errorf("transfer %s not found", tr.ID)
	}

	tr.CreatedAt = original.CreatedAt
	tr.UpdatedAt = time.Now().UTC()

	s.transfers[tr.ID] = tr
	return tr, nil
}

func (s *Store) GetTransfer(_ context.Context, id string) (game.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tr, ok := s.transfers[id]
	if !ok {
		return game.Transfer{}, fmt.Errorf("transfer %s not found", id)
	}
	return tr, nil
}

func (s *Store) ListTransfers(_ context.Context) ([]game.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]game.Transfer, 0, len(s.transfers))
	for _, tr := range s.transfers {
		result = append(result, tr)
	}
	sortTransfers(result)
	return result, nil
}

func (s *Store) ListPendingTransfers(_ context.Context) ([]game.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]game.Transfer, 0)
	for _, tr := range s.transfers {
		if tr.Status == game.TransferPending {
			result = append(result, tr)
		}
	}
	sortTransfers(result)
	return result, nil
}

func sortTransfers(trs []game.Transfer) {
	sort.Slice(trs, func(i, j int) bool {
		if trs[i].CreatedAt.Equal(trs[j].CreatedAt) {
			return trs[i].ID < trs[j].ID
		}
		return trs[i].CreatedAt.Before(trs[j].CreatedAt)
	})
}
