package budget

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/mlawrence427/claritynest-backend/internal/domain"
)

// Store is the persistence port for budgets.
type Store interface {
	Insert(ctx context.Context, b Budget) error
	Get(ctx context.Context, userID, budgetID uuid.UUID) (Budget, error)
	// List returns all of a user's budgets ordered by category.
	List(ctx context.Context, userID uuid.UUID) ([]Budget, error)
	Update(ctx context.Context, b Budget) error
	Delete(ctx context.Context, userID, budgetID uuid.UUID) error
}

// MemStore is an in-memory Store used by tests.
type MemStore struct {
	mu      sync.Mutex
	budgets map[uuid.UUID]Budget
}

func NewMemStore() *MemStore {
	return &MemStore{budgets: make(map[uuid.UUID]Budget)}
}

func (m *MemStore) Insert(_ context.Context, b Budget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.budgets {
		if existing.UserID == b.UserID && strings.EqualFold(existing.Category, b.Category) && existing.Period == b.Period {
			return domain.ErrConflict
		}
	}
	m.budgets[b.ID] = b
	return nil
}

func (m *MemStore) Get(_ context.Context, userID, budgetID uuid.UUID) (Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.budgets[budgetID]
	if !ok || b.UserID != userID {
		return Budget{}, domain.ErrNotFound
	}
	return b, nil
}

func (m *MemStore) List(_ context.Context, userID uuid.UUID) ([]Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Budget
	for _, b := range m.budgets {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

func (m *MemStore) Update(_ context.Context, b Budget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.budgets[b.ID]; !ok {
		return domain.ErrNotFound
	}
	m.budgets[b.ID] = b
	return nil
}

func (m *MemStore) Delete(_ context.Context, userID, budgetID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.budgets[budgetID]
	if !ok || b.UserID != userID {
		return domain.ErrNotFound
	}
	delete(m.budgets, budgetID)
	return nil
}
