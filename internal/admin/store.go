package admin

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mlawrence427/claritynest-backend/internal/domain"
)

// Store is the persistence port for admin operations.
type Store interface {
	ListUsers(ctx context.Context, f UserFilter) ([]domain.User, int, error)
	GetUser(ctx context.Context, id uuid.UUID) (domain.User, error)
	UpdateUser(ctx context.Context, u domain.User) error
	// DeleteUser removes the user; owned rows cascade.
	DeleteUser(ctx context.Context, id uuid.UUID) error
	// DashboardStats aggregates across users, accounts, transactions, moods
	// and posts. The since cutoff bounds the windowed figures.
	DashboardStats(ctx context.Context, since time.Time) (Stats, error)
}

// MemStore is an in-memory Store used by tests. Dashboard figures other than
// the user counts are seeded via SeedStats.
type MemStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]domain.User
	stats Stats
}

func NewMemStore() *MemStore {
	return &MemStore{users: make(map[uuid.UUID]domain.User)}
}

func (m *MemStore) Put(u domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

func (m *MemStore) SeedStats(s Stats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats = s
}

func (m *MemStore) ListUsers(_ context.Context, f UserFilter) ([]domain.User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	search := strings.ToLower(strings.TrimSpace(f.Search))
	var matched []domain.User
	for _, u := range m.users {
		if f.Role != nil && u.Role != *f.Role {
			continue
		}
		if f.Active != nil && u.IsActive != *f.Active {
			continue
		}
		if search != "" {
			name := ""
			if u.Name != nil {
				name = strings.ToLower(*u.Name)
			}
			if !strings.Contains(strings.ToLower(u.Email), search) && !strings.Contains(name, search) {
				continue
			}
		}
		matched = append(matched, u)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := len(matched)
	if f.Offset >= total {
		return nil, total, nil
	}
	matched = matched[f.Offset:]
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched, total, nil
}

func (m *MemStore) GetUser(_ context.Context, id uuid.UUID) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (m *MemStore) UpdateUser(_ context.Context, u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return domain.ErrNotFound
	}
	m.users[u.ID] = u
	return nil
}

func (m *MemStore) DeleteUser(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *MemStore) DashboardStats(_ context.Context, _ time.Time) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.stats
	s.TotalUsers, s.ActiveUsers, s.PremiumUsers = 0, 0, 0
	for _, u := range m.users {
		s.TotalUsers++
		if u.IsActive {
			s.ActiveUsers++
		}
		if u.IsPremium {
			s.PremiumUsers++
		}
	}
	if s.TotalUsers > 0 {
		s.PremiumConversion = float64(s.PremiumUsers) / float64(s.TotalUsers) * 100
	}
	return s, nil
}
