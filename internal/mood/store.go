package mood

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mlawrence427/claritynest-backend/internal/domain"
)

// Store is the persistence port for mood entries.
type Store interface {
	Insert(ctx context.Context, e Entry) error
	Get(ctx context.Context, userID, entryID uuid.UUID) (Entry, error)
	List(ctx context.Context, userID uuid.UUID, f Filter) ([]Entry, int, error)
	Update(ctx context.Context, e Entry) error
	Delete(ctx context.Context, userID, entryID uuid.UUID) error
	// Since returns all entries on or after the cutoff, oldest first.
	Since(ctx context.Context, userID uuid.UUID, cutoff time.Time) ([]Entry, error)
}

// MemStore is an in-memory Store used by tests.
type MemStore struct {
	mu      sync.Mutex
	entries map[uuid.UUID]Entry
}

func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[uuid.UUID]Entry)}
}

func (m *MemStore) Insert(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[e.ID]; ok {
		return domain.ErrConflict
	}
	m.entries[e.ID] = e
	return nil
}

func (m *MemStore) Get(_ context.Context, userID, entryID uuid.UUID) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[entryID]
	if !ok || e.UserID != userID {
		return Entry{}, domain.ErrNotFound
	}
	return e, nil
}

func (m *MemStore) List(_ context.Context, userID uuid.UUID, f Filter) ([]Entry, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []Entry
	for _, e := range m.entries {
		if e.UserID != userID {
			continue
		}
		if f.From != nil && e.EntryDate.Before(*f.From) {
			continue
		}
		if f.To != nil && e.EntryDate.After(*f.To) {
			continue
		}
		matched = append(matched, e)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].EntryDate.After(matched[j].EntryDate)
	})

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

func (m *MemStore) Update(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[e.ID]; !ok {
		return domain.ErrNotFound
	}
	m.entries[e.ID] = e
	return nil
}

func (m *MemStore) Delete(_ context.Context, userID, entryID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[entryID]
	if !ok || e.UserID != userID {
		return domain.ErrNotFound
	}
	delete(m.entries, entryID)
	return nil
}

func (m *MemStore) Since(_ context.Context, userID uuid.UUID, cutoff time.Time) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Entry
	for _, e := range m.entries {
		if e.UserID == userID && !e.EntryDate.Before(cutoff) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntryDate.Before(out[j].EntryDate) })
	return out, nil
}
