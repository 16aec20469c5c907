package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mlawrence427/claritynest-backend/internal/domain"
)

// MemStore is an in-memory Store used by tests and import dry runs. A single
// mutex held for the whole unit of work serializes concurrent applies, and
// each unit runs against a snapshot that is only swapped in on success, so
// rollback semantics match the Postgres implementation.
type MemStore struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]Account
	txs      map[uuid.UUID]Transaction
}

func NewMemStore() *MemStore {
	return &MemStore{
		accounts: make(map[uuid.UUID]Account),
		txs:      make(map[uuid.UUID]Transaction),
	}
}

func (m *MemStore) InTx(_ context.Context, fn func(StoreTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	work := &memTx{
		accounts: cloneMap(m.accounts),
		txs:      cloneMap(m.txs),
	}
	if err := fn(work); err != nil {
		return err
	}
	m.accounts = work.accounts
	m.txs = work.txs
	return nil
}

func (m *MemStore) GetAccount(_ context.Context, userID, accountID uuid.UUID) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return findAccount(m.accounts, userID, accountID)
}

func (m *MemStore) ListAccounts(_ context.Context, userID uuid.UUID, includeArchived bool) ([]Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Account
	for _, a := range m.accounts {
		if a.UserID != userID {
			continue
		}
		if a.IsArchived && !includeArchived {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemStore) ListTransactions(_ context.Context, userID, accountID uuid.UUID, f TransactionFilter) ([]Transaction, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []Transaction
	for _, t := range m.txs {
		if t.UserID != userID || t.AccountID != accountID {
			continue
		}
		if f.From != nil && t.TransactionDate.Before(*f.From) {
			continue
		}
		if f.To != nil && t.TransactionDate.After(*f.To) {
			continue
		}
		if f.Type != nil && t.Type != *f.Type {
			continue
		}
		matched = append(matched, t)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].TransactionDate.After(matched[j].TransactionDate)
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

func (m *MemStore) SumBalances(_ context.Context, userID uuid.UUID, includeArchived bool) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sum := decimal.Zero
	for _, a := range m.accounts {
		if a.UserID != userID {
			continue
		}
		if a.IsArchived && !includeArchived {
			continue
		}
		sum = sum.Add(a.Balance)
	}
	return sum, nil
}

func (m *MemStore) LedgerSince(_ context.Context, userID uuid.UUID, cutoff time.Time) ([]HistoryPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []HistoryPoint
	for _, t := range m.txs {
		if t.UserID != userID || t.TransactionDate.Before(cutoff) {
			continue
		}
		name := ""
		if a, ok := m.accounts[t.AccountID]; ok {
			name = a.Name
		}
		out = append(out, HistoryPoint{
			Date:           t.TransactionDate,
			Amount:         t.Amount,
			AccountName:    name,
			RunningBalance: t.BalanceAfter,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *MemStore) SpentByCategory(_ context.Context, userID uuid.UUID, from, to time.Time) (map[string]decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]decimal.Decimal)
	for _, t := range m.txs {
		if t.UserID != userID || t.Category == nil {
			continue
		}
		if t.Type != TxExpense && t.Type != TxWithdrawal {
			continue
		}
		if t.TransactionDate.Before(from) || t.TransactionDate.After(to) {
			continue
		}
		out[*t.Category] = out[*t.Category].Add(t.Amount.Abs())
	}
	return out, nil
}

type memTx struct {
	accounts map[uuid.UUID]Account
	txs      map[uuid.UUID]Transaction
}

func (w *memTx) InsertAccount(_ context.Context, a Account) error {
	if _, ok := w.accounts[a.ID]; ok {
		return domain.ErrConflict
	}
	w.accounts[a.ID] = a
	return nil
}

func (w *memTx) AccountForUpdate(_ context.Context, userID, accountID uuid.UUID) (Account, error) {
	return findAccount(w.accounts, userID, accountID)
}

func (w *memTx) UpdateAccount(_ context.Context, a Account) error {
	if _, ok := w.accounts[a.ID]; !ok {
		return domain.ErrNotFound
	}
	w.accounts[a.ID] = a
	return nil
}

func (w *memTx) DeleteAccount(_ context.Context, accountID uuid.UUID) error {
	if _, ok := w.accounts[accountID]; !ok {
		return domain.ErrNotFound
	}
	delete(w.accounts, accountID)
	for id, t := range w.txs {
		if t.AccountID == accountID {
			delete(w.txs, id)
		}
	}
	return nil
}

func (w *memTx) InsertTransaction(_ context.Context, t Transaction) error {
	if _, ok := w.txs[t.ID]; ok {
		return domain.ErrConflict
	}
	w.txs[t.ID] = t
	return nil
}

func (w *memTx) GetTransaction(_ context.Context, userID, transactionID uuid.UUID) (Transaction, error) {
	t, ok := w.txs[transactionID]
	if !ok || t.UserID != userID {
		return Transaction{}, domain.ErrNotFound
	}
	return t, nil
}

func (w *memTx) DeleteTransaction(_ context.Context, transactionID uuid.UUID) error {
	if _, ok := w.txs[transactionID]; !ok {
		return domain.ErrNotFound
	}
	delete(w.txs, transactionID)
	return nil
}

func (w *memTx) SetBalance(_ context.Context, accountID uuid.UUID, balance decimal.Decimal) error {
	a, ok := w.accounts[accountID]
	if !ok {
		return domain.ErrNotFound
	}
	a.Balance = balance
	a.UpdatedAt = time.Now().UTC()
	w.accounts[accountID] = a
	return nil
}

func (w *memTx) StampBalanceAfter(_ context.Context, transactionID uuid.UUID, balance decimal.Decimal) error {
	t, ok := w.txs[transactionID]
	if !ok {
		return domain.ErrNotFound
	}
	t.BalanceAfter = &balance
	w.txs[transactionID] = t
	return nil
}

func (w *memTx) SumAmounts(_ context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, t := range w.txs {
		if t.AccountID == accountID {
			sum = sum.Add(t.Amount)
		}
	}
	return sum, nil
}

func findAccount(accounts map[uuid.UUID]Account, userID, accountID uuid.UUID) (Account, error) {
	a, ok := accounts[accountID]
	if !ok || a.UserID != userID {
		return Account{}, domain.ErrNotFound
	}
	return a, nil
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
