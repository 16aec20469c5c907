package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store is the persistence port of the ledger engine. Reads outside a unit of
// work go through the Store directly; every mutation runs inside InTx so that
// the transaction row and the balance update commit or roll back together.
type Store interface {
	// InTx runs fn inside one atomic unit against the durable store. If fn
	// returns an error nothing is persisted.
	InTx(ctx context.Context, fn func(StoreTx) error) error

	GetAccount(ctx context.Context, userID, accountID uuid.UUID) (Account, error)
	ListAccounts(ctx context.Context, userID uuid.UUID, includeArchived bool) ([]Account, error)
	ListTransactions(ctx context.Context, userID, accountID uuid.UUID, f TransactionFilter) ([]Transaction, int, error)
	SumBalances(ctx context.Context, userID uuid.UUID, includeArchived bool) (decimal.Decimal, error)
	// LedgerSince returns all of a user's transactions dated on or after the
	// cutoff, oldest first, with AccountName resolved on each point.
	LedgerSince(ctx context.Context, userID uuid.UUID, cutoff time.Time) ([]HistoryPoint, error)
	// SpentByCategory sums spend magnitudes (expense and withdrawal rows with
	// a category) per category inside the inclusive date range.
	SpentByCategory(ctx context.Context, userID uuid.UUID, from, to time.Time) (map[string]decimal.Decimal, error)
}

// StoreTx is the set of writes available inside a unit of work. Account reads
// here take a row-level lock so concurrent read-modify-write sequences on the
// same balance are serialized.
type StoreTx interface {
	InsertAccount(ctx context.Context, a Account) error
	// AccountForUpdate loads the account and locks its row until the unit of
	// work completes.
	AccountForUpdate(ctx context.Context, userID, accountID uuid.UUID) (Account, error)
	UpdateAccount(ctx context.Context, a Account) error
	// DeleteAccount removes the account and cascades to its transactions.
	DeleteAccount(ctx context.Context, accountID uuid.UUID) error

	InsertTransaction(ctx context.Context, t Transaction) error
	GetTransaction(ctx context.Context, userID, transactionID uuid.UUID) (Transaction, error)
	DeleteTransaction(ctx context.Context, transactionID uuid.UUID) error

	SetBalance(ctx context.Context, accountID uuid.UUID, balance decimal.Decimal) error
	StampBalanceAfter(ctx context.Context, transactionID uuid.UUID, balance decimal.Decimal) error
	// SumAmounts computes the full transaction sum for reconciliation.
	SumAmounts(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error)
}
