package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mlawrence427/claritynest-backend/internal/domain"
	"github.com/mlawrence427/claritynest-backend/internal/pgerr"
)

// PGStore implements Store on Postgres. Balance mutations rely on
// SELECT ... FOR UPDATE row locks taken by AccountForUpdate, so concurrent
// applies against the same account serialize inside the database.
type PGStore struct {
	Pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{Pool: pool}
}

func (s *PGStore) InTx(ctx context.Context, fn func(StoreTx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return wrapPG(err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return wrapPG(err)
	}
	return nil
}

const accountColumns = `id, user_id, name, type, balance, currency, institution, notes, is_archived, color, display_order, created_at, updated_at`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Balance, &a.Currency,
		&a.Institution, &a.Notes, &a.IsArchived, &a.Color, &a.DisplayOrder,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return Account{}, wrapPG(err)
	}
	return a, nil
}

func (s *PGStore) GetAccount(ctx context.Context, userID, accountID uuid.UUID) (Account, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 AND user_id = $2`,
		accountID, userID)
	return scanAccount(row)
}

func (s *PGStore) ListAccounts(ctx context.Context, userID uuid.UUID, includeArchived bool) ([]Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1`
	if !includeArchived {
		q += ` AND is_archived = FALSE`
	}
	q += ` ORDER BY display_order ASC, created_at DESC`

	rows, err := s.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, wrapPG(err)
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, wrapPG(rows.Err())
}

const transactionColumns = `id, account_id, user_id, type, amount, note, category, transaction_date, balance_after, created_at`

func scanTransaction(row pgx.Row) (Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.AccountID, &t.UserID, &t.Type, &t.Amount,
		&t.Note, &t.Category, &t.TransactionDate, &t.BalanceAfter, &t.CreatedAt)
	if err != nil {
		return Transaction{}, wrapPG(err)
	}
	return t, nil
}

func (s *PGStore) ListTransactions(ctx context.Context, userID, accountID uuid.UUID, f TransactionFilter) ([]Transaction, int, error) {
	var where strings.Builder
	where.WriteString(`WHERE account_id = $1 AND user_id = $2`)
	args := []any{accountID, userID}

	if f.From != nil {
		args = append(args, *f.From)
		fmt.Fprintf(&where, ` AND transaction_date >= $%d`, len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		fmt.Fprintf(&where, ` AND transaction_date <= $%d`, len(args))
	}
	if f.Type != nil {
		args = append(args, *f.Type)
		fmt.Fprintf(&where, ` AND type = $%d`, len(args))
	}

	var total int
	if err := s.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions `+where.String(), args...).Scan(&total); err != nil {
		return nil, 0, wrapPG(err)
	}

	args = append(args, f.Limit, f.Offset)
	q := fmt.Sprintf(`SELECT %s FROM transactions %s ORDER BY transaction_date DESC LIMIT $%d OFFSET $%d`,
		transactionColumns, where.String(), len(args)-1, len(args))

	rows, err := s.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, wrapPG(err)
	}
	defer rows.Close()

	out := make([]Transaction, 0, f.Limit)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, wrapPG(rows.Err())
}

func (s *PGStore) SumBalances(ctx context.Context, userID uuid.UUID, includeArchived bool) (decimal.Decimal, error) {
	q := `SELECT COALESCE(SUM(balance), 0) FROM accounts WHERE user_id = $1`
	if !includeArchived {
		q += ` AND is_archived = FALSE`
	}
	var sum decimal.Decimal
	if err := s.Pool.QueryRow(ctx, q, userID).Scan(&sum); err != nil {
		return decimal.Zero, wrapPG(err)
	}
	return sum, nil
}

func (s *PGStore) LedgerSince(ctx context.Context, userID uuid.UUID, cutoff time.Time) ([]HistoryPoint, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT t.transaction_date, t.amount, a.name, t.balance_after
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE t.user_id = $1 AND t.transaction_date >= $2
		ORDER BY t.transaction_date ASC`,
		userID, cutoff)
	if err != nil {
		return nil, wrapPG(err)
	}
	defer rows.Close()

	var out []HistoryPoint
	for rows.Next() {
		var p HistoryPoint
		if err := rows.Scan(&p.Date, &p.Amount, &p.AccountName, &p.RunningBalance); err != nil {
			return nil, wrapPG(err)
		}
		out = append(out, p)
	}
	return out, wrapPG(rows.Err())
}

func (s *PGStore) SpentByCategory(ctx context.Context, userID uuid.UUID, from, to time.Time) (map[string]decimal.Decimal, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT category, COALESCE(SUM(ABS(amount)), 0)
		FROM transactions
		WHERE user_id = $1 AND category IS NOT NULL
			AND type IN ('expense', 'withdrawal')
			AND transaction_date >= $2 AND transaction_date <= $3
		GROUP BY category`,
		userID, from, to)
	if err != nil {
		return nil, wrapPG(err)
	}
	defer rows.Close()

	out := make(map[string]decimal.Decimal)
	for rows.Next() {
		var category string
		var sum decimal.Decimal
		if err := rows.Scan(&category, &sum); err != nil {
			return nil, wrapPG(err)
		}
		out[category] = sum
	}
	return out, wrapPG(rows.Err())
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) InsertAccount(ctx context.Context, a Account) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO accounts (id, user_id, name, type, balance, currency, institution, notes, is_archived, color, display_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		a.ID, a.UserID, a.Name, a.Type, a.Balance, a.Currency, a.Institution,
		a.Notes, a.IsArchived, a.Color, a.DisplayOrder, a.CreatedAt, a.UpdatedAt)
	return wrapPG(err)
}

func (t *pgTx) AccountForUpdate(ctx context.Context, userID, accountID uuid.UUID) (Account, error) {
	row := t.tx.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		accountID, userID)
	return scanAccount(row)
}

func (t *pgTx) UpdateAccount(ctx context.Context, a Account) error {
	ct, err := t.tx.Exec(ctx, `
		UPDATE accounts
		SET name = $2, institution = $3, notes = $4, color = $5, is_archived = $6, display_order = $7, updated_at = $8
		WHERE id = $1`,
		a.ID, a.Name, a.Institution, a.Notes, a.Color, a.IsArchived, a.DisplayOrder, a.UpdatedAt)
	if err != nil {
		return wrapPG(err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (t *pgTx) DeleteAccount(ctx context.Context, accountID uuid.UUID) error {
	// transactions cascade via FK
	ct, err := t.tx.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, accountID)
	if err != nil {
		return wrapPG(err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (t *pgTx) InsertTransaction(ctx context.Context, tr Transaction) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO transactions (id, account_id, user_id, type, amount, note, category, transaction_date, balance_after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		tr.ID, tr.AccountID, tr.UserID, tr.Type, tr.Amount, tr.Note, tr.Category,
		tr.TransactionDate, tr.BalanceAfter, tr.CreatedAt)
	return wrapPG(err)
}

func (t *pgTx) GetTransaction(ctx context.Context, userID, transactionID uuid.UUID) (Transaction, error) {
	row := t.tx.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 AND user_id = $2`,
		transactionID, userID)
	return scanTransaction(row)
}

func (t *pgTx) DeleteTransaction(ctx context.Context, transactionID uuid.UUID) error {
	ct, err := t.tx.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, transactionID)
	if err != nil {
		return wrapPG(err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (t *pgTx) SetBalance(ctx context.Context, accountID uuid.UUID, balance decimal.Decimal) error {
	ct, err := t.tx.Exec(ctx,
		`UPDATE accounts SET balance = $2, updated_at = NOW() WHERE id = $1`,
		accountID, balance)
	if err != nil {
		return wrapPG(err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (t *pgTx) StampBalanceAfter(ctx context.Context, transactionID uuid.UUID, balance decimal.Decimal) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE transactions SET balance_after = $2 WHERE id = $1`,
		transactionID, balance)
	return wrapPG(err)
}

func (t *pgTx) SumAmounts(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := t.tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE account_id = $1`,
		accountID).Scan(&sum)
	if err != nil {
		return decimal.Zero, wrapPG(err)
	}
	return sum, nil
}

func wrapPG(err error) error { return pgerr.Wrap(err) }
