package budget

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mlawrence427/claritynest-backend/internal/domain"
	"github.com/mlawrence427/claritynest-backend/internal/pgerr"
)

// PGStore implements Store on Postgres. A UNIQUE (user_id, category, period)
// constraint backs the one-budget-per-category rule.
type PGStore struct {
	Pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{Pool: pool}
}

const budgetColumns = `id, user_id, category, amount, spent, period, start_date, end_date, alert_threshold, alert_sent, created_at, updated_at`

func scanBudget(row pgx.Row) (Budget, error) {
	var b Budget
	err := row.Scan(&b.ID, &b.UserID, &b.Category, &b.Amount, &b.Spent, &b.Period,
		&b.StartDate, &b.EndDate, &b.AlertThreshold, &b.AlertSent,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return Budget{}, pgerr.Wrap(err)
	}
	return b, nil
}

func (s *PGStore) Insert(ctx context.Context, b Budget) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO budgets (id, user_id, category, amount, spent, period, start_date, end_date, alert_threshold, alert_sent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		b.ID, b.UserID, b.Category, b.Amount, b.Spent, b.Period, b.StartDate,
		b.EndDate, b.AlertThreshold, b.AlertSent, b.CreatedAt, b.UpdatedAt)
	return pgerr.Wrap(err)
}

func (s *PGStore) Get(ctx context.Context, userID, budgetID uuid.UUID) (Budget, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE id = $1 AND user_id = $2`,
		budgetID, userID)
	return scanBudget(row)
}

func (s *PGStore) List(ctx context.Context, userID uuid.UUID) ([]Budget, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = $1 ORDER BY category ASC`,
		userID)
	if err != nil {
		return nil, pgerr.Wrap(err)
	}
	defer rows.Close()

	var out []Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, pgerr.Wrap(rows.Err())
}

func (s *PGStore) Update(ctx context.Context, b Budget) error {
	ct, err := s.Pool.Exec(ctx, `
		UPDATE budgets
		SET category = $2, amount = $3, spent = $4, period = $5, start_date = $6,
			end_date = $7, alert_threshold = $8, alert_sent = $9, updated_at = $10
		WHERE id = $1`,
		b.ID, b.Category, b.Amount, b.Spent, b.Period, b.StartDate, b.EndDate,
		b.AlertThreshold, b.AlertSent, b.UpdatedAt)
	if err != nil {
		return pgerr.Wrap(err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *PGStore) Delete(ctx context.Context, userID, budgetID uuid.UUID) error {
	ct, err := s.Pool.Exec(ctx,
		`DELETE FROM budgets WHERE id = $1 AND user_id = $2`, budgetID, userID)
	if err != nil {
		return pgerr.Wrap(err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
