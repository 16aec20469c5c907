package mood

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mlawrence427/claritynest-backend/internal/domain"
	"github.com/mlawrence427/claritynest-backend/internal/pgerr"
)

// PGStore implements Store on Postgres. Tags live in a TEXT[] column.
type PGStore struct {
	Pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{Pool: pool}
}

const moodColumns = `id, user_id, value, tags, note, weather, sleep_hours, exercised, net_worth_snapshot, entry_date, created_at, updated_at`

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.UserID, &e.Value, &e.Tags, &e.Note, &e.Weather,
		&e.SleepHours, &e.Exercised, &e.NetWorthSnapshot, &e.EntryDate,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return Entry{}, pgerr.Wrap(err)
	}
	return e, nil
}

func (s *PGStore) Insert(ctx context.Context, e Entry) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO moods (id, user_id, value, tags, note, weather, sleep_hours, exercised, net_worth_snapshot, entry_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		e.ID, e.UserID, e.Value, e.Tags, e.Note, e.Weather, e.SleepHours,
		e.Exercised, e.NetWorthSnapshot, e.EntryDate, e.CreatedAt, e.UpdatedAt)
	return pgerr.Wrap(err)
}

func (s *PGStore) Get(ctx context.Context, userID, entryID uuid.UUID) (Entry, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT `+moodColumns+` FROM moods WHERE id = $1 AND user_id = $2`,
		entryID, userID)
	return scanEntry(row)
}

func (s *PGStore) List(ctx context.Context, userID uuid.UUID, f Filter) ([]Entry, int, error) {
	var where strings.Builder
	where.WriteString(`WHERE user_id = $1`)
	args := []any{userID}

	if f.From != nil {
		args = append(args, *f.From)
		fmt.Fprintf(&where, ` AND entry_date >= $%d`, len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		fmt.Fprintf(&where, ` AND entry_date <= $%d`, len(args))
	}

	var total int
	if err := s.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM moods `+where.String(), args...).Scan(&total); err != nil {
		return nil, 0, pgerr.Wrap(err)
	}

	args = append(args, f.Limit, f.Offset)
	q := fmt.Sprintf(`SELECT %s FROM moods %s ORDER BY entry_date DESC LIMIT $%d OFFSET $%d`,
		moodColumns, where.String(), len(args)-1, len(args))

	rows, err := s.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, pgerr.Wrap(err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, pgerr.Wrap(rows.Err())
}

func (s *PGStore) Update(ctx context.Context, e Entry) error {
	ct, err := s.Pool.Exec(ctx, `
		UPDATE moods
		SET value = $2, tags = $3, note = $4, weather = $5, sleep_hours = $6, exercised = $7, entry_date = $8, updated_at = $9
		WHERE id = $1`,
		e.ID, e.Value, e.Tags, e.Note, e.Weather, e.SleepHours, e.Exercised, e.EntryDate, e.UpdatedAt)
	if err != nil {
		return pgerr.Wrap(err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *PGStore) Delete(ctx context.Context, userID, entryID uuid.UUID) error {
	ct, err := s.Pool.Exec(ctx,
		`DELETE FROM moods WHERE id = $1 AND user_id = $2`, entryID, userID)
	if err != nil {
		return pgerr.Wrap(err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *PGStore) Since(ctx context.Context, userID uuid.UUID, cutoff time.Time) ([]Entry, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT `+moodColumns+` FROM moods WHERE user_id = $1 AND entry_date >= $2 ORDER BY entry_date ASC`,
		userID, cutoff)
	if err != nil {
		return nil, pgerr.Wrap(err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, pgerr.Wrap(rows.Err())
}
