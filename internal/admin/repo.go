package admin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mlawrence427/claritynest-backend/internal/domain"
	"github.com/mlawrence427/claritynest-backend/internal/pgerr"
	"github.com/mlawrence427/claritynest-backend/internal/user"
)

// PGStore implements Store on Postgres. Single-user reads and writes delegate
// to the user repository; the list and dashboard queries are admin-specific.
type PGStore struct {
	Pool  *pgxpool.Pool
	users *user.PGStore
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{Pool: pool, users: user.NewPGStore(pool)}
}

func (s *PGStore) GetUser(ctx context.Context, id uuid.UUID) (domain.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *PGStore) UpdateUser(ctx context.Context, u domain.User) error {
	return s.users.Update(ctx, u)
}

func (s *PGStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.users.Delete(ctx, id)
}

func (s *PGStore) ListUsers(ctx context.Context, f UserFilter) ([]domain.User, int, error) {
	var where strings.Builder
	where.WriteString(`WHERE TRUE`)
	var args []any

	if search := strings.TrimSpace(f.Search); search != "" {
		args = append(args, "%"+search+"%")
		fmt.Fprintf(&where, ` AND (email ILIKE $%d OR name ILIKE $%d)`, len(args), len(args))
	}
	if f.Role != nil {
		args = append(args, *f.Role)
		fmt.Fprintf(&where, ` AND role = $%d`, len(args))
	}
	if f.Active != nil {
		args = append(args, *f.Active)
		fmt.Fprintf(&where, ` AND is_active = $%d`, len(args))
	}

	var total int
	if err := s.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM users `+where.String(), args...).Scan(&total); err != nil {
		return nil, 0, pgerr.Wrap(err)
	}

	args = append(args, f.Limit, f.Offset)
	q := fmt.Sprintf(`
		SELECT id, email, password_hash, name, role, is_active, is_premium, premium_expires_at,
			password_reset_token, password_reset_expires, last_login_at, preferences,
			billing_customer_id, billing_subscription_id, created_at, updated_at
		FROM users %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where.String(), len(args)-1, len(args))

	rows, err := s.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, pgerr.Wrap(err)
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		var u domain.User
		err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.IsActive,
			&u.IsPremium, &u.PremiumExpiresAt, &u.ResetTokenHash, &u.ResetTokenExpiry,
			&u.LastLoginAt, &u.Preferences, &u.CustomerID, &u.SubscriptionID,
			&u.CreatedAt, &u.UpdatedAt)
		if err != nil {
			return nil, 0, pgerr.Wrap(err)
		}
		out = append(out, u)
	}
	return out, total, pgerr.Wrap(rows.Err())
}

func (s *PGStore) DashboardStats(ctx context.Context, since time.Time) (Stats, error) {
	var st Stats
	err := s.Pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE is_active = TRUE),
			(SELECT COUNT(*) FROM users WHERE is_premium = TRUE),
			(SELECT COALESCE(SUM(balance), 0) FROM accounts WHERE is_archived = FALSE),
			(SELECT COUNT(*) FROM transactions WHERE transaction_date >= $1),
			(SELECT COALESCE(AVG(value), 0) FROM moods WHERE entry_date >= $1),
			(SELECT COUNT(*) FROM posts WHERE is_approved = TRUE),
			(SELECT COUNT(*) FROM post_likes)`,
		since).Scan(&st.TotalUsers, &st.ActiveUsers, &st.PremiumUsers,
		&st.TotalAssets, &st.TransactionCount, &st.MoodAverage,
		&st.TotalPosts, &st.TotalLikes)
	if err != nil {
		return Stats{}, pgerr.Wrap(err)
	}
	if st.TotalUsers > 0 {
		st.PremiumConversion = float64(st.PremiumUsers) / float64(st.TotalUsers) * 100
	}

	rows, err := s.Pool.Query(ctx, `
		SELECT DATE_TRUNC('day', created_at) AS day, COUNT(*)
		FROM users
		WHERE created_at >= $1
		GROUP BY day
		ORDER BY day ASC`,
		since)
	if err != nil {
		return Stats{}, pgerr.Wrap(err)
	}
	defer rows.Close()

	for rows.Next() {
		var dc DayCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			return Stats{}, pgerr.Wrap(err)
		}
		st.UserGrowth = append(st.UserGrowth, dc)
	}
	return st, pgerr.Wrap(rows.Err())
}
