package user

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mlawrence427/claritynest-backend/internal/domain"
	"github.com/mlawrence427/claritynest-backend/internal/pgerr"
)

// PGStore implements Store on Postgres.
type PGStore struct {
	Pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{Pool: pool}
}

const userColumns = `id, email, password_hash, name, role, is_active, is_premium, premium_expires_at,
	password_reset_token, password_reset_expires, last_login_at, preferences,
	billing_customer_id, billing_subscription_id, created_at, updated_at`

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.IsActive,
		&u.IsPremium, &u.PremiumExpiresAt, &u.ResetTokenHash, &u.ResetTokenExpiry,
		&u.LastLoginAt, &u.Preferences, &u.CustomerID, &u.SubscriptionID,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return domain.User{}, pgerr.Wrap(err)
	}
	return u, nil
}

func (s *PGStore) Insert(ctx context.Context, u domain.User) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, name, role, is_active, is_premium, premium_expires_at,
			password_reset_token, password_reset_expires, last_login_at, preferences,
			billing_customer_id, billing_subscription_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		u.ID, u.Email, u.PasswordHash, u.Name, u.Role, u.IsActive, u.IsPremium, u.PremiumExpiresAt,
		u.ResetTokenHash, u.ResetTokenExpiry, u.LastLoginAt, u.Preferences,
		u.CustomerID, u.SubscriptionID, u.CreatedAt, u.UpdatedAt)
	return pgerr.Wrap(err)
}

func (s *PGStore) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (s *PGStore) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email)
	return scanUser(row)
}

func (s *PGStore) GetByResetTokenHash(ctx context.Context, tokenHash string) (domain.User, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE password_reset_token = $1 AND password_reset_expires > $2`,
		tokenHash, time.Now().UTC())
	return scanUser(row)
}

func (s *PGStore) GetByCustomerID(ctx context.Context, customerID string) (domain.User, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE billing_customer_id = $1`, customerID)
	return scanUser(row)
}

func (s *PGStore) Update(ctx context.Context, u domain.User) error {
	ct, err := s.Pool.Exec(ctx, `
		UPDATE users
		SET email = $2, password_hash = $3, name = $4, role = $5, is_active = $6,
			is_premium = $7, premium_expires_at = $8, password_reset_token = $9,
			password_reset_expires = $10, last_login_at = $11, preferences = $12,
			billing_customer_id = $13, billing_subscription_id = $14, updated_at = $15
		WHERE id = $1`,
		u.ID, u.Email, u.PasswordHash, u.Name, u.Role, u.IsActive,
		u.IsPremium, u.PremiumExpiresAt, u.ResetTokenHash,
		u.ResetTokenExpiry, u.LastLoginAt, u.Preferences,
		u.CustomerID, u.SubscriptionID, u.UpdatedAt)
	if err != nil {
		return pgerr.Wrap(err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *PGStore) Delete(ctx context.Context, id uuid.UUID) error {
	// accounts, transactions, moods and posts cascade via FK
	ct, err := s.Pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return pgerr.Wrap(err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
