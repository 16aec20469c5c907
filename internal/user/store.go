package user

import (
	"context"

	"github.com/google/uuid"

	"github.com/mlawrence427/claritynest-backend/internal/domain"
)

// Store is the persistence port for user records.
type Store interface {
	Insert(ctx context.Context, u domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	// GetByResetTokenHash matches the at-rest hash of an unexpired reset token.
	GetByResetTokenHash(ctx context.Context, tokenHash string) (domain.User, error)
	GetByCustomerID(ctx context.Context, customerID string) (domain.User, error)
	Update(ctx context.Context, u domain.User) error
	Delete(ctx context.Context, id uuid.UUID) error
}
