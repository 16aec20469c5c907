// Package pgerr maps pgx driver errors onto the shared error taxonomy.
package pgerr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mlawrence427/claritynest-backend/internal/domain"
)

// Wrap translates a driver error: missing rows become ErrNotFound, uniqueness
// and serialization failures become ErrConflict, everything else becomes
// ErrPersistence. A nil error passes through.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "40001", "40P01":
			return fmt.Errorf("%w: %s", domain.ErrConflict, pgErr.Message)
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
}
