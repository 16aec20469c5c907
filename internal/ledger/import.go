package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mlawrence427/claritynest-backend/internal/domain"
	"github.com/mlawrence427/claritynest-backend/internal/money"
)

// RawEntry is a ledger-internal write used by bulk import. The signed amount
// is stored verbatim, bypassing the type-based sign derivation Apply performs,
// and no balance or balanceAfter maintenance happens. Callers must run
// RecalculateBalance afterward to restore the invariant.
type RawEntry struct {
	Type     TransactionType
	Amount   decimal.Decimal
	Note     *string
	Category *string
	Date     time.Time
}

// ImportAccount creates an account with balance 0 and no opening-balance
// synthesis; the backup's transactions carry the whole history.
func (s *Service) ImportAccount(ctx context.Context, userID uuid.UUID, in CreateAccountInput) (Account, error) {
	in.OpeningBalance = decimal.Zero
	return s.CreateAccount(ctx, userID, in)
}

// ImportEntries inserts raw transaction rows in one unit of work. Returns the
// number of rows written.
func (s *Service) ImportEntries(ctx context.Context, userID, accountID uuid.UUID, entries []RawEntry) (int, error) {
	for _, e := range entries {
		if !e.Type.Valid() {
			return 0, fmt.Errorf("%w: invalid transaction type %q", domain.ErrValidation, e.Type)
		}
	}

	var written int
	err := s.store.InTx(ctx, func(tx StoreTx) error {
		acct, err := tx.AccountForUpdate(ctx, userID, accountID)
		if err != nil {
			return err
		}
		for _, e := range entries {
			date := e.Date
			if date.IsZero() {
				date = time.Now().UTC()
			}
			row := Transaction{
				ID:              uuid.New(),
				AccountID:       acct.ID,
				UserID:          userID,
				Type:            e.Type,
				Amount:          money.Round(e.Amount),
				Note:            trimmed(e.Note),
				Category:        trimmed(e.Category),
				TransactionDate: date,
				CreatedAt:       time.Now().UTC(),
			}
			if err := tx.InsertTransaction(ctx, row); err != nil {
				return err
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
