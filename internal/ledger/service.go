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

const (
	defaultCurrency = "USD"
	defaultColor    = "#4A6C6F"

	openingBalanceNote = "Opening Balance"

	maxNameLen = 100
)

// Service is the ledger engine. It owns the invariant that an account's
// balance equals the sum of its transactions, applied atomically through the
// Store's unit of work.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// CreateAccountInput carries caller-supplied account attributes. The opening
// balance is materialized as a synthetic transaction, never stored directly.
type CreateAccountInput struct {
	Name           string
	Type           AccountType
	OpeningBalance decimal.Decimal
	Currency       string
	Institution    *string
	Notes          *string
	Color          string
	DisplayOrder   int
}

// CreateAccount creates the account with balance 0 and, when the opening
// amount is non-zero, applies one opening-balance transaction through the
// same path ordinary transactions use. The whole sequence is one atomic unit.
//
// Debt accounts start non-positive: a positive opening amount is negated.
func (s *Service) CreateAccount(ctx context.Context, userID uuid.UUID, in CreateAccountInput) (Account, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > maxNameLen {
		return Account{}, fmt.Errorf("%w: name must be 1-100 characters", domain.ErrValidation)
	}
	if !in.Type.Valid() {
		return Account{}, fmt.Errorf("%w: invalid account type %q", domain.ErrValidation, in.Type)
	}

	opening := money.Round(in.OpeningBalance)
	if in.Type == AccountDebt && opening.IsPositive() {
		opening = opening.Neg()
	}

	now := time.Now().UTC()
	acct := Account{
		ID:           uuid.New(),
		UserID:       userID,
		Name:         name,
		Type:         in.Type,
		Balance:      decimal.Zero,
		Currency:     in.Currency,
		Institution:  in.Institution,
		Notes:        in.Notes,
		Color:        in.Color,
		DisplayOrder: in.DisplayOrder,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if acct.Currency == "" {
		acct.Currency = defaultCurrency
	}
	if acct.Color == "" {
		acct.Color = defaultColor
	}

	err := s.store.InTx(ctx, func(tx StoreTx) error {
		if err := tx.InsertAccount(ctx, acct); err != nil {
			return err
		}
		if opening.IsZero() {
			return nil
		}
		txType := TxDeposit
		if opening.IsNegative() {
			txType = TxWithdrawal
		}
		note := openingBalanceNote
		_, err := s.applyLocked(ctx, tx, &acct, ApplyInput{
			Type:   txType,
			Amount: opening,
			Note:   &note,
			Date:   now,
		})
		return err
	})
	if err != nil {
		return Account{}, err
	}
	return acct, nil
}

// UpdateAccountInput updates metadata only; balance is never set directly.
// Nil fields are left unchanged.
type UpdateAccountInput struct {
	Name         *string
	Institution  *string
	Notes        *string
	Color        *string
	IsArchived   *bool
	DisplayOrder *int
}

func (s *Service) UpdateAccount(ctx context.Context, userID, accountID uuid.UUID, in UpdateAccountInput) (Account, error) {
	var out Account
	err := s.store.InTx(ctx, func(tx StoreTx) error {
		acct, err := tx.AccountForUpdate(ctx, userID, accountID)
		if err != nil {
			return err
		}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" || len(name) > maxNameLen {
				return fmt.Errorf("%w: name must be 1-100 characters", domain.ErrValidation)
			}
			acct.Name = name
		}
		if in.Institution != nil {
			acct.Institution = in.Institution
		}
		if in.Notes != nil {
			acct.Notes = in.Notes
		}
		if in.Color != nil {
			acct.Color = *in.Color
		}
		if in.IsArchived != nil {
			acct.IsArchived = *in.IsArchived
		}
		if in.DisplayOrder != nil {
			acct.DisplayOrder = *in.DisplayOrder
		}
		acct.UpdatedAt = time.Now().UTC()
		if err := tx.UpdateAccount(ctx, acct); err != nil {
			return err
		}
		out = acct
		return nil
	})
	if err != nil {
		return Account{}, err
	}
	return out, nil
}

// DeleteAccount removes the account and all of its transactions.
func (s *Service) DeleteAccount(ctx context.Context, userID, accountID uuid.UUID) error {
	return s.store.InTx(ctx, func(tx StoreTx) error {
		acct, err := tx.AccountForUpdate(ctx, userID, accountID)
		if err != nil {
			return err
		}
		return tx.DeleteAccount(ctx, acct.ID)
	})
}

func (s *Service) GetAccount(ctx context.Context, userID, accountID uuid.UUID) (Account, error) {
	return s.store.GetAccount(ctx, userID, accountID)
}

func (s *Service) ListAccounts(ctx context.Context, userID uuid.UUID, includeArchived bool) ([]Account, error) {
	return s.store.ListAccounts(ctx, userID, includeArchived)
}

// ApplyInput carries one transaction to apply. Amount is a magnitude; the
// stored sign is derived from Type (deposit and interest positive, everything
// else negative).
type ApplyInput struct {
	Type     TransactionType
	Amount   decimal.Decimal
	Note     *string
	Category *string
	// Date defaults to now when zero.
	Date time.Time
}

// Apply persists the transaction, moves the account balance by the stored
// amount and stamps the transaction's balanceAfter snapshot, all in one unit
// of work. It returns the created transaction with BalanceAfter populated.
func (s *Service) Apply(ctx context.Context, userID, accountID uuid.UUID, in ApplyInput) (Transaction, error) {
	if !in.Type.Valid() {
		return Transaction{}, fmt.Errorf("%w: invalid transaction type %q", domain.ErrValidation, in.Type)
	}
	if in.Amount.IsZero() {
		return Transaction{}, fmt.Errorf("%w: amount is required", domain.ErrValidation)
	}

	var out Transaction
	err := s.store.InTx(ctx, func(tx StoreTx) error {
		acct, err := tx.AccountForUpdate(ctx, userID, accountID)
		if err != nil {
			return err
		}
		out, err = s.applyLocked(ctx, tx, &acct, in)
		return err
	})
	if err != nil {
		return Transaction{}, err
	}
	return out, nil
}

// applyLocked writes one transaction against an account whose row is already
// locked in tx, then updates the balance and stamps balanceAfter. acct's
// Balance is advanced in place.
func (s *Service) applyLocked(ctx context.Context, tx StoreTx, acct *Account, in ApplyInput) (Transaction, error) {
	amount := money.Round(in.Amount).Abs()
	if !in.Type.positive() {
		amount = amount.Neg()
	}

	date := in.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	entry := Transaction{
		ID:              uuid.New(),
		AccountID:       acct.ID,
		UserID:          acct.UserID,
		Type:            in.Type,
		Amount:          amount,
		Note:            in.Note,
		Category:        in.Category,
		TransactionDate: date,
		CreatedAt:       time.Now().UTC(),
	}
	if err := tx.InsertTransaction(ctx, entry); err != nil {
		return Transaction{}, err
	}

	newBalance := acct.Balance.Add(amount)
	if err := tx.SetBalance(ctx, acct.ID, newBalance); err != nil {
		return Transaction{}, err
	}
	if err := tx.StampBalanceAfter(ctx, entry.ID, newBalance); err != nil {
		return Transaction{}, err
	}

	acct.Balance = newBalance
	entry.BalanceAfter = &newBalance
	return entry, nil
}

// Reverse deletes the transaction and decrements the account balance by the
// stored amount, the exact inverse of Apply. balanceAfter snapshots on later
// transactions are not recomputed; the drift is an accepted limitation of the
// denormalized ledger. Returns the account's new balance.
func (s *Service) Reverse(ctx context.Context, userID, transactionID uuid.UUID) (decimal.Decimal, error) {
	var newBalance decimal.Decimal
	err := s.store.InTx(ctx, func(tx StoreTx) error {
		entry, err := tx.GetTransaction(ctx, userID, transactionID)
		if err != nil {
			return err
		}
		acct, err := tx.AccountForUpdate(ctx, userID, entry.AccountID)
		if err != nil {
			return err
		}
		if err := tx.DeleteTransaction(ctx, entry.ID); err != nil {
			return err
		}
		newBalance = acct.Balance.Sub(entry.Amount)
		return tx.SetBalance(ctx, acct.ID, newBalance)
	})
	if err != nil {
		return decimal.Zero, err
	}
	return newBalance, nil
}

// RecalculateBalance overwrites the stored balance with the full transaction
// sum. It is the reconciliation path, independent of the incremental
// apply/reverse arithmetic, and idempotent when nothing changed in between.
func (s *Service) RecalculateBalance(ctx context.Context, userID, accountID uuid.UUID) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.store.InTx(ctx, func(tx StoreTx) error {
		acct, err := tx.AccountForUpdate(ctx, userID, accountID)
		if err != nil {
			return err
		}
		sum, err := tx.SumAmounts(ctx, acct.ID)
		if err != nil {
			return err
		}
		balance = sum
		return tx.SetBalance(ctx, acct.ID, sum)
	})
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// ListTransactions returns a page of the account's history ordered by
// transaction date descending, plus the total matching count.
func (s *Service) ListTransactions(ctx context.Context, userID, accountID uuid.UUID, f TransactionFilter) ([]Transaction, int, error) {
	if f.Type != nil && !f.Type.Valid() {
		return nil, 0, fmt.Errorf("%w: invalid transaction type %q", domain.ErrValidation, *f.Type)
	}
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	// Ownership check up front so an unknown account is NotFound, not an
	// empty page.
	if _, err := s.store.GetAccount(ctx, userID, accountID); err != nil {
		return nil, 0, err
	}
	return s.store.ListTransactions(ctx, userID, accountID, f)
}

// NetWorth sums balances across the user's accounts as of the call instant.
func (s *Service) NetWorth(ctx context.Context, userID uuid.UUID, includeArchived bool) (decimal.Decimal, error) {
	return s.store.SumBalances(ctx, userID, includeArchived)
}

// SpentByCategory sums categorized spending (expense and withdrawal rows)
// inside the inclusive date range, keyed by category.
func (s *Service) SpentByCategory(ctx context.Context, userID uuid.UUID, from, to time.Time) (map[string]decimal.Decimal, error) {
	return s.store.SpentByCategory(ctx, userID, from, to)
}

// History reconstructs the trailing net-worth series by replaying transaction
// dates and their balanceAfter snapshots. Lossy when transactions were later
// deleted.
func (s *Service) History(ctx context.Context, userID uuid.UUID, days int) (NetWorthHistory, error) {
	if days <= 0 {
		days = 30
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	points, err := s.store.LedgerSince(ctx, userID, cutoff)
	if err != nil {
		return NetWorthHistory{}, err
	}
	accounts, err := s.store.ListAccounts(ctx, userID, true)
	if err != nil {
		return NetWorthHistory{}, err
	}
	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.Balance)
	}
	return NetWorthHistory{
		CurrentNetWorth: total,
		Accounts:        accounts,
		Points:          points,
	}, nil
}
