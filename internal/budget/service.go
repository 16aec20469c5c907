package budget

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
	defaultAlertThreshold = 80
	maxCategoryLen        = 50
)

// Spender provides categorized spend sums from the ledger. Satisfied by the
// ledger service.
type Spender interface {
	SpentByCategory(ctx context.Context, userID uuid.UUID, from, to time.Time) (map[string]decimal.Decimal, error)
}

// Service owns budget lifecycle, spend tracking and threshold alerts.
type Service struct {
	store  Store
	ledger Spender
}

func NewService(store Store, ledger Spender) *Service {
	return &Service{store: store, ledger: ledger}
}

type CreateInput struct {
	Category string
	Amount   decimal.Decimal
	Period   Period
	// AlertThreshold defaults to 80 when zero.
	AlertThreshold int
}

func (s *Service) Create(ctx context.Context, userID uuid.UUID, in CreateInput) (Budget, error) {
	category := strings.TrimSpace(in.Category)
	if category == "" || len(category) > maxCategoryLen {
		return Budget{}, fmt.Errorf("%w: category must be 1-%d characters", domain.ErrValidation, maxCategoryLen)
	}
	if !in.Amount.IsPositive() {
		return Budget{}, fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
	}
	if !in.Period.Valid() {
		return Budget{}, fmt.Errorf("%w: invalid period %q", domain.ErrValidation, in.Period)
	}
	threshold := in.AlertThreshold
	if threshold == 0 {
		threshold = defaultAlertThreshold
	}
	if threshold < 1 || threshold > 100 {
		return Budget{}, fmt.Errorf("%w: alert threshold must be 1-100", domain.ErrValidation)
	}

	now := time.Now().UTC()
	start, end := in.Period.Bounds(now)
	b := Budget{
		ID:             uuid.New(),
		UserID:         userID,
		Category:       category,
		Amount:         money.Round(in.Amount),
		Spent:          decimal.Zero,
		Period:         in.Period,
		StartDate:      start,
		EndDate:        end,
		AlertThreshold: threshold,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.Insert(ctx, b); err != nil {
		return Budget{}, err
	}
	return b, nil
}

func (s *Service) Get(ctx context.Context, userID, budgetID uuid.UUID) (Budget, error) {
	return s.store.Get(ctx, userID, budgetID)
}

func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]Budget, error) {
	return s.store.List(ctx, userID)
}

type UpdateInput struct {
	Amount         *decimal.Decimal
	AlertThreshold *int
}

func (s *Service) Update(ctx context.Context, userID, budgetID uuid.UUID, in UpdateInput) (Budget, error) {
	b, err := s.store.Get(ctx, userID, budgetID)
	if err != nil {
		return Budget{}, err
	}
	if in.Amount != nil {
		if !in.Amount.IsPositive() {
			return Budget{}, fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
		}
		b.Amount = money.Round(*in.Amount)
	}
	if in.AlertThreshold != nil {
		if *in.AlertThreshold < 1 || *in.AlertThreshold > 100 {
			return Budget{}, fmt.Errorf("%w: alert threshold must be 1-100", domain.ErrValidation)
		}
		b.AlertThreshold = *in.AlertThreshold
	}
	// A raised limit may drop the budget back under its threshold; let the
	// alert fire again if it is crossed anew.
	if b.Percent() < float64(b.AlertThreshold) {
		b.AlertSent = false
	}
	b.UpdatedAt = time.Now().UTC()
	if err := s.store.Update(ctx, b); err != nil {
		return Budget{}, err
	}
	return b, nil
}

func (s *Service) Delete(ctx context.Context, userID, budgetID uuid.UUID) error {
	return s.store.Delete(ctx, userID, budgetID)
}

// AddExpense increments the spent total and reports whether the alert
// threshold was crossed by this expense. The alert fires at most once per
// period window.
func (s *Service) AddExpense(ctx context.Context, userID, budgetID uuid.UUID, amount decimal.Decimal) (Budget, bool, error) {
	if !amount.IsPositive() {
		return Budget{}, false, fmt.Errorf("%w: expense amount must be positive", domain.ErrValidation)
	}
	b, err := s.store.Get(ctx, userID, budgetID)
	if err != nil {
		return Budget{}, false, err
	}

	b.Spent = b.Spent.Add(money.Round(amount))
	alert := s.markAlert(&b)
	b.UpdatedAt = time.Now().UTC()

	if err := s.store.Update(ctx, b); err != nil {
		return Budget{}, false, err
	}
	return b, alert, nil
}

// RecalculateFromTransactions replaces every budget's spent total with the
// ledger's categorized spend inside the budget's own window. Budgets whose
// category saw no spend reset to zero.
func (s *Service) RecalculateFromTransactions(ctx context.Context, userID uuid.UUID) ([]Budget, error) {
	budgets, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]Budget, 0, len(budgets))
	for _, b := range budgets {
		sums, err := s.ledger.SpentByCategory(ctx, userID, b.StartDate, b.EndDate)
		if err != nil {
			return nil, err
		}
		b.Spent = sums[b.Category]
		if b.Percent() < float64(b.AlertThreshold) {
			b.AlertSent = false
		} else {
			s.markAlert(&b)
		}
		b.UpdatedAt = time.Now().UTC()
		if err := s.store.Update(ctx, b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// Rollover advances every budget whose window has lapsed into the current
// period: fresh bounds, zero spent, alert re-armed. Returns the budgets that
// moved.
func (s *Service) Rollover(ctx context.Context, userID uuid.UUID) ([]Budget, error) {
	budgets, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var rolled []Budget
	for _, b := range budgets {
		if !b.EndDate.Before(now) {
			continue
		}
		b.StartDate, b.EndDate = b.Period.Bounds(now)
		b.Spent = decimal.Zero
		b.AlertSent = false
		b.UpdatedAt = now
		if err := s.store.Update(ctx, b); err != nil {
			return nil, err
		}
		rolled = append(rolled, b)
	}
	return rolled, nil
}

// markAlert arms the one-shot alert. Returns true only on the first crossing
// in the current window.
func (s *Service) markAlert(b *Budget) bool {
	if b.AlertSent || b.Percent() < float64(b.AlertThreshold) {
		return false
	}
	b.AlertSent = true
	return true
}
