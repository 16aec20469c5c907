package budget

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mlawrence427/claritynest-backend/internal/domain"
	"github.com/mlawrence427/claritynest-backend/internal/ledger"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func newTestService(t *testing.T) (*Service, *MemStore, *ledger.Service, uuid.UUID) {
	t.Helper()
	store := NewMemStore()
	led := ledger.NewService(ledger.NewMemStore())
	return NewService(store, led), store, led, uuid.New()
}

func TestPeriodBounds(t *testing.T) {
	t.Parallel()

	// Wednesday 2026-03-18
	ref := time.Date(2026, 3, 18, 15, 30, 0, 0, time.UTC)

	start, end := PeriodWeekly.Bounds(ref)
	require.Equal(t, time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC), start) // Monday
	require.True(t, end.Before(time.Date(2026, 3, 23, 0, 0, 0, 0, time.UTC)))
	require.True(t, end.After(time.Date(2026, 3, 22, 23, 59, 59, 0, time.UTC)))

	start, end = PeriodMonthly.Bounds(ref)
	require.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), start)
	require.True(t, end.Before(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)))

	start, _ = PeriodYearly.Bounds(ref)
	require.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), start)

	// A Sunday belongs to the week that started the previous Monday.
	sunday := time.Date(2026, 3, 22, 8, 0, 0, 0, time.UTC)
	start, _ = PeriodWeekly.Bounds(sunday)
	require.Equal(t, time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC), start)
}

func TestDerivations(t *testing.T) {
	t.Parallel()

	b := Budget{Amount: dec(t, "200"), AlertThreshold: 80}

	b.Spent = dec(t, "40") // 20%
	require.Equal(t, StatusGood, b.Status())
	require.True(t, b.Remaining().Equal(dec(t, "160")))

	b.Spent = dec(t, "120") // 60%
	require.Equal(t, StatusOnTrack, b.Status())

	b.Spent = dec(t, "160") // 80%
	require.Equal(t, StatusWarning, b.Status())

	b.Spent = dec(t, "250") // 125%
	require.Equal(t, StatusExceeded, b.Status())
	require.True(t, b.Remaining().IsZero())

	// zero-amount budget with any spend counts as exceeded
	z := Budget{Amount: decimal.Zero, Spent: dec(t, "1"), AlertThreshold: 80}
	require.Equal(t, StatusExceeded, z.Status())
}

func TestCreateValidation(t *testing.T) {
	t.Parallel()
	svc, _, _, userID := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, userID, CreateInput{Category: " ", Amount: dec(t, "100"), Period: PeriodMonthly})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Create(ctx, userID, CreateInput{Category: "Groceries", Amount: dec(t, "-5"), Period: PeriodMonthly})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Create(ctx, userID, CreateInput{Category: "Groceries", Amount: dec(t, "100"), Period: Period("fortnightly")})
	require.ErrorIs(t, err, domain.ErrValidation)

	b, err := svc.Create(ctx, userID, CreateInput{Category: "Groceries", Amount: dec(t, "100"), Period: PeriodMonthly})
	require.NoError(t, err)
	require.Equal(t, 80, b.AlertThreshold)
	require.True(t, b.Spent.IsZero())

	// duplicate category+period conflicts
	_, err = svc.Create(ctx, userID, CreateInput{Category: "groceries", Amount: dec(t, "50"), Period: PeriodMonthly})
	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestAddExpenseAlertIsOneShot(t *testing.T) {
	t.Parallel()
	svc, _, _, userID := newTestService(t)
	ctx := context.Background()

	b, err := svc.Create(ctx, userID, CreateInput{Category: "Dining Out", Amount: dec(t, "100"), Period: PeriodMonthly})
	require.NoError(t, err)

	got, alert, err := svc.AddExpense(ctx, userID, b.ID, dec(t, "30"))
	require.NoError(t, err)
	require.False(t, alert)
	require.True(t, got.Spent.Equal(dec(t, "30")))

	// crosses 80%
	_, alert, err = svc.AddExpense(ctx, userID, b.ID, dec(t, "55"))
	require.NoError(t, err)
	require.True(t, alert)

	// still above threshold but the alert fired already
	_, alert, err = svc.AddExpense(ctx, userID, b.ID, dec(t, "30"))
	require.NoError(t, err)
	require.False(t, alert)

	_, _, err = svc.AddExpense(ctx, userID, b.ID, decimal.Zero)
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestRecalculateFromTransactions(t *testing.T) {
	t.Parallel()
	svc, _, led, userID := newTestService(t)
	ctx := context.Background()

	acct, err := led.CreateAccount(ctx, userID, ledger.CreateAccountInput{
		Name:           "Checking",
		Type:           ledger.AccountCash,
		OpeningBalance: dec(t, "1000"),
	})
	require.NoError(t, err)

	groceries := "Groceries"
	other := "Entertainment"
	_, err = led.Apply(ctx, userID, acct.ID, ledger.ApplyInput{Type: ledger.TxExpense, Amount: dec(t, "42.50"), Category: &groceries})
	require.NoError(t, err)
	_, err = led.Apply(ctx, userID, acct.ID, ledger.ApplyInput{Type: ledger.TxWithdrawal, Amount: dec(t, "17.50"), Category: &groceries})
	require.NoError(t, err)
	_, err = led.Apply(ctx, userID, acct.ID, ledger.ApplyInput{Type: ledger.TxExpense, Amount: dec(t, "99"), Category: &other})
	require.NoError(t, err)
	// deposits never count as spend
	_, err = led.Apply(ctx, userID, acct.ID, ledger.ApplyInput{Type: ledger.TxDeposit, Amount: dec(t, "500"), Category: &groceries})
	require.NoError(t, err)

	b, err := svc.Create(ctx, userID, CreateInput{Category: "Groceries", Amount: dec(t, "100"), Period: PeriodMonthly})
	require.NoError(t, err)

	got, err := svc.RecalculateFromTransactions(ctx, userID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.True(t, got[0].Spent.Equal(dec(t, "60.00")), "got %s", got[0].Spent)

	// idempotent
	again, err := svc.RecalculateFromTransactions(ctx, userID)
	require.NoError(t, err)
	require.True(t, again[0].Spent.Equal(got[0].Spent))

	_, err = svc.Get(ctx, userID, b.ID)
	require.NoError(t, err)
}

func TestRollover(t *testing.T) {
	t.Parallel()
	svc, store, _, userID := newTestService(t)
	ctx := context.Background()

	b, err := svc.Create(ctx, userID, CreateInput{Category: "Transport", Amount: dec(t, "50"), Period: PeriodWeekly})
	require.NoError(t, err)

	// age the budget into last week with spend and a fired alert
	b.StartDate = b.StartDate.AddDate(0, 0, -14)
	b.EndDate = b.EndDate.AddDate(0, 0, -14)
	b.Spent = dec(t, "49")
	b.AlertSent = true
	require.NoError(t, store.Update(ctx, b))

	rolled, err := svc.Rollover(ctx, userID)
	require.NoError(t, err)
	require.Len(t, rolled, 1)
	require.True(t, rolled[0].Spent.IsZero())
	require.False(t, rolled[0].AlertSent)
	require.False(t, rolled[0].EndDate.Before(time.Now().UTC()))

	// nothing left to roll
	rolled, err = svc.Rollover(ctx, userID)
	require.NoError(t, err)
	require.Empty(t, rolled)
}

func TestDefaultCategories(t *testing.T) {
	t.Parallel()
	cats := DefaultCategories()
	require.NotEmpty(t, cats)
	require.Contains(t, cats, "Groceries")
}
