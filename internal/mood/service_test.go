package mood

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

func newTestService(t *testing.T) (*Service, uuid.UUID, *ledger.Service) {
	t.Helper()
	led := ledger.NewService(ledger.NewMemStore())
	return NewService(NewMemStore(), led), uuid.New(), led
}

func TestCreateCapturesNetWorthSnapshot(t *testing.T) {
	t.Parallel()
	svc, userID, led := newTestService(t)
	ctx := context.Background()

	_, err := led.CreateAccount(ctx, userID, ledger.CreateAccountInput{
		Name:           "Checking",
		Type:           ledger.AccountCash,
		OpeningBalance: decimal.NewFromInt(150),
	})
	require.NoError(t, err)

	e, err := svc.Create(ctx, userID, CreateInput{Value: 7, Tags: []string{"Calm", "calm", "  work "}})
	require.NoError(t, err)
	require.NotNil(t, e.NetWorthSnapshot)
	require.True(t, e.NetWorthSnapshot.Equal(decimal.NewFromInt(150)))
	// normalized: lowercased, trimmed, deduped
	require.Equal(t, []string{"calm", "work"}, e.Tags)
}

func TestCreateValidation(t *testing.T) {
	t.Parallel()
	svc, userID, _ := newTestService(t)
	ctx := context.Background()

	for _, v := range []int{0, 11, -3} {
		_, err := svc.Create(ctx, userID, CreateInput{Value: v})
		require.ErrorIs(t, err, domain.ErrValidation, "value %d", v)
	}

	_, err := svc.Create(ctx, userID, CreateInput{Value: 5})
	require.NoError(t, err)
}

func TestUpdateKeepsSnapshot(t *testing.T) {
	t.Parallel()
	svc, userID, led := newTestService(t)
	ctx := context.Background()

	_, err := led.CreateAccount(ctx, userID, ledger.CreateAccountInput{
		Name:           "Checking",
		Type:           ledger.AccountCash,
		OpeningBalance: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	e, err := svc.Create(ctx, userID, CreateInput{Value: 4})
	require.NoError(t, err)

	v := 9
	got, err := svc.Update(ctx, userID, e.ID, UpdateInput{Value: &v})
	require.NoError(t, err)
	require.Equal(t, 9, got.Value)
	require.NotNil(t, got.NetWorthSnapshot)
	require.True(t, got.NetWorthSnapshot.Equal(decimal.NewFromInt(100)))

	bad := 42
	_, err = svc.Update(ctx, userID, e.ID, UpdateInput{Value: &bad})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Update(ctx, uuid.New(), e.ID, UpdateInput{Value: &v})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListDateRangeAndPagination(t *testing.T) {
	t.Parallel()
	svc, userID, _ := newTestService(t)
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	for day := 0; day < 6; day++ {
		_, err := svc.Create(ctx, userID, CreateInput{Value: 5, EntryDate: base.AddDate(0, 0, day)})
		require.NoError(t, err)
	}

	from := base.AddDate(0, 0, 1)
	to := base.AddDate(0, 0, 4)
	entries, total, err := svc.List(ctx, userID, Filter{From: &from, To: &to, Limit: 2})
	require.NoError(t, err)
	require.Equal(t, 4, total)
	require.Len(t, entries, 2)
	require.True(t, entries[0].EntryDate.After(entries[1].EntryDate))
}

func TestDelete(t *testing.T) {
	t.Parallel()
	svc, userID, _ := newTestService(t)
	ctx := context.Background()

	e, err := svc.Create(ctx, userID, CreateInput{Value: 6})
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(ctx, uuid.New(), e.ID), domain.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, userID, e.ID))
	require.ErrorIs(t, svc.Delete(ctx, userID, e.ID), domain.ErrNotFound)
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	require.Equal(t, Analytics{}, Summarize(nil))

	entries := []Entry{
		{Value: 4, Tags: []string{"work", "tired"}},
		{Value: 8, Tags: []string{"work", "gym"}},
		{Value: 6, Tags: []string{"work"}},
	}
	got := Summarize(entries)
	require.Equal(t, 3, got.Count)
	require.InDelta(t, 6.0, got.Average, 1e-9)
	require.Equal(t, TagCount{Tag: "work", Count: 3}, got.TopTags[0])
	// ties break alphabetically
	require.Equal(t, TagCount{Tag: "gym", Count: 1}, got.TopTags[1])
	require.Equal(t, TagCount{Tag: "tired", Count: 1}, got.TopTags[2])
}

func TestAnalyzeWindow(t *testing.T) {
	t.Parallel()
	svc, userID, _ := newTestService(t)
	ctx := context.Background()

	now := time.Now().UTC()
	_, err := svc.Create(ctx, userID, CreateInput{Value: 10, EntryDate: now.AddDate(0, 0, -2)})
	require.NoError(t, err)
	// outside the 30-day window
	_, err = svc.Create(ctx, userID, CreateInput{Value: 1, EntryDate: now.AddDate(0, 0, -60)})
	require.NoError(t, err)

	got, err := svc.Analyze(ctx, userID, 30)
	require.NoError(t, err)
	require.Equal(t, 1, got.Count)
	require.InDelta(t, 10.0, got.Average, 1e-9)
}
