package export

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mlawrence427/claritynest-backend/internal/domain"
	"github.com/mlawrence427/claritynest-backend/internal/ledger"
	"github.com/mlawrence427/claritynest-backend/internal/mood"
	"github.com/mlawrence427/claritynest-backend/internal/user"
)

type fixture struct {
	svc    *Service
	ledger *ledger.Service
	moods  *mood.Service
	userID uuid.UUID
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ledgerStore := ledger.NewMemStore()
	led := ledger.NewService(ledgerStore)
	moodStore := mood.NewMemStore()
	users := user.NewMemStore()

	u := domain.User{ID: uuid.New(), Email: "x@example.com", Role: domain.RoleUser, IsActive: true}
	require.NoError(t, users.Insert(context.Background(), u))

	return fixture{
		svc:    NewService(led, ledgerStore, moodStore, users),
		ledger: led,
		moods:  mood.NewService(moodStore, led),
		userID: u.ID,
	}
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestJSONBackupShape(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	acct, err := f.ledger.CreateAccount(ctx, f.userID, ledger.CreateAccountInput{
		Name:           "Savings",
		Type:           ledger.AccountSavings,
		OpeningBalance: dec(t, "300"),
	})
	require.NoError(t, err)
	_, err = f.ledger.Apply(ctx, f.userID, acct.ID, ledger.ApplyInput{Type: ledger.TxWithdrawal, Amount: dec(t, "40")})
	require.NoError(t, err)
	_, err = f.moods.Create(ctx, f.userID, mood.CreateInput{Value: 8, Tags: []string{"good"}})
	require.NoError(t, err)

	backup, err := f.svc.JSON(ctx, f.userID)
	require.NoError(t, err)
	require.Equal(t, Version, backup.ExportVersion)
	require.False(t, backup.ExportDate.IsZero())
	require.Equal(t, f.userID, backup.User.ID)
	require.Len(t, backup.Accounts, 1)
	require.Len(t, backup.Accounts[0].Transactions, 2)
	require.Len(t, backup.Moods, 1)
}

func TestCSVFormat(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	acct, err := f.ledger.CreateAccount(ctx, f.userID, ledger.CreateAccountInput{
		Name: "Checking",
		Type: ledger.AccountCash,
	})
	require.NoError(t, err)

	note := "Coffee"
	cat := "Dining Out"
	_, err = f.ledger.Apply(ctx, f.userID, acct.ID, ledger.ApplyInput{
		Type:     ledger.TxExpense,
		Amount:   dec(t, "4.50"),
		Note:     &note,
		Category: &cat,
		Date:     time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	moodNote := `said "wow" today`
	_, err = f.moods.Create(ctx, f.userID, mood.CreateInput{
		Value:     9,
		Tags:      []string{"coffee", "sun"},
		Note:      &moodNote,
		EntryDate: time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	csv, err := f.svc.CSV(ctx, f.userID, CSVOptions{})
	require.NoError(t, err)

	lines := strings.Split(csv, "\n")
	require.Equal(t, "Type,Account,Date,Transaction,Amount,Category,Balance After", lines[0])
	require.Equal(t, `"Cash","Checking","2026-02-10","Coffee",-4.50,"Dining Out",-4.50`, lines[1])

	require.Contains(t, csv, "Mood Check-ins\nDate,Mood,Tags,Note,Net Worth Snapshot\n")
	// tags pipe-joined, embedded quotes doubled
	require.Contains(t, csv, `"2026-02-10",9,"coffee|sun","said ""wow"" today",-4.50`)
}

func TestCSVAccountAndDateFilters(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.ledger.CreateAccount(ctx, f.userID, ledger.CreateAccountInput{Name: "A", Type: ledger.AccountCash})
	require.NoError(t, err)
	b, err := f.ledger.CreateAccount(ctx, f.userID, ledger.CreateAccountInput{Name: "B", Type: ledger.AccountCash})
	require.NoError(t, err)

	_, err = f.ledger.Apply(ctx, f.userID, a.ID, ledger.ApplyInput{Type: ledger.TxDeposit, Amount: dec(t, "1"), Date: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	_, err = f.ledger.Apply(ctx, f.userID, b.ID, ledger.ApplyInput{Type: ledger.TxDeposit, Amount: dec(t, "2"), Date: time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)

	csv, err := f.svc.CSV(ctx, f.userID, CSVOptions{AccountID: &a.ID})
	require.NoError(t, err)
	require.Contains(t, csv, `"A"`)
	require.NotContains(t, csv, `"B"`)

	from := time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC)
	csv, err = f.svc.CSV(ctx, f.userID, CSVOptions{From: &from})
	require.NoError(t, err)
	require.NotContains(t, csv, `"2026-01-05"`)
	require.Contains(t, csv, `"2026-01-06"`)
}

func TestImportRestoresInvariant(t *testing.T) {
	t.Parallel()
	source := newFixture(t)
	ctx := context.Background()

	acct, err := source.ledger.CreateAccount(ctx, source.userID, ledger.CreateAccountInput{
		Name:           "Brokerage",
		Type:           ledger.AccountInvestment,
		OpeningBalance: dec(t, "1000"),
	})
	require.NoError(t, err)
	_, err = source.ledger.Apply(ctx, source.userID, acct.ID, ledger.ApplyInput{Type: ledger.TxExpense, Amount: dec(t, "150.25")})
	require.NoError(t, err)
	_, err = source.moods.Create(ctx, source.userID, mood.CreateInput{Value: 6})
	require.NoError(t, err)

	backup, err := source.svc.JSON(ctx, source.userID)
	require.NoError(t, err)

	target := newFixture(t)
	result, err := target.svc.Import(ctx, target.userID, backup)
	require.NoError(t, err)
	require.Equal(t, ImportResult{Accounts: 1, Transactions: 2, Moods: 1}, result)

	accounts, err := target.ledger.ListAccounts(ctx, target.userID, true)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	require.True(t, accounts[0].Balance.Equal(dec(t, "849.75")), "got %s", accounts[0].Balance)

	// restored balance equals the transaction sum
	got, err := target.ledger.RecalculateBalance(ctx, target.userID, accounts[0].ID)
	require.NoError(t, err)
	require.True(t, got.Equal(accounts[0].Balance))
}

func TestImportRejectsUnversionedDocument(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.svc.Import(context.Background(), f.userID, Backup{})
	require.ErrorIs(t, err, domain.ErrValidation)
}
