// Package export implements user-data portability: versioned JSON backups,
// CSV exports and backup restore.
package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mlawrence427/claritynest-backend/internal/domain"
	"github.com/mlawrence427/claritynest-backend/internal/ledger"
	"github.com/mlawrence427/claritynest-backend/internal/mood"
)

// Version tags backups so future readers can handle format drift.
const Version = "1.0"

const dateLayout = "2006-01-02"

// allRows is the per-account page size used when dumping full history.
const allRows = 100000

// AccountBackup is one account with its complete transaction history.
type AccountBackup struct {
	ledger.Account
	Transactions []ledger.Transaction `json:"transactions"`
}

// Backup is the complete JSON backup document. The user record serializes
// through its domain tags, which already withhold the password hash, reset
// token and billing identifiers.
type Backup struct {
	ExportVersion string          `json:"exportVersion"`
	ExportDate    time.Time       `json:"exportDate"`
	User          domain.User     `json:"user"`
	Accounts      []AccountBackup `json:"accounts"`
	Moods         []mood.Entry    `json:"moods"`
}

// ImportResult counts what a restore created.
type ImportResult struct {
	Accounts     int `json:"accounts"`
	Transactions int `json:"transactions"`
	Moods        int `json:"moods"`
}

// UserReader is the slice of the user store the exporter needs.
type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)
}

// Service assembles backups and restores them through the ledger's import
// path.
type Service struct {
	ledger      *ledger.Service
	ledgerStore ledger.Store
	moods       mood.Store
	users       UserReader
}

func NewService(led *ledger.Service, store ledger.Store, moods mood.Store, users UserReader) *Service {
	return &Service{ledger: led, ledgerStore: store, moods: moods, users: users}
}

// JSON builds the full backup document for one user.
func (s *Service) JSON(ctx context.Context, userID uuid.UUID) (Backup, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return Backup{}, err
	}

	accounts, err := s.ledgerStore.ListAccounts(ctx, userID, true)
	if err != nil {
		return Backup{}, err
	}

	backup := Backup{
		ExportVersion: Version,
		ExportDate:    time.Now().UTC(),
		User:          u,
		Accounts:      make([]AccountBackup, 0, len(accounts)),
	}
	for _, acct := range accounts {
		txs, _, err := s.ledgerStore.ListTransactions(ctx, userID, acct.ID, ledger.TransactionFilter{Limit: allRows})
		if err != nil {
			return Backup{}, err
		}
		backup.Accounts = append(backup.Accounts, AccountBackup{Account: acct, Transactions: txs})
	}

	moods, _, err := s.moods.List(ctx, userID, mood.Filter{Limit: allRows})
	if err != nil {
		return Backup{}, err
	}
	backup.Moods = moods
	return backup, nil
}

// CSVOptions narrows the CSV export. Zero-value fields are ignored.
type CSVOptions struct {
	AccountID *uuid.UUID
	From      *time.Time
	To        *time.Time
}

// CSV renders the transaction table followed by the mood section. Text cells
// are double-quoted; only the mood note doubles embedded quotes, matching the
// export format shipped to existing users.
func (s *Service) CSV(ctx context.Context, userID uuid.UUID, opts CSVOptions) (string, error) {
	accounts, err := s.ledgerStore.ListAccounts(ctx, userID, true)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Type,Account,Date,Transaction,Amount,Category,Balance After\n")

	for _, acct := range accounts {
		if opts.AccountID != nil && acct.ID != *opts.AccountID {
			continue
		}
		txs, _, err := s.ledgerStore.ListTransactions(ctx, userID, acct.ID, ledger.TransactionFilter{
			From:  opts.From,
			To:    opts.To,
			Limit: allRows,
		})
		if err != nil {
			return "", err
		}
		for _, tx := range txs {
			label := string(tx.Type)
			if tx.Note != nil && *tx.Note != "" {
				label = *tx.Note
			}
			category := ""
			if tx.Category != nil {
				category = *tx.Category
			}
			balanceAfter := ""
			if tx.BalanceAfter != nil {
				balanceAfter = tx.BalanceAfter.StringFixed(2)
			}
			fmt.Fprintf(&b, "%q,%q,%q,%q,%s,%q,%s\n",
				acct.Type, acct.Name, tx.TransactionDate.Format(dateLayout),
				label, tx.Amount.StringFixed(2), category, balanceAfter)
		}
	}

	b.WriteString("\n\nMood Check-ins\nDate,Mood,Tags,Note,Net Worth Snapshot\n")
	moods, _, err := s.moods.List(ctx, userID, mood.Filter{Limit: allRows})
	if err != nil {
		return "", err
	}
	for _, m := range moods {
		note := ""
		if m.Note != nil {
			note = strings.ReplaceAll(*m.Note, `"`, `""`)
		}
		snapshot := ""
		if m.NetWorthSnapshot != nil {
			snapshot = m.NetWorthSnapshot.StringFixed(2)
		}
		fmt.Fprintf(&b, "\"%s\",%d,\"%s\",\"%s\",%s\n",
			m.EntryDate.Format(dateLayout), m.Value, strings.Join(m.Tags, "|"), note, snapshot)
	}
	return b.String(), nil
}

// Import restores a backup into the given user's data. Accounts are created
// with a zero balance, transaction amounts land verbatim through the ledger's
// raw path, and each account is reconciled afterward so the balance invariant
// holds no matter what the backup contained.
func (s *Service) Import(ctx context.Context, userID uuid.UUID, backup Backup) (ImportResult, error) {
	if backup.ExportVersion == "" {
		return ImportResult{}, fmt.Errorf("%w: not a backup document", domain.ErrValidation)
	}

	var result ImportResult
	for _, acctData := range backup.Accounts {
		acct, err := s.ledger.ImportAccount(ctx, userID, ledger.CreateAccountInput{
			Name:         acctData.Name,
			Type:         acctData.Type,
			Currency:     acctData.Currency,
			Institution:  acctData.Institution,
			Notes:        acctData.Notes,
			Color:        acctData.Color,
			DisplayOrder: acctData.DisplayOrder,
		})
		if err != nil {
			return result, err
		}
		result.Accounts++

		entries := make([]ledger.RawEntry, 0, len(acctData.Transactions))
		for _, tx := range acctData.Transactions {
			entries = append(entries, ledger.RawEntry{
				Type:     tx.Type,
				Amount:   tx.Amount,
				Note:     tx.Note,
				Category: tx.Category,
				Date:     tx.TransactionDate,
			})
		}
		n, err := s.ledger.ImportEntries(ctx, userID, acct.ID, entries)
		if err != nil {
			return result, err
		}
		result.Transactions += n

		if _, err := s.ledger.RecalculateBalance(ctx, userID, acct.ID); err != nil {
			return result, err
		}
	}

	now := time.Now().UTC()
	for _, m := range backup.Moods {
		if m.Value < 1 || m.Value > 10 {
			return result, fmt.Errorf("%w: mood value %d out of range", domain.ErrValidation, m.Value)
		}
		entry := mood.Entry{
			ID:               uuid.New(),
			UserID:           userID,
			Value:            m.Value,
			Tags:             m.Tags,
			Note:             m.Note,
			Weather:          m.Weather,
			SleepHours:       m.SleepHours,
			Exercised:        m.Exercised,
			NetWorthSnapshot: m.NetWorthSnapshot,
			EntryDate:        m.EntryDate,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if entry.EntryDate.IsZero() {
			entry.EntryDate = now
		}
		if err := s.moods.Insert(ctx, entry); err != nil {
			return result, err
		}
		result.Moods++
	}
	return result, nil
}
