package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType classifies a financial account.
type AccountType string

const (
	AccountCash       AccountType = "Cash"
	AccountSavings    AccountType = "Savings"
	AccountInvestment AccountType = "Investment"
	AccountRetirement AccountType = "Retirement"
	AccountCrypto     AccountType = "Crypto"
	AccountDebt       AccountType = "Debt"
)

func (t AccountType) Valid() bool {
	switch t {
	case AccountCash, AccountSavings, AccountInvestment, AccountRetirement, AccountCrypto, AccountDebt:
		return true
	}
	return false
}

// TransactionType classifies a ledger entry. The stored sign of the amount is
// derived from the type at apply time, not supplied by the caller.
type TransactionType string

const (
	TxDeposit    TransactionType = "deposit"
	TxWithdrawal TransactionType = "withdrawal"
	TxInterest   TransactionType = "interest"
	TxExpense    TransactionType = "expense"
	TxTransfer   TransactionType = "transfer"
	TxAdjustment TransactionType = "adjustment"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TxDeposit, TxWithdrawal, TxInterest, TxExpense, TxTransfer, TxAdjustment:
		return true
	}
	return false
}

// positive reports whether amounts of this type are stored positive.
func (t TransactionType) positive() bool {
	return t == TxDeposit || t == TxInterest
}

// Account is the aggregate root of the ledger. Balance is a denormalized
// running total; the invariant balance == sum(transactions.amount) holds
// after every committed mutation.
type Account struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	UserID       uuid.UUID       `db:"user_id" json:"user_id"`
	Name         string          `db:"name" json:"name"`
	Type         AccountType     `db:"type" json:"type"`
	Balance      decimal.Decimal `db:"balance" json:"balance"`
	Currency     string          `db:"currency" json:"currency"`
	Institution  *string         `db:"institution" json:"institution,omitempty"`
	Notes        *string         `db:"notes" json:"notes,omitempty"`
	IsArchived   bool            `db:"is_archived" json:"is_archived"`
	Color        string          `db:"color" json:"color"`
	DisplayOrder int             `db:"display_order" json:"display_order"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// Transaction is immutable once created; its only transition is deletion,
// which reverses its effect on the account balance.
type Transaction struct {
	ID              uuid.UUID        `db:"id" json:"id"`
	AccountID       uuid.UUID        `db:"account_id" json:"account_id"`
	UserID          uuid.UUID        `db:"user_id" json:"user_id"`
	Type            TransactionType  `db:"type" json:"type"`
	Amount          decimal.Decimal  `db:"amount" json:"amount"`
	Note            *string          `db:"note" json:"note,omitempty"`
	Category        *string          `db:"category" json:"category,omitempty"`
	TransactionDate time.Time        `db:"transaction_date" json:"transaction_date"`
	BalanceAfter    *decimal.Decimal `db:"balance_after" json:"balance_after,omitempty"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
}

// TransactionFilter narrows ListTransactions. From/To are inclusive bounds on
// the transaction date.
type TransactionFilter struct {
	From   *time.Time
	To     *time.Time
	Type   *TransactionType
	Limit  int
	Offset int
}

// HistoryPoint is one replayed ledger entry in a net-worth history. The
// running balance comes from the balanceAfter snapshot and is lossy if later
// transactions were deleted.
type HistoryPoint struct {
	Date           time.Time        `json:"date"`
	Amount         decimal.Decimal  `json:"amount"`
	AccountName    string           `json:"account"`
	RunningBalance *decimal.Decimal `json:"running_balance,omitempty"`
}

// NetWorthHistory is a point-in-time read plus the trailing ledger replay.
type NetWorthHistory struct {
	CurrentNetWorth decimal.Decimal `json:"current_net_worth"`
	Accounts        []Account       `json:"accounts"`
	Points          []HistoryPoint  `json:"history"`
}
