package mood

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Entry is one mood check-in. NetWorthSnapshot is captured from the ledger at
// creation so mood can later be correlated with finances as they were that day.
type Entry struct {
	ID               uuid.UUID        `db:"id" json:"id"`
	UserID           uuid.UUID        `db:"user_id" json:"user_id"`
	Value            int              `db:"value" json:"value"`
	Tags             []string         `db:"tags" json:"tags"`
	Note             *string          `db:"note" json:"note,omitempty"`
	Weather          *string          `db:"weather" json:"weather,omitempty"`
	SleepHours       *float64         `db:"sleep_hours" json:"sleep_hours,omitempty"`
	Exercised        *bool            `db:"exercised" json:"exercised,omitempty"`
	NetWorthSnapshot *decimal.Decimal `db:"net_worth_snapshot" json:"net_worth_snapshot,omitempty"`
	EntryDate        time.Time        `db:"entry_date" json:"entry_date"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// Filter narrows List results. Zero-value fields are ignored.
type Filter struct {
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// TagCount is one row of the tag-frequency analytics.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Analytics summarizes a user's check-ins over a window.
type Analytics struct {
	Average float64    `json:"average"`
	Count   int        `json:"count"`
	TopTags []TagCount `json:"top_tags"`
}
