package budget

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Period is the budget cycle length.
type Period string

const (
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

func (p Period) Valid() bool {
	switch p {
	case PeriodWeekly, PeriodMonthly, PeriodYearly:
		return true
	}
	return false
}

// Bounds computes the period window containing ref: ISO weeks starting
// Monday, calendar months, calendar years. End is the last instant before the
// next period.
func (p Period) Bounds(ref time.Time) (time.Time, time.Time) {
	ref = ref.UTC()
	var start, next time.Time
	switch p {
	case PeriodWeekly:
		offset := (int(ref.Weekday()) + 6) % 7 // Monday = 0
		start = time.Date(ref.Year(), ref.Month(), ref.Day()-offset, 0, 0, 0, 0, time.UTC)
		next = start.AddDate(0, 0, 7)
	case PeriodYearly:
		start = time.Date(ref.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		next = start.AddDate(1, 0, 0)
	default: // monthly
		start = time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
		next = start.AddDate(0, 1, 0)
	}
	return start, next.Add(-time.Nanosecond)
}

// Status summarizes how far along the budget is.
type Status string

const (
	StatusGood     Status = "good"
	StatusOnTrack  Status = "on-track"
	StatusWarning  Status = "warning"
	StatusExceeded Status = "exceeded"
)

// Budget is one per-category spending limit for one period window.
type Budget struct {
	ID       uuid.UUID       `db:"id" json:"id"`
	UserID   uuid.UUID       `db:"user_id" json:"user_id"`
	Category string          `db:"category" json:"category"`
	Amount   decimal.Decimal `db:"amount" json:"amount"`
	Spent    decimal.Decimal `db:"spent" json:"spent"`
	Period   Period          `db:"period" json:"period"`
	// StartDate/EndDate are the bounds of the current window; Rollover
	// advances them.
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	// AlertThreshold is a percentage; crossing it fires the alert once per
	// window.
	AlertThreshold int       `db:"alert_threshold" json:"alert_threshold"`
	AlertSent      bool      `db:"alert_sent" json:"alert_sent"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Percent is spent/amount as a percentage. A zero-amount budget with spend
// counts as fully exceeded.
func (b Budget) Percent() float64 {
	if b.Amount.IsZero() {
		if b.Spent.IsZero() {
			return 0
		}
		return 101
	}
	pct, _ := b.Spent.Div(b.Amount).Mul(decimal.NewFromInt(100)).Float64()
	return pct
}

// Remaining never goes negative.
func (b Budget) Remaining() decimal.Decimal {
	r := b.Amount.Sub(b.Spent)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// Status derives the traffic light from Percent and the alert threshold.
func (b Budget) Status() Status {
	pct := b.Percent()
	switch {
	case pct > 100:
		return StatusExceeded
	case pct >= float64(b.AlertThreshold):
		return StatusWarning
	case pct >= 50:
		return StatusOnTrack
	default:
		return StatusGood
	}
}

// DefaultCategories is the starter catalogue offered at onboarding.
func DefaultCategories() []string {
	return []string{
		"Housing", "Groceries", "Transport", "Dining Out", "Entertainment",
		"Health", "Shopping", "Utilities", "Subscriptions", "Savings", "Other",
	}
}
