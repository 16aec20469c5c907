package admin

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mlawrence427/claritynest-backend/internal/domain"
)

// DayCount is one point of the user-growth series.
type DayCount struct {
	Day   time.Time `json:"day"`
	Count int       `json:"count"`
}

// Stats is the admin dashboard summary.
type Stats struct {
	TotalUsers        int             `json:"total_users"`
	ActiveUsers       int             `json:"active_users"`
	PremiumUsers      int             `json:"premium_users"`
	PremiumConversion float64         `json:"premium_conversion"`
	TotalAssets       decimal.Decimal `json:"total_assets"`
	TransactionCount  int             `json:"transaction_count"`
	MoodAverage       float64         `json:"mood_average"`
	TotalPosts        int             `json:"total_posts"`
	TotalLikes        int             `json:"total_likes"`
	UserGrowth        []DayCount      `json:"user_growth"`
}

// UserFilter narrows the admin user list. Search matches email and name.
type UserFilter struct {
	Search string
	Role   *domain.Role
	Active *bool
	Limit  int
	Offset int
}
