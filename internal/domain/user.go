package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role controls what a user may do. Premium is granted and revoked by the
// subscription service, admin is assigned manually.
type Role string

const (
	RoleUser    Role = "user"
	RolePremium Role = "premium"
	RoleAdmin   Role = "admin"
)

// User represents a persisted user record.
type User struct {
	ID               uuid.UUID      `db:"id" json:"id"`
	Email            string         `db:"email" json:"email"`
	PasswordHash     string         `db:"password_hash" json:"-"`
	Name             *string        `db:"name" json:"name,omitempty"`
	Role             Role           `db:"role" json:"role"`
	IsActive         bool           `db:"is_active" json:"is_active"`
	IsPremium        bool           `db:"is_premium" json:"is_premium"`
	PremiumExpiresAt *time.Time     `db:"premium_expires_at" json:"premium_expires_at,omitempty"`
	ResetTokenHash   *string        `db:"password_reset_token" json:"-"`
	ResetTokenExpiry *time.Time     `db:"password_reset_expires" json:"-"`
	LastLoginAt      *time.Time     `db:"last_login_at" json:"last_login_at,omitempty"`
	Preferences      map[string]any `db:"preferences" json:"preferences"`
	CustomerID       *string        `db:"billing_customer_id" json:"-"`
	SubscriptionID   *string        `db:"billing_subscription_id" json:"-"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// DefaultPreferences is applied at registration.
func DefaultPreferences() map[string]any {
	return map[string]any{
		"theme":         "light",
		"notifications": true,
		"currency":      "USD",
	}
}
