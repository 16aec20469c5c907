package subscription

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mlawrence427/claritynest-backend/internal/domain"
	"github.com/mlawrence427/claritynest-backend/internal/user"
)

// EventType enumerates the billing provider notifications the service reacts
// to. The envelope is provider-neutral; the webhook handler translates the
// provider's payload into an Event before calling HandleEvent.
type EventType string

const (
	EventCheckoutCompleted    EventType = "checkout.completed"
	EventSubscriptionCreated  EventType = "subscription.created"
	EventSubscriptionUpdated  EventType = "subscription.updated"
	EventSubscriptionDeleted  EventType = "subscription.deleted"
	EventInvoicePaid          EventType = "invoice.paid"
	EventInvoicePaymentFailed EventType = "invoice.payment_failed"
)

// Event is one billing notification.
type Event struct {
	Type           EventType  `json:"type"`
	CustomerID     string     `json:"customer_id"`
	SubscriptionID string     `json:"subscription_id,omitempty"`
	UserID         *uuid.UUID `json:"user_id,omitempty"`
	Status         string     `json:"status,omitempty"`
	PeriodEnd      *time.Time `json:"period_end,omitempty"`
}

// ParseEvent decodes the neutral envelope.
func ParseEvent(body []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(body, &e); err != nil {
		return Event{}, fmt.Errorf("%w: malformed event payload", domain.ErrValidation)
	}
	if e.Type == "" {
		return Event{}, fmt.Errorf("%w: event type is required", domain.ErrValidation)
	}
	return e, nil
}

// VerifySignature checks the webhook body against its HMAC-SHA256 hex
// signature.
func VerifySignature(body []byte, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Service applies billing events to user records.
type Service struct {
	users user.Store
	log   zerolog.Logger
}

func NewService(users user.Store, log zerolog.Logger) *Service {
	return &Service{users: users, log: log}
}

// HandleEvent is idempotent per event: replaying a notification converges on
// the same user state.
func (s *Service) HandleEvent(ctx context.Context, e Event) error {
	u, err := s.resolveUser(ctx, e)
	if err != nil {
		return err
	}

	switch e.Type {
	case EventCheckoutCompleted:
		if e.CustomerID != "" {
			u.CustomerID = &e.CustomerID
		}
		if e.SubscriptionID != "" {
			u.SubscriptionID = &e.SubscriptionID
		}
		s.grantPremium(&u, e.PeriodEnd)

	case EventSubscriptionCreated, EventSubscriptionUpdated:
		if e.SubscriptionID != "" {
			u.SubscriptionID = &e.SubscriptionID
		}
		if activeStatus(e.Status) {
			s.grantPremium(&u, e.PeriodEnd)
		} else {
			s.revokePremium(&u)
		}

	case EventSubscriptionDeleted:
		u.SubscriptionID = nil
		s.revokePremium(&u)

	case EventInvoicePaid:
		s.grantPremium(&u, e.PeriodEnd)

	case EventInvoicePaymentFailed:
		// Premium is kept until the current period lapses; the provider
		// retries and a terminal failure arrives as subscription.deleted.
		s.log.Warn().Str("user_id", u.ID.String()).Str("customer_id", e.CustomerID).
			Msg("invoice payment failed")
		return nil

	default:
		return fmt.Errorf("%w: unknown event type %q", domain.ErrValidation, e.Type)
	}

	u.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, u); err != nil {
		return err
	}
	s.log.Info().Str("user_id", u.ID.String()).Str("event", string(e.Type)).
		Bool("is_premium", u.IsPremium).Msg("billing event applied")
	return nil
}

// IsPremium reports whether the user currently has premium entitlements.
// An expiry in the past means the flag is stale and the user is not premium.
func IsPremium(u domain.User) bool {
	if !u.IsPremium {
		return false
	}
	if u.PremiumExpiresAt != nil && u.PremiumExpiresAt.Before(time.Now().UTC()) {
		return false
	}
	return true
}

// ExpirePremium downgrades the user if their premium period has lapsed.
// Returns true when a downgrade was applied. A safety net for subscriptions
// whose terminal webhook never arrived.
func (s *Service) ExpirePremium(ctx context.Context, userID uuid.UUID) (bool, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if !u.IsPremium || IsPremium(u) {
		return false, nil
	}
	s.revokePremium(&u)
	u.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, u); err != nil {
		return false, err
	}
	s.log.Info().Str("user_id", u.ID.String()).Msg("lapsed premium expired")
	return true, nil
}

func (s *Service) resolveUser(ctx context.Context, e Event) (domain.User, error) {
	if e.UserID != nil {
		return s.users.GetByID(ctx, *e.UserID)
	}
	if e.CustomerID != "" {
		return s.users.GetByCustomerID(ctx, e.CustomerID)
	}
	return domain.User{}, fmt.Errorf("%w: event carries no user reference", domain.ErrValidation)
}

func (s *Service) grantPremium(u *domain.User, periodEnd *time.Time) {
	u.IsPremium = true
	u.PremiumExpiresAt = periodEnd
	if u.Role != domain.RoleAdmin {
		u.Role = domain.RolePremium
	}
}

func (s *Service) revokePremium(u *domain.User) {
	u.IsPremium = false
	u.PremiumExpiresAt = nil
	if u.Role != domain.RoleAdmin {
		u.Role = domain.RoleUser
	}
}

func activeStatus(status string) bool {
	return status == "active" || status == "trialing"
}
