package subscription

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mlawrence427/claritynest-backend/internal/domain"
	"github.com/mlawrence427/claritynest-backend/internal/user"
)

func seedUser(t *testing.T, store *user.MemStore, role domain.Role) domain.User {
	t.Helper()
	u := domain.User{
		ID:       uuid.New(),
		Email:    uuid.NewString() + "@example.com",
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, store.Insert(context.Background(), u))
	return u
}

func TestCheckoutCompletedGrantsPremium(t *testing.T) {
	t.Parallel()
	store := user.NewMemStore()
	svc := NewService(store, zerolog.Nop())
	ctx := context.Background()

	u := seedUser(t, store, domain.RoleUser)
	periodEnd := time.Now().UTC().Add(30 * 24 * time.Hour)

	err := svc.HandleEvent(ctx, Event{
		Type:           EventCheckoutCompleted,
		UserID:         &u.ID,
		CustomerID:     "cus_123",
		SubscriptionID: "sub_456",
		PeriodEnd:      &periodEnd,
	})
	require.NoError(t, err)

	got, err := store.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, got.IsPremium)
	require.Equal(t, domain.RolePremium, got.Role)
	require.NotNil(t, got.CustomerID)
	require.Equal(t, "cus_123", *got.CustomerID)
	require.True(t, IsPremium(got))

	// Later events resolve by customer ID alone.
	err = svc.HandleEvent(ctx, Event{
		Type:       EventSubscriptionDeleted,
		CustomerID: "cus_123",
	})
	require.NoError(t, err)

	got, err = store.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.False(t, got.IsPremium)
	require.Equal(t, domain.RoleUser, got.Role)
	require.Nil(t, got.SubscriptionID)
}

func TestSubscriptionUpdatedFollowsStatus(t *testing.T) {
	t.Parallel()
	store := user.NewMemStore()
	svc := NewService(store, zerolog.Nop())
	ctx := context.Background()

	u := seedUser(t, store, domain.RoleUser)

	err := svc.HandleEvent(ctx, Event{Type: EventSubscriptionUpdated, UserID: &u.ID, Status: "active"})
	require.NoError(t, err)
	got, _ := store.GetByID(ctx, u.ID)
	require.True(t, got.IsPremium)

	err = svc.HandleEvent(ctx, Event{Type: EventSubscriptionUpdated, UserID: &u.ID, Status: "canceled"})
	require.NoError(t, err)
	got, _ = store.GetByID(ctx, u.ID)
	require.False(t, got.IsPremium)
	require.Equal(t, domain.RoleUser, got.Role)
}

func TestAdminRoleSurvivesBillingTransitions(t *testing.T) {
	t.Parallel()
	store := user.NewMemStore()
	svc := NewService(store, zerolog.Nop())
	ctx := context.Background()

	u := seedUser(t, store, domain.RoleAdmin)

	require.NoError(t, svc.HandleEvent(ctx, Event{Type: EventSubscriptionCreated, UserID: &u.ID, Status: "active"}))
	got, _ := store.GetByID(ctx, u.ID)
	require.True(t, got.IsPremium)
	require.Equal(t, domain.RoleAdmin, got.Role)

	require.NoError(t, svc.HandleEvent(ctx, Event{Type: EventSubscriptionDeleted, UserID: &u.ID}))
	got, _ = store.GetByID(ctx, u.ID)
	require.False(t, got.IsPremium)
	require.Equal(t, domain.RoleAdmin, got.Role)
}

func TestInvoicePaymentFailedKeepsPremium(t *testing.T) {
	t.Parallel()
	store := user.NewMemStore()
	svc := NewService(store, zerolog.Nop())
	ctx := context.Background()

	u := seedUser(t, store, domain.RoleUser)
	require.NoError(t, svc.HandleEvent(ctx, Event{Type: EventSubscriptionCreated, UserID: &u.ID, Status: "active"}))
	require.NoError(t, svc.HandleEvent(ctx, Event{Type: EventInvoicePaymentFailed, UserID: &u.ID}))

	got, _ := store.GetByID(ctx, u.ID)
	require.True(t, got.IsPremium)
}

func TestExpirePremiumDowngradesLapsedUsers(t *testing.T) {
	t.Parallel()
	store := user.NewMemStore()
	svc := NewService(store, zerolog.Nop())
	ctx := context.Background()

	u := seedUser(t, store, domain.RoleUser)
	past := time.Now().UTC().Add(-time.Hour)
	u.IsPremium = true
	u.Role = domain.RolePremium
	u.PremiumExpiresAt = &past
	require.NoError(t, store.Update(ctx, u))

	downgraded, err := svc.ExpirePremium(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, downgraded)

	got, _ := store.GetByID(ctx, u.ID)
	require.False(t, got.IsPremium)
	require.Equal(t, domain.RoleUser, got.Role)
	require.Nil(t, got.PremiumExpiresAt)

	// Idempotent: a second sweep is a no-op.
	downgraded, err = svc.ExpirePremium(ctx, u.ID)
	require.NoError(t, err)
	require.False(t, downgraded)

	// A premium user whose period is still running is untouched.
	active := seedUser(t, store, domain.RoleUser)
	future := time.Now().UTC().Add(time.Hour)
	active.IsPremium = true
	active.Role = domain.RolePremium
	active.PremiumExpiresAt = &future
	require.NoError(t, store.Update(ctx, active))

	downgraded, err = svc.ExpirePremium(ctx, active.ID)
	require.NoError(t, err)
	require.False(t, downgraded)
	got, _ = store.GetByID(ctx, active.ID)
	require.True(t, got.IsPremium)
}

func TestIsPremiumRespectsExpiry(t *testing.T) {
	t.Parallel()
	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)

	require.False(t, IsPremium(domain.User{IsPremium: false}))
	require.True(t, IsPremium(domain.User{IsPremium: true}))
	require.True(t, IsPremium(domain.User{IsPremium: true, PremiumExpiresAt: &future}))
	require.False(t, IsPremium(domain.User{IsPremium: true, PremiumExpiresAt: &past}))
}

func TestHandleEventErrors(t *testing.T) {
	t.Parallel()
	store := user.NewMemStore()
	svc := NewService(store, zerolog.Nop())
	ctx := context.Background()

	err := svc.HandleEvent(ctx, Event{Type: EventInvoicePaid})
	require.ErrorIs(t, err, domain.ErrValidation)

	err = svc.HandleEvent(ctx, Event{Type: EventInvoicePaid, CustomerID: "cus_missing"})
	require.ErrorIs(t, err, domain.ErrNotFound)

	u := seedUser(t, store, domain.RoleUser)
	err = svc.HandleEvent(ctx, Event{Type: EventType("mystery"), UserID: &u.ID})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestParseEventAndSignature(t *testing.T) {
	t.Parallel()

	body := []byte(`{"type":"invoice.paid","customer_id":"cus_9"}`)
	e, err := ParseEvent(body)
	require.NoError(t, err)
	require.Equal(t, EventInvoicePaid, e.Type)
	require.Equal(t, "cus_9", e.CustomerID)

	_, err = ParseEvent([]byte(`{"customer_id":"cus_9"}`))
	require.ErrorIs(t, err, domain.ErrValidation)
	_, err = ParseEvent([]byte(`{`))
	require.ErrorIs(t, err, domain.ErrValidation)

	// Signature round trip: HMAC-SHA256 hex of the body.
	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write(body)
	sig := hex.EncodeToString(mac.Sum(nil))
	require.True(t, VerifySignature(body, sig, "secret"))
	require.False(t, VerifySignature(body, sig, "other-secret"))
	require.False(t, VerifySignature([]byte("tampered"), sig, "secret"))
}
