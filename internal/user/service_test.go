package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mlawrence427/claritynest-backend/internal/domain"
)

// cost 4 keeps bcrypt fast in tests
func newTestService(t *testing.T) *Service {
	t.Helper()
	tokens := NewTokenManager("test-secret", time.Hour, 7*24*time.Hour)
	return NewService(NewMemStore(), tokens, 4, time.Hour)
}

func TestRegisterAndLogin(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()

	u, pair, err := svc.Register(ctx, RegisterInput{Email: "Alice@Example.com", Password: "hunter22!"})
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", u.Email)
	require.Equal(t, domain.RoleUser, u.Role)
	require.True(t, u.IsActive)
	require.Equal(t, "light", u.Preferences["theme"])
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	got, _, err := svc.Login(ctx, "alice@example.com", "hunter22!")
	require.NoError(t, err)
	require.NotNil(t, got.LastLoginAt)

	_, _, err = svc.Login(ctx, "alice@example.com", "wrong")
	require.ErrorIs(t, err, domain.ErrValidation)
	_, _, err = svc.Login(ctx, "nobody@example.com", "hunter22!")
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, RegisterInput{Email: "not-an-email", Password: "hunter22!"})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, _, err = svc.Register(ctx, RegisterInput{Email: "a@b.co", Password: "short"})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, _, err = svc.Register(ctx, RegisterInput{Email: "a@b.co", Password: "longenough"})
	require.NoError(t, err)
	_, _, err = svc.Register(ctx, RegisterInput{Email: "A@B.CO", Password: "longenough"})
	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestTokenKindsAreNotInterchangeable(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()

	u, pair, err := svc.Register(ctx, RegisterInput{Email: "t@example.com", Password: "hunter22!"})
	require.NoError(t, err)

	got, err := svc.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	// A refresh token must not pass as an access token, and vice versa.
	_, err = svc.Authenticate(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.Refresh(ctx, pair.AccessToken)
	require.ErrorIs(t, err, domain.ErrValidation)

	next, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, next.AccessToken)
}

func TestTokenSignatureIsVerified(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := newTestService(t)
	_, pair, err := svc.Register(ctx, RegisterInput{Email: "s@example.com", Password: "hunter22!"})
	require.NoError(t, err)

	other := NewService(NewMemStore(), NewTokenManager("different-secret", time.Hour, time.Hour), 4, time.Hour)
	_, err = other.Authenticate(ctx, pair.AccessToken)
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestChangePassword(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()

	u, _, err := svc.Register(ctx, RegisterInput{Email: "c@example.com", Password: "original-pw"})
	require.NoError(t, err)

	require.ErrorIs(t, svc.ChangePassword(ctx, u.ID, "wrong", "new-password"), domain.ErrValidation)
	require.ErrorIs(t, svc.ChangePassword(ctx, u.ID, "original-pw", "tiny"), domain.ErrValidation)
	require.NoError(t, svc.ChangePassword(ctx, u.ID, "original-pw", "new-password"))

	_, _, err = svc.Login(ctx, "c@example.com", "original-pw")
	require.ErrorIs(t, err, domain.ErrValidation)
	_, _, err = svc.Login(ctx, "c@example.com", "new-password")
	require.NoError(t, err)
}

func TestPasswordResetFlow(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, RegisterInput{Email: "r@example.com", Password: "original-pw"})
	require.NoError(t, err)

	// Unknown email: no token, no error, no existence leak.
	token, err := svc.RequestPasswordReset(ctx, "ghost@example.com")
	require.NoError(t, err)
	require.Empty(t, token)

	token, err = svc.RequestPasswordReset(ctx, "r@example.com")
	require.NoError(t, err)
	require.Len(t, token, 64)

	require.ErrorIs(t, svc.ResetPassword(ctx, "bogus-token", "next-password"), domain.ErrValidation)
	require.NoError(t, svc.ResetPassword(ctx, token, "next-password"))

	// Single use.
	require.ErrorIs(t, svc.ResetPassword(ctx, token, "another-password"), domain.ErrValidation)

	_, _, err = svc.Login(ctx, "r@example.com", "next-password")
	require.NoError(t, err)
}

func TestUpdatePreferencesMerges(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()

	u, _, err := svc.Register(ctx, RegisterInput{Email: "p@example.com", Password: "hunter22!"})
	require.NoError(t, err)

	got, err := svc.UpdatePreferences(ctx, u.ID, map[string]any{"theme": "dark"})
	require.NoError(t, err)
	require.Equal(t, "dark", got.Preferences["theme"])
	// untouched defaults survive the merge
	require.Equal(t, "USD", got.Preferences["currency"])
}

func TestDeactivatedUserCannotLoginOrRefresh(t *testing.T) {
	t.Parallel()
	store := NewMemStore()
	tokens := NewTokenManager("test-secret", time.Hour, time.Hour)
	svc := NewService(store, tokens, 4, time.Hour)
	ctx := context.Background()

	u, pair, err := svc.Register(ctx, RegisterInput{Email: "d@example.com", Password: "hunter22!"})
	require.NoError(t, err)

	u.IsActive = false
	require.NoError(t, store.Update(ctx, u))

	_, _, err = svc.Login(ctx, "d@example.com", "hunter22!")
	require.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, domain.ErrValidation)
}
