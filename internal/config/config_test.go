package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)
	require.Equal(t, "development", c.Env)
	require.Contains(t, c.Database.URL, "postgres://")
	require.Equal(t, 12, c.Auth.BcryptCost)
	require.Equal(t, time.Hour, c.Auth.AccessTokenTTL)
	require.Equal(t, 7*24*time.Hour, c.Auth.RefreshTokenTTL)
	require.Equal(t, "info", c.Log.Level)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CLARITYNEST_DATABASE_URL", "postgres://db.internal:5432/app")
	t.Setenv("CLARITYNEST_AUTH_BCRYPTCOST", "10")
	t.Setenv("CLARITYNEST_LOG_LEVEL", "debug")

	c, err := Load()
	require.NoError(t, err)
	require.Equal(t, "postgres://db.internal:5432/app", c.Database.URL)
	require.Equal(t, 10, c.Auth.BcryptCost)
	require.Equal(t, "debug", c.Log.Level)
}

func TestLoadRejectsBadBcryptCost(t *testing.T) {
	t.Setenv("CLARITYNEST_AUTH_BCRYPTCOST", "99")

	_, err := Load()
	require.Error(t, err)
}

func TestProductionRequiresJWTSecret(t *testing.T) {
	t.Setenv("CLARITYNEST_ENV", "production")
	t.Setenv("CLARITYNEST_AUTH_JWTSECRET", "")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("CLARITYNEST_AUTH_JWTSECRET", "sekrit")
	c, err := Load()
	require.NoError(t, err)
	require.Equal(t, "sekrit", c.Auth.JWTSecret)
}
