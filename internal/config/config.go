package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Env      string
	Database DatabaseConfig
	Auth     AuthConfig
	Log      LogConfig
}

// DatabaseConfig holds Postgres settings.
type DatabaseConfig struct {
	URL             string
	MaxConns        int32
	MigrationsDir   string
	ConnectTimeout  time.Duration
	StatementLogSQL bool
}

// AuthConfig holds token and password hashing settings.
type AuthConfig struct {
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	BcryptCost      int
	ResetTokenTTL   time.Duration
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string
	Pretty bool
}

// Load reads configuration from file and env. Env var overrides use prefix
// CLARITYNEST_, with dots replaced by underscores (for example
// CLARITYNEST_DATABASE_URL, CLARITYNEST_AUTH_JWTSECRET).
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("env", "development")
	v.SetDefault("database.url", "postgres://localhost:5432/claritynest?sslmode=disable")
	v.SetDefault("database.maxconns", 10)
	v.SetDefault("database.migrationsdir", "migrations")
	v.SetDefault("database.connecttimeout", "5s")
	v.SetDefault("database.statementlogsql", false)
	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.accesstokenttl", "1h")
	v.SetDefault("auth.refreshtokenttl", "168h")
	v.SetDefault("auth.bcryptcost", 12)
	v.SetDefault("auth.resettokenttl", "1h")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetConfigType("toml")
	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/claritynest")

	v.SetEnvPrefix("CLARITYNEST")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// config file is optional; env vars alone are a valid deployment
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("config: database.url is required")
	}
	if c.Env == "production" && c.Auth.JWTSecret == "" {
		return fmt.Errorf("config: auth.jwtsecret is required in production")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("config: auth.bcryptcost must be between 4 and 31")
	}
	return nil
}
