package user

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mlawrence427/claritynest-backend/internal/domain"
)

const minPasswordLen = 8

// Service owns registration, authentication and profile management.
type Service struct {
	store      Store
	tokens     *TokenManager
	bcryptCost int
	resetTTL   time.Duration
}

func NewService(store Store, tokens *TokenManager, bcryptCost int, resetTTL time.Duration) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	if resetTTL == 0 {
		resetTTL = time.Hour
	}
	return &Service{store: store, tokens: tokens, bcryptCost: bcryptCost, resetTTL: resetTTL}
}

type RegisterInput struct {
	Email    string
	Password string
	Name     *string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (domain.User, TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.User{}, TokenPair{}, fmt.Errorf("%w: invalid email", domain.ErrValidation)
	}
	if len(in.Password) < minPasswordLen {
		return domain.User{}, TokenPair{}, fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLen)
	}

	if _, err := s.store.GetByEmail(ctx, email); err == nil {
		return domain.User{}, TokenPair{}, fmt.Errorf("%w: email already registered", domain.ErrConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return domain.User{}, TokenPair{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	u := domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         in.Name,
		Role:         domain.RoleUser,
		IsActive:     true,
		Preferences:  domain.DefaultPreferences(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Insert(ctx, u); err != nil {
		return domain.User{}, TokenPair{}, err
	}

	pair, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return domain.User{}, TokenPair{}, err
	}
	return u, pair, nil
}

// Login verifies credentials and stamps last_login_at. Unknown email and wrong
// password both come back as the same validation error.
func (s *Service) Login(ctx context.Context, email, password string) (domain.User, TokenPair, error) {
	u, err := s.store.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return domain.User{}, TokenPair{}, fmt.Errorf("%w: invalid credentials", domain.ErrValidation)
	}
	if !u.IsActive {
		return domain.User{}, TokenPair{}, fmt.Errorf("%w: account is deactivated", domain.ErrValidation)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, TokenPair{}, fmt.Errorf("%w: invalid credentials", domain.ErrValidation)
	}

	now := time.Now().UTC()
	u.LastLoginAt = &now
	u.UpdatedAt = now
	if err := s.store.Update(ctx, u); err != nil {
		return domain.User{}, TokenPair{}, err
	}

	pair, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return domain.User{}, TokenPair{}, err
	}
	return u, pair, nil
}

// Refresh exchanges a valid refresh token for a new pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	uid, _, err := s.tokens.Parse(refreshToken, TokenRefresh)
	if err != nil {
		return TokenPair{}, err
	}
	u, err := s.store.GetByID(ctx, uid)
	if err != nil {
		return TokenPair{}, err
	}
	if !u.IsActive {
		return TokenPair{}, fmt.Errorf("%w: account is deactivated", domain.ErrValidation)
	}
	return s.tokens.Issue(u.ID, u.Role)
}

// Authenticate resolves an access token to its user.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (domain.User, error) {
	uid, _, err := s.tokens.Parse(accessToken, TokenAccess)
	if err != nil {
		return domain.User{}, err
	}
	return s.store.GetByID(ctx, uid)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.User, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)); err != nil {
		return fmt.Errorf("%w: current password is incorrect", domain.ErrValidation)
	}
	if len(next) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	u.UpdatedAt = time.Now().UTC()
	return s.store.Update(ctx, u)
}

// RequestPasswordReset generates a single-use reset token. Only its SHA-256
// hash is stored; the plaintext goes out to the user exactly once. An unknown
// email returns an empty token with no error, so the caller's response cannot
// leak which addresses exist.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	u, err := s.store.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", nil
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	token := hex.EncodeToString(raw)
	hash := hashToken(token)
	expiry := time.Now().UTC().Add(s.resetTTL)

	u.ResetTokenHash = &hash
	u.ResetTokenExpiry = &expiry
	u.UpdatedAt = time.Now().UTC()
	if err := s.store.Update(ctx, u); err != nil {
		return "", err
	}
	return token, nil
}

// ResetPassword consumes a reset token. The token is cleared whether or not it
// had expired, so it can never be replayed.
func (s *Service) ResetPassword(ctx context.Context, token, next string) error {
	if len(next) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLen)
	}
	u, err := s.store.GetByResetTokenHash(ctx, hashToken(token))
	if err != nil {
		return fmt.Errorf("%w: invalid or expired reset token", domain.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	u.ResetTokenHash = nil
	u.ResetTokenExpiry = nil
	u.UpdatedAt = time.Now().UTC()
	return s.store.Update(ctx, u)
}

type UpdateProfileInput struct {
	Name *string
}

func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, in UpdateProfileInput) (domain.User, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			u.Name = nil
		} else {
			u.Name = &name
		}
	}
	u.UpdatedAt = time.Now().UTC()
	if err := s.store.Update(ctx, u); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// UpdatePreferences shallow-merges the given keys over the stored map.
// Existing keys not mentioned are kept.
func (s *Service) UpdatePreferences(ctx context.Context, id uuid.UUID, prefs map[string]any) (domain.User, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	if u.Preferences == nil {
		u.Preferences = domain.DefaultPreferences()
	}
	for k, v := range prefs {
		u.Preferences[k] = v
	}
	u.UpdatedAt = time.Now().UTC()
	if err := s.store.Update(ctx, u); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
