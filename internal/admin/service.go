package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mlawrence427/claritynest-backend/internal/audit"
	"github.com/mlawrence427/claritynest-backend/internal/community"
	"github.com/mlawrence427/claritynest-backend/internal/domain"
)

// Service owns the back-office: dashboard, user administration, moderation.
// Every mutation is audited with the acting admin's ID.
type Service struct {
	store     Store
	community *community.Service
	audit     audit.Recorder
	log       zerolog.Logger
}

func NewService(store Store, comm *community.Service, rec audit.Recorder, log zerolog.Logger) *Service {
	return &Service{store: store, community: comm, audit: rec, log: log}
}

// Dashboard aggregates over a trailing 30-day window.
func (s *Service) Dashboard(ctx context.Context) (Stats, error) {
	since := time.Now().UTC().AddDate(0, 0, -30)
	return s.store.DashboardStats(ctx, since)
}

func (s *Service) ListUsers(ctx context.Context, f UserFilter) ([]domain.User, int, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 25
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.store.ListUsers(ctx, f)
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (domain.User, error) {
	return s.store.GetUser(ctx, id)
}

// UpdateUserInput carries the admin-editable fields. Nil fields are left
// unchanged.
type UpdateUserInput struct {
	Role      *domain.Role
	IsActive  *bool
	IsPremium *bool
}

func (s *Service) UpdateUser(ctx context.Context, actorID, userID uuid.UUID, in UpdateUserInput) (domain.User, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}

	changes := map[string]any{}
	if in.Role != nil {
		switch *in.Role {
		case domain.RoleUser, domain.RolePremium, domain.RoleAdmin:
		default:
			return domain.User{}, fmt.Errorf("%w: invalid role %q", domain.ErrValidation, *in.Role)
		}
		u.Role = *in.Role
		changes["role"] = *in.Role
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
		changes["is_active"] = *in.IsActive
	}
	if in.IsPremium != nil {
		u.IsPremium = *in.IsPremium
		if !*in.IsPremium {
			u.PremiumExpiresAt = nil
		}
		changes["is_premium"] = *in.IsPremium
	}
	u.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateUser(ctx, u); err != nil {
		return domain.User{}, err
	}
	s.record(ctx, actorID, "user.update", "user", &userID, changes)
	return u, nil
}

// DeleteUser removes the user and all owned rows. An admin cannot delete
// their own account.
func (s *Service) DeleteUser(ctx context.Context, actorID, userID uuid.UUID) error {
	if actorID == userID {
		return fmt.Errorf("%w: cannot delete own account", domain.ErrValidation)
	}
	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return err
	}
	s.record(ctx, actorID, "user.delete", "user", &userID, nil)
	return nil
}

func (s *Service) FlaggedPosts(ctx context.Context) ([]community.Post, error) {
	return s.community.ListFlagged(ctx)
}

// ModeratePost resolves a flagged post and audits the decision.
func (s *Service) ModeratePost(ctx context.Context, actorID, postID uuid.UUID, approve bool) (community.Post, error) {
	p, err := s.community.Moderate(ctx, postID, approve)
	if err != nil {
		return community.Post{}, err
	}
	s.record(ctx, actorID, "post.moderate", "post", &postID, map[string]any{"approved": approve})
	return p, nil
}

// record logs audit failures instead of failing the admin action; the action
// itself already committed.
func (s *Service) record(ctx context.Context, actorID uuid.UUID, action, entityType string, entityID *uuid.UUID, metadata map[string]any) {
	err := s.audit.Record(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Metadata:   metadata,
	})
	if err != nil {
		s.log.Error().Err(err).Str("action", action).Msg("audit write failed")
	}
}
