package community

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/mlawrence427/claritynest-backend/internal/domain"
)

const (
	minContentLen = 1
	maxContentLen = 1000
	maxReasonLen  = 200
)

// Service owns the community feed: posts, likes, flags.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

type CreatePostInput struct {
	Content     string
	Category    Category
	IsAnonymous bool
}

// CreatePost validates and stores a post. Posts go live immediately; flags and
// moderation can withdraw them later.
func (s *Service) CreatePost(ctx context.Context, userID uuid.UUID, in CreatePostInput) (Post, error) {
	content := strings.TrimSpace(in.Content)
	if n := utf8.RuneCountInString(content); n < minContentLen || n > maxContentLen {
		return Post{}, fmt.Errorf("%w: content must be %d-%d characters", domain.ErrValidation, minContentLen, maxContentLen)
	}
	category := in.Category
	if category == "" {
		category = CategoryGeneral
	}
	if !category.Valid() {
		return Post{}, fmt.Errorf("%w: invalid category %q", domain.ErrValidation, in.Category)
	}

	now := time.Now().UTC()
	p := Post{
		ID:          uuid.New(),
		UserID:      userID,
		Content:     content,
		Category:    category,
		IsAnonymous: in.IsAnonymous,
		IsApproved:  true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.InsertPost(ctx, p); err != nil {
		return Post{}, err
	}
	return p, nil
}

func (s *Service) Feed(ctx context.Context, viewerID uuid.UUID, f FeedFilter) ([]FeedItem, int, error) {
	if f.Category != nil && !f.Category.Valid() {
		return nil, 0, fmt.Errorf("%w: invalid category %q", domain.ErrValidation, *f.Category)
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.store.Feed(ctx, viewerID, f)
}

// DeletePost removes the caller's own post. Someone else's post is NotFound,
// not a permission error, so post ownership is not probeable.
func (s *Service) DeletePost(ctx context.Context, userID, postID uuid.UUID) error {
	p, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if p.UserID != userID {
		return domain.ErrNotFound
	}
	return s.store.DeletePost(ctx, postID)
}

func (s *Service) ToggleLike(ctx context.Context, userID, postID uuid.UUID) (bool, int, error) {
	return s.store.ToggleLike(ctx, postID, userID)
}

// FlagPost marks a post for the moderation queue. Flagging is idempotent; the
// first reason wins.
func (s *Service) FlagPost(ctx context.Context, postID uuid.UUID, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" || len(reason) > maxReasonLen {
		return fmt.Errorf("%w: flag reason must be 1-%d characters", domain.ErrValidation, maxReasonLen)
	}
	p, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if p.IsFlagged {
		return nil
	}
	p.IsFlagged = true
	p.FlagReason = &reason
	p.UpdatedAt = time.Now().UTC()
	return s.store.UpdatePost(ctx, p)
}

// Moderate resolves a flagged post: approve clears the flag and keeps the post
// visible, remove withdraws approval.
func (s *Service) Moderate(ctx context.Context, postID uuid.UUID, approve bool) (Post, error) {
	p, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return Post{}, err
	}
	p.IsFlagged = false
	p.FlagReason = nil
	p.IsApproved = approve
	p.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdatePost(ctx, p); err != nil {
		return Post{}, err
	}
	return p, nil
}

func (s *Service) ListFlagged(ctx context.Context) ([]Post, error) {
	return s.store.ListFlagged(ctx)
}

// CommunityInsights reports activity since local midnight UTC.
func (s *Service) CommunityInsights(ctx context.Context) (Insights, error) {
	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return s.store.Insights(ctx, midnight)
}
