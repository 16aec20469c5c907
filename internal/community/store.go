package community

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mlawrence427/claritynest-backend/internal/domain"
)

// Store is the persistence port for posts and likes.
type Store interface {
	InsertPost(ctx context.Context, p Post) error
	GetPost(ctx context.Context, postID uuid.UUID) (Post, error)
	// Feed returns approved posts newest first with per-viewer decoration.
	Feed(ctx context.Context, viewerID uuid.UUID, f FeedFilter) ([]FeedItem, int, error)
	DeletePost(ctx context.Context, postID uuid.UUID) error
	UpdatePost(ctx context.Context, p Post) error
	// ToggleLike flips the viewer's like in one atomic unit: the like row and
	// the denormalized counter change together. Returns the new state.
	ToggleLike(ctx context.Context, postID, userID uuid.UUID) (liked bool, likeCount int, err error)
	ListFlagged(ctx context.Context) ([]Post, error)
	Insights(ctx context.Context, since time.Time) (Insights, error)
}

type likeKey struct {
	postID uuid.UUID
	userID uuid.UUID
}

// MemStore is an in-memory Store used by tests.
type MemStore struct {
	mu    sync.Mutex
	posts map[uuid.UUID]Post
	likes map[likeKey]time.Time
}

func NewMemStore() *MemStore {
	return &MemStore{
		posts: make(map[uuid.UUID]Post),
		likes: make(map[likeKey]time.Time),
	}
}

func (m *MemStore) InsertPost(_ context.Context, p Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[p.ID]; ok {
		return domain.ErrConflict
	}
	m.posts[p.ID] = p
	return nil
}

func (m *MemStore) GetPost(_ context.Context, postID uuid.UUID) (Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[postID]
	if !ok {
		return Post{}, domain.ErrNotFound
	}
	return p, nil
}

func (m *MemStore) Feed(_ context.Context, viewerID uuid.UUID, f FeedFilter) ([]FeedItem, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []FeedItem
	for _, p := range m.posts {
		if !p.IsApproved {
			continue
		}
		if f.Category != nil && p.Category != *f.Category {
			continue
		}
		_, liked := m.likes[likeKey{postID: p.ID, userID: viewerID}]
		matched = append(matched, FeedItem{
			Post:     p,
			HasLiked: liked,
			IsOwn:    p.UserID == viewerID,
		})
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if f.Offset >= total {
		return nil, total, nil
	}
	matched = matched[f.Offset:]
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched, total, nil
}

func (m *MemStore) DeletePost(_ context.Context, postID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[postID]; !ok {
		return domain.ErrNotFound
	}
	delete(m.posts, postID)
	for k := range m.likes {
		if k.postID == postID {
			delete(m.likes, k)
		}
	}
	return nil
}

func (m *MemStore) UpdatePost(_ context.Context, p Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[p.ID]; !ok {
		return domain.ErrNotFound
	}
	m.posts[p.ID] = p
	return nil
}

func (m *MemStore) ToggleLike(_ context.Context, postID, userID uuid.UUID) (bool, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.posts[postID]
	if !ok {
		return false, 0, domain.ErrNotFound
	}

	k := likeKey{postID: postID, userID: userID}
	if _, liked := m.likes[k]; liked {
		delete(m.likes, k)
		p.LikeCount--
	} else {
		m.likes[k] = time.Now().UTC()
		p.LikeCount++
	}
	m.posts[postID] = p

	_, nowLiked := m.likes[k]
	return nowLiked, p.LikeCount, nil
}

func (m *MemStore) ListFlagged(_ context.Context) ([]Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Post
	for _, p := range m.posts {
		if p.IsFlagged {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemStore) Insights(_ context.Context, since time.Time) (Insights, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ins Insights
	freq := make(map[Category]int)
	for _, p := range m.posts {
		if !p.IsApproved {
			continue
		}
		freq[p.Category]++
		if !p.CreatedAt.Before(since) {
			ins.PostsToday++
		}
	}
	for _, at := range m.likes {
		if !at.Before(since) {
			ins.LikesToday++
		}
	}
	best := 0
	for c, n := range freq {
		if n > best || (n == best && string(c) < string(ins.TopCategory)) {
			best = n
			ins.TopCategory = c
		}
	}
	return ins, nil
}
