package community

import (
	"time"

	"github.com/google/uuid"
)

// Category classifies a post in the shared feed.
type Category string

const (
	CategoryWin       Category = "win"
	CategoryMilestone Category = "milestone"
	CategoryTip       Category = "tip"
	CategoryQuestion  Category = "question"
	CategoryGeneral   Category = "general"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryWin, CategoryMilestone, CategoryTip, CategoryQuestion, CategoryGeneral:
		return true
	}
	return false
}

// Post is one community post. Posts are auto-approved on creation; moderation
// only withdraws approval after a flag.
type Post struct {
	ID          uuid.UUID `db:"id" json:"id"`
	UserID      uuid.UUID `db:"user_id" json:"-"`
	Content     string    `db:"content" json:"content"`
	Category    Category  `db:"category" json:"category"`
	IsAnonymous bool      `db:"is_anonymous" json:"is_anonymous"`
	IsApproved  bool      `db:"is_approved" json:"is_approved"`
	IsFlagged   bool      `db:"is_flagged" json:"is_flagged"`
	FlagReason  *string   `db:"flag_reason" json:"-"`
	LikeCount   int       `db:"like_count" json:"like_count"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// FeedItem decorates a post for a particular viewer.
type FeedItem struct {
	Post
	HasLiked bool `json:"has_liked"`
	IsOwn    bool `json:"is_own"`
}

// FeedFilter narrows the feed. Zero-value fields are ignored.
type FeedFilter struct {
	Category *Category
	Limit    int
	Offset   int
}

// Insights is the community activity summary.
type Insights struct {
	PostsToday  int      `json:"posts_today"`
	LikesToday  int      `json:"likes_today"`
	TopCategory Category `json:"top_category"`
}
