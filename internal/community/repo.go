package community

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mlawrence427/claritynest-backend/internal/domain"
	"github.com/mlawrence427/claritynest-backend/internal/pgerr"
)

// PGStore implements Store on Postgres. Likes live in post_likes with a
// UNIQUE (post_id, user_id) constraint; the denormalized like_count on posts
// is only ever changed in the same transaction as the like row.
type PGStore struct {
	Pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{Pool: pool}
}

const postColumns = `id, user_id, content, category, is_anonymous, is_approved, is_flagged, flag_reason, like_count, created_at, updated_at`

func scanPost(row pgx.Row) (Post, error) {
	var p Post
	err := row.Scan(&p.ID, &p.UserID, &p.Content, &p.Category, &p.IsAnonymous,
		&p.IsApproved, &p.IsFlagged, &p.FlagReason, &p.LikeCount,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Post{}, pgerr.Wrap(err)
	}
	return p, nil
}

func (s *PGStore) InsertPost(ctx context.Context, p Post) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO posts (id, user_id, content, category, is_anonymous, is_approved, is_flagged, flag_reason, like_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.UserID, p.Content, p.Category, p.IsAnonymous, p.IsApproved,
		p.IsFlagged, p.FlagReason, p.LikeCount, p.CreatedAt, p.UpdatedAt)
	return pgerr.Wrap(err)
}

func (s *PGStore) GetPost(ctx context.Context, postID uuid.UUID) (Post, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, postID)
	return scanPost(row)
}

func (s *PGStore) Feed(ctx context.Context, viewerID uuid.UUID, f FeedFilter) ([]FeedItem, int, error) {
	var where strings.Builder
	where.WriteString(`WHERE p.is_approved = TRUE`)
	args := []any{viewerID}

	if f.Category != nil {
		args = append(args, *f.Category)
		fmt.Fprintf(&where, ` AND p.category = $%d`, len(args))
	}

	var total int
	countQ := `SELECT COUNT(*) FROM posts p ` + where.String()
	if err := s.Pool.QueryRow(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, pgerr.Wrap(err)
	}

	args = append(args, f.Limit, f.Offset)
	q := fmt.Sprintf(`
		SELECT %s,
			EXISTS (SELECT 1 FROM post_likes pl WHERE pl.post_id = p.id AND pl.user_id = $1) AS has_liked,
			p.user_id = $1 AS is_own
		FROM posts p
		%s
		ORDER BY p.created_at DESC
		LIMIT $%d OFFSET $%d`,
		prefixed(postColumns, "p."), where.String(), len(args)-1, len(args))

	rows, err := s.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, pgerr.Wrap(err)
	}
	defer rows.Close()

	var out []FeedItem
	for rows.Next() {
		var it FeedItem
		err := rows.Scan(&it.ID, &it.UserID, &it.Content, &it.Category,
			&it.IsAnonymous, &it.IsApproved, &it.IsFlagged, &it.FlagReason,
			&it.LikeCount, &it.CreatedAt, &it.UpdatedAt, &it.HasLiked, &it.IsOwn)
		if err != nil {
			return nil, 0, pgerr.Wrap(err)
		}
		out = append(out, it)
	}
	return out, total, pgerr.Wrap(rows.Err())
}

func (s *PGStore) DeletePost(ctx context.Context, postID uuid.UUID) error {
	// post_likes cascade via FK
	ct, err := s.Pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, postID)
	if err != nil {
		return pgerr.Wrap(err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *PGStore) UpdatePost(ctx context.Context, p Post) error {
	ct, err := s.Pool.Exec(ctx, `
		UPDATE posts
		SET content = $2, category = $3, is_anonymous = $4, is_approved = $5, is_flagged = $6, flag_reason = $7, updated_at = $8
		WHERE id = $1`,
		p.ID, p.Content, p.Category, p.IsAnonymous, p.IsApproved, p.IsFlagged, p.FlagReason, p.UpdatedAt)
	if err != nil {
		return pgerr.Wrap(err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *PGStore) ToggleLike(ctx context.Context, postID, userID uuid.UUID) (bool, int, error) {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, 0, pgerr.Wrap(err)
	}
	defer tx.Rollback(ctx)

	// Lock the post row so concurrent toggles serialize and the counter
	// cannot drift from the like rows.
	var count int
	err = tx.QueryRow(ctx, `SELECT like_count FROM posts WHERE id = $1 FOR UPDATE`, postID).Scan(&count)
	if err != nil {
		return false, 0, pgerr.Wrap(err)
	}

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM post_likes WHERE post_id = $1 AND user_id = $2)`,
		postID, userID).Scan(&exists)
	if err != nil {
		return false, 0, pgerr.Wrap(err)
	}

	liked := !exists
	if exists {
		if _, err := tx.Exec(ctx,
			`DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`, postID, userID); err != nil {
			return false, 0, pgerr.Wrap(err)
		}
		count--
	} else {
		if _, err := tx.Exec(ctx,
			`INSERT INTO post_likes (post_id, user_id, created_at) VALUES ($1, $2, NOW())`,
			postID, userID); err != nil {
			return false, 0, pgerr.Wrap(err)
		}
		count++
	}

	if _, err := tx.Exec(ctx,
		`UPDATE posts SET like_count = $2, updated_at = NOW() WHERE id = $1`, postID, count); err != nil {
		return false, 0, pgerr.Wrap(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, 0, pgerr.Wrap(err)
	}
	return liked, count, nil
}

func (s *PGStore) ListFlagged(ctx context.Context) ([]Post, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT `+postColumns+` FROM posts WHERE is_flagged = TRUE ORDER BY created_at ASC`)
	if err != nil {
		return nil, pgerr.Wrap(err)
	}
	defer rows.Close()

	var out []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, pgerr.Wrap(rows.Err())
}

func (s *PGStore) Insights(ctx context.Context, since time.Time) (Insights, error) {
	var ins Insights
	err := s.Pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM posts WHERE is_approved = TRUE AND created_at >= $1),
			(SELECT COUNT(*) FROM post_likes WHERE created_at >= $1),
			COALESCE((SELECT category FROM posts WHERE is_approved = TRUE
				GROUP BY category ORDER BY COUNT(*) DESC, category ASC LIMIT 1), '')`,
		since).Scan(&ins.PostsToday, &ins.LikesToday, &ins.TopCategory)
	if err != nil {
		return Insights{}, pgerr.Wrap(err)
	}
	return ins, nil
}

// prefixed rewrites a comma-separated column list with a table alias.
func prefixed(columns, prefix string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = prefix + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
