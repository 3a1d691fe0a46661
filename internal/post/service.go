package post

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/guptaanant682/InfiFeed/internal/bus"
	"github.com/guptaanant682/InfiFeed/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	defaultPostLimit    = 20
	defaultCommentLimit = 10
	maxLimit            = 50
	commentPreviewCount = 2
)

var (
	ErrNotFound     = errors.New("post not found")
	ErrEmptyContent = errors.New("content required")
)

type Service struct {
	db  db.Querier
	bus *bus.Bus
}

func NewService(querier db.Querier, b *bus.Bus) *Service {
	return &Service{db: querier, bus: b}
}

// Query narrows GetPosts: zero or more author ids, an optional category
// ("" or "all" means no filter) and an opaque cursor.
type Query struct {
	AuthorIDs []string
	Category  string
	Cursor    string
	Limit     int
}

func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func (s *Service) CreatePost(ctx context.Context, authorID, content string, mediaURLs []string, category string) (Post, error) {
	if strings.TrimSpace(content) == "" {
		return Post{}, ErrEmptyContent
	}
	if category == "" {
		category = CategoryGeneral
	}
	if !ValidCategory(category) {
		return Post{}, fmt.Errorf("unknown category %q", category)
	}

	p := Post{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		Content:   content,
		MediaURLs: mediaURLs,
		Category:  category,
	}

	// Author display fields are frozen onto the post at write time.
	row := s.db.QueryRow(ctx, `
		SELECT username, avatar_url FROM users WHERE id=$1
	`, authorID)
	if err := row.Scan(&p.AuthorUsername, &p.AuthorAvatarURL); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Post{}, errors.New("author not found")
		}
		return Post{}, err
	}

	row = s.db.QueryRow(ctx, `
		INSERT INTO posts (id, author_id, author_username, author_avatar_url, content, media_urls, category)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at
	`, p.ID, p.AuthorID, p.AuthorUsername, p.AuthorAvatarURL, p.Content, p.MediaURLs, p.Category)
	if err := row.Scan(&p.CreatedAt); err != nil {
		return Post{}, err
	}

	if s.bus != nil {
		s.bus.PublishPost(bus.PostEvent{
			Topic:     bus.TopicPostCreated,
			PostID:    p.ID,
			AuthorID:  p.AuthorID,
			Category:  p.Category,
			Content:   p.Content,
			CreatedAt: p.CreatedAt,
		})
	}
	return p, nil
}

const postColumns = `
	id, author_id, author_username, author_avatar_url, content, media_urls,
	category, likes_count, shares_count, comments_count, created_at
`

// GetPosts pages with a keyset over (created_at DESC, id DESC); timestamps
// may collide, so the id is the tie-break. One extra row is fetched to
// decide has_more without a count query.
func (s *Service) GetPosts(ctx context.Context, q Query) (Page, error) {
	limit := clampLimit(q.Limit, defaultPostLimit)

	sql := `SELECT ` + postColumns + ` FROM posts`
	var args []any
	var conds []string

	if len(q.AuthorIDs) > 0 {
		args = append(args, q.AuthorIDs)
		conds = append(conds, fmt.Sprintf("author_id = ANY($%d)", len(args)))
	}
	if q.Category != "" && q.Category != "all" {
		args = append(args, q.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if q.Cursor != "" {
		ts, id, err := DecodeCursor(q.Cursor)
		if err != nil {
			return Page{}, err
		}
		args = append(args, ts, id)
		n := len(args)
		conds = append(conds, fmt.Sprintf("(created_at < $%d OR (created_at = $%d AND id < $%d))", n-1, n-1, n))
	}

	if len(conds) > 0 {
		sql += " WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, limit+1)
	sql += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args))

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return Page{}, err
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.AuthorID, &p.AuthorUsername, &p.AuthorAvatarURL, &p.Content, &p.MediaURLs,
			&p.Category, &p.LikeCount, &p.ShareCount, &p.CommentCount, &p.CreatedAt); err != nil {
			return Page{}, err
		}
		posts = append(posts, p)
	}

	page := Page{Posts: posts}
	if len(posts) > limit {
		page.HasMore = true
		page.Posts = posts[:limit]
		last := page.Posts[limit-1]
		cursor := EncodeCursor(last.CreatedAt, last.ID)
		page.NextCursor = &cursor
	}
	return page, nil
}

func (s *Service) GetPost(ctx context.Context, postID string) (Post, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+postColumns+` FROM posts WHERE id=$1
	`, postID)
	var p Post
	if err := row.Scan(&p.ID, &p.AuthorID, &p.AuthorUsername, &p.AuthorAvatarURL, &p.Content, &p.MediaURLs,
		&p.Category, &p.LikeCount, &p.ShareCount, &p.CommentCount, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Post{}, ErrNotFound
		}
		return Post{}, err
	}

	preview, err := s.LatestComments(ctx, postID, commentPreviewCount)
	if err != nil {
		return Post{}, err
	}
	p.LatestComments = preview
	return p, nil
}

// Like inserts the like and bumps the counter in one transaction; the
// conditional insert makes a repeated like a no-op, so retried requests
// never double-count.
func (s *Service) Like(ctx context.Context, userID, postID string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO likes (user_id, post_id)
		VALUES ($1,$2)
		ON CONFLICT (user_id, post_id) DO NOTHING
	`, userID, postID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		updated, err := tx.Exec(ctx, `
			UPDATE posts SET likes_count = likes_count + 1 WHERE id=$1
		`, postID)
		if err != nil {
			return err
		}
		if updated.RowsAffected() == 0 {
			return ErrNotFound
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.publishUpdated(ctx, postID)
	return nil
}

func (s *Service) Unlike(ctx context.Context, userID, postID string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		DELETE FROM likes WHERE user_id=$1 AND post_id=$2
	`, userID, postID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		// floor at zero even if counters ever drift
		if _, err := tx.Exec(ctx, `
			UPDATE posts SET likes_count = GREATEST(0, likes_count - 1) WHERE id=$1
		`, postID); err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.publishUpdated(ctx, postID)
	return nil
}

func (s *Service) HasLiked(ctx context.Context, userID, postID string) (bool, error) {
	var ok bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM likes WHERE user_id=$1 AND post_id=$2)
	`, userID, postID).Scan(&ok)
	return ok, err
}

func (s *Service) Share(ctx context.Context, postID string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE posts SET shares_count = shares_count + 1 WHERE id=$1
	`, postID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	s.publishUpdated(ctx, postID)
	return nil
}

// AddComment pairs the comment insert with the counter bump so
// comments_count can never diverge from the comment rows.
func (s *Service) AddComment(ctx context.Context, postID, authorID, content string) (Comment, error) {
	if strings.TrimSpace(content) == "" {
		return Comment{}, ErrEmptyContent
	}

	c := Comment{
		ID:       uuid.NewString(),
		PostID:   postID,
		AuthorID: authorID,
		Content:  content,
	}

	row := s.db.QueryRow(ctx, `
		SELECT username, avatar_url FROM users WHERE id=$1
	`, authorID)
	if err := row.Scan(&c.AuthorUsername, &c.AuthorAvatarURL); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Comment{}, errors.New("author not found")
		}
		return Comment{}, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Comment{}, err
	}
	defer tx.Rollback(ctx)

	row = tx.QueryRow(ctx, `
		INSERT INTO comments (id, post_id, author_id, author_username, author_avatar_url, content)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at
	`, c.ID, c.PostID, c.AuthorID, c.AuthorUsername, c.AuthorAvatarURL, c.Content)
	if err := row.Scan(&c.CreatedAt); err != nil {
		return Comment{}, err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE posts SET comments_count = comments_count + 1 WHERE id=$1
	`, postID)
	if err != nil {
		return Comment{}, err
	}
	if tag.RowsAffected() == 0 {
		return Comment{}, ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return Comment{}, err
	}

	s.publishUpdated(ctx, postID)
	return c, nil
}

// Comments pages newest-first with the same keyset technique as posts.
func (s *Service) Comments(ctx context.Context, postID, cursor string, limit int) (CommentPage, error) {
	limit = clampLimit(limit, defaultCommentLimit)

	sql := `
		SELECT id, post_id, author_id, author_username, author_avatar_url, content, created_at
		FROM comments WHERE post_id=$1
	`
	args := []any{postID}
	if cursor != "" {
		ts, id, err := DecodeCursor(cursor)
		if err != nil {
			return CommentPage{}, err
		}
		args = append(args, ts, id)
		n := len(args)
		sql += fmt.Sprintf(" AND (created_at < $%d OR (created_at = $%d AND id < $%d))", n-1, n-1, n)
	}
	args = append(args, limit+1)
	sql += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args))

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return CommentPage{}, err
	}
	defer rows.Close()

	comments, err := scanComments(rows)
	if err != nil {
		return CommentPage{}, err
	}

	page := CommentPage{Comments: comments}
	if len(comments) > limit {
		page.HasMore = true
		page.Comments = comments[:limit]
		last := page.Comments[limit-1]
		cursor := EncodeCursor(last.CreatedAt, last.ID)
		page.NextCursor = &cursor
	}
	return page, nil
}

// LatestComments is the bounded preview shown on a post card: the most
// recent n comments, returned in chronological order.
func (s *Service) LatestComments(ctx context.Context, postID string, n int) ([]Comment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, post_id, author_id, author_username, author_avatar_url, content, created_at
		FROM comments WHERE post_id=$1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, postID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments, err := scanComments(rows)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(comments)-1; i < j; i, j = i+1, j-1 {
		comments[i], comments[j] = comments[j], comments[i]
	}
	return comments, nil
}

func (s *Service) publishUpdated(ctx context.Context, postID string) {
	if s.bus == nil {
		return
	}
	var authorID, category string
	var createdAt time.Time
	err := s.db.QueryRow(ctx, `
		SELECT author_id, category, created_at FROM posts WHERE id=$1
	`, postID).Scan(&authorID, &category, &createdAt)
	if err != nil {
		return
	}
	s.bus.PublishPost(bus.PostEvent{
		Topic:     bus.TopicPostUpdated,
		PostID:    postID,
		AuthorID:  authorID,
		Category:  category,
		CreatedAt: createdAt,
	})
}

func scanComments(rows pgx.Rows) ([]Comment, error) {
	var comments []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.AuthorUsername, &c.AuthorAvatarURL, &c.Content, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, nil
}
