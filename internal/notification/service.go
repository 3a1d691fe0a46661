package notification

import (
	"context"
	"errors"

	"github.com/guptaanant682/InfiFeed/internal/db"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("notification not found")

type Service struct {
	db db.Querier
}

func NewService(querier db.Querier) *Service {
	return &Service{db: querier}
}

func (s *Service) Add(ctx context.Context, n Notification) (Notification, error) {
	n.ID = uuid.NewString()
	if n.Type == "" {
		n.Type = TypeSystem
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO notifications (id, user_id, message, type, related_post_id, post_url, related_conversation_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at
	`, n.ID, n.UserID, n.Message, n.Type, n.RelatedPostID, n.PostURL, n.RelatedConversationID)
	if err := row.Scan(&n.CreatedAt); err != nil {
		return Notification{}, err
	}
	return n, nil
}

func (s *Service) ListForUser(ctx context.Context, userID string) ([]Notification, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, message, type, read,
		       COALESCE(related_post_id,''), COALESCE(post_url,''), COALESCE(related_conversation_id,''),
		       created_at
		FROM notifications
		WHERE user_id=$1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.Type, &n.Read,
			&n.RelatedPostID, &n.PostURL, &n.RelatedConversationID, &n.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, nil
}

func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE notifications SET read = TRUE WHERE id=$1 AND user_id=$2
	`, notificationID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE notifications SET read = TRUE WHERE user_id=$1 AND read = FALSE
	`, userID)
	return err
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications WHERE user_id=$1 AND read = FALSE
	`, userID).Scan(&count)
	return count, err
}
