package notification

import "time"

const (
	TypePost    = "post"
	TypeMessage = "message"
	TypeSystem  = "system"
)

type Notification struct {
	ID                    string    `json:"id"`
	UserID                string    `json:"user_id"`
	Message               string    `json:"message"`
	Type                  string    `json:"type"`
	Read                  bool      `json:"read"`
	RelatedPostID         string    `json:"related_post_id,omitempty"`
	PostURL               string    `json:"post_url,omitempty"`
	RelatedConversationID string    `json:"related_conversation_id,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
}
