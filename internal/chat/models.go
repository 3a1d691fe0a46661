package chat

import "time"

type Conversation struct {
	ID             string         `json:"id"`
	ParticipantIDs []string       `json:"participant_ids"`
	LastMessage    *Message       `json:"last_message,omitempty"`
	UnreadCounts   map[string]int `json:"unread_counts"`
	CreatedAt      time.Time      `json:"created_at"`
}

type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	ReceiverID     string    `json:"receiver_id"`
	Text           string    `json:"text"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"created_at"`
}

type SendRequest struct {
	ReceiverID string `json:"receiver_id"`
	Text       string `json:"text"`
}
