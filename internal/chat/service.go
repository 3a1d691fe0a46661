package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/guptaanant682/InfiFeed/internal/bus"
	"github.com/guptaanant682/InfiFeed/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrSelfConversation = errors.New("cannot start a conversation with yourself")
	ErrEmptyText        = errors.New("message text required")
	ErrNotFound         = errors.New("conversation not found")
	ErrNotParticipant   = errors.New("user is not a participant")
)

type Service struct {
	db  db.Querier
	bus *bus.Bus
}

func NewService(querier db.Querier, b *bus.Bus) *Service {
	return &Service{db: querier, bus: b}
}

// ConversationID is deterministic for an unordered pair, so the
// conversation between two users is a singleton.
func ConversationID(userA, userB string) string {
	if userB < userA {
		userA, userB = userB, userA
	}
	return userA + "_" + userB
}

func (s *Service) GetOrCreateConversation(ctx context.Context, userA, userB string) (Conversation, error) {
	if userA == userB {
		return Conversation{}, ErrSelfConversation
	}
	if userB < userA {
		userA, userB = userB, userA
	}
	id := ConversationID(userA, userB)

	// Idempotent create; rows keep participants sorted.
	if _, err := s.db.Exec(ctx, `
		INSERT INTO conversations (id, participant_a, participant_b)
		VALUES ($1,$2,$3)
		ON CONFLICT (id) DO NOTHING
	`, id, userA, userB); err != nil {
		return Conversation{}, err
	}

	return s.getConversation(ctx, id)
}

const conversationColumns = `
	id, participant_a, participant_b, unread_a, unread_b,
	last_message_id, last_sender_id, last_text, last_sent_at, created_at
`

func (s *Service) getConversation(ctx context.Context, id string) (Conversation, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations WHERE id=$1
	`, id)
	conv, err := scanConversation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Conversation{}, ErrNotFound
		}
		return Conversation{}, err
	}
	return conv, nil
}

// SendMessage appends to the conversation log and updates the denormalized
// last message plus both unread counters in one transaction.
func (s *Service) SendMessage(ctx context.Context, senderID, receiverID, text string) (Message, error) {
	if strings.TrimSpace(text) == "" {
		return Message{}, ErrEmptyText
	}

	conv, err := s.GetOrCreateConversation(ctx, senderID, receiverID)
	if err != nil {
		return Message{}, err
	}

	m := Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Text:           text,
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Message{}, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		INSERT INTO messages (id, conversation_id, sender_id, receiver_id, text)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, m.ID, m.ConversationID, m.SenderID, m.ReceiverID, m.Text)
	if err := row.Scan(&m.CreatedAt); err != nil {
		return Message{}, err
	}

	// Receiver's unread goes up, sender's resets: they just saw the thread.
	if _, err := tx.Exec(ctx, `
		UPDATE conversations
		SET last_message_id=$2, last_sender_id=$3, last_text=$4, last_sent_at=$5,
		    unread_a = CASE WHEN participant_a=$6 THEN unread_a + 1 ELSE 0 END,
		    unread_b = CASE WHEN participant_b=$6 THEN unread_b + 1 ELSE 0 END
		WHERE id=$1
	`, m.ConversationID, m.ID, m.SenderID, m.Text, m.CreatedAt, receiverID); err != nil {
		return Message{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Message{}, err
	}

	if s.bus != nil {
		s.bus.PublishConversation(bus.ConversationEvent{
			Topic:          bus.TopicConversationUpdated,
			ConversationID: m.ConversationID,
			HasMessage:     true,
			MessageID:      m.ID,
			SenderID:       m.SenderID,
			ReceiverID:     m.ReceiverID,
			Text:           m.Text,
			SentAt:         m.CreatedAt,
		}, senderID, receiverID)
	}
	return m, nil
}

// MarkConversationAsRead zeroes only the given user's counter and publishes
// an update with no message payload, so consumers refresh badges without
// treating it as a new message.
func (s *Service) MarkConversationAsRead(ctx context.Context, conversationID, userID string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE conversations
		SET unread_a = CASE WHEN participant_a=$2 THEN 0 ELSE unread_a END,
		    unread_b = CASE WHEN participant_b=$2 THEN 0 ELSE unread_b END
		WHERE id=$1 AND (participant_a=$2 OR participant_b=$2)
	`, conversationID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if s.bus != nil {
		s.bus.PublishConversation(bus.ConversationEvent{
			Topic:          bus.TopicConversationUpdated,
			ConversationID: conversationID,
			HasMessage:     false,
		}, userID)
	}
	return nil
}

func (s *Service) ConversationsForUser(ctx context.Context, userID string) ([]Conversation, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations
		WHERE participant_a=$1 OR participant_b=$1
		ORDER BY last_sent_at DESC NULLS LAST, created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		convs = append(convs, conv)
	}
	return convs, nil
}

func (s *Service) MessagesForConversation(ctx context.Context, conversationID, userID string) ([]Message, error) {
	conv, err := s.getConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.ParticipantIDs[0] != userID && conv.ParticipantIDs[1] != userID {
		return nil, ErrNotParticipant
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, conversation_id, sender_id, receiver_id, text, read, created_at
		FROM messages
		WHERE conversation_id=$1
		ORDER BY created_at, id
	`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.ReceiverID, &m.Text, &m.Read, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

func scanConversation(row pgx.Row) (Conversation, error) {
	var conv Conversation
	var pa, pb string
	var unreadA, unreadB int
	var lastID, lastSender, lastText *string
	var lastSentAt *time.Time

	if err := row.Scan(&conv.ID, &pa, &pb, &unreadA, &unreadB,
		&lastID, &lastSender, &lastText, &lastSentAt, &conv.CreatedAt); err != nil {
		return Conversation{}, err
	}

	conv.ParticipantIDs = []string{pa, pb}
	conv.UnreadCounts = map[string]int{pa: unreadA, pb: unreadB}
	if lastID != nil {
		receiver := pa
		if *lastSender == pa {
			receiver = pb
		}
		conv.LastMessage = &Message{
			ID:             *lastID,
			ConversationID: conv.ID,
			SenderID:       *lastSender,
			ReceiverID:     receiver,
			Text:           *lastText,
			CreatedAt:      *lastSentAt,
		}
	}
	return conv, nil
}
