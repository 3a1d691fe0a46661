package bus

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	TopicPostCreated         = "post.created"
	TopicPostUpdated         = "post.updated"
	TopicConversationUpdated = "conversation.updated"
)

// PostEvent is broadcast to every post subscriber; consumers self-filter
// by author and follow relationship.
type PostEvent struct {
	Topic     string    `json:"topic"`
	PostID    string    `json:"post_id"`
	AuthorID  string    `json:"author_id"`
	Category  string    `json:"category"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ConversationEvent is delivered only to the listeners of its participants.
// HasMessage distinguishes a new message from a badge-only refresh
// (mark-as-read publishes with HasMessage false).
type ConversationEvent struct {
	Topic          string    `json:"topic"`
	ConversationID string    `json:"conversation_id"`
	HasMessage     bool      `json:"has_message"`
	MessageID      string    `json:"message_id,omitempty"`
	SenderID       string    `json:"sender_id,omitempty"`
	ReceiverID     string    `json:"receiver_id,omitempty"`
	Text           string    `json:"text,omitempty"`
	SentAt         time.Time `json:"sent_at,omitempty"`
}

type PostListener func(PostEvent)

type ConversationListener func(ConversationEvent)

type postSub struct {
	id string
	fn PostListener
}

type convSub struct {
	id string
	fn ConversationListener
}

// Bus fans out domain events to in-process listeners. Dispatch is
// synchronous on the publishing goroutine, in registration order, at most
// once; nothing is persisted and late subscribers see no replay. When a
// redis client is present, events are mirrored over pub/sub so other
// instances can forward them to their own listeners.
type Bus struct {
	origin   string
	redis    *redis.Client
	mu       sync.RWMutex
	postSubs []postSub
	convSubs map[string][]convSub
}

const (
	postChannel = "infifeed:posts:events"
	convChannel = "infifeed:conversations:events"
)

type envelope struct {
	Origin     string          `json:"origin"`
	Recipients []string        `json:"recipients,omitempty"`
	Payload    json.RawMessage `json:"payload"`
}

func NewBus(redisClient *redis.Client) *Bus {
	b := &Bus{
		origin:   uuid.NewString(),
		redis:    redisClient,
		convSubs: map[string][]convSub{},
	}

	if redisClient != nil {
		go b.subscribeRedis()
	}
	return b
}

// SubscribePosts registers a global post listener and returns its
// unsubscribe function. Callers must invoke it when the consumer goes away
// or the listener leaks.
func (b *Bus) SubscribePosts(fn PostListener) func() {
	sub := postSub{id: uuid.NewString(), fn: fn}

	b.mu.Lock()
	b.postSubs = append(b.postSubs, sub)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.postSubs {
			if s.id == sub.id {
				b.postSubs = append(b.postSubs[:i], b.postSubs[i+1:]...)
				return
			}
		}
	}
}

// SubscribeConversations registers a listener scoped to one user's
// conversations.
func (b *Bus) SubscribeConversations(userID string, fn ConversationListener) func() {
	sub := convSub{id: uuid.NewString(), fn: fn}

	b.mu.Lock()
	b.convSubs[userID] = append(b.convSubs[userID], sub)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.convSubs[userID]
		for i, s := range subs {
			if s.id == sub.id {
				b.convSubs[userID] = append(subs[:i], subs[i+1:]...)
				if len(b.convSubs[userID]) == 0 {
					delete(b.convSubs, userID)
				}
				return
			}
		}
	}
}

func (b *Bus) PublishPost(ev PostEvent) {
	b.mu.RLock()
	subs := make([]postSub, len(b.postSubs))
	copy(subs, b.postSubs)
	b.mu.RUnlock()

	for _, s := range subs {
		dispatchPost(s.fn, ev)
	}

	b.mirror(postChannel, nil, ev)
}

// PublishConversation delivers the event to every listener of the given
// participants.
func (b *Bus) PublishConversation(ev ConversationEvent, participantIDs ...string) {
	b.dispatchConversation(ev, participantIDs)
	b.mirror(convChannel, participantIDs, ev)
}

func (b *Bus) dispatchConversation(ev ConversationEvent, participantIDs []string) {
	b.mu.RLock()
	var subs []convSub
	for _, id := range participantIDs {
		subs = append(subs, b.convSubs[id]...)
	}
	b.mu.RUnlock()

	for _, s := range subs {
		dispatchConv(s.fn, ev)
	}
}

// A panicking listener must not abort delivery to its siblings.
func dispatchPost(fn PostListener, ev PostEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("post listener panic: %v", r)
		}
	}()
	fn(ev)
}

func dispatchConv(fn ConversationListener, ev ConversationEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("conversation listener panic: %v", r)
		}
	}()
	fn(ev)
}

func (b *Bus) mirror(channel string, recipients []string, payload any) {
	if b.redis == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	data, err := json.Marshal(envelope{Origin: b.origin, Recipients: recipients, Payload: raw})
	if err != nil {
		return
	}
	if err := b.redis.Publish(context.Background(), channel, data).Err(); err != nil {
		log.Printf("redis publish error: %v", err)
	}
}

func (b *Bus) subscribeRedis() {
	ctx := context.Background()
	pubsub := b.redis.Subscribe(ctx, postChannel, convChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var env envelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			continue
		}
		if env.Origin == b.origin {
			continue // already delivered locally
		}

		switch msg.Channel {
		case postChannel:
			var ev PostEvent
			if err := json.Unmarshal(env.Payload, &ev); err != nil {
				continue
			}
			b.mu.RLock()
			subs := make([]postSub, len(b.postSubs))
			copy(subs, b.postSubs)
			b.mu.RUnlock()
			for _, s := range subs {
				dispatchPost(s.fn, ev)
			}
		case convChannel:
			var ev ConversationEvent
			if err := json.Unmarshal(env.Payload, &ev); err != nil {
				continue
			}
			b.dispatchConversation(ev, env.Recipients)
		}
	}
}
