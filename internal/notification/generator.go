package notification

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/guptaanant682/InfiFeed/internal/bus"
	"github.com/guptaanant682/InfiFeed/internal/user"
)

// postRecencyWindow bounds how old a post event may be and still produce
// notifications; replayed or delayed events past it are ignored.
const postRecencyWindow = 10 * time.Second

const previewLength = 30

// Directory is the slice of the identity store the generator needs.
type Directory interface {
	GetProfile(ctx context.Context, userID string) (user.Profile, error)
	FollowerIDs(ctx context.Context, userID string) ([]string, error)
}

// Generator turns fan-out events into stored notifications. It keeps an
// active-view registry so a message arriving in a conversation the
// receiver currently has open does not grow their badge.
type Generator struct {
	store *Service
	dir   Directory
	bus   *bus.Bus

	mu      sync.Mutex
	active  map[string]string // userID -> conversationID currently open
	watched map[string]func() // userID -> conversation unsubscribe
	unsub   func()
}

func NewGenerator(store *Service, dir Directory, b *bus.Bus) *Generator {
	return &Generator{
		store:   store,
		dir:     dir,
		bus:     b,
		active:  map[string]string{},
		watched: map[string]func(){},
	}
}

// Start subscribes the generator to the post stream. Call Stop to release
// every subscription it holds.
func (g *Generator) Start() {
	g.unsub = g.bus.SubscribePosts(g.onPostEvent)
}

// WatchUser routes one user's conversation events into the generator,
// mirroring the per-session listeners of the UI layer. Idempotent.
func (g *Generator) WatchUser(userID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.watched[userID]; ok {
		return
	}
	g.watched[userID] = g.bus.SubscribeConversations(userID, func(ev bus.ConversationEvent) {
		g.onConversationEvent(userID, ev)
	})
}

// UnwatchUser releases one user's conversation subscription.
func (g *Generator) UnwatchUser(userID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if unsub, ok := g.watched[userID]; ok {
		unsub()
		delete(g.watched, userID)
	}
}

func (g *Generator) Stop() {
	if g.unsub != nil {
		g.unsub()
		g.unsub = nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for id, unsub := range g.watched {
		unsub()
		delete(g.watched, id)
	}
}

func (g *Generator) SetActiveConversation(userID, conversationID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.active[userID] = conversationID
}

func (g *Generator) ClearActiveConversation(userID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.active, userID)
}

func (g *Generator) activeConversation(userID string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active[userID]
}

func (g *Generator) onPostEvent(ev bus.PostEvent) {
	if ev.Topic != bus.TopicPostCreated {
		return
	}
	if time.Since(ev.CreatedAt) > postRecencyWindow {
		return
	}

	ctx := context.Background()
	author, err := g.dir.GetProfile(ctx, ev.AuthorID)
	if err != nil {
		log.Printf("notification generator: author lookup: %v", err)
		return
	}
	followers, err := g.dir.FollowerIDs(ctx, ev.AuthorID)
	if err != nil {
		log.Printf("notification generator: follower lookup: %v", err)
		return
	}

	message := fmt.Sprintf("%s just posted: %q", author.Username, preview(ev.Content))
	for _, followerID := range followers {
		_, err := g.store.Add(ctx, Notification{
			UserID:        followerID,
			Message:       message,
			Type:          TypePost,
			RelatedPostID: ev.PostID,
			PostURL:       "/posts/" + ev.PostID,
		})
		if err != nil {
			log.Printf("notification generator: store post notification: %v", err)
		}
	}
}

func (g *Generator) onConversationEvent(viewerID string, ev bus.ConversationEvent) {
	if !ev.HasMessage || ev.SenderID == viewerID {
		return
	}
	// Suppress while the viewer has this exact conversation open.
	if g.activeConversation(viewerID) == ev.ConversationID {
		return
	}

	ctx := context.Background()
	senderName := "Someone"
	if sender, err := g.dir.GetProfile(ctx, ev.SenderID); err == nil {
		senderName = sender.Username
	}

	_, err := g.store.Add(ctx, Notification{
		UserID:                viewerID,
		Message:               "New message from " + senderName,
		Type:                  TypeMessage,
		RelatedConversationID: ev.ConversationID,
	})
	if err != nil {
		log.Printf("notification generator: store message notification: %v", err)
	}
}

func preview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewLength {
		return content
	}
	return string(runes[:previewLength]) + "..."
}
