package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/guptaanant682/InfiFeed/internal/bus"
	"github.com/guptaanant682/InfiFeed/internal/post"
	"github.com/guptaanant682/InfiFeed/internal/user"

	"github.com/redis/go-redis/v9"
)

const (
	defaultLimit = 20
	maxLimit     = 50
)

// clampLimit mirrors the post store's clamp so cache keys line up with the
// pages actually served, and with the keys the invalidation hook deletes.
func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

// Service assembles timelines on top of the post store. Reads go through a
// short-TTL Redis cache; the cache is a pure optimization and any cache
// failure falls through to Postgres.
type Service struct {
	posts *post.Service
	users *user.Service
	redis *redis.Client
	ttl   time.Duration
	unsub func()
}

func NewService(posts *post.Service, users *user.Service, redisClient *redis.Client, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &Service{
		posts: posts,
		users: users,
		redis: redisClient,
		ttl:   ttl,
	}
}

// Start registers the write-path invalidation: a new post evicts the
// author's and the general feed's first-page entries. Pages already cached
// under other keys age out within the TTL, an accepted staleness window.
func (s *Service) Start(b *bus.Bus) {
	s.unsub = b.SubscribePosts(func(ev bus.PostEvent) {
		if ev.Topic != bus.TopicPostCreated {
			return
		}
		s.invalidate(
			generalKey("", defaultLimit, ""),
			authorKey(ev.AuthorID, "", defaultLimit, ""),
		)
	})
}

func (s *Service) Stop() {
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
}

func generalKey(cursor string, limit int, category string) string {
	return fmt.Sprintf("feed:general:%s:%d:%s", cursor, limit, category)
}

func authorKey(userID, cursor string, limit int, category string) string {
	return fmt.Sprintf("feed:user:%s:%s:%d:%s", userID, cursor, limit, category)
}

func followingKey(viewerID, cursor string, limit int, category string) string {
	return fmt.Sprintf("feed:following:%s:%s:%d:%s", viewerID, cursor, limit, category)
}

// Posts serves the public listing: everything, or one author's posts when
// filterUserID is set.
func (s *Service) Posts(ctx context.Context, filterUserID, category, cursor string, limit int) (post.Page, error) {
	limit = clampLimit(limit)
	key := generalKey(cursor, limit, category)
	if filterUserID != "" {
		key = authorKey(filterUserID, cursor, limit, category)
	}
	if page, ok := s.cacheGet(ctx, key); ok {
		return page, nil
	}

	q := post.Query{Category: category, Cursor: cursor, Limit: limit}
	if filterUserID != "" {
		q.AuthorIDs = []string{filterUserID}
	}
	page, err := s.posts.GetPosts(ctx, q)
	if err != nil {
		return post.Page{}, err
	}

	s.cacheSet(ctx, key, page)
	return page, nil
}

// FeedForUser is the personalized timeline: the viewer's follow set plus
// the category facet. An empty follow set short-circuits to an empty page
// without touching storage.
func (s *Service) FeedForUser(ctx context.Context, viewerID, category, cursor string, limit int) (post.Page, error) {
	limit = clampLimit(limit)
	following, err := s.users.FollowingIDs(ctx, viewerID)
	if err != nil {
		return post.Page{}, err
	}
	if len(following) == 0 {
		return post.Page{}, nil
	}

	key := followingKey(viewerID, cursor, limit, category)
	if page, ok := s.cacheGet(ctx, key); ok {
		return page, nil
	}

	page, err := s.posts.GetPosts(ctx, post.Query{
		AuthorIDs: following,
		Category:  category,
		Cursor:    cursor,
		Limit:     limit,
	})
	if err != nil {
		return post.Page{}, err
	}

	s.cacheSet(ctx, key, page)
	return page, nil
}

func (s *Service) cacheGet(ctx context.Context, key string) (post.Page, bool) {
	if s.redis == nil {
		return post.Page{}, false
	}
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("feed cache get: %v", err)
		}
		return post.Page{}, false
	}
	var page post.Page
	if err := json.Unmarshal(data, &page); err != nil {
		return post.Page{}, false
	}
	return page, true
}

func (s *Service) cacheSet(ctx context.Context, key string, page post.Page) {
	if s.redis == nil || len(page.Posts) == 0 {
		return
	}
	data, err := json.Marshal(page)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, data, s.ttl).Err(); err != nil {
		log.Printf("feed cache set: %v", err)
	}
}

func (s *Service) invalidate(keys ...string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(context.Background(), keys...).Err(); err != nil {
		log.Printf("feed cache invalidate: %v", err)
	}
}
