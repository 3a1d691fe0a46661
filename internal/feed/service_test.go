package feed

import (
	"context"
	"testing"
	"time"

	"github.com/guptaanant682/InfiFeed/internal/bus"
	"github.com/guptaanant682/InfiFeed/internal/post"
	"github.com/guptaanant682/InfiFeed/internal/user"

	"github.com/alicebob/miniredis/v2"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/redis/go-redis/v9"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func postRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "author_id", "author_username", "author_avatar_url", "content", "media_urls",
		"category", "likes_count", "shares_count", "comments_count", "created_at",
	})
}

func TestPostsServedFromCacheOnSecondRead(t *testing.T) {
	mock := newMockPool(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	// only one DB round-trip is expected for the two reads
	mock.ExpectQuery(`FROM posts`).
		WithArgs(21).
		WillReturnRows(postRows().AddRow("post-1", "celeb-1", "star", "", "hi", []string(nil),
			"general", 0, 0, 0, time.Now()))

	svc := NewService(post.NewService(mock, nil), user.NewService(mock), client, time.Minute)

	first, err := svc.Posts(context.Background(), "", "", "", 0)
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	second, err := svc.Posts(context.Background(), "", "", "", 0)
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	if len(first.Posts) != 1 || len(second.Posts) != 1 || second.Posts[0].ID != "post-1" {
		t.Fatalf("cache returned a different page: %+v vs %+v", first, second)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostsCacheFailureFallsThrough(t *testing.T) {
	mock := newMockPool(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Close() // cache down, reads must still work

	mock.ExpectQuery(`FROM posts`).
		WithArgs(21).
		WillReturnRows(postRows().AddRow("post-1", "celeb-1", "star", "", "hi", []string(nil),
			"general", 0, 0, 0, time.Now()))

	svc := NewService(post.NewService(mock, nil), user.NewService(mock), client, time.Minute)
	page, err := svc.Posts(context.Background(), "", "", "", 0)
	if err != nil {
		t.Fatalf("posts with cache down: %v", err)
	}
	if len(page.Posts) != 1 {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestNewPostInvalidatesFirstPage(t *testing.T) {
	mock := newMockPool(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	mock.ExpectQuery(`FROM posts`).
		WithArgs(21).
		WillReturnRows(postRows().AddRow("post-1", "celeb-1", "star", "", "hi", []string(nil),
			"general", 0, 0, 0, time.Now()))

	svc := NewService(post.NewService(mock, nil), user.NewService(mock), client, time.Minute)
	b := bus.NewBus(nil)
	svc.Start(b)
	defer svc.Stop()

	if _, err := svc.Posts(context.Background(), "", "", "", 0); err != nil {
		t.Fatalf("prime cache: %v", err)
	}
	if !mr.Exists(generalKey("", defaultLimit, "")) {
		t.Fatalf("expected cached first page")
	}

	b.PublishPost(bus.PostEvent{
		Topic:     bus.TopicPostCreated,
		PostID:    "post-2",
		AuthorID:  "celeb-1",
		CreatedAt: time.Now(),
	})

	if mr.Exists(generalKey("", defaultLimit, "")) {
		t.Fatalf("first page should be evicted after a new post")
	}
}

func TestFeedForUserEmptyFollowSet(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectQuery(`SELECT following_id FROM follows`).
		WithArgs("loner").
		WillReturnRows(pgxmock.NewRows([]string{"following_id"}))

	svc := NewService(post.NewService(mock, nil), user.NewService(mock), nil, time.Minute)
	page, err := svc.FeedForUser(context.Background(), "loner", "", "", 0)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(page.Posts) != 0 || page.HasMore || page.NextCursor != nil {
		t.Fatalf("expected empty page, got %+v", page)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestFeedForUserScopedToFollowSet(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectQuery(`SELECT following_id FROM follows`).
		WithArgs("fan").
		WillReturnRows(pgxmock.NewRows([]string{"following_id"}).AddRow("celeb-1"))
	mock.ExpectQuery(`FROM posts WHERE author_id = ANY`).
		WithArgs([]string{"celeb-1"}, 21).
		WillReturnRows(postRows().AddRow("post-1", "celeb-1", "star", "", "hi", []string(nil),
			"general", 0, 0, 0, time.Now()))

	svc := NewService(post.NewService(mock, nil), user.NewService(mock), nil, time.Minute)
	page, err := svc.FeedForUser(context.Background(), "fan", "", "", 0)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(page.Posts) != 1 || page.Posts[0].AuthorID != "celeb-1" {
		t.Fatalf("unexpected page %+v", page)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
