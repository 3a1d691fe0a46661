package feed

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/guptaanant682/InfiFeed/internal/post"
	"github.com/guptaanant682/InfiFeed/internal/user"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
)

func stubAuth(userID string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		return c.Next()
	}
}

func TestFeedHandlersListing(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectQuery(`FROM posts`).
		WithArgs(21).
		WillReturnRows(postRows().AddRow("post-1", "celeb-1", "star", "", "hi", []string(nil),
			"general", 0, 0, 0, time.Now()))

	svc := NewService(post.NewService(mock, nil), user.NewService(mock), nil, time.Minute)
	app := fiber.New()
	RegisterRoutes(app.Group("/api"), svc, stubAuth("fan"))

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("listing status %d: %v", resp.StatusCode, err)
	}
	var page post.Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Posts) != 1 || page.HasMore {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestFeedHandlersBadCursor(t *testing.T) {
	svc := NewService(post.NewService(nil, nil), user.NewService(nil), nil, time.Minute)
	app := fiber.New()
	RegisterRoutes(app.Group("/api"), svc, stubAuth("fan"))

	req := httptest.NewRequest(http.MethodGet, "/api/posts?cursor=%21%21bad%21%21", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request, got %d: %v", resp.StatusCode, err)
	}
}

func TestFeedHandlersPersonalTimeline(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectQuery(`SELECT following_id FROM follows`).
		WithArgs("fan").
		WillReturnRows(pgxmock.NewRows([]string{"following_id"}).AddRow("celeb-1"))
	mock.ExpectQuery(`FROM posts WHERE author_id = ANY`).
		WithArgs([]string{"celeb-1"}, "music", 21).
		WillReturnRows(postRows())

	svc := NewService(post.NewService(mock, nil), user.NewService(mock), nil, time.Minute)
	app := fiber.New()
	RegisterRoutes(app.Group("/api"), svc, stubAuth("fan"))

	req := httptest.NewRequest(http.MethodGet, "/api/feed?category=music", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("feed status %d: %v", resp.StatusCode, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
