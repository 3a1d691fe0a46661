package user

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
)

func stubAuth(userID string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		return c.Next()
	}
}

func TestUserHandlersProfileAndFollow(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	app := fiber.New()
	RegisterRoutes(app.Group("/api"), NewService(mock), stubAuth("user-1"))

	now := time.Now()
	mock.ExpectQuery(`FROM users u WHERE u.id`).
		WithArgs("celeb-1").
		WillReturnRows(profileRows().AddRow("celeb-1", "star", "celebrity", "", "", 7, now))

	req := httptest.NewRequest(http.MethodGet, "/api/users/celeb-1", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("profile status %d: %v", resp.StatusCode, err)
	}
	var p Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.FollowerCount != 7 {
		t.Fatalf("unexpected profile %+v", p)
	}

	mock.ExpectExec(`INSERT INTO follows`).
		WithArgs("user-1", "celeb-1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	req = httptest.NewRequest(http.MethodPost, "/api/users/celeb-1/follow", nil)
	resp, err = app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("follow status %d: %v", resp.StatusCode, err)
	}

	mock.ExpectExec(`DELETE FROM follows`).
		WithArgs("user-1", "celeb-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	req = httptest.NewRequest(http.MethodDelete, "/api/users/celeb-1/follow", nil)
	resp, err = app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("unfollow status %d: %v", resp.StatusCode, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUserHandlersSelfFollowRejected(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/api"), NewService(nil), stubAuth("user-1"))

	req := httptest.NewRequest(http.MethodPost, "/api/users/user-1/follow", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request, got %d: %v", resp.StatusCode, err)
	}
}

func TestUserHandlersSearchMissingParam(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/api"), NewService(nil), stubAuth("user-1"))

	req := httptest.NewRequest(http.MethodGet, "/api/users/search", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request, got %d: %v", resp.StatusCode, err)
	}
}
