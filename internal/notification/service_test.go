package notification

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
)

func TestAddDefaultsType(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO notifications`).
		WithArgs(pgxmock.AnyArg(), "user-1", "welcome", TypeSystem, "", "", "").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))

	svc := NewService(mock)
	n, err := svc.Add(context.Background(), Notification{UserID: "user-1", Message: "welcome"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if n.Type != TypeSystem || n.ID == "" {
		t.Fatalf("unexpected notification %+v", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListForUser(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	now := time.Now()
	mock.ExpectQuery(`FROM notifications`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "message", "type", "read",
			"related_post_id", "post_url", "related_conversation_id", "created_at"}).
			AddRow("n-2", "user-1", "star just posted", TypePost, false, "post-1", "/posts/post-1", "", now).
			AddRow("n-1", "user-1", "New message from bob", TypeMessage, true, "", "", "alice_bob", now.Add(-time.Hour)))

	svc := NewService(mock)
	list, err := svc.ListForUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != "n-2" || list[1].RelatedConversationID != "alice_bob" {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestMarkReadScopedToOwner(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`UPDATE notifications SET read`).
		WithArgs("n-1", "mallory").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	svc := NewService(mock)
	if err := svc.MarkRead(context.Background(), "mallory", "n-1"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUnreadCount(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT COUNT(.+) FROM notifications`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(4))

	svc := NewService(mock)
	count, err := svc.UnreadCount(context.Background(), "user-1")
	if err != nil || count != 4 {
		t.Fatalf("expected 4 unread, got %d %v", count, err)
	}
}
