package notification

import (
	"errors"

	"github.com/guptaanant682/InfiFeed/internal/auth"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, gen *Generator, authMiddleware fiber.Handler) {
	// Authenticated users get their conversation events watched so
	// message notifications accrue while they are away from the thread.
	watch := func(c *fiber.Ctx) error {
		if gen != nil {
			gen.WatchUser(auth.UserID(c))
		}
		return c.Next()
	}

	r.Get("/notifications", authMiddleware, watch, func(c *fiber.Ctx) error {
		list, err := svc.ListForUser(c.Context(), auth.UserID(c))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(list)
	})

	r.Get("/notifications/unread-count", authMiddleware, watch, func(c *fiber.Ctx) error {
		count, err := svc.UnreadCount(c.Context(), auth.UserID(c))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"unread_count": count})
	})

	r.Post("/notifications/read-all", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.MarkAllRead(c.Context(), auth.UserID(c)); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusOK)
	})

	r.Post("/notifications/:id/read", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.MarkRead(c.Context(), auth.UserID(c), c.Params("id")); err != nil {
			if errors.Is(err, ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusOK)
	})

	// Active-view registry: while a conversation is open its incoming
	// messages do not become notifications.
	r.Post("/conversations/:id/active", authMiddleware, watch, func(c *fiber.Ctx) error {
		if gen != nil {
			gen.SetActiveConversation(auth.UserID(c), c.Params("id"))
		}
		return c.SendStatus(fiber.StatusOK)
	})

	r.Delete("/conversations/:id/active", authMiddleware, func(c *fiber.Ctx) error {
		if gen != nil {
			gen.ClearActiveConversation(auth.UserID(c))
		}
		return c.SendStatus(fiber.StatusOK)
	})
}
