package chat

import (
	"errors"

	"github.com/guptaanant682/InfiFeed/internal/auth"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/conversations", authMiddleware, func(c *fiber.Ctx) error {
		convs, err := svc.ConversationsForUser(c.Context(), auth.UserID(c))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(convs)
	})

	r.Get("/conversations/:id/messages", authMiddleware, func(c *fiber.Ctx) error {
		msgs, err := svc.MessagesForConversation(c.Context(), c.Params("id"), auth.UserID(c))
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			case errors.Is(err, ErrNotParticipant):
				return fiber.NewError(fiber.StatusForbidden, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(msgs)
	})

	r.Post("/conversations/:id/read", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.MarkConversationAsRead(c.Context(), c.Params("id"), auth.UserID(c)); err != nil {
			if errors.Is(err, ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusOK)
	})

	r.Post("/messages", authMiddleware, func(c *fiber.Ctx) error {
		var req SendRequest
		if err := c.BodyParser(&req); err != nil || req.ReceiverID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "receiver_id and text required")
		}
		msg, err := svc.SendMessage(c.Context(), auth.UserID(c), req.ReceiverID, req.Text)
		if err != nil {
			switch {
			case errors.Is(err, ErrEmptyText), errors.Is(err, ErrSelfConversation):
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(msg)
	})
}
