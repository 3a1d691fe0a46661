package post

import (
	"errors"

	"github.com/guptaanant682/InfiFeed/internal/auth"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req CreateRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		p, err := svc.CreatePost(c.Context(), auth.UserID(c), req.Content, req.MediaURLs, req.Category)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(p)
	})

	r.Get("/:postId", func(c *fiber.Ctx) error {
		p, err := svc.GetPost(c.Context(), c.Params("postId"))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(p)
	})

	r.Post("/:postId/like", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Like(c.Context(), auth.UserID(c), c.Params("postId")); err != nil {
			if errors.Is(err, ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusOK)
	})

	r.Delete("/:postId/like", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Unlike(c.Context(), auth.UserID(c), c.Params("postId")); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusOK)
	})

	r.Post("/:postId/share", func(c *fiber.Ctx) error {
		if err := svc.Share(c.Context(), c.Params("postId")); err != nil {
			if errors.Is(err, ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusOK)
	})

	r.Post("/:postId/comments", authMiddleware, func(c *fiber.Ctx) error {
		var req CommentRequest
		if err := c.BodyParser(&req); err != nil || req.Content == "" {
			return fiber.NewError(fiber.StatusBadRequest, "content required")
		}
		comment, err := svc.AddComment(c.Context(), c.Params("postId"), auth.UserID(c), req.Content)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(comment)
	})

	r.Get("/:postId/comments", func(c *fiber.Ctx) error {
		page, err := svc.Comments(c.Context(), c.Params("postId"), c.Query("cursor"), c.QueryInt("limit"))
		if err != nil {
			if errors.Is(err, ErrBadCursor) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(page)
	})
}
