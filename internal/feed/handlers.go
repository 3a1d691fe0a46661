package feed

import (
	"errors"

	"github.com/guptaanant682/InfiFeed/internal/auth"
	"github.com/guptaanant682/InfiFeed/internal/post"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/posts", func(c *fiber.Ctx) error {
		page, err := svc.Posts(c.Context(), c.Query("user_id"), c.Query("category"), c.Query("cursor"), c.QueryInt("limit"))
		if err != nil {
			if errors.Is(err, post.ErrBadCursor) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(page)
	})

	r.Get("/users/:userId/posts", func(c *fiber.Ctx) error {
		page, err := svc.Posts(c.Context(), c.Params("userId"), c.Query("category"), c.Query("cursor"), c.QueryInt("limit"))
		if err != nil {
			if errors.Is(err, post.ErrBadCursor) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(page)
	})

	r.Get("/feed", authMiddleware, func(c *fiber.Ctx) error {
		page, err := svc.FeedForUser(c.Context(), auth.UserID(c), c.Query("category"), c.Query("cursor"), c.QueryInt("limit"))
		if err != nil {
			if errors.Is(err, post.ErrBadCursor) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(page)
	})
}
