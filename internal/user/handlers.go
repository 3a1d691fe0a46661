package user

import (
	"errors"

	"github.com/guptaanant682/InfiFeed/internal/auth"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/celebrities", func(c *fiber.Ctx) error {
		celebs, err := svc.ListCelebrities(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(celebs)
	})

	r.Get("/users/search", func(c *fiber.Ctx) error {
		username := c.Query("username")
		if username == "" {
			return fiber.NewError(fiber.StatusBadRequest, "username required")
		}
		profile, err := svc.FindByUsername(c.Context(), username)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(profile)
	})

	r.Get("/users/:userId", func(c *fiber.Ctx) error {
		profile, err := svc.GetProfile(c.Context(), c.Params("userId"))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(profile)
	})

	r.Post("/users/:userId/follow", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Follow(c.Context(), auth.UserID(c), c.Params("userId")); err != nil {
			if errors.Is(err, ErrSelfFollow) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusOK)
	})

	r.Delete("/users/:userId/follow", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Unfollow(c.Context(), auth.UserID(c), c.Params("userId")); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusOK)
	})

	r.Get("/users/:userId/followers", func(c *fiber.Ctx) error {
		followers, err := svc.Followers(c.Context(), c.Params("userId"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(followers)
	})

	r.Get("/users/:userId/following", func(c *fiber.Ctx) error {
		following, err := svc.Following(c.Context(), c.Params("userId"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(following)
	})
}
