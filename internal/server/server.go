package server

import (
	"time"

	"github.com/guptaanant682/InfiFeed/internal/auth"
	"github.com/guptaanant682/InfiFeed/internal/bus"
	"github.com/guptaanant682/InfiFeed/internal/chat"
	"github.com/guptaanant682/InfiFeed/internal/config"
	"github.com/guptaanant682/InfiFeed/internal/feed"
	"github.com/guptaanant682/InfiFeed/internal/notification"
	"github.com/guptaanant682/InfiFeed/internal/post"
	"github.com/guptaanant682/InfiFeed/internal/user"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App       *fiber.App
	Cfg       config.Config
	DB        *pgxpool.Pool
	Redis     *redis.Client
	Bus       *bus.Bus
	Feed      *feed.Service
	Generator *notification.Generator
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	eventBus := bus.NewBus(redisClient)

	userSvc := user.NewService(db)
	postSvc := post.NewService(db, eventBus)
	feedSvc := feed.NewService(postSvc, userSvc, redisClient, time.Duration(cfg.FeedCacheTTLSeconds)*time.Second)
	chatSvc := chat.NewService(db, eventBus)
	notifSvc := notification.NewService(db)
	generator := notification.NewGenerator(notifSvc, userSvc, eventBus)

	feedSvc.Start(eventBus)
	generator.Start()

	s := &Server{
		App:       app,
		Cfg:       cfg,
		DB:        db,
		Redis:     redisClient,
		Bus:       eventBus,
		Feed:      feedSvc,
		Generator: generator,
	}

	registerRoutes(s, userSvc, postSvc, feedSvc, chatSvc, notifSvc)
	return s
}

func registerRoutes(s *Server, userSvc *user.Service, postSvc *post.Service, feedSvc *feed.Service, chatSvc *chat.Service, notifSvc *notification.Service) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	api := s.App.Group("/api", limiter.New(limiter.Config{
		Max:        100,
		Expiration: 15 * time.Minute,
	}))

	authGroup := api.Group("/auth", limiter.New(limiter.Config{
		Max:        10,
		Expiration: 15 * time.Minute,
	}))
	auth.RegisterRoutes(authGroup, auth.NewService(s.Cfg.JWTSecret, s.DB))

	post.RegisterRoutes(api.Group("/posts"), postSvc, jwtMiddleware)
	feed.RegisterRoutes(api, feedSvc, jwtMiddleware)
	user.RegisterRoutes(api, userSvc, jwtMiddleware)
	chat.RegisterRoutes(api, chatSvc, jwtMiddleware)
	notification.RegisterRoutes(api, notifSvc, s.Generator, jwtMiddleware)
}
