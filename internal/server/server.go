// Package server contains the HTTP handlers for the application's pages.
package server

import (
	"context"
	"fmt"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/middleware"
	"inkwell/internal/pagecache"
	"inkwell/internal/render"
	"inkwell/internal/repository"
	"inkwell/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	renderer       render.Renderer
	media          *storage.MediaStore
	pages          *pagecache.Cache
	promMiddleware *fiberprometheus.FiberPrometheus
	userRepo       repository.UserRepository
	postRepo       repository.PostRepository
	groupRepo      repository.GroupRepository
	commentRepo    repository.CommentRepository
	followRepo     repository.FollowRepository
}

// NewServer creates a new server instance, establishing the database and
// Redis connections itself.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		redisClient = redis.NewClient(opts)
	}

	renderer, err := render.NewTemplateRenderer(cfg.TemplateDir)
	if err != nil {
		return nil, fmt.Errorf("template parsing failed: %w", err)
	}

	return NewServerWithDeps(cfg, db, redisClient, renderer), nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests use this to substitute sqlite, miniredis and a stub renderer.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, renderer render.Renderer) *Server {
	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		renderer:       renderer,
		media:          storage.NewMediaStore(cfg.MediaRoot),
		pages:          pagecache.New(redisClient, time.Duration(cfg.PageCacheTTLSeconds)*time.Second),
		promMiddleware: middleware.InitMetrics("inkwell"),
		userRepo:       repository.NewUserRepository(db),
		postRepo:       repository.NewPostRepository(db),
		groupRepo:      repository.NewGroupRepository(db),
		commentRepo:    repository.NewCommentRepository(db),
		followRepo:     repository.NewFollowRepository(db),
	}
}

// NewApp builds the Fiber app with the server's error handler wired in.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: s.ErrorHandler,
		BodyLimit:    10 * 1024 * 1024,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.CurrentUser)
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())
	app.Use(middleware.TracingMiddleware())

	// Global rate limiting (100 requests per minute per IP), off under test.
	if s.config.Env != "test" {
		app.Use(limiter.New(limiter.Config{
			Max:        100,
			Expiration: 1 * time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).
					SendString("Too many requests, please try again later.")
			},
		}))
	}

	// CSRF protection for the HTML forms. Disabled under test so handler
	// tests can POST forms directly.
	if s.config.Env != "test" {
		app.Use(csrf.New(csrf.Config{
			KeyLookup:      "form:csrf_token",
			CookieName:     "inkwell_csrf",
			CookieSameSite: "Lax",
			ContextKey:     "csrf",
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				return s.renderError(c, fiber.StatusForbidden)
			},
		}))
	}
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/health", s.HealthCheck)

	// Auth pages
	auth := app.Group("/auth")
	auth.Get("/signup/", s.SignupPage)
	auth.Post("/signup/", middleware.RateLimit(
		s.redis, s.config.Env, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Get("/login/", s.LoginPage)
	auth.Post("/login/", middleware.RateLimit(
		s.redis, s.config.Env, 10, 5*time.Minute, "login"), s.Login)
	auth.Get("/logout/", s.Logout)
	auth.Post("/logout/", s.Logout)

	// Public pages
	app.Get("/", s.Index)
	app.Get("/group/:slug/", s.GroupPosts)

	// Static serving for uploaded media
	app.Get("/media/*", s.ServeMedia)

	// Pages requiring a signed-in user
	app.Get("/follow/", middleware.LoginRequired, s.FollowIndex)
	app.Get("/create/", middleware.LoginRequired, s.CreatePostPage)
	app.Post("/create/", middleware.LoginRequired, s.CreatePost)

	// Specific profile sub-routes before the generic profile route
	app.Get("/profile/:username/follow/", middleware.LoginRequired, s.FollowUser)
	app.Get("/profile/:username/unfollow/", middleware.LoginRequired, s.UnfollowUser)
	app.Get("/profile/:username/", s.Profile)

	posts := app.Group("/posts")
	posts.Get("/:id/edit/", middleware.LoginRequired, s.EditPostPage)
	posts.Post("/:id/edit/", middleware.LoginRequired, s.EditPost)
	posts.Post("/:id/comment/", middleware.LoginRequired, s.AddComment)
	posts.Get("/:id/", s.PostDetail)

	// Admin pages
	admin := app.Group("/admin", middleware.LoginRequired, middleware.AdminRequired)
	admin.Get("/groups/", s.AdminGroups)
	admin.Post("/groups/", s.AdminCreateGroup)
	admin.Post("/groups/:id/edit/", s.AdminEditGroup)
	admin.Post("/groups/:id/delete/", s.AdminDeleteGroup)
	admin.Post("/cache/clear/", s.AdminClearCache)

	// Anything unrouted is a rendered 404 page.
	app.Use(func(c *fiber.Ctx) error {
		return s.renderError(c, fiber.StatusNotFound)
	})
}

// Shutdown releases the server's external connections.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			return err
		}
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// HealthCheck reports liveness and database reachability.
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	sqlDB, err := s.db.DB()
	if err != nil || sqlDB.PingContext(c.UserContext()) != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded"})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
