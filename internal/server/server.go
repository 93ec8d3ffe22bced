// Package server contains the HTTP views of the blog and their wiring.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/featureflags"
	"yatube/internal/middleware"
	"yatube/internal/repository"
	"yatube/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	userRepo       repository.UserRepository
	groupRepo      repository.GroupRepository
	postRepo       repository.PostRepository
	commentRepo    repository.CommentRepository
	followRepo     repository.FollowRepository
	featureFlags   *featureflags.Manager
	media          *service.MediaStore
	pageCache      *cache.PageCache
	postService    *service.PostService
	commentService *service.CommentService
	followService  *service.FollowService
	userService    *service.UserService
	passwordCost   int
}

// Option adjusts a Server built by NewServerWithDeps.
type Option func(*Server)

// WithPageCache replaces the home page cache.
func WithPageCache(pc *cache.PageCache) Option {
	return func(s *Server) { s.pageCache = pc }
}

// WithPasswordCost sets the bcrypt cost used for new passwords.
func WithPasswordCost(cost int) Option {
	return func(s *Server) { s.passwordCost = cost }
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	return NewServerWithDeps(cfg, db, cache.InitRedis(cfg.RedisURL))
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// A non-nil Redis client also becomes the shared cache client used for token
// revocation and group caching. A nil one disables the page cache and
// leaves the shared client untouched.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, opts ...Option) (*Server, error) {
	if redisClient != nil {
		cache.SetClient(redisClient)
	}
	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("yatube"),
		userRepo:       repository.NewUserRepository(db),
		groupRepo:      repository.NewGroupRepository(db),
		postRepo:       repository.NewPostRepository(db),
		commentRepo:    repository.NewCommentRepository(db),
		followRepo:     repository.NewFollowRepository(db),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		media:          service.NewMediaStore(cfg.MediaRoot, cfg.MediaURL),
		pageCache:      cache.NewPageCache(redisClient, time.Duration(cfg.IndexCacheTTLSeconds)*time.Second),
		passwordCost:   bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	if invalid := s.featureFlags.Invalid(); len(invalid) > 0 {
		middleware.Logger.Warn("ignoring malformed feature flags", slog.Any("entries", invalid))
	}

	s.postService = service.NewPostService(s.postRepo, s.media, s.pageCache, s.featureFlags)
	s.commentService = service.NewCommentService(s.commentRepo, s.postRepo)
	s.followService = service.NewFollowService(s.followRepo)
	s.userService = service.NewUserService(s.userRepo, s.passwordCost)

	return s, nil
}

// PageCache returns the home page cache.
func (s *Server) PageCache() *cache.PageCache {
	return s.pageCache
}

// NewApp builds the fiber app with middleware and routes.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "yatube",
		ErrorHandler: s.ErrorHandler,
		UnescapePath: true,
		BodyLimit:    (s.config.ImageMaxUploadSizeMB + 1) * 1024 * 1024,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and trace ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	app.Use(s.CurrentUser())
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Static(s.media.URLPrefix(), s.media.Root())

	// Auth routes
	auth := app.Group("/auth")
	auth.Get("/signup/", s.Signup)
	auth.Post("/signup/", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup", middleware.FailOpen), s.Signup)
	auth.Get("/login/", s.Login)
	auth.Post("/login/", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login", middleware.FailOpen), s.Login)
	auth.Get("/logout/", s.Logout)
	auth.Post("/logout/", s.Logout)

	// Public views
	app.Get("/", s.Index)
	app.Get("/group/:slug/", s.GroupPosts)
	app.Get("/profile/:username/", s.Profile)
	app.Get("/posts/:id/", s.PostDetail)

	// Views requiring a logged in user
	login := s.LoginRequired()
	app.Get("/create/", login, s.PostCreate)
	app.Post("/create/", login, s.PostCreate)
	app.Get("/posts/:id/edit/", login, s.PostEdit)
	app.Post("/posts/:id/edit/", login, s.PostEdit)
	app.Get("/posts/:id/comment/", login, s.AddComment)
	app.Post("/posts/:id/comment/", login, s.AddComment)
	app.Get("/follow/", login, s.FollowIndex)
	app.Get("/profile/:username/follow/", login, s.ProfileFollow)
	app.Get("/profile/:username/unfollow/", login, s.ProfileUnfollow)

	// Everything else is a 404 page
	app.Use(s.NotFound)
}

// LivenessCheck handles liveness check requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness check requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	s.app = s.NewApp()
	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
