// Package server contains the HTTP handlers for the qipu API.
package server

import (
	"context"
	"io"
	"log"
	"time"

	_ "qipu/docs" // swagger docs
	"qipu/internal/bootstrap"
	"qipu/internal/config"
	"qipu/internal/mail"
	"qipu/internal/middleware"
	"qipu/internal/models"
	"qipu/internal/notifications"
	"qipu/internal/repository"
	"qipu/internal/service"
	"qipu/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the collaborators a Server needs besides the database and Redis.
type Deps struct {
	Signer storage.Signer
	Mailer mail.Sender
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	signer         storage.Signer
	notifier       *notifications.Notifier

	userRepo     repository.UserRepository
	mediaRepo    repository.MediaRepository
	postRepo     repository.PostRepository
	eventRepo    repository.EventRepository
	attendeeRepo repository.AttendeeRepository
	contactRepo  repository.ContactRepository
	labelRepo    repository.LabelRepository
	uniqueRepo   repository.UniqueRepository
	tagRepo      repository.TagRepository
	userTagRepo  repository.UserTagRepository

	tokens          *service.TokenService
	accountService  *service.AccountService
	resetService    *service.PasswordResetService
	itemService     *service.ItemService
	mediaService    *service.MediaService
	contactService  *service.ContactService
	attendeeService *service.AttendeeService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, rdb, err := bootstrap.InitRuntime(cfg, bootstrap.Options{SeedCatalog: cfg.SeedCatalog})
	if err != nil {
		return nil, err
	}

	signer, err := storage.NewGCSSigner(context.Background(), storage.Config{
		Bucket:          cfg.GCSBucket,
		TTL:             cfg.SignedURLTTL,
		CredentialsFile: cfg.GCSCredentials,
	})
	if err != nil {
		// Signing fails per request until credentials are provided.
		log.Printf("WARNING: storage signer unavailable: %v", err)
		signer = storage.NewKeySigner(cfg.GCSBucket, cfg.SignedURLTTL, "", nil)
	}

	mailer := mail.New(mail.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	})

	return NewServerWithDeps(cfg, db, rdb, Deps{Signer: signer, Mailer: mailer})
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB and Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, deps Deps) (*Server, error) {
	if deps.Mailer == nil {
		deps.Mailer = mail.LogSender{}
	}

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("qipu-api"),
		signer:         deps.Signer,
		notifier:       notifications.NewNotifier(redisClient),
		userRepo:       repository.NewUserRepository(db),
		mediaRepo:      repository.NewMediaRepository(db),
		postRepo:       repository.NewPostRepository(db),
		eventRepo:      repository.NewEventRepository(db),
		attendeeRepo:   repository.NewAttendeeRepository(db),
		contactRepo:    repository.NewContactRepository(db),
		labelRepo:      repository.NewLabelRepository(db),
		uniqueRepo:     repository.NewUniqueRepository(db),
		tagRepo:        repository.NewTagRepository(db),
		userTagRepo:    repository.NewUserTagRepository(db),
	}

	s.tokens = service.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	s.accountService = service.NewAccountService(s.userRepo, s.tokens)
	s.resetService = service.NewPasswordResetService(s.userRepo, deps.Mailer, cfg.JWTSecret, cfg.PasswordResetTTL, cfg.PublicBaseURL)
	s.itemService = service.NewItemService(s.postRepo, s.mediaRepo, cfg.GCSBucket, cfg.GCSLocation)
	s.mediaService = service.NewMediaService(s.mediaRepo, s.userRepo, s.signer, cfg.GCSBucket, cfg.GCSLegacyPrefix)
	s.contactService = service.NewContactService(s.contactRepo, s.userRepo, s.notifier)
	s.attendeeService = service.NewAttendeeService(s.attendeeRepo, s.eventRepo, s.userRepo, s.notifier)

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	// Tracing runs first so ContextMiddleware can pick up the trace id.
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so throttled responses still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))

	app.Use(middleware.AuthCookie())
}

// SetupRoutes configures all routes for the application. Fiber's default
// non-strict routing serves every path with and without a trailing slash.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Accounts
	app.Post("/signup", middleware.RateLimit(s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	app.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	app.Post("/logout", s.AuthRequired(), s.Logout)
	app.Get("/check_session", s.AuthRequired(), s.CheckSession)
	app.Post("/api/token", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.ObtainToken)
	app.Post("/api/token/refresh", s.RefreshToken)

	// Password reset
	app.Post("/password-reset", middleware.RateLimit(s.redis, 5, 10*time.Minute, "password_reset"), s.RequestPasswordReset)
	app.Post("/password-reset-confirm/:uid/:token", s.ConfirmPasswordReset)

	protected := app.Group("", s.AuthRequired())

	// Ingestion and bucket access
	protected.Post("/items/add", s.AddItem)
	protected.Get("/media-detail/:id", s.GetMediaDetail)
	protected.Get("/generate-signed-url", s.GenerateSignedURL)
	protected.Get("/tag_search", s.TagSearch)

	users := protected.Group("/users")
	users.Get("/", s.ListUsers)
	users.Post("/", s.CreateUser)
	users.Get("/:id", s.GetUser)
	users.Put("/:id", s.UpdateUser)
	users.Patch("/:id", s.UpdateUser)
	users.Delete("/:id", s.DeleteUser)

	media := protected.Group("/media")
	media.Get("/", s.ListMedia)
	media.Post("/", s.CreateMedia)
	media.Get("/:id", s.GetMedia)
	media.Put("/:id", s.UpdateMedia)
	media.Patch("/:id", s.UpdateMedia)
	media.Delete("/:id", s.DeleteMedia)

	posts := protected.Group("/posts")
	posts.Get("/", s.ListPosts)
	posts.Post("/", s.CreatePost)
	posts.Get("/:id", s.GetPost)
	posts.Put("/:id", s.UpdatePost)
	posts.Patch("/:id", s.UpdatePost)
	posts.Delete("/:id", s.DeletePost)

	events := protected.Group("/events")
	events.Get("/", s.ListEvents)
	events.Post("/", s.CreateEvent)
	events.Get("/:id", s.GetEvent)
	events.Put("/:id", s.UpdateEvent)
	events.Patch("/:id", s.UpdateEvent)
	events.Delete("/:id", s.DeleteEvent)

	contacts := protected.Group("/contacts")
	contacts.Get("/", s.ListContacts)
	contacts.Post("/", s.CreateContact)
	contacts.Get("/:id", s.GetContact)
	contacts.Put("/:id", s.UpdateContact)
	contacts.Patch("/:id", s.UpdateContact)
	contacts.Delete("/:id", s.DeleteContact)

	attendees := protected.Group("/attendees")
	attendees.Get("/", s.ListAttendees)
	attendees.Post("/", s.CreateAttendee)
	attendees.Get("/:id", s.GetAttendee)
	attendees.Put("/:id", s.UpdateAttendee)
	attendees.Patch("/:id", s.UpdateAttendee)
	attendees.Delete("/:id", s.DeleteAttendee)

	uniques := protected.Group("/uniques")
	uniques.Get("/", s.ListUniques)
	uniques.Post("/", s.CreateUnique)
	uniques.Get("/:id", s.GetUnique)
	uniques.Put("/:id", s.UpdateUnique)
	uniques.Patch("/:id", s.UpdateUnique)
	uniques.Delete("/:id", s.DeleteUnique)

	labels := protected.Group("/relationship_labels")
	labels.Get("/", s.ListLabels)
	labels.Post("/", s.CreateLabel)
	labels.Get("/:id", s.GetLabel)
	labels.Put("/:id", s.UpdateLabel)
	labels.Patch("/:id", s.UpdateLabel)
	labels.Delete("/:id", s.DeleteLabel)

	tags := protected.Group("/tags")
	tags.Get("/", s.ListTags)
	tags.Post("/", s.CreateTag)
	tags.Get("/:id", s.GetTag)
	tags.Put("/:id", s.UpdateTag)
	tags.Patch("/:id", s.UpdateTag)
	tags.Delete("/:id", s.DeleteTag)

	userTags := protected.Group("/user_tags")
	userTags.Get("/", s.ListUserTags)
	userTags.Post("/", s.CreateUserTag)
	userTags.Get("/:id", s.GetUserTag)
	userTags.Delete("/:id", s.DeleteUserTag)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis backs caching and revocation but the API degrades without it.
	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
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

// AuthRequired returns the authentication middleware. Only access tokens
// are accepted; refresh tokens must go through /api/token/refresh.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := middleware.BearerToken(c)
		if token == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		claims, err := s.tokens.ParseAccess(c.UserContext(), token)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}

		c.Locals("userID", claims.UserID)
		c.SetUserContext(middleware.WithUserID(c.UserContext(), claims.UserID))
		return c.Next()
	}
}

// Start starts the server
func (s *Server) Start() error {
	app := fiber.New(fiber.Config{
		AppName:   "qipu API",
		BodyLimit: 10 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if closer, ok := s.signer.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			log.Printf("error closing storage client: %v", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
