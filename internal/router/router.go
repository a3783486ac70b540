package router

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/takopi/backend/internal/auth"
	"github.com/takopi/backend/internal/handlers"
	"github.com/takopi/backend/internal/middleware"
	"github.com/takopi/backend/internal/models"
	"github.com/takopi/backend/internal/repositories"
	"github.com/takopi/backend/pkg/config"
	"github.com/takopi/backend/validators"
)

// Repositories groups the storage layer handed to the handlers.
type Repositories struct {
	Users         repositories.UserRepository
	Follows       repositories.FollowRepository
	Likes         repositories.LikeRepository
	Purchases     repositories.PurchaseRepository
	Notifications repositories.NotificationRepository
	Contents      repositories.ContentRepository
	Generations   repositories.GenerationRepository
}

// NewRepositories builds the Postgres and Mongo repositories over open connections.
func NewRepositories(db *config.DB) Repositories {
	return Repositories{
		Users:         repositories.NewPostgresUserRepository(db.Postgres),
		Follows:       repositories.NewPostgresFollowRepository(db.Postgres),
		Likes:         repositories.NewPostgresLikeRepository(db.Postgres),
		Purchases:     repositories.NewPostgresPurchaseRepository(db.Postgres),
		Notifications: repositories.NewPostgresNotificationRepository(db.Postgres),
		Contents:      repositories.NewMongoContentRepository(db.MongoDB),
		Generations:   repositories.NewMongoGenerationRepository(db.MongoDB),
	}
}

// Migrate creates the relational schema and the document indexes.
func Migrate(ctx context.Context, db *config.DB, repos Repositories, log logrus.FieldLogger) error {
	err := db.Postgres.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Like{},
		&models.Purchase{},
		&models.Notification{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	log.Info("PostgreSQL auto-migrations completed")

	if err := repos.Contents.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("content indexes: %w", err)
	}
	if err := repos.Generations.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("generation indexes: %w", err)
	}
	log.Info("MongoDB indexes ensured")
	return nil
}

// Services are the collaborators that are not storage.
type Services struct {
	Tokens   *auth.TokenService
	Firebase handlers.FirebaseTokenVerifier // nil disables /api/auth/firebase
	Meshy    handlers.MeshyClient
	Mailer   handlers.Mailer
	Health   map[string]handlers.Pinger
}

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo, cfg *config.Config, log logrus.FieldLogger) {
	e.HideBanner = true
	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = handlers.HTTPErrorHandler(log)

	e.Use(eMiddleware.RequestIDWithConfig(eMiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLogger(log))
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORSWithConfig(eMiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSAllowOrigins,
		AllowCredentials: !allowsAnyOrigin(cfg.CORSAllowOrigins),
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(eMiddleware.BodyLimit("1M"))
	e.Use(middleware.Metrics())
	log.Debug("Global middleware configured")
}

func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// SetupRoutes configures all application routes and injects dependencies.
// Idle rate-limit buckets are swept until stop is closed.
func SetupRoutes(e *echo.Echo, cfg *config.Config, repos Repositories, svc Services, log logrus.FieldLogger, stop <-chan struct{}) {
	e.GET("/health", handlers.HealthCheck(svc.Health))

	requireAuth := middleware.JWTAuth(svc.Tokens, cfg.AuthCookieName)
	optionalAuth := middleware.OptionalJWTAuth(svc.Tokens, cfg.AuthCookieName)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	limiter.StartCleanup(time.Minute, stop)

	api := e.Group("/api")
	public := api.Group("", optionalAuth)
	protected := api.Group("", requireAuth)

	// --- Auth ---
	authHandler := handlers.NewAuthHandler(repos.Users, svc.Tokens, svc.Firebase, svc.Mailer, handlers.CookieConfig{
		Name:   cfg.AuthCookieName,
		Secure: cfg.CookieSecure,
	})
	authHandler.RegisterAuthRoutes(api.Group("/auth", limiter.Middleware()))
	authHandler.RegisterSessionRoutes(protected.Group("/auth"))

	// --- Users and follows ---
	userHandler := handlers.NewUserHandler(repos.Users, repos.Follows, repos.Contents, repos.Generations, repos.Purchases, repos.Likes)
	userHandler.RegisterPublicRoutes(public)
	userHandler.RegisterProfileRoutes(protected)

	followHandler := handlers.NewFollowHandler(repos.Follows, repos.Users, repos.Notifications, svc.Mailer, log)
	followHandler.RegisterPublicRoutes(public)
	followHandler.RegisterFollowRoutes(protected)

	// --- Content ---
	contentHandler := handlers.NewContentHandler(repos.Contents, repos.Generations, repos.Users, repos.Likes, repos.Purchases, log)
	contentHandler.RegisterPublicRoutes(public)
	contentHandler.RegisterContentRoutes(protected)

	likeHandler := handlers.NewLikeHandler(repos.Likes, repos.Contents, repos.Users, repos.Notifications, log)
	likeHandler.RegisterLikeRoutes(protected)

	purchaseHandler := handlers.NewPurchaseHandler(repos.Purchases, repos.Contents, repos.Generations, repos.Users, repos.Notifications, svc.Mailer, log)
	purchaseHandler.RegisterPurchaseRoutes(protected)

	feedHandler := handlers.NewFeedHandler(repos.Contents, repos.Users, repos.Follows, repos.Likes, repos.Purchases)
	feedHandler.RegisterFeedRoutes(protected)

	// --- AI generation ---
	aiHandler := handlers.NewAIHandler(svc.Meshy, repos.Generations, repos.Users, repos.Notifications, svc.Mailer, log)
	aiGroup := protected.Group("/ai")
	aiHandler.RegisterReadRoutes(aiGroup)
	aiHandler.RegisterTaskRoutes(aiGroup.Group("", limiter.Middleware()))

	// --- Notifications ---
	notificationHandler := handlers.NewNotificationHandler(repos.Notifications, repos.Users)
	notificationHandler.RegisterNotificationRoutes(protected)

	// middleware groups on /api each register a catch-all; unknown paths stay a plain 404
	api.RouteNotFound("", echo.NotFoundHandler)
	api.RouteNotFound("/*", echo.NotFoundHandler)

	log.WithField("routes", len(e.Routes())).Info("All routes configured")
}
