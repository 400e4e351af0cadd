package routes

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/alaaeddinekamel/gym-management/internal/applog"
	"github.com/alaaeddinekamel/gym-management/internal/config"
	"github.com/alaaeddinekamel/gym-management/internal/handlers"
	"github.com/alaaeddinekamel/gym-management/internal/metrics"
	"github.com/alaaeddinekamel/gym-management/internal/middleware"
	"github.com/alaaeddinekamel/gym-management/internal/models"
	"github.com/alaaeddinekamel/gym-management/internal/repository"
	"github.com/alaaeddinekamel/gym-management/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/jackc/pgx/v5/pgxpool"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool, appMetrics *metrics.AppMetrics) error {
	userRepo := repository.NewUserRepository(db)
	coachRepo := repository.NewCoachRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	var storageService services.StorageService
	if cfg.StorageConfigured() {
		storageService = services.NewSupabaseStorageService(cfg.SupabaseURL, cfg.SupabaseBucket, cfg.SupabaseServiceKey)
	}

	membershipService := services.NewMembershipService(db, userRepo, coachRepo)
	catalogService := services.NewCatalogService(productRepo, storageService, appMetrics)
	orderService := services.NewOrderService(db, orderRepo, appMetrics)
	scheduleService := services.NewScheduleService(db, scheduleRepo, coachRepo, appMetrics)

	authHandler := handlers.NewAuthHandler(userRepo, coachRepo, cfg.JWTSecret, cfg.JWTTTL)
	userHandler := handlers.NewUserHandler(membershipService)
	coachHandler := handlers.NewCoachHandler(membershipService)
	productHandler := handlers.NewProductHandler(catalogService)
	orderHandler := handlers.NewOrderHandler(orderService)
	scheduleHandler := handlers.NewScheduleHandler(scheduleService)

	app.Get("/health", healthHandler(db))

	if err := registerDocsRoutes(app, cfg); err != nil {
		return err
	}

	api := app.Group("/api")
	if cfg.RateLimitPerMinute > 0 {
		api.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimitPerMinute,
			Expiration: time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many requests"})
			},
		}))
	}

	authRequired := middleware.AuthRequired(cfg.JWTSecret)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", authRequired, authHandler.Me)

	users := api.Group("/users", authRequired)
	users.Get("", adminOnly, userHandler.ListUsers)
	users.Get("/:id", userHandler.GetUser)
	users.Put("/:id", adminOnly, userHandler.UpdateUser)
	users.Delete("/:id", adminOnly, userHandler.DeleteUser)

	coaches := api.Group("/coaches", authRequired)
	coaches.Get("", coachHandler.ListCoaches)
	coaches.Get("/:id", coachHandler.GetCoach)
	coaches.Get("/:id/availability", scheduleHandler.CoachAvailability)
	coaches.Post("", adminOnly, coachHandler.CreateCoach)
	coaches.Put("/:id", adminOnly, coachHandler.UpdateCoach)
	coaches.Delete("/:id", adminOnly, coachHandler.DeleteCoach)

	products := api.Group("/products")
	products.Get("", productHandler.ListProducts)
	products.Get("/:id", productHandler.GetProduct)
	products.Post("", authRequired, adminOnly, productHandler.CreateProduct)
	products.Put("/:id", authRequired, adminOnly, productHandler.UpdateProduct)
	products.Delete("/:id", authRequired, adminOnly, productHandler.DeleteProduct)
	products.Post("/:id/image", authRequired, adminOnly, productHandler.UploadImage)

	orders := api.Group("/orders", authRequired)
	orders.Get("", adminOnly, orderHandler.ListAll)
	orders.Get("/user", orderHandler.ListMine)
	orders.Get("/:id", orderHandler.GetOrder)
	orders.Post("", orderHandler.PlaceOrder)
	orders.Patch("/:id/status", adminOnly, orderHandler.UpdateStatus)

	schedules := api.Group("/schedules", authRequired)
	schedules.Get("", adminOnly, scheduleHandler.ListAll)
	schedules.Get("/user", scheduleHandler.ListMine)
	schedules.Get("/:id", scheduleHandler.GetSchedule)
	schedules.Post("", scheduleHandler.BookSession)
	schedules.Patch("/:id/status", scheduleHandler.UpdateStatus)

	return nil
}

type pinger interface {
	Ping(ctx context.Context) error
}

func healthHandler(db pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":   "degraded",
				"database": "unreachable",
			})
		}
		return c.JSON(fiber.Map{"status": "ok", "database": "ok"})
	}
}

// ErrorHandler renders errors that escaped a handler as JSON. Unexpected
// errors are logged and hidden behind a generic message.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
	}

	applog.Error(c, "server.error", err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}

// CORSOrigins turns the comma separated CORS_ORIGINS value into the form the
// cors middleware expects.
func CORSOrigins(raw string) string {
	parts := strings.Split(raw, ",")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			cleaned = append(cleaned, part)
		}
	}
	if len(cleaned) == 0 {
		return "*"
	}
	return strings.Join(cleaned, ",")
}
