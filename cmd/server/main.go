package main

import (
	"context"
	"runtime"

	"backend-smartqueue/internal/config"
	"backend-smartqueue/internal/http/handler"
	"backend-smartqueue/internal/http/middleware"
	"backend-smartqueue/internal/mailer"
	"backend-smartqueue/internal/models"
	"backend-smartqueue/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())

	config.LoadEnv()
	config.InitLogger()
	config.InitRedis()
	config.InitMongo()
	defer config.CloseMongo()
	mailer.Init()

	if err := store.EnsureIndexes(context.Background()); err != nil {
		config.Log.Warn("index creation failed", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		Prefork:       false,
		CaseSensitive: true,
		StrictRouting: true,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: config.GetEnv("CLIENT_ORIGIN", "*"),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "SmartQueue API running",
		})
	})

	// Public
	app.Post("/api/auth/register", handler.Register)
	app.Post("/api/auth/login", handler.Login)
	app.Get("/api/providers", handler.ListProviders)
	app.Get("/api/providers/:id/stats", handler.ProviderStats)

	// Realtime channel. Room entitlement is handled per join message.
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(handler.QueueWS))

	// Base API (everything below requires login)
	api := app.Group("/api", middleware.JWTAuth())

	// Appointments (customer)
	api.Post("/appointments", handler.BookAppointment)
	api.Get("/appointments", handler.ListMyAppointments)
	api.Get("/appointments/status", handler.QueueStatus)
	api.Delete("/appointments/:id", handler.CancelAppointment)

	// Notifications. The clear route is registered before :id so the
	// literal segment wins.
	api.Get("/notifications", handler.ListNotifications)
	api.Put("/notifications/mark-read", handler.MarkAllNotificationsRead)
	api.Delete("/notifications/clear/all", handler.ClearNotifications)
	api.Put("/notifications/:id/read", handler.MarkNotificationRead)
	api.Delete("/notifications/:id", handler.DeleteNotification)

	// ===== PROVIDER ROUTES =====
	provider := api.Group("/provider", middleware.RoleAuth(models.RoleProvider))
	provider.Get("/queue", handler.GetProviderQueue)
	provider.Put("/queue/:id", handler.UpdateQueueStatus)
	provider.Get("/summary", handler.ProviderSummary)
	provider.Get("/profile", handler.ProviderProfile)
	provider.Get("/appointments", handler.ProviderAppointments)
	provider.Post("/staff", handler.CreateStaff)
	provider.Get("/staff", handler.ListStaff)
	provider.Delete("/staff/:id", handler.DeleteStaff)

	// ===== ADMIN ROUTES =====
	admin := api.Group("/admin", middleware.RoleAuth(models.RoleAdmin))
	admin.Get("/users", handler.AdminListUsers)
	admin.Put("/users/:id/role", handler.AdminUpdateUserRole)
	admin.Get("/appointments", handler.AdminListAppointments)
	admin.Delete("/appointments/:id", handler.AdminPurgeAppointment)

	addr := config.GetEnv("APP_HOST", "") + ":" + config.GetEnv("APP_PORT", "5000")
	config.Log.Info("server listening", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		config.Log.Fatal("server stopped", zap.Error(err))
	}
}
