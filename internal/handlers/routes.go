package handlers

import (
	"github.com/filesmanager/backend/internal/metrics"
	"github.com/filesmanager/backend/internal/middleware"
	"github.com/filesmanager/backend/internal/services"
	"github.com/filesmanager/backend/internal/store"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

type Deps struct {
	Auth        *services.AuthService
	Files       *services.FileService
	Backend     store.Backend
	Cache       Liveness
	BodyLimitMB int
	CORSOrigins string
}

// NewApp builds the fiber app with every route mounted.
func NewApp(deps Deps) *fiber.App {
	bodyLimit := deps.BodyLimitMB
	if bodyLimit <= 0 {
		bodyLimit = 50
	}

	app := fiber.New(fiber.Config{
		BodyLimit:             bodyLimit * 1024 * 1024,
		DisableStartupMessage: true,
	})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS(deps.CORSOrigins))
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	authMiddleware := middleware.NewAuthMiddleware(deps.Auth)
	authHandler := NewAuthHandler(deps.Auth)
	usersHandler := NewUsersHandler(deps.Auth)
	filesHandler := NewFilesHandler(deps.Files)
	appHandler := NewAppHandler(deps.Backend, deps.Cache)

	app.Get("/status", appHandler.Status)
	app.Get("/stats", appHandler.Stats)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	app.Get("/connect", authHandler.Connect)
	app.Get("/disconnect", authMiddleware.RequireAuth, authHandler.Disconnect)

	app.Post("/users", usersHandler.Create)
	app.Get("/users/me", authMiddleware.RequireAuth, usersHandler.Me)

	requireAuth := authMiddleware.RequireAuth
	app.Post("/files", requireAuth, filesHandler.Create)
	app.Get("/files", requireAuth, filesHandler.List)
	app.Get("/files/:id", requireAuth, filesHandler.Get)
	app.Put("/files/:id/publish", requireAuth, filesHandler.Publish)
	app.Put("/files/:id/unpublish", requireAuth, filesHandler.Unpublish)
	app.Get("/files/:id/data", authMiddleware.OptionalAuth, filesHandler.Data)

	return app
}
