package handlers

import (
	"context"

	"github.com/filesmanager/backend/internal/store"
	"github.com/filesmanager/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

// Liveness reports whether the key-value cache answers.
type Liveness interface {
	IsAlive(ctx context.Context) bool
}

type AppHandler struct {
	Backend store.Backend
	Cache   Liveness
}

func NewAppHandler(backend store.Backend, cache Liveness) *AppHandler {
	return &AppHandler{Backend: backend, Cache: cache}
}

func (h *AppHandler) Status(c *fiber.Ctx) error {
	ctx := c.UserContext()
	return utils.JSON(c, fiber.StatusOK, fiber.Map{
		"redis": h.Cache.IsAlive(ctx),
		"db":    h.Backend.Ping(ctx) == nil,
	})
}

func (h *AppHandler) Stats(c *fiber.Ctx) error {
	ctx := c.UserContext()
	users, err := h.Backend.Users().Count(ctx)
	if err != nil {
		return writeError(c, err)
	}
	files, err := h.Backend.Files().Count(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return utils.JSON(c, fiber.StatusOK, fiber.Map{"users": users, "files": files})
}
