package handlers

import (
	"github.com/filesmanager/backend/internal/middleware"
	"github.com/filesmanager/backend/internal/services"
	"github.com/filesmanager/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	Auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

// Connect exchanges Basic credentials for a session token.
func (h *AuthHandler) Connect(c *fiber.Ctx) error {
	email, password, ok := services.ParseBasicAuth(c.Get(fiber.HeaderAuthorization))
	if !ok {
		return utils.Error(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	token, err := h.Auth.Authenticate(c.UserContext(), email, password)
	if err != nil {
		return writeError(c, err)
	}
	return utils.JSON(c, fiber.StatusOK, fiber.Map{"token": token})
}

func (h *AuthHandler) Disconnect(c *fiber.Ctx) error {
	if err := h.Auth.EndSession(c.UserContext(), middleware.GetToken(c)); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
