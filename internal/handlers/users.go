package handlers

import (
	"github.com/filesmanager/backend/internal/middleware"
	"github.com/filesmanager/backend/internal/services"
	"github.com/filesmanager/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type UsersHandler struct {
	Auth *services.AuthService
}

func NewUsersHandler(auth *services.AuthService) *UsersHandler {
	return &UsersHandler{Auth: auth}
}

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req createUserRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	user, err := h.Auth.Register(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return utils.JSON(c, fiber.StatusCreated, user.View())
}

func (h *UsersHandler) Me(c *fiber.Ctx) error {
	user, err := h.Auth.Me(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return utils.JSON(c, fiber.StatusOK, user.View())
}
