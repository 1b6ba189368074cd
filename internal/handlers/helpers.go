package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/filesmanager/backend/internal/models"
	"github.com/filesmanager/backend/internal/services"
	"github.com/filesmanager/backend/pkg/logger"
	"github.com/filesmanager/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

// writeError maps service errors onto status codes. Anything unrecognised is
// logged and reported as a bare 500.
func writeError(c *fiber.Ctx, err error) error {
	var validation *services.ValidationError
	switch {
	case errors.As(err, &validation):
		return utils.Error(c, fiber.StatusBadRequest, validation.Message)
	case errors.Is(err, services.ErrUnauthorized):
		return utils.Error(c, fiber.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, services.ErrNotFound):
		return utils.Error(c, fiber.StatusNotFound, "Not found")
	case errors.Is(err, services.ErrFolderHasNoContent):
		return utils.Error(c, fiber.StatusBadRequest, "A folder doesn't have content")
	}

	logger.Request(c, logger.LevelError, "request_failed", err, map[string]interface{}{
		"method": c.Method(),
		"path":   c.Path(),
	})
	return utils.Error(c, fiber.StatusInternalServerError, "Internal server error")
}

// parentIDFromJSON normalises a decoded parentId, which clients send either
// as the number 0 (root) or as an id string.
func parentIDFromJSON(raw interface{}) string {
	switch v := raw.(type) {
	case nil:
		return models.RootParentID
	case string:
		if strings.TrimSpace(v) == "" {
			return models.RootParentID
		}
		return strings.TrimSpace(v)
	case float64:
		if v == 0 {
			return models.RootParentID
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
