package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/filesmanager/backend/internal/services"
	"github.com/filesmanager/backend/pkg/logger"
	"github.com/filesmanager/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

const (
	TokenHeader = "X-Token"

	userIDKey = "userID"
	tokenKey  = "token"
)

type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (string, error)
}

type AuthMiddleware struct {
	Sessions SessionResolver
}

func NewAuthMiddleware(sessions SessionResolver) *AuthMiddleware {
	return &AuthMiddleware{Sessions: sessions}
}

func CORS(allowOrigins string) fiber.Handler {
	if allowOrigins == "" {
		allowOrigins = "*"
	}
	return cors.New(cors.Config{
		AllowOrigins: allowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + TokenHeader,
		AllowMethods: "GET,POST,PUT,OPTIONS",
	})
}

// RequireAuth rejects the request with 401 unless X-Token names a live session.
func (a *AuthMiddleware) RequireAuth(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Get(TokenHeader))
	if token == "" {
		logger.Warn("auth_missing_token", map[string]interface{}{
			"ip":   c.IP(),
			"path": c.Path(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	userID, err := a.Sessions.ResolveSession(c.UserContext(), token)
	if err != nil {
		if !errors.Is(err, services.ErrUnauthorized) {
			logger.Error("session_lookup_failed", err, map[string]interface{}{"path": c.Path()})
			return utils.Error(c, fiber.StatusInternalServerError, "Internal server error")
		}
		logger.Warn("auth_invalid_token", map[string]interface{}{
			"ip":   c.IP(),
			"path": c.Path(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	c.Locals(userIDKey, userID)
	c.Locals(tokenKey, token)
	return c.Next()
}

// OptionalAuth attaches the caller when X-Token is valid and otherwise lets
// the request through anonymously.
func (a *AuthMiddleware) OptionalAuth(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Get(TokenHeader))
	if token == "" {
		return c.Next()
	}

	userID, err := a.Sessions.ResolveSession(c.UserContext(), token)
	if err != nil {
		if !errors.Is(err, services.ErrUnauthorized) {
			logger.Error("session_lookup_failed", err, map[string]interface{}{"path": c.Path()})
		}
		return c.Next()
	}

	c.Locals(userIDKey, userID)
	c.Locals(tokenKey, token)
	return c.Next()
}

// GetUserID returns the authenticated caller or "" for anonymous requests.
func GetUserID(c *fiber.Ctx) string {
	if id, ok := c.Locals(userIDKey).(string); ok {
		return id
	}
	return ""
}

func GetToken(c *fiber.Ctx) string {
	if token, ok := c.Locals(tokenKey).(string); ok {
		return token
	}
	return ""
}
