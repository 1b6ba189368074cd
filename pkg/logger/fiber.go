package logger

import (
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	userIDLocal    = "userID"
	requestIDLocal = "requestID"
)

// summaryLimit is the body size above which only the length is logged;
// upload bodies carry whole base64 files.
const summaryLimit = 1024

var sensitiveFields = []string{"password", "token", "data"}

// StartRequest tags c with a fresh request id and returns it.
func StartRequest(c *fiber.Ctx) string {
	id := uuid.NewString()
	c.Locals(requestIDLocal, id)
	return id
}

// RequestID returns the id set by StartRequest, or "".
func RequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDLocal).(string)
	return id
}

func GetUserIDFromContext(c *fiber.Ctx) *string {
	if id, ok := c.Locals(userIDLocal).(string); ok && id != "" {
		return &id
	}
	return nil
}

// Request logs an entry carrying the request id and, once auth has run, the
// caller's user id.
func Request(c *fiber.Ctx, level LogLevel, action string, err error, details map[string]interface{}) {
	emit(LogEntry{
		Level:     level,
		RequestID: RequestID(c),
		UserID:    GetUserIDFromContext(c),
		Action:    action,
		Details:   details,
		Error:     errText(err),
	})
}

// LevelForStatus picks the level an HTTP status is logged at.
func LevelForStatus(status int) LogLevel {
	switch {
	case status >= 500:
		return LevelError
	case status >= 400:
		return LevelWarn
	default:
		return LevelInfo
	}
}

func redactSensitiveFields(jsonMap map[string]interface{}) {
	for _, field := range sensitiveFields {
		if _, exists := jsonMap[field]; exists {
			jsonMap[field] = "[REDACTED]"
		}
	}
}

// BodySummary describes the request body with secrets and payloads redacted.
func BodySummary(c *fiber.Ctx) string {
	body := c.Body()
	switch {
	case len(body) == 0:
		return "empty"
	case len(body) > summaryLimit:
		return fmt.Sprintf("large (%d bytes)", len(body))
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return fmt.Sprintf("binary (%d bytes)", len(body))
	}
	redactSensitiveFields(fields)
	out, err := json.Marshal(fields)
	if err != nil {
		return fmt.Sprintf("binary (%d bytes)", len(body))
	}
	if len(out) > 200 {
		return string(out[:200]) + "..."
	}
	return string(out)
}

func ResponseSize(c *fiber.Ctx) int {
	return len(c.Response().Body())
}
