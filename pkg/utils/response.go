package utils

import "github.com/gofiber/fiber/v2"

// JSON writes data as the response body without an envelope; clients of this
// API expect bare objects and arrays.
func JSON(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(data)
}

func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}
