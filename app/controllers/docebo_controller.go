package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/certbridge/certbridge/internal/pkg/certgen"
)

// HandleDoceboCourses proxies the Docebo course catalog for the admin
// mapping editor.
func HandleDoceboCourses(c *fiber.Ctx) error {
	domain := c.Query("domain", certgen.DefaultDomain)
	page, pageSize, _ := parsePagination(c)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	courses, total, err := getDoceboClient().ListCourses(ctx, domain, page, pageSize)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "upstream_error", "message": err.Error()})
	}

	return c.JSON(fiber.Map{
		"data":      courses,
		"page":      page,
		"page_size": pageSize,
		"total":     total,
	})
}

// HandleDoceboTestConnection verifies the configured Docebo credentials.
func HandleDoceboTestConnection(c *fiber.Ctx) error {
	domain := c.Query("domain", certgen.DefaultDomain)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := getDoceboClient().TestConnection(ctx, domain); err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Docebo connection successful",
	})
}
