package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/certbridge/certbridge/internal/pkg/certgen"
	"github.com/certbridge/certbridge/internal/pkg/metrics/counter"
)

// HandleDoceboWebhook ingests one Docebo delivery. Both processed and
// ignored deliveries answer 200; an unparseable body answers 400 before
// anything is written, and a pipeline failure after the ledger write
// answers 500 with the failure message.
func HandleDoceboWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	result, err := pipelineService().ProcessWebhook(ctx, rawBody)
	if err != nil {
		// A nil result means the delivery was rejected before the ledger
		// write, so there is no domain to count against.
		if result == nil {
			var validationErr *certgen.ValidationError
			if errors.As(err, &validationErr) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"success": false,
					"error":   "Invalid webhook payload",
					"message": validationErr.Reason,
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "Failed to process webhook",
				"message": err.Error(),
			})
		}
		_ = counter.AddReceived(result.Domain)
		_ = counter.AddFailed(result.Domain)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to process webhook",
			"message": err.Error(),
		})
	}

	_ = counter.AddReceived(result.Domain)
	if !result.Processed {
		return c.JSON(fiber.Map{
			"success": true,
			"message": "Webhook received but not processed (not a course completion)",
		})
	}
	_ = counter.AddProcessed(result.Domain)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Certificate generation initiated successfully",
	})
}

// HandleListWebhookEvents lists the ledger for the activity view.
func HandleListWebhookEvents(c *fiber.Ctx) error {
	repo := webhookEventRepo()
	page, pageSize, offset := parsePagination(c)

	status := c.Query("status")
	var (
		events interface{}
		err    error
	)
	if status != "" {
		events, err = repo.ListByStatus(status, offset, pageSize)
	} else {
		events, err = repo.List(offset, pageSize)
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to list webhook events"})
	}

	total, err := repo.Count()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to count webhook events"})
	}

	return c.JSON(fiber.Map{
		"data":      events,
		"page":      page,
		"page_size": pageSize,
		"total":     total,
	})
}

// HandleGetWebhookEvent returns a single ledger row by its Docebo
// message id.
func HandleGetWebhookEvent(c *fiber.Ctx) error {
	messageID := c.Params("messageId")
	if messageID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "message id missing"})
	}

	event, err := webhookEventRepo().GetByMessageID(messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Webhook event not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load webhook event"})
	}

	return c.JSON(event)
}
