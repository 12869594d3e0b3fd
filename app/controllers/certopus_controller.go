package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Read-only proxies over the Certopus API that feed the admin mapping
// editor dropdowns.

func certopusTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 20*time.Second)
}

// HandleCertopusOrganisations lists organisations visible to the API key.
func HandleCertopusOrganisations(c *fiber.Ctx) error {
	ctx, cancel := certopusTimeout()
	defer cancel()

	orgs, err := getCertopusClient().GetOrganisations(ctx)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "upstream_error", "message": err.Error()})
	}
	return c.JSON(fiber.Map{"data": orgs})
}

// HandleCertopusEvents lists the events of one organisation.
func HandleCertopusEvents(c *fiber.Ctx) error {
	organisationID := c.Query("organisationId")
	if organisationID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "organisationId missing"})
	}

	ctx, cancel := certopusTimeout()
	defer cancel()

	events, err := getCertopusClient().GetEvents(ctx, organisationID)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "upstream_error", "message": err.Error()})
	}
	return c.JSON(fiber.Map{"data": events})
}

// HandleCertopusCategories lists the categories of one event.
func HandleCertopusCategories(c *fiber.Ctx) error {
	organisationID := c.Query("organisationId")
	eventID := c.Query("eventId")
	if organisationID == "" || eventID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "organisationId and eventId are required"})
	}

	ctx, cancel := certopusTimeout()
	defer cancel()

	categories, err := getCertopusClient().GetCategories(ctx, organisationID, eventID)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "upstream_error", "message": err.Error()})
	}
	return c.JSON(fiber.Map{"data": categories})
}

// HandleCertopusRecipientFields lists the template placeholders of one
// category so the mapping editor can offer them as binding targets.
func HandleCertopusRecipientFields(c *fiber.Ctx) error {
	organisationID := c.Query("organisationId")
	eventID := c.Query("eventId")
	categoryID := c.Query("categoryId")
	if organisationID == "" || eventID == "" || categoryID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "organisationId, eventId and categoryId are required"})
	}

	ctx, cancel := certopusTimeout()
	defer cancel()

	fields, err := getCertopusClient().GetRecipientFields(ctx, organisationID, eventID, categoryID)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "upstream_error", "message": err.Error()})
	}
	return c.JSON(fiber.Map{"data": fields})
}
