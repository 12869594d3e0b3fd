package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/certbridge/certbridge/internal/pkg/certgen"
)

// HandleListCertificates lists certificates for the admin view.
func HandleListCertificates(c *fiber.Ctx) error {
	repo := certificateRepo()
	page, pageSize, offset := parsePagination(c)

	status := c.Query("status")
	var (
		certs interface{}
		err   error
	)
	if status != "" {
		certs, err = repo.ListByStatus(status, offset, pageSize)
	} else {
		certs, err = repo.List(offset, pageSize)
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to list certificates"})
	}

	total, err := repo.Count()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to count certificates"})
	}

	return c.JSON(fiber.Map{
		"data":      certs,
		"page":      page,
		"page_size": pageSize,
		"total":     total,
	})
}

// HandleGetCertificate returns a single certificate by its public uuid.
func HandleGetCertificate(c *fiber.Ctx) error {
	certificateUUID := c.Params("uuid")
	if certificateUUID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "certificate uuid missing"})
	}

	cert, err := certificateRepo().GetByUUID(certificateUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Certificate not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load certificate"})
	}

	return c.JSON(cert)
}

// HandleRetryCertificate re-runs generation for one existing certificate
// against the current mapping configuration.
func HandleRetryCertificate(c *fiber.Ctx) error {
	certificateUUID := c.Params("uuid")
	if certificateUUID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "certificate uuid missing"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	cert, err := pipelineService().Retry(ctx, certificateUUID)
	if err != nil {
		var notFound *certgen.NotFoundError
		if errors.As(err, &notFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Certificate not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to regenerate certificate",
			"message": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success":        true,
		"certificateUrl": cert.CertificateURL,
	})
}
