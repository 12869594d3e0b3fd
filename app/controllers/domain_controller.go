package controllers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/certbridge/certbridge/app/repository"
)

// HandleListDomains lists the known Docebo domains and their state.
func HandleListDomains(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetDoceboDomainRepository()
	page, pageSize, offset := parsePagination(c)

	domains, err := repo.List(offset, pageSize)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to list domains"})
	}
	total, err := repo.Count()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to count domains"})
	}

	return c.JSON(fiber.Map{
		"data":      domains,
		"page":      page,
		"page_size": pageSize,
		"total":     total,
	})
}

// HandleUpdateDomain updates the connection settings of one domain,
// typically to activate a row that was auto-created by a webhook.
func HandleUpdateDomain(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid domain id"})
	}

	repo := repository.GetGlobalFactory().GetDoceboDomainRepository()
	domain, err := repo.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Domain not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load domain"})
	}

	var in struct {
		APIURL   string `json:"api_url"`
		Username string `json:"username"`
		Password string `json:"password"`
		Active   *bool  `json:"active"`
	}
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	if v := strings.TrimSpace(in.APIURL); v != "" {
		domain.APIURL = v
	}
	if v := strings.TrimSpace(in.Username); v != "" {
		domain.Username = v
	}
	if in.Password != "" {
		domain.Password = in.Password
	}
	if in.Active != nil {
		domain.Active = *in.Active
	}

	if err := repo.Update(domain); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update domain"})
	}
	return c.JSON(domain)
}
