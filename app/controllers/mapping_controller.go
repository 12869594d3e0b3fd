package controllers

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/certbridge/certbridge/app/models"
	"github.com/certbridge/certbridge/app/repository"
)

var mappingValidate = validator.New()

// mappingInput is the admin payload for creating or updating a course
// mapping. Field mappings bind certificate placeholder keys to source
// selectors (or literal text).
type mappingInput struct {
	DoceboDomainID     uint              `json:"docebo_domain_id" validate:"required"`
	DoceboCourseID     int64             `json:"docebo_course_id" validate:"required,gt=0"`
	CertopusOrgID      string            `json:"certopus_org_id" validate:"required"`
	CertopusEventID    string            `json:"certopus_event_id" validate:"required"`
	CertopusCategoryID string            `json:"certopus_category_id"`
	FieldMappings      map[string]string `json:"field_mappings"`
	AutoGenerate       *bool             `json:"auto_generate"`
	AutoPublish        bool              `json:"auto_publish"`
	Active             *bool             `json:"active"`
}

func (in *mappingInput) apply(mapping *models.CourseMapping) error {
	mapping.DoceboDomainID = in.DoceboDomainID
	mapping.DoceboCourseID = in.DoceboCourseID
	mapping.CertopusOrgID = in.CertopusOrgID
	mapping.CertopusEventID = in.CertopusEventID
	mapping.CertopusCategoryID = in.CertopusCategoryID

	if in.FieldMappings == nil {
		in.FieldMappings = map[string]string{}
	}
	encoded, err := json.Marshal(in.FieldMappings)
	if err != nil {
		return err
	}
	mapping.FieldMappings = models.JSON(encoded)

	mapping.AutoGenerate = true
	if in.AutoGenerate != nil {
		mapping.AutoGenerate = *in.AutoGenerate
	}
	mapping.AutoPublish = in.AutoPublish
	mapping.Active = true
	if in.Active != nil {
		mapping.Active = *in.Active
	}
	return nil
}

// HandleListMappings lists course mappings with pagination.
func HandleListMappings(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetCourseMappingRepository()
	page, pageSize, offset := parsePagination(c)

	mappings, err := repo.List(offset, pageSize)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to list mappings"})
	}
	total, err := repo.Count()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to count mappings"})
	}

	return c.JSON(fiber.Map{
		"data":      mappings,
		"page":      page,
		"page_size": pageSize,
		"total":     total,
	})
}

// HandleGetMapping returns one course mapping by id.
func HandleGetMapping(c *fiber.Ctx) error {
	id, err := mappingID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid mapping id"})
	}

	mapping, err := repository.GetGlobalFactory().GetCourseMappingRepository().GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Mapping not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load mapping"})
	}
	return c.JSON(mapping)
}

// HandleCreateMapping creates a new course mapping.
func HandleCreateMapping(c *fiber.Ctx) error {
	var in mappingInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if err := mappingValidate.Struct(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}

	var mapping models.CourseMapping
	if err := in.apply(&mapping); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid field mappings"})
	}

	if err := repository.GetGlobalFactory().GetCourseMappingRepository().Create(&mapping); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create mapping"})
	}
	return c.Status(fiber.StatusCreated).JSON(mapping)
}

// HandleUpdateMapping updates an existing course mapping.
func HandleUpdateMapping(c *fiber.Ctx) error {
	id, err := mappingID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid mapping id"})
	}

	repo := repository.GetGlobalFactory().GetCourseMappingRepository()
	mapping, err := repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Mapping not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load mapping"})
	}

	var in mappingInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if err := mappingValidate.Struct(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}
	if err := in.apply(mapping); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid field mappings"})
	}

	if err := repo.Update(mapping); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update mapping"})
	}
	return c.JSON(mapping)
}

// HandleDeleteMapping deletes a course mapping.
func HandleDeleteMapping(c *fiber.Ctx) error {
	id, err := mappingID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid mapping id"})
	}

	if err := repository.GetGlobalFactory().GetCourseMappingRepository().Delete(id); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to delete mapping"})
	}
	return c.JSON(fiber.Map{"success": true})
}

func mappingID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}
