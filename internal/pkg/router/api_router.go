package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/certbridge/certbridge/app/controllers"
	"github.com/certbridge/certbridge/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v1 routes, all behind the admin API key
	v1 := api.Group("/v1", middleware.APIKeyAuthMiddleware())

	v1.Get("/dashboard/stats", controllers.HandleDashboardStats)

	v1.Get("/webhooks", controllers.HandleListWebhookEvents)
	v1.Get("/webhooks/:messageId", controllers.HandleGetWebhookEvent)

	v1.Get("/certificates", controllers.HandleListCertificates)
	v1.Get("/certificates/:uuid", controllers.HandleGetCertificate)
	v1.Post("/certificates/:uuid/retry", controllers.HandleRetryCertificate)

	v1.Get("/mappings", controllers.HandleListMappings)
	v1.Post("/mappings", controllers.HandleCreateMapping)
	v1.Get("/mappings/:id", controllers.HandleGetMapping)
	v1.Put("/mappings/:id", controllers.HandleUpdateMapping)
	v1.Delete("/mappings/:id", controllers.HandleDeleteMapping)

	v1.Get("/domains", controllers.HandleListDomains)
	v1.Put("/domains/:id", controllers.HandleUpdateDomain)

	v1.Get("/certopus/organisations", controllers.HandleCertopusOrganisations)
	v1.Get("/certopus/events", controllers.HandleCertopusEvents)
	v1.Get("/certopus/categories", controllers.HandleCertopusCategories)
	v1.Get("/certopus/recipient-fields", controllers.HandleCertopusRecipientFields)

	v1.Get("/docebo/courses", controllers.HandleDoceboCourses)
	v1.Post("/docebo/test", controllers.HandleDoceboTestConnection)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
