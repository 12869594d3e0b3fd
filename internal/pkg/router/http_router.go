package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/certbridge/certbridge/app/controllers"
)

type HttpRouter struct {
}

// InstallRouter registers the routes that must stay reachable without
// credentials: the Docebo webhook receiver and the health probe.
func (h HttpRouter) InstallRouter(app *fiber.App) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Post("/webhook", controllers.HandleDoceboWebhook)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
