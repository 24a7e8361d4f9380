package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/avishkar-academy/vault/app/controllers"
	"github.com/avishkar-academy/vault/internal/pkg/constants"
	"github.com/avishkar-academy/vault/internal/pkg/middleware"
)

// HttpRouter installs the identity middleware, the HTML content pages, the
// gateway webhook and the health check.
type HttpRouter struct {
	svc *controllers.Services
	cfg Config
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// Resolve the caller for every request
	app.Use(middleware.Identify(middleware.IdentityConfig{
		Secret: h.cfg.IdentitySecret,
		Roles:  h.svc.Repos.Role,
		Now:    h.svc.Now,
	}))

	app.Get(constants.HealthRoute, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	webhooks := controllers.NewWebhookController(h.svc.WebhookLog, h.svc.Webhooks, h.svc.Trail, h.svc.WebhookSecret)
	app.Post(constants.WebhookRoute, webhooks.HandleRazorpay)

	contents := controllers.NewContentController(h.svc.Content, h.cfg.PurchaseURL, h.svc.Now)
	contentGroup := app.Group(constants.ContentRoute, newLimiter(h.cfg))
	contentGroup.Get("/:itemId", contents.HandleView)
	contentGroup.Get("/:itemId/file", contents.HandleFile)
}

func NewHttpRouter(svc *controllers.Services, cfg Config) *HttpRouter {
	return &HttpRouter{svc: svc, cfg: cfg}
}
