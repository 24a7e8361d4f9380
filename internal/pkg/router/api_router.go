package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/avishkar-academy/vault/app/controllers"
	"github.com/avishkar-academy/vault/internal/pkg/constants"
	"github.com/avishkar-academy/vault/internal/pkg/middleware"
)

type ApiRouter struct {
	svc *controllers.Services
	cfg Config
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group(constants.APIRoute, newLimiter(h.cfg))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v1 routes
	v1 := api.Group("/v1")

	catalog := controllers.NewCatalogController(h.svc.Catalog)
	v1.Get("/catalog", catalog.HandleList)
	v1.Get("/catalog/:itemId", catalog.HandleGet)

	orders := controllers.NewOrderController(h.svc.Orders, h.svc.Confirmer, h.svc.Now)
	v1.Post("/orders", middleware.RequireUser, orders.HandleCreate)
	v1.Post("/orders/confirm", middleware.RequireUser, orders.HandleConfirm)

	access := controllers.NewAccessController(h.svc.Catalog, h.svc.Guard, h.svc.Ledger, h.svc.Now)
	v1.Get("/access/:itemId", middleware.RequireUser, access.HandleAccess)
	v1.Get("/me/entitlements", middleware.RequireUser, access.HandleMyEntitlements)

	// Guests may enroll
	enrollments := controllers.NewEnrollmentController(h.svc.Enrollment, h.svc.Captcha)
	v1.Post("/enrollments", enrollments.HandleEnroll)

	h.registerAdminRoutes(v1)
}

func NewApiRouter(svc *controllers.Services, cfg Config) *ApiRouter {
	return &ApiRouter{svc: svc, cfg: cfg}
}
