package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/avishkar-academy/vault/app/controllers"
	"github.com/avishkar-academy/vault/internal/pkg/middleware"
)

func (h ApiRouter) registerAdminRoutes(v1 fiber.Router) {
	admin := controllers.NewAdminController(h.svc)

	adminGroup := v1.Group("/admin", middleware.RequireAdmin)
	adminGroup.Get("/purchases", admin.HandlePurchases)
	adminGroup.Get("/orders", admin.HandleOrders)
	adminGroup.Get("/enrollments", admin.HandleEnrollments)
	adminGroup.Get("/audit", admin.HandleAuditLog)
	adminGroup.Get("/stats", admin.HandleStats)

	adminGroup.Put("/roles/:userId", admin.HandleAssignRole)
	adminGroup.Patch("/catalog/:itemId/active", admin.HandleSetCatalogActive)
}
