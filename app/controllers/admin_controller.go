package controllers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/avishkar-academy/vault/app/models"
	"github.com/avishkar-academy/vault/app/repository"
	"github.com/avishkar-academy/vault/internal/pkg/audit"
	"github.com/avishkar-academy/vault/internal/pkg/catalog"
	"github.com/avishkar-academy/vault/internal/pkg/enrollment"
	"github.com/avishkar-academy/vault/internal/pkg/entitlements"
	"github.com/avishkar-academy/vault/internal/pkg/jobqueue"
	"github.com/avishkar-academy/vault/internal/pkg/usercontext"
	"github.com/avishkar-academy/vault/internal/pkg/validation"
)

// ============================================================================
// ADMIN CONTROLLER - Repository Pattern
// ============================================================================

// AdminController serves the admin API. Routes are mounted behind
// RequireAdmin.
type AdminController struct {
	repos       *repository.Repositories
	catalog     catalog.Reader
	ledger      entitlements.Ledger
	enrollments *enrollment.Service
	trail       *audit.Trail
	jobs        *jobqueue.Queue
	now         func() time.Time
}

// NewAdminController creates the admin controller from the shared services
func NewAdminController(s *Services) *AdminController {
	return &AdminController{
		repos:       s.Repos,
		catalog:     s.Catalog,
		ledger:      s.Ledger,
		enrollments: s.Enrollment,
		trail:       s.Trail,
		jobs:        s.Jobs,
		now:         s.Now,
	}
}

func pageBody(page, perPage int, total int64, key string, items any) fiber.Map {
	return fiber.Map{
		key:        items,
		"page":     page,
		"per_page": perPage,
		"total":    total,
	}
}

// HandlePurchases lists entitlements, newest first.
func (ac *AdminController) HandlePurchases(c *fiber.Ctx) error {
	page, perPage, offset := pagination(c)
	rows, total, err := ac.ledger.List(c.UserContext(), offset, perPage)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(pageBody(page, perPage, total, "purchases", rows))
}

// HandleOrders lists pending orders, optionally by ?status=.
func (ac *AdminController) HandleOrders(c *fiber.Ctx) error {
	status := models.OrderStatus(strings.ToLower(c.Query("status")))
	switch status {
	case "", models.OrderStatusCreated, models.OrderStatusPaid, models.OrderStatusFailed, models.OrderStatusCancelled:
	default:
		return badRequest(c, "unknown order status")
	}
	page, perPage, offset := pagination(c)
	rows, total, err := ac.repos.Order.List(c.UserContext(), status, offset, perPage)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(pageBody(page, perPage, total, "orders", rows))
}

// HandleEnrollments lists enrollments, optionally by ?class_id=.
func (ac *AdminController) HandleEnrollments(c *fiber.Ctx) error {
	page, perPage, offset := pagination(c)
	rows, total, err := ac.enrollments.List(c.UserContext(), c.Query("class_id"), offset, perPage)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(pageBody(page, perPage, total, "enrollments", rows))
}

// HandleAuditLog lists audit entries, optionally by ?action=.
func (ac *AdminController) HandleAuditLog(c *fiber.Ctx) error {
	page, perPage, offset := pagination(c)
	rows, total, err := ac.repos.Audit.List(c.UserContext(), c.Query("action"), offset, perPage)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(pageBody(page, perPage, total, "entries", rows))
}

type assignRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

// HandleAssignRole sets the role of a user.
func (ac *AdminController) HandleAssignRole(c *fiber.Ctx) error {
	userID := strings.TrimSpace(c.Params("userId"))
	if userID == "" {
		return badRequest(c, "user id is required")
	}
	var req assignRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))
	if err := validation.Struct(req); err != nil {
		return respondError(c, err)
	}

	role, err := ac.repos.Role.Assign(c.UserContext(), userID, req.Role)
	if err != nil {
		return respondError(c, err)
	}

	actor := usercontext.GetUserID(c)
	log.Infof("[Admin] %s assigned role %s to %s", actor, req.Role, userID)
	ac.trail.Record(c.UserContext(), audit.Entry{
		Action:      models.AuditRoleAssigned,
		ActorID:     actor,
		TargetTable: "user_roles",
		TargetID:    userID,
		IPAddress:   ClientIP(c),
		Details:     map[string]any{"role": req.Role},
	})
	return c.JSON(role)
}

type setActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// HandleSetCatalogActive activates or deactivates a catalog item. Existing
// entitlements are not touched.
func (ac *AdminController) HandleSetCatalogActive(c *fiber.Ctx) error {
	var req setActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := validation.Struct(req); err != nil {
		return respondError(c, err)
	}

	item, err := ac.catalog.GetItem(c.UserContext(), c.Params("itemId"))
	if err != nil {
		return respondError(c, err)
	}
	if err := ac.repos.Catalog.SetActive(c.UserContext(), item.ID, *req.Active); err != nil {
		return respondError(c, err)
	}
	ac.catalog.Invalidate(c.UserContext())

	ac.trail.Record(c.UserContext(), audit.Entry{
		Action:      models.AuditCatalogToggled,
		ActorID:     usercontext.GetUserID(c),
		TargetTable: "catalog_items",
		TargetID:    item.ID,
		IPAddress:   ClientIP(c),
		Details:     map[string]any{"active": *req.Active, "was_active": item.Active},
	})
	item.Active = *req.Active
	return c.JSON(newCatalogItemResponse(item))
}

// QueueStats is the job queue part of the stats response.
type QueueStats struct {
	Pending    int64                        `json:"pending"`
	Processing int64                        `json:"processing"`
	ByStatus   map[jobqueue.JobStatus]int64 `json:"by_status,omitempty"`
}

// HandleStats returns sales, enrollment, queue and content view figures.
func (ac *AdminController) HandleStats(c *fiber.Ctx) error {
	ctx := c.UserContext()
	overview, err := ac.repos.Stats.Overview(ctx)
	if err != nil {
		return respondError(c, err)
	}
	views, err := ac.repos.Stats.ContentViews(ctx, c.QueryInt("top", 20))
	if err != nil {
		return respondError(c, err)
	}

	var qs QueueStats
	if qs.Pending, err = ac.repos.Queue.GetListLength(ctx, jobqueue.JobQueueKey); err != nil {
		log.Warnf("[Admin] queue length unavailable: %v", err)
	}
	if qs.Processing, err = ac.repos.Queue.GetListLength(ctx, jobqueue.JobProcessingKey); err != nil {
		log.Warnf("[Admin] processing length unavailable: %v", err)
	}
	if ac.jobs != nil {
		if qs.ByStatus, err = ac.jobs.GetJobStats(ctx); err != nil {
			log.Warnf("[Admin] job stats unavailable: %v", err)
		}
	}

	return c.JSON(fiber.Map{
		"overview":      overview,
		"queue":         qs,
		"content_views": views,
		"generated_at":  ac.now().UTC(),
	})
}
