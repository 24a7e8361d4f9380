package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/avishkar-academy/vault/internal/pkg/catalog"
	"github.com/avishkar-academy/vault/internal/pkg/entitlements"
	"github.com/avishkar-academy/vault/internal/pkg/usercontext"
)

// AccessResponse summarises a user's access to one item.
type AccessResponse struct {
	ItemID    string     `json:"item_id"`
	HasAccess bool       `json:"has_access"`
	Reason    string     `json:"reason,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Lifetime  bool       `json:"lifetime"`
	Remaining string     `json:"remaining,omitempty"`
}

// AccessController answers entitlement questions for the caller.
type AccessController struct {
	catalog catalog.Reader
	guard   *entitlements.Guard
	ledger  entitlements.Ledger
	now     func() time.Time
}

func NewAccessController(reader catalog.Reader, guard *entitlements.Guard, ledger entitlements.Ledger, now func() time.Time) *AccessController {
	if now == nil {
		now = time.Now
	}
	return &AccessController{catalog: reader, guard: guard, ledger: ledger, now: now}
}

// HandleAccess reports whether the caller holds an active entitlement.
// Inactive items still answer for existing holders.
func (ac *AccessController) HandleAccess(c *fiber.Ctx) error {
	item, err := ac.catalog.GetItem(c.UserContext(), c.Params("itemId"))
	if err != nil {
		return respondError(c, err)
	}

	now := ac.now()
	d, err := ac.guard.Check(c.UserContext(), usercontext.GetUserID(c), item.ID, now)
	if err != nil {
		return respondError(c, err)
	}

	resp := AccessResponse{ItemID: item.ID, HasAccess: d.Allowed, Lifetime: d.Lifetime()}
	if !d.Allowed {
		resp.Reason = d.Reason
	}
	if exp := d.ExpiresAt(); exp != nil && !d.Lifetime() {
		resp.ExpiresAt = exp
	}
	if d.Allowed && d.Entitlement != nil {
		resp.Remaining = entitlements.RemainingLabel(d.Entitlement.ExpiresAt, now)
	}
	return c.JSON(resp)
}

// HandleMyEntitlements lists the latest grant per item for the caller.
func (ac *AccessController) HandleMyEntitlements(c *fiber.Ctx) error {
	rows, err := ac.ledger.ListByUser(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}

	now := ac.now()
	seen := make(map[string]bool, len(rows))
	out := make([]EntitlementResponse, 0, len(rows))
	// rows are newest first
	for i := range rows {
		if seen[rows[i].CatalogItemID] {
			continue
		}
		seen[rows[i].CatalogItemID] = true
		out = append(out, newEntitlementResponse(&rows[i], now))
	}
	return c.JSON(fiber.Map{"entitlements": out})
}
