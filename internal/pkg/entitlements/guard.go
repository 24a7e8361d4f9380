package entitlements

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/avishkar-academy/vault/app/models"
)

// Denial reasons reported by Guard.Check.
const (
	ReasonNoEntitlement = "no_entitlement"
	ReasonExpired       = "expired"
	ReasonAnonymous     = "anonymous"
)

// Decision is the outcome of an access check.
type Decision struct {
	Allowed     bool
	Reason      string
	Entitlement *models.Entitlement
}

// Lifetime reports whether access never expires.
func (d *Decision) Lifetime() bool {
	return d.Entitlement != nil && IsLifetime(d.Entitlement.ExpiresAt)
}

// ExpiresAt returns the expiry of the deciding entitlement, if any.
func (d *Decision) ExpiresAt() *time.Time {
	if d.Entitlement == nil {
		return nil
	}
	t := d.Entitlement.ExpiresAt
	return &t
}

// Guard decides whether a user may open premium content.
type Guard struct {
	ledger Ledger
}

func NewGuard(ledger Ledger) *Guard {
	return &Guard{ledger: ledger}
}

// Check looks at the most recently granted entitlement for the pair. Access
// is granted for lifetime grants or while the expiry lies after now.
// Storage errors deny.
func (g *Guard) Check(ctx context.Context, userID, itemID string, now time.Time) (*Decision, error) {
	if userID == "" {
		return &Decision{Reason: ReasonAnonymous}, nil
	}
	e, err := g.ledger.FindLatest(ctx, userID, itemID)
	if err != nil {
		log.Errorf("[AccessGuard] lookup failed user=%s item=%s: %v", userID, itemID, err)
		return &Decision{Reason: ReasonNoEntitlement}, err
	}
	if e == nil {
		return &Decision{Reason: ReasonNoEntitlement}, nil
	}
	if IsLifetime(e.ExpiresAt) || e.ExpiresAt.After(now) {
		return &Decision{Allowed: true, Entitlement: e}, nil
	}
	return &Decision{Reason: ReasonExpired, Entitlement: e}, nil
}

// HasActiveAccess is the boolean form of Check.
func (g *Guard) HasActiveAccess(ctx context.Context, userID, itemID string, now time.Time) (bool, error) {
	d, err := g.Check(ctx, userID, itemID, now)
	if err != nil {
		return false, err
	}
	return d.Allowed, nil
}
