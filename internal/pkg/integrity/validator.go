// Package integrity holds the pre-conditions checked before anything is
// persisted or charged: price integrity and duplicate enrollment.
package integrity

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/avishkar-academy/vault/app/models"
	"github.com/avishkar-academy/vault/app/repository"
	"github.com/avishkar-academy/vault/internal/pkg/apperrors"
	"github.com/avishkar-academy/vault/internal/pkg/audit"
	"github.com/avishkar-academy/vault/internal/pkg/catalog"
	"github.com/avishkar-academy/vault/internal/pkg/money"
)

type Validator struct {
	catalog     catalog.Reader
	enrollments repository.EnrollmentRepository
	trail       *audit.Trail
}

func NewValidator(reader catalog.Reader, enrollments repository.EnrollmentRepository, trail *audit.Trail) *Validator {
	return &Validator{catalog: reader, enrollments: enrollments, trail: trail}
}

// CheckPriceIntegrity compares a client claimed amount (minor units) with the
// catalog price. A nil claim passes. A mismatch is audited as a potential
// tampering attempt and returned as PriceMismatch.
func (v *Validator) CheckPriceIntegrity(ctx context.Context, itemID string, claimedAmount *int64, actorID string) error {
	if claimedAmount == nil {
		return nil
	}
	item, err := v.catalog.GetItem(ctx, itemID)
	if err != nil {
		return err
	}
	return v.ComparePrice(ctx, item, *claimedAmount, actorID)
}

// ComparePrice is CheckPriceIntegrity for an already loaded item.
func (v *Validator) ComparePrice(ctx context.Context, item *models.CatalogItem, claimed int64, actorID string) error {
	if claimed == item.PriceMinor {
		return nil
	}
	log.Warnf("[Integrity] price mismatch item=%s claimed=%d price=%d actor=%s", item.ID, claimed, item.PriceMinor, actorID)
	v.trail.Record(ctx, audit.Entry{
		Action:      models.AuditPriceMismatch,
		ActorID:     actorID,
		TargetTable: "catalog_items",
		TargetID:    item.ID,
		Details:     map[string]any{"claimed_amount": claimed, "price": item.PriceMinor},
	})
	return apperrors.New(apperrors.KindPriceMismatch, "amount %s does not match price %s",
		money.Format(claimed, item.Currency), money.Format(item.PriceMinor, item.Currency))
}

// CheckDuplicate fails with AlreadyEnrolled when the email already holds a
// seat in the class.
func (v *Validator) CheckDuplicate(ctx context.Context, email, classID string) error {
	exists, err := v.enrollments.Exists(ctx, NormalizeEmail(email), classID)
	if err != nil {
		return err
	}
	if exists {
		return apperrors.New(apperrors.KindAlreadyEnrolled, "%s is already enrolled in this class", NormalizeEmail(email))
	}
	return nil
}

// NormalizeEmail is the canonical form used for the enrollment natural key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
