package billing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/avishkar-academy/vault/app/models"
	"github.com/avishkar-academy/vault/internal/pkg/apperrors"
	"github.com/avishkar-academy/vault/internal/pkg/audit"
	"github.com/avishkar-academy/vault/internal/pkg/entitlements"
	"github.com/avishkar-academy/vault/internal/pkg/events"
)

// errConfirmedElsewhere signals that another request already moved the
// order to paid for the same payment.
var errConfirmedElsewhere = errors.New("order confirmed by a concurrent request")

// Confirmer turns verified payments into entitlements, at most once per
// gateway payment id.
type Confirmer struct {
	deps Dependencies
	now  func() time.Time
}

func NewConfirmer(deps Dependencies) *Confirmer {
	return &Confirmer{deps: deps, now: deps.clock()}
}

type capturedPayment struct {
	amount   int64
	currency string
}

// ConfirmPayment handles the checkout callback. The signature is verified
// before anything is read or written.
func (c *Confirmer) ConfirmPayment(ctx context.Context, in ConfirmInput) (*ConfirmResult, error) {
	orderID := strings.TrimSpace(in.GatewayOrderID)
	paymentID := strings.TrimSpace(in.GatewayPaymentID)
	if orderID == "" || paymentID == "" || strings.TrimSpace(in.Signature) == "" {
		return nil, apperrors.Validation("gateway_order_id, gateway_payment_id and signature are required")
	}
	if !VerifyPaymentSignature(orderID, paymentID, in.Signature, c.deps.KeySecret) {
		log.Warnf("[Confirmer] signature rejected order=%s payment=%s user=%s ip=%s", orderID, paymentID, in.UserID, in.IPAddress)
		c.deps.Trail.Record(ctx, audit.Entry{
			Action:      models.AuditSignatureRejected,
			ActorID:     in.UserID,
			TargetTable: "pending_orders",
			TargetID:    orderID,
			IPAddress:   in.IPAddress,
			Details:     map[string]any{"payment_id": paymentID, "source": "checkout"},
		})
		return nil, apperrors.Integrity("payment signature verification failed")
	}
	return c.confirm(ctx, orderID, paymentID, in.UserID, nil)
}

// ConfirmCaptured handles a payment.captured webhook whose body signature
// the caller already verified. The captured amount must equal the order.
func (c *Confirmer) ConfirmCaptured(ctx context.Context, ev *PaymentEvent) (*ConfirmResult, error) {
	if ev == nil || !ev.IsPaymentEvent() {
		return nil, apperrors.Validation("webhook payload has no payment/order id")
	}
	return c.confirm(ctx, ev.OrderID, ev.PaymentID, "", &capturedPayment{amount: ev.Amount, currency: ev.Currency})
}

func (c *Confirmer) confirm(ctx context.Context, orderID, paymentID, actorID string, captured *capturedPayment) (*ConfirmResult, error) {
	existing, err := c.deps.Ledger.FindByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.GatewayOrderID != orderID {
			log.Warnf("[Confirmer] payment %s already granted for order %s, requested for %s", paymentID, existing.GatewayOrderID, orderID)
		}
		return &ConfirmResult{Entitlement: existing}, nil
	}

	var result *ConfirmResult
	err = c.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := c.deps.Orders.WithTx(tx).GetByGatewayOrderID(ctx, orderID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("order %s", orderID)
		}
		if err != nil {
			return err
		}
		if actorID != "" && order.UserID != actorID {
			return apperrors.New(apperrors.KindForbidden, "order %s belongs to another user", orderID)
		}

		switch {
		case order.Status == models.OrderStatusPaid:
			if order.PaymentID() == paymentID {
				return errConfirmedElsewhere
			}
			return apperrors.New(apperrors.KindInvalidState, "order %s was paid with a different payment", orderID)
		case !order.Status.CanTransitionTo(models.OrderStatusPaid):
			return apperrors.New(apperrors.KindInvalidState, "order %s is %s", orderID, order.Status)
		case order.Status != models.OrderStatusCreated:
			log.Warnf("[Confirmer] payment %s arrived for %s order %s", paymentID, order.Status, orderID)
		}

		if captured != nil && (captured.amount != order.Amount || !strings.EqualFold(captured.currency, order.Currency)) {
			return apperrors.New(apperrors.KindPriceMismatch, "captured %d %s does not match order amount %d %s",
				captured.amount, captured.currency, order.Amount, order.Currency)
		}

		item, err := c.deps.Items.WithTx(tx).GetByID(ctx, order.CatalogItemID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("catalog item %s", order.CatalogItemID)
		}
		if err != nil {
			return err
		}

		ok, err := order.MarkPaid(tx.WithContext(ctx), paymentID)
		if err != nil {
			return err
		}
		if !ok {
			return errConfirmedElsewhere
		}

		grantedAt := c.now().UTC()
		stored, created, err := c.deps.Ledger.WithTx(tx).Insert(ctx, &models.Entitlement{
			UserID:           order.UserID,
			CatalogItemID:    order.CatalogItemID,
			GatewayOrderID:   order.GatewayOrderID,
			GatewayPaymentID: paymentID,
			Amount:           order.Amount,
			Currency:         order.Currency,
			GrantedAt:        grantedAt,
			ExpiresAt:        entitlements.PolicyFor(item).ExpiresAt(grantedAt),
		})
		if err != nil {
			return err
		}
		result = &ConfirmResult{Entitlement: stored, Created: created}
		return nil
	})

	if errors.Is(err, errConfirmedElsewhere) {
		stored, ferr := c.deps.Ledger.FindByPaymentID(ctx, paymentID)
		if ferr != nil {
			return nil, ferr
		}
		if stored == nil {
			return nil, apperrors.New(apperrors.KindInvalidState, "order %s is paid but has no entitlement", orderID)
		}
		return &ConfirmResult{Entitlement: stored}, nil
	}
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindPriceMismatch {
			log.Errorf("[Confirmer] %v", err)
			c.deps.Trail.Record(ctx, audit.Entry{
				Action:      models.AuditPriceMismatch,
				TargetTable: "pending_orders",
				TargetID:    orderID,
				Details:     map[string]any{"payment_id": paymentID, "source": "webhook"},
			})
		}
		return nil, err
	}

	if result.Created {
		e := result.Entitlement
		log.Infof("[Confirmer] granted item=%s to user=%s payment=%s expires=%s", e.CatalogItemID, e.UserID, paymentID, e.ExpiresAt.Format(time.RFC3339))
		c.deps.Trail.Record(ctx, audit.Entry{
			Action:      models.AuditPaymentConfirmed,
			ActorID:     e.UserID,
			TargetTable: "entitlements",
			TargetID:    paymentID,
			Details:     map[string]any{"order_id": orderID, "item_id": e.CatalogItemID, "amount": e.Amount},
		})
		if env, err := events.NewEnvelope(events.TypeEntitlementGranted, e.UserID, e); err == nil {
			c.deps.publisher().Publish(ctx, env)
		}
	}
	return result, nil
}
