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
	"github.com/avishkar-academy/vault/internal/pkg/events"
	"github.com/avishkar-academy/vault/internal/pkg/receipt"
)

// OrderService opens pending orders. The charged amount always comes from
// the catalog; nothing the client sends can change it.
type OrderService struct {
	deps Dependencies
	now  func() time.Time
}

func NewOrderService(deps Dependencies) *OrderService {
	return &OrderService{deps: deps, now: deps.clock()}
}

// PublicKeyID returns the gateway key the checkout widget needs.
func (s *OrderService) PublicKeyID() string {
	return s.deps.Gateway.PublicKeyID()
}

func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.PendingOrder, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return nil, apperrors.New(apperrors.KindAuthenticationRequired, "login required to purchase")
	}

	item, err := s.deps.Catalog.GetPurchasable(ctx, strings.TrimSpace(in.ItemID))
	if err != nil {
		return nil, err
	}
	if item.IsFree() || item.PriceMinor <= 0 {
		return nil, apperrors.New(apperrors.KindInvalidState, "catalog item %s does not require a purchase", item.ID)
	}

	// A differing client amount is recorded as a tampering signal; the order
	// still uses the catalog price.
	if in.ClaimedAmount != nil && s.deps.Validator != nil {
		if err := s.deps.Validator.ComparePrice(ctx, item, *in.ClaimedAmount, userID); err != nil {
			log.Warnf("[OrderService] ignoring client amount for item=%s user=%s: %v", item.ID, userID, err)
		}
	}

	rcpt, err := receipt.New(s.now())
	if err != nil {
		return nil, err
	}

	gwOrder, err := s.deps.Gateway.CreateOrder(ctx, GatewayOrderRequest{
		Amount:   item.PriceMinor,
		Currency: item.Currency,
		Receipt:  rcpt,
		Notes:    map[string]string{"item_id": item.ID, "user_id": userID},
	})
	if err != nil {
		log.Errorf("[OrderService] gateway order failed item=%s user=%s: %v", item.ID, userID, err)
		return nil, err
	}

	order := &models.PendingOrder{
		GatewayOrderID: gwOrder.ID,
		Receipt:        rcpt,
		CatalogItemID:  item.ID,
		UserID:         userID,
		Amount:         item.PriceMinor,
		Currency:       item.Currency,
		Status:         models.OrderStatusCreated,
	}
	if err := s.deps.Orders.Create(ctx, order); err != nil {
		return nil, err
	}

	s.deps.Trail.Record(ctx, audit.Entry{
		Action:      models.AuditOrderCreated,
		ActorID:     userID,
		TargetTable: "pending_orders",
		TargetID:    order.GatewayOrderID,
		IPAddress:   in.IPAddress,
		Details:     map[string]any{"item_id": item.ID, "amount": order.Amount},
	})
	if env, err := events.NewEnvelope(events.TypeOrderCreated, userID, order); err == nil {
		s.deps.publisher().Publish(ctx, env)
	}
	return order, nil
}

// RecordPaymentFailure stores a failed payment attempt reported by the
// gateway. The order stays payable so a retry on the same gateway order can
// still be confirmed. Orders that already left the created state are left
// untouched.
func (s *OrderService) RecordPaymentFailure(ctx context.Context, gatewayOrderID, reason string) (bool, error) {
	order, err := s.deps.Orders.GetByGatewayOrderID(ctx, gatewayOrderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, apperrors.NotFound("order %s", gatewayOrderID)
	}
	if err != nil {
		return false, err
	}
	ok, err := order.RecordFailedAttempt(s.deps.Orders.DB().WithContext(ctx), reason)
	if err != nil || !ok {
		return ok, err
	}
	s.deps.Trail.Record(ctx, audit.Entry{
		Action:      models.AuditPaymentFailed,
		ActorID:     order.UserID,
		TargetTable: "pending_orders",
		TargetID:    order.GatewayOrderID,
		Details:     map[string]any{"reason": models.TruncateReason(reason)},
	})
	return true, nil
}

// ExpireStaleOrders cancels created orders older than maxAge.
func (s *OrderService) ExpireStaleOrders(ctx context.Context, maxAge time.Duration) (int64, error) {
	n, err := s.deps.Orders.CancelStale(ctx, s.now().Add(-maxAge))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Infof("[OrderService] cancelled %d stale order(s)", n)
		s.deps.Trail.Record(ctx, audit.Entry{
			Action:      models.AuditStaleOrdersExpired,
			TargetTable: "pending_orders",
			Details:     map[string]any{"count": n, "max_age": maxAge.String()},
		})
	}
	return n, nil
}
