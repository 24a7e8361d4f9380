package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/avishkar-academy/vault/app/models"
	"github.com/avishkar-academy/vault/internal/pkg/billing"
	"github.com/avishkar-academy/vault/internal/pkg/entitlements"
	"github.com/avishkar-academy/vault/internal/pkg/money"
	"github.com/avishkar-academy/vault/internal/pkg/usercontext"
)

type createOrderRequest struct {
	ItemID string `json:"item_id"`
	// Amount is accepted for compatibility with older checkouts and is
	// only compared against the catalog price.
	Amount *int64 `json:"amount,omitempty"`
}

type confirmOrderRequest struct {
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	Signature        string `json:"signature"`
}

// OrderResponse is what the checkout widget needs to open a payment.
type OrderResponse struct {
	GatewayOrderID string             `json:"gateway_order_id"`
	Receipt        string             `json:"receipt"`
	ItemID         string             `json:"item_id"`
	Amount         int64              `json:"amount"`
	Currency       string             `json:"currency"`
	AmountLabel    string             `json:"amount_label"`
	Status         models.OrderStatus `json:"status"`
	KeyID          string             `json:"key_id"`
}

// EntitlementResponse describes one grant.
type EntitlementResponse struct {
	ItemID           string    `json:"item_id"`
	GatewayOrderID   string    `json:"gateway_order_id"`
	GatewayPaymentID string    `json:"gateway_payment_id"`
	Amount           int64     `json:"amount"`
	Currency         string    `json:"currency"`
	GrantedAt        time.Time `json:"granted_at"`
	ExpiresAt        time.Time `json:"expires_at"`
	Lifetime         bool      `json:"lifetime"`
	Active           bool      `json:"active"`
	Remaining        string    `json:"remaining"`
}

func newEntitlementResponse(e *models.Entitlement, now time.Time) EntitlementResponse {
	return EntitlementResponse{
		ItemID:           e.CatalogItemID,
		GatewayOrderID:   e.GatewayOrderID,
		GatewayPaymentID: e.GatewayPaymentID,
		Amount:           e.Amount,
		Currency:         e.Currency,
		GrantedAt:        e.GrantedAt,
		ExpiresAt:        e.ExpiresAt,
		Lifetime:         entitlements.IsLifetime(e.ExpiresAt),
		Active:           now.Before(e.ExpiresAt),
		Remaining:        entitlements.RemainingLabel(e.ExpiresAt, now),
	}
}

// OrderController opens and confirms purchases.
type OrderController struct {
	orders    *billing.OrderService
	confirmer *billing.Confirmer
	now       func() time.Time
}

func NewOrderController(orders *billing.OrderService, confirmer *billing.Confirmer, now func() time.Time) *OrderController {
	if now == nil {
		now = time.Now
	}
	return &OrderController{orders: orders, confirmer: confirmer, now: now}
}

// HandleCreate opens a pending order at the catalog price.
func (oc *OrderController) HandleCreate(c *fiber.Ctx) error {
	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	order, err := oc.orders.CreateOrder(c.UserContext(), billing.CreateOrderInput{
		UserID:        usercontext.GetUserID(c),
		ItemID:        req.ItemID,
		ClaimedAmount: req.Amount,
		IPAddress:     ClientIP(c),
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(OrderResponse{
		GatewayOrderID: order.GatewayOrderID,
		Receipt:        order.Receipt,
		ItemID:         order.CatalogItemID,
		Amount:         order.Amount,
		Currency:       order.Currency,
		AmountLabel:    money.Format(order.Amount, order.Currency),
		Status:         order.Status,
		KeyID:          oc.orders.PublicKeyID(),
	})
}

// HandleConfirm verifies the checkout signature and grants the entitlement.
// A repeated confirmation returns the existing grant with 200.
func (oc *OrderController) HandleConfirm(c *fiber.Ctx) error {
	var req confirmOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	res, err := oc.confirmer.ConfirmPayment(c.UserContext(), billing.ConfirmInput{
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		Signature:        req.Signature,
		UserID:           usercontext.GetUserID(c),
		IPAddress:        ClientIP(c),
	})
	if err != nil {
		return respondError(c, err)
	}

	status := fiber.StatusOK
	if res.Created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{
		"created":     res.Created,
		"entitlement": newEntitlementResponse(res.Entitlement, oc.now()),
	})
}
