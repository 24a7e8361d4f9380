package billing

import (
	"time"

	"gorm.io/gorm"

	"github.com/avishkar-academy/vault/app/models"
	"github.com/avishkar-academy/vault/app/repository"
	"github.com/avishkar-academy/vault/internal/pkg/audit"
	"github.com/avishkar-academy/vault/internal/pkg/catalog"
	"github.com/avishkar-academy/vault/internal/pkg/entitlements"
	"github.com/avishkar-academy/vault/internal/pkg/events"
	"github.com/avishkar-academy/vault/internal/pkg/integrity"
)

const ProviderRazorpay = "razorpay"

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	Provider        string
	ProviderEventID string
	EventType       string
	PayloadJSON     string
	SignatureValid  bool
}

// GatewayOrderRequest is what the gateway needs to open an order.
type GatewayOrderRequest struct {
	Amount   int64
	Currency string
	Receipt  string
	Notes    map[string]string
}

// GatewayOrder is the gateway's view of an opened order.
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// CreateOrderInput is a purchase request. ClaimedAmount is whatever the
// client sent and never decides the charged amount.
type CreateOrderInput struct {
	UserID        string
	ItemID        string
	ClaimedAmount *int64
	IPAddress     string
}

// ConfirmInput is the client side confirmation callback.
type ConfirmInput struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
	UserID           string
	IPAddress        string
}

// ConfirmResult carries the entitlement and whether this call created it.
type ConfirmResult struct {
	Entitlement *models.Entitlement
	Created     bool
}

// Dependencies wires the order and confirmation services.
type Dependencies struct {
	DB        *gorm.DB
	Orders    repository.OrderRepository
	Items     repository.CatalogRepository
	Catalog   catalog.Reader
	Ledger    entitlements.Ledger
	Gateway   Gateway
	Validator *integrity.Validator
	Trail     *audit.Trail
	Events    events.Publisher
	KeySecret string
	Now       func() time.Time
}

func (d Dependencies) clock() func() time.Time {
	if d.Now != nil {
		return d.Now
	}
	return time.Now
}

func (d Dependencies) publisher() events.Publisher {
	if d.Events != nil {
		return d.Events
	}
	return events.Noop{}
}
