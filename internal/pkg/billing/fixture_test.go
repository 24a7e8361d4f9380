package billing

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/avishkar-academy/vault/app/models"
	"github.com/avishkar-academy/vault/app/repository"
	"github.com/avishkar-academy/vault/internal/pkg/audit"
	"github.com/avishkar-academy/vault/internal/pkg/catalog"
	"github.com/avishkar-academy/vault/internal/pkg/database/dbtest"
	"github.com/avishkar-academy/vault/internal/pkg/entitlements"
	"github.com/avishkar-academy/vault/internal/pkg/events"
	"github.com/avishkar-academy/vault/internal/pkg/integrity"
)

const testKeySecret = "rzp_test_secret"

type fakeGateway struct {
	mu       sync.Mutex
	n        int
	err      error
	requests []GatewayOrderRequest
}

func (g *fakeGateway) CreateOrder(_ context.Context, req GatewayOrderRequest) (*GatewayOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.err != nil {
		return nil, g.err
	}
	g.n++
	return &GatewayOrder{ID: fmt.Sprintf("order_test%03d", g.n), Amount: req.Amount, Currency: req.Currency, Receipt: req.Receipt, Status: "created"}, nil
}

func (g *fakeGateway) PublicKeyID() string { return "rzp_test_key" }

type fixture struct {
	db        *gorm.DB
	repos     *repository.Repositories
	ledger    entitlements.Ledger
	guard     *entitlements.Guard
	gateway   *fakeGateway
	events    *events.Recorder
	orders    *OrderService
	confirmer *Confirmer
	processor *WebhookProcessor
	now       time.Time
	item      *models.CatalogItem
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	repos := repository.NewRepositories(db, nil)
	f := &fixture{
		db:      db,
		repos:   repos,
		ledger:  entitlements.NewLedger(db),
		gateway: &fakeGateway{},
		events:  &events.Recorder{},
		now:     time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC),
	}
	f.guard = entitlements.NewGuard(f.ledger)

	reader := catalog.NewReader(repos.Catalog, nil)
	trail := audit.NewTrail(repos.Audit)
	deps := Dependencies{
		DB:        db,
		Orders:    repos.Order,
		Items:     repos.Catalog,
		Catalog:   reader,
		Ledger:    f.ledger,
		Gateway:   f.gateway,
		Validator: integrity.NewValidator(reader, repos.Enrollment, trail),
		Trail:     trail,
		Events:    f.events,
		KeySecret: testKeySecret,
		Now:       func() time.Time { return f.now },
	}
	f.orders = NewOrderService(deps)
	f.confirmer = NewConfirmer(deps)
	f.processor = NewWebhookProcessor(f.confirmer, f.orders)

	f.item = f.addItem(t, &models.CatalogItem{
		Title:          "Quantitative aptitude pack",
		PriceMinor:     29900,
		IsPremium:      true,
		Active:         true,
		DurationType:   models.DurationTypeMonths,
		DurationMonths: 3,
		ContentRef:     "https://cdn.example.com/quant.pdf",
	})
	return f
}

func (f *fixture) addItem(t *testing.T, item *models.CatalogItem) *models.CatalogItem {
	t.Helper()
	require.NoError(t, f.repos.Catalog.Create(context.Background(), item))
	return item
}

// placeOrder creates an order for user on item and returns it.
func (f *fixture) placeOrder(t *testing.T, userID string, item *models.CatalogItem) *models.PendingOrder {
	t.Helper()
	order, err := f.orders.CreateOrder(context.Background(), CreateOrderInput{UserID: userID, ItemID: item.ID})
	require.NoError(t, err)
	return order
}

func (f *fixture) countEntitlements(t *testing.T, paymentID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.Entitlement{}).Where("gateway_payment_id = ?", paymentID).Count(&n).Error)
	return n
}
