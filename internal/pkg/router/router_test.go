package router

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avishkar-academy/vault/app/controllers"
	"github.com/avishkar-academy/vault/app/models"
	"github.com/avishkar-academy/vault/internal/pkg/billing"
	"github.com/avishkar-academy/vault/internal/pkg/database/dbtest"
	"github.com/avishkar-academy/vault/internal/pkg/events"
	"github.com/avishkar-academy/vault/internal/pkg/security"
)

const (
	identitySecret = "identity-secret"
	keySecret      = "rzp-key-secret"
	webhookSecret  = "rzp-webhook-secret"
)

type fakeGateway struct {
	mu sync.Mutex
	n  int
}

func (g *fakeGateway) CreateOrder(_ context.Context, req billing.GatewayOrderRequest) (*billing.GatewayOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return &billing.GatewayOrder{ID: fmt.Sprintf("order_http%03d", g.n), Amount: req.Amount, Currency: req.Currency, Receipt: req.Receipt, Status: "created"}, nil
}

func (g *fakeGateway) PublicKeyID() string { return "rzp_test_key" }

type testEnv struct {
	app    *fiber.App
	svc    *controllers.Services
	events *events.Recorder
	now    time.Time
	notes  *models.CatalogItem
	class  *models.CatalogItem
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	rec := &events.Recorder{}
	svc := controllers.NewServices(controllers.Infrastructure{
		DB:            dbtest.Open(t),
		Gateway:       &fakeGateway{},
		Events:        rec,
		KeySecret:     keySecret,
		WebhookSecret: webhookSecret,
		LinkSecret:    "link-secret",
		Now:           func() time.Time { return now },
	})

	ctx := context.Background()
	notes := &models.CatalogItem{
		Kind:           models.CatalogKindMaterial,
		Title:          "Physics Notes",
		PriceMinor:     29900,
		IsPremium:      true,
		DurationType:   models.DurationTypeMonths,
		DurationMonths: 3,
		Active:         true,
		ContentRef:     "https://cdn.example.com/physics.pdf",
	}
	require.NoError(t, svc.Repos.Catalog.Create(ctx, notes))
	classDate := now.AddDate(0, 1, 0)
	class := &models.CatalogItem{
		Kind:      models.CatalogKindClass,
		Title:     "Orientation",
		Active:    true,
		ClassDate: &classDate,
	}
	require.NoError(t, svc.Repos.Catalog.Create(ctx, class))

	app := fiber.New()
	InstallRouter(app, svc, Config{IdentitySecret: identitySecret})
	return &testEnv{app: app, svc: svc, events: rec, now: now, notes: notes, class: class}
}

func (e *testEnv) token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := security.IssueIdentityToken(security.IdentityClaims{
		Email:            userID + "@example.com",
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID},
	}, time.Hour, identitySecret, e.now)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(t *testing.T, method, path, userID string, body any) (*http.Response, string) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(raw))
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+e.token(t, userID))
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	return resp, string(raw)
}

func decode(t *testing.T, body string) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &out), body)
	return out
}

var fileLink = regexp.MustCompile(`/content/[^/"]+/file\?token=([A-Za-z0-9_.%\-]+)`)

func TestPurchaseAndContentFlow(t *testing.T) {
	e := newTestEnv(t)
	itemID := e.notes.ID

	resp, _ := e.do(t, http.MethodPost, "/api/v1/orders", "", map[string]any{"item_id": itemID})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// The client amount never decides the charge
	resp, body := e.do(t, http.MethodPost, "/api/v1/orders", "u1", map[string]any{"item_id": itemID, "amount": 1})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, body)
	order := decode(t, body)
	assert.EqualValues(t, 29900, order["amount"])
	assert.Equal(t, "rzp_test_key", order["key_id"])
	orderID := order["gateway_order_id"].(string)

	resp, body = e.do(t, http.MethodGet, "/api/v1/access/"+itemID, "u1", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, false, decode(t, body)["has_access"])

	resp, body = e.do(t, http.MethodGet, "/content/"+itemID, "u1", nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.NotContains(t, body, "cdn.example.com")

	confirm := map[string]any{
		"gateway_order_id":   orderID,
		"gateway_payment_id": "pay_http1",
		"signature":          "bad",
	}
	resp, body = e.do(t, http.MethodPost, "/api/v1/orders/confirm", "u1", confirm)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "integrity_error", decode(t, body)["error"])

	confirm["signature"] = billing.SignPayment(orderID, "pay_http1", keySecret)
	resp, body = e.do(t, http.MethodPost, "/api/v1/orders/confirm", "u1", confirm)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, body)
	assert.Equal(t, true, decode(t, body)["created"])

	resp, body = e.do(t, http.MethodPost, "/api/v1/orders/confirm", "u1", confirm)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body)
	assert.Equal(t, false, decode(t, body)["created"])

	resp, body = e.do(t, http.MethodGet, "/api/v1/access/"+itemID, "u1", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	access := decode(t, body)
	assert.Equal(t, true, access["has_access"])
	assert.Contains(t, access["expires_at"], "2025-06-01T09:00:00")
	assert.NotEmpty(t, access["remaining"])

	resp, body = e.do(t, http.MethodGet, "/content/"+itemID, "u1", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-store", resp.Header.Get(fiber.HeaderCacheControl))
	assert.NotContains(t, body, "cdn.example.com")
	m := fileLink.FindStringSubmatch(body)
	require.Len(t, m, 2, body)

	resp, _ = e.do(t, http.MethodGet, "/content/"+itemID+"/file?token="+m[1], "", nil)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://cdn.example.com/physics.pdf", resp.Header.Get(fiber.HeaderLocation))

	resp, _ = e.do(t, http.MethodGet, "/content/"+itemID+"/file?token=forged", "", nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, body = e.do(t, http.MethodGet, "/api/v1/me/entitlements", "u1", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, decode(t, body)["entitlements"], 1)
}

func signWebhook(body []byte) string {
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (e *testEnv) webhook(t *testing.T, eventID string, body []byte, signature string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/razorpay", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Razorpay-Signature", signature)
	req.Header.Set("X-Razorpay-Event-Id", eventID)
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, decode(t, string(raw))
}

func TestWebhookGrantsOnceAndRejectsBadSignature(t *testing.T) {
	e := newTestEnv(t)

	resp, body := e.do(t, http.MethodPost, "/api/v1/orders", "u2", map[string]any{"item_id": e.notes.ID})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, body)
	orderID := decode(t, body)["gateway_order_id"].(string)

	payload := []byte(fmt.Sprintf(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_wh1","order_id":%q,"amount":29900,"currency":"INR","status":"captured"}}}}`, orderID))

	status, out := e.webhook(t, "evt_1", payload, "deadbeef")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "invalid_signature", out["error"])

	ok, err := e.svc.Guard.HasActiveAccess(context.Background(), "u2", e.notes.ID, e.now)
	require.NoError(t, err)
	assert.False(t, ok)

	status, out = e.webhook(t, "evt_1", payload, signWebhook(payload))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, out["ok"])

	status, out = e.webhook(t, "evt_1", payload, signWebhook(payload))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, out["duplicate"])

	ok, err = e.svc.Guard.HasActiveAccess(context.Background(), "u2", e.notes.ID, e.now)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, e.events.OfType(events.TypeEntitlementGranted), 1)

	// The checkout callback for the same payment returns the webhook's grant
	resp, body = e.do(t, http.MethodPost, "/api/v1/orders/confirm", "u2", map[string]any{
		"gateway_order_id":   orderID,
		"gateway_payment_id": "pay_wh1",
		"signature":          billing.SignPayment(orderID, "pay_wh1", keySecret),
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body)
	assert.Equal(t, false, decode(t, body)["created"])
}

func TestEnrollmentEndpoint(t *testing.T) {
	e := newTestEnv(t)
	req := map[string]any{"class_id": e.class.ID, "name": "Asha", "email": " Asha@Example.com "}

	resp, body := e.do(t, http.MethodPost, "/api/v1/enrollments", "", req)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, body)
	assert.Equal(t, "asha@example.com", decode(t, body)["contact_email"])

	resp, body = e.do(t, http.MethodPost, "/api/v1/enrollments", "", req)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "already_enrolled", decode(t, body)["error"])

	resp, body = e.do(t, http.MethodPost, "/api/v1/enrollments", "", map[string]any{"class_id": e.class.ID})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, decode(t, body)["fields"])
}

func TestAdminRoutes(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	resp, _ := e.do(t, http.MethodGet, "/api/v1/admin/stats", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	resp, _ = e.do(t, http.MethodGet, "/api/v1/admin/stats", "boss", nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	_, err := e.svc.Repos.Role.Assign(ctx, "boss", models.RoleAdmin)
	require.NoError(t, err)

	resp, body := e.do(t, http.MethodGet, "/api/v1/admin/stats", "boss", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body)
	assert.Contains(t, decode(t, body), "overview")

	resp, body = e.do(t, http.MethodPut, "/api/v1/admin/roles/tutor-1", "boss", map[string]any{"role": "owner"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, body)
	resp, body = e.do(t, http.MethodPut, "/api/v1/admin/roles/tutor-1", "boss", map[string]any{"role": "admin"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body)
	role, err := e.svc.Repos.Role.GetRole(ctx, "tutor-1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, role)

	resp, body = e.do(t, http.MethodPatch, "/api/v1/admin/catalog/"+e.notes.ID+"/active", "boss", map[string]any{"active": false})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body)
	resp, _ = e.do(t, http.MethodGet, "/api/v1/catalog/"+e.notes.ID, "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	resp, _ = e.do(t, http.MethodPost, "/api/v1/orders", "u3", map[string]any{"item_id": e.notes.ID})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, body = e.do(t, http.MethodGet, "/api/v1/admin/audit?action="+models.AuditCatalogToggled, "boss", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, decode(t, body)["total"])

	resp, body = e.do(t, http.MethodGet, "/api/v1/admin/purchases?page=1&per_page=10", "boss", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 10, decode(t, body)["per_page"])
}

var fiberParam = regexp.MustCompile(`:([A-Za-z]+)`)

func TestEveryRouteIsDocumented(t *testing.T) {
	e := newTestEnv(t)

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile("../../../docs/openapi.yml")
	require.NoError(t, err)
	require.NoError(t, doc.Validate(context.Background()))

	for _, r := range e.app.GetRoutes(true) {
		if r.Method == fiber.MethodHead {
			continue
		}
		path := r.Path
		if len(path) > 1 {
			path = strings.TrimRight(path, "/")
		}
		path = fiberParam.ReplaceAllString(path, "{$1}")

		item := doc.Paths.Find(path)
		if !assert.NotNil(t, item, "route %s %s is not documented", r.Method, path) {
			continue
		}
		assert.NotNil(t, item.GetOperation(r.Method), "method %s %s is not documented", r.Method, path)
	}
}
