package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avishkar-academy/vault/app/models"
	"github.com/avishkar-academy/vault/app/repository"
	"github.com/avishkar-academy/vault/internal/pkg/database/dbtest"
	"github.com/avishkar-academy/vault/internal/pkg/security"
	"github.com/avishkar-academy/vault/internal/pkg/usercontext"
)

const testSecret = "identity-secret"

func newApp(t *testing.T) (*fiber.App, repository.RoleRepository) {
	t.Helper()
	roles := repository.NewRoleRepository(dbtest.Open(t))
	app := fiber.New()
	app.Use(Identify(IdentityConfig{Secret: testSecret, Roles: roles}))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.SendString(usercontext.GetUserID(c))
	})
	app.Get("/me", RequireUser, func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/admin", RequireAdmin, func(c *fiber.Ctx) error { return c.SendString("ok") })
	return app, roles
}

func token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := security.IssueIdentityToken(security.IdentityClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: userID}}, time.Hour, testSecret, time.Now())
	require.NoError(t, err)
	return tok
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, string) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestIdentifyBearerAndCookie(t *testing.T) {
	app, _ := newApp(t)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, "user-1"))
	_, body := do(t, app, req)
	assert.Equal(t, "user-1", body)

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: usercontext.IdentityCookie, Value: token(t, "user-2")})
	_, body = do(t, app, req)
	assert.Equal(t, "user-2", body)

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer forged.token")
	_, body = do(t, app, req)
	assert.Empty(t, body)
}

func TestRequireUser(t *testing.T) {
	app, _ := newApp(t)

	status, body := do(t, app, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Contains(t, body, "authentication_required")

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, "user-1"))
	status, _ = do(t, app, req)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestRequireAdminUsesRoleStore(t *testing.T) {
	app, roles := newApp(t)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, "user-1"))
	status, _ := do(t, app, req)
	assert.Equal(t, fiber.StatusForbidden, status)

	_, err := roles.Assign(context.Background(), "user-1", models.RoleAdmin)
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, "user-1"))
	status, _ = do(t, app, req)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = do(t, app, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, fiber.StatusUnauthorized, status)
}
