package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/avishkar-academy/vault/app/models"
	"github.com/avishkar-academy/vault/app/repository"
	"github.com/avishkar-academy/vault/internal/pkg/security"
	"github.com/avishkar-academy/vault/internal/pkg/usercontext"
)

// IdentityConfig configures Identify.
type IdentityConfig struct {
	Secret string
	Roles  repository.RoleRepository
	Now    func() time.Time
}

// Identify resolves the caller from a bearer token or the identity cookie
// and stores the user context. Invalid or missing tokens leave the request
// anonymous; routes that need a user enforce it with RequireUser.
func Identify(cfg IdentityConfig) fiber.Handler {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return func(c *fiber.Ctx) error {
		token := extractIdentityToken(c)
		if token == "" {
			usercontext.Set(c, usercontext.UserContext{})
			return c.Next()
		}

		claims, err := security.VerifyIdentityToken(token, cfg.Secret, cfg.Now())
		if err != nil {
			log.Debugf("[Identity] rejected token from %s: %v", c.IP(), err)
			usercontext.Set(c, usercontext.UserContext{})
			return c.Next()
		}

		uc := usercontext.UserContext{
			UserID:     claims.UserID(),
			Email:      claims.Email,
			Name:       claims.Name,
			IsLoggedIn: true,
		}
		if cfg.Roles != nil {
			role, err := cfg.Roles.GetRole(c.UserContext(), claims.UserID())
			if err != nil {
				log.Errorf("[Identity] role lookup for %s failed: %v", claims.UserID(), err)
			}
			uc.IsAdmin = role == models.RoleAdmin
		}
		usercontext.Set(c, uc)
		return c.Next()
	}
}

func extractIdentityToken(c *fiber.Ctx) string {
	auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return strings.TrimSpace(c.Cookies(usercontext.IdentityCookie))
}
