package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/avishkar-academy/vault/app/controllers"
)

// Router installs a group of routes on the app.
type Router interface {
	InstallRouter(app *fiber.App)
}

// Config carries what the routers need besides the services.
type Config struct {
	IdentitySecret string
	// LimiterStorage backs the API rate limiter. nil keeps counters in memory.
	LimiterStorage fiber.Storage
	// RequestsPerMinute per client on the API group. Zero disables limiting.
	RequestsPerMinute int
	// PurchaseURL is where denied content pages link to.
	PurchaseURL string
}

func InstallRouter(app *fiber.App, svc *controllers.Services, cfg Config) {
	// The HTTP router goes first: it installs the identity middleware the
	// API routes depend on.
	setup(app, NewHttpRouter(svc, cfg), NewApiRouter(svc, cfg))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}

func newLimiter(cfg Config) fiber.Handler {
	if cfg.RequestsPerMinute <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return limiter.New(limiter.Config{
		Max:     cfg.RequestsPerMinute,
		Storage: cfg.LimiterStorage,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":     "rate_limited",
				"message":   "too many requests",
				"retryable": true,
			})
		},
	})
}
