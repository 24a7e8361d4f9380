package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	flog "github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/avishkar-academy/vault/app/controllers"
	"github.com/avishkar-academy/vault/internal/pkg/billing"
	"github.com/avishkar-academy/vault/internal/pkg/cache"
	"github.com/avishkar-academy/vault/internal/pkg/content"
	"github.com/avishkar-academy/vault/internal/pkg/database"
	"github.com/avishkar-academy/vault/internal/pkg/env"
	"github.com/avishkar-academy/vault/internal/pkg/events"
	"github.com/avishkar-academy/vault/internal/pkg/hcaptcha"
	"github.com/avishkar-academy/vault/internal/pkg/jobqueue"
	"github.com/avishkar-academy/vault/internal/pkg/mail"
	"github.com/avishkar-academy/vault/internal/pkg/metrics/counter"
	"github.com/avishkar-academy/vault/internal/pkg/router"
	"github.com/avishkar-academy/vault/internal/pkg/storage"
)

func main() {
	app, shutdown := NewApplication()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		flog.Info("[Main] Shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			flog.Errorf("[Main] Shutdown error: %v", err)
		}
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	shutdown()
	if err != nil {
		log.Fatal(err)
	}
}

// NewApplication wires the infrastructure and returns the app plus a
// function that stops background work.
func NewApplication() (*fiber.App, func()) {
	env.SetupEnvFile()
	if env.IsDev() {
		flog.SetLevel(flog.LevelDebug)
	}
	database.SetupDatabase()
	cache.SetupCache()

	db := database.GetDB()
	rdb := cache.GetClient()
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		flog.Warnf("[Main] Redis unavailable, running without cache, job queue and shared limiter: %v", err)
		rdb = nil
	}

	var presigner content.Presigner
	if cfg, err := storage.LoadConfig(); err != nil {
		panic(err)
	} else if cfg.IsEnabled() {
		client, err := storage.NewClient(context.Background(), cfg)
		if err != nil {
			panic(err)
		}
		presigner = client
	}

	publisher := events.NewPublisherFromEnv()
	mailer := mail.NewSMTPMailerFromEnv()
	var sender mail.Sender
	if mailer.Configured() {
		sender = mailer
	}
	views := counter.New(rdb, db)

	var queue *jobqueue.Queue
	if rdb != nil {
		queue = jobqueue.NewQueue(rdb, env.GetEnvInt("JOBQUEUE_WORKERS", 3))
	}

	svc := controllers.NewServices(controllers.Infrastructure{
		DB:            db,
		Redis:         rdb,
		Gateway:       billing.NewRazorpayClientFromEnv(),
		Presigner:     presigner,
		Events:        publisher,
		Notifier:      &jobqueue.EnrollmentNotifier{Queue: queue, Mailer: sender},
		Counter:       views,
		Captcha:       hcaptcha.NewVerifierFromEnv(),
		Jobs:          queue,
		KeySecret:     env.GetEnv("RAZORPAY_KEY_SECRET", ""),
		WebhookSecret: env.GetEnv("RAZORPAY_WEBHOOK_SECRET", ""),
		LinkSecret:    env.GetEnv("CONTENT_TOKEN_SECRET", ""),
		LinkTTL:       time.Duration(env.GetEnvInt("CONTENT_LINK_TTL_MINUTES", 60)) * time.Minute,
	})

	var manager *jobqueue.Manager
	if queue != nil {
		jobqueue.RegisterProcessors(queue, jobqueue.Processors{
			Orders:      svc.Orders,
			Enrollments: svc.Repos.Enrollment,
			Mailer:      sender,
		})
		manager = jobqueue.NewManager(queue, views, jobqueue.ManagerConfig{
			StaleOrderAge: time.Duration(env.GetEnvInt("STALE_ORDER_MINUTES", 1440)) * time.Minute,
		})
		manager.Start()
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 1 << 20,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	if password := env.GetEnv("MONITOR_PASSWORD", ""); password != "" {
		app.Get("/metrics", basicauth.New(basicauth.Config{
			Users: map[string]string{
				env.GetEnv("MONITOR_USER", "admin"): password,
			},
		}), monitor.New())
	}

	// SWAGGER / OPENAPI
	app.Use(swagger.New(swagger.Config{
		BasePath: "/docs/api/",
		FilePath: env.GetEnv("OPENAPI_FILE", "./docs/openapi.yml"),
		Path:     "v1",
	}))

	// ROUTER
	routerCfg := router.Config{
		IdentitySecret:    env.GetEnv("AUTH_TOKEN_SECRET", ""),
		RequestsPerMinute: env.GetEnvInt("API_RATE_LIMIT", 120),
		PurchaseURL:       env.GetEnv("PURCHASE_URL", ""),
	}
	if rdb != nil {
		routerCfg.LimiterStorage = cache.NewFiberStorage(env.GetEnvInt("LIMITER_CACHE_DB", 1))
	}
	router.InstallRouter(app, svc, routerCfg)

	return app, func() {
		if manager != nil {
			manager.Stop()
		} else if err := views.FlushAll(context.Background()); err != nil {
			flog.Errorf("[Main] Counter flush error: %v", err)
		}
		if err := publisher.Close(); err != nil {
			flog.Errorf("[Main] Event publisher close error: %v", err)
		}
		closeRedis(rdb)
	}
}

func closeRedis(rdb *redis.Client) {
	if rdb == nil {
		return
	}
	if err := rdb.Close(); err != nil {
		flog.Warnf("[Main] Redis close error: %v", err)
	}
}
