package controllers

import (
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/avishkar-academy/vault/app/repository"
	"github.com/avishkar-academy/vault/internal/pkg/audit"
	"github.com/avishkar-academy/vault/internal/pkg/billing"
	"github.com/avishkar-academy/vault/internal/pkg/catalog"
	"github.com/avishkar-academy/vault/internal/pkg/constants"
	"github.com/avishkar-academy/vault/internal/pkg/content"
	"github.com/avishkar-academy/vault/internal/pkg/enrollment"
	"github.com/avishkar-academy/vault/internal/pkg/entitlements"
	"github.com/avishkar-academy/vault/internal/pkg/events"
	"github.com/avishkar-academy/vault/internal/pkg/hcaptcha"
	"github.com/avishkar-academy/vault/internal/pkg/integrity"
	"github.com/avishkar-academy/vault/internal/pkg/jobqueue"
)

// Infrastructure is everything the services are built from. Optional
// members may be nil.
type Infrastructure struct {
	DB        *gorm.DB
	Redis     *redis.Client
	Gateway   billing.Gateway
	Presigner content.Presigner
	Events    events.Publisher
	Notifier  enrollment.Notifier
	Counter   content.ViewCounter
	Captcha   *hcaptcha.Verifier
	Jobs      *jobqueue.Queue

	KeySecret     string
	WebhookSecret string
	LinkSecret    string
	LinkTTL       time.Duration
	Now           func() time.Time
}

// Services holds the wired domain services shared by all controllers.
type Services struct {
	Repos      *repository.Repositories
	Catalog    catalog.Reader
	Ledger     entitlements.Ledger
	Guard      *entitlements.Guard
	Trail      *audit.Trail
	Orders     *billing.OrderService
	Confirmer  *billing.Confirmer
	Webhooks   *billing.WebhookProcessor
	WebhookLog *billing.Service
	Content    *content.Service
	Enrollment *enrollment.Service
	Captcha    *hcaptcha.Verifier
	Jobs       *jobqueue.Queue

	WebhookSecret string
	Now           func() time.Time
}

// NewServices wires the domain services on top of infra.
func NewServices(infra Infrastructure) *Services {
	if infra.Now == nil {
		infra.Now = time.Now
	}
	if infra.Events == nil {
		infra.Events = events.Noop{}
	}
	if infra.Captcha == nil {
		infra.Captcha = hcaptcha.NewVerifier("", "")
	}

	repos := repository.NewFactory(infra.DB, infra.Redis).GetRepositories()
	reader := catalog.NewReader(repos.Catalog, infra.Redis)
	ledger := entitlements.NewLedger(infra.DB)
	guard := entitlements.NewGuard(ledger)
	trail := audit.NewTrail(repos.Audit)
	validator := integrity.NewValidator(reader, repos.Enrollment, trail)

	deps := billing.Dependencies{
		DB:        infra.DB,
		Orders:    repos.Order,
		Items:     repos.Catalog,
		Catalog:   reader,
		Ledger:    ledger,
		Gateway:   infra.Gateway,
		Validator: validator,
		Trail:     trail,
		Events:    infra.Events,
		KeySecret: infra.KeySecret,
		Now:       infra.Now,
	}
	orders := billing.NewOrderService(deps)
	confirmer := billing.NewConfirmer(deps)

	return &Services{
		Repos:      repos,
		Catalog:    reader,
		Ledger:     ledger,
		Guard:      guard,
		Trail:      trail,
		Orders:     orders,
		Confirmer:  confirmer,
		Webhooks:   billing.NewWebhookProcessor(confirmer, orders),
		WebhookLog: billing.NewServiceFromDB(infra.DB, infra.Now),
		Content: content.NewService(reader, guard, content.NewResolver(infra.Presigner), infra.Counter, content.Config{
			LinkSecret: infra.LinkSecret,
			LinkTTL:    infra.LinkTTL,
			BasePath:   constants.ContentRoute,
		}, infra.Now),
		Enrollment: enrollment.NewService(enrollment.Dependencies{
			Catalog:     reader,
			Enrollments: repos.Enrollment,
			Orders:      repos.Order,
			Validator:   validator,
			Trail:       trail,
			Events:      infra.Events,
			Notifier:    infra.Notifier,
			Now:         infra.Now,
		}),
		Captcha:       infra.Captcha,
		Jobs:          infra.Jobs,
		WebhookSecret: infra.WebhookSecret,
		Now:           infra.Now,
	}
}
