package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/avishkar-academy/vault/app/models"
)

// CatalogRepository defines the database operations on catalog items
type CatalogRepository interface {
	Create(ctx context.Context, item *models.CatalogItem) error
	GetByID(ctx context.Context, id string) (*models.CatalogItem, error)
	ListActive(ctx context.Context, kind models.CatalogItemKind) ([]models.CatalogItem, error)
	List(ctx context.Context, offset, limit int) ([]models.CatalogItem, int64, error)
	SetActive(ctx context.Context, id string, active bool) error
	WithTx(tx *gorm.DB) CatalogRepository
}

// OrderRepository defines the database operations on pending orders
type OrderRepository interface {
	Create(ctx context.Context, order *models.PendingOrder) error
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.PendingOrder, error)
	GetByGatewayPaymentID(ctx context.Context, paymentID string) (*models.PendingOrder, error)
	List(ctx context.Context, status models.OrderStatus, offset, limit int) ([]models.PendingOrder, int64, error)
	CancelStale(ctx context.Context, createdBefore time.Time) (int64, error)
	CountByStatus(ctx context.Context) (map[models.OrderStatus]int64, error)
	WithTx(tx *gorm.DB) OrderRepository
	DB() *gorm.DB
}

// EnrollmentRepository defines the database operations on class enrollments
type EnrollmentRepository interface {
	// Create inserts the record unless (contact_email, class_id) exists.
	Create(ctx context.Context, record *models.EnrollmentRecord) (bool, error)
	Exists(ctx context.Context, email, classID string) (bool, error)
	// PaymentUsed reports whether a gateway payment already settled an enrollment.
	PaymentUsed(ctx context.Context, paymentID string) (bool, error)
	GetByID(ctx context.Context, id uint) (*models.EnrollmentRecord, error)
	List(ctx context.Context, classID string, offset, limit int) ([]models.EnrollmentRecord, int64, error)
}

// RoleRepository defines the database operations on user roles
type RoleRepository interface {
	GetRole(ctx context.Context, userID string) (string, error)
	Assign(ctx context.Context, userID, role string) (*models.UserRole, error)
}

// AuditRepository stores audit trail entries
type AuditRepository interface {
	Record(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, action string, offset, limit int) ([]models.AuditLog, int64, error)
}

// StatsRepository reads aggregated figures for the admin overview
type StatsRepository interface {
	Overview(ctx context.Context) (*Overview, error)
	ContentViews(ctx context.Context, limit int) ([]models.ContentViewStat, error)
}

// QueueRepository reads job queue sizes from the cache
type QueueRepository interface {
	GetListLength(ctx context.Context, key string) (int64, error)
}

// Overview summarises sales and enrollments.
type Overview struct {
	CatalogItems      int64                        `json:"catalog_items"`
	ActiveItems       int64                        `json:"active_items"`
	Entitlements      int64                        `json:"entitlements"`
	Enrollments       int64                        `json:"enrollments"`
	Orders            map[models.OrderStatus]int64 `json:"orders"`
	RevenueMinor      int64                        `json:"revenue_minor"`
	EnrollmentRevenue int64                        `json:"enrollment_revenue_minor"`
}

// Repositories struct holds all repository instances
type Repositories struct {
	Catalog    CatalogRepository
	Order      OrderRepository
	Enrollment EnrollmentRepository
	Role       RoleRepository
	Audit      AuditRepository
	Stats      StatsRepository
	Queue      QueueRepository
}

// NewRepositories creates a new instance of all repositories. rdb may be nil.
func NewRepositories(db *gorm.DB, rdb *redis.Client) *Repositories {
	return &Repositories{
		Catalog:    NewCatalogRepository(db),
		Order:      NewOrderRepository(db),
		Enrollment: NewEnrollmentRepository(db),
		Role:       NewRoleRepository(db),
		Audit:      NewAuditRepository(db),
		Stats:      NewStatsRepository(db),
		Queue:      NewQueueRepository(rdb),
	}
}
