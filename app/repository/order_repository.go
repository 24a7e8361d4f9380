package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/avishkar-academy/vault/app/models"
)

// orderRepository implements the OrderRepository interface
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository instance
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) WithTx(tx *gorm.DB) OrderRepository {
	return &orderRepository{db: tx}
}

func (r *orderRepository) DB() *gorm.DB {
	return r.db
}

func (r *orderRepository) Create(ctx context.Context, order *models.PendingOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepository) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.PendingOrder, error) {
	var order models.PendingOrder
	if err := r.db.WithContext(ctx).Where("gateway_order_id = ?", gatewayOrderID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetByGatewayPaymentID(ctx context.Context, paymentID string) (*models.PendingOrder, error) {
	var order models.PendingOrder
	if err := r.db.WithContext(ctx).Where("gateway_payment_id = ?", paymentID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns orders newest first, optionally filtered by status
func (r *orderRepository) List(ctx context.Context, status models.OrderStatus, offset, limit int) ([]models.PendingOrder, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.PendingOrder{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var orders []models.PendingOrder
	err := q.Order("created_at DESC").Order("id DESC").Offset(offset).Limit(limit).Find(&orders).Error
	return orders, total, err
}

// CancelStale moves created orders older than createdBefore to cancelled
func (r *orderRepository) CancelStale(ctx context.Context, createdBefore time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.PendingOrder{}).
		Where("status = ? AND created_at < ?", models.OrderStatusCreated, createdBefore).
		Updates(map[string]interface{}{
			"status":         models.OrderStatusCancelled,
			"failure_reason": "expired without payment",
			"updated_at":     time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *orderRepository) CountByStatus(ctx context.Context) (map[models.OrderStatus]int64, error) {
	var rows []struct {
		Status models.OrderStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&models.PendingOrder{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[models.OrderStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}
