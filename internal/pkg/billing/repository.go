package billing

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/avishkar-academy/vault/app/models"
)

// Repository is the storage of gateway webhook deliveries.
type Repository interface {
	// InsertEvent stores the event unless (provider, provider_event_id)
	// exists and reports whether a row was written.
	InsertEvent(ctx context.Context, event *models.PaymentWebhookEvent) (bool, error)
	FindEvent(ctx context.Context, provider, providerEventID string) (*models.PaymentWebhookEvent, error)
	FinishEvent(ctx context.Context, id uint, processingError string, at time.Time) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a webhook event repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) InsertEvent(ctx context.Context, event *models.PaymentWebhookEvent) (bool, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider"}, {Name: "provider_event_id"}},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) FindEvent(ctx context.Context, provider, providerEventID string) (*models.PaymentWebhookEvent, error) {
	var stored models.PaymentWebhookEvent
	err := r.db.WithContext(ctx).
		Where("provider = ? AND provider_event_id = ?", provider, providerEventID).
		First(&stored).Error
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *gormRepository) FinishEvent(ctx context.Context, id uint, processingError string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.PaymentWebhookEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"processed_at":     at,
			"processing_error": processingError,
		}).Error
}
