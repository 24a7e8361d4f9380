package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/avishkar-academy/vault/app/models"
)

// enrollmentRepository implements the EnrollmentRepository interface
type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository creates a new enrollment repository instance
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

// Create inserts record unless it collides with an existing enrollment on
// either unique key (contact and class, or gateway payment id). Returns
// false on a collision.
func (r *enrollmentRepository) Create(ctx context.Context, record *models.EnrollmentRecord) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(record)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *enrollmentRepository) Exists(ctx context.Context, email, classID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.EnrollmentRecord{}).
		Where("contact_email = ? AND class_id = ?", email, classID).
		Count(&count).Error
	return count > 0, err
}

func (r *enrollmentRepository) PaymentUsed(ctx context.Context, paymentID string) (bool, error) {
	if paymentID == "" {
		return false, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.EnrollmentRecord{}).
		Where("gateway_payment_id = ?", paymentID).
		Count(&count).Error
	return count > 0, err
}

func (r *enrollmentRepository) GetByID(ctx context.Context, id uint) (*models.EnrollmentRecord, error) {
	var record models.EnrollmentRecord
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *enrollmentRepository) List(ctx context.Context, classID string, offset, limit int) ([]models.EnrollmentRecord, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.EnrollmentRecord{})
	if classID != "" {
		q = q.Where("class_id = ?", classID)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var records []models.EnrollmentRecord
	err := q.Order("created_at DESC").Order("id DESC").Offset(offset).Limit(limit).Find(&records).Error
	return records, total, err
}
