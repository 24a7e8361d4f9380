package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/avishkar-academy/vault/app/models"
)

// statsRepository implements the StatsRepository interface
type statsRepository struct {
	db *gorm.DB
}

// NewStatsRepository creates a new stats repository instance
func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) Overview(ctx context.Context) (*Overview, error) {
	db := r.db.WithContext(ctx)
	o := &Overview{}

	if err := db.Model(&models.CatalogItem{}).Count(&o.CatalogItems).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.CatalogItem{}).Where("active = ?", true).Count(&o.ActiveItems).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Entitlement{}).Count(&o.Entitlements).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.EnrollmentRecord{}).Count(&o.Enrollments).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Entitlement{}).Select("COALESCE(SUM(amount), 0)").Scan(&o.RevenueMinor).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.EnrollmentRecord{}).Select("COALESCE(SUM(amount_paid), 0)").Scan(&o.EnrollmentRevenue).Error; err != nil {
		return nil, err
	}
	orders, err := NewOrderRepository(r.db).CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	o.Orders = orders
	return o, nil
}

// ContentViews returns the most viewed items first
func (r *statsRepository) ContentViews(ctx context.Context, limit int) ([]models.ContentViewStat, error) {
	var stats []models.ContentViewStat
	err := r.db.WithContext(ctx).Order("views DESC").Limit(limit).Find(&stats).Error
	return stats, err
}
