package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/avishkar-academy/vault/app/models"
)

// catalogRepository implements the CatalogRepository interface
type catalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository creates a new catalog repository instance
func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) WithTx(tx *gorm.DB) CatalogRepository {
	return &catalogRepository{db: tx}
}

func (r *catalogRepository) Create(ctx context.Context, item *models.CatalogItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// GetByID returns the item regardless of its active flag
func (r *catalogRepository) GetByID(ctx context.Context, id string) (*models.CatalogItem, error) {
	var item models.CatalogItem
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// ListActive returns active items, optionally filtered by kind
func (r *catalogRepository) ListActive(ctx context.Context, kind models.CatalogItemKind) ([]models.CatalogItem, error) {
	var items []models.CatalogItem
	q := r.db.WithContext(ctx).Where("active = ?", true)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	err := q.Order("title ASC").Find(&items).Error
	return items, err
}

func (r *catalogRepository) List(ctx context.Context, offset, limit int) ([]models.CatalogItem, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.CatalogItem{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []models.CatalogItem
	err := r.db.WithContext(ctx).Order("created_at DESC").Offset(offset).Limit(limit).Find(&items).Error
	return items, total, err
}

// SetActive toggles whether new orders may be placed for the item
func (r *catalogRepository) SetActive(ctx context.Context, id string, active bool) error {
	res := r.db.WithContext(ctx).Model(&models.CatalogItem{}).Where("id = ?", id).Update("active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
