package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatalogItemKind separates study materials from scheduled classes.
type CatalogItemKind string

const (
	CatalogKindMaterial CatalogItemKind = "material"
	CatalogKindClass    CatalogItemKind = "class"
)

// Duration types stored on a catalog item. An empty value falls back to the
// default policy of the entitlements package.
const (
	DurationTypeLifetime = "lifetime"
	DurationTypeMonths   = "months"
)

// CatalogItem is a purchasable unit: a study material or a class.
// PriceMinor is the authoritative price in minor units (paise).
type CatalogItem struct {
	ID             string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	Kind           CatalogItemKind `gorm:"type:varchar(20);not null;index" json:"kind" validate:"required,oneof=material class"`
	Title          string          `gorm:"type:varchar(255);not null" json:"title" validate:"required,max=255"`
	Description    string          `gorm:"type:text" json:"description"`
	PriceMinor     int64           `gorm:"not null" json:"price_minor" validate:"gte=0"`
	Currency       string          `gorm:"type:varchar(3);not null" json:"currency" validate:"required,len=3"`
	IsPremium      bool            `gorm:"not null" json:"is_premium"`
	DurationType   string          `gorm:"type:varchar(20);not null;default:''" json:"duration_type" validate:"omitempty,oneof=lifetime months"`
	DurationMonths int             `gorm:"not null;default:0" json:"duration_months" validate:"gte=0"`
	Active         bool            `gorm:"not null;index" json:"active"`
	ContentRef     string          `gorm:"type:varchar(1024)" json:"-"`
	ClassDate      *time.Time      `json:"class_date,omitempty"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (CatalogItem) TableName() string {
	return "catalog_items"
}

// BeforeCreate assigns a UUID and the default currency.
func (c *CatalogItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Currency == "" {
		c.Currency = "INR"
	}
	if c.Kind == "" {
		c.Kind = CatalogKindMaterial
	}
	return nil
}

// IsFree reports whether the item can be opened without an entitlement.
func (c *CatalogItem) IsFree() bool {
	return !c.IsPremium
}
