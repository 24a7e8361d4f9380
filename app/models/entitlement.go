package models

import "time"

// Entitlement is an immutable grant of access to one catalog item for one
// user. Rows are only ever inserted; a gateway payment id yields at most one.
type Entitlement struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           string    `gorm:"type:varchar(128);not null;index:idx_entitlements_user_item,priority:1" json:"user_id"`
	CatalogItemID    string    `gorm:"type:varchar(36);not null;index:idx_entitlements_user_item,priority:2" json:"catalog_item_id"`
	GatewayOrderID   string    `gorm:"type:varchar(64);not null;index" json:"gateway_order_id"`
	GatewayPaymentID string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"gateway_payment_id"`
	Amount           int64     `gorm:"not null" json:"amount"`
	Currency         string    `gorm:"type:varchar(3);not null" json:"currency"`
	GrantedAt        time.Time `gorm:"not null;index" json:"granted_at"`
	ExpiresAt        time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Entitlement) TableName() string {
	return "entitlements"
}
