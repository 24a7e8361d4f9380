package models

import "time"

// ContentViewStat holds flushed view and denial counters per catalog item.
type ContentViewStat struct {
	CatalogItemID string    `gorm:"type:varchar(36);primaryKey" json:"catalog_item_id"`
	Views         int64     `gorm:"not null;default:0" json:"views"`
	Denials       int64     `gorm:"not null;default:0" json:"denials"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ContentViewStat) TableName() string {
	return "content_view_stats"
}
