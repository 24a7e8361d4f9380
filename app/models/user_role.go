package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// UserRole maps an external identity to an application role.
// Users without a row are treated as RoleUser.
type UserRole struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"type:varchar(128);not null;uniqueIndex" json:"user_id"`
	Role      string    `gorm:"type:varchar(20);not null" json:"role" validate:"required,oneof=user admin"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (UserRole) TableName() string {
	return "user_roles"
}
