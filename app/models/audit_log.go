package models

import "time"

// Audit actions
const (
	AuditOrderCreated       = "order_created"
	AuditPriceMismatch      = "price_mismatch"
	AuditPaymentConfirmed   = "payment_confirmed"
	AuditPaymentFailed      = "payment_failed"
	AuditSignatureRejected  = "signature_rejected"
	AuditEnrollmentCreated  = "enrollment_created"
	AuditRoleAssigned       = "role_assigned"
	AuditCatalogToggled     = "catalog_toggled"
	AuditStaleOrdersExpired = "stale_orders_expired"
)

// AuditLog is an append-only record of security relevant actions.
type AuditLog struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Action      string    `gorm:"type:varchar(50);not null;index" json:"action"`
	ActorID     string    `gorm:"type:varchar(128);not null;default:'';index" json:"actor_id"`
	TargetTable string    `gorm:"type:varchar(50);not null;default:''" json:"target_table"`
	TargetID    string    `gorm:"type:varchar(64);not null;default:''" json:"target_id"`
	Details     JSON      `gorm:"type:json" json:"details"`
	IPAddress   string    `gorm:"type:varchar(45);not null;default:''" json:"ip_address"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
