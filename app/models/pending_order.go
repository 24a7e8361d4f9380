package models

import (
	"time"
	"unicode/utf8"

	"gorm.io/gorm"
)

// OrderStatus is the lifecycle state of a PendingOrder.
type OrderStatus string

const (
	OrderStatusCreated   OrderStatus = "created"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusFailed    OrderStatus = "failed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// maxFailureReason is the byte width of the failure_reason column.
const maxFailureReason = 255

// Failed and Cancelled orders still accept a verified capture: the buyer may
// retry on the same gateway order and housekeeping may cancel before a late
// capture arrives.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusCreated:   {OrderStatusPaid, OrderStatusFailed, OrderStatusCancelled},
	OrderStatusFailed:    {OrderStatusPaid},
	OrderStatusCancelled: {OrderStatusPaid},
}

// payableStatuses lists every status that may move to paid.
func payableStatuses() []OrderStatus {
	var out []OrderStatus
	for _, s := range []OrderStatus{OrderStatusCreated, OrderStatusFailed, OrderStatusCancelled} {
		if s.CanTransitionTo(OrderStatusPaid) {
			out = append(out, s)
		}
	}
	return out
}

// CanTransitionTo reports whether moving from s to next is allowed.
// Only Paid is terminal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

// PendingOrder records the intent to pay for a catalog item before the
// gateway confirms the payment.
type PendingOrder struct {
	ID               uint        `gorm:"primaryKey" json:"id"`
	GatewayOrderID   string      `gorm:"type:varchar(64);not null;uniqueIndex" json:"gateway_order_id"`
	Receipt          string      `gorm:"type:varchar(40);not null;index" json:"receipt"`
	CatalogItemID    string      `gorm:"type:varchar(36);not null;index" json:"catalog_item_id"`
	UserID           string      `gorm:"type:varchar(128);not null;index" json:"user_id"`
	Amount           int64       `gorm:"not null" json:"amount"`
	Currency         string      `gorm:"type:varchar(3);not null" json:"currency"`
	Status           OrderStatus `gorm:"type:varchar(20);not null;default:'created';index" json:"status"`
	GatewayPaymentID *string     `gorm:"type:varchar(64);uniqueIndex" json:"gateway_payment_id,omitempty"`
	FailureReason    string      `gorm:"type:varchar(255);not null;default:''" json:"failure_reason,omitempty"`
	CreatedAt        time.Time   `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt        time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PendingOrder) TableName() string {
	return "pending_orders"
}

func (o *PendingOrder) BeforeCreate(tx *gorm.DB) error {
	if o.Status == "" {
		o.Status = OrderStatusCreated
	}
	return nil
}

// MarkPaid atomically moves a created, failed or cancelled order to paid.
// Returns false when another request already paid the order.
func (o *PendingOrder) MarkPaid(db *gorm.DB, paymentID string) (bool, error) {
	now := time.Now()
	tx := db.Model(&PendingOrder{}).
		Where("id = ? AND status IN ?", o.ID, payableStatuses()).
		Updates(map[string]interface{}{
			"status":             OrderStatusPaid,
			"gateway_payment_id": paymentID,
			"updated_at":         now,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	if tx.RowsAffected == 0 {
		return false, nil
	}
	o.Status = OrderStatusPaid
	o.GatewayPaymentID = &paymentID
	o.UpdatedAt = now
	return true, nil
}

// RecordFailedAttempt stores the reason of a declined payment attempt.
// The order stays created so the buyer can retry on the same gateway order.
// Returns false when the order is no longer awaiting payment.
func (o *PendingOrder) RecordFailedAttempt(db *gorm.DB, reason string) (bool, error) {
	reason = TruncateReason(reason)
	now := time.Now()
	tx := db.Model(&PendingOrder{}).
		Where("id = ? AND status = ?", o.ID, OrderStatusCreated).
		Updates(map[string]interface{}{
			"failure_reason": reason,
			"updated_at":     now,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	if tx.RowsAffected == 0 {
		return false, nil
	}
	o.FailureReason = reason
	o.UpdatedAt = now
	return true, nil
}

// TruncateReason cuts reason to the failure_reason column width without
// splitting a multi-byte character.
func TruncateReason(reason string) string {
	if len(reason) <= maxFailureReason {
		return reason
	}
	cut := maxFailureReason
	for cut > 0 && !utf8.RuneStart(reason[cut]) {
		cut--
	}
	return reason[:cut]
}

// PaymentID returns the gateway payment id or an empty string.
func (o *PendingOrder) PaymentID() string {
	if o.GatewayPaymentID == nil {
		return ""
	}
	return *o.GatewayPaymentID
}
