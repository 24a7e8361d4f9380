package models

import "time"

// EnrollmentPaymentStatus is how a class enrollment was settled.
type EnrollmentPaymentStatus string

const (
	EnrollmentPaymentCompleted EnrollmentPaymentStatus = "completed"
	EnrollmentPaymentWaived    EnrollmentPaymentStatus = "waived"
)

// EnrollmentRecord registers a (possibly guest) student for a class.
// The pair (contact_email, class_id) is unique, and a gateway payment settles
// at most one record. Waived enrollments keep a NULL payment id.
type EnrollmentRecord struct {
	ID               uint                    `gorm:"primaryKey" json:"id"`
	ContactEmail     string                  `gorm:"type:varchar(191);not null;index:ux_enrollment_records_email_class,unique,priority:1" json:"contact_email"`
	ClassID          string                  `gorm:"type:varchar(36);not null;index:ux_enrollment_records_email_class,unique,priority:2;index" json:"class_id"`
	UserID           string                  `gorm:"type:varchar(128);not null;default:'';index" json:"user_id,omitempty"`
	StudentName      string                  `gorm:"type:varchar(255);not null" json:"student_name"`
	StudentPhone     string                  `gorm:"type:varchar(32);not null;default:''" json:"student_phone"`
	StudentAddress   string                  `gorm:"type:text" json:"student_address"`
	ClassTitle       string                  `gorm:"type:varchar(255);not null" json:"class_title"`
	ClassDate        *time.Time              `json:"class_date,omitempty"`
	AmountPaid       int64                   `gorm:"not null" json:"amount_paid"`
	Currency         string                  `gorm:"type:varchar(3);not null" json:"currency"`
	PaymentStatus    EnrollmentPaymentStatus `gorm:"type:varchar(20);not null;index" json:"payment_status"`
	GatewayPaymentID *string                 `gorm:"type:varchar(64);uniqueIndex:ux_enrollment_records_gateway_payment" json:"gateway_payment_id,omitempty"`
	CreatedAt        time.Time               `gorm:"autoCreateTime;index" json:"created_at"`
}

func (EnrollmentRecord) TableName() string {
	return "enrollment_records"
}
