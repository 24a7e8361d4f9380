// Package enrollment registers students, including guests without an
// account, for scheduled classes. A contact email holds at most one seat per
// class.
package enrollment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/avishkar-academy/vault/app/models"
	"github.com/avishkar-academy/vault/app/repository"
	"github.com/avishkar-academy/vault/internal/pkg/apperrors"
	"github.com/avishkar-academy/vault/internal/pkg/audit"
	"github.com/avishkar-academy/vault/internal/pkg/catalog"
	"github.com/avishkar-academy/vault/internal/pkg/events"
	"github.com/avishkar-academy/vault/internal/pkg/integrity"
	"github.com/avishkar-academy/vault/internal/pkg/validation"
)

// Notifier is told about every new enrollment, e.g. to queue the
// confirmation email.
type Notifier interface {
	EnrollmentCreated(ctx context.Context, record *models.EnrollmentRecord) error
}

// Input is a sign-up request.
type Input struct {
	ClassID          string `json:"class_id" validate:"notblank,max=36"`
	Name             string `json:"name" validate:"notblank,max=255"`
	Email            string `json:"email" validate:"required,email,max=191"`
	Phone            string `json:"phone" validate:"omitempty,max=32"`
	Address          string `json:"address" validate:"omitempty,max=1000"`
	ClaimedAmount    *int64 `json:"amount,omitempty" validate:"omitempty,gte=0"`
	GatewayPaymentID string `json:"gateway_payment_id" validate:"omitempty,max=64"`
	UserID           string `json:"-"`
	IPAddress        string `json:"-"`
}

type Dependencies struct {
	Catalog     catalog.Reader
	Enrollments repository.EnrollmentRepository
	Orders      repository.OrderRepository
	Validator   *integrity.Validator
	Trail       *audit.Trail
	Events      events.Publisher
	Notifier    Notifier
	Now         func() time.Time
}

type Service struct {
	deps Dependencies
}

func NewService(deps Dependencies) *Service {
	if deps.Events == nil {
		deps.Events = events.Noop{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Service{deps: deps}
}

// Enroll validates the request, checks price and duplicate pre-conditions
// and inserts the record. Every check runs before anything is written.
func (s *Service) Enroll(ctx context.Context, in Input) (*models.EnrollmentRecord, error) {
	in.Email = integrity.NormalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	email := in.Email
	actor := in.UserID
	if actor == "" {
		actor = email
	}

	class, err := s.deps.Catalog.GetPurchasable(ctx, strings.TrimSpace(in.ClassID))
	if err != nil {
		return nil, err
	}
	if class.Kind != models.CatalogKindClass {
		return nil, apperrors.NotFound("class %s", class.ID)
	}
	if class.ClassDate != nil && class.ClassDate.Before(s.deps.Now()) {
		return nil, apperrors.New(apperrors.KindInvalidState, "class %s has already taken place", class.ID)
	}

	if err := s.deps.Validator.CheckPriceIntegrity(ctx, class.ID, in.ClaimedAmount, actor); err != nil {
		return nil, err
	}
	if err := s.deps.Validator.CheckDuplicate(ctx, email, class.ID); err != nil {
		return nil, err
	}

	record := &models.EnrollmentRecord{
		ContactEmail:   email,
		ClassID:        class.ID,
		UserID:         in.UserID,
		StudentName:    strings.TrimSpace(in.Name),
		StudentPhone:   strings.TrimSpace(in.Phone),
		StudentAddress: strings.TrimSpace(in.Address),
		ClassTitle:     class.Title,
		ClassDate:      class.ClassDate,
		AmountPaid:     class.PriceMinor,
		Currency:       class.Currency,
		PaymentStatus:  models.EnrollmentPaymentWaived,
	}
	if class.PriceMinor > 0 {
		if err := s.checkPayment(ctx, class, in.GatewayPaymentID); err != nil {
			return nil, err
		}
		paymentID := strings.TrimSpace(in.GatewayPaymentID)
		record.PaymentStatus = models.EnrollmentPaymentCompleted
		record.GatewayPaymentID = &paymentID
	}

	created, err := s.deps.Enrollments.Create(ctx, record)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, s.conflict(ctx, record)
	}

	log.Infof("[Enrollment] %s enrolled in class=%s status=%s", email, class.ID, record.PaymentStatus)
	s.deps.Trail.Record(ctx, audit.Entry{
		Action:      models.AuditEnrollmentCreated,
		ActorID:     actor,
		TargetTable: "enrollment_records",
		TargetID:    class.ID,
		IPAddress:   in.IPAddress,
		Details:     map[string]any{"email": email, "amount": record.AmountPaid, "payment_status": record.PaymentStatus},
	})
	if env, err := events.NewEnvelope(events.TypeEnrollmentCreated, email, record); err == nil {
		s.deps.Events.Publish(ctx, env)
	}
	if s.deps.Notifier != nil {
		if err := s.deps.Notifier.EnrollmentCreated(ctx, record); err != nil {
			log.Warnf("[Enrollment] notification for record=%d failed: %v", record.ID, err)
		}
	}
	return record, nil
}

// checkPayment accepts a paid class only against a confirmed order for that
// class whose payment has not settled another enrollment.
func (s *Service) checkPayment(ctx context.Context, class *models.CatalogItem, paymentID string) error {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return apperrors.Validation("payment required",
			apperrors.FieldError{Field: "gateway_payment_id", Message: "is required for a paid class"})
	}
	order, err := s.deps.Orders.GetByGatewayPaymentID(ctx, paymentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.Integrity("payment %s is not a confirmed payment", paymentID)
	}
	if err != nil {
		return err
	}
	if order.Status != models.OrderStatusPaid || order.CatalogItemID != class.ID {
		return apperrors.Integrity("payment %s does not settle class %s", paymentID, class.ID)
	}
	if order.Amount != class.PriceMinor {
		return apperrors.New(apperrors.KindPriceMismatch, "payment %s amount does not match the class price", paymentID)
	}
	used, err := s.deps.Enrollments.PaymentUsed(ctx, paymentID)
	if err != nil {
		return err
	}
	if used {
		return apperrors.New(apperrors.KindDuplicateEntitlement, "payment %s already settled an enrollment", paymentID)
	}
	return nil
}

// conflict names the unique key a concurrent sign-up won: the same contact
// for the class, or the same payment under another contact.
func (s *Service) conflict(ctx context.Context, record *models.EnrollmentRecord) error {
	exists, err := s.deps.Enrollments.Exists(ctx, record.ContactEmail, record.ClassID)
	if err != nil {
		return err
	}
	if !exists && record.GatewayPaymentID != nil {
		return apperrors.New(apperrors.KindDuplicateEntitlement, "payment %s already settled an enrollment", *record.GatewayPaymentID)
	}
	return apperrors.New(apperrors.KindAlreadyEnrolled, "%s is already enrolled in this class", record.ContactEmail)
}

// List returns enrollments, optionally for one class.
func (s *Service) List(ctx context.Context, classID string, offset, limit int) ([]models.EnrollmentRecord, int64, error) {
	return s.deps.Enrollments.List(ctx, classID, offset, limit)
}
