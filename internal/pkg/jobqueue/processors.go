package jobqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/avishkar-academy/vault/app/models"
	"github.com/avishkar-academy/vault/app/repository"
	"github.com/avishkar-academy/vault/internal/pkg/mail"
)

// OrderExpirer cancels created orders that were never paid.
type OrderExpirer interface {
	ExpireStaleOrders(ctx context.Context, maxAge time.Duration) (int64, error)
}

// Processors holds what the job handlers need.
type Processors struct {
	Orders      OrderExpirer
	Enrollments repository.EnrollmentRepository
	Mailer      mail.Sender
}

// RegisterProcessors binds every known job type on q.
func RegisterProcessors(q *Queue, p Processors) {
	q.Register(JobTypeExpireStaleOrders, p.processExpireStaleOrders)
	q.Register(JobTypeSendEnrollmentMail, p.processSendEnrollmentMail)
}

func (p Processors) processExpireStaleOrders(ctx context.Context, job *Job) error {
	payload, err := ExpireStaleOrdersPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	if payload.MaxAgeMinutes <= 0 {
		return fmt.Errorf("max age must be positive, got %d", payload.MaxAgeMinutes)
	}
	_, err = p.Orders.ExpireStaleOrders(ctx, time.Duration(payload.MaxAgeMinutes)*time.Minute)
	return err
}

func (p Processors) processSendEnrollmentMail(ctx context.Context, job *Job) error {
	payload, err := SendEnrollmentMailPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	record, err := p.Enrollments.GetByID(ctx, payload.RecordID)
	if err != nil {
		return fmt.Errorf("load enrollment %d: %w", payload.RecordID, err)
	}
	return sendEnrollmentMail(p.Mailer, record)
}

func sendEnrollmentMail(sender mail.Sender, record *models.EnrollmentRecord) error {
	subject, body, err := mail.EnrollmentConfirmation(record)
	if err != nil {
		return err
	}
	if err := sender.Send(record.ContactEmail, subject, body); err != nil {
		return err
	}
	log.Infof("[JobQueue] Enrollment mail sent for record %d", record.ID)
	return nil
}

// EnrollmentNotifier queues the confirmation mail for a new enrollment.
// Without a queue the mail is sent inline.
type EnrollmentNotifier struct {
	Queue  *Queue
	Mailer mail.Sender
}

func (n *EnrollmentNotifier) EnrollmentCreated(ctx context.Context, record *models.EnrollmentRecord) error {
	if n.Queue != nil && n.Queue.client != nil {
		_, err := n.Queue.EnqueueJob(ctx, JobTypeSendEnrollmentMail, SendEnrollmentMailPayload{RecordID: record.ID}.ToMap())
		return err
	}
	if n.Mailer == nil {
		return nil
	}
	return sendEnrollmentMail(n.Mailer, record)
}
