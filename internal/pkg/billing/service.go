package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/avishkar-academy/vault/app/models"
)

// maxProcessingError fits the text column on every supported database.
const maxProcessingError = 2000

// Service keeps the log of gateway webhook deliveries. Every delivery with a
// valid signature is stored once; redeliveries find the stored row.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates the webhook log from an injected repository.
func NewService(repo Repository, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, now: now}
}

// NewServiceFromDB creates the webhook log from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, now func() time.Time) *Service {
	return NewService(NewRepository(db), now)
}

// RecordWebhookEvent stores a delivery and returns the stored row. created
// is false for a redelivery. Without a gateway event id the payload hash is
// the dedupe key.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (created bool, event *models.PaymentWebhookEvent, err error) {
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return false, nil, errors.New("provider is required")
	}
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	row := &models.PaymentWebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		PayloadJSON:     in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
	}
	if created, err = s.repo.InsertEvent(ctx, row); err != nil {
		return false, nil, err
	}
	if created {
		return true, row, nil
	}
	event, err = s.repo.FindEvent(ctx, provider, eventID)
	if err != nil {
		return false, nil, err
	}
	return false, event, nil
}

// MarkWebhookProcessed stamps the event as handled together with the error
// text of a failed run. A failed run stays eligible for redelivery.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	if webhookEventID == 0 {
		return errors.New("webhook event id is required")
	}
	msg := ""
	if processingErr != nil {
		msg = processingErr.Error()
		if len(msg) > maxProcessingError {
			msg = msg[:maxProcessingError]
		}
	}
	return s.repo.FinishEvent(ctx, webhookEventID, msg, s.now().UTC())
}
