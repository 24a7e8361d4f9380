package controllers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/avishkar-academy/vault/app/models"
	"github.com/avishkar-academy/vault/internal/pkg/apperrors"
	"github.com/avishkar-academy/vault/internal/pkg/audit"
	"github.com/avishkar-academy/vault/internal/pkg/billing"
)

// WebhookController receives gateway deliveries.
type WebhookController struct {
	log       *billing.Service
	processor *billing.WebhookProcessor
	trail     *audit.Trail
	secret    string
}

func NewWebhookController(store *billing.Service, processor *billing.WebhookProcessor, trail *audit.Trail, secret string) *WebhookController {
	return &WebhookController{log: store, processor: processor, trail: trail, secret: secret}
}

// HandleRazorpay verifies, records and applies one delivery. Deliveries
// with a bad signature are rejected before anything is stored. A stored
// delivery that already processed cleanly is acknowledged as a duplicate;
// one whose processing failed is applied again.
func (wc *WebhookController) HandleRazorpay(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := strings.TrimSpace(c.Get("X-Razorpay-Signature"))
	eventID := strings.TrimSpace(c.Get("X-Razorpay-Event-Id"))

	ctx, cancel := context.WithTimeout(c.UserContext(), 15*time.Second)
	defer cancel()

	if !billing.VerifyWebhookSignature(rawBody, signature, wc.secret) {
		log.Errorf("[Webhook] invalid signature from %s event=%s", ClientIP(c), eventID)
		wc.trail.Record(ctx, audit.Entry{
			Action:      models.AuditSignatureRejected,
			TargetTable: "payment_webhook_events",
			TargetID:    eventID,
			IPAddress:   ClientIP(c),
			Details:     map[string]any{"source": "webhook", "user_agent": c.Get(fiber.HeaderUserAgent)},
		})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
	}

	event, err := billing.ParseWebhookEvent(rawBody)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	created, stored, err := wc.log.RecordWebhookEvent(ctx, billing.WebhookEventInput{
		Provider:        billing.ProviderRazorpay,
		ProviderEventID: eventID,
		EventType:       event.Event,
		PayloadJSON:     string(rawBody),
		SignatureValid:  true,
	})
	if err != nil {
		log.Errorf("[Webhook] persist failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_persist_failed"})
	}
	if !created && stored.Settled() {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "duplicate": true})
	}

	procErr := wc.processor.Process(ctx, event)
	if err := wc.log.MarkWebhookProcessed(ctx, stored.ID, procErr); err != nil {
		log.Warnf("[Webhook] could not mark event %d processed: %v", stored.ID, err)
	}
	if procErr == nil {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
	}

	kind := apperrors.KindOf(procErr)
	if kind == apperrors.KindInternal || apperrors.IsRetryable(procErr) {
		// Non-2xx makes the gateway redeliver.
		return respondError(c, procErr)
	}
	log.Warnf("[Webhook] event %s for payment=%s not applied: %v", event.Event, event.PaymentID, procErr)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "ignored": true, "error": string(kind)})
}
