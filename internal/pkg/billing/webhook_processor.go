package billing

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2/log"

	"github.com/avishkar-academy/vault/internal/pkg/apperrors"
)

// WebhookProcessor applies verified gateway events.
type WebhookProcessor struct {
	confirmer *Confirmer
	orders    *OrderService
}

func NewWebhookProcessor(confirmer *Confirmer, orders *OrderService) *WebhookProcessor {
	return &WebhookProcessor{confirmer: confirmer, orders: orders}
}

// Process handles one event. Unknown event types are ignored.
func (p *WebhookProcessor) Process(ctx context.Context, ev *PaymentEvent) error {
	switch ev.Event {
	case EventPaymentCaptured, EventOrderPaid:
		res, err := p.confirmer.ConfirmCaptured(ctx, ev)
		if err != nil {
			return err
		}
		if !res.Created {
			log.Infof("[Webhook] payment %s already confirmed", ev.PaymentID)
		}
		return nil
	case EventPaymentFailed:
		if ev.OrderID == "" {
			return apperrors.Validation("payment.failed without order id")
		}
		reason := ev.ErrorDescription
		if reason == "" {
			reason = "payment failed"
		}
		_, err := p.orders.RecordPaymentFailure(ctx, ev.OrderID, reason)
		if errors.Is(err, apperrors.ErrNotFound) {
			log.Warnf("[Webhook] payment.failed for unknown order %s", ev.OrderID)
			return nil
		}
		return err
	default:
		log.Debugf("[Webhook] ignoring event %s", ev.Event)
		return nil
	}
}
