package billing

import (
	"encoding/json"
	"errors"
	"strings"
)

// Razorpay webhook event types handled by the service.
const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
	EventOrderPaid       = "order.paid"
)

// PaymentEvent is the subset of a Razorpay webhook the service acts on.
type PaymentEvent struct {
	Event            string
	PaymentID        string
	OrderID          string
	Amount           int64
	Currency         string
	Status           string
	ErrorDescription string
	CreatedAt        int64
}

type razorpayWebhook struct {
	Event     string `json:"event"`
	CreatedAt int64  `json:"created_at"`
	Payload   struct {
		Payment struct {
			Entity struct {
				ID               string `json:"id"`
				OrderID          string `json:"order_id"`
				Amount           int64  `json:"amount"`
				Currency         string `json:"currency"`
				Status           string `json:"status"`
				ErrorDescription string `json:"error_description"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

func ParseWebhookEvent(payload []byte) (*PaymentEvent, error) {
	var raw razorpayWebhook
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw.Event) == "" {
		return nil, errors.New("missing event type")
	}
	p := raw.Payload.Payment.Entity
	return &PaymentEvent{
		Event:            strings.TrimSpace(raw.Event),
		PaymentID:        strings.TrimSpace(p.ID),
		OrderID:          strings.TrimSpace(p.OrderID),
		Amount:           p.Amount,
		Currency:         strings.ToUpper(strings.TrimSpace(p.Currency)),
		Status:           p.Status,
		ErrorDescription: p.ErrorDescription,
		CreatedAt:        raw.CreatedAt,
	}, nil
}

// IsPaymentEvent reports whether the event refers to a payment with an order.
func (e *PaymentEvent) IsPaymentEvent() bool {
	return e.PaymentID != "" && e.OrderID != ""
}
