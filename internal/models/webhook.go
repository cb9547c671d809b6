package models

import "time"

// WebhookEvent - входящее событие платежного провайдера
//
// Хранится идемпотентно: unique (provider, provider_event_id),
// повторная доставка провайдером не обрабатывается дважды.
type WebhookEvent struct {
	ID              string     `json:"id" db:"id"`
	Provider        string     `json:"provider" db:"provider"`
	ProviderEventID string     `json:"provider_event_id" db:"provider_event_id"`
	EventType       string     `json:"event_type" db:"event_type"`
	Payload         []byte     `json:"-" db:"payload"`
	Processed       bool       `json:"processed" db:"processed"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty" db:"processed_at"`
	ReceivedAt      time.Time  `json:"received_at" db:"received_at"`
}

// Типы событий платежного провайдера
const (
	WebhookChargeSuccess = "charge.success"
	WebhookChargeFailed  = "charge.failed"
	WebhookRefund        = "refund.processed"
)
