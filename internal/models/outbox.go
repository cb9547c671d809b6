package models

import "time"

// OutboxEvent - строка транзакционного outbox
//
// Пишется в той же транзакции что и доменные изменения, затем relay
// публикует её в Kafka и проставляет published_at. Заменяет таблицу
// событий, которую никто не читает.
type OutboxEvent struct {
	ID            string     `json:"id" db:"id"`
	EventType     string     `json:"event_type" db:"event_type"`
	CorrelationID string     `json:"correlation_id" db:"correlation_id"` // как правило order_group_id
	Payload       []byte     `json:"payload" db:"payload"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	PublishedAt   *time.Time `json:"published_at,omitempty" db:"published_at"`
}

// Типы доменных событий
const (
	EventOfferAccepted  = "BUY_REQUEST.OFFER_ACCEPTED"
	EventOrderCancelled = "ORDER.CANCELLED"
	EventOrderPaid      = "ORDER.PAID"
	EventEscrowReleased = "ESCROW.RELEASED"
	EventRequestExpired = "BUY_REQUEST.EXPIRED"
)
