package models

import "time"

// Notification представляет уведомление пользователя о событии заказа
type Notification struct {
	ID        int                    `json:"id" db:"id"`
	UserID    string                 `json:"user_id" db:"user_id"`
	Timestamp time.Time              `json:"timestamp" db:"timestamp"`
	Type      string                 `json:"type" db:"type"`
	Channel   string                 `json:"channel" db:"channel"`
	Message   string                 `json:"message" db:"message"`
	Meta      map[string]interface{} `json:"meta,omitempty" db:"meta"` // дополнительные данные (JSON в БД)
}

// Типы уведомлений
const (
	NotificationTypeOfferAccepted  = "OFFER_ACCEPTED"  // оффер принят, заказ создан
	NotificationTypeOrderPaid      = "ORDER_PAID"      // оплата получена, эскроу funded
	NotificationTypeOrderCancelled = "ORDER_CANCELLED" // заказ отменен
	NotificationTypeEscrowReleased = "ESCROW_RELEASED" // эскроу высвобожден, выплата создана
	NotificationTypeRequestExpired = "REQUEST_EXPIRED" // заявка истекла
)

// Каналы доставки уведомлений
const (
	ChannelInApp = "in_app"
	ChannelEmail = "email"
	ChannelPush  = "push"
)
