package websocket

import (
	"time"

	"stocklot/internal/models"
)

// MessageType определяет тип WebSocket сообщения
type MessageType string

// Типы WebSocket сообщений
const (
	// MessageTypeNotification - новое уведомление
	// Отправляется при событиях заказа: оффер принят, оплата, отмена, выплата
	MessageTypeNotification MessageType = "notification"

	// MessageTypeOrderUpdate - изменение статуса заказа
	// Отправляется при переходах pending_payment → paid → complete
	MessageTypeOrderUpdate MessageType = "orderUpdate"
)

// BaseMessage - базовая структура для всех WebSocket сообщений
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
}

// NotificationMessage - сообщение о новом уведомлении
type NotificationMessage struct {
	BaseMessage
	Data *NotificationData `json:"data"`
}

// NotificationData - данные уведомления
type NotificationData struct {
	// ID уведомления в БД
	ID int `json:"id"`

	// Тип уведомления (OFFER_ACCEPTED, ORDER_PAID, ORDER_CANCELLED, ESCROW_RELEASED)
	Type string `json:"type"`

	// ID адресата
	UserID string `json:"user_id"`

	// Текст сообщения
	Message string `json:"message"`

	// Дополнительные метаданные (order_group_id, суммы, tracking)
	Meta map[string]interface{} `json:"meta,omitempty"`

	// Время создания уведомления
	Timestamp time.Time `json:"timestamp"`
}

// OrderUpdateMessage - сообщение об изменении заказа
type OrderUpdateMessage struct {
	BaseMessage
	OrderGroupID string           `json:"order_group_id"`
	Data         *OrderUpdateData `json:"data"`
}

// OrderUpdateData - данные обновления заказа
type OrderUpdateData struct {
	Status             string    `json:"status"`
	TrackingNumber     string    `json:"tracking_number"`
	GrandTotalCents    int64     `json:"grand_total_cents"`
	PriceLockExpiresAt time.Time `json:"price_lock_expires_at"`
}

// NewNotificationMessage создает сообщение уведомления
func NewNotificationMessage(notif *models.Notification) *NotificationMessage {
	return &NotificationMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeNotification,
			Timestamp: time.Now(),
		},
		Data: &NotificationData{
			ID:        notif.ID,
			Type:      notif.Type,
			UserID:    notif.UserID,
			Message:   notif.Message,
			Meta:      notif.Meta,
			Timestamp: notif.Timestamp,
		},
	}
}

// NewOrderUpdateMessage создает сообщение обновления заказа
func NewOrderUpdateMessage(group *models.OrderGroup) *OrderUpdateMessage {
	return &OrderUpdateMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeOrderUpdate,
			Timestamp: time.Now(),
		},
		OrderGroupID: group.ID,
		Data: &OrderUpdateData{
			Status:             group.Status,
			TrackingNumber:     group.TrackingNumber,
			GrandTotalCents:    group.Totals.GrandTotalCents,
			PriceLockExpiresAt: group.PriceLockExpiresAt,
		},
	}
}
