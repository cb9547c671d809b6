package service

import (
	"fmt"

	"go.uber.org/zap"

	"stocklot/internal/metrics"
	"stocklot/internal/models"
	"stocklot/pkg/money"
)

// WebSocketSender - интерфейс адресной отправки WebSocket сообщений.
// Реализация доставляет уведомление только соединениям его адресата.
//
// Позволяет избежать циклических зависимостей между пакетами
// и упрощает тестирование (можно подставить mock)
type WebSocketSender interface {
	SendNotification(n *models.Notification)
}

// EmailSender отправляет email через внешний шлюз
type EmailSender interface {
	Send(to, subject, body string) error
}

// NotificationService предоставляет фан-аут уведомлений по каналам.
//
// Каналы:
// - in_app: строка в БД + real-time broadcast по WebSocket
// - email: отправка через шлюз, сбой не валит остальные каналы
// - push: записывается в журнал, доставка подключается отдельно
//
// Вызывается notifier consumer'ом на доменные события из Kafka.
type NotificationService struct {
	notificationRepo NotificationRepositoryInterface
	userRepo         UserRepositoryInterface
	wsHub            WebSocketSender
	emailSender      EmailSender
	logger           *zap.Logger
}

// NewNotificationService создает новый экземпляр NotificationService.
func NewNotificationService(
	notificationRepo NotificationRepositoryInterface,
	userRepo UserRepositoryInterface,
	logger *zap.Logger,
) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		logger:           logger,
	}
}

// SetWebSocketHub устанавливает WebSocket hub для real-time доставки.
// Вызывается после инициализации Hub в main.go.
func (s *NotificationService) SetWebSocketHub(hub WebSocketSender) {
	s.wsHub = hub
}

// SetEmailSender подключает email шлюз. Без него email канал выключен.
func (s *NotificationService) SetEmailSender(sender EmailSender) {
	s.emailSender = sender
}

// Notify доставляет уведомление пользователю по всем каналам.
//
// In-app канал обязателен: его сбой возвращается как ошибка.
// Email и push - best effort: сбой логируется и учитывается в метриках,
// но не валит доставку.
func (s *NotificationService) Notify(userID, notifType, message string, meta map[string]interface{}) error {
	inApp := &models.Notification{
		UserID:  userID,
		Type:    notifType,
		Channel: models.ChannelInApp,
		Message: message,
		Meta:    meta,
	}
	if err := s.notificationRepo.Create(inApp); err != nil {
		metrics.NotificationsSent.WithLabelValues(models.ChannelInApp, "error").Inc()
		return err
	}
	metrics.NotificationsSent.WithLabelValues(models.ChannelInApp, "ok").Inc()

	if s.wsHub != nil {
		s.wsHub.SendNotification(inApp)
	}

	s.sendEmail(userID, notifType, message, meta)

	// Push-канал: журналируем намерение, доставка внешним провайдером
	push := &models.Notification{
		UserID:  userID,
		Type:    notifType,
		Channel: models.ChannelPush,
		Message: message,
		Meta:    meta,
	}
	if err := s.notificationRepo.Create(push); err != nil {
		metrics.NotificationsSent.WithLabelValues(models.ChannelPush, "error").Inc()
		s.logger.Warn("push notification journal failed",
			zap.String("user_id", userID),
			zap.String("type", notifType),
			zap.Error(err))
	} else {
		metrics.NotificationsSent.WithLabelValues(models.ChannelPush, "ok").Inc()
	}

	return nil
}

func (s *NotificationService) sendEmail(userID, notifType, message string, meta map[string]interface{}) {
	if s.emailSender == nil {
		return
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		metrics.NotificationsSent.WithLabelValues(models.ChannelEmail, "error").Inc()
		s.logger.Warn("email recipient lookup failed", zap.String("user_id", userID), zap.Error(err))
		return
	}

	subject := emailSubject(notifType)
	if err := s.emailSender.Send(user.Email, subject, message); err != nil {
		metrics.NotificationsSent.WithLabelValues(models.ChannelEmail, "error").Inc()
		s.logger.Warn("email send failed",
			zap.String("user_id", userID),
			zap.String("type", notifType),
			zap.Error(err))
		return
	}

	email := &models.Notification{
		UserID:  userID,
		Type:    notifType,
		Channel: models.ChannelEmail,
		Message: message,
		Meta:    meta,
	}
	if err := s.notificationRepo.Create(email); err != nil {
		s.logger.Warn("email notification journal failed", zap.String("user_id", userID), zap.Error(err))
	}
	metrics.NotificationsSent.WithLabelValues(models.ChannelEmail, "ok").Inc()
}

// emailSubject - тема письма по типу события
func emailSubject(notifType string) string {
	switch notifType {
	case models.NotificationTypeOfferAccepted:
		return "Your StockLot order has been created"
	case models.NotificationTypeOrderPaid:
		return "StockLot payment confirmed"
	case models.NotificationTypeOrderCancelled:
		return "StockLot order cancelled"
	case models.NotificationTypeEscrowReleased:
		return "StockLot payout on the way"
	default:
		return "StockLot update"
	}
}

// HandleDomainEvent раскладывает доменное событие в уведомления
// участникам. Вызывается consumer'ом на каждое событие из Kafka.
func (s *NotificationService) HandleDomainEvent(eventType string, payload map[string]interface{}) error {
	buyerID, _ := payload["buyer_id"].(string)
	sellerID, _ := payload["seller_id"].(string)
	orderID, _ := payload["order_group_id"].(string)

	switch eventType {
	case models.EventOfferAccepted:
		tracking, _ := payload["tracking_number"].(string)
		total := moneyFromPayload(payload["grand_total"])
		if buyerID != "" {
			msg := fmt.Sprintf("Order %s created, %s due within the price lock window", tracking, money.FormatRand(total))
			if err := s.Notify(buyerID, models.NotificationTypeOfferAccepted, msg, payload); err != nil {
				return err
			}
		}
		if sellerID != "" {
			msg := fmt.Sprintf("Your offer was accepted, order %s is awaiting payment", tracking)
			if err := s.Notify(sellerID, models.NotificationTypeOfferAccepted, msg, payload); err != nil {
				return err
			}
		}

	case models.EventOrderPaid:
		if sellerID != "" {
			if err := s.Notify(sellerID, models.NotificationTypeOrderPaid,
				"Payment received, funds are held in escrow until delivery", payload); err != nil {
				return err
			}
		}
		if buyerID != "" {
			if err := s.Notify(buyerID, models.NotificationTypeOrderPaid,
				"Payment confirmed for order "+orderID, payload); err != nil {
				return err
			}
		}

	case models.EventOrderCancelled:
		reason, _ := payload["reason"].(string)
		msg := "Order " + orderID + " was cancelled"
		if reason == "payment_timeout" {
			msg = "Order " + orderID + " was cancelled: payment window expired"
		}
		for _, uid := range []string{buyerID, sellerID} {
			if uid == "" {
				continue
			}
			if err := s.Notify(uid, models.NotificationTypeOrderCancelled, msg, payload); err != nil {
				return err
			}
		}

	case models.EventEscrowReleased:
		amount := moneyFromPayload(payload["payout_amount"])
		if sellerID != "" {
			msg := fmt.Sprintf("Delivery confirmed, payout of %s is on the way", money.FormatRand(amount))
			if err := s.Notify(sellerID, models.NotificationTypeEscrowReleased, msg, payload); err != nil {
				return err
			}
		}

	case models.EventRequestExpired:
		// Агрегированное событие sweeper'а, адресата нет
		return nil

	default:
		s.logger.Debug("unhandled domain event", zap.String("event_type", eventType))
	}

	return nil
}

// GetNotifications возвращает журнал уведомлений пользователя
func (s *NotificationService) GetNotifications(userID string, limit int) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}

	notifications, err := s.notificationRepo.GetRecentByUser(userID, limit)
	if err != nil {
		return nil, err
	}
	if notifications == nil {
		notifications = []*models.Notification{}
	}
	return notifications, nil
}

// ClearNotifications очищает журнал уведомлений пользователя
func (s *NotificationService) ClearNotifications(userID string) error {
	return s.notificationRepo.DeleteAllForUser(userID)
}

// CleanupOld оставляет пользователю только последние N записей журнала
func (s *NotificationService) CleanupOld(userID string, keepCount int) (int64, error) {
	if keepCount <= 0 {
		keepCount = 100
	}
	return s.notificationRepo.KeepRecent(userID, keepCount)
}

// moneyFromPayload достает сумму из JSON payload'а (float64 после decode)
func moneyFromPayload(v interface{}) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}
