package service

import (
	"context"
	"time"

	"stocklot/internal/models"
	"stocklot/internal/repository"
)

// BuyRequestRepositoryInterface определяет интерфейс репозитория заявок
type BuyRequestRepositoryInterface interface {
	Create(req *models.BuyRequest) error
	GetByID(id string) (*models.BuyRequest, error)
	GetOpenByIDAndBuyer(id, buyerID string) (*models.BuyRequest, error)
	GetByStatus(status string, limit int) ([]*models.BuyRequest, error)
	UpdateStatus(id, status string) error
	SetModeration(id, moderationStatus, status string) error
	ExpireOpenBefore(now time.Time) (int64, error)
	Count() (int, error)
}

// OfferRepositoryInterface определяет интерфейс репозитория офферов
type OfferRepositoryInterface interface {
	Create(offer *models.Offer) error
	GetByID(id string) (*models.Offer, error)
	GetPendingByIDAndRequest(id, requestID string) (*models.Offer, error)
	ExistsPendingBySeller(requestID, sellerID string) (bool, error)
	GetByRequestID(requestID string) ([]*models.Offer, error)
	UpdateStatus(id, status string) error
}

// OrderRepositoryInterface определяет интерфейс репозитория заказов
type OrderRepositoryInterface interface {
	CreateOrderGroupTx(p repository.CreateOrderParams) error
	GetByID(id string) (*models.OrderGroup, error)
	GetByIDAndBuyer(id, buyerID string) (*models.OrderGroup, error)
	GetByIdempotencyKey(key string) (*models.OrderGroup, error)
	GetSellerOrdersByGroup(groupID string) ([]*models.SellerOrder, error)
	GetFeeSnapshot(sellerOrderID string) (*models.SellerOrderFees, error)
	UpdatePriceLock(id string, totals models.OrderTotals, expiresAt time.Time) error
	CancelTx(groupID string, outbox *models.OutboxEvent) error
	MarkPaidTx(groupID string, outbox *models.OutboxEvent) error
	RefundTx(groupID string, outbox *models.OutboxEvent) error
	CompleteTx(groupID string, payout *models.Payout, outbox *models.OutboxEvent) error
	GetStalePendingPayment(lockExpiredBefore time.Time, limit int) ([]string, error)
}

// ListingRepositoryInterface определяет интерфейс репозитория лотов.
// Изменение остатка идет только внутри транзакций OrderRepository.
type ListingRepositoryInterface interface {
	GetByID(id string) (*models.Listing, error)
	Create(l *models.Listing) error
}

// UserRepositoryInterface определяет интерфейс репозитория пользователей
type UserRepositoryInterface interface {
	Create(u *models.User) error
	GetByID(id string) (*models.User, error)
	GetAddressByIDAndUser(addressID, userID string) (*models.Address, error)
}

// FeeConfigRepositoryInterface определяет интерфейс репозитория комиссий
type FeeConfigRepositoryInterface interface {
	GetActive() (*models.FeeConfig, error)
	Create(cfg *models.FeeConfig) error
	CountActive() (int, error)
	ArchiveExpired(now time.Time) (int64, error)
}

// WebhookRepositoryInterface определяет интерфейс репозитория webhook событий
type WebhookRepositoryInterface interface {
	InsertIfNew(ev *models.WebhookEvent) (bool, error)
	MarkProcessed(id string) error
	GetUnprocessed(limit int) ([]*models.WebhookEvent, error)
}

// NotificationRepositoryInterface определяет интерфейс репозитория уведомлений
type NotificationRepositoryInterface interface {
	Create(n *models.Notification) error
	GetRecentByUser(userID string, limit int) ([]*models.Notification, error)
	DeleteAllForUser(userID string) error
	CountByUser(userID string) (int, error)
	KeepRecent(userID string, keepCount int) (int64, error)
}

// OutboxRepositoryInterface определяет интерфейс репозитория outbox
type OutboxRepositoryInterface interface {
	Insert(ev *models.OutboxEvent) error
	GetUnpublished(limit int) ([]*models.OutboxEvent, error)
	MarkPublished(ids []string) error
	CountUnpublished() (int, error)
}

// Проверяем, что реальные репозитории реализуют интерфейсы
var _ BuyRequestRepositoryInterface = (*repository.BuyRequestRepository)(nil)
var _ OfferRepositoryInterface = (*repository.OfferRepository)(nil)
var _ OrderRepositoryInterface = (*repository.OrderRepository)(nil)
var _ ListingRepositoryInterface = (*repository.ListingRepository)(nil)
var _ UserRepositoryInterface = (*repository.UserRepository)(nil)
var _ FeeConfigRepositoryInterface = (*repository.FeeConfigRepository)(nil)
var _ WebhookRepositoryInterface = (*repository.WebhookRepository)(nil)
var _ NotificationRepositoryInterface = (*repository.NotificationRepository)(nil)
var _ OutboxRepositoryInterface = (*repository.OutboxRepository)(nil)

// ============ Интерфейсы сервисов для Dependency Injection ============

// OrderServiceInterface определяет интерфейс сервиса заказов.
// Второе значение AcceptOfferAndCreateOrder - replay по ключу
// идемпотентности (true когда вернулась ранее созданная группа).
type OrderServiceInterface interface {
	AcceptOfferAndCreateOrder(ctx context.Context, p AcceptOfferParams) (*models.OrderGroup, bool, error)
	GetOrder(groupID, buyerID string) (*models.OrderGroup, []*models.SellerOrder, error)
	RefreshPriceLock(groupID, buyerID string) (*RefreshResult, error)
	CancelOrder(groupID, buyerID string) error
	HandlePaymentWebhook(provider string, payload []byte, signature string) error
	ConfirmDelivery(groupID, buyerID string) error
}

// BuyRequestServiceInterface определяет интерфейс сервиса заявок
type BuyRequestServiceInterface interface {
	CreateBuyRequest(p CreateBuyRequestParams) (*models.BuyRequest, error)
	GetBuyRequest(id string) (*models.BuyRequest, error)
	ListOpenRequests(limit int) ([]*models.BuyRequest, error)
	CreateOffer(p CreateOfferParams) (*models.Offer, error)
	ListOffers(requestID, buyerID string) ([]*models.Offer, error)
	DeclineOffer(requestID, offerID, buyerID string) error
	ModerateRequest(id string, approve bool) error
}

// NotificationServiceInterface определяет интерфейс сервиса уведомлений
type NotificationServiceInterface interface {
	Notify(userID, notifType, message string, meta map[string]interface{}) error
	HandleDomainEvent(eventType string, payload map[string]interface{}) error
	GetNotifications(userID string, limit int) ([]*models.Notification, error)
	ClearNotifications(userID string) error
}

// Проверяем, что реальные сервисы реализуют интерфейсы
var _ OrderServiceInterface = (*OrderService)(nil)
var _ BuyRequestServiceInterface = (*BuyRequestService)(nil)
var _ NotificationServiceInterface = (*NotificationService)(nil)
