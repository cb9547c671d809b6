package service

import (
	"context"
	"sync"
	"time"

	"stocklot/internal/models"
	"stocklot/internal/repository"
)

// ============ Mock BuyRequestRepository ============

type MockBuyRequestRepository struct {
	mu        sync.Mutex
	requests  map[string]*models.BuyRequest
	createErr error
	getErr    error
}

func NewMockBuyRequestRepository() *MockBuyRequestRepository {
	return &MockBuyRequestRepository{requests: make(map[string]*models.BuyRequest)}
}

func (m *MockBuyRequestRepository) Create(req *models.BuyRequest) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	req.CreatedAt = now
	req.UpdatedAt = now
	m.requests[req.ID] = req
	return nil
}

func (m *MockBuyRequestRepository) GetByID(id string) (*models.BuyRequest, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if req, ok := m.requests[id]; ok {
		return req, nil
	}
	return nil, repository.ErrBuyRequestNotFound
}

func (m *MockBuyRequestRepository) GetOpenByIDAndBuyer(id, buyerID string) (*models.BuyRequest, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok || req.BuyerID != buyerID || req.Status != models.BuyRequestStatusOpen {
		return nil, repository.ErrBuyRequestNotFound
	}
	return req, nil
}

func (m *MockBuyRequestRepository) GetByStatus(status string, limit int) ([]*models.BuyRequest, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.BuyRequest
	for _, req := range m.requests {
		if req.Status == status && len(result) < limit {
			result = append(result, req)
		}
	}
	return result, nil
}

func (m *MockBuyRequestRepository) UpdateStatus(id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok {
		return repository.ErrBuyRequestNotFound
	}
	req.Status = status
	return nil
}

func (m *MockBuyRequestRepository) SetModeration(id, moderationStatus, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok || req.ModerationStatus != models.ModerationPendingReview {
		return repository.ErrBuyRequestNotFound
	}
	req.ModerationStatus = moderationStatus
	req.Status = status
	return nil
}

func (m *MockBuyRequestRepository) ExpireOpenBefore(now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var expired int64
	for _, req := range m.requests {
		if req.Status == models.BuyRequestStatusOpen && req.ExpiresAt.Before(now) {
			req.Status = models.BuyRequestStatusClosed
			expired++
		}
	}
	return expired, nil
}

func (m *MockBuyRequestRepository) Count() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests), nil
}

// ============ Mock OfferRepository ============

type MockOfferRepository struct {
	mu        sync.Mutex
	offers    map[string]*models.Offer
	createErr error
	getErr    error
}

func NewMockOfferRepository() *MockOfferRepository {
	return &MockOfferRepository{offers: make(map[string]*models.Offer)}
}

func (m *MockOfferRepository) Create(offer *models.Offer) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.offers {
		if o.RequestID == offer.RequestID && o.SellerID == offer.SellerID && o.Status == models.OfferStatusPending {
			return repository.ErrOfferAlreadyExists
		}
	}
	now := time.Now()
	offer.CreatedAt = now
	offer.UpdatedAt = now
	m.offers[offer.ID] = offer
	return nil
}

func (m *MockOfferRepository) GetByID(id string) (*models.Offer, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if offer, ok := m.offers[id]; ok {
		return offer, nil
	}
	return nil, repository.ErrOfferNotFound
}

func (m *MockOfferRepository) GetPendingByIDAndRequest(id, requestID string) (*models.Offer, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	offer, ok := m.offers[id]
	if !ok || offer.RequestID != requestID || offer.Status != models.OfferStatusPending {
		return nil, repository.ErrOfferNotFound
	}
	return offer, nil
}

func (m *MockOfferRepository) ExistsPendingBySeller(requestID, sellerID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.offers {
		if o.RequestID == requestID && o.SellerID == sellerID && o.Status == models.OfferStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockOfferRepository) GetByRequestID(requestID string) ([]*models.Offer, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Offer
	for _, o := range m.offers {
		if o.RequestID == requestID {
			result = append(result, o)
		}
	}
	return result, nil
}

func (m *MockOfferRepository) UpdateStatus(id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	offer, ok := m.offers[id]
	if !ok || offer.Status != models.OfferStatusPending {
		return repository.ErrOfferNotFound
	}
	offer.Status = status
	return nil
}

// ============ Mock ListingRepository ============

type MockListingRepository struct {
	mu       sync.Mutex
	listings map[string]*models.Listing
	getErr   error
}

func NewMockListingRepository() *MockListingRepository {
	return &MockListingRepository{listings: make(map[string]*models.Listing)}
}

func (m *MockListingRepository) GetByID(id string) (*models.Listing, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.listings[id]; ok {
		return l, nil
	}
	return nil, repository.ErrListingNotFound
}

func (m *MockListingRepository) Create(l *models.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listings[l.ID] = l
	return nil
}

func (m *MockListingRepository) DecrementQty(id string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok || l.AvailableQty < qty {
		return repository.ErrInsufficientQty
	}
	l.AvailableQty -= qty
	return nil
}

func (m *MockListingRepository) IncrementQty(id string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok {
		return repository.ErrListingNotFound
	}
	l.AvailableQty += qty
	return nil
}

// ============ Mock OrderRepository ============

// MockOrderRepository воспроизводит транзакционные guard'ы реального
// репозитория: резервирование остатка, неизменяемость принятого оффера,
// переходы статусов.
type MockOrderRepository struct {
	mu           sync.Mutex
	groups       map[string]*models.OrderGroup
	sellerOrders map[string][]*models.SellerOrder
	escrows      map[string]*models.EscrowRecord
	fees         map[string]*models.SellerOrderFees
	payouts      []*models.Payout
	outbox       []*models.OutboxEvent
	byIdemKey    map[string]string

	// связанные mock'и для симуляции транзакции
	listings *MockListingRepository
	offers   *MockOfferRepository
	requests *MockBuyRequestRepository

	createErr error
	getErr    error
}

func NewMockOrderRepository(listings *MockListingRepository, offers *MockOfferRepository, requests *MockBuyRequestRepository) *MockOrderRepository {
	return &MockOrderRepository{
		groups:       make(map[string]*models.OrderGroup),
		sellerOrders: make(map[string][]*models.SellerOrder),
		escrows:      make(map[string]*models.EscrowRecord),
		fees:         make(map[string]*models.SellerOrderFees),
		byIdemKey:    make(map[string]string),
		listings:     listings,
		offers:       offers,
		requests:     requests,
	}
}

func (m *MockOrderRepository) CreateOrderGroupTx(p repository.CreateOrderParams) error {
	if m.createErr != nil {
		return m.createErr
	}

	if p.SellerOrder.ListingID != "" {
		if err := m.listings.DecrementQty(p.SellerOrder.ListingID, p.SellerOrder.Qty); err != nil {
			return err
		}
	}
	if err := m.offers.UpdateStatus(p.OfferID, models.OfferStatusAccepted); err != nil {
		// откат резервирования, как сделал бы rollback транзакции
		if p.SellerOrder.ListingID != "" {
			_ = m.listings.IncrementQty(p.SellerOrder.ListingID, p.SellerOrder.Qty)
		}
		return err
	}
	if err := m.requests.UpdateStatus(p.RequestID, models.BuyRequestStatusFulfilled); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	p.Group.CreatedAt = now
	p.Group.UpdatedAt = now
	m.groups[p.Group.ID] = p.Group
	m.sellerOrders[p.Group.ID] = []*models.SellerOrder{p.SellerOrder}
	m.escrows[p.Group.ID] = p.Escrow
	m.fees[p.SellerOrder.ID] = p.Fees
	if p.Outbox != nil {
		m.outbox = append(m.outbox, p.Outbox)
	}
	if p.Group.IdempotencyKey != nil {
		m.byIdemKey[*p.Group.IdempotencyKey] = p.Group.ID
	}
	return nil
}

func (m *MockOrderRepository) GetByID(id string) (*models.OrderGroup, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.groups[id]; ok {
		return g, nil
	}
	return nil, repository.ErrOrderNotFound
}

func (m *MockOrderRepository) GetByIDAndBuyer(id, buyerID string) (*models.OrderGroup, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[id]
	if !ok || g.BuyerID != buyerID {
		return nil, repository.ErrOrderNotFound
	}
	return g, nil
}

func (m *MockOrderRepository) GetByIdempotencyKey(key string) (*models.OrderGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.byIdemKey[key]; ok {
		return m.groups[id], nil
	}
	return nil, repository.ErrOrderNotFound
}

func (m *MockOrderRepository) GetSellerOrdersByGroup(groupID string) ([]*models.SellerOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sellerOrders[groupID], nil
}

func (m *MockOrderRepository) GetFeeSnapshot(sellerOrderID string) (*models.SellerOrderFees, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.fees[sellerOrderID]; ok {
		return f, nil
	}
	return nil, repository.ErrOrderNotFound
}

func (m *MockOrderRepository) UpdatePriceLock(id string, totals models.OrderTotals, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[id]
	if !ok || g.Status != models.OrderStatusPendingPayment {
		return repository.ErrOrderNotFound
	}
	g.Totals = totals
	g.PriceLockExpiresAt = expiresAt
	return nil
}

func (m *MockOrderRepository) CancelTx(groupID string, outbox *models.OutboxEvent) error {
	m.mu.Lock()
	g, ok := m.groups[groupID]
	if !ok || g.Status != models.OrderStatusPendingPayment {
		m.mu.Unlock()
		return repository.ErrOrderNotCancellable
	}
	g.Status = models.OrderStatusCancelled
	if esc := m.escrows[groupID]; esc != nil && esc.Status == models.EscrowStatusInit {
		esc.Status = models.EscrowStatusVoid
	}
	if outbox != nil {
		m.outbox = append(m.outbox, outbox)
	}
	orders := m.sellerOrders[groupID]
	m.mu.Unlock()

	for _, so := range orders {
		if so.ListingID != "" {
			_ = m.listings.IncrementQty(so.ListingID, so.Qty)
		}
	}
	return nil
}

func (m *MockOrderRepository) MarkPaidTx(groupID string, outbox *models.OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[groupID]
	if !ok || g.Status != models.OrderStatusPendingPayment {
		return repository.ErrOrderBadTransition
	}
	g.Status = models.OrderStatusPaid
	if esc := m.escrows[groupID]; esc != nil && esc.Status == models.EscrowStatusInit {
		now := time.Now()
		esc.Status = models.EscrowStatusFunded
		esc.FundedAt = &now
	}
	if outbox != nil {
		m.outbox = append(m.outbox, outbox)
	}
	return nil
}

func (m *MockOrderRepository) RefundTx(groupID string, outbox *models.OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[groupID]
	if !ok || g.Status != models.OrderStatusPaid {
		return repository.ErrOrderBadTransition
	}
	g.Status = models.OrderStatusCancelled
	if esc := m.escrows[groupID]; esc != nil && esc.Status == models.EscrowStatusFunded {
		esc.Status = models.EscrowStatusRefunded
	}
	if outbox != nil {
		m.outbox = append(m.outbox, outbox)
	}
	return nil
}

func (m *MockOrderRepository) CompleteTx(groupID string, payout *models.Payout, outbox *models.OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[groupID]
	if !ok || g.Status != models.OrderStatusPaid {
		return repository.ErrOrderBadTransition
	}
	g.Status = models.OrderStatusComplete
	if esc := m.escrows[groupID]; esc != nil && esc.Status == models.EscrowStatusFunded {
		now := time.Now()
		esc.Status = models.EscrowStatusReleased
		esc.ReleasedAt = &now
	}
	m.payouts = append(m.payouts, payout)
	if outbox != nil {
		m.outbox = append(m.outbox, outbox)
	}
	return nil
}

func (m *MockOrderRepository) GetStalePendingPayment(lockExpiredBefore time.Time, limit int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, g := range m.groups {
		if g.Status == models.OrderStatusPendingPayment && g.PriceLockExpiresAt.Before(lockExpiredBefore) && len(ids) < limit {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ============ Mock UserRepository ============

type MockUserRepository struct {
	mu        sync.Mutex
	users     map[string]*models.User
	addresses map[string]*models.Address
	getErr    error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:     make(map[string]*models.User),
		addresses: make(map[string]*models.Address),
	}
}

func (m *MockUserRepository) Create(u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	return nil
}

func (m *MockUserRepository) GetByID(id string) (*models.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *MockUserRepository) GetAddressByIDAndUser(addressID, userID string) (*models.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.addresses[addressID]
	if !ok || a.UserID != userID {
		return nil, repository.ErrAddressNotFound
	}
	return a, nil
}

func (m *MockUserRepository) AddAddress(a *models.Address) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addresses[a.ID] = a
}

// ============ Mock FeeConfigRepository ============

type MockFeeConfigRepository struct {
	active *models.FeeConfig
	getErr error
}

func NewMockFeeConfigRepository() *MockFeeConfigRepository {
	return &MockFeeConfigRepository{
		active: &models.FeeConfig{
			ID:                   "cfg-1",
			Name:                 "default",
			PlatformFeeBps:       models.DefaultPlatformFeeBps,
			VATBps:               models.DefaultVATBps,
			CommissionBps:        models.DefaultCommissionBps,
			PayoutFeeBps:         models.DefaultPayoutFeeBps,
			ProcessingFeeBps:     models.DefaultProcessingFeeBps,
			EscrowFeeCents:       models.DefaultEscrowFeeCents,
			MinDeliveryCents:     models.DefaultMinDeliveryCents,
			PerUnitDeliveryCents: models.DefaultPerUnitDeliveryCents,
			AbattoirPerUnitCents: models.DefaultAbattoirPerUnitCents,
			IsActive:             true,
		},
	}
}

func (m *MockFeeConfigRepository) GetActive() (*models.FeeConfig, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.active == nil {
		return nil, repository.ErrFeeConfigNotFound
	}
	return m.active, nil
}

func (m *MockFeeConfigRepository) Create(cfg *models.FeeConfig) error {
	if cfg.IsActive {
		m.active = cfg
	}
	return nil
}

func (m *MockFeeConfigRepository) CountActive() (int, error) {
	if m.active == nil {
		return 0, nil
	}
	return 1, nil
}

func (m *MockFeeConfigRepository) ArchiveExpired(now time.Time) (int64, error) {
	return 0, nil
}

// ============ Mock WebhookRepository ============

type MockWebhookRepository struct {
	mu        sync.Mutex
	events    map[string]*models.WebhookEvent // по (provider, provider_event_id)
	processed map[string]bool
}

func NewMockWebhookRepository() *MockWebhookRepository {
	return &MockWebhookRepository{
		events:    make(map[string]*models.WebhookEvent),
		processed: make(map[string]bool),
	}
}

func (m *MockWebhookRepository) InsertIfNew(ev *models.WebhookEvent) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := ev.Provider + "/" + ev.ProviderEventID
	if _, exists := m.events[key]; exists {
		return false, nil
	}
	ev.ReceivedAt = time.Now()
	m.events[key] = ev
	return true, nil
}

func (m *MockWebhookRepository) MarkProcessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed[id] = true
	return nil
}

func (m *MockWebhookRepository) GetUnprocessed(limit int) ([]*models.WebhookEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.WebhookEvent
	for _, ev := range m.events {
		if !m.processed[ev.ID] && len(result) < limit {
			result = append(result, ev)
		}
	}
	return result, nil
}

// ============ Mock NotificationRepository ============

type MockNotificationRepository struct {
	mu            sync.Mutex
	notifications []*models.Notification
	nextID        int
	createErr     error
}

func NewMockNotificationRepository() *MockNotificationRepository {
	return &MockNotificationRepository{nextID: 1}
}

func (m *MockNotificationRepository) Create(n *models.Notification) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n.ID = m.nextID
	m.nextID++
	n.Timestamp = time.Now()
	m.notifications = append(m.notifications, n)
	return nil
}

func (m *MockNotificationRepository) GetRecentByUser(userID string, limit int) ([]*models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Notification
	for i := len(m.notifications) - 1; i >= 0 && len(result) < limit; i-- {
		if m.notifications[i].UserID == userID {
			result = append(result, m.notifications[i])
		}
	}
	return result, nil
}

func (m *MockNotificationRepository) DeleteAllForUser(userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*models.Notification
	for _, n := range m.notifications {
		if n.UserID != userID {
			kept = append(kept, n)
		}
	}
	m.notifications = kept
	return nil
}

func (m *MockNotificationRepository) CountByUser(userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, n := range m.notifications {
		if n.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (m *MockNotificationRepository) KeepRecent(userID string, keepCount int) (int64, error) {
	count, _ := m.CountByUser(userID)
	if count <= keepCount {
		return 0, nil
	}
	return int64(count - keepCount), nil
}

// byChannel возвращает уведомления пользователя в канале
func (m *MockNotificationRepository) byChannel(userID, channel string) []*models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Notification
	for _, n := range m.notifications {
		if n.UserID == userID && n.Channel == channel {
			result = append(result, n)
		}
	}
	return result
}

// ============ Mock OutboxRepository ============

type MockOutboxRepository struct {
	mu        sync.Mutex
	events    []*models.OutboxEvent
	published map[string]bool
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{published: make(map[string]bool)}
}

func (m *MockOutboxRepository) Insert(ev *models.OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev.CreatedAt = time.Now()
	m.events = append(m.events, ev)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(limit int) ([]*models.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.OutboxEvent
	for _, ev := range m.events {
		if !m.published[ev.ID] && len(result) < limit {
			result = append(result, ev)
		}
	}
	return result, nil
}

func (m *MockOutboxRepository) MarkPublished(ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		m.published[id] = true
	}
	return nil
}

func (m *MockOutboxRepository) CountUnpublished() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, ev := range m.events {
		if !m.published[ev.ID] {
			count++
		}
	}
	return count, nil
}

// ============ Вспомогательные mock'и ============

type MockBroadcaster struct {
	mu     sync.Mutex
	sent   []*models.Notification
}

func (m *MockBroadcaster) SendNotification(n *models.Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, n)
}

type MockEmailSender struct {
	mu      sync.Mutex
	sent    []string // адресаты
	sendErr error
}

func (m *MockEmailSender) Send(to, subject, body string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to)
	return nil
}

type MockIdempotencyCache struct {
	mu     sync.Mutex
	values map[string]string
	getErr error
}

func NewMockIdempotencyCache() *MockIdempotencyCache {
	return &MockIdempotencyCache{values: make(map[string]string)}
}

func (m *MockIdempotencyCache) GetOrderID(ctx context.Context, key string) (string, error) {
	if m.getErr != nil {
		return "", m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], nil
}

func (m *MockIdempotencyCache) SetOrderID(ctx context.Context, key, orderID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = orderID
	return nil
}

// allowAllPolicy пропускает любой заказ
type allowAllPolicy struct{}

func (allowAllPolicy) EvaluateOrder(req *models.BuyRequest, buyer *models.User, totals models.OrderTotals) error {
	return nil
}

// denyPolicy всегда отказывает с заданной ошибкой
type denyPolicy struct {
	err *DomainError
}

func (p denyPolicy) EvaluateOrder(req *models.BuyRequest, buyer *models.User, totals models.OrderTotals) error {
	return p.err
}

// allowAllLimiter не ограничивает офферы
type allowAllLimiter struct{}

func (allowAllLimiter) Allow(key string) bool { return true }

// denyLimiter отклоняет все офферы
type denyLimiter struct{}

func (denyLimiter) Allow(key string) bool { return false }
