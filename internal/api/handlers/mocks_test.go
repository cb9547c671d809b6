package handlers

import (
	"context"
	"time"

	"stocklot/internal/models"
	"stocklot/internal/service"
)

// ============ Мок сервиса заказов ============

type mockOrderService struct {
	group        *models.OrderGroup
	sellerOrders []*models.SellerOrder
	refresh      *service.RefreshResult
	replayed     bool
	err          error

	gotAccept   service.AcceptOfferParams
	gotGroupID  string
	gotBuyerID  string
	gotProvider string
	gotPayload  []byte
	gotSig      string
}

func (m *mockOrderService) AcceptOfferAndCreateOrder(ctx context.Context, p service.AcceptOfferParams) (*models.OrderGroup, bool, error) {
	m.gotAccept = p
	if m.err != nil {
		return nil, false, m.err
	}
	return m.group, m.replayed, nil
}

func (m *mockOrderService) GetOrder(groupID, buyerID string) (*models.OrderGroup, []*models.SellerOrder, error) {
	m.gotGroupID = groupID
	m.gotBuyerID = buyerID
	if m.err != nil {
		return nil, nil, m.err
	}
	return m.group, m.sellerOrders, nil
}

func (m *mockOrderService) RefreshPriceLock(groupID, buyerID string) (*service.RefreshResult, error) {
	m.gotGroupID = groupID
	m.gotBuyerID = buyerID
	if m.err != nil {
		return nil, m.err
	}
	return m.refresh, nil
}

func (m *mockOrderService) CancelOrder(groupID, buyerID string) error {
	m.gotGroupID = groupID
	m.gotBuyerID = buyerID
	return m.err
}

func (m *mockOrderService) HandlePaymentWebhook(provider string, payload []byte, signature string) error {
	m.gotProvider = provider
	m.gotPayload = payload
	m.gotSig = signature
	return m.err
}

func (m *mockOrderService) ConfirmDelivery(groupID, buyerID string) error {
	m.gotGroupID = groupID
	m.gotBuyerID = buyerID
	return m.err
}

// ============ Мок сервиса заявок ============

type mockBuyRequestService struct {
	request  *models.BuyRequest
	requests []*models.BuyRequest
	offer    *models.Offer
	offers   []*models.Offer
	err      error

	gotCreate    service.CreateBuyRequestParams
	gotOffer     service.CreateOfferParams
	gotRequestID string
	gotOfferID   string
	gotBuyerID   string
	gotApprove   bool
}

func (m *mockBuyRequestService) CreateBuyRequest(p service.CreateBuyRequestParams) (*models.BuyRequest, error) {
	m.gotCreate = p
	if m.err != nil {
		return nil, m.err
	}
	return m.request, nil
}

func (m *mockBuyRequestService) GetBuyRequest(id string) (*models.BuyRequest, error) {
	m.gotRequestID = id
	if m.err != nil {
		return nil, m.err
	}
	return m.request, nil
}

func (m *mockBuyRequestService) ListOpenRequests(limit int) ([]*models.BuyRequest, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.requests, nil
}

func (m *mockBuyRequestService) CreateOffer(p service.CreateOfferParams) (*models.Offer, error) {
	m.gotOffer = p
	if m.err != nil {
		return nil, m.err
	}
	return m.offer, nil
}

func (m *mockBuyRequestService) ListOffers(requestID, buyerID string) ([]*models.Offer, error) {
	m.gotRequestID = requestID
	m.gotBuyerID = buyerID
	if m.err != nil {
		return nil, m.err
	}
	return m.offers, nil
}

func (m *mockBuyRequestService) DeclineOffer(requestID, offerID, buyerID string) error {
	m.gotRequestID = requestID
	m.gotOfferID = offerID
	m.gotBuyerID = buyerID
	return m.err
}

func (m *mockBuyRequestService) ModerateRequest(id string, approve bool) error {
	m.gotRequestID = id
	m.gotApprove = approve
	return m.err
}

// ============ Мок сервиса уведомлений ============

type mockNotificationService struct {
	notifications []*models.Notification
	err           error

	gotUserID  string
	gotLimit   int
	clearCalls int
}

func (m *mockNotificationService) Notify(userID, notifType, message string, meta map[string]interface{}) error {
	return m.err
}

func (m *mockNotificationService) HandleDomainEvent(eventType string, payload map[string]interface{}) error {
	return m.err
}

func (m *mockNotificationService) GetNotifications(userID string, limit int) ([]*models.Notification, error) {
	m.gotUserID = userID
	m.gotLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	return m.notifications, nil
}

func (m *mockNotificationService) ClearNotifications(userID string) error {
	m.gotUserID = userID
	m.clearCalls++
	return m.err
}

// ============ Мок репозитория комиссий ============

type mockFeeConfigRepo struct {
	active *models.FeeConfig
	err    error
}

func (m *mockFeeConfigRepo) GetActive() (*models.FeeConfig, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.active, nil
}

func (m *mockFeeConfigRepo) Create(cfg *models.FeeConfig) error { return m.err }

func (m *mockFeeConfigRepo) CountActive() (int, error) { return 1, m.err }

func (m *mockFeeConfigRepo) ArchiveExpired(now time.Time) (int64, error) { return 0, m.err }
