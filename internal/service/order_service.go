package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"stocklot/internal/metrics"
	"stocklot/internal/models"
	"stocklot/internal/repository"
	"stocklot/pkg/crypto"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// IdempotencyCache - быстрый путь replay'а по ключу идемпотентности.
//
// Redis перед БД: промах кэша не ошибка, падение Redis не ломает флоу -
// unique index на idempotency_key в order_groups остается источником истины.
type IdempotencyCache interface {
	GetOrderID(ctx context.Context, key string) (string, error)
	SetOrderID(ctx context.Context, key, orderID string, ttl time.Duration) error
}

// AcceptOfferParams - запрос покупателя на принятие оффера
type AcceptOfferParams struct {
	BuyerID   string
	RequestID string
	OfferID   string
	// Qty - сколько голов покупатель берет из оффера.
	// 0 означает весь предложенный объем; больше оффера нельзя.
	Qty            int
	AddressID      string
	AbattoirID     string
	DeliveryMode   string
	IdempotencyKey string
}

// RefreshResult - итог запроса на обновление price lock
type RefreshResult struct {
	Group *models.OrderGroup `json:"order"`
	// Refreshed=false означает что прежний lock еще действует
	// и totals не пересчитывались
	Refreshed bool `json:"refreshed"`
}

const idempotencyTTL = 24 * time.Hour

// OrderService предоставляет бизнес-логику флоу заказа и эскроу.
//
// Отвечает за:
// - Принятие оффера и атомарное создание заказа с эскроу
// - Price lock и его обновление
// - Отмену заказа с возвратом остатка
// - Обработку платежных webhook'ов (оплата, возврат)
// - Подтверждение доставки и выплату продавцу
//
// Все изменения нескольких таблиц идут транзакциями OrderRepository,
// доменные события пишутся в outbox той же транзакцией.
type OrderService struct {
	orderRepo      OrderRepositoryInterface
	buyRequestRepo BuyRequestRepositoryInterface
	offerRepo      OfferRepositoryInterface
	userRepo       UserRepositoryInterface
	feeConfigRepo  FeeConfigRepositoryInterface
	webhookRepo    WebhookRepositoryInterface
	policy         PolicyEvaluator
	idemCache      IdempotencyCache
	webhookSecret  string
}

// NewOrderService создает новый экземпляр OrderService.
func NewOrderService(
	orderRepo OrderRepositoryInterface,
	buyRequestRepo BuyRequestRepositoryInterface,
	offerRepo OfferRepositoryInterface,
	userRepo UserRepositoryInterface,
	feeConfigRepo FeeConfigRepositoryInterface,
	webhookRepo WebhookRepositoryInterface,
	policy PolicyEvaluator,
	webhookSecret string,
) *OrderService {
	return &OrderService{
		orderRepo:      orderRepo,
		buyRequestRepo: buyRequestRepo,
		offerRepo:      offerRepo,
		userRepo:       userRepo,
		feeConfigRepo:  feeConfigRepo,
		webhookRepo:    webhookRepo,
		policy:         policy,
		webhookSecret:  webhookSecret,
	}
}

// SetIdempotencyCache подключает Redis fast-path для replay'а.
// Опционально: без кэша replay идет через unique index в БД.
func (s *OrderService) SetIdempotencyCache(cache IdempotencyCache) {
	s.idemCache = cache
}

// AcceptOfferAndCreateOrder принимает оффер продавца и создает заказ.
//
// Полный флоу:
//  1. Replay по ключу идемпотентности (Redis, затем БД)
//  2. Загрузка и проверка оффера, заявки, продавца, адреса
//  3. Комплаенс (disease control, KYC)
//  4. Расчет totals по активной конфигурации комиссий
//  5. Атомарное создание группы, заказа продавца, эскроу, снимка
//     комиссий с резервированием остатка и событием в outbox
//
// Повторный вызов с тем же ключом возвращает уже созданную группу,
// replayed=true. Конкурентное исчерпание остатка лота возвращает
// код QTY_CHANGED.
func (s *OrderService) AcceptOfferAndCreateOrder(ctx context.Context, p AcceptOfferParams) (*models.OrderGroup, bool, error) {
	start := time.Now()
	defer func() {
		metrics.OrderCreationDuration.Observe(time.Since(start).Seconds())
	}()

	if group, ok := s.replayByIdempotencyKey(ctx, p.IdempotencyKey); ok {
		metrics.OrderCreations.WithLabelValues("replayed").Inc()
		return group, true, nil
	}

	// Оффер проверяется раньше заявки: если невалидно и то и другое,
	// покупатель получает код именно про оффер
	offer, err := s.offerRepo.GetPendingByIDAndRequest(p.OfferID, p.RequestID)
	if err != nil {
		if errors.Is(err, repository.ErrOfferNotFound) {
			return nil, false, s.reject(ErrOfferExpired)
		}
		return nil, false, err
	}

	qty := p.Qty
	if qty == 0 {
		qty = offer.Qty
	}
	if qty < 0 {
		return nil, false, s.reject(NewDomainError(CodeValidationError, "qty must be positive"))
	}
	if qty > offer.Qty {
		return nil, false, s.reject(NewDomainError(CodeValidationError, "qty exceeds the offered quantity"))
	}

	req, err := s.buyRequestRepo.GetOpenByIDAndBuyer(p.RequestID, p.BuyerID)
	if err != nil {
		if errors.Is(err, repository.ErrBuyRequestNotFound) {
			return nil, false, s.reject(ErrRequestInvalid)
		}
		return nil, false, err
	}

	seller, err := s.userRepo.GetByID(offer.SellerID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, false, s.reject(ErrSellerGone)
		}
		return nil, false, err
	}

	buyer, err := s.userRepo.GetByID(p.BuyerID)
	if err != nil {
		return nil, false, err
	}

	deliveryMode := p.DeliveryMode
	if deliveryMode == "" {
		deliveryMode = models.DeliveryModeSeller
	}

	if deliveryMode != models.DeliveryModePickup {
		addr, err := s.userRepo.GetAddressByIDAndUser(p.AddressID, p.BuyerID)
		if err != nil {
			if errors.Is(err, repository.ErrAddressNotFound) {
				return nil, false, s.reject(ErrAddressInvalid)
			}
			return nil, false, err
		}
		if !sellerServesProvince(seller, addr.Province) {
			return nil, false, s.reject(ErrOutOfRange)
		}
	}

	cfg, err := s.feeConfigRepo.GetActive()
	if err != nil {
		return nil, false, err
	}

	totals := ComputeTotals(cfg, PricingInput{
		UnitPriceCents: offer.OfferPriceCents,
		Qty:            qty,
		DeliveryMode:   deliveryMode,
		HasAbattoir:    p.AbattoirID != "",
	})

	if err := s.policy.EvaluateOrder(req, buyer, totals); err != nil {
		var domainErr *DomainError
		if errors.As(err, &domainErr) {
			return nil, false, s.reject(domainErr)
		}
		return nil, false, err
	}

	group := &models.OrderGroup{
		ID:                 uuid.NewString(),
		TrackingNumber:     generateTrackingNumber(),
		BuyerID:            p.BuyerID,
		Status:             models.OrderStatusPendingPayment,
		DeliveryMode:       deliveryMode,
		AddressID:          p.AddressID,
		AbattoirID:         p.AbattoirID,
		Totals:             totals,
		PriceLockExpiresAt: time.Now().Add(models.PriceLockDuration),
	}
	if p.IdempotencyKey != "" {
		key := p.IdempotencyKey
		group.IdempotencyKey = &key
	}

	sellerOrder := &models.SellerOrder{
		ID:             uuid.NewString(),
		OrderGroupID:   group.ID,
		OfferID:        offer.ID,
		SellerID:       offer.SellerID,
		BuyerID:        p.BuyerID,
		ListingID:      offer.ListingID,
		Qty:            qty,
		UnitPriceCents: offer.OfferPriceCents,
		TotalCents:     totals.MerchandiseCents,
		Status:         models.OrderStatusPendingPayment,
	}

	escrow := &models.EscrowRecord{
		ID:           uuid.NewString(),
		OrderGroupID: group.ID,
		BuyerID:      p.BuyerID,
		SellerID:     offer.SellerID,
		AmountCents:  totals.GrandTotalCents,
		Status:       models.EscrowStatusInit,
	}

	fees := ComputeSellerFees(cfg, totals.MerchandiseCents)
	fees.ID = uuid.NewString()
	fees.SellerOrderID = sellerOrder.ID

	outbox, err := buildOutboxEvent(models.EventOfferAccepted, group.ID, map[string]interface{}{
		"order_group_id":  group.ID,
		"tracking_number": group.TrackingNumber,
		"buyer_id":        p.BuyerID,
		"seller_id":       offer.SellerID,
		"request_id":      req.ID,
		"offer_id":        offer.ID,
		"grand_total":     totals.GrandTotalCents,
	})
	if err != nil {
		return nil, false, err
	}

	err = s.orderRepo.CreateOrderGroupTx(repository.CreateOrderParams{
		Group:       group,
		SellerOrder: sellerOrder,
		Escrow:      escrow,
		Fees:        &fees,
		Outbox:      outbox,
		OfferID:     offer.ID,
		RequestID:   req.ID,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrInsufficientQty):
			return nil, false, s.reject(ErrQtyChanged)
		case errors.Is(err, repository.ErrOfferNotFound):
			return nil, false, s.reject(ErrOfferExpired)
		case errors.Is(err, repository.ErrBuyRequestNotFound):
			return nil, false, s.reject(ErrRequestInvalid)
		default:
			metrics.OrderCreations.WithLabelValues("error").Inc()
			return nil, false, err
		}
	}

	if s.idemCache != nil && p.IdempotencyKey != "" {
		// best effort: ключ остается в БД даже если Redis недоступен
		_ = s.idemCache.SetOrderID(ctx, p.IdempotencyKey, group.ID, idempotencyTTL)
	}

	metrics.OrderCreations.WithLabelValues("created").Inc()
	return group, false, nil
}

// replayByIdempotencyKey ищет уже созданную группу по ключу
func (s *OrderService) replayByIdempotencyKey(ctx context.Context, key string) (*models.OrderGroup, bool) {
	if key == "" {
		return nil, false
	}

	if s.idemCache != nil {
		if orderID, err := s.idemCache.GetOrderID(ctx, key); err == nil && orderID != "" {
			if group, err := s.orderRepo.GetByID(orderID); err == nil {
				return group, true
			}
		}
	}

	group, err := s.orderRepo.GetByIdempotencyKey(key)
	if err != nil {
		return nil, false
	}
	return group, true
}

// GetOrder возвращает группу заказа покупателя с дочерними заказами
func (s *OrderService) GetOrder(groupID, buyerID string) (*models.OrderGroup, []*models.SellerOrder, error) {
	group, err := s.orderRepo.GetByIDAndBuyer(groupID, buyerID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, nil, ErrOrderGone
		}
		return nil, nil, err
	}

	sellerOrders, err := s.orderRepo.GetSellerOrdersByGroup(groupID)
	if err != nil {
		return nil, nil, err
	}
	return group, sellerOrders, nil
}

// RefreshPriceLock обновляет окно гарантии цены группы в pending_payment.
//
// Действующий lock не трогается (Refreshed=false). Истекший lock
// пересчитывает totals по текущей конфигурации комиссий и открывает
// новое 15-минутное окно.
func (s *OrderService) RefreshPriceLock(groupID, buyerID string) (*RefreshResult, error) {
	group, err := s.orderRepo.GetByIDAndBuyer(groupID, buyerID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderGone
		}
		return nil, err
	}

	if group.Status != models.OrderStatusPendingPayment {
		metrics.PriceLockRefreshes.WithLabelValues("failed").Inc()
		return nil, ErrRefreshFailed
	}

	if time.Now().Before(group.PriceLockExpiresAt) {
		metrics.PriceLockRefreshes.WithLabelValues("still_valid").Inc()
		return &RefreshResult{Group: group, Refreshed: false}, nil
	}

	sellerOrders, err := s.orderRepo.GetSellerOrdersByGroup(groupID)
	if err != nil {
		return nil, err
	}
	if len(sellerOrders) == 0 {
		return nil, ErrRefreshFailed
	}
	so := sellerOrders[0]

	cfg, err := s.feeConfigRepo.GetActive()
	if err != nil {
		return nil, err
	}

	totals := ComputeTotals(cfg, PricingInput{
		UnitPriceCents: so.UnitPriceCents,
		Qty:            so.Qty,
		DeliveryMode:   group.DeliveryMode,
		HasAbattoir:    group.AbattoirID != "",
	})
	expiresAt := time.Now().Add(models.PriceLockDuration)

	if err := s.orderRepo.UpdatePriceLock(groupID, totals, expiresAt); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			// Гонка с оплатой или отменой между чтением и update
			metrics.PriceLockRefreshes.WithLabelValues("failed").Inc()
			return nil, ErrRefreshFailed
		}
		return nil, err
	}

	group.Totals = totals
	group.PriceLockExpiresAt = expiresAt
	metrics.PriceLockRefreshes.WithLabelValues("refreshed").Inc()
	return &RefreshResult{Group: group, Refreshed: true}, nil
}

// CancelOrder отменяет неоплаченную группу покупателя.
// Остаток возвращается на лоты, эскроу помечается void.
func (s *OrderService) CancelOrder(groupID, buyerID string) error {
	group, err := s.orderRepo.GetByIDAndBuyer(groupID, buyerID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return ErrOrderGone
		}
		return err
	}

	return s.cancelGroup(group.ID, "buyer_cancelled")
}

// cancelGroup выполняет отмену с событием в outbox. Используется и
// покупателем, и sweeper'ом (причина различается в payload'е).
func (s *OrderService) cancelGroup(groupID, reason string) error {
	outbox, err := buildOutboxEvent(models.EventOrderCancelled, groupID, map[string]interface{}{
		"order_group_id": groupID,
		"reason":         reason,
	})
	if err != nil {
		return err
	}

	if err := s.orderRepo.CancelTx(groupID, outbox); err != nil {
		if errors.Is(err, repository.ErrOrderNotCancellable) {
			return NewDomainError(CodeValidationError, "order can no longer be cancelled")
		}
		return err
	}
	return nil
}

// CancelStaleOrders отменяет брошенные группы: pending_payment с price
// lock, истекшим раньше cutoff. Возвращает количество отмененных.
func (s *OrderService) CancelStaleOrders(cutoff time.Time, limit int) (int, error) {
	ids, err := s.orderRepo.GetStalePendingPayment(cutoff, limit)
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for _, id := range ids {
		if err := s.cancelGroup(id, "payment_timeout"); err != nil {
			// Гонка с оплатой не ошибка прогона, остальное отдаем наверх
			var domainErr *DomainError
			if errors.As(err, &domainErr) {
				continue
			}
			return cancelled, err
		}
		cancelled++
	}
	return cancelled, nil
}

// paymentWebhookBody - тело события платежного провайдера
type paymentWebhookBody struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	OrderID   string `json:"order_id"`
	Amount    int64  `json:"amount"`
}

// HandlePaymentWebhook обрабатывает доставку платежного провайдера.
//
// Подпись проверяется HMAC-SHA256 по сырому телу. Событие сохраняется
// идемпотентно: повторная доставка того же provider_event_id не
// обрабатывается второй раз.
func (s *OrderService) HandlePaymentWebhook(provider string, payload []byte, signature string) error {
	if !crypto.VerifyWebhookSignature(payload, signature, s.webhookSecret) {
		metrics.WebhookEvents.WithLabelValues("invalid_signature").Inc()
		return NewDomainError(CodeValidationError, "invalid webhook signature")
	}

	var body paymentWebhookBody
	if err := json.Unmarshal(payload, &body); err != nil {
		metrics.WebhookEvents.WithLabelValues("invalid_payload").Inc()
		return NewDomainError(CodeValidationError, "malformed webhook payload")
	}
	if body.EventID == "" || body.OrderID == "" {
		metrics.WebhookEvents.WithLabelValues("invalid_payload").Inc()
		return NewDomainError(CodeValidationError, "webhook payload missing event_id or order_id")
	}

	event := &models.WebhookEvent{
		ID:              uuid.NewString(),
		Provider:        provider,
		ProviderEventID: body.EventID,
		EventType:       body.EventType,
		Payload:         payload,
	}

	isNew, err := s.webhookRepo.InsertIfNew(event)
	if err != nil {
		return err
	}
	if !isNew {
		metrics.WebhookEvents.WithLabelValues("duplicate").Inc()
		return nil
	}

	if err := s.applyPaymentEvent(&body); err != nil {
		metrics.WebhookEvents.WithLabelValues("error").Inc()
		return err
	}

	if err := s.webhookRepo.MarkProcessed(event.ID); err != nil {
		return err
	}

	metrics.WebhookEvents.WithLabelValues("processed").Inc()
	return nil
}

func (s *OrderService) applyPaymentEvent(body *paymentWebhookBody) error {
	switch body.EventType {
	case models.WebhookChargeSuccess:
		outbox, err := buildOutboxEvent(models.EventOrderPaid, body.OrderID, map[string]interface{}{
			"order_group_id": body.OrderID,
			"amount":         body.Amount,
		})
		if err != nil {
			return err
		}
		err = s.orderRepo.MarkPaidTx(body.OrderID, outbox)
		if errors.Is(err, repository.ErrOrderBadTransition) {
			// Оплата после отмены или повторная. Событие записано,
			// деньги вернет reconciliation на стороне провайдера.
			return nil
		}
		return err

	case models.WebhookRefund:
		outbox, err := buildOutboxEvent(models.EventOrderCancelled, body.OrderID, map[string]interface{}{
			"order_group_id": body.OrderID,
			"reason":         "refunded",
		})
		if err != nil {
			return err
		}
		err = s.orderRepo.RefundTx(body.OrderID, outbox)
		if errors.Is(err, repository.ErrOrderBadTransition) {
			return nil
		}
		return err

	case models.WebhookChargeFailed:
		// Группа остается в pending_payment, покупатель может повторить
		// оплату пока действует price lock. Sweeper отменит брошенные.
		return nil

	default:
		return nil
	}
}

// RecoverWebhookEvents дообрабатывает webhook'и, принятые в БД, но не
// доведенные до конца (процесс упал между InsertIfNew и MarkProcessed).
// Вызывается sweeper'ом. Возвращает количество обработанных событий.
//
// Повторное применение безопасно: applyPaymentEvent терпит
// ErrOrderBadTransition, непарсящийся payload помечается обработанным
// чтобы не застревать в каждом прогоне.
func (s *OrderService) RecoverWebhookEvents(limit int) (int, error) {
	events, err := s.webhookRepo.GetUnprocessed(limit)
	if err != nil {
		return 0, err
	}

	recovered := 0
	for _, event := range events {
		var body paymentWebhookBody
		if err := json.Unmarshal(event.Payload, &body); err != nil {
			metrics.WebhookEvents.WithLabelValues("invalid_payload").Inc()
			if err := s.webhookRepo.MarkProcessed(event.ID); err != nil {
				return recovered, err
			}
			continue
		}

		if err := s.applyPaymentEvent(&body); err != nil {
			metrics.WebhookEvents.WithLabelValues("error").Inc()
			return recovered, err
		}
		if err := s.webhookRepo.MarkProcessed(event.ID); err != nil {
			return recovered, err
		}

		metrics.WebhookEvents.WithLabelValues("recovered").Inc()
		recovered++
	}
	return recovered, nil
}

// ConfirmDelivery подтверждает получение заказа покупателем.
// Эскроу высвобождается, создается выплата продавцу за вычетом
// снимка комиссий.
func (s *OrderService) ConfirmDelivery(groupID, buyerID string) error {
	group, err := s.orderRepo.GetByIDAndBuyer(groupID, buyerID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return ErrOrderGone
		}
		return err
	}
	if group.Status != models.OrderStatusPaid {
		return NewDomainError(CodeValidationError, "only a paid order can be confirmed")
	}

	sellerOrders, err := s.orderRepo.GetSellerOrdersByGroup(groupID)
	if err != nil {
		return err
	}
	if len(sellerOrders) == 0 {
		return ErrOrderGone
	}
	so := sellerOrders[0]

	fees, err := s.orderRepo.GetFeeSnapshot(so.ID)
	if err != nil {
		return err
	}

	payout := &models.Payout{
		ID:            uuid.NewString(),
		SellerOrderID: so.ID,
		SellerID:      so.SellerID,
		AmountCents:   PayoutAmount(so.TotalCents, fees),
		Status:        models.PayoutStatusPending,
	}

	outbox, err := buildOutboxEvent(models.EventEscrowReleased, groupID, map[string]interface{}{
		"order_group_id": groupID,
		"seller_id":      so.SellerID,
		"payout_id":      payout.ID,
		"payout_amount":  payout.AmountCents,
	})
	if err != nil {
		return err
	}

	if err := s.orderRepo.CompleteTx(groupID, payout, outbox); err != nil {
		if errors.Is(err, repository.ErrOrderBadTransition) {
			return NewDomainError(CodeValidationError, "order is not in a completable state")
		}
		return err
	}
	return nil
}

// reject учитывает доменный отказ в метриках
func (s *OrderService) reject(err *DomainError) error {
	metrics.OrderCreations.WithLabelValues("rejected").Inc()
	metrics.DomainErrors.WithLabelValues(err.Code).Inc()
	return err
}

// sellerServesProvince - обслуживает ли продавец провинцию доставки.
// Пустой список провинций означает доставку по всей стране.
func sellerServesProvince(seller *models.User, province string) bool {
	if len(seller.ServiceProvinces) == 0 {
		return true
	}
	for _, p := range seller.ServiceProvinces {
		if strings.EqualFold(p, province) {
			return true
		}
	}
	return false
}

// generateTrackingNumber строит человекочитаемый номер отслеживания:
// "TRK" + unix секунды + 8 случайных hex символов
func generateTrackingNumber() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand недоступен только при деградации ОС
		return fmt.Sprintf("TRK%d00000000", time.Now().Unix())
	}
	return fmt.Sprintf("TRK%d%s", time.Now().Unix(), strings.ToUpper(hex.EncodeToString(buf)))
}

// buildOutboxEvent собирает строку outbox с jsoniter-сериализованным payload'ом
func buildOutboxEvent(eventType, correlationID string, payload map[string]interface{}) (*models.OutboxEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &models.OutboxEvent{
		ID:            uuid.NewString(),
		EventType:     eventType,
		CorrelationID: correlationID,
		Payload:       data,
	}, nil
}
