package service

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"stocklot/internal/models"
	"stocklot/internal/repository"
)

// Ошибки сервиса заявок
var (
	ErrOfferRateLimited = NewDomainError(CodeValidationError, "too many offers, slow down")
	ErrDuplicateOffer   = NewDomainError(CodeValidationError, "seller already has a pending offer on this request")
)

// BuyRequestExpiry - время жизни заявки до автозакрытия
const BuyRequestExpiry = 14 * 24 * time.Hour

// spamKeywords - маркеры спама в тексте заявки, каждый дает +2 к score.
// Порог spamScoreThreshold отправляет заявку на ручную модерацию.
var spamKeywords = []string{
	"free money",
	"click here",
	"guaranteed profit",
	"whatsapp me",
	"crypto",
}

const (
	spamKeywordWeight  = 2
	spamScoreThreshold = 5
)

// OfferLimiter ограничивает частоту офферов продавца
type OfferLimiter interface {
	Allow(key string) bool
}

// CreateBuyRequestParams - заявка покупателя
type CreateBuyRequestParams struct {
	BuyerID          string `json:"-"`
	Species          string `json:"species"`
	Breed            string `json:"breed"`
	ProductType      string `json:"product_type"`
	Qty              int    `json:"qty"`
	Unit             string `json:"unit"`
	TargetPriceCents int64  `json:"target_price_cents"`
	Province         string `json:"province"`
	Country          string `json:"country"`
	Notes            string `json:"notes"`
}

// CreateOfferParams - оффер продавца на заявку
type CreateOfferParams struct {
	RequestID       string `json:"-"`
	SellerID        string `json:"-"`
	ListingID       string `json:"listing_id"`
	OfferPriceCents int64  `json:"offer_price_cents"`
	Qty             int    `json:"qty"`
	Message         string `json:"message"`
}

// BuyRequestService предоставляет бизнес-логику заявок и офферов.
//
// Отвечает за:
// - Публикацию заявок со спам-фильтром и модерацией
// - Офферы продавцов (эксклюзивность, rate limit)
// - Отклонение офферов покупателем
// - Автозакрытие истекших заявок (вызывается sweeper'ом)
type BuyRequestService struct {
	buyRequestRepo BuyRequestRepositoryInterface
	offerRepo      OfferRepositoryInterface
	listingRepo    ListingRepositoryInterface
	outboxRepo     OutboxRepositoryInterface
	offerLimiter   OfferLimiter
}

// NewBuyRequestService создает новый экземпляр BuyRequestService.
func NewBuyRequestService(
	buyRequestRepo BuyRequestRepositoryInterface,
	offerRepo OfferRepositoryInterface,
	listingRepo ListingRepositoryInterface,
	outboxRepo OutboxRepositoryInterface,
) *BuyRequestService {
	return &BuyRequestService{
		buyRequestRepo: buyRequestRepo,
		offerRepo:      offerRepo,
		listingRepo:    listingRepo,
		outboxRepo:     outboxRepo,
	}
}

// SetOfferLimiter подключает rate limiter офферов.
// Опционально: без него частота офферов не ограничивается.
func (s *BuyRequestService) SetOfferLimiter(limiter OfferLimiter) {
	s.offerLimiter = limiter
}

// CreateBuyRequest публикует заявку покупателя.
//
// Текст прогоняется через спам-фильтр: при score ниже порога заявка
// проходит автоматически, иначе уходит на ручную модерацию (остается
// open, но офферы на нее не принимаются до одобрения).
func (s *BuyRequestService) CreateBuyRequest(p CreateBuyRequestParams) (*models.BuyRequest, error) {
	if err := validateBuyRequest(&p); err != nil {
		return nil, err
	}

	score := spamScore(p.Species + " " + p.Breed + " " + p.Notes)
	moderation := models.ModerationAutoPass
	if score >= spamScoreThreshold {
		moderation = models.ModerationPendingReview
	}

	req := &models.BuyRequest{
		ID:               uuid.NewString(),
		BuyerID:          p.BuyerID,
		Species:          strings.ToLower(strings.TrimSpace(p.Species)),
		Breed:            strings.TrimSpace(p.Breed),
		ProductType:      p.ProductType,
		Qty:              p.Qty,
		Unit:             p.Unit,
		TargetPriceCents: p.TargetPriceCents,
		Province:         strings.ToLower(strings.TrimSpace(p.Province)),
		Country:          strings.ToUpper(strings.TrimSpace(p.Country)),
		Notes:            strings.TrimSpace(p.Notes),
		Status:           models.BuyRequestStatusOpen,
		ModerationStatus: moderation,
		SpamScore:        score,
		ExpiresAt:        time.Now().Add(BuyRequestExpiry),
	}

	if err := s.buyRequestRepo.Create(req); err != nil {
		return nil, err
	}
	return req, nil
}

// GetBuyRequest возвращает заявку по ID
func (s *BuyRequestService) GetBuyRequest(id string) (*models.BuyRequest, error) {
	req, err := s.buyRequestRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrBuyRequestNotFound) {
			return nil, ErrRequestInvalid
		}
		return nil, err
	}
	return req, nil
}

// ListOpenRequests возвращает открытые заявки (новые сверху)
func (s *BuyRequestService) ListOpenRequests(limit int) ([]*models.BuyRequest, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	requests, err := s.buyRequestRepo.GetByStatus(models.BuyRequestStatusOpen, limit)
	if err != nil {
		return nil, err
	}
	if requests == nil {
		requests = []*models.BuyRequest{}
	}
	return requests, nil
}

// CreateOffer создает оффер продавца на открытую заявку.
//
// Инварианты:
// - заявка открыта и прошла модерацию
// - продавец не отвечает на собственную заявку
// - один pending оффер продавца на заявку (проверка + unique index)
// - привязанный лот покрывает количество оффера
func (s *BuyRequestService) CreateOffer(p CreateOfferParams) (*models.Offer, error) {
	if p.OfferPriceCents <= 0 {
		return nil, NewDomainError(CodeValidationError, "offer price must be positive")
	}
	if p.Qty <= 0 {
		return nil, NewDomainError(CodeValidationError, "offer qty must be positive")
	}

	if s.offerLimiter != nil && !s.offerLimiter.Allow(p.SellerID) {
		return nil, ErrOfferRateLimited
	}

	req, err := s.buyRequestRepo.GetByID(p.RequestID)
	if err != nil {
		if errors.Is(err, repository.ErrBuyRequestNotFound) {
			return nil, ErrRequestInvalid
		}
		return nil, err
	}
	if req.Status != models.BuyRequestStatusOpen {
		return nil, ErrRequestInvalid
	}
	if req.ModerationStatus == models.ModerationPendingReview || req.ModerationStatus == models.ModerationRejected {
		return nil, ErrRequestInvalid
	}
	if req.BuyerID == p.SellerID {
		return nil, NewDomainError(CodeValidationError, "cannot offer on your own request")
	}
	if p.Qty > req.Qty {
		return nil, NewDomainError(CodeValidationError, "offer qty exceeds requested qty")
	}

	exists, err := s.offerRepo.ExistsPendingBySeller(p.RequestID, p.SellerID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateOffer
	}

	if p.ListingID != "" {
		listing, err := s.listingRepo.GetByID(p.ListingID)
		if err != nil {
			if errors.Is(err, repository.ErrListingNotFound) {
				return nil, NewDomainError(CodeValidationError, "linked listing not found")
			}
			return nil, err
		}
		if listing.SellerID != p.SellerID {
			return nil, NewDomainError(CodeValidationError, "listing belongs to another seller")
		}
		if listing.AvailableQty < p.Qty {
			return nil, ErrQtyChanged
		}
	}

	offer := &models.Offer{
		ID:              uuid.NewString(),
		RequestID:       p.RequestID,
		SellerID:        p.SellerID,
		ListingID:       p.ListingID,
		OfferPriceCents: p.OfferPriceCents,
		Qty:             p.Qty,
		Message:         strings.TrimSpace(p.Message),
		Status:          models.OfferStatusPending,
	}

	if err := s.offerRepo.Create(offer); err != nil {
		// Гонка двух конкурентных вставок, проигравшего ловит index
		if errors.Is(err, repository.ErrOfferAlreadyExists) {
			return nil, ErrDuplicateOffer
		}
		return nil, err
	}
	return offer, nil
}

// ListOffers возвращает офферы заявки. Доступно только ее автору.
func (s *BuyRequestService) ListOffers(requestID, buyerID string) ([]*models.Offer, error) {
	req, err := s.buyRequestRepo.GetByID(requestID)
	if err != nil {
		if errors.Is(err, repository.ErrBuyRequestNotFound) {
			return nil, ErrRequestInvalid
		}
		return nil, err
	}
	if req.BuyerID != buyerID {
		return nil, ErrRequestInvalid
	}

	offers, err := s.offerRepo.GetByRequestID(requestID)
	if err != nil {
		return nil, err
	}
	if offers == nil {
		offers = []*models.Offer{}
	}
	return offers, nil
}

// DeclineOffer отклоняет pending оффер. Доступно только автору заявки.
func (s *BuyRequestService) DeclineOffer(requestID, offerID, buyerID string) error {
	req, err := s.buyRequestRepo.GetByID(requestID)
	if err != nil {
		if errors.Is(err, repository.ErrBuyRequestNotFound) {
			return ErrRequestInvalid
		}
		return err
	}
	if req.BuyerID != buyerID {
		return ErrRequestInvalid
	}

	offer, err := s.offerRepo.GetPendingByIDAndRequest(offerID, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrOfferNotFound) {
			return ErrOfferExpired
		}
		return err
	}

	if err := s.offerRepo.UpdateStatus(offer.ID, models.OfferStatusDeclined); err != nil {
		if errors.Is(err, repository.ErrOfferNotFound) {
			return ErrOfferExpired
		}
		return err
	}
	return nil
}

// ModerateRequest выносит решение по заявке на ручной модерации.
// Одобрение оставляет заявку открытой, отклонение закрывает.
func (s *BuyRequestService) ModerateRequest(id string, approve bool) error {
	moderation := models.ModerationApproved
	status := models.BuyRequestStatusOpen
	if !approve {
		moderation = models.ModerationRejected
		status = models.BuyRequestStatusClosed
	}

	if err := s.buyRequestRepo.SetModeration(id, moderation, status); err != nil {
		if errors.Is(err, repository.ErrBuyRequestNotFound) {
			return ErrRequestInvalid
		}
		return err
	}
	return nil
}

// AutoExpireRequests закрывает открытые заявки с истекшим сроком и
// пишет агрегированное событие в outbox. Возвращает количество закрытых.
func (s *BuyRequestService) AutoExpireRequests(now time.Time) (int64, error) {
	expired, err := s.buyRequestRepo.ExpireOpenBefore(now)
	if err != nil {
		return 0, err
	}
	if expired == 0 {
		return 0, nil
	}

	outbox, err := buildOutboxEvent(models.EventRequestExpired, "", map[string]interface{}{
		"expired_count": expired,
		"swept_at":      now.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return expired, err
	}
	if err := s.outboxRepo.Insert(outbox); err != nil {
		return expired, err
	}

	// Количество учитывает в метриках вызывающий sweeper
	return expired, nil
}

// validateBuyRequest проверяет обязательные поля заявки
func validateBuyRequest(p *CreateBuyRequestParams) error {
	if strings.TrimSpace(p.Species) == "" {
		return NewDomainError(CodeValidationError, "species is required")
	}
	if p.Qty <= 0 {
		return NewDomainError(CodeValidationError, "qty must be positive")
	}
	switch p.ProductType {
	case models.ProductTypeLive, models.ProductTypeBreeding, models.ProductTypeSlaughter, models.ProductTypeCarcass:
	default:
		return NewDomainError(CodeValidationError, "unknown product type")
	}
	if p.Unit != "head" && p.Unit != "kg" {
		return NewDomainError(CodeValidationError, "unit must be head or kg")
	}
	if p.TargetPriceCents < 0 {
		return NewDomainError(CodeValidationError, "target price cannot be negative")
	}
	if strings.TrimSpace(p.Province) == "" {
		return NewDomainError(CodeValidationError, "province is required")
	}
	return nil
}

// spamScore считает спам-очки по фиксированному словарю
func spamScore(text string) int {
	lower := strings.ToLower(text)
	score := 0
	for _, kw := range spamKeywords {
		if strings.Contains(lower, kw) {
			score += spamKeywordWeight
		}
	}
	return score
}
