package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"stocklot/internal/models"
)

// Ошибки репозитория офферов
var (
	ErrOfferNotFound      = errors.New("offer not found")
	ErrOfferAlreadyExists = errors.New("seller already has a pending offer on this request")
)

// OfferRepository - работа с таблицей buy_request_offers
type OfferRepository struct {
	db *sql.DB
}

// NewOfferRepository создает новый экземпляр репозитория
func NewOfferRepository(db *sql.DB) *OfferRepository {
	return &OfferRepository{db: db}
}

const offerColumns = `id, request_id, seller_id, listing_id, offer_price_cents, qty, message, status, created_at, updated_at`

func scanOffer(row interface{ Scan(...interface{}) error }) (*models.Offer, error) {
	o := &models.Offer{}
	var listingID sql.NullString
	err := row.Scan(
		&o.ID,
		&o.RequestID,
		&o.SellerID,
		&listingID,
		&o.OfferPriceCents,
		&o.Qty,
		&o.Message,
		&o.Status,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.ListingID = listingID.String
	return o, nil
}

// Create создает оффер продавца.
//
// Partial unique index (request_id, seller_id) WHERE status='pending'
// страхует от гонки двух конкурентных вставок: проигравший получает
// ErrOfferAlreadyExists.
func (r *OfferRepository) Create(offer *models.Offer) error {
	query := `
		INSERT INTO buy_request_offers (id, request_id, seller_id, listing_id, offer_price_cents, qty, message, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	now := time.Now()
	offer.CreatedAt = now
	offer.UpdatedAt = now

	var listingID interface{}
	if offer.ListingID != "" {
		listingID = offer.ListingID
	}

	_, err := r.db.Exec(
		query,
		offer.ID,
		offer.RequestID,
		offer.SellerID,
		listingID,
		offer.OfferPriceCents,
		offer.Qty,
		offer.Message,
		offer.Status,
		offer.CreatedAt,
		offer.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrOfferAlreadyExists
		}
		return err
	}
	return nil
}

// GetByID возвращает оффер по ID
func (r *OfferRepository) GetByID(id string) (*models.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM buy_request_offers WHERE id = $1`

	offer, err := scanOffer(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOfferNotFound
		}
		return nil, err
	}
	return offer, nil
}

// GetPendingByIDAndRequest возвращает pending оффер в рамках заявки.
// Отсутствие строки означает что оффер истек, отозван или уже принят.
func (r *OfferRepository) GetPendingByIDAndRequest(id, requestID string) (*models.Offer, error) {
	query := `SELECT ` + offerColumns + `
		FROM buy_request_offers
		WHERE id = $1 AND request_id = $2 AND status = $3`

	offer, err := scanOffer(r.db.QueryRow(query, id, requestID, models.OfferStatusPending))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOfferNotFound
		}
		return nil, err
	}
	return offer, nil
}

// ExistsPendingBySeller проверяет наличие pending оффера продавца на заявку
func (r *OfferRepository) ExistsPendingBySeller(requestID, sellerID string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM buy_request_offers
			WHERE request_id = $1 AND seller_id = $2 AND status = $3
		)`

	var exists bool
	err := r.db.QueryRow(query, requestID, sellerID, models.OfferStatusPending).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// GetByRequestID возвращает все офферы заявки (новые сверху)
func (r *OfferRepository) GetByRequestID(requestID string) ([]*models.Offer, error) {
	query := `SELECT ` + offerColumns + `
		FROM buy_request_offers
		WHERE request_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var offers []*models.Offer
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, offer)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return offers, nil
}

// UpdateStatus переводит pending оффер в новый статус.
// Принятый или отклоненный оффер неизменяем: фильтр по status=pending
// делает повторный перевод ошибкой ErrOfferNotFound.
func (r *OfferRepository) UpdateStatus(id, status string) error {
	query := `
		UPDATE buy_request_offers
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4`

	result, err := r.db.Exec(query, status, time.Now(), id, models.OfferStatusPending)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrOfferNotFound
	}
	return nil
}
