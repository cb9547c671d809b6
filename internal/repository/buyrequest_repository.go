package repository

import (
	"database/sql"
	"errors"
	"time"

	"stocklot/internal/models"
)

// Ошибки репозитория заявок
var (
	ErrBuyRequestNotFound = errors.New("buy request not found")
	ErrBuyRequestNotOpen  = errors.New("buy request is not open")
)

// BuyRequestRepository - работа с таблицей buy_requests
type BuyRequestRepository struct {
	db *sql.DB
}

// NewBuyRequestRepository создает новый экземпляр репозитория
func NewBuyRequestRepository(db *sql.DB) *BuyRequestRepository {
	return &BuyRequestRepository{db: db}
}

const buyRequestColumns = `id, buyer_id, species, breed, product_type, qty, unit, target_price_cents,
		province, country, notes, status, moderation_status, spam_score, expires_at, created_at, updated_at`

func scanBuyRequest(row interface{ Scan(...interface{}) error }) (*models.BuyRequest, error) {
	r := &models.BuyRequest{}
	err := row.Scan(
		&r.ID,
		&r.BuyerID,
		&r.Species,
		&r.Breed,
		&r.ProductType,
		&r.Qty,
		&r.Unit,
		&r.TargetPriceCents,
		&r.Province,
		&r.Country,
		&r.Notes,
		&r.Status,
		&r.ModerationStatus,
		&r.SpamScore,
		&r.ExpiresAt,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Create создает заявку покупателя
func (r *BuyRequestRepository) Create(req *models.BuyRequest) error {
	query := `
		INSERT INTO buy_requests (id, buyer_id, species, breed, product_type, qty, unit, target_price_cents,
			province, country, notes, status, moderation_status, spam_score, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	now := time.Now()
	req.CreatedAt = now
	req.UpdatedAt = now

	_, err := r.db.Exec(
		query,
		req.ID,
		req.BuyerID,
		req.Species,
		req.Breed,
		req.ProductType,
		req.Qty,
		req.Unit,
		req.TargetPriceCents,
		req.Province,
		req.Country,
		req.Notes,
		req.Status,
		req.ModerationStatus,
		req.SpamScore,
		req.ExpiresAt,
		req.CreatedAt,
		req.UpdatedAt,
	)
	return err
}

// GetByID возвращает заявку по ID
func (r *BuyRequestRepository) GetByID(id string) (*models.BuyRequest, error) {
	query := `SELECT ` + buyRequestColumns + ` FROM buy_requests WHERE id = $1`

	req, err := scanBuyRequest(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBuyRequestNotFound
		}
		return nil, err
	}
	return req, nil
}

// GetOpenByIDAndBuyer возвращает открытую заявку покупателя.
// Используется при принятии оффера: заявка должна принадлежать
// покупателю и быть в статусе open.
func (r *BuyRequestRepository) GetOpenByIDAndBuyer(id, buyerID string) (*models.BuyRequest, error) {
	query := `SELECT ` + buyRequestColumns + `
		FROM buy_requests
		WHERE id = $1 AND buyer_id = $2 AND status = $3`

	req, err := scanBuyRequest(r.db.QueryRow(query, id, buyerID, models.BuyRequestStatusOpen))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBuyRequestNotFound
		}
		return nil, err
	}
	return req, nil
}

// GetByStatus возвращает заявки с указанным статусом (новые сверху)
func (r *BuyRequestRepository) GetByStatus(status string, limit int) ([]*models.BuyRequest, error) {
	query := `SELECT ` + buyRequestColumns + `
		FROM buy_requests
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.Query(query, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []*models.BuyRequest
	for rows.Next() {
		req, err := scanBuyRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return requests, nil
}

// UpdateStatus обновляет статус заявки
func (r *BuyRequestRepository) UpdateStatus(id, status string) error {
	query := `UPDATE buy_requests SET status = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.Exec(query, status, time.Now(), id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrBuyRequestNotFound
	}
	return nil
}

// SetModeration устанавливает статус модерации и статус заявки одной операцией.
// Одобрение оставляет заявку open, отклонение закрывает её.
func (r *BuyRequestRepository) SetModeration(id, moderationStatus, status string) error {
	query := `
		UPDATE buy_requests
		SET moderation_status = $1, status = $2, updated_at = $3
		WHERE id = $4 AND moderation_status = $5`

	result, err := r.db.Exec(query, moderationStatus, status, time.Now(), id, models.ModerationPendingReview)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrBuyRequestNotFound
	}
	return nil
}

// ExpireOpenBefore закрывает все открытые заявки с истекшим expires_at.
// Идемпотентно: повторный вызов ничего не меняет. Возвращает количество
// закрытых заявок.
func (r *BuyRequestRepository) ExpireOpenBefore(now time.Time) (int64, error) {
	query := `
		UPDATE buy_requests
		SET status = $1, updated_at = $2
		WHERE status = $3 AND expires_at < $2`

	result, err := r.db.Exec(query, models.BuyRequestStatusClosed, now, models.BuyRequestStatusOpen)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Count возвращает общее количество заявок
func (r *BuyRequestRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM buy_requests`).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
