package repository

import (
	"database/sql"
	"errors"
	"time"

	"stocklot/internal/models"
)

// Ошибки репозитория лотов
var (
	ErrListingNotFound = errors.New("listing not found")
)

// ListingRepository - работа с таблицей listings
type ListingRepository struct {
	db *sql.DB
}

// NewListingRepository создает новый экземпляр репозитория
func NewListingRepository(db *sql.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

// GetByID возвращает лот по ID
func (r *ListingRepository) GetByID(id string) (*models.Listing, error) {
	query := `
		SELECT id, seller_id, species, breed, product_type, unit_price_cents, available_qty, province, created_at, updated_at
		FROM listings
		WHERE id = $1`

	l := &models.Listing{}
	err := r.db.QueryRow(query, id).Scan(
		&l.ID,
		&l.SellerID,
		&l.Species,
		&l.Breed,
		&l.ProductType,
		&l.UnitPriceCents,
		&l.AvailableQty,
		&l.Province,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return l, nil
}

// Create создает лот
func (r *ListingRepository) Create(l *models.Listing) error {
	query := `
		INSERT INTO listings (id, seller_id, species, breed, product_type, unit_price_cents, available_qty, province, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	now := time.Now()
	l.CreatedAt = now
	l.UpdatedAt = now

	_, err := r.db.Exec(
		query,
		l.ID,
		l.SellerID,
		l.Species,
		l.Breed,
		l.ProductType,
		l.UnitPriceCents,
		l.AvailableQty,
		l.Province,
		l.CreatedAt,
		l.UpdatedAt,
	)
	return err
}
