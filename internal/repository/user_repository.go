package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"stocklot/internal/models"
)

// Ошибки репозитория пользователей
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrAddressNotFound = errors.New("address not found")
)

// UserRepository - работа с таблицами users и addresses
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository создает новый экземпляр репозитория
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create создает пользователя
func (r *UserRepository) Create(u *models.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, role, kyc_status, service_provinces, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	u.CreatedAt = time.Now()

	_, err := r.db.Exec(
		query,
		u.ID,
		u.Email,
		u.PasswordHash,
		u.Role,
		u.KYCStatus,
		pq.Array(u.ServiceProvinces),
		u.CreatedAt,
	)
	return err
}

// GetByID возвращает пользователя по ID
func (r *UserRepository) GetByID(id string) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, role, kyc_status, service_provinces, created_at
		FROM users
		WHERE id = $1`

	u := &models.User{}
	err := r.db.QueryRow(query, id).Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.KYCStatus,
		pq.Array(&u.ServiceProvinces),
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// GetAddressByIDAndUser возвращает адрес доставки пользователя
func (r *UserRepository) GetAddressByIDAndUser(addressID, userID string) (*models.Address, error) {
	query := `
		SELECT id, user_id, line1, city, province, country, created_at
		FROM addresses
		WHERE id = $1 AND user_id = $2`

	a := &models.Address{}
	err := r.db.QueryRow(query, addressID, userID).Scan(
		&a.ID,
		&a.UserID,
		&a.Line1,
		&a.City,
		&a.Province,
		&a.Country,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAddressNotFound
		}
		return nil, err
	}
	return a, nil
}
