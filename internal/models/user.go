package models

import "time"

// User - участник маркетплейса (покупатель и/или продавец)
type User struct {
	ID               string    `json:"id" db:"id"`
	Email            string    `json:"email" db:"email"`
	PasswordHash     string    `json:"-" db:"password_hash"`
	Role             string    `json:"role" db:"role"`
	KYCStatus        string    `json:"kyc_status" db:"kyc_status"`
	ServiceProvinces []string  `json:"service_provinces,omitempty" db:"service_provinces"` // для продавцов: обслуживаемые провинции; пусто = вся страна
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// Роли пользователей
const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

// Статусы KYC
const (
	KYCStatusNone     = "none"
	KYCStatusPending  = "pending"
	KYCStatusApproved = "approved"
	KYCStatusRejected = "rejected"
)

// Address - адрес доставки покупателя
type Address struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Line1     string    `json:"line1" db:"line1"`
	City      string    `json:"city" db:"city"`
	Province  string    `json:"province" db:"province"`
	Country   string    `json:"country" db:"country"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
