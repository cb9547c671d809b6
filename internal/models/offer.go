package models

import "time"

// Offer представляет предложение продавца на заявку покупателя
//
// Один продавец держит максимум один pending оффер на заявку
// (partial unique index в БД + проверка в сервисе).
// Принятый оффер неизменяем.
type Offer struct {
	ID              string    `json:"id" db:"id"`
	RequestID       string    `json:"request_id" db:"request_id"`
	SellerID        string    `json:"seller_id" db:"seller_id"`
	ListingID       string    `json:"listing_id,omitempty" db:"listing_id"` // опционально: оффер привязан к лоту
	OfferPriceCents int64     `json:"offer_price_cents" db:"offer_price_cents"` // цена за единицу
	Qty             int       `json:"qty" db:"qty"`
	Message         string    `json:"message,omitempty" db:"message"`
	Status          string    `json:"status" db:"status"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Статусы оффера
const (
	OfferStatusPending  = "pending"
	OfferStatusAccepted = "accepted"
	OfferStatusDeclined = "declined"
)
