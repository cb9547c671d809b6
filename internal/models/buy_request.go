package models

import "time"

// BuyRequest представляет заявку покупателя на покупку скота
//
// Покупатель публикует заявку (want-ad), продавцы отвечают офферами.
// Заявка живет 14 дней по умолчанию, затем автоматически закрывается sweeper'ом.
type BuyRequest struct {
	ID               string     `json:"id" db:"id"`
	BuyerID          string     `json:"buyer_id" db:"buyer_id"`
	Species          string     `json:"species" db:"species"`   // cattle, sheep, goats, poultry
	Breed            string     `json:"breed,omitempty" db:"breed"`
	ProductType      string     `json:"product_type" db:"product_type"` // live, breeding, slaughter, carcass
	Qty              int        `json:"qty" db:"qty"`
	Unit             string     `json:"unit" db:"unit"` // head, kg
	TargetPriceCents int64      `json:"target_price_cents" db:"target_price_cents"`
	Province         string     `json:"province" db:"province"`
	Country          string     `json:"country" db:"country"`
	Notes            string     `json:"notes,omitempty" db:"notes"`
	Status           string     `json:"status" db:"status"`
	ModerationStatus string     `json:"moderation_status" db:"moderation_status"`
	SpamScore        int        `json:"spam_score" db:"spam_score"`
	ExpiresAt        time.Time  `json:"expires_at" db:"expires_at"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// Статусы заявки
//
// open → fulfilled (оффер принят) | closed (истекла или отклонена модерацией)
// closed и fulfilled - терминальные состояния
const (
	BuyRequestStatusOpen      = "open"
	BuyRequestStatusClosed    = "closed"
	BuyRequestStatusFulfilled = "fulfilled"
)

// Статусы модерации
const (
	ModerationAutoPass      = "auto_pass"
	ModerationPendingReview = "pending_review"
	ModerationApproved      = "approved"
	ModerationRejected      = "rejected"
)

// Типы продукта
const (
	ProductTypeLive      = "live"
	ProductTypeBreeding  = "breeding"
	ProductTypeSlaughter = "slaughter"
	ProductTypeCarcass   = "carcass"
)

// IsTerminal возвращает true для терминальных статусов заявки
func (r *BuyRequest) IsTerminal() bool {
	return r.Status == BuyRequestStatusClosed || r.Status == BuyRequestStatusFulfilled
}
