package models

import "time"

// Listing - лот продавца с доступным количеством
//
// available_qty - единственный конкурентный ресурс в системе:
// резервирование при создании заказа и возврат при отмене идут
// только через guarded decrement/increment внутри транзакции.
type Listing struct {
	ID             string    `json:"id" db:"id"`
	SellerID       string    `json:"seller_id" db:"seller_id"`
	Species        string    `json:"species" db:"species"`
	Breed          string    `json:"breed,omitempty" db:"breed"`
	ProductType    string    `json:"product_type" db:"product_type"`
	UnitPriceCents int64     `json:"unit_price_cents" db:"unit_price_cents"`
	AvailableQty   int       `json:"available_qty" db:"available_qty"`
	Province       string    `json:"province" db:"province"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}
