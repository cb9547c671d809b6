package models

import "time"

// OrderGroup представляет агрегированный заказ покупателя
//
// Создается атомарно вместе с дочерним SellerOrder и EscrowRecord
// при принятии оффера. Архитектура допускает несколько seller orders
// в группе, текущий флоу создает ровно один.
type OrderGroup struct {
	ID                 string      `json:"id" db:"id"`
	TrackingNumber     string      `json:"tracking_number" db:"tracking_number"`
	BuyerID            string      `json:"buyer_id" db:"buyer_id"`
	Status             string      `json:"status" db:"status"`
	DeliveryMode       string      `json:"delivery_mode" db:"delivery_mode"`
	AddressID          string      `json:"address_id" db:"address_id"`
	AbattoirID         string      `json:"abattoir_id,omitempty" db:"abattoir_id"`
	Totals             OrderTotals `json:"totals" db:"-"`
	PriceLockExpiresAt time.Time   `json:"price_lock_expires_at" db:"price_lock_expires_at"`
	IdempotencyKey     *string     `json:"idempotency_key,omitempty" db:"idempotency_key"`
	CreatedAt          time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at" db:"updated_at"`
}

// OrderTotals - разбивка стоимости заказа, все суммы в центах ZAR
//
// Инвариант: GrandTotalCents == сумма пяти компонентов.
type OrderTotals struct {
	MerchandiseCents int64 `json:"merchandise_cents" db:"merchandise_cents"`
	DeliveryCents    int64 `json:"delivery_cents" db:"delivery_cents"`
	AbattoirCents    int64 `json:"abattoir_cents" db:"abattoir_cents"`
	PlatformFeeCents int64 `json:"platform_fee_cents" db:"platform_fee_cents"`
	VATCents         int64 `json:"vat_cents" db:"vat_cents"`
	GrandTotalCents  int64 `json:"grand_total_cents" db:"grand_total_cents"`
}

// SellerOrder - заказ конкретного продавца внутри группы
type SellerOrder struct {
	ID             string    `json:"id" db:"id"`
	OrderGroupID   string    `json:"order_group_id" db:"order_group_id"`
	OfferID        string    `json:"offer_id" db:"offer_id"`
	SellerID       string    `json:"seller_id" db:"seller_id"`
	BuyerID        string    `json:"buyer_id" db:"buyer_id"`
	ListingID      string    `json:"listing_id,omitempty" db:"listing_id"`
	Qty            int       `json:"qty" db:"qty"`
	UnitPriceCents int64     `json:"unit_price_cents" db:"unit_price_cents"`
	TotalCents     int64     `json:"total_cents" db:"total_cents"`
	Status         string    `json:"status" db:"status"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Статусы группы заказа
const (
	OrderStatusPendingPayment = "pending_payment"
	OrderStatusPaid           = "paid"
	OrderStatusCancelled      = "cancelled"
	OrderStatusVoid           = "void"
	OrderStatusComplete       = "complete"
)

// Режимы доставки
const (
	DeliveryModeSeller = "seller" // доставка продавцом
	DeliveryModeRFQ    = "rfq"    // доставка квотируется отдельно
	DeliveryModePickup = "pickup" // самовывоз
)

// PriceLockDuration - окно гарантии цены после расчета totals
const PriceLockDuration = 15 * time.Minute

var validOrderNext = map[string]map[string]bool{
	OrderStatusPendingPayment: {OrderStatusPaid: true, OrderStatusCancelled: true, OrderStatusVoid: true},
	OrderStatusPaid:           {OrderStatusComplete: true},
	OrderStatusCancelled:      {},
	OrderStatusVoid:           {},
	OrderStatusComplete:       {},
}

// CanTransitionOrder проверяет допустимость перехода статуса группы
func CanTransitionOrder(from, to string) bool {
	return validOrderNext[from][to]
}
