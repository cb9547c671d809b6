package models

import "time"

// EscrowRecord отслеживает средства покупателя, удерживаемые до
// подтверждения доставки, после чего они высвобождаются продавцу
type EscrowRecord struct {
	ID           string     `json:"id" db:"id"`
	OrderGroupID string     `json:"order_group_id" db:"order_group_id"`
	BuyerID      string     `json:"buyer_id" db:"buyer_id"`
	SellerID     string     `json:"seller_id" db:"seller_id"`
	AmountCents  int64      `json:"amount_cents" db:"amount_cents"`
	Status       string     `json:"status" db:"status"`
	FundedAt     *time.Time `json:"funded_at,omitempty" db:"funded_at"`
	ReleasedAt   *time.Time `json:"released_at,omitempty" db:"released_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// Статусы эскроу
//
// init → funded (webhook об оплате) → released (доставка подтверждена)
// funded → refunded (возврат покупателю)
// init → void (заказ отменен до оплаты)
const (
	EscrowStatusInit     = "init"
	EscrowStatusFunded   = "funded"
	EscrowStatusReleased = "released"
	EscrowStatusRefunded = "refunded"
	EscrowStatusVoid     = "void"
)

// SellerOrderFees - снимок комиссий на момент создания заказа
//
// Снимок делается из активного FeeConfig, чтобы последующие изменения
// тарифов не влияли на уже созданные заказы.
type SellerOrderFees struct {
	ID                  string    `json:"id" db:"id"`
	SellerOrderID       string    `json:"seller_order_id" db:"seller_order_id"`
	FeeConfigID         string    `json:"fee_config_id" db:"fee_config_id"`
	CommissionCents     int64     `json:"commission_cents" db:"commission_cents"`
	PayoutFeeCents      int64     `json:"payout_fee_cents" db:"payout_fee_cents"`
	ProcessingFeeCents  int64     `json:"processing_fee_cents" db:"processing_fee_cents"`
	EscrowFeeCents      int64     `json:"escrow_fee_cents" db:"escrow_fee_cents"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
}

// Payout - выплата продавцу после высвобождения эскроу
type Payout struct {
	ID            string     `json:"id" db:"id"`
	SellerOrderID string     `json:"seller_order_id" db:"seller_order_id"`
	SellerID      string     `json:"seller_id" db:"seller_id"`
	AmountCents   int64      `json:"amount_cents" db:"amount_cents"`
	Status        string     `json:"status" db:"status"`
	PaidAt        *time.Time `json:"paid_at,omitempty" db:"paid_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

// Статусы выплат
const (
	PayoutStatusPending = "pending"
	PayoutStatusPaid    = "paid"
	PayoutStatusFailed  = "failed"
)
