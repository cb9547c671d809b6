package models

import "time"

// FeeConfig - конфигурация комиссий платформы
//
// В каждый момент времени активна ровно одна конфигурация
// (partial unique index на is_active). Ставки в базисных пунктах
// (1 bps = 0.01%), фиксированные суммы в центах ZAR.
type FeeConfig struct {
	ID                    string     `json:"id" db:"id"`
	Name                  string     `json:"name" db:"name"`
	PlatformFeeBps        int64      `json:"platform_fee_bps" db:"platform_fee_bps"`   // комиссия платформы с merchandise
	VATBps                int64      `json:"vat_bps" db:"vat_bps"`                     // НДС начисляется на комиссию платформы
	CommissionBps         int64      `json:"commission_bps" db:"commission_bps"`       // комиссия с продавца
	PayoutFeeBps          int64      `json:"payout_fee_bps" db:"payout_fee_bps"`
	ProcessingFeeBps      int64      `json:"processing_fee_bps" db:"processing_fee_bps"`
	EscrowFeeCents        int64      `json:"escrow_fee_cents" db:"escrow_fee_cents"`
	MinDeliveryCents      int64      `json:"min_delivery_cents" db:"min_delivery_cents"`
	PerUnitDeliveryCents  int64      `json:"per_unit_delivery_cents" db:"per_unit_delivery_cents"`
	AbattoirPerUnitCents  int64      `json:"abattoir_per_unit_cents" db:"abattoir_per_unit_cents"`
	EffectiveFrom         time.Time  `json:"effective_from" db:"effective_from"`
	EffectiveTo           *time.Time `json:"effective_to,omitempty" db:"effective_to"`
	IsActive              bool       `json:"is_active" db:"is_active"`
	IsArchived            bool       `json:"is_archived" db:"is_archived"`
	CreatedAt             time.Time  `json:"created_at" db:"created_at"`
}

// Дефолтные ставки для первичного seed'а
const (
	DefaultPlatformFeeBps       = 250  // 2.5%
	DefaultVATBps               = 1500 // 15% от комиссии платформы
	DefaultCommissionBps        = 500  // 5%
	DefaultPayoutFeeBps         = 100  // 1%
	DefaultProcessingFeeBps     = 150  // 1.5%
	DefaultEscrowFeeCents       = 2500 // R25.00 фикс
	DefaultMinDeliveryCents     = 5000 // R50.00 минимум доставки продавцом
	DefaultPerUnitDeliveryCents = 200  // R2.00 за голову
	DefaultAbattoirPerUnitCents = 1500 // R15.00 за голову
)
