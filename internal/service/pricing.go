package service

import (
	"stocklot/internal/models"
	"stocklot/pkg/money"
)

// PricingInput - исходные данные расчета стоимости заказа
type PricingInput struct {
	UnitPriceCents int64
	Qty            int
	DeliveryMode   string
	HasAbattoir    bool
}

// ComputeTotals рассчитывает разбивку стоимости заказа по активной
// конфигурации комиссий. Все суммы в центах ZAR.
//
// merchandise = unit_price * qty
// delivery    = max(min_delivery, qty * per_unit) при доставке продавцом, иначе 0
// abattoir    = qty * abattoir_per_unit при выбранной бойне
// platform    = merchandise * platform_fee_bps
// vat         = platform * vat_bps (НДС начисляется на комиссию, не на товар)
// grand       = сумма пяти компонентов
func ComputeTotals(cfg *models.FeeConfig, in PricingInput) models.OrderTotals {
	totals := models.OrderTotals{
		MerchandiseCents: money.Multiply(in.UnitPriceCents, in.Qty),
	}

	if in.DeliveryMode == models.DeliveryModeSeller {
		totals.DeliveryCents = money.Max(
			cfg.MinDeliveryCents,
			money.Multiply(cfg.PerUnitDeliveryCents, in.Qty),
		)
	}

	if in.HasAbattoir {
		totals.AbattoirCents = money.Multiply(cfg.AbattoirPerUnitCents, in.Qty)
	}

	totals.PlatformFeeCents = money.Bps(totals.MerchandiseCents, cfg.PlatformFeeBps)
	totals.VATCents = money.Bps(totals.PlatformFeeCents, cfg.VATBps)

	totals.GrandTotalCents = totals.MerchandiseCents +
		totals.DeliveryCents +
		totals.AbattoirCents +
		totals.PlatformFeeCents +
		totals.VATCents

	return totals
}

// ComputeSellerFees делает снимок комиссий продавца из конфигурации.
// Снимок пишется в seller_order_fees и не меняется при смене тарифов.
func ComputeSellerFees(cfg *models.FeeConfig, merchandiseCents int64) models.SellerOrderFees {
	return models.SellerOrderFees{
		FeeConfigID:        cfg.ID,
		CommissionCents:    money.Bps(merchandiseCents, cfg.CommissionBps),
		PayoutFeeCents:     money.Bps(merchandiseCents, cfg.PayoutFeeBps),
		ProcessingFeeCents: money.Bps(merchandiseCents, cfg.ProcessingFeeBps),
		EscrowFeeCents:     cfg.EscrowFeeCents,
	}
}

// PayoutAmount - сумма выплаты продавцу: стоимость товара минус снимок
// комиссий. Не может быть отрицательной.
func PayoutAmount(totalCents int64, fees *models.SellerOrderFees) int64 {
	amount := totalCents - fees.CommissionCents - fees.PayoutFeeCents - fees.ProcessingFeeCents - fees.EscrowFeeCents
	if amount < 0 {
		return 0
	}
	return amount
}
