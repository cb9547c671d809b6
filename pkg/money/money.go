package money

import "fmt"

// money.go - денежная арифметика в центах ZAR
//
// Назначение:
// Все суммы в системе - int64 центы (minor units), float не используется.
// Все функции являются чистыми (pure functions) без побочных эффектов.
//
// Функции:
// - Bps: применение ставки в базисных пунктах с округлением half-up
// - Multiply: умножение цены на количество
// - FormatRand: форматирование центов в строку "R1234.56"

// BpsDenominator - знаменатель базисных пунктов (1 bps = 0.01%)
const BpsDenominator = 10000

// Bps применяет ставку в базисных пунктах к сумме в центах.
//
// Округление half-up: 0.5 цента и выше округляется вверх.
// Для неотрицательных сумм и ставок результат всегда >= 0.
//
// Примеры:
//   - Bps(200000, 250) = 5000   (2.5% от R2000.00 = R50.00)
//   - Bps(5000, 1500) = 750     (15% от R50.00 = R7.50)
//   - Bps(333, 250) = 8         (8.325 → 8)
func Bps(amountCents, bps int64) int64 {
	if amountCents <= 0 || bps <= 0 {
		return 0
	}
	return (amountCents*bps + BpsDenominator/2) / BpsDenominator
}

// Multiply возвращает unit price * qty.
//
// qty <= 0 дает 0 - валидация количества происходит до расчета.
func Multiply(unitPriceCents int64, qty int) int64 {
	if qty <= 0 || unitPriceCents <= 0 {
		return 0
	}
	return unitPriceCents * int64(qty)
}

// Max возвращает большее из двух значений в центах
func Max(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// FormatRand форматирует центы в человекочитаемую строку в рандах.
//
// Примеры:
//   - FormatRand(210750) = "R2107.50"
//   - FormatRand(-500) = "-R5.00"
func FormatRand(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%sR%d.%02d", sign, cents/100, cents%100)
}
