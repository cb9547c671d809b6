package money

import (
	"math/rand"
	"testing"
)

func TestBps(t *testing.T) {
	tests := []struct {
		name     string
		amount   int64
		bps      int64
		expected int64
	}{
		{"platform fee 2.5% of R2000", 200000, 250, 5000},
		{"vat 15% of R50", 5000, 1500, 750},
		{"rounds half up", 333, 250, 8},       // 8.325 → 8
		{"rounds half exactly up", 200, 250, 5}, // 5.0 → 5
		{"zero amount", 0, 250, 0},
		{"zero bps", 100000, 0, 0},
		{"negative amount", -100, 250, 0},
		{"one cent", 1, 250, 0}, // 0.025 → 0
		{"full rate", 12345, 10000, 12345},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bps(tt.amount, tt.bps)
			if got != tt.expected {
				t.Errorf("Bps(%d, %d) = %d, want %d", tt.amount, tt.bps, got, tt.expected)
			}
		})
	}
}

func TestBpsHalfUpRounding(t *testing.T) {
	// 10050 * 50 / 10000 = 50.25 → 50
	if got := Bps(10050, 50); got != 50 {
		t.Errorf("expected 50, got %d", got)
	}
	// 10100 * 50 / 10000 = 50.5 → 51
	if got := Bps(10100, 50); got != 51 {
		t.Errorf("expected 51, got %d", got)
	}
}

func TestMultiply(t *testing.T) {
	if got := Multiply(20000, 10); got != 200000 {
		t.Errorf("expected 200000, got %d", got)
	}
	if got := Multiply(20000, 0); got != 0 {
		t.Errorf("expected 0 for zero qty, got %d", got)
	}
	if got := Multiply(-5, 10); got != 0 {
		t.Errorf("expected 0 for negative price, got %d", got)
	}
}

func TestMultiplyExactForRandomInputs(t *testing.T) {
	// merchandise_total == unit_price * qty точно, без потерь округления
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		price := rng.Int63n(10_000_000) + 1 // до R100k за голову
		qty := rng.Intn(5000) + 1
		got := Multiply(price, qty)
		if got != price*int64(qty) {
			t.Fatalf("Multiply(%d, %d) = %d", price, qty, got)
		}
	}
}

func TestMax(t *testing.T) {
	if got := Max(5000, 2000); got != 5000 {
		t.Errorf("expected 5000, got %d", got)
	}
	if got := Max(2000, 5000); got != 5000 {
		t.Errorf("expected 5000, got %d", got)
	}
}

func TestFormatRand(t *testing.T) {
	tests := []struct {
		cents    int64
		expected string
	}{
		{210750, "R2107.50"},
		{5000, "R50.00"},
		{1, "R0.01"},
		{0, "R0.00"},
		{-500, "-R5.00"},
	}

	for _, tt := range tests {
		if got := FormatRand(tt.cents); got != tt.expected {
			t.Errorf("FormatRand(%d) = %q, want %q", tt.cents, got, tt.expected)
		}
	}
}
