package ratelimit

import (
	"context"
	"sync"
	"time"
)

// RateLimiter - Token Bucket rate limiter
//
// Алгоритм Token Bucket:
// - Ведро наполняется токенами с постоянной скоростью (rate токенов/сек)
// - Максимальная ёмкость ведра = burst (позволяет короткие всплески)
// - Каждый запрос потребляет 1 токен
// - Если токенов нет, запрос ждёт или отклоняется
//
// Использование:
//
//	limiter := NewRateLimiter(10, 20) // 10 req/sec, burst 20
//	err := limiter.Wait(ctx)          // блокирующее ожидание
//	if limiter.Allow() { ... }        // неблокирующая проверка
type RateLimiter struct {
	rate       float64   // токенов в секунду
	burst      float64   // максимальная ёмкость (burst capacity)
	tokens     float64   // текущее количество токенов
	lastRefill time.Time // время последнего пополнения
	mu         sync.Mutex
}

// NewRateLimiter создаёт новый rate limiter
//
// Параметры:
//   - rate: количество запросов в секунду
//   - burst: максимальный burst (обычно 1.5-2x от rate)
func NewRateLimiter(rate, burst float64) *RateLimiter {
	if rate <= 0 {
		rate = 10
	}
	if burst <= 0 {
		burst = rate * 2
	}
	if burst < rate {
		burst = rate
	}

	return &RateLimiter{
		rate:       rate,
		burst:      burst,
		tokens:     burst, // начинаем с полным ведром
		lastRefill: time.Now(),
	}
}

// refill пополняет токены на основе прошедшего времени
// ВАЖНО: вызывается под lock'ом
func (rl *RateLimiter) refill() {
	now := time.Now()
	elapsed := now.Sub(rl.lastRefill).Seconds()

	rl.tokens += elapsed * rl.rate
	if rl.tokens > rl.burst {
		rl.tokens = rl.burst
	}

	rl.lastRefill = now
}

// Wait блокирует до получения токена или отмены контекста
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		rl.mu.Lock()
		rl.refill()

		if rl.tokens >= 1 {
			rl.tokens--
			rl.mu.Unlock()
			return nil
		}

		waitTime := time.Duration((1 - rl.tokens) / rl.rate * float64(time.Second))
		rl.mu.Unlock()

		select {
		case <-time.After(waitTime):
			continue
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Allow проверяет доступность токена без блокировки
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill()

	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}

	return false
}

// Tokens возвращает текущее количество доступных токенов
// Полезно для мониторинга и отладки
func (rl *RateLimiter) Tokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refill()
	return rl.tokens
}

// Rate возвращает скорость пополнения токенов (токенов/сек)
func (rl *RateLimiter) Rate() float64 {
	return rl.rate
}

// Burst возвращает максимальную ёмкость (burst capacity)
func (rl *RateLimiter) Burst() float64 {
	return rl.burst
}

// ============================================================
// KeyedLimiter - независимые лимиты по ключу
// ============================================================

// KeyedLimiter держит отдельное ведро токенов на ключ.
//
// Используется для ограничения частоты офферов продавца:
// ключ - seller_id, каждый продавец получает собственное ведро.
// Ведра создаются лениво и вычищаются после idle периода,
// чтобы map не рос бесконечно.
type KeyedLimiter struct {
	rate  float64
	burst float64

	mu      sync.Mutex
	buckets map[string]*keyedBucket

	// idleTTL - время жизни неиспользуемого ведра
	idleTTL     time.Duration
	lastCleanup time.Time
}

type keyedBucket struct {
	limiter  *RateLimiter
	lastSeen time.Time
}

// NewKeyedLimiter создаёт keyed limiter с лимитом rate/burst на ключ
func NewKeyedLimiter(rate, burst float64) *KeyedLimiter {
	return &KeyedLimiter{
		rate:        rate,
		burst:       burst,
		buckets:     make(map[string]*keyedBucket),
		idleTTL:     time.Hour,
		lastCleanup: time.Now(),
	}
}

// Allow проверяет доступность токена для ключа без блокировки.
// Реализует service.OfferLimiter.
func (kl *KeyedLimiter) Allow(key string) bool {
	kl.mu.Lock()

	b, ok := kl.buckets[key]
	if !ok {
		b = &keyedBucket{limiter: NewRateLimiter(kl.rate, kl.burst)}
		kl.buckets[key] = b
	}
	b.lastSeen = time.Now()

	kl.maybeCleanup()
	kl.mu.Unlock()

	return b.limiter.Allow()
}

// Size возвращает количество активных ведер
func (kl *KeyedLimiter) Size() int {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	return len(kl.buckets)
}

// maybeCleanup вычищает idle ведра не чаще раза в idleTTL.
// Вызывается под lock'ом.
func (kl *KeyedLimiter) maybeCleanup() {
	now := time.Now()
	if now.Sub(kl.lastCleanup) < kl.idleTTL {
		return
	}
	for key, b := range kl.buckets {
		if now.Sub(b.lastSeen) > kl.idleTTL {
			delete(kl.buckets, key)
		}
	}
	kl.lastCleanup = now
}
