package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"stocklot/internal/metrics"
)

// ============================================================
// Фоновые задачи маркетплейса
// ============================================================

// RequestExpirer закрывает просроченные заявки покупателей
type RequestExpirer interface {
	AutoExpireRequests(now time.Time) (int64, error)
}

// StaleOrderCanceller отменяет заказы с истекшим окном оплаты
type StaleOrderCanceller interface {
	CancelStaleOrders(cutoff time.Time, limit int) (int, error)
}

// FeeArchiver деактивирует конфигурации комиссий с истекшим сроком
type FeeArchiver interface {
	ArchiveExpired(now time.Time) (int64, error)
}

// WebhookRecoverer дообрабатывает webhook'и, застрявшие между приемом
// и обработкой из-за падения процесса
type WebhookRecoverer interface {
	RecoverWebhookEvents(limit int) (int, error)
}

// Sweeper периодически прогоняет фоновые задачи.
//
// Каждая задача независима: падение одной не мешает остальным.
// Все задачи идемпотентны, перезапуск процесса безопасен.
type Sweeper struct {
	requests RequestExpirer
	orders   StaleOrderCanceller
	fees     FeeArchiver
	webhooks WebhookRecoverer
	logger   *zap.Logger

	interval       time.Duration
	staleBatchSize int
}

// NewSweeper создает sweeper с указанным интервалом прогонов
func NewSweeper(requests RequestExpirer, orders StaleOrderCanceller, fees FeeArchiver, webhooks WebhookRecoverer, interval time.Duration, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		requests:       requests,
		orders:         orders,
		fees:           fees,
		webhooks:       webhooks,
		logger:         logger,
		interval:       interval,
		staleBatchSize: 100,
	}
}

// Run запускает цикл прогонов. Блокируется до отмены контекста.
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info("sweeper started", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.RunOnce(time.Now())
		}
	}
}

// RunOnce выполняет один прогон всех задач
func (s *Sweeper) RunOnce(now time.Time) {
	s.expireRequests(now)
	s.cancelStaleOrders(now)
	s.archiveFeeConfigs(now)
	s.recoverWebhooks()
}

func (s *Sweeper) expireRequests(now time.Time) {
	const job = "expire_requests"

	expired, err := s.requests.AutoExpireRequests(now)
	if err != nil {
		metrics.SweeperRuns.WithLabelValues(job, "error").Inc()
		s.logger.Error("request expiry sweep failed", zap.Error(err))
		return
	}

	metrics.SweeperRuns.WithLabelValues(job, "ok").Inc()
	if expired > 0 {
		metrics.SweeperAffected.WithLabelValues(job).Add(float64(expired))
		s.logger.Info("expired stale buy requests", zap.Int64("count", expired))
	}
}

func (s *Sweeper) cancelStaleOrders(now time.Time) {
	const job = "cancel_stale_orders"

	cancelled, err := s.orders.CancelStaleOrders(now, s.staleBatchSize)
	if err != nil {
		metrics.SweeperRuns.WithLabelValues(job, "error").Inc()
		s.logger.Error("stale order sweep failed", zap.Error(err))
		return
	}

	metrics.SweeperRuns.WithLabelValues(job, "ok").Inc()
	if cancelled > 0 {
		metrics.SweeperAffected.WithLabelValues(job).Add(float64(cancelled))
		s.logger.Info("cancelled orders past payment window", zap.Int("count", cancelled))
	}
}

func (s *Sweeper) archiveFeeConfigs(now time.Time) {
	const job = "archive_fee_configs"

	archived, err := s.fees.ArchiveExpired(now)
	if err != nil {
		metrics.SweeperRuns.WithLabelValues(job, "error").Inc()
		s.logger.Error("fee config sweep failed", zap.Error(err))
		return
	}

	metrics.SweeperRuns.WithLabelValues(job, "ok").Inc()
	if archived > 0 {
		metrics.SweeperAffected.WithLabelValues(job).Add(float64(archived))
		s.logger.Info("archived expired fee configs", zap.Int64("count", archived))
	}
}

func (s *Sweeper) recoverWebhooks() {
	const job = "recover_webhooks"

	recovered, err := s.webhooks.RecoverWebhookEvents(s.staleBatchSize)
	if err != nil {
		metrics.SweeperRuns.WithLabelValues(job, "error").Inc()
		s.logger.Error("webhook recovery sweep failed", zap.Error(err))
		return
	}

	metrics.SweeperRuns.WithLabelValues(job, "ok").Inc()
	if recovered > 0 {
		metrics.SweeperAffected.WithLabelValues(job).Add(float64(recovered))
		s.logger.Info("recovered stuck webhook events", zap.Int("count", recovered))
	}
}
