package events

import (
	"context"
	"time"

	"go.uber.org/zap"

	"stocklot/internal/metrics"
	"stocklot/internal/models"
)

// OutboxSource - читающая сторона транзакционного outbox
type OutboxSource interface {
	GetUnpublished(limit int) ([]*models.OutboxEvent, error)
	MarkPublished(ids []string) error
	CountUnpublished() (int, error)
}

// Publisher - отправка события в брокер
type Publisher interface {
	Publish(ctx context.Context, env *Envelope) error
}

// Relay перекачивает события из outbox в Kafka.
//
// Семантика at-least-once: строка помечается published только после
// подтверждения брокера. Сбой публикации оставляет строку в outbox,
// следующий тик повторит отправку. Консьюмеры дедуплицируют по event
// семантике (обработка событий идемпотентна).
type Relay struct {
	source    OutboxSource
	publisher Publisher
	logger    *zap.Logger

	interval  time.Duration
	batchSize int
}

// NewRelay создает relay с интервалом опроса outbox
func NewRelay(source OutboxSource, publisher Publisher, interval time.Duration, logger *zap.Logger) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Relay{
		source:    source,
		publisher: publisher,
		logger:    logger,
		interval:  interval,
		batchSize: 100,
	}
}

// Run запускает цикл перекачки. Блокируется до отмены контекста.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("outbox relay started", zap.Duration("interval", r.interval))

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped")
			return
		case <-ticker.C:
			if err := r.Drain(ctx); err != nil {
				r.logger.Error("outbox drain failed", zap.Error(err))
			}
			r.updateBacklog()
		}
	}
}

// Drain публикует один батч неотправленных событий.
// Выделен из Run для вызова из тестов и принудительного flush'а.
func (r *Relay) Drain(ctx context.Context) error {
	pending, err := r.source.GetUnpublished(r.batchSize)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	published := make([]string, 0, len(pending))
	for _, ev := range pending {
		env := NewEnvelope(ev.EventType, ev.CorrelationID, ev.Payload)
		// event_id стабилен между ретраями: консьюмер может дедуплицировать
		env.EventID = ev.ID
		env.OccurredAt = ev.CreatedAt.UTC()

		if err := r.publisher.Publish(ctx, env); err != nil {
			// Помечаем то, что уже ушло, остальное дождется следующего тика
			r.logger.Warn("publish failed, will retry",
				zap.String("event_id", ev.ID),
				zap.String("event_type", ev.EventType),
				zap.Error(err))
			break
		}
		published = append(published, ev.ID)
	}

	if len(published) == 0 {
		return nil
	}
	return r.source.MarkPublished(published)
}

func (r *Relay) updateBacklog() {
	count, err := r.source.CountUnpublished()
	if err != nil {
		return
	}
	metrics.OutboxBacklog.Set(float64(count))
}
