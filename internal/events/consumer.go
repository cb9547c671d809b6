package events

import (
	"context"
	"errors"
	"io"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"stocklot/internal/metrics"
)

// EventHandler обрабатывает одно доменное событие.
// Обработка обязана быть идемпотентной: relay гарантирует at-least-once.
type EventHandler interface {
	HandleDomainEvent(eventType string, payload map[string]interface{}) error
}

// Consumer читает доменные события из Kafka в составе consumer group.
//
// Offset коммитится только после успешной обработки: падение процесса
// приводит к повторной доставке, не к потере. Непарсящиеся сообщения
// пропускаются с коммитом, иначе ядовитое сообщение застопорит партицию.
type Consumer struct {
	r       *kafka.Reader
	handler EventHandler
	logger  *zap.Logger
}

// NewConsumer создает консьюмера в группе groupID
func NewConsumer(brokers []string, topic, groupID string, handler EventHandler, logger *zap.Logger) *Consumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{
		r: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1e3,
			MaxBytes: 1e6,
		}),
		handler: handler,
		logger:  logger,
	}
}

// Close освобождает ресурсы reader'а
func (c *Consumer) Close() error { return c.r.Close() }

// Run запускает цикл чтения. Блокируется до отмены контекста.
func (c *Consumer) Run(ctx context.Context) {
	c.logger.Info("event consumer started", zap.String("topic", c.r.Config().Topic))

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				c.logger.Info("event consumer stopped")
				return
			}
			c.logger.Error("fetch message failed", zap.Error(err))
			continue
		}

		if err := c.processMessage(m.Value); err != nil {
			metrics.EventsConsumed.WithLabelValues("error").Inc()
			c.logger.Error("event processing failed",
				zap.Int64("offset", m.Offset),
				zap.Error(err))
			// Offset не коммитим: событие будет доставлено повторно
			continue
		}

		if err := c.r.CommitMessages(ctx, m); err != nil {
			c.logger.Error("commit failed", zap.Error(err))
		}
	}
}

func (c *Consumer) processMessage(value []byte) error {
	env, err := ParseEnvelope(value)
	if err != nil {
		// Мусор в топике: пропускаем с коммитом, иначе партиция встанет
		metrics.EventsConsumed.WithLabelValues("skipped").Inc()
		c.logger.Warn("malformed event skipped", zap.Error(err))
		return nil
	}

	if env.EventVersion > CurrentEventVersion {
		metrics.EventsConsumed.WithLabelValues("skipped").Inc()
		c.logger.Warn("event version ahead of consumer, skipped",
			zap.String("event_type", env.EventType),
			zap.Int("event_version", env.EventVersion))
		return nil
	}

	payload, err := env.DecodePayload()
	if err != nil {
		metrics.EventsConsumed.WithLabelValues("skipped").Inc()
		c.logger.Warn("malformed event payload skipped",
			zap.String("event_id", env.EventID),
			zap.Error(err))
		return nil
	}

	if err := c.handler.HandleDomainEvent(env.EventType, payload); err != nil {
		return err
	}

	metrics.EventsConsumed.WithLabelValues("processed").Inc()
	return nil
}
