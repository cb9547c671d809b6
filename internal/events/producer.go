package events

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"stocklot/internal/metrics"
)

// Producer публикует доменные события в Kafka.
//
// Надежность:
// - Hash balancer + ключ correlation_id: события одного заказа
//   попадают в одну партицию и сохраняют порядок
// - RequireAll: ждем подтверждения ISR реплик
// - MaxAttempts ограничивает внутренние ретраи writer'а, дальше
//   ретраит outbox relay
type Producer struct {
	w *kafka.Writer
}

// NewProducer создает producer с настройками надежности
func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			MaxAttempts:  5,
			WriteTimeout: 5 * time.Second,
			ReadTimeout:  5 * time.Second,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

// Close освобождает ресурсы writer'а
func (p *Producer) Close() error { return p.w.Close() }

// Publish синхронно публикует событие.
// Ключ сообщения - correlation_id, при его отсутствии event_id.
func (p *Producer) Publish(ctx context.Context, env *Envelope) error {
	data, err := env.Marshal()
	if err != nil {
		return err
	}

	key := env.CorrelationID
	if key == "" {
		key = env.EventID
	}

	if err := p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: data,
	}); err != nil {
		return err
	}

	metrics.EventsPublished.WithLabelValues(env.EventType).Inc()
	return nil
}
