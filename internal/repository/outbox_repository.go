package repository

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	"stocklot/internal/models"
)

// OutboxRepository - работа с таблицей outbox_events
//
// Вставка идет внутри доменных транзакций (см. OrderRepository),
// чтение и пометка published - из relay job'а.
type OutboxRepository struct {
	db *sql.DB
}

// NewOutboxRepository создает новый экземпляр репозитория
func NewOutboxRepository(db *sql.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// insertOutboxTx вставляет событие в outbox внутри открытой транзакции
func insertOutboxTx(tx *sql.Tx, ev *models.OutboxEvent, now time.Time) error {
	if ev == nil {
		return nil
	}
	ev.CreatedAt = now
	_, err := tx.Exec(`
		INSERT INTO outbox_events (id, event_type, correlation_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		ev.ID,
		ev.EventType,
		ev.CorrelationID,
		ev.Payload,
		ev.CreatedAt,
	)
	return err
}

// Insert вставляет событие вне доменной транзакции (sweeper, модерация)
func (r *OutboxRepository) Insert(ev *models.OutboxEvent) error {
	ev.CreatedAt = time.Now()
	_, err := r.db.Exec(`
		INSERT INTO outbox_events (id, event_type, correlation_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		ev.ID,
		ev.EventType,
		ev.CorrelationID,
		ev.Payload,
		ev.CreatedAt,
	)
	return err
}

// GetUnpublished возвращает неопубликованные события в порядке создания
func (r *OutboxRepository) GetUnpublished(limit int) ([]*models.OutboxEvent, error) {
	query := `
		SELECT id, event_type, correlation_id, payload, created_at, published_at
		FROM outbox_events
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.OutboxEvent
	for rows.Next() {
		ev := &models.OutboxEvent{}
		err := rows.Scan(
			&ev.ID,
			&ev.EventType,
			&ev.CorrelationID,
			&ev.Payload,
			&ev.CreatedAt,
			&ev.PublishedAt,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// MarkPublished проставляет published_at для опубликованных событий.
// Идемпотентно: повторная публикация возможна при падении relay между
// Kafka write и этим update - consumer дедуплицирует по event id.
func (r *OutboxRepository) MarkPublished(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.Exec(`
		UPDATE outbox_events SET published_at = $1 WHERE id = ANY($2) AND published_at IS NULL`,
		time.Now(), pq.Array(ids),
	)
	return err
}

// CountUnpublished возвращает размер бэклога outbox
func (r *OutboxRepository) CountUnpublished() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM outbox_events WHERE published_at IS NULL`).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
