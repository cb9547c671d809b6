package repository

import (
	"database/sql"
	"time"

	"stocklot/internal/models"
)

// WebhookRepository - работа с таблицей webhook_events
type WebhookRepository struct {
	db *sql.DB
}

// NewWebhookRepository создает новый экземпляр репозитория
func NewWebhookRepository(db *sql.DB) *WebhookRepository {
	return &WebhookRepository{db: db}
}

// InsertIfNew идемпотентно сохраняет событие провайдера.
// Возвращает false, если событие с таким (provider, provider_event_id)
// уже было получено - повторная доставка не обрабатывается.
func (r *WebhookRepository) InsertIfNew(ev *models.WebhookEvent) (bool, error) {
	query := `
		INSERT INTO webhook_events (id, provider, provider_event_id, event_type, payload, processed, received_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6)
		ON CONFLICT (provider, provider_event_id) DO NOTHING`

	ev.ReceivedAt = time.Now()

	result, err := r.db.Exec(
		query,
		ev.ID,
		ev.Provider,
		ev.ProviderEventID,
		ev.EventType,
		ev.Payload,
		ev.ReceivedAt,
	)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected == 1, nil
}

// MarkProcessed проставляет processed после успешной обработки
func (r *WebhookRepository) MarkProcessed(id string) error {
	_, err := r.db.Exec(`
		UPDATE webhook_events SET processed = TRUE, processed_at = $1 WHERE id = $2`,
		time.Now(), id,
	)
	return err
}

// GetUnprocessed возвращает необработанные события (recovery после сбоя)
func (r *WebhookRepository) GetUnprocessed(limit int) ([]*models.WebhookEvent, error) {
	query := `
		SELECT id, provider, provider_event_id, event_type, payload, processed, processed_at, received_at
		FROM webhook_events
		WHERE processed = FALSE
		ORDER BY received_at
		LIMIT $1`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.WebhookEvent
	for rows.Next() {
		ev := &models.WebhookEvent{}
		var processedAt sql.NullTime
		err := rows.Scan(
			&ev.ID,
			&ev.Provider,
			&ev.ProviderEventID,
			&ev.EventType,
			&ev.Payload,
			&ev.Processed,
			&processedAt,
			&ev.ReceivedAt,
		)
		if err != nil {
			return nil, err
		}
		if processedAt.Valid {
			t := processedAt.Time
			ev.ProcessedAt = &t
		}
		events = append(events, ev)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
