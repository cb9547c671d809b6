package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	"stocklot/internal/models"
)

// NotificationRepository - работа с таблицей notifications
//
// In-app и push каналы NotificationService пишут сюда; клиент читает
// журнал через API и получает real-time broadcast по websocket.
type NotificationRepository struct {
	db *sql.DB
}

// NewNotificationRepository создает новый экземпляр репозитория
func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create создает уведомление. Meta сериализуется в JSON.
func (r *NotificationRepository) Create(n *models.Notification) error {
	query := `
		INSERT INTO notifications (user_id, timestamp, type, channel, message, meta)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	n.Timestamp = time.Now()

	var meta []byte
	if n.Meta != nil {
		b, err := json.Marshal(n.Meta)
		if err != nil {
			return err
		}
		meta = b
	}

	return r.db.QueryRow(
		query,
		n.UserID,
		n.Timestamp,
		n.Type,
		n.Channel,
		n.Message,
		meta,
	).Scan(&n.ID)
}

// GetRecentByUser возвращает последние N уведомлений пользователя
func (r *NotificationRepository) GetRecentByUser(userID string, limit int) ([]*models.Notification, error) {
	query := `
		SELECT id, user_id, timestamp, type, channel, message, meta
		FROM notifications
		WHERE user_id = $1
		ORDER BY timestamp DESC
		LIMIT $2`

	rows, err := r.db.Query(query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		n := &models.Notification{}
		var meta []byte
		err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.Timestamp,
			&n.Type,
			&n.Channel,
			&n.Message,
			&meta,
		)
		if err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &n.Meta); err != nil {
				return nil, err
			}
		}
		notifications = append(notifications, n)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return notifications, nil
}

// DeleteAllForUser очищает журнал уведомлений пользователя
func (r *NotificationRepository) DeleteAllForUser(userID string) error {
	_, err := r.db.Exec(`DELETE FROM notifications WHERE user_id = $1`, userID)
	return err
}

// CountByUser возвращает количество уведомлений пользователя
func (r *NotificationRepository) CountByUser(userID string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM notifications WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// KeepRecent удаляет старые уведомления пользователя, оставляя keepCount последних
func (r *NotificationRepository) KeepRecent(userID string, keepCount int) (int64, error) {
	query := `
		DELETE FROM notifications
		WHERE user_id = $1 AND id NOT IN (
			SELECT id FROM notifications
			WHERE user_id = $1
			ORDER BY timestamp DESC
			LIMIT $2
		)`

	result, err := r.db.Exec(query, userID, keepCount)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
