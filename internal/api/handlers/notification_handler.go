package handlers

import (
	"net/http"
	"strconv"

	"stocklot/internal/api/middleware"
	"stocklot/internal/service"
)

// NotificationHandler отвечает за журнал уведомлений пользователя
//
// Endpoints:
// - GET /api/v1/notifications - последние уведомления пользователя
// - DELETE /api/v1/notifications - очистка журнала
type NotificationHandler struct {
	notificationService service.NotificationServiceInterface
}

// NewNotificationHandler создает новый NotificationHandler
func NewNotificationHandler(notificationService service.NotificationServiceInterface) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// GetNotifications возвращает последние уведомления пользователя
//
// GET /api/v1/notifications?limit=50
//
// По умолчанию 100 записей, максимум 500.
func (h *NotificationHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}

	notifications, err := h.notificationService.GetNotifications(middleware.UserID(r), limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": notifications,
		"total":         len(notifications),
	})
}

// ClearNotifications очищает журнал уведомлений пользователя
//
// DELETE /api/v1/notifications
func (h *NotificationHandler) ClearNotifications(w http.ResponseWriter, r *http.Request) {
	if err := h.notificationService.ClearNotifications(middleware.UserID(r)); err != nil {
		respondServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, SuccessResponse{Message: "notifications cleared"})
}
