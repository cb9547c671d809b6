package handlers

import (
	"io"
	"net/http"

	"stocklot/internal/service"
)

// maxWebhookBody ограничивает размер тела webhook'а
const maxWebhookBody = 64 * 1024

// WebhookHandler принимает доставки платежного провайдера
//
// Endpoints:
// - POST /webhooks/payments - событие провайдера (подпись в X-Signature)
type WebhookHandler struct {
	orderService service.OrderServiceInterface
	provider     string
}

// NewWebhookHandler создает новый WebhookHandler
func NewWebhookHandler(orderService service.OrderServiceInterface, provider string) *WebhookHandler {
	if provider == "" {
		provider = "payfast"
	}
	return &WebhookHandler{
		orderService: orderService,
		provider:     provider,
	}
}

// HandlePayment обрабатывает доставку платежного провайдера
//
// POST /webhooks/payments
//
// Тело - сырой JSON провайдера, подпись HMAC-SHA256 в заголовке
// X-Signature. Повторные доставки того же события отвечают 200 без
// повторной обработки.
//
// HTTP коды:
// - 200 OK: событие принято (или уже было обработано)
// - 400 Bad Request: невалидная подпись или тело
// - 500 Internal Server Error: событие принято, но не применено -
//   провайдер повторит доставку
func (h *WebhookHandler) HandlePayment(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "cannot read request body")
		return
	}

	signature := r.Header.Get("X-Signature")

	if err := h.orderService.HandlePaymentWebhook(h.provider, payload, signature); err != nil {
		respondServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, SuccessResponse{Message: "event accepted"})
}
