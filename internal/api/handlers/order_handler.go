package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"stocklot/internal/api/middleware"
	"stocklot/internal/service"
)

// OrderHandler отвечает за флоу заказа: принятие оффера, price lock,
// отмену и подтверждение доставки
//
// Endpoints:
// - POST /api/v1/buy-requests/{id}/offers/{offerID}/accept - принять оффер
// - GET /api/v1/orders/{id} - заказ покупателя
// - POST /api/v1/orders/{id}/refresh-lock - обновить price lock
// - POST /api/v1/orders/{id}/cancel - отменить до оплаты
// - POST /api/v1/orders/{id}/confirm-delivery - подтвердить доставку
type OrderHandler struct {
	orderService service.OrderServiceInterface
}

// NewOrderHandler создает новый OrderHandler
func NewOrderHandler(orderService service.OrderServiceInterface) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// acceptOfferBody - параметры принятия оффера. Qty 0 означает весь
// предложенный объем.
type acceptOfferBody struct {
	Qty          int    `json:"qty"`
	AddressID    string `json:"address_id"`
	AbattoirID   string `json:"abattoir_id"`
	DeliveryMode string `json:"delivery_mode"`
}

// AcceptOffer принимает оффер продавца и создает группу заказа
//
// POST /api/v1/buy-requests/{id}/offers/{offerID}/accept
//
// Ключ идемпотентности передается заголовком Idempotency-Key и
// обязателен: повторная отправка с тем же ключом возвращает уже
// созданную группу с кодом 200 вместо 201.
//
// HTTP коды:
// - 201 Created: группа заказа создана
// - 200 OK: replay по ключу идемпотентности, группа уже существовала
// - 400 Bad Request: нет ключа идемпотентности или невалидное тело
// - 403 Forbidden: требуется KYC
// - 409 Conflict: оффер недоступен, заявка закрыта, остаток изменился
// - 422 Unprocessable Entity: ограничение перемещения, вне зоны доставки
func (h *OrderHandler) AcceptOffer(w http.ResponseWriter, r *http.Request) {
	idemKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if idemKey == "" {
		respondWithError(w, http.StatusBadRequest, "Idempotency-Key header is required")
		return
	}

	var body acceptOfferBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	vars := mux.Vars(r)
	group, replayed, err := h.orderService.AcceptOfferAndCreateOrder(r.Context(), service.AcceptOfferParams{
		BuyerID:        middleware.UserID(r),
		RequestID:      vars["id"],
		OfferID:        vars["offerID"],
		Qty:            body.Qty,
		AddressID:      body.AddressID,
		AbattoirID:     body.AbattoirID,
		DeliveryMode:   body.DeliveryMode,
		IdempotencyKey: idemKey,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	respondWithJSON(w, status, group)
}

// GetOrder возвращает группу заказа с дочерними заказами продавцов
//
// GET /api/v1/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	group, sellerOrders, err := h.orderService.GetOrder(mux.Vars(r)["id"], middleware.UserID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"order":         group,
		"seller_orders": sellerOrders,
	})
}

// RefreshPriceLock пересчитывает totals по актуальным комиссиям, если
// прежний price lock истек
//
// POST /api/v1/orders/{id}/refresh-lock
func (h *OrderHandler) RefreshPriceLock(w http.ResponseWriter, r *http.Request) {
	result, err := h.orderService.RefreshPriceLock(mux.Vars(r)["id"], middleware.UserID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// CancelOrder отменяет группу до оплаты: остаток возвращается на лоты,
// эскроу аннулируется
//
// POST /api/v1/orders/{id}/cancel
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.orderService.CancelOrder(mux.Vars(r)["id"], middleware.UserID(r)); err != nil {
		respondServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, SuccessResponse{Message: "order cancelled"})
}

// ConfirmDelivery подтверждает получение: эскроу released, продавцу
// создается выплата
//
// POST /api/v1/orders/{id}/confirm-delivery
func (h *OrderHandler) ConfirmDelivery(w http.ResponseWriter, r *http.Request) {
	if err := h.orderService.ConfirmDelivery(mux.Vars(r)["id"], middleware.UserID(r)); err != nil {
		respondServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, SuccessResponse{Message: "delivery confirmed"})
}
