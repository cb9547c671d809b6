package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"stocklot/internal/api/middleware"
	"stocklot/internal/service"
)

// BuyRequestHandler отвечает за заявки покупателей и офферы продавцов
//
// Endpoints:
// - POST /api/v1/buy-requests - публикация заявки
// - GET /api/v1/buy-requests - лента открытых заявок
// - GET /api/v1/buy-requests/{id} - заявка по ID
// - POST /api/v1/buy-requests/{id}/offers - оффер продавца
// - GET /api/v1/buy-requests/{id}/offers - офферы заявки (владелец)
// - POST /api/v1/buy-requests/{id}/offers/{offerID}/decline - отклонить оффер
// - POST /api/v1/buy-requests/{id}/moderate - решение модератора (admin)
type BuyRequestHandler struct {
	buyRequestService service.BuyRequestServiceInterface
}

// NewBuyRequestHandler создает новый BuyRequestHandler
func NewBuyRequestHandler(buyRequestService service.BuyRequestServiceInterface) *BuyRequestHandler {
	return &BuyRequestHandler{
		buyRequestService: buyRequestService,
	}
}

// CreateBuyRequest публикует заявку покупателя
//
// POST /api/v1/buy-requests
//
// HTTP коды:
// - 201 Created: заявка создана (возможно в pending_review)
// - 400 Bad Request: невалидное тело или поля
// - 401 Unauthorized: нет идентификации
func (h *BuyRequestHandler) CreateBuyRequest(w http.ResponseWriter, r *http.Request) {
	var p service.CreateBuyRequestParams
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p.BuyerID = middleware.UserID(r)

	req, err := h.buyRequestService.CreateBuyRequest(p)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, req)
}

// ListOpenRequests возвращает ленту открытых заявок
//
// GET /api/v1/buy-requests?limit=50
func (h *BuyRequestHandler) ListOpenRequests(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	requests, err := h.buyRequestService.ListOpenRequests(limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"requests": requests,
		"total":    len(requests),
	})
}

// GetBuyRequest возвращает заявку по ID
//
// GET /api/v1/buy-requests/{id}
func (h *BuyRequestHandler) GetBuyRequest(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	req, err := h.buyRequestService.GetBuyRequest(id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, req)
}

// CreateOffer создает оффер продавца на заявку
//
// POST /api/v1/buy-requests/{id}/offers
//
// HTTP коды:
// - 201 Created: оффер создан
// - 400 Bad Request: дубль pending оффера, rate limit, невалидные поля
// - 409 Conflict: заявка не открыта
func (h *BuyRequestHandler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	var p service.CreateOfferParams
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p.RequestID = mux.Vars(r)["id"]
	p.SellerID = middleware.UserID(r)

	offer, err := h.buyRequestService.CreateOffer(p)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, offer)
}

// ListOffers возвращает офферы заявки. Доступно только владельцу.
//
// GET /api/v1/buy-requests/{id}/offers
func (h *BuyRequestHandler) ListOffers(w http.ResponseWriter, r *http.Request) {
	requestID := mux.Vars(r)["id"]
	buyerID := middleware.UserID(r)

	offers, err := h.buyRequestService.ListOffers(requestID, buyerID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"offers": offers,
		"total":  len(offers),
	})
}

// DeclineOffer отклоняет pending оффер. Доступно только владельцу заявки.
//
// POST /api/v1/buy-requests/{id}/offers/{offerID}/decline
func (h *BuyRequestHandler) DeclineOffer(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	buyerID := middleware.UserID(r)

	if err := h.buyRequestService.DeclineOffer(vars["id"], vars["offerID"], buyerID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, SuccessResponse{Message: "offer declined"})
}

// moderateRequestBody - решение модератора по заявке
type moderateRequestBody struct {
	Approve bool `json:"approve"`
}

// ModerateRequest применяет решение модератора к заявке в pending_review
//
// POST /api/v1/buy-requests/{id}/moderate
//
// Закрыт AdminAuth middleware.
func (h *BuyRequestHandler) ModerateRequest(w http.ResponseWriter, r *http.Request) {
	var body moderateRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.buyRequestService.ModerateRequest(mux.Vars(r)["id"], body.Approve); err != nil {
		respondServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, SuccessResponse{Message: "moderation decision applied"})
}
