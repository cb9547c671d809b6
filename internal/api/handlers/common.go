package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"stocklot/internal/service"
)

// ErrorResponse стандартный формат ответа об ошибке для всех API endpoints
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse стандартный формат успешного ответа
type SuccessResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// statusForCode отображает стабильный доменный код в HTTP статус
func statusForCode(code string) int {
	switch code {
	case service.CodeValidationError, service.CodeAddressInvalid:
		return http.StatusBadRequest
	case service.CodeKYCRequired:
		return http.StatusForbidden
	case service.CodeOrderNotFound, service.CodeSellerNotFound:
		return http.StatusNotFound
	case service.CodeOfferExpired, service.CodeRequestInvalid,
		service.CodeQtyChanged, service.CodeRefreshFailed:
		return http.StatusConflict
	case service.CodeOutOfRange, service.CodeDiseaseBlock:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondWithJSON отправляет JSON ответ
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

// respondWithError отправляет JSON ошибку
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

// respondServiceError отдает доменную ошибку со стабильным кодом.
// Всё, что не *DomainError, считается внутренней ошибкой и не
// раскрывает деталей клиенту.
func respondServiceError(w http.ResponseWriter, err error) {
	var domainErr *service.DomainError
	if errors.As(err, &domainErr) {
		respondWithJSON(w, statusForCode(domainErr.Code), ErrorResponse{
			Error: domainErr.Message,
			Code:  domainErr.Code,
		})
		return
	}

	respondWithJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error: "internal server error",
		Code:  service.CodeSystemError,
	})
}
