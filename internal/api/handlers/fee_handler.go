package handlers

import (
	"net/http"

	"stocklot/internal/service"
)

// FeeHandler отдает активную конфигурацию комиссий
//
// Endpoints:
// - GET /api/v1/fees/config - текущие ставки платформы
type FeeHandler struct {
	feeConfigRepo service.FeeConfigRepositoryInterface
}

// NewFeeHandler создает новый FeeHandler
func NewFeeHandler(feeConfigRepo service.FeeConfigRepositoryInterface) *FeeHandler {
	return &FeeHandler{
		feeConfigRepo: feeConfigRepo,
	}
}

// GetActiveConfig возвращает активную конфигурацию комиссий.
// Фронтенд использует ее для предварительного расчета totals.
//
// GET /api/v1/fees/config
func (h *FeeHandler) GetActiveConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.feeConfigRepo.GetActive()
	if err != nil {
		respondWithJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: "no active fee config",
			Code:  service.CodeSystemError,
		})
		return
	}

	respondWithJSON(w, http.StatusOK, cfg)
}
