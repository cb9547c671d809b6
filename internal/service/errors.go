package service

import "fmt"

// Коды доменных ошибок, отдаются клиенту в поле "code" ответа об ошибке.
// Код стабилен, текст сообщения - нет.
const (
	CodeOfferExpired    = "OFFER_EXPIRED"
	CodeRequestInvalid  = "REQUEST_INVALID"
	CodeSellerNotFound  = "SELLER_NOT_FOUND"
	CodeAddressInvalid  = "ADDRESS_INVALID"
	CodeOutOfRange      = "OUT_OF_RANGE"
	CodeDiseaseBlock    = "DISEASE_BLOCK"
	CodeKYCRequired     = "KYC_REQUIRED"
	CodeQtyChanged      = "QTY_CHANGED"
	CodeOrderNotFound   = "ORDER_NOT_FOUND"
	CodeRefreshFailed   = "REFRESH_FAILED"
	CodeValidationError = "VALIDATION_ERROR"
	CodeSystemError     = "SYSTEM_ERROR"
)

// DomainError - ошибка бизнес-логики со стабильным кодом
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewDomainError создает доменную ошибку
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// Переиспользуемые доменные ошибки
var (
	ErrOfferExpired   = NewDomainError(CodeOfferExpired, "offer is no longer available")
	ErrRequestInvalid = NewDomainError(CodeRequestInvalid, "buy request is not open or does not belong to the buyer")
	ErrSellerGone     = NewDomainError(CodeSellerNotFound, "seller account not found")
	ErrAddressInvalid = NewDomainError(CodeAddressInvalid, "delivery address not found or does not belong to the buyer")
	ErrOutOfRange     = NewDomainError(CodeOutOfRange, "seller does not service the delivery province")
	ErrQtyChanged     = NewDomainError(CodeQtyChanged, "listing quantity changed, offer can no longer be fulfilled")
	ErrOrderGone      = NewDomainError(CodeOrderNotFound, "order not found")
	ErrRefreshFailed  = NewDomainError(CodeRefreshFailed, "price lock cannot be refreshed in the current order state")
)
