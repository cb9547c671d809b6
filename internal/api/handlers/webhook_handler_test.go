package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"stocklot/internal/service"
)

func TestHandlePaymentAccepted(t *testing.T) {
	svc := &mockOrderService{}
	h := NewWebhookHandler(svc, "payfast")

	body := `{"event_id":"evt-1","event_type":"charge.success","order_id":"group-1","amount":210750}`
	req := httptest.NewRequest("POST", "/webhooks/payments", strings.NewReader(body))
	req.Header.Set("X-Signature", "deadbeef")
	rr := httptest.NewRecorder()

	h.HandlePayment(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if svc.gotProvider != "payfast" {
		t.Errorf("unexpected provider %s", svc.gotProvider)
	}
	if string(svc.gotPayload) != body {
		t.Error("payload must be passed raw for signature verification")
	}
	if svc.gotSig != "deadbeef" {
		t.Errorf("signature not passed: %s", svc.gotSig)
	}
}

func TestHandlePaymentInvalidSignature(t *testing.T) {
	svc := &mockOrderService{
		err: service.NewDomainError(service.CodeValidationError, "invalid webhook signature"),
	}
	h := NewWebhookHandler(svc, "payfast")

	req := httptest.NewRequest("POST", "/webhooks/payments", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()

	h.HandlePayment(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 on invalid signature, got %d", rr.Code)
	}
}

func TestHandlePaymentInternalErrorSignalsRetry(t *testing.T) {
	svc := &mockOrderService{err: &mockInternalError{}}
	h := NewWebhookHandler(svc, "payfast")

	req := httptest.NewRequest("POST", "/webhooks/payments", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()

	h.HandlePayment(rr, req)

	// 500 заставляет провайдера повторить доставку
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rr.Code)
	}
}

func TestNewWebhookHandlerDefaultProvider(t *testing.T) {
	h := NewWebhookHandler(&mockOrderService{}, "")
	if h.provider != "payfast" {
		t.Errorf("expected default provider payfast, got %s", h.provider)
	}
}
