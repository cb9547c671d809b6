package mail

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func fastSender(baseURL string) *Sender {
	s := NewSender(baseURL, "test-key", "noreply@stocklot.co.za", nil)
	s.retryCfg.InitialDelay = time.Millisecond
	s.retryCfg.MaxDelay = 5 * time.Millisecond
	return s
}

func TestSendDeliversMessage(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing auth header")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := fastSender(srv.URL)
	if err := s.Send("buyer@example.com", "Order confirmed", "body text"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.To != "buyer@example.com" || got.Subject != "Order confirmed" {
		t.Errorf("unexpected request: %+v", got)
	}
	if got.From != "noreply@stocklot.co.za" {
		t.Errorf("unexpected from address %s", got.From)
	}
}

func TestSendRetriesOn5xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := fastSender(srv.URL)
	if err := s.Send("buyer@example.com", "subj", "body"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestSendDoesNotRetryOn4xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	s := fastSender(srv.URL)
	if err := s.Send("bad-address", "subj", "body"); err == nil {
		t.Fatal("expected error on 4xx")
	}
	if calls.Load() != 1 {
		t.Errorf("4xx must not be retried, got %d attempts", calls.Load())
	}
}

func TestSendFailsAfterExhaustion(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := fastSender(srv.URL)
	if err := s.Send("buyer@example.com", "subj", "body"); err == nil {
		t.Fatal("expected error after retries exhausted")
	}
	if calls.Load() != int32(s.retryCfg.MaxRetries) {
		t.Errorf("expected %d attempts, got %d", s.retryCfg.MaxRetries, calls.Load())
	}
}
