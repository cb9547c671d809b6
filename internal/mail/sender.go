package mail

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"stocklot/pkg/retry"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Sender отправляет email через HTTP шлюз рассылок.
//
// Шлюз принимает POST /v1/messages с JSON телом и Bearer токеном.
// Сетевые ошибки и 5xx ответы retry'ятся с backoff'ом, 4xx считаются
// постоянными и не повторяются. Реализует service.EmailSender.
type Sender struct {
	baseURL   string
	apiKey    string
	fromEmail string
	client    *http.Client
	logger    *zap.Logger
	retryCfg  retry.Config
}

type sendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSender создает sender для шлюза рассылок
func NewSender(baseURL, apiKey, fromEmail string, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg := retry.ConservativeConfig()
	cfg.RetryIf = func(err error) bool {
		return retry.RetryIfNotContext(err) && retry.IsRetryable(err)
	}

	return &Sender{
		baseURL:   baseURL,
		apiKey:    apiKey,
		fromEmail: fromEmail,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:   logger,
		retryCfg: cfg,
	}
}

// Send отправляет письмо. Блокируется до доставки шлюзу или
// исчерпания попыток.
func (s *Sender) Send(to, subject, body string) error {
	payload, err := json.Marshal(sendRequest{
		From:    s.fromEmail,
		To:      to,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		return fmt.Errorf("marshal email payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err = retry.Do(ctx, func() error {
		return s.post(ctx, payload)
	}, s.retryCfg)
	if err != nil {
		s.logger.Error("email delivery failed",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err))
		return err
	}

	s.logger.Debug("email delivered to gateway",
		zap.String("to", to),
		zap.String("subject", subject))
	return nil
}

func (s *Sender) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return retry.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		// Сетевые ошибки временные
		return retry.Temporary(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return retry.Temporary(fmt.Errorf("gateway returned %d", resp.StatusCode))
	default:
		// 4xx: повтор не поможет, тело содержит причину
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return retry.Permanent(fmt.Errorf("gateway rejected message: %d %s", resp.StatusCode, msg))
	}
}
