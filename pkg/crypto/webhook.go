package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignWebhookPayload считает HMAC-SHA256 подпись тела webhook'а.
// Используется в тестах и для исходящих запросов к провайдеру.
func SignWebhookPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyWebhookSignature проверяет подпись входящего webhook'а.
// Сравнение за постоянное время.
func VerifyWebhookSignature(payload []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	expected := SignWebhookPayload(payload, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
