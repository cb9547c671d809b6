package events

import (
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Envelope - обертка доменного события на проводе.
//
// EventVersion позволяет эволюционировать payload без поломки
// консьюмеров: обработчик пропускает незнакомые версии.
type Envelope struct {
	EventID       string              `json:"event_id"`
	EventType     string              `json:"event_type"`
	EventVersion  int                 `json:"event_version"`
	OccurredAt    time.Time           `json:"occurred_at"`
	Producer      string              `json:"producer"`
	CorrelationID string              `json:"correlation_id,omitempty"`
	Payload       jsoniter.RawMessage `json:"payload"`
}

// CurrentEventVersion - версия схемы событий, которую пишет этот сервис
const CurrentEventVersion = 1

// NewEnvelope собирает обертку для исходящего события
func NewEnvelope(eventType, correlationID string, payload []byte) *Envelope {
	return &Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  CurrentEventVersion,
		OccurredAt:    time.Now().UTC(),
		Producer:      "stocklot-orders",
		CorrelationID: correlationID,
		Payload:       payload,
	}
}

// Marshal сериализует обертку для отправки в Kafka
func (e *Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// ParseEnvelope разбирает обертку из сообщения Kafka
func ParseEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// DecodePayload раскладывает payload события в map для обработчика
func (e *Envelope) DecodePayload() (map[string]interface{}, error) {
	payload := make(map[string]interface{})
	if len(e.Payload) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}
