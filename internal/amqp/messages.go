package amqp

import (
	"encoding/json"
	"time"
)

// TranscriptEventMessage is one completed query/reply exchange, published by
// the chat client and consumed by the transcript worker for archiving.
type TranscriptEventMessage struct {
	SessionID   string    `json:"session_id"`
	Query       string    `json:"query"`
	Reply       string    `json:"reply"`
	ExchangedAt time.Time `json:"exchanged_at"`
}

func NewTranscriptEventMessage(sessionID, query, reply string, exchangedAt time.Time) *TranscriptEventMessage {
	return &TranscriptEventMessage{
		SessionID:   sessionID,
		Query:       query,
		Reply:       reply,
		ExchangedAt: exchangedAt,
	}
}

// ToJSON converts the message to JSON bytes
func (m *TranscriptEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TranscriptEventMessageFromJSON creates a message from JSON bytes
func TranscriptEventMessageFromJSON(data []byte) (*TranscriptEventMessage, error) {
	var msg TranscriptEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
