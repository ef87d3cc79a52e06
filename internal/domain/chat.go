package domain

import (
	"encoding/json"
	"time"
)

// ServerSender marks messages produced by the relay itself.
const ServerSender = "server"

// TimestampLayout is ISO-8601 with millisecond precision in UTC.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

type EventName string

const (
	EventChatMessage EventName = "chatMessage"
)

// Envelope is the frame exchanged over the WebSocket in both directions.
type Envelope struct {
	Event EventName       `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type InboundMessage struct {
	Text   string `json:"text"`
	Sender string `json:"sender,omitempty"`
}

// EffectiveSender falls back to the connection id when no sender was given.
func (m InboundMessage) EffectiveSender(connectionID string) string {
	if m.Sender != "" {
		return m.Sender
	}
	return connectionID
}

type OutboundMessage struct {
	Text      string `json:"text"`
	Sender    string `json:"sender"`
	Timestamp string `json:"timestamp"`
}

func NewServerMessage(text string, now time.Time) OutboundMessage {
	return OutboundMessage{
		Text:      text,
		Sender:    ServerSender,
		Timestamp: now.UTC().Format(TimestampLayout),
	}
}

// EncodeEvent wraps payload into an Envelope and marshals it.
func EncodeEvent(event EventName, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}
