package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestInboundMessage_EffectiveSender(t *testing.T) {
	tests := []struct {
		name string
		msg  InboundMessage
		want string
	}{
		{name: "explicit sender", msg: InboundMessage{Text: "hi", Sender: "alice"}, want: "alice"},
		{name: "missing sender", msg: InboundMessage{Text: "hi"}, want: "conn-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.msg.EffectiveSender("conn-1"); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestNewServerMessage(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 30, 15, 123_000_000, time.FixedZone("CEST", 2*3600))

	msg := NewServerMessage("hi there", now)

	if msg.Sender != ServerSender {
		t.Errorf("expected sender %q, got %q", ServerSender, msg.Sender)
	}
	if msg.Timestamp != "2024-05-01T10:30:15.123Z" {
		t.Errorf("unexpected timestamp %s", msg.Timestamp)
	}
	if _, err := time.Parse(time.RFC3339, msg.Timestamp); err != nil {
		t.Errorf("timestamp is not ISO-8601: %v", err)
	}
}

func TestEncodeEvent(t *testing.T) {
	raw, err := EncodeEvent(EventChatMessage, OutboundMessage{Text: "t", Sender: ServerSender, Timestamp: "x"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.Event != EventChatMessage {
		t.Errorf("expected event %s, got %s", EventChatMessage, env.Event)
	}

	var out OutboundMessage
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if out.Text != "t" || out.Sender != ServerSender {
		t.Errorf("unexpected payload %+v", out)
	}
}
