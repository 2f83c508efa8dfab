package gateway

import (
	"strings"
	"testing"
)

func TestInboundCommandFromJSON(t *testing.T) {
	data := []byte(`{"conversation_id":"conv-1","command":"/food","text":"$6.90 Chicken Rice x2","message_id":"42"}`)

	cmd, err := InboundCommandFromJSON(data)
	if err != nil {
		t.Fatalf("InboundCommandFromJSON: %v", err)
	}
	if cmd.ConversationID != "conv-1" {
		t.Errorf("ConversationID = %q", cmd.ConversationID)
	}
	if cmd.Keyword() != "food" {
		t.Errorf("Keyword() = %q, want food", cmd.Keyword())
	}
	if cmd.Line() != "/food $6.90 Chicken Rice x2" {
		t.Errorf("Line() = %q", cmd.Line())
	}
}

func TestInboundCommandFromJSONInvalid(t *testing.T) {
	if _, err := InboundCommandFromJSON([]byte("not json")); err == nil {
		t.Error("expected error for malformed payload")
	}
}

func TestOutboundReplyToJSON(t *testing.T) {
	reply := OutboundReply{
		ConversationID: "conv-1",
		Text:           "✅ Recorded",
		Monospace:      true,
		CorrelationID:  "abc",
	}

	data, err := reply.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	for _, want := range []string{`"conversation_id":"conv-1"`, `"monospace":true`, `"correlation_id":"abc"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("JSON %s missing %q", data, want)
		}
	}
}
