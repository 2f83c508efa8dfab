package gateway

import (
	"encoding/json"
	"strings"
	"time"
)

// InboundCommand is one unit received from the chat transport: who
// sent it, the command keyword, and the trailing text.
type InboundCommand struct {
	ConversationID string    `json:"conversation_id"`
	Command        string    `json:"command"`
	Text           string    `json:"text"`
	MessageID      string    `json:"message_id,omitempty"`
	Timestamp      time.Time `json:"timestamp,omitempty"`
}

// Keyword returns the command without its leading slash, lower-cased.
func (m InboundCommand) Keyword() string {
	return strings.ToLower(strings.TrimPrefix(m.Command, "/"))
}

// Line reconstructs the full original command line. Category
// resolution searches this, keyword included.
func (m InboundCommand) Line() string {
	if m.Text == "" {
		return m.Command
	}
	return m.Command + " " + m.Text
}

// OutboundReply is one unit sent back to the chat transport. Monospace
// asks the transport to render the text in a fixed-width block.
type OutboundReply struct {
	ConversationID string    `json:"conversation_id"`
	Text           string    `json:"text"`
	Monospace      bool      `json:"monospace,omitempty"`
	CorrelationID  string    `json:"correlation_id,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// ToJSON converts the reply to JSON bytes
func (m OutboundReply) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// InboundCommandFromJSON creates a command from JSON bytes
func InboundCommandFromJSON(data []byte) (InboundCommand, error) {
	var msg InboundCommand
	if err := json.Unmarshal(data, &msg); err != nil {
		return InboundCommand{}, err
	}
	return msg, nil
}
