// Package streaming defines the wire format of the map tack stream.
package streaming

import (
	"encoding/json"
	"time"

	"github.com/dmt-mods/placement/pkg/core"
)

// Message type constants of the streaming protocol.
const (
	TypeStartSession = "start_session"
	TypeEndSession   = "end_session"
	TypeAddMapTack   = "add_map_tack"
	TypeAck          = "ack"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// StartSessionPayload opens a session. It is replayed after a reconnect.
type StartSessionPayload struct {
	SessionID        string    `json:"sessionId"`
	ExtensionVersion string    `json:"extensionVersion"`
	StartedAt        time.Time `json:"startedAt"`
}

// AddMapTackPayload carries one committed tack.
type AddMapTackPayload struct {
	SessionID string       `json:"sessionId"`
	MapTack   core.MapTack `json:"mapTack"`
}

// Marshal builds a JSON-encoded Envelope from a message type and payload.
func Marshal(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}
