// Package stream defines the wire messages the overlay publishes to a
// remote presentation layer over WebSocket.
package stream

import (
	"encoding/json"

	"github.com/skylens/aroverlay/pkg/poi"
)

// Message type constants matching the overlay streaming protocol.
const (
	TypeHello      = "hello"
	TypeGoodbye    = "goodbye"
	TypeViewEvents = "view_events"
	TypeStatus     = "status"
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

// HelloPayload announces a new overlay session. It is replayed after a
// reconnect so the server knows which session events belong to.
type HelloPayload struct {
	Session         string  `json:"session"`
	ViewportWidth   float64 `json:"viewportWidth"`
	ViewportHeight  float64 `json:"viewportHeight"`
	PixelsPerDegree float64 `json:"pixelsPerDegree"`
}

// ViewEventsPayload carries one drained batch of view events.
type ViewEventsPayload struct {
	Events []poi.ViewEvent `json:"events"`
}

// StatusPayload is a periodic engine health snapshot.
type StatusPayload struct {
	Annotations       int     `json:"annotations"`
	ActiveAnnotations int     `json:"activeAnnotations"`
	BoundViews        int     `json:"boundViews"`
	SmoothedHeading   float64 `json:"smoothedHeading"`
	Region            string  `json:"region"`
	HasLocation       bool    `json:"hasLocation"`
}
