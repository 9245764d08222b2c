// Package stream publishes view events and engine status to a remote
// presentation layer over WebSocket, with reconnect and hello replay.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/skylens/aroverlay/internal/queue"
	"github.com/skylens/aroverlay/pkg/poi"
	"github.com/skylens/aroverlay/pkg/stream"
)

// Config holds publisher configuration.
type Config struct {
	URL    string
	Secret string
}

// Publisher streams overlay view events to the server. It implements the
// presentation side of the engine's event journal: batches are drained
// from the queue and sent fire-and-forget; session open/close are acked.
type Publisher struct {
	conn  *connection
	cfg   Config
	hello stream.HelloPayload
}

// NewPublisher creates a publisher for the given session parameters.
// A nil logger falls back to slog.Default().
func NewPublisher(cfg Config, hello stream.HelloPayload, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		conn:  newConnection(logger),
		cfg:   cfg,
		hello: hello,
	}
}

// Connect dials the server, announces the session and waits for the ack.
func (p *Publisher) Connect() error {
	if err := p.conn.dial(p.cfg.URL, p.cfg.Secret); err != nil {
		return err
	}

	data, err := marshalEnvelope(stream.TypeHello, p.hello)
	if err != nil {
		return err
	}

	// Cache for reconnect replay.
	p.conn.mu.Lock()
	p.conn.cachedHelloMsg = data
	p.conn.mu.Unlock()

	return p.conn.sendAndWait(data, stream.TypeHello, ackTimeout)
}

// Close announces the session end and closes the connection.
func (p *Publisher) Close() error {
	err := p.sendEnvelopeAndWait(stream.TypeGoodbye, nil)

	p.conn.mu.Lock()
	p.conn.cachedHelloMsg = nil
	p.conn.mu.Unlock()

	if closeErr := p.conn.close(); closeErr != nil {
		return closeErr
	}
	return err
}

// PublishEvents sends one batch of view events. Fire-and-forget; an empty
// batch is skipped.
func (p *Publisher) PublishEvents(events []poi.ViewEvent) error {
	if len(events) == 0 {
		return nil
	}
	return p.sendEnvelope(stream.TypeViewEvents, stream.ViewEventsPayload{Events: events})
}

// PublishStatus sends a periodic engine health snapshot. Fire-and-forget.
func (p *Publisher) PublishStatus(status stream.StatusPayload) error {
	return p.sendEnvelope(stream.TypeStatus, status)
}

// Run drains the event journal at the given cadence until ctx is done.
// Events still queued at shutdown are flushed in a final batch.
func (p *Publisher) Run(ctx context.Context, events *queue.Queue[poi.ViewEvent], interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = p.PublishEvents(events.GetAndEmpty())
			return
		case <-ticker.C:
			if err := p.PublishEvents(events.GetAndEmpty()); err != nil {
				p.conn.logger.Warn("Failed to publish view events", "error", err)
			}
		}
	}
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	env := stream.Envelope{Type: msgType, Payload: raw}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// sendEnvelope marshals the payload into an Envelope and pushes it to the
// write loop (fire-and-forget).
func (p *Publisher) sendEnvelope(msgType string, payload any) error {
	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	p.conn.send(data)
	return nil
}

// sendEnvelopeAndWait marshals the payload and waits for a server ack.
func (p *Publisher) sendEnvelopeAndWait(msgType string, payload any) error {
	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	return p.conn.sendAndWait(data, msgType, ackTimeout)
}
