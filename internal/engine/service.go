package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/skylens/aroverlay/internal/channel"
	"github.com/skylens/aroverlay/internal/queue"
	"github.com/skylens/aroverlay/pkg/poi"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/skylens/aroverlay/internal/engine"

// commandBufferSize bounds how many queued commands a slow layout pass can
// fall behind before senders block (or heading samples get dropped).
const commandBufferSize = 256

// Service owns the engine goroutine. All mutating calls are marshaled
// into closures executed by the run loop, which upholds the engine's
// single-writer discipline without locks on the layout path.
type Service struct {
	engine *Engine
	logger *slog.Logger

	cmds *channel.Buffered[func(*Engine)]

	mu       sync.RWMutex
	stats    Stats
	running  bool
	stopChan chan struct{}
	done     chan struct{}

	commandsProcessed metric.Int64Counter
	headingDropped    metric.Int64Counter
}

// NewService wraps an engine in its single-goroutine command loop. A nil
// logger falls back to slog.Default().
func NewService(eng *Engine, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		engine: eng,
		logger: logger,
		cmds:   channel.NewBuffered[func(*Engine)](commandBufferSize),
	}

	m := otel.GetMeterProvider().Meter(instrumentationName)
	s.commandsProcessed, _ = m.Int64Counter(
		"engine.commands.processed",
		metric.WithDescription("Total engine commands executed"),
	)
	s.headingDropped, _ = m.Int64Counter(
		"engine.heading.dropped",
		metric.WithDescription("Heading samples dropped because the command buffer was full"),
	)

	return s
}

// Start launches the engine goroutine. Calling Start on a running service
// is a no-op.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stopChan, done := s.stopChan, s.done
	s.mu.Unlock()

	go s.run(ctx, stopChan, done)
}

// Stop shuts the engine goroutine down and waits for it to drain the
// command in flight. Safe to call twice.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()

	<-done
}

func (s *Service) run(ctx context.Context, stopChan, done chan struct{}) {
	defer close(done)
	s.logger.Debug("engine goroutine started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("engine goroutine stopping", "reason", ctx.Err())
			return
		case <-stopChan:
			s.logger.Debug("engine goroutine stopping")
			return
		case cmd := <-s.cmds.Receive():
			cmd(s.engine)
			s.commandsProcessed.Add(ctx, 1)
			s.publishStats()
		}
	}
}

// publishStats refreshes the snapshot readers see. Runs on the engine
// goroutine after every command.
func (s *Service) publishStats() {
	stats := s.engine.Stats()
	s.mu.Lock()
	s.stats = stats
	s.mu.Unlock()
}

// Stats returns the snapshot taken after the most recent command.
func (s *Service) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// Events exposes the engine's view event journal. The queue is safe for
// concurrent draining.
func (s *Service) Events() *queue.Queue[poi.ViewEvent] { return s.engine.Events() }

// SetAnnotations replaces the working set on the engine goroutine.
func (s *Service) SetAnnotations(list []poi.Annotation) {
	s.cmds.Send(func(e *Engine) { e.SetAnnotations(list) })
}

// ReloadAnnotations requests a full reload.
func (s *Service) ReloadAnnotations() {
	s.cmds.Send(func(e *Engine) { e.ReloadAnnotations() })
}

// SetUserLocation forwards a location fix.
func (s *Service) SetUserLocation(loc poi.Location) {
	s.cmds.Send(func(e *Engine) { e.SetUserLocation(loc) })
}

// HeadingTick forwards one compass sample. When the command buffer is
// full the sample is dropped rather than stalling the sensor feed; the
// next sample supersedes it anyway.
func (s *Service) HeadingTick(raw float64) {
	if !s.cmds.TrySend(func(e *Engine) { e.HeadingTick(raw) }) {
		s.headingDropped.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("reason", "buffer_full")))
	}
}

// SetMaxVerticalLevel applies the cap on the engine goroutine.
func (s *Service) SetMaxVerticalLevel(n int) {
	s.cmds.Send(func(e *Engine) { e.SetMaxVerticalLevel(n) })
}

// SetMaxVisibleAnnotations applies the cap on the engine goroutine.
func (s *Service) SetMaxVisibleAnnotations(n int) {
	s.cmds.Send(func(e *Engine) { e.SetMaxVisibleAnnotations(n) })
}

// SetMaxDistance applies the distance cap on the engine goroutine.
func (s *Service) SetMaxDistance(meters float64) {
	s.cmds.Send(func(e *Engine) { e.SetMaxDistance(meters) })
}

// SetHeadingSmoothingFactor applies the low-pass factor on the engine
// goroutine.
func (s *Service) SetHeadingSmoothingFactor(factor float64) {
	s.cmds.Send(func(e *Engine) { e.SetHeadingSmoothingFactor(factor) })
}
