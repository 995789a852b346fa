// Package stream implements the streaming sender described in spec.md
// §4.6/§5/§9: an optional, non-blocking sink the evaluator emits
// SenderEvents to as a turn runs, so a host can surface partial output
// (messages, holds, errors) before the turn completes.
//
// Adapted from the teacher's pkg/audio/drain.go non-blocking-drain pattern
// and pkg/audio/mixer/mixer.go's notify/dispatch goroutine shape, simplified
// to plain FIFO delivery: spec.md §5 requires message order be preserved,
// so there is no priority queue or barge-in preemption here, only a
// buffered channel that Send writes to directly, with no goroutine of its
// own.
package stream

import (
	"sync"

	"github.com/csml-lang/interpreter/internal/evaluator"
)

// defaultBufferSize is the channel capacity used when callers don't request
// a specific size via [WithBufferSize].
const defaultBufferSize = 64

// Option configures a [Sender] during construction.
type Option func(*config)

type config struct {
	bufferSize int
}

// WithBufferSize sets the channel's buffer capacity. Events enqueued beyond
// this capacity are dropped rather than blocking the evaluator, per spec.md
// §9's "the evaluator must be correct when the sink is absent" — a slow or
// stalled receiver must degrade to a dropped event, never a stuck turn.
func WithBufferSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.bufferSize = n
		}
	}
}

// Sender is a non-blocking, order-preserving [evaluator.Sender]. Send never
// blocks the caller: once the internal buffer is full, further events are
// dropped and counted rather than applying backpressure to the turn that
// produced them. Close is idempotent and safe to call from any goroutine;
// after Close, Send is a no-op.
type Sender struct {
	events chan evaluator.SenderEvent

	mu      sync.Mutex
	closed  bool
	dropped uint64
}

// Compile-time interface assertion.
var _ evaluator.Sender = (*Sender)(nil)

// New creates a ready-to-use Sender. Events written via Send are available
// for reading from [Sender.Events] in the order they were sent.
func New(opts ...Option) *Sender {
	cfg := config{bufferSize: defaultBufferSize}
	for _, o := range opts {
		o(&cfg)
	}
	return &Sender{events: make(chan evaluator.SenderEvent, cfg.bufferSize)}
}

// Send enqueues ev without blocking. If the buffer is full, ev is silently
// dropped and Dropped's count increments; if the Sender is closed, ev is
// discarded without being counted.
func (s *Sender) Send(ev evaluator.SenderEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	select {
	case s.events <- ev:
	default:
		s.dropped++
	}
}

// Events returns the channel events are delivered on; [Sender.Close] closes
// it. Send never blocks, so a channel nobody reads stalls no producer: once
// its buffer is full, further events are dropped.
func (s *Sender) Events() <-chan evaluator.SenderEvent {
	return s.events
}

// Close stops further delivery and closes the Events channel. Calling
// Close more than once is a no-op.
func (s *Sender) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.events)
}

// Dropped returns the number of events dropped because the buffer was full.
// Events sent after Close are not counted.
func (s *Sender) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Drain reads from ch until it is closed, discarding all events. Use this
// when a caller holds a Sender's Events channel but doesn't need the
// events — adapted directly from the teacher's audio.Drain.
func Drain(ch <-chan evaluator.SenderEvent) {
	for range ch {
	}
}
