package events

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// ErrStreamClosed is returned when an event is emitted after a terminal event.
var ErrStreamClosed = errors.New("event stream already terminated")

// Sink receives generation events in order.
type Sink interface {
	Emit(ctx context.Context, evt Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, evt Event) error

func (f SinkFunc) Emit(ctx context.Context, evt Event) error {
	return f(ctx, evt)
}

// Guard wraps a sink and refuses anything after the first terminal event.
type Guard struct {
	mu     sync.Mutex
	next   Sink
	closed bool
}

func NewGuard(next Sink) *Guard {
	return &Guard{next: next}
}

func (g *Guard) Emit(ctx context.Context, evt Event) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrStreamClosed
	}
	if evt.Type.IsTerminal() {
		g.closed = true
	}
	return g.next.Emit(ctx, evt)
}

// Closed reports whether a terminal event has passed through.
func (g *Guard) Closed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(_ context.Context, evt Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the recorded event types in order.
func (r *Recorder) Types() []EventType {
	evts := r.Events()
	out := make([]EventType, len(evts))
	for i, e := range evts {
		out[i] = e.Type
	}
	return out
}

// Fanout delivers to a primary sink and then to best-effort observers.
// Only the primary sink's error is returned; observer failures are logged.
type Fanout struct {
	primary   Sink
	observers []Sink
	logger    *zerolog.Logger
}

func NewFanout(logger *zerolog.Logger, primary Sink, observers ...Sink) *Fanout {
	return &Fanout{primary: primary, observers: observers, logger: logger}
}

func (f *Fanout) Emit(ctx context.Context, evt Event) error {
	err := f.primary.Emit(ctx, evt)
	for _, o := range f.observers {
		if oerr := o.Emit(ctx, evt); oerr != nil && f.logger != nil {
			f.logger.Warn().Err(oerr).Str("event", string(evt.Type)).Msg("event observer failed")
		}
	}
	return err
}
