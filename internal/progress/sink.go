package progress

import "context"

// Sink consumes batches of events. Implementations must honor ctx deadlines
// and tolerate repeated Close calls.
type Sink interface {
	Consume(ctx context.Context, batch []Event) error
	Close(ctx context.Context) error
}

// Emitter publishes individual events. Hub satisfies it, so the scheduler can
// stay agnostic about buffering and fan-out.
type Emitter interface {
	Emit(evt Event)
}

// Nop is an Emitter that discards everything, for tests and wiring without
// observability.
type Nop struct{}

// Emit discards the event.
func (Nop) Emit(Event) {}
