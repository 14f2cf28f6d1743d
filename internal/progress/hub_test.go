package progress

import (
	"context"
	"sync"
	"testing"
	"time"
)

// captureSink records consumed batches; consuming can optionally block until
// released so tests can force backpressure.
type captureSink struct {
	mu       sync.Mutex
	events   []Event
	closed   bool
	started  chan struct{}
	release  chan struct{}
	blocking bool
}

func newCaptureSink() *captureSink {
	return &captureSink{
		started: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
}

func (s *captureSink) Consume(_ context.Context, batch []Event) error {
	if s.blocking {
		s.started <- struct{}{}
		<-s.release
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, batch...)
	return nil
}

func (s *captureSink) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *captureSink) snapshot() ([]Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...), s.closed
}

func TestHubDeliversEventsOnClose(t *testing.T) {
	t.Parallel()

	sink := newCaptureSink()
	hub := NewHub(Config{MaxBatchWait: time.Hour}, sink) // flush only via Close

	for i := 0; i < 5; i++ {
		hub.Emit(validEvent(StageCycleSkip))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := hub.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	events, closed := sink.snapshot()
	if len(events) != 5 {
		t.Fatalf("sink received %d events, want 5", len(events))
	}
	if !closed {
		t.Fatal("sink was not closed")
	}
	if hub.Dropped() != 0 {
		t.Fatalf("Dropped() = %d, want 0", hub.Dropped())
	}
}

func TestHubDiscardsInvalidEvents(t *testing.T) {
	t.Parallel()

	sink := newCaptureSink()
	hub := NewHub(Config{}, sink)

	hub.Emit(Event{}) // invalid: no cycle id
	hub.Emit(validEvent(StageCycleDispatch))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := hub.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	events, _ := sink.snapshot()
	if len(events) != 1 {
		t.Fatalf("sink received %d events, want 1", len(events))
	}
}

func TestHubDropsUnderBackpressure(t *testing.T) {
	t.Parallel()

	sink := newCaptureSink()
	sink.blocking = true
	hub := NewHub(Config{BufferSize: 1, MaxBatchEvents: 1}, sink)

	// First event reaches the sink, which stalls mid-flush.
	hub.Emit(validEvent(StageCycleSkip))
	select {
	case <-sink.started:
	case <-time.After(5 * time.Second):
		t.Fatal("sink never started consuming")
	}

	// The buffer holds one more; everything past that is dropped.
	hub.Emit(validEvent(StageCycleSkip))
	hub.Emit(validEvent(StageCycleSkip))
	hub.Emit(validEvent(StageCycleSkip))
	if hub.Dropped() == 0 {
		t.Fatal("expected drops under backpressure")
	}

	// A closed release channel unblocks this and every later flush.
	close(sink.release)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := hub.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestHubEmitAfterCloseIsSafe(t *testing.T) {
	t.Parallel()

	hub := NewHub(Config{}, newCaptureSink())
	if err := hub.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	hub.Emit(validEvent(StageCycleSkip)) // must not panic
	if err := hub.Close(context.Background()); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
}

func TestNilHubIsSafe(t *testing.T) {
	t.Parallel()

	var hub *Hub
	hub.Emit(validEvent(StageCycleSkip))
	if err := hub.Close(context.Background()); err != nil {
		t.Fatalf("Close() on nil hub error = %v", err)
	}
}
