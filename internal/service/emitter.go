package service

import "context"

// ─────────────────────────────────────────────────────────────
// EventEmitter: decouples the editor from its hosts
// ─────────────────────────────────────────────────────────────

// EventEmitter notifies a host that the flow changed. The desktop host
// forwards to wailsRuntime.EventsEmit, the terminal host wakes its render
// loop, and tests record calls with MockEmitter.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// EmitterFunc adapts a plain function to EventEmitter.
type EmitterFunc func(ctx context.Context, event string, data any)

func (f EmitterFunc) Emit(ctx context.Context, event string, data any) { f(ctx, event, data) }

// MockEmitter is a test-friendly EventEmitter that records all calls.
type MockEmitter struct {
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Count returns how many times event was emitted.
func (m *MockEmitter) Count(event string) int {
	n := 0
	for _, e := range m.Events {
		if e.Event == event {
			n++
		}
	}
	return n
}
