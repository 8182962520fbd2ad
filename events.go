package verusconnect

import "sync"

// Event names a point in the login/send lifecycle
type Event string

const (
	EventLoginStart   Event = "login:start"
	EventLoginSuccess Event = "login:success"
	EventLoginError   Event = "login:error"
	EventLoginCancel  Event = "login:cancel"

	EventSendStart   Event = "send:start"
	EventSendSuccess Event = "send:success"
	EventSendError   Event = "send:error"

	EventSurfaceOpen  Event = "surface:open"
	EventSurfaceClose Event = "surface:close"

	// EventProviderDetected fires once per login with the resolved Environment
	EventProviderDetected Event = "provider:detected"
)

// Listener receives lifecycle event payloads
type Listener func(data any)

// emitter is a minimal synchronous event dispatcher
type emitter struct {
	mu        sync.Mutex
	listeners map[Event]map[int]Listener
	nextID    int
}

// on registers a listener and returns its removal function
func (e *emitter) on(event Event, listener Listener) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.listeners == nil {
		e.listeners = make(map[Event]map[int]Listener)
	}
	if e.listeners[event] == nil {
		e.listeners[event] = make(map[int]Listener)
	}

	id := e.nextID
	e.nextID++
	e.listeners[event][id] = listener

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.listeners[event], id)
	}
}

func (e *emitter) emit(event Event, data any) {
	e.mu.Lock()
	fns := make([]Listener, 0, len(e.listeners[event]))
	for _, fn := range e.listeners[event] {
		fns = append(fns, fn)
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn(data)
	}
}

func (e *emitter) clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = nil
}
