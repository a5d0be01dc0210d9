package editor

import "sync"

// PointerHandlers receive the pointer stream while a drag owns the pointer
type PointerHandlers struct {
	Move func(x float64)
	Up   func()
}

// PointerSource delivers document-level pointer move and release events.
// Handlers are only registered for the lifetime of one drag: Capture installs
// them and the returned release func removes them. Capture must not invoke the
// handlers synchronously.
type PointerSource interface {
	Capture(h PointerHandlers) (release func())
}

// Dispatcher is a PointerSource fed by the host. Hosts forward raw move and
// release events to it and it routes them to whichever drag holds the capture.
// Capture is exclusive: a new capture replaces the previous one.
type Dispatcher struct {
	mu       sync.Mutex
	handlers *PointerHandlers
	token    uint64
}

// NewDispatcher creates a dispatcher with no capture
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Capture implements PointerSource
func (d *Dispatcher) Capture(h PointerHandlers) func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.token++
	token := d.token
	d.handlers = &h

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.token == token {
			d.handlers = nil
		}
	}
}

// Captured reports whether any handlers are registered
func (d *Dispatcher) Captured() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.handlers != nil
}

// Move forwards a pointer move. It returns false when nothing holds the capture.
func (d *Dispatcher) Move(x float64) bool {
	h := d.current()
	if h == nil || h.Move == nil {
		return false
	}
	h.Move(x)
	return true
}

// Up forwards a pointer release. It returns false when nothing holds the capture.
func (d *Dispatcher) Up() bool {
	h := d.current()
	if h == nil || h.Up == nil {
		return false
	}
	h.Up()
	return true
}

func (d *Dispatcher) current() *PointerHandlers {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.handlers
}
