package content

// Emitter is anything events can be subscribed to and raised on.
type Emitter interface {
	On(name string, h Handler)
	Trigger(name string, ev Event)
}

// Relay is an emitter that carries the transient "bubbling upwards" flag used
// to stop an upward relay from being echoed straight back down.
type Relay interface {
	Emitter
	SetBubblingUpwards(v bool)
	BubblingUpwards() bool
}

// Dispatcher is a synchronous event emitter. Handlers run in registration
// order on the caller's goroutine. It is not safe for concurrent use; all
// access happens on the session loop.
type Dispatcher struct {
	handlers        map[string][]Handler
	bubblingUpwards bool
}

// NewDispatcher creates a dispatcher with no handlers.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string][]Handler),
	}
}

// On registers h for events named name.
func (d *Dispatcher) On(name string, h Handler) {
	if d.handlers == nil {
		d.handlers = make(map[string][]Handler)
	}
	d.handlers[name] = append(d.handlers[name], h)
}

// Trigger runs every handler registered for name. Handlers added while
// dispatching do not see the current event.
func (d *Dispatcher) Trigger(name string, ev Event) {
	if ev.Name == "" {
		ev.Name = name
	}
	hs := d.handlers[name]
	if len(hs) == 0 {
		return
	}
	snapshot := append([]Handler{}, hs...)
	for _, h := range snapshot {
		h(ev)
	}
}

// HandlerCount returns how many handlers are registered for name.
func (d *Dispatcher) HandlerCount(name string) int {
	return len(d.handlers[name])
}

// SetBubblingUpwards sets the relay flag.
func (d *Dispatcher) SetBubblingUpwards(v bool) {
	d.bubblingUpwards = v
}

// BubblingUpwards reports whether an upward relay is in progress.
func (d *Dispatcher) BubblingUpwards() bool {
	return d.bubblingUpwards
}
