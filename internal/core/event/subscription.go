package event

// Subscription is the disposable handle returned by Connect. Disconnect stops
// delivery immediately, including for events already queued this tick.
type Subscription struct {
	bus       *Bus
	key       key
	id        uint64
	connected bool
	deliver   func(any)
}

// Disconnect stops delivery. Safe to call more than once and from inside the
// subscription's own handler.
func (s *Subscription) Disconnect() {
	if s == nil || !s.connected {
		return
	}
	s.connected = false
	s.bus.remove(s)
}

// Connected reports whether the subscription still receives events.
func (s *Subscription) Connected() bool {
	return s != nil && s.connected
}
