package behavior

import (
	"github.com/arenakit/arena/internal/core/ecs"
	"github.com/arenakit/arena/internal/core/event"
	"github.com/arenakit/arena/internal/host"
	"go.uber.org/zap"
)

// Channel is one host callback stream an adapter subscribes to.
type Channel uint8

const (
	ChannelUpdate Channel = iota
	ChannelGrabStart
	ChannelGrabEnd
	ChannelCollision
	channelCount
)

var channelNames = [channelCount]string{"update", "grab_start", "grab_end", "collision"}

func (c Channel) String() string {
	if c < channelCount {
		return channelNames[c]
	}
	return "unknown"
}

// State is the adapter lifecycle. Transitions are linear.
type State uint8

const (
	StateConstructed State = iota
	StateInitialized
	StateRunning
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateConstructed:
		return "constructed"
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	case StateDisposed:
		return "disposed"
	}
	return "unknown"
}

// Hooks is what a behavior overrides. Embed Base to inherit the defaults.
type Hooks interface {
	Behavior
	Setup(a *Adapter)
	Update(a *Adapter, ev host.TickEvent)
	GrabStart(a *Adapter, ev host.GrabStartEvent)
	GrabEnd(a *Adapter, ev host.GrabEndEvent)
	Collide(a *Adapter, ev host.CollisionEvent)
	Teardown(a *Adapter)
}

// Base provides default hooks. Every default input hook disconnects its own
// channel, so an unused channel costs one delivery and nothing after.
type Base struct {
	handle ecs.EntityID
}

func NewBase(h ecs.EntityID) Base { return Base{handle: h} }

func (b *Base) Handle() ecs.EntityID { return b.handle }

func (b *Base) Setup(*Adapter) {}

func (b *Base) Update(a *Adapter, _ host.TickEvent) { a.Release(ChannelUpdate) }

func (b *Base) GrabStart(a *Adapter, _ host.GrabStartEvent) { a.Release(ChannelGrabStart) }

func (b *Base) GrabEnd(a *Adapter, _ host.GrabEndEvent) { a.Release(ChannelGrabEnd) }

func (b *Base) Collide(a *Adapter, _ host.CollisionEvent) { a.Release(ChannelCollision) }

func (b *Base) Teardown(*Adapter) {}

// Adapter drives one behavior through Constructed -> Initialized -> Running
// -> Disposed and owns its channel subscriptions.
//
// After each delivery a channel is disconnected unless the behavior asked to
// Keep it. An overridden hook that never calls Keep therefore receives
// exactly one event, the same as the default hook.
type Adapter struct {
	hooks     Hooks
	reg       *Registry
	bus       *event.Bus
	log       *zap.Logger
	state     State
	subs      [channelCount]*event.Subscription
	keep      [channelCount]bool
	delivered [channelCount]uint64
}

func NewAdapter(hooks Hooks, reg *Registry, bus *event.Bus, log *zap.Logger) *Adapter {
	return &Adapter{hooks: hooks, reg: reg, bus: bus, log: log}
}

func (a *Adapter) Handle() ecs.EntityID { return a.hooks.Handle() }
func (a *Adapter) State() State         { return a.state }
func (a *Adapter) Registry() *Registry  { return a.reg }

// Init registers the behavior under its handle and runs the Setup hook.
func (a *Adapter) Init() bool {
	if !a.advance(StateConstructed, StateInitialized) {
		return false
	}
	a.reg.Register(a.Handle(), a.hooks)
	a.hooks.Setup(a)
	return true
}

// Start connects the four callback channels.
func (a *Adapter) Start() bool {
	if !a.advance(StateInitialized, StateRunning) {
		return false
	}
	h := a.Handle()
	a.subs[ChannelUpdate] = event.Connect(a.bus, 0, func(ev host.TickEvent) {
		a.deliver(ChannelUpdate, func() { a.hooks.Update(a, ev) })
	})
	a.subs[ChannelGrabStart] = event.Connect(a.bus, h, func(ev host.GrabStartEvent) {
		a.deliver(ChannelGrabStart, func() { a.hooks.GrabStart(a, ev) })
	})
	a.subs[ChannelGrabEnd] = event.Connect(a.bus, h, func(ev host.GrabEndEvent) {
		a.deliver(ChannelGrabEnd, func() { a.hooks.GrabEnd(a, ev) })
	})
	a.subs[ChannelCollision] = event.Connect(a.bus, h, func(ev host.CollisionEvent) {
		a.deliver(ChannelCollision, func() { a.hooks.Collide(a, ev) })
	})
	return true
}

// Dispose disconnects every channel and runs the Teardown hook.
func (a *Adapter) Dispose() {
	if a.state == StateDisposed {
		return
	}
	prev := a.state
	a.state = StateDisposed
	for ch := Channel(0); ch < channelCount; ch++ {
		a.subs[ch].Disconnect()
		a.keep[ch] = false
	}
	// Setup never ran, so there is nothing to tear down.
	if prev == StateConstructed {
		a.log.Warn("behavior disposed before init",
			zap.Uint64("handle", uint64(a.Handle())),
		)
		return
	}
	a.hooks.Teardown(a)
}

// Keep marks ch as persistent: deliveries no longer disconnect it. Usually
// called from Setup by behaviors that override the matching hook.
func (a *Adapter) Keep(ch Channel) {
	if ch < channelCount {
		a.keep[ch] = true
	}
}

// Release disconnects ch. It cannot be reconnected.
func (a *Adapter) Release(ch Channel) {
	if ch >= channelCount {
		return
	}
	a.keep[ch] = false
	a.subs[ch].Disconnect()
}

// Connected reports whether ch still delivers events.
func (a *Adapter) Connected(ch Channel) bool {
	return ch < channelCount && a.subs[ch].Connected()
}

// Delivered returns how many events ch has delivered.
func (a *Adapter) Delivered(ch Channel) uint64 {
	if ch >= channelCount {
		return 0
	}
	return a.delivered[ch]
}

func (a *Adapter) deliver(ch Channel, call func()) {
	if a.state != StateRunning {
		return
	}
	a.delivered[ch]++
	call()
	if !a.keep[ch] {
		a.subs[ch].Disconnect()
	}
}

func (a *Adapter) advance(from, to State) bool {
	if a.state != from {
		a.log.Warn("behavior lifecycle out of order",
			zap.Uint64("handle", uint64(a.Handle())),
			zap.Stringer("state", a.state),
			zap.Stringer("want", to),
		)
		return false
	}
	a.state = to
	return true
}
