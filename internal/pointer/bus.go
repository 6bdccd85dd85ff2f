// Package pointer provides a process-wide stream of pointer-down events.
//
// Components that need outside-click detection subscribe when they become
// active and unsubscribe when they go away. The newest subscriber sees an
// event first and may stop it from reaching older subscribers and the rest
// of the program.
package pointer

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// Event wraps a pointer-down mouse message
type Event struct {
	Msg     tea.MouseMsg
	stopped bool
}

// StopPropagation keeps the event from older subscribers and the caller's
// own routing.
func (e *Event) StopPropagation() {
	e.stopped = true
}

// Stopped reports whether a handler stopped the event
func (e *Event) Stopped() bool {
	return e.stopped
}

// Handler reacts to a pointer-down event
type Handler func(ev *Event) tea.Cmd

// Bus fans pointer-down events out to subscribers
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   []subscriber
}

type subscriber struct {
	id      int
	handler Handler
}

// Subscription is returned by Subscribe
type Subscription struct {
	bus  *Bus
	id   int
	once sync.Once
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers h and returns the handle used to remove it
func (b *Bus) Subscribe(h Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.subs = append(b.subs, subscriber{id: b.nextID, handler: h})
	return &Subscription{bus: b, id: b.nextID}
}

// Unsubscribe removes the handler. Calling it more than once is a no-op.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.bus.remove(s.id)
	})
}

func (b *Bus) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subs {
		if sub.id == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Len returns the number of live subscribers
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Publish delivers msg newest subscriber first. It returns the batched
// commands of the handlers and whether one of them stopped the event.
// Releases, motion and wheel events are ignored.
func (b *Bus) Publish(msg tea.MouseMsg) (tea.Cmd, bool) {
	if msg.Action != tea.MouseActionPress || tea.MouseEvent(msg).IsWheel() {
		return nil, false
	}

	// Handlers may unsubscribe while the event is being delivered
	b.mu.Lock()
	subs := make([]subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	ev := &Event{Msg: msg}
	var cmds []tea.Cmd
	for i := len(subs) - 1; i >= 0; i-- {
		if cmd := subs[i].handler(ev); cmd != nil {
			cmds = append(cmds, cmd)
		}
		if ev.stopped {
			break
		}
	}

	return tea.Batch(cmds...), ev.stopped
}
