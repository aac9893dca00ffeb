//go:generate mockgen -destination ./mock/events.go . Notifier
package events

import (
	"sync"

	"golang.org/x/exp/slices"
)

const (
	Start            = "Start"
	Stop             = "Stop"
	CountdownTimeout = "Countdown/timeout"
)

// Payload is delivered to handlers. Start carries the zero value, Stop carries
// the total elapsed milliseconds in MS. Countdown/timeout carries the charged
// milliseconds in MS and the raw elapsed milliseconds since the countdown
// origin in RealMS.
type Payload struct {
	MS     float64
	RealMS float64
}

type Handler func(Payload)

type Notifier interface {
	// Subscribe registers h for name. Handlers run in registration order.
	Subscribe(name string, h Handler)
	// Publish synchronously invokes every handler registered for name.
	Publish(name string, p Payload)
	// Clear drops every subscription for every name.
	Clear()
}

var _ Notifier = (*Bus)(nil)

// Bus is an in-process Notifier scoped to a single instrument.
type Bus struct {
	mu   sync.Mutex
	subs map[string][]Handler
}

func NewBus() *Bus {
	return &Bus{subs: map[string][]Handler{}}
}

func (b *Bus) Subscribe(name string, h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[name] = append(b.subs[name], h)
}

func (b *Bus) Publish(name string, p Payload) {
	// Handlers may subscribe or publish, so they run on a snapshot and
	// without the lock.
	b.mu.Lock()
	handlers := slices.Clone(b.subs[name])
	b.mu.Unlock()

	for _, h := range handlers {
		h(p)
	}
}

func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = map[string][]Handler{}
}

// Len returns the number of handlers subscribed to name.
func (b *Bus) Len(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[name])
}
