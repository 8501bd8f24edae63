// Package selection is a shared channel that widgets use to tell each other
// which items the user picked.
package selection

import "sync"

// Event names the selected items.
type Event struct {
	ItemIDs []string
}

// Coordinator fans selection events out to every listener except the one
// that fired them.
type Coordinator struct {
	mu        sync.Mutex
	next      int
	listeners []*Listener
}

func New() *Coordinator {
	return &Coordinator{}
}

// Listener is one widget's handle on a Coordinator.
type Listener struct {
	c  *Coordinator
	id int
	fn func(Event)
}

// AddListener subscribes fn. Listeners are notified in subscription order.
func (c *Coordinator) AddListener(fn func(Event)) *Listener {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next++
	l := &Listener{c: c, id: c.next, fn: fn}
	c.listeners = append(c.listeners, l)
	return l
}

// Len is the number of live listeners.
func (c *Coordinator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.listeners)
}

// Fire delivers e to every other listener of the coordinator.
func (l *Listener) Fire(e Event) {
	l.c.mu.Lock()
	targets := make([]*Listener, 0, len(l.c.listeners))
	for _, o := range l.c.listeners {
		if o.id != l.id {
			targets = append(targets, o)
		}
	}
	l.c.mu.Unlock()
	for _, o := range targets {
		if o.fn != nil {
			o.fn(e)
		}
	}
}

// Dispose unsubscribes l. Disposing twice is a no-op.
func (l *Listener) Dispose() {
	l.c.mu.Lock()
	defer l.c.mu.Unlock()
	for i, o := range l.c.listeners {
		if o.id == l.id {
			l.c.listeners = append(l.c.listeners[:i], l.c.listeners[i+1:]...)
			return
		}
	}
}
