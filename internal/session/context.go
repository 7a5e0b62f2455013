// Package session holds the authenticated identity of the dashboard and
// broadcasts its sign-in/sign-out transitions.
package session

import (
	"sync"

	"skillmatch/internal/models"
)

type EventKind string

const (
	SignedIn  EventKind = "signed_in"
	SignedOut EventKind = "signed_out"
)

type Event struct {
	Kind     EventKind
	Identity models.Identity
}

// Provider is the read-only view of the session the dashboard consumes.
type Provider interface {
	Current() (models.Identity, bool)
	Subscribe() (<-chan Event, func())
}

// Context is an in-process session. Every subscriber receives every
// transition in order; a slow subscriber queues them instead of missing any.
type Context struct {
	mu       sync.Mutex
	identity *models.Identity
	nextID   int
	subs     map[int]*subscriber
}

func NewContext() *Context {
	return &Context{subs: make(map[int]*subscriber)}
}

func (c *Context) Current() (models.Identity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity == nil {
		return models.Identity{}, false
	}
	return *c.identity, true
}

// Subscribe returns an event channel and a cancel func. After cancel returns
// no further events are delivered and the channel is closed.
func (c *Context) Subscribe() (<-chan Event, func()) {
	sub := newSubscriber()

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = sub
	c.mu.Unlock()

	go sub.pump()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
			sub.stop()
		})
	}
	return sub.out, cancel
}

func (c *Context) SignIn(identity models.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.identity = &identity
	c.broadcast(Event{Kind: SignedIn, Identity: identity})
}

func (c *Context) SignOut() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity == nil {
		return
	}
	prev := *c.identity
	c.identity = nil
	c.broadcast(Event{Kind: SignedOut, Identity: prev})
}

// broadcast must be called with c.mu held.
func (c *Context) broadcast(ev Event) {
	for _, sub := range c.subs {
		sub.enqueue(ev)
	}
}

// subscriber forwards queued events to out from its own goroutine so a
// transition never blocks on, or is dropped by, a busy consumer.
type subscriber struct {
	mu      sync.Mutex
	queue   []Event
	wake    chan struct{}
	done    chan struct{}
	stopped chan struct{}
	out     chan Event
}

func newSubscriber() *subscriber {
	return &subscriber{
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		out:     make(chan Event),
	}
}

func (s *subscriber) enqueue(ev Event) {
	s.mu.Lock()
	s.queue = append(s.queue, ev)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) next() (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return Event{}, false
	}
	ev := s.queue[0]
	s.queue = s.queue[1:]
	return ev, true
}

func (s *subscriber) pump() {
	defer close(s.stopped)
	for {
		ev, ok := s.next()
		if !ok {
			select {
			case <-s.wake:
				continue
			case <-s.done:
				return
			}
		}
		select {
		case s.out <- ev:
		case <-s.done:
			return
		}
	}
}

// stop ends delivery and closes out once the pump has exited.
func (s *subscriber) stop() {
	close(s.done)
	<-s.stopped
	close(s.out)
}
