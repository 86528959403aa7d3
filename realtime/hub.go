package realtime

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/whisky55/rede-social/utils"
)

var (
	ErrSlowConsumer = errors.New("subscriber is too slow, resubscribe and resync")
	ErrHubClosed    = errors.New("hub closed")
)

const DefaultBuffer = 64

// Hub diffuse les événements aux abonnés du processus.
//
// Pour chaque document, seuls les événements de version strictement croissante sont
// diffusés: un doublon (relais Redis, double publication) ou un événement dépassé par
// un commit plus récent est ignoré. Les abonnés voient donc les changements d'un même
// post dans l'ordre des commits.
type Hub struct {
	mu      sync.Mutex
	subs    map[uint64]*Subscription
	nextID  uint64
	last    map[string]int64
	buffer  int
	closed  bool
	forward func(Event)
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		subs:   make(map[uint64]*Subscription),
		last:   make(map[string]int64),
		buffer: buffer,
	}
}

// SetForwarder branche un relais appelé pour chaque événement publié localement
func (h *Hub) SetForwarder(fn func(Event)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.forward = fn
}

// Publish diffuse un événement né dans ce processus
func (h *Hub) Publish(e Event) {
	if h.deliver(e) {
		h.mu.Lock()
		forward := h.forward
		h.mu.Unlock()
		if forward != nil {
			forward(e)
		}
	}
}

// Inject diffuse un événement reçu d'une autre instance, sans le relayer à nouveau
func (h *Hub) Inject(e Event) {
	h.deliver(e)
}

func (h *Hub) deliver(e Event) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	key := e.key()
	if e.Version <= h.last[key] {
		return false
	}
	h.last[key] = e.Version

	for _, sub := range h.subs {
		if !sub.filter.Match(e) {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			utils.Logger.WithFields(logrus.Fields{
				"source":          "realtime",
				"subscription_id": sub.id,
			}).Warn("Dropping slow subscriber")
			h.removeLocked(sub, ErrSlowConsumer)
		}
	}
	return true
}

func (h *Hub) Subscribe(f Filter) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &Subscription{
		id:     h.nextID,
		filter: f,
		ch:     make(chan Event, h.buffer),
		hub:    h,
	}
	if h.closed {
		sub.err = ErrHubClosed
		sub.closed = true
		close(sub.ch)
		return sub
	}
	h.subs[sub.id] = sub
	return sub
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close termine tous les abonnements
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, sub := range h.subs {
		h.removeLocked(sub, ErrHubClosed)
	}
}

func (h *Hub) removeLocked(sub *Subscription, err error) {
	if sub.closed {
		return
	}
	sub.closed = true
	sub.err = err
	delete(h.subs, sub.id)
	close(sub.ch)
}

// Subscription est un flux d'événements. Close est idempotent et libère
// immédiatement l'enregistrement côté hub.
type Subscription struct {
	id     uint64
	filter Filter
	ch     chan Event
	hub    *Hub

	// protégés par hub.mu
	closed bool
	err    error
}

func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Err indique pourquoi le flux a été fermé par le hub (nil après un Close du client)
func (s *Subscription) Err() error {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	return s.err
}

func (s *Subscription) Close() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	s.hub.removeLocked(s, nil)
}
