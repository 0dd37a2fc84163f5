package realtime

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrHubClosed is returned by Publish after Close.
var ErrHubClosed = errors.New("realtime hub closed")

const (
	// Buffer size for each subscriber's stream.
	subscriberBuffer = 64

	// Buffer size for the hub's inbound queue.
	broadcastBuffer = 256
)

type subscriber struct {
	id   string
	pred Predicate
	ch   chan Event
}

// Hub owns the subscriber set for one process. A single goroutine (run)
// adds, removes and delivers; all other methods talk to it over channels.
type Hub struct {
	subs  map[*subscriber]struct{}
	count int
	mu    sync.RWMutex // guards count for SubscriberCount
	log   *zap.Logger

	register   chan *subscriber
	unregister chan *subscriber
	broadcast  chan Event
	done       chan struct{}
	closeOnce  sync.Once
}

// NewHub creates a hub and starts its event loop.
func NewHub(logger *zap.Logger) *Hub {
	h := &Hub{
		subs:       make(map[*subscriber]struct{}),
		log:        logger,
		register:   make(chan *subscriber),
		unregister: make(chan *subscriber),
		broadcast:  make(chan Event, broadcastBuffer),
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case s := <-h.register:
			h.subs[s] = struct{}{}
			h.setCount(len(h.subs))
			h.log.Debug("realtime subscriber registered",
				zap.String("subscriber", s.id),
				zap.Int("total", len(h.subs)))

		case s := <-h.unregister:
			if _, ok := h.subs[s]; ok {
				delete(h.subs, s)
				close(s.ch)
				h.setCount(len(h.subs))
				h.log.Debug("realtime subscriber unregistered",
					zap.String("subscriber", s.id),
					zap.Int("total", len(h.subs)))
			}

		case ev := <-h.broadcast:
			dropped := 0
			for s := range h.subs {
				if s.pred != nil && !s.pred(ev) {
					continue
				}
				select {
				case s.ch <- ev:
				default:
					dropped++
				}
			}
			if dropped > 0 {
				h.log.Warn("realtime event dropped for slow subscribers",
					zap.String("collection", ev.Collection),
					zap.String("doc_id", ev.DocID),
					zap.Int("dropped", dropped))
			}

		case <-h.done:
			for s := range h.subs {
				close(s.ch)
				delete(h.subs, s)
			}
			h.setCount(0)
			return
		}
	}
}

func (h *Hub) setCount(n int) {
	h.mu.Lock()
	h.count = n
	h.mu.Unlock()
}

// Subscribe returns a stream of events matching pred (nil matches all) and
// a cancel func. Cancel is idempotent and closes the stream. After Close
// the returned stream is already closed.
func (h *Hub) Subscribe(pred Predicate) (<-chan Event, func()) {
	s := &subscriber{id: uuid.NewString(), pred: pred, ch: make(chan Event, subscriberBuffer)}

	select {
	case h.register <- s:
	case <-h.done:
		close(s.ch)
		return s.ch, func() {}
	}

	var once sync.Once
	return s.ch, func() {
		once.Do(func() {
			select {
			case h.unregister <- s:
			case <-h.done:
			}
		})
	}
}

// Publish queues ev for delivery to matching subscribers. It never blocks
// on slow subscribers; if the hub's own queue is full the event is dropped.
func (h *Hub) Publish(_ context.Context, ev Event) error {
	select {
	case <-h.done:
		return ErrHubClosed
	default:
	}
	select {
	case h.broadcast <- ev:
	default:
		h.log.Warn("realtime hub queue full, event dropped",
			zap.String("collection", ev.Collection),
			zap.String("doc_id", ev.DocID))
	}
	return nil
}

// Close stops the hub and closes every open stream.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// SubscriberCount returns the number of open streams.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}
