package testutil

import (
	"context"
	"sync"

	"github.com/dalemusser/clubhub/internal/app/system/realtime"
)

// Publisher records published realtime events.
type Publisher struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (p *Publisher) Publish(_ context.Context, ev realtime.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

// Events returns a copy of the published events.
func (p *Publisher) Events() []realtime.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]realtime.Event(nil), p.events...)
}

// Has reports whether an event for collection and op was published.
func (p *Publisher) Has(collection, op string) bool {
	for _, ev := range p.Events() {
		if ev.Collection == collection && ev.Op == op {
			return true
		}
	}
	return false
}
