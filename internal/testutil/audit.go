package testutil

import (
	"context"
	"sync"

	"github.com/dalemusser/clubhub/internal/app/store/audit"
	"github.com/dalemusser/clubhub/internal/app/system/auditlog"
	"go.uber.org/zap"
)

// AuditRecorder keeps audit events in memory.
type AuditRecorder struct {
	mu     sync.Mutex
	events []audit.Event
}

func (a *AuditRecorder) Log(_ context.Context, e audit.Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
	return nil
}

// Events returns a copy of the recorded events.
func (a *AuditRecorder) Events() []audit.Event {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]audit.Event(nil), a.events...)
}

// Has reports whether an event of eventType was recorded.
func (a *AuditRecorder) Has(eventType string) bool {
	for _, e := range a.Events() {
		if e.EventType == eventType {
			return true
		}
	}
	return false
}

// NewAuditLogger returns an audit logger that records every category into
// a fresh AuditRecorder.
func NewAuditLogger() (*auditlog.Logger, *AuditRecorder) {
	rec := &AuditRecorder{}
	cfg := auditlog.Config{Auth: auditlog.DestDB, Admin: auditlog.DestDB, Workflow: auditlog.DestDB}
	return auditlog.New(rec, zap.NewNop(), cfg), rec
}
