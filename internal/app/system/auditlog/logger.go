// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/dalemusser/clubhub/internal/app/store/audit"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destination settings for each category.
const (
	DestAll = "all" // MongoDB + zap
	DestDB  = "db"  // MongoDB only
	DestLog = "log" // zap only
	DestOff = "off" // disabled
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for sign-in, sign-out and first-login profile creation.
	Auth string
	// Admin controls logging for roster, role, comms, ledger and calendar changes.
	Admin string
	// Workflow controls logging for application transitions.
	Workflow string
}

// Recorder persists audit events. *audit.Store implements it.
type Recorder interface {
	Log(ctx context.Context, event audit.Event) error
}

// Logger provides convenience methods for logging audit events.
// It logs to MongoDB (via a Recorder) and structured logs (via zap).
type Logger struct {
	store  Recorder
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger. store may be nil when every category
// is configured as "log" or "off".
func New(store Recorder, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Request metadata                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

type requestMeta struct {
	ip        string
	userAgent string
}

type ctxKey struct{}

// WithRequest returns ctx carrying the client IP and user agent of r, so
// audit events logged further down the call chain record them.
func WithRequest(ctx context.Context, r *http.Request) context.Context {
	return context.WithValue(ctx, ctxKey{}, requestMeta{ip: clientIP(r), userAgent: r.UserAgent()})
}

// Middleware attaches request metadata to every request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithRequest(r.Context(), r)))
	})
}

func metaFrom(ctx context.Context) requestMeta {
	m, _ := ctx.Value(ctxKey{}).(requestMeta)
	return m
}

// clientIP extracts the client IP from the request.
func clientIP(r *http.Request) string {
	// Check X-Forwarded-For header first (for reverse proxies)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

/*─────────────────────────────────────────────────────────────────────────────*
| Core                                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}

	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

func (l *Logger) setting(category string) string {
	switch category {
	case audit.CategoryAuth:
		return l.config.Auth
	case audit.CategoryAdmin:
		return l.config.Admin
	case audit.CategoryWorkflow:
		return l.config.Workflow
	default:
		return DestAll
	}
}

// Log records an audit event based on configuration.
// A nil Logger is a no-op, so tests and optional wiring can pass nil.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	setting := l.setting(event.Category)
	if setting == DestOff {
		return
	}

	if event.IP == "" && event.UserAgent == "" {
		m := metaFrom(ctx)
		event.IP, event.UserAgent = m.ip, m.userAgent
	}

	if setting == DestAll || setting == DestLog {
		l.logToZap(event)
	}

	if (setting == DestAll || setting == DestDB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Authentication events                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// LoginSuccess logs a completed Google sign-in.
func (l *Logger) LoginSuccess(ctx context.Context, userID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		Success:   true,
		Details:   map[string]string{"email": email},
	})
}

// LoginFailed logs a sign-in that did not complete.
func (l *Logger) LoginFailed(ctx context.Context, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailed,
		Success:       false,
		FailureReason: reason,
	})
}

// Logout logs a sign-out. userIDStr comes from the SessionUser; a malformed
// value is logged without a user.
func (l *Logger) Logout(ctx context.Context, userIDStr string) {
	var userID *primitive.ObjectID
	if oid, err := primitive.ObjectIDFromHex(userIDStr); err == nil {
		userID = &oid
	}
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		UserID:    userID,
		Success:   true,
	})
}

// ProfileCreated logs the first-login creation of a profile.
func (l *Logger) ProfileCreated(ctx context.Context, userID primitive.ObjectID, role models.Role) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventProfileCreated,
		UserID:    &userID,
		Success:   true,
		Details:   map[string]string{"role": role.String()},
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Workflow events                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// Transition logs an application status change of target made by actor.
func (l *Logger) Transition(ctx context.Context, eventType string, actorID, targetID primitive.ObjectID, from, to models.ApplicationStatus) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryWorkflow,
		EventType: eventType,
		UserID:    &targetID,
		ActorID:   &actorID,
		Success:   true,
		Details: map[string]string{
			"from": from.String(),
			"to":   to.String(),
		},
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Admin events                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// RoleAssigned logs a manual role change.
func (l *Logger) RoleAssigned(ctx context.Context, actorID, targetID primitive.ObjectID, actorRole, from, to models.Role) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventRoleAssigned,
		UserID:    &targetID,
		ActorID:   &actorID,
		Success:   true,
		Details: map[string]string{
			"actor_role": actorRole.String(),
			"from":       from.String(),
			"to":         to.String(),
		},
	})
}

// UserUpdated logs a roster edit of another user's profile.
func (l *Logger) UserUpdated(ctx context.Context, actorID, targetID primitive.ObjectID, actorRole models.Role, fieldsChanged string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventUserUpdated,
		UserID:    &targetID,
		ActorID:   &actorID,
		Success:   true,
		Details: map[string]string{
			"actor_role":     actorRole.String(),
			"fields_changed": fieldsChanged,
		},
	})
}

// UserDeleted logs the explicit deletion of a profile.
func (l *Logger) UserDeleted(ctx context.Context, actorID, targetID primitive.ObjectID, actorRole models.Role) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventUserDeleted,
		UserID:    &targetID,
		ActorID:   &actorID,
		Success:   true,
		Details:   map[string]string{"actor_role": actorRole.String()},
	})
}

// RecordChanged logs a create or delete of a comms, ledger or calendar
// record. eventType is one of the audit.Event* admin constants.
func (l *Logger) RecordChanged(ctx context.Context, eventType string, actorID, recordID primitive.ObjectID, details map[string]string) {
	d := map[string]string{"record_id": recordID.Hex()}
	for k, v := range details {
		d[k] = v
	}
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: eventType,
		ActorID:   &actorID,
		Success:   true,
		Details:   d,
	})
}

// OverlayUpdated logs an edit of the live-stream scoreboard.
func (l *Logger) OverlayUpdated(ctx context.Context, actorID primitive.ObjectID, details map[string]string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventOverlayUpdated,
		ActorID:   &actorID,
		Success:   true,
		Details:   details,
	})
}

// PermissionDenied logs a write refused by the capability gate.
func (l *Logger) PermissionDenied(ctx context.Context, actorID primitive.ObjectID, actorRole models.Role, capability string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAdmin,
		EventType:     audit.EventPermissionDenied,
		ActorID:       &actorID,
		Success:       false,
		FailureReason: "missing capability",
		Details: map[string]string{
			"actor_role": actorRole.String(),
			"capability": capability,
		},
	})
}
