// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig handles
// the framework-level settings (ports, TLS, log level, CORS); everything
// specific to the club hub lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: clubhub-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Realtime fan-out across instances. Blank keeps events in-process.
	RedisURL      string
	RedisPoolSize int
	RedisChannel  string

	// Google OAuth
	GoogleClientID     string
	GoogleClientSecret string
	BaseURL            string // e.g., "https://club.example.org"; callback is BaseURL + /auth/google/callback

	// Default-role email domains
	StudentEmailDomain string
	StaffEmailDomain   string

	// Audit logging destinations: all, db, log, off
	AuditLogAuth     string
	AuditLogAdmin    string
	AuditLogWorkflow string

	// Background work
	OAuthStateCleanupInterval time.Duration

	// Requests per minute; 0 disables the limit
	RateLimitLogin int // per client IP on /auth/google
	RateLimitComms int // per user on /comms

	// Store call deadlines
	TimeoutPing   time.Duration
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}
