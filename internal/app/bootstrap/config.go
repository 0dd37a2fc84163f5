// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/clubhub/internal/app/system/auditlog"
	"github.com/dalemusser/clubhub/internal/app/system/inputval"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for the club hub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: CLUBHUB_MONGO_URI, CLUBHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "clubhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 5, Desc: "MongoDB min connection pool size (default: 5)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "clubhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime (e.g., 720h)"},

	// Realtime
	{Name: "redis_url", Default: "", Desc: "Redis URL for cross-instance realtime events (blank = in-process only)"},
	{Name: "redis_pool_size", Default: 10, Desc: "Redis connection pool size"},
	{Name: "redis_channel", Default: "clubhub:events", Desc: "Redis pub/sub channel for realtime events"},

	// Google OAuth configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},
	{Name: "base_url", Default: "http://localhost:3000", Desc: "Public base URL used for the OAuth callback"},

	// Default-role domains
	{Name: "student_email_domain", Default: "madisonstudent.org", Desc: "Email domain whose users start as students"},
	{Name: "staff_email_domain", Default: "madison.k12.in.us", Desc: "Email domain whose users start as staff"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_workflow", Default: "all", Desc: "Application workflow logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Background work
	{Name: "oauth_state_cleanup_interval", Default: "10m", Desc: "How often expired OAuth states are purged"},
	{Name: "rate_limit_login", Default: "20", Desc: "Sign-in requests per minute per client IP (0 disables)"},
	{Name: "rate_limit_comms", Default: "60", Desc: "Comms requests per minute per user (0 disables)"},

	// Timeouts
	{Name: "timeout_ping", Default: "2s", Desc: "Deadline for health pings"},
	{Name: "timeout_short", Default: "5s", Desc: "Deadline for single-document store calls"},
	{Name: "timeout_medium", Default: "10s", Desc: "Deadline for list queries"},
	{Name: "timeout_long", Default: "30s", Desc: "Deadline for schema setup and multi-collection work"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges, with precedence
// flags > env > files > defaults, and reads CLUBHUB_* variables for
// the app keys.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "CLUBHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 30*24*time.Hour),

		RedisURL:      strings.TrimSpace(appValues.String("redis_url")),
		RedisPoolSize: appValues.Int("redis_pool_size"),
		RedisChannel:  appValues.String("redis_channel"),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),
		BaseURL:            strings.TrimRight(appValues.String("base_url"), "/"),

		StudentEmailDomain: appValues.String("student_email_domain"),
		StaffEmailDomain:   appValues.String("staff_email_domain"),

		AuditLogAuth:     appValues.String("audit_log_auth"),
		AuditLogAdmin:    appValues.String("audit_log_admin"),
		AuditLogWorkflow: appValues.String("audit_log_workflow"),

		OAuthStateCleanupInterval: appValues.Duration("oauth_state_cleanup_interval", 10*time.Minute),
		RateLimitLogin:            appValues.Int("rate_limit_login"),
		RateLimitComms:            appValues.Int("rate_limit_comms"),

		TimeoutPing:   appValues.Duration("timeout_ping", timeouts.DefaultPing),
		TimeoutShort:  appValues.Duration("timeout_short", timeouts.DefaultShort),
		TimeoutMedium: appValues.Duration("timeout_medium", timeouts.DefaultMedium),
		TimeoutLong:   appValues.Duration("timeout_long", timeouts.DefaultLong),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// The Mongo URI, the Redis URL and the role domains are checked here so
// mistakes surface before any connection is attempted.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.RedisURL != "" {
		if _, err := redis.ParseURL(appCfg.RedisURL); err != nil {
			logger.Error("invalid Redis URL", zap.Error(err))
			return fmt.Errorf("invalid Redis URL: %w", err)
		}
	}

	for key, dom := range map[string]string{
		"student_email_domain": appCfg.StudentEmailDomain,
		"staff_email_domain":   appCfg.StaffEmailDomain,
	} {
		if !inputval.Var(strings.TrimSpace(dom), "required,fqdn") {
			return fmt.Errorf("%s %q is not a domain name", key, dom)
		}
	}
	if strings.EqualFold(strings.TrimSpace(appCfg.StudentEmailDomain), strings.TrimSpace(appCfg.StaffEmailDomain)) {
		return fmt.Errorf("student_email_domain and staff_email_domain must differ")
	}

	for key, v := range map[string]string{
		"audit_log_auth":     appCfg.AuditLogAuth,
		"audit_log_admin":    appCfg.AuditLogAdmin,
		"audit_log_workflow": appCfg.AuditLogWorkflow,
	} {
		switch v {
		case auditlog.DestAll, auditlog.DestDB, auditlog.DestLog, auditlog.DestOff:
		default:
			return fmt.Errorf("%s must be one of all, db, log, off (got %q)", key, v)
		}
	}

	if coreCfg != nil && coreCfg.Env == "prod" && len(appCfg.SessionKey) < 32 {
		return fmt.Errorf("session_key must be at least 32 characters in production")
	}

	return nil
}
