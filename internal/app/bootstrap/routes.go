// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	applicationfeature "github.com/dalemusser/clubhub/internal/app/features/application"
	auditlogfeature "github.com/dalemusser/clubhub/internal/app/features/auditlog"
	authgooglefeature "github.com/dalemusser/clubhub/internal/app/features/authgoogle"
	calendarfeature "github.com/dalemusser/clubhub/internal/app/features/calendar"
	commsfeature "github.com/dalemusser/clubhub/internal/app/features/comms"
	errorsfeature "github.com/dalemusser/clubhub/internal/app/features/errors"
	financialsfeature "github.com/dalemusser/clubhub/internal/app/features/financials"
	healthfeature "github.com/dalemusser/clubhub/internal/app/features/health"
	inboxfeature "github.com/dalemusser/clubhub/internal/app/features/inbox"
	logoutfeature "github.com/dalemusser/clubhub/internal/app/features/logout"
	mefeature "github.com/dalemusser/clubhub/internal/app/features/me"
	overlayfeature "github.com/dalemusser/clubhub/internal/app/features/overlay"
	publicfeature "github.com/dalemusser/clubhub/internal/app/features/public"
	registerfeature "github.com/dalemusser/clubhub/internal/app/features/register"
	rosterfeature "github.com/dalemusser/clubhub/internal/app/features/roster"
	streamfeature "github.com/dalemusser/clubhub/internal/app/features/stream"
	auditstore "github.com/dalemusser/clubhub/internal/app/store/audit"
	calendarstore "github.com/dalemusser/clubhub/internal/app/store/calendar"
	ledgerstore "github.com/dalemusser/clubhub/internal/app/store/ledger"
	messagestore "github.com/dalemusser/clubhub/internal/app/store/messages"
	overlaystore "github.com/dalemusser/clubhub/internal/app/store/overlay"
	"github.com/dalemusser/clubhub/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/clubhub/internal/app/store/users"
	"github.com/dalemusser/clubhub/internal/app/system/auditlog"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/identity"
	"github.com/dalemusser/clubhub/internal/app/system/ratelimit"
	"github.com/dalemusser/clubhub/internal/app/system/workflow"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. It builds the stores and services once,
// applies the session and audit middleware, and mounts every feature router.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	db := deps.MongoDatabase
	profiles := userstore.New(db)

	// LoadSessionUser re-reads the profile on every request, so role changes
	// take effect on the next request.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(profiles))

	auditEvents := auditstore.New(db)
	auditLog := auditlog.New(auditEvents, logger, auditlog.Config{
		Auth:     appCfg.AuditLogAuth,
		Admin:    appCfg.AuditLogAdmin,
		Workflow: appCfg.AuditLogWorkflow,
	})
	pub := deps.Publisher()
	svc := workflow.New(profiles, pub, auditLog, logger)
	resolver := identity.NewResolver(profiles, identity.Domains{
		Student: appCfg.StudentEmailDomain,
		Staff:   appCfg.StaffEmailDomain,
	}, logger)

	errLog := errorsfeature.NewErrorLogger(logger)

	r := chi.NewRouter()
	r.Use(auditlog.Middleware)

	// Loads SessionUser into context if signed in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	r.Mount("/health", healthfeature.Routes(healthfeature.NewHandler(deps.MongoClient, deps.Redis, logger)))

	// Authentication
	googleHandler := authgooglefeature.NewHandler(
		sessionMgr, auditLog, oauthstate.New(db), resolver,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger,
	)
	r.With(limit(deps.LoginLimiter, ratelimit.ByIP, "Too many sign-in attempts. Try again in a minute.", logger)).
		Mount("/auth/google", authgooglefeature.Routes(googleHandler))
	r.Mount("/logout", logoutfeature.Routes(logoutfeature.NewHandler(sessionMgr, auditLog, logger), sessionMgr))

	// Error pages
	errorsfeature.Routes(r, errorsfeature.NewHandler())

	// Profile and application workflow
	r.Mount("/me", mefeature.Routes(mefeature.NewHandler(svc, errLog, logger), sessionMgr))
	r.Mount("/application", applicationfeature.Routes(applicationfeature.NewHandler(svc, errLog, logger), sessionMgr))
	r.Mount("/inbox", inboxfeature.Routes(inboxfeature.NewHandler(svc, errLog, logger), sessionMgr))
	r.Mount("/roster", rosterfeature.Routes(rosterfeature.NewHandler(svc, errLog, logger), sessionMgr))

	// Club records
	messages := messagestore.New(db)
	r.With(limit(deps.CommsLimiter, ratelimit.ByUser, "You are sending messages too quickly.", logger)).
		Mount("/comms", commsfeature.Routes(commsfeature.NewHandler(messages, pub, auditLog, errLog, logger), sessionMgr))

	ledger := ledgerstore.New(db)
	r.Mount("/financials", financialsfeature.Routes(financialsfeature.NewHandler(ledger, pub, auditLog, errLog, logger), sessionMgr))
	r.Mount("/register", registerfeature.Routes(registerfeature.NewHandler(ledger, pub, auditLog, errLog, logger), sessionMgr))

	events := calendarstore.New(db)
	r.Mount("/calendar", calendarfeature.Routes(calendarfeature.NewHandler(events, pub, auditLog, errLog, logger), sessionMgr))

	overlayHandler := overlayfeature.NewHandler(overlaystore.New(db), pub, auditLog, errLog, logger)
	r.Mount("/overlay", overlayfeature.Routes(overlayHandler, sessionMgr))

	// Anonymous pages
	public := publicfeature.Routes(publicfeature.NewHandler(profiles, events, errLog, logger))
	public.Mount("/overlay", overlayfeature.PublicRoutes(overlayHandler, deps.Hub))
	r.Mount("/public", public)

	// Admin audit trail
	r.Mount("/audit", auditlogfeature.Routes(auditlogfeature.NewHandler(auditEvents, profiles, errLog, logger), sessionMgr))

	// Change stream
	r.Mount("/stream", streamfeature.Routes(streamfeature.NewHandler(deps.Hub, profiles, logger), sessionMgr))

	return r, nil
}

// limit applies l when it is configured and passes requests through otherwise.
func limit(l *ratelimit.Limiter, key ratelimit.KeyFunc, msg string, logger *zap.Logger) func(http.Handler) http.Handler {
	if l == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return ratelimit.Middleware(l, key, msg, logger)
}
