// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It
// starts the Redis relay and the OAuth state cleanup worker.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Relay != nil {
		// The relay outlives startup; Shutdown stops it.
		if err := deps.Relay.Start(context.Background()); err != nil {
			return fmt.Errorf("start realtime relay: %w", err)
		}
	}
	if deps.StateCleanup != nil {
		deps.StateCleanup.Start()
	}
	if appCfg.GoogleClientID == "" || appCfg.GoogleClientSecret == "" {
		logger.Warn("Google OAuth is not configured; sign-in is disabled")
	}
	return nil
}
