// internal/app/features/auditlog/handler.go
package auditlog

import (
	uierrors "github.com/dalemusser/clubhub/internal/app/features/errors"
	"github.com/dalemusser/clubhub/internal/app/store/audit"
	userstore "github.com/dalemusser/clubhub/internal/app/store/users"
	"go.uber.org/zap"
)

// Handler serves the admin audit trail.
type Handler struct {
	Events   *audit.Store
	Profiles userstore.Profiles
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

// NewHandler constructs an Audit Log feature handler. Profiles resolve
// actor and target ids to display names.
func NewHandler(events *audit.Store, profiles userstore.Profiles, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Events:   events,
		Profiles: profiles,
		Log:      logger,
		ErrLog:   errLog,
	}
}
