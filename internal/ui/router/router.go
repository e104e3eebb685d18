// Package router sets up HTTP routes for the UI server.
package router

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/leapstack-labs/mdtables/internal/session"
	"github.com/leapstack-labs/mdtables/internal/transport"
	homeFeature "github.com/leapstack-labs/mdtables/internal/ui/features/home"
	tablesFeature "github.com/leapstack-labs/mdtables/internal/ui/features/tables"
	"github.com/leapstack-labs/mdtables/internal/ui/notifier"
)

// Deps are the collaborators shared by the feature routes.
type Deps struct {
	Manager      *session.Manager
	Documents    homeFeature.DocumentLister
	SessionStore sessions.Store
	Notifier     *notifier.Hub
	Health       *transport.HealthMonitor
	MaxAttempts  int
	Logger       *slog.Logger
}

// SetupRoutes configures all routes for the UI server.
func SetupRoutes(router chi.Router, deps Deps) error {
	if err := homeFeature.SetupRoutes(router, deps.Manager, deps.Documents, deps.Health); err != nil {
		return err
	}

	if err := tablesFeature.SetupRoutes(router, deps.Manager, deps.SessionStore, deps.Notifier, deps.Health,
		tablesFeature.WithLogger(deps.Logger),
		tablesFeature.WithMaxAttempts(deps.MaxAttempts),
	); err != nil {
		return err
	}

	return nil
}
