// Package tables provides the table editing surface: a signal stream per
// document and a command endpoint.
package tables

import (
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/leapstack-labs/mdtables/internal/session"
	"github.com/leapstack-labs/mdtables/internal/transport"
	"github.com/leapstack-labs/mdtables/internal/ui/notifier"
)

// SetupRoutes configures routes for the tables feature.
func SetupRoutes(
	router chi.Router,
	manager *session.Manager,
	sessionStore sessions.Store,
	hub *notifier.Hub,
	health *transport.HealthMonitor,
	opts ...Option,
) error {
	handlers := NewHandlers(manager, sessionStore, hub, health, opts...)

	router.Route("/api/tables", func(r chi.Router) {
		r.Get("/sse", handlers.Stream)
		r.Post("/command", handlers.Command)
	})

	return nil
}
