// Package home provides the service endpoints of the UI: liveness and the
// document index.
package home

import (
	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/mdtables/internal/session"
	"github.com/leapstack-labs/mdtables/internal/transport"
)

// SetupRoutes configures routes for the home feature.
func SetupRoutes(
	router chi.Router,
	manager *session.Manager,
	documents DocumentLister,
	health *transport.HealthMonitor,
) error {
	handlers := NewHandlers(manager, documents, health)

	router.Get("/healthz", handlers.Health)
	router.Get("/api/documents", handlers.Documents)

	return nil
}
