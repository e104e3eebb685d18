package home

import (
	"encoding/json"
	"net/http"

	"github.com/leapstack-labs/mdtables/internal/session"
	"github.com/leapstack-labs/mdtables/internal/transport"
)

// Handlers provides HTTP handlers for the home feature.
type Handlers struct {
	manager   *session.Manager
	documents DocumentLister
	health    *transport.HealthMonitor
}

// NewHandlers creates a new Handlers instance. health may be nil.
func NewHandlers(manager *session.Manager, documents DocumentLister, health *transport.HealthMonitor) *Handlers {
	return &Handlers{
		manager:   manager,
		documents: documents,
		health:    health,
	}
}

// Health reports liveness with the open sessions and surface instances.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	status := HealthStatus{Status: "ok", Sessions: len(h.manager.URIs())}
	if h.health != nil {
		status.Instances = h.health.Snapshot()
	}
	writeJSON(w, http.StatusOK, status)
}

// Documents lists the markdown documents with their table counts. A
// document that cannot be parsed is listed with its error.
func (h *Handlers) Documents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uris, err := h.documents.Documents(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	open := make(map[string]bool)
	for _, uri := range h.manager.URIs() {
		open[uri] = true
	}

	infos := make([]DocumentInfo, 0, len(uris))
	for _, uri := range uris {
		info := DocumentInfo{URI: uri, Open: open[uri]}
		n, err := h.manager.TableCount(ctx, uri)
		if err != nil {
			info.Error = err.Error()
		}
		info.Tables = n
		infos = append(infos, info)
	}
	writeJSON(w, http.StatusOK, infos)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
