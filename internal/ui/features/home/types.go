package home

import (
	"context"

	"github.com/leapstack-labs/mdtables/internal/transport"
)

// DocumentLister enumerates the markdown documents under the served root.
type DocumentLister interface {
	Documents(ctx context.Context) ([]string, error)
}

// DocumentInfo is one entry of the document index.
type DocumentInfo struct {
	URI    string `json:"uri"`
	Tables int    `json:"tables"`
	Open   bool   `json:"open"`
	Error  string `json:"error,omitempty"`
}

// HealthStatus is the body of the liveness endpoint.
type HealthStatus struct {
	Status    string                                `json:"status"`
	Sessions  int                                   `json:"sessions"`
	Instances map[string]transport.ConnectionHealth `json:"instances,omitempty"`
}
