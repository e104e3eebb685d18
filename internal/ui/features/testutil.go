// Package features provides shared test utilities for UI feature tests.
package features

import (
	"testing"

	"github.com/gorilla/sessions"

	"github.com/leapstack-labs/mdtables/internal/document"
	"github.com/leapstack-labs/mdtables/internal/session"
	"github.com/leapstack-labs/mdtables/internal/testutil"
	"github.com/leapstack-labs/mdtables/internal/transport"
	"github.com/leapstack-labs/mdtables/internal/ui/notifier"
)

// SampleDocument is a document with one table.
const SampleDocument = `# Team
| Name | Age |
| --- | --- |
| John | 25 |
| Jane | 30 |
`

// TestFixture holds all dependencies needed for UI handler tests.
type TestFixture struct {
	Store        *document.MemoryStore
	Manager      *session.Manager
	Notifier     *notifier.Hub
	Health       *transport.HealthMonitor
	SessionStore *sessions.CookieStore
}

// SetupTestFixture creates a fixture serving docs from memory. With no docs
// it serves SampleDocument as "team.md".
func SetupTestFixture(t *testing.T, docs map[string]string) *TestFixture {
	t.Helper()

	if docs == nil {
		docs = map[string]string{"team.md": SampleDocument}
	}

	logger := testutil.NewTestLogger(t)
	store := document.NewMemoryStore(docs)
	hub := notifier.New()

	manager := session.NewManager(session.Options{
		Store:       store,
		Broadcaster: hub,
		Logger:      logger,
	})

	sessionStore := sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!!"))
	sessionStore.Options.Path = "/"

	return &TestFixture{
		Store:        store,
		Manager:      manager,
		Notifier:     hub,
		Health:       transport.NewHealthMonitor(logger),
		SessionStore: sessionStore,
	}
}
