package tables

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/mdtables/internal/testutil"
	"github.com/leapstack-labs/mdtables/internal/transport"
	"github.com/leapstack-labs/mdtables/internal/ui/features"
)

func setupTestHandlers(t *testing.T) (*Handlers, *features.TestFixture) {
	t.Helper()

	fixture := features.SetupTestFixture(t, nil)
	handlers := NewHandlers(
		fixture.Manager,
		fixture.SessionStore,
		fixture.Notifier,
		fixture.Health,
		WithLogger(testutil.NewTestLogger(t)),
	)
	return handlers, fixture
}

func postCommand(t *testing.T, h *Handlers, uri, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/tables/command?uri="+uri, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Command(rec, req)
	return rec
}

func TestStream_SendsInitialTablesAndBroadcasts(t *testing.T) {
	h, fixture := setupTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/tables/sse?uri=team.md", nil)
	ctx, cancel := context.WithTimeout(req.Context(), 300*time.Millisecond)
	defer cancel()
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.Stream(rec, req)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return fixture.Notifier.Listeners("team.md") == 1
	}, time.Second, 10*time.Millisecond)
	fixture.Notifier.Broadcast("team.md", transport.Status("saved", nil))

	<-done

	body := rec.Body.String()
	assert.Equal(t, 2, strings.Count(body, "event:"), body)
	assert.Contains(t, body, "updateTableData")
	assert.Contains(t, body, `"John"`)
	assert.Contains(t, body, "saved")
	assert.Contains(t, rec.Header().Get("Set-Cookie"), CookieName+"=")
	assert.Equal(t, 0, fixture.Notifier.Listeners("team.md"))
	assert.Empty(t, fixture.Health.Snapshot())
}

func TestStream_RegistersWithHealthMonitor(t *testing.T) {
	h, fixture := setupTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/tables/sse?uri=team.md", nil)
	ctx, cancel := context.WithCancel(req.Context())
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.Stream(rec, req)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return len(fixture.Health.Snapshot()) == 1
	}, time.Second, 10*time.Millisecond)
	fixture.Health.CheckNow(context.Background())

	// Let the stream loop write the queued ping
	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	assert.Contains(t, rec.Body.String(), `"ping"`)
}

func TestStream_Errors(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantStatus int
	}{
		{name: "missing uri", target: "/api/tables/sse", wantStatus: http.StatusBadRequest},
		{name: "unknown document", target: "/api/tables/sse?uri=missing.md", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := setupTestHandlers(t)

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			rec := httptest.NewRecorder()
			h.Stream(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestCommand_UpdateCellPersistsAndBroadcasts(t *testing.T) {
	h, fixture := setupTestHandlers(t)
	updates := fixture.Notifier.Subscribe("team.md")
	defer fixture.Notifier.Unsubscribe("team.md", updates)

	rec := postCommand(t, h, "team.md",
		`{"message":{"command":"updateCell","data":{"row":0,"col":1,"value":"26"}}}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	content, err := fixture.Store.Read(context.Background(), "team.md")
	require.NoError(t, err)
	assert.Contains(t, content, "| John | 26 |")

	select {
	case msg := <-updates:
		assert.Equal(t, transport.OutUpdateTableData, msg.Command)
	case <-time.After(time.Second):
		t.Fatal("no broadcast after edit")
	}
}

func TestCommand_InvalidMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "missing required field",
			body: `{"message":{"command":"updateCell","data":{"row":0,"value":"x"}}}`,
			want: "col",
		},
		{
			name: "unknown command",
			body: `{"message":{"command":"explode","data":{}}}`,
			want: "unknown command",
		},
		{
			name: "negative index",
			body: `{"message":{"command":"deleteRow","data":{"index":-1}}}`,
			want: "index",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, fixture := setupTestHandlers(t)

			rec := postCommand(t, h, "team.md", tt.body)

			body := rec.Body.String()
			assert.Contains(t, body, "validationError")
			assert.Contains(t, body, tt.want)

			content, err := fixture.Store.Read(context.Background(), "team.md")
			require.NoError(t, err)
			assert.Equal(t, features.SampleDocument, content)
		})
	}
}

func TestCommand_ReportsEditFailure(t *testing.T) {
	h, _ := setupTestHandlers(t)

	rec := postCommand(t, h, "team.md",
		`{"message":{"command":"updateCell","data":{"row":9,"col":0,"value":"x"}}}`)

	body := rec.Body.String()
	assert.Contains(t, body, "cellUpdateError")
}

func TestCommand_RequestTableDataReplies(t *testing.T) {
	h, _ := setupTestHandlers(t)

	rec := postCommand(t, h, "team.md", `{"message":{"command":"requestTableData","data":{}}}`)

	body := rec.Body.String()
	assert.Contains(t, body, "updateTableData")
	assert.Contains(t, body, `"Jane"`)
}

func TestCommand_ReusesInstanceCookie(t *testing.T) {
	h, _ := setupTestHandlers(t)

	first := postCommand(t, h, "team.md", `{"message":{"command":"requestTableData","data":{}}}`)
	cookies := first.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodPost, "/api/tables/command?uri=team.md",
		strings.NewReader(`{"message":{"command":"requestTableData","data":{}}}`))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.Command(rec, req)

	assert.Empty(t, rec.Header().Get("Set-Cookie"))
}
