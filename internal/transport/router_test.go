package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/mdtables/internal/testutil"
	"github.com/leapstack-labs/mdtables/pkg/core"
)

type recordingHandler struct {
	msgs []Message
}

func (h *recordingHandler) Handle(_ context.Context, _ Sender, msg Message) error {
	h.msgs = append(h.msgs, msg)
	return nil
}

func TestRouter_Route(t *testing.T) {
	ctx := context.Background()
	logger := testutil.NewTestLogger(t)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	health := NewHealthMonitor(logger)
	health.Now = func() time.Time { return now }
	health.Register("surface-1", nil)

	handler := &recordingHandler{}
	reply := &recordingSender{}
	r := NewRouter(handler, health, 3, logger)

	now = now.Add(time.Minute)
	require.NoError(t, r.Route(ctx, "surface-1", []byte(`{"command":"addRow","data":{"index":0}}`), reply))
	require.Len(t, handler.msgs, 1)
	assert.Equal(t, CmdAddRow, handler.msgs[0].Command())
	h, _ := health.Health("surface-1")
	assert.Equal(t, now, h.LastActivity)

	// pongs are consumed by the monitor
	require.NoError(t, r.Route(ctx, "surface-1", []byte(`{"command":"pong","data":{"timestamp":1,"responseTime":5}}`), reply))
	assert.Len(t, handler.msgs, 1)
	h, _ = health.Health("surface-1")
	assert.Equal(t, 5*time.Millisecond, h.ResponseTime)
	assert.Empty(t, reply.Messages())
}

func TestRouter_RejectsInvalid(t *testing.T) {
	ctx := context.Background()
	handler := &recordingHandler{}
	reply := &recordingSender{}
	r := NewRouter(handler, nil, 3, testutil.NewTestLogger(t))

	err := r.Route(ctx, "surface-1", []byte(`{"command":"deleteRows","data":{"indices":[]}}`), reply)
	assert.True(t, core.IsProtocolError(err))
	assert.Empty(t, handler.msgs)

	msgs := reply.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, OutValidationError, msgs[0].Command)
	payload := msgs[0].Data.(ValidationErrorPayload)
	assert.Equal(t, "indices", payload.Field)
	assert.Equal(t, "deleteRows", payload.Command)

	err = r.RouteEnvelope(ctx, "surface-1", Envelope{Command: "bogus"}, reply)
	assert.True(t, core.IsProtocolError(err))
	assert.Len(t, reply.Messages(), 2)
}
