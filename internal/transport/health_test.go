package transport

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/mdtables/internal/testutil"
)

type recordingSender struct {
	mu   sync.Mutex
	msgs []Outbound
}

func (r *recordingSender) Send(_ context.Context, msg Outbound) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return nil
}

func (r *recordingSender) Messages() []Outbound {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Outbound(nil), r.msgs...)
}

func TestHealthMonitor_Lifecycle(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	h := NewHealthMonitor(testutil.NewTestLogger(t))
	h.Now = func() time.Time { return now }
	h.Timeout = time.Minute

	s := &recordingSender{}
	h.Register("a", s)

	health, ok := h.Health("a")
	require.True(t, ok)
	assert.True(t, health.IsHealthy)
	assert.Equal(t, now, health.LastActivity)

	now = now.Add(2 * time.Minute)
	h.CheckNow(context.Background())
	health, _ = h.Health("a")
	assert.False(t, health.IsHealthy)

	msgs := s.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, OutPing, msgs[0].Command)
	assert.Equal(t, now.UnixMilli(), msgs[0].Data.(PingPayload).Timestamp)

	rt := int64(42)
	h.HandlePong("a", Pong{ResponseTime: &rt})
	health, _ = h.Health("a")
	assert.True(t, health.IsHealthy)
	assert.Equal(t, 42*time.Millisecond, health.ResponseTime)

	now = now.Add(30 * time.Second)
	h.MarkActive("a")
	h.MarkActive("unknown")
	snap := h.Snapshot()
	assert.Len(t, snap, 1)
	assert.Equal(t, now, snap["a"].LastActivity)

	h.Unregister("a")
	_, ok = h.Health("a")
	assert.False(t, ok)
}

func TestHealthMonitor_StartStop(t *testing.T) {
	h := NewHealthMonitor(nil)
	h.Interval = 10 * time.Millisecond
	s := &recordingSender{}
	h.Register("a", s)

	h.Start(context.Background())
	assert.Eventually(t, func() bool { return len(s.Messages()) >= 2 }, time.Second, 5*time.Millisecond)
	h.Stop()

	count := len(s.Messages())
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, count, len(s.Messages()))

	// stopping twice is harmless
	h.Stop()
}

func TestHealthMonitor_StopsWithContext(t *testing.T) {
	h := NewHealthMonitor(nil)
	h.Interval = 5 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	h.Start(ctx)
	cancel()
	h.Stop()
}
