package notifier

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/mdtables/internal/transport"
)

func TestHub_Subscribe_Unsubscribe(t *testing.T) {
	h := New()

	// Subscribe creates a channel
	ch := h.Subscribe("a.md")
	require.NotNil(t, ch)
	assert.Equal(t, 1, h.Listeners("a.md"))

	// Unsubscribe removes the channel
	h.Unsubscribe("a.md", ch)

	h.mu.RLock()
	assert.Len(t, h.listeners, 0)
	h.mu.RUnlock()
}

func TestHub_Broadcast(t *testing.T) {
	h := New()

	ch1 := h.Subscribe("a.md")
	ch2 := h.Subscribe("a.md")
	other := h.Subscribe("b.md")
	defer h.Unsubscribe("a.md", ch1)
	defer h.Unsubscribe("a.md", ch2)
	defer h.Unsubscribe("b.md", other)

	h.Broadcast("a.md", transport.Status("saved", nil))

	for _, ch := range []chan transport.Outbound{ch1, ch2} {
		select {
		case msg := <-ch:
			assert.Equal(t, transport.OutStatus, msg.Command)
		case <-time.After(100 * time.Millisecond):
			t.Error("listener did not receive broadcast")
		}
	}

	select {
	case msg := <-other:
		t.Errorf("listener of another document received %v", msg.Command)
	default:
	}
}

func TestHub_Broadcast_NonBlocking(t *testing.T) {
	h := New()

	ch := h.Subscribe("a.md")
	defer h.Unsubscribe("a.md", ch)

	// Fill the channel buffer
	for range BufferSize {
		ch <- transport.Error("x")
	}

	done := make(chan bool)
	go func() {
		h.Broadcast("a.md", transport.Error("y"))
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Error("Broadcast blocked on full channel")
	}
}

func TestHub_Concurrent(t *testing.T) {
	h := New()

	var wg sync.WaitGroup
	const numGoroutines = 10

	for range numGoroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch := h.Subscribe("a.md")
			h.Broadcast("a.md", transport.Error("x"))
			h.Unsubscribe("a.md", ch)
		}()
	}

	wg.Wait()

	h.mu.RLock()
	assert.Len(t, h.listeners, 0)
	h.mu.RUnlock()
}
