package transport

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Default liveness timings.
const (
	DefaultPingInterval = 30 * time.Second
	DefaultPingTimeout  = 90 * time.Second
)

// ConnectionHealth is the liveness record of one surface instance.
type ConnectionHealth struct {
	IsHealthy    bool      `json:"isHealthy"`
	LastActivity time.Time `json:"lastActivity"`
	// ResponseTime is the round trip reported by the last pong.
	ResponseTime time.Duration `json:"responseTime"`
}

type connection struct {
	health ConnectionHealth
	sender Sender
}

// HealthMonitor pings registered surface instances and tracks whether they
// answer.
type HealthMonitor struct {
	// Interval is the time between ping rounds.
	Interval time.Duration
	// Timeout is how long an instance may stay silent before it is
	// considered unhealthy.
	Timeout time.Duration
	// Now is the clock; tests replace it.
	Now func() time.Time

	logger *slog.Logger

	mu    sync.Mutex
	conns map[string]*connection

	stopMu sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHealthMonitor creates a monitor with default timings.
func NewHealthMonitor(logger *slog.Logger) *HealthMonitor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &HealthMonitor{
		Interval: DefaultPingInterval,
		Timeout:  DefaultPingTimeout,
		Now:      time.Now,
		logger:   logger,
		conns:    make(map[string]*connection),
	}
}

// Register starts tracking an instance. Pings are delivered through sender.
func (h *HealthMonitor) Register(instanceID string, sender Sender) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[instanceID] = &connection{
		health: ConnectionHealth{IsHealthy: true, LastActivity: h.Now()},
		sender: sender,
	}
}

// Unregister stops tracking an instance.
func (h *HealthMonitor) Unregister(instanceID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, instanceID)
}

// MarkActive records activity from an instance and marks it healthy.
// Unknown instances are ignored.
func (h *HealthMonitor) MarkActive(instanceID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.conns[instanceID]; ok {
		c.health.IsHealthy = true
		c.health.LastActivity = h.Now()
	}
}

// HandlePong records a pong.
func (h *HealthMonitor) HandlePong(instanceID string, p Pong) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.conns[instanceID]
	if !ok {
		return
	}
	c.health.IsHealthy = true
	c.health.LastActivity = h.Now()
	if p.ResponseTime != nil {
		c.health.ResponseTime = time.Duration(*p.ResponseTime) * time.Millisecond
	}
}

// Health returns the record of one instance.
func (h *HealthMonitor) Health(instanceID string) (ConnectionHealth, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.conns[instanceID]
	if !ok {
		return ConnectionHealth{}, false
	}
	return c.health, true
}

// Snapshot returns the records of all instances.
func (h *HealthMonitor) Snapshot() map[string]ConnectionHealth {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string]ConnectionHealth, len(h.conns))
	for id, c := range h.conns {
		out[id] = c.health
	}
	return out
}

// CheckNow marks instances that were silent for longer than Timeout as
// unhealthy and sends a ping to every instance.
func (h *HealthMonitor) CheckNow(ctx context.Context) {
	now := h.Now()

	h.mu.Lock()
	senders := make(map[string]Sender, len(h.conns))
	for id, c := range h.conns {
		if c.health.IsHealthy && now.Sub(c.health.LastActivity) > h.Timeout {
			c.health.IsHealthy = false
			h.logger.Warn("surface instance unresponsive", "instance", id, "last_activity", c.health.LastActivity)
		}
		senders[id] = c.sender
	}
	h.mu.Unlock()

	ping := Ping(now)
	for id, s := range senders {
		if s == nil {
			continue
		}
		if err := s.Send(ctx, ping); err != nil {
			h.logger.Debug("ping failed", "instance", id, "error", err)
		}
	}
}

// Start runs the ping loop in the background until ctx is cancelled or Stop
// is called. Calling Start on a running monitor restarts the loop.
func (h *HealthMonitor) Start(ctx context.Context) {
	h.Stop()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	h.stopMu.Lock()
	h.cancel = cancel
	h.done = done
	h.stopMu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(h.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.CheckNow(ctx)
			}
		}
	}()
}

// Stop ends the ping loop and waits for it to exit.
func (h *HealthMonitor) Stop() {
	h.stopMu.Lock()
	cancel, done := h.cancel, h.done
	h.cancel, h.done = nil, nil
	h.stopMu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}
