package tables

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/mdtables/internal/session"
	"github.com/leapstack-labs/mdtables/internal/transport"
	"github.com/leapstack-labs/mdtables/internal/ui/notifier"
)

// CookieName is the gorilla session that carries the surface instance id.
const CookieName = "mdtables"

const instanceKey = "instance"

// errStreamClosed is returned by a stream sender after its client left.
var errStreamClosed = errors.New("stream closed")

// Handlers provides HTTP handlers for the tables feature.
type Handlers struct {
	manager      *session.Manager
	sessionStore sessions.Store
	notifier     *notifier.Hub
	health       *transport.HealthMonitor
	maxAttempts  int
	logger       *slog.Logger
}

// Option configures Handlers.
type Option func(*Handlers)

// WithLogger sets the handler logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handlers) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMaxAttempts bounds reply retries.
func WithMaxAttempts(n int) Option {
	return func(h *Handlers) {
		if n > 0 {
			h.maxAttempts = n
		}
	}
}

// NewHandlers creates a new Handlers instance. health may be nil.
func NewHandlers(manager *session.Manager, sessionStore sessions.Store, hub *notifier.Hub, health *transport.HealthMonitor, opts ...Option) *Handlers {
	h := &Handlers{
		manager:      manager,
		sessionStore: sessionStore,
		notifier:     hub,
		health:       health,
		maxAttempts:  transport.DefaultMaxAttempts,
		logger:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Stream is the long-lived SSE endpoint of one surface instance. It sends
// the current tables, then forwards broadcasts, replies and pings until the
// client disconnects.
func (h *Handlers) Stream(w http.ResponseWriter, r *http.Request) {
	uri := r.URL.Query().Get("uri")
	if uri == "" {
		http.Error(w, "uri is required", http.StatusBadRequest)
		return
	}
	instanceID := h.instanceID(w, r)

	ctx := r.Context()
	sess, err := h.manager.Open(ctx, uri)
	if err != nil {
		h.logger.Warn("failed to open document", "uri", uri, "error", err)
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	uri = sess.URI()

	sse := datastar.NewSSE(w, r)

	// Subscribe before the first snapshot so no broadcast is missed
	updates := h.notifier.Subscribe(uri)
	defer h.notifier.Unsubscribe(uri, updates)

	direct := newStreamSender(ctx)
	defer direct.close()
	if h.health != nil {
		h.health.Register(instanceID, direct)
		defer h.health.Unregister(instanceID)
	}

	log := h.logger.With("uri", uri, "instance", instanceID)
	log.Debug("surface connected")
	defer log.Debug("surface disconnected")

	if err := h.patch(sse, sess.TableData(0)); err != nil {
		_ = sse.ConsoleError(err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-updates:
			if err := h.patch(sse, msg); err != nil {
				log.Debug("failed to push update", "error", err)
				return
			}
		case msg := <-direct.messages:
			if err := h.patch(sse, msg); err != nil {
				log.Debug("failed to push message", "error", err)
				return
			}
		}
	}
}

// Command receives one protocol message as a signal and routes it to the
// document session. Replies are streamed on the response.
func (h *Handlers) Command(w http.ResponseWriter, r *http.Request) {
	uri := r.URL.Query().Get("uri")
	if uri == "" {
		http.Error(w, "uri is required", http.StatusBadRequest)
		return
	}
	instanceID := h.instanceID(w, r)

	ctx := r.Context()
	sess, err := h.manager.Open(ctx, uri)
	if err != nil {
		h.logger.Warn("failed to open document", "uri", uri, "error", err)
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	// Read signals BEFORE creating SSE (SSE consumes the request body)
	var signals CommandSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		sse := datastar.NewSSE(w, r)
		_ = h.patch(sse, transport.Error("Failed to read signals: "+err.Error()))
		return
	}

	sse := datastar.NewSSE(w, r)
	reply := transport.SenderFunc(func(_ context.Context, msg transport.Outbound) error {
		return h.patch(sse, msg)
	})

	router := transport.NewRouter(sess, h.health, h.maxAttempts, h.logger)
	if err := router.Route(ctx, instanceID, signals.Message, reply); err != nil {
		h.logger.Debug("command failed", "uri", uri, "instance", instanceID, "error", err)
	}
}

func (h *Handlers) patch(sse *datastar.ServerSentEventGenerator, msg transport.Outbound) error {
	return sse.MarshalAndPatchSignals(MessageSignals{Message: msg})
}

// instanceID returns the surface instance id stored in the session cookie,
// assigning a new one on first contact.
func (h *Handlers) instanceID(w http.ResponseWriter, r *http.Request) string {
	sess, err := h.sessionStore.Get(r, CookieName)
	if err != nil {
		// Undecodable cookie; Get still returns a fresh session
		h.logger.Debug("discarding session cookie", "error", err)
	}
	if id, ok := sess.Values[instanceKey].(string); ok && id != "" {
		return id
	}

	id := uuid.NewString()
	sess.Values[instanceKey] = id
	if err := sess.Save(r, w); err != nil {
		h.logger.Warn("failed to save session cookie", "error", err)
	}
	return id
}

// streamSender queues messages for the stream loop, which owns the SSE
// writer. The health monitor sends pings through it from its own goroutine.
type streamSender struct {
	messages chan transport.Outbound
	done     chan struct{}
	ctx      context.Context
}

func newStreamSender(ctx context.Context) *streamSender {
	return &streamSender{
		messages: make(chan transport.Outbound, notifier.BufferSize),
		done:     make(chan struct{}),
		ctx:      ctx,
	}
}

func (s *streamSender) Send(ctx context.Context, msg transport.Outbound) error {
	select {
	case s.messages <- msg:
		return nil
	case <-s.done:
		return errStreamClosed
	case <-s.ctx.Done():
		return errStreamClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *streamSender) close() { close(s.done) }
