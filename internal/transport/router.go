package transport

import (
	"context"
	"errors"
	"log/slog"

	"github.com/leapstack-labs/mdtables/pkg/core"
)

// Handler executes validated messages for one document.
type Handler interface {
	Handle(ctx context.Context, reply Sender, msg Message) error
}

// Router validates inbound messages, keeps the liveness records current and
// hands everything except pongs to a Handler.
type Router struct {
	handler     Handler
	health      *HealthMonitor
	maxAttempts int
	logger      *slog.Logger
}

// NewRouter creates a router. health may be nil.
func NewRouter(handler Handler, health *HealthMonitor, maxAttempts int, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Router{handler: handler, health: health, maxAttempts: maxAttempts, logger: logger}
}

// Route decodes raw and dispatches it. Invalid messages are answered with a
// validationError and have no other effect; the protocol error is returned.
func (r *Router) Route(ctx context.Context, instanceID string, raw []byte, reply Sender) error {
	msg, err := Decode(raw)
	if err != nil {
		return r.reject(ctx, instanceID, reply, err)
	}
	return r.Dispatch(ctx, instanceID, msg, reply)
}

// RouteEnvelope is Route for an already split message.
func (r *Router) RouteEnvelope(ctx context.Context, instanceID string, env Envelope, reply Sender) error {
	msg, err := DecodeEnvelope(env)
	if err != nil {
		return r.reject(ctx, instanceID, reply, err)
	}
	return r.Dispatch(ctx, instanceID, msg, reply)
}

// Dispatch routes a validated message.
func (r *Router) Dispatch(ctx context.Context, instanceID string, msg Message, reply Sender) error {
	if r.health != nil {
		if pong, ok := msg.(Pong); ok {
			r.health.HandlePong(instanceID, pong)
			return nil
		}
		r.health.MarkActive(instanceID)
	}
	r.logger.Debug("routing message", "instance", instanceID, "command", msg.Command(), "table_index", msg.Table())
	return r.handler.Handle(ctx, reply, msg)
}

func (r *Router) reject(ctx context.Context, instanceID string, reply Sender, err error) error {
	var pe *core.ProtocolError
	if !errors.As(err, &pe) {
		pe = &core.ProtocolError{Message: err.Error()}
	}
	r.logger.Warn("rejected message", "instance", instanceID, "error", pe)
	if reply != nil {
		if sendErr := SendWithRetry(ctx, reply, ValidationError(pe), r.maxAttempts, r.logger); sendErr != nil {
			r.logger.Error("failed to report validation error", "instance", instanceID, "error", sendErr)
		}
	}
	return pe
}
