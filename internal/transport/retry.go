package transport

import (
	"context"
	"log/slog"
)

// DefaultMaxAttempts is used when a caller passes a non-positive attempt count.
const DefaultMaxAttempts = 3

// Sender delivers outbound messages to one surface.
type Sender interface {
	Send(ctx context.Context, msg Outbound) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, msg Outbound) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, msg Outbound) error { return f(ctx, msg) }

// SendWithRetry sends msg, retrying immediately on failure up to maxAttempts
// times in total. After the last attempt the last error is returned
// unchanged; the caller decides whether to surface it. A cancelled context
// stops the retries.
func SendWithRetry(ctx context.Context, s Sender, msg Outbound, maxAttempts int, logger *slog.Logger) error {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			if err := ctx.Err(); err != nil {
				return lastErr
			}
		}
		err := s.Send(ctx, msg)
		if err == nil {
			return nil
		}
		lastErr = err
		logger.Warn("send failed",
			"command", msg.Command,
			"attempt", attempt+1,
			"max_attempts", maxAttempts,
			"error", err,
		)
	}
	return lastErr
}
