package audit

import (
	"context"
	"log/slog"
)

// Worker drains audit events from a channel into a sink, decoupling the
// domain path from sink latency. Emission through the worker is best-effort:
// a full inbox drops the event rather than blocking an admission.
type Worker struct {
	sink   Sink
	inbox  chan Event
	logger *slog.Logger
}

func NewWorker(sink Sink, buffer int, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: make(chan Event, buffer), logger: logger}
}

// Append queues an event for background persistence, making the worker itself
// a Sink that can sit between the publisher and a slow backing sink.
func (w *Worker) Append(ctx context.Context, event Event) error {
	select {
	case w.inbox <- event:
	default:
		w.logger.WarnContext(ctx, "audit inbox full, dropping event",
			"action", string(event.Action), "owner", event.Owner)
	}
	return nil
}

// Run consumes the inbox until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit append failed",
					"action", string(event.Action), "owner", event.Owner, "error", err)
			}
		}
	}
}
