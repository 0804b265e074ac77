// Package notify holds the publishers that sit behind ports.Publisher.
package notify

import (
	"context"
	"errors"
	"log/slog"

	"emergencyworldwide/internal/app/ports"
)

// Multi delivers every event to each publisher and joins their errors.
type Multi []ports.Publisher

func (m Multi) Publish(ctx context.Context, evt ports.Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Log writes each event as a debug line.
type Log struct {
	Logger *slog.Logger
}

func (l Log) Publish(ctx context.Context, evt ports.Event) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{"event", evt.Name, "occurred_at", evt.OccurredAt}
	if id, ok := evt.Payload["mission_id"]; ok {
		attrs = append(attrs, "mission_id", id)
	}
	if id, ok := evt.Payload["vehicle_id"]; ok {
		attrs = append(attrs, "vehicle_id", id)
	}
	logger.DebugContext(ctx, "event published", attrs...)
	return nil
}
