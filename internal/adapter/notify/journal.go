package notify

import (
	"context"

	"emergencyworldwide/internal/app/ports"
)

// Journal appends every published event to the event repository so it can
// be replayed later.
type Journal struct {
	TxManager ports.TxManager
	Events    ports.EventRepository
}

func (j Journal) Publish(ctx context.Context, evt ports.Event) error {
	return j.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		return j.Events.Append(txCtx, []ports.Event{evt})
	})
}
