package memory

import (
	"context"

	"emergencyworldwide/internal/app/ports"
)

type EventRepo struct {
	store *Store
}

func NewEventRepo(store *Store) EventRepo {
	return EventRepo{store: store}
}

func (r EventRepo) Append(_ context.Context, events []ports.Event) error {
	r.store.events = append(r.store.events, events...)
	return nil
}

func (r EventRepo) List(_ context.Context, q ports.EventQuery) ([]ports.Event, error) {
	out := make([]ports.Event, 0)
	for i := len(r.store.events) - 1; i >= 0; i-- {
		e := r.store.events[i]
		if q.Name != "" && e.Name != q.Name {
			continue
		}
		if q.From != nil && e.OccurredAt.Before(*q.From) {
			continue
		}
		if q.To != nil && e.OccurredAt.After(*q.To) {
			continue
		}
		out = append(out, e)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out, nil
}
