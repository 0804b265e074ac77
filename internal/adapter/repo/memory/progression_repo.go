package memory

import (
	"context"

	"emergencyworldwide/internal/app/ports"
	"emergencyworldwide/internal/domain/economy"
)

type ProgressionRepo struct {
	store *Store
}

func NewProgressionRepo(store *Store) ProgressionRepo {
	return ProgressionRepo{store: store}
}

func (r ProgressionRepo) Get(_ context.Context) (economy.Progression, error) {
	if r.store.progression == nil {
		return economy.Progression{}, ports.ErrNotFound
	}
	return *r.store.progression, nil
}

func (r ProgressionRepo) SaveWithVersion(_ context.Context, p economy.Progression, expectedVersion int64) error {
	current := r.store.progression
	if current == nil {
		if expectedVersion != 0 {
			return ports.ErrConflict
		}
		r.store.progression = &p
		return nil
	}
	if current.Version != expectedVersion {
		return ports.ErrConflict
	}
	r.store.progression = &p
	return nil
}
