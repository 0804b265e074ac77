package memory

import (
	"context"
	"sort"

	"emergencyworldwide/internal/app/ports"
	"emergencyworldwide/internal/domain/fleet"
)

type BuildingRepo struct {
	store *Store
}

func NewBuildingRepo(store *Store) BuildingRepo {
	return BuildingRepo{store: store}
}

func (r BuildingRepo) Create(_ context.Context, b fleet.Building) error {
	if _, exists := r.store.buildings[b.ID]; exists {
		return ports.ErrConflict
	}
	r.store.buildings[b.ID] = b
	return nil
}

func (r BuildingRepo) Get(_ context.Context, id string) (fleet.Building, error) {
	b, ok := r.store.buildings[id]
	if !ok {
		return fleet.Building{}, ports.ErrNotFound
	}
	return b, nil
}

func (r BuildingRepo) List(_ context.Context) ([]fleet.Building, error) {
	out := make([]fleet.Building, 0, len(r.store.buildings))
	for _, b := range r.store.buildings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r BuildingRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.store.buildings[id]; !ok {
		return ports.ErrNotFound
	}
	delete(r.store.buildings, id)
	return nil
}
