package memory

import (
	"context"
	"sort"

	"emergencyworldwide/internal/app/ports"
	"emergencyworldwide/internal/domain/fleet"
)

type VehicleRepo struct {
	store *Store
}

func NewVehicleRepo(store *Store) VehicleRepo {
	return VehicleRepo{store: store}
}

func (r VehicleRepo) Create(_ context.Context, v fleet.Vehicle) error {
	if _, exists := r.store.vehicles[v.ID]; exists {
		return ports.ErrConflict
	}
	r.store.vehicles[v.ID] = cloneVehicle(v)
	return nil
}

func (r VehicleRepo) Get(_ context.Context, id string) (fleet.Vehicle, error) {
	v, ok := r.store.vehicles[id]
	if !ok {
		return fleet.Vehicle{}, ports.ErrNotFound
	}
	return cloneVehicle(v), nil
}

func (r VehicleRepo) Update(_ context.Context, v fleet.Vehicle) error {
	if _, ok := r.store.vehicles[v.ID]; !ok {
		return ports.ErrNotFound
	}
	r.store.vehicles[v.ID] = cloneVehicle(v)
	return nil
}

func (r VehicleRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.store.vehicles[id]; !ok {
		return ports.ErrNotFound
	}
	delete(r.store.vehicles, id)
	return nil
}

func (r VehicleRepo) List(_ context.Context) ([]fleet.Vehicle, error) {
	return r.filter(func(fleet.Vehicle) bool { return true }), nil
}

func (r VehicleRepo) ListByBuilding(_ context.Context, buildingID string) ([]fleet.Vehicle, error) {
	return r.filter(func(v fleet.Vehicle) bool { return v.BuildingID == buildingID }), nil
}

func (r VehicleRepo) ListByStatus(_ context.Context, status fleet.VehicleStatus) ([]fleet.Vehicle, error) {
	return r.filter(func(v fleet.Vehicle) bool { return v.Status == status }), nil
}

func (r VehicleRepo) filter(keep func(fleet.Vehicle) bool) []fleet.Vehicle {
	out := make([]fleet.Vehicle, 0)
	for _, v := range r.store.vehicles {
		if keep(v) {
			out = append(out, cloneVehicle(v))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func cloneVehicle(v fleet.Vehicle) fleet.Vehicle {
	if v.BusyUntil != nil {
		until := *v.BusyUntil
		v.BusyUntil = &until
	}
	return v
}
