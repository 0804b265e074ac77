package memory

import (
	"context"
	"sort"
	"time"

	"emergencyworldwide/internal/app/ports"
	"emergencyworldwide/internal/domain/fleet"
)

type MissionRepo struct {
	store *Store
}

func NewMissionRepo(store *Store) MissionRepo {
	return MissionRepo{store: store}
}

func (r MissionRepo) Create(_ context.Context, m fleet.Mission) error {
	if _, exists := r.store.missions[m.ID]; exists {
		return ports.ErrConflict
	}
	r.store.missions[m.ID] = cloneMission(m)
	return nil
}

func (r MissionRepo) Get(_ context.Context, id string) (fleet.Mission, error) {
	m, ok := r.store.missions[id]
	if !ok {
		return fleet.Mission{}, ports.ErrNotFound
	}
	return cloneMission(m), nil
}

func (r MissionRepo) Update(_ context.Context, m fleet.Mission) error {
	if _, ok := r.store.missions[m.ID]; !ok {
		return ports.ErrNotFound
	}
	r.store.missions[m.ID] = cloneMission(m)
	return nil
}

func (r MissionRepo) ListByStatus(_ context.Context, statuses ...fleet.MissionStatus) ([]fleet.Mission, error) {
	want := make(map[fleet.MissionStatus]struct{}, len(statuses))
	for _, s := range statuses {
		want[s] = struct{}{}
	}
	out := make([]fleet.Mission, 0)
	for _, m := range r.store.missions {
		if len(want) > 0 {
			if _, ok := want[m.Status]; !ok {
				continue
			}
		}
		out = append(out, cloneMission(m))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func cloneMission(m fleet.Mission) fleet.Mission {
	m.VehicleIDs = append([]string(nil), m.VehicleIDs...)
	m.ExpiresAt = cloneTime(m.ExpiresAt)
	m.AssignedAt = cloneTime(m.AssignedAt)
	m.CompletedAt = cloneTime(m.CompletedAt)
	return m
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
