package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emergencyworldwide/internal/app/ports"
	"emergencyworldwide/internal/domain/economy"
	"emergencyworldwide/internal/domain/fleet"
)

func TestTxManagerJoinsOuterTransaction(t *testing.T) {
	store := NewStore()
	tx := NewTxManager(store)

	done := make(chan error, 1)
	go func() {
		done <- tx.RunInTx(context.Background(), func(ctx context.Context) error {
			return tx.RunInTx(ctx, func(context.Context) error { return nil })
		})
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("nested RunInTx deadlocked")
	}
}

func TestTxManagerRollsBackOnError(t *testing.T) {
	store := NewStore()
	tx := NewTxManager(store)
	progression := NewProgressionRepo(store)
	vehicles := NewVehicleRepo(store)
	missions := NewMissionRepo(store)
	events := NewEventRepo(store)
	ctx := context.Background()

	require.NoError(t, tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := progression.SaveWithVersion(ctx, economy.Progression{Budget: 100, Version: 1}, 0); err != nil {
			return err
		}
		if err := vehicles.Create(ctx, fleet.Vehicle{ID: "v-1", Status: fleet.VehicleAvailable}); err != nil {
			return err
		}
		if err := missions.Create(ctx, fleet.Mission{ID: "m-1", Status: fleet.MissionActive}); err != nil {
			return err
		}
		return events.Append(ctx, []ports.Event{{Name: ports.EventNewMission}})
	}))

	errSettle := errors.New("settle failed")
	err := tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := progression.SaveWithVersion(ctx, economy.Progression{Budget: 40, Version: 2}, 1); err != nil {
			return err
		}
		if err := vehicles.Update(ctx, fleet.Vehicle{ID: "v-1", Status: fleet.VehicleDispatched, MissionID: "m-1"}); err != nil {
			return err
		}
		if err := vehicles.Create(ctx, fleet.Vehicle{ID: "v-2", Status: fleet.VehicleAvailable}); err != nil {
			return err
		}
		if err := missions.Update(ctx, fleet.Mission{ID: "m-1", Status: fleet.MissionCompleted}); err != nil {
			return err
		}
		if err := events.Append(ctx, []ports.Event{{Name: ports.EventMissionUpdated}}); err != nil {
			return err
		}
		// Nested calls join the outer transaction and roll back with it.
		return tx.RunInTx(ctx, func(context.Context) error { return errSettle })
	})
	require.ErrorIs(t, err, errSettle)

	p, err := progression.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(100), p.Budget)
	assert.Equal(t, int64(1), p.Version)

	v, err := vehicles.Get(ctx, "v-1")
	require.NoError(t, err)
	assert.Equal(t, fleet.VehicleAvailable, v.Status)
	assert.Empty(t, v.MissionID)
	_, err = vehicles.Get(ctx, "v-2")
	assert.ErrorIs(t, err, ports.ErrNotFound)

	m, err := missions.Get(ctx, "m-1")
	require.NoError(t, err)
	assert.Equal(t, fleet.MissionActive, m.Status)

	all, err := events.List(ctx, ports.EventQuery{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, ports.EventNewMission, all[0].Name)
}

func TestTxManagerSerializes(t *testing.T) {
	store := NewStore()
	tx := NewTxManager(store)
	repo := NewProgressionRepo(store)
	ctx := context.Background()

	require.NoError(t, tx.RunInTx(ctx, func(ctx context.Context) error {
		return repo.SaveWithVersion(ctx, economy.Progression{Budget: 0}, 0)
	}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = tx.RunInTx(ctx, func(ctx context.Context) error {
				p, err := repo.Get(ctx)
				if err != nil {
					return err
				}
				prev := p.Version
				p.Budget++
				p.Version++
				return repo.SaveWithVersion(ctx, p, prev)
			})
		}()
	}
	wg.Wait()

	p, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(50), p.Budget)
}

func TestProgressionRepoVersioning(t *testing.T) {
	store := NewStore()
	repo := NewProgressionRepo(store)
	ctx := context.Background()

	_, err := repo.Get(ctx)
	assert.ErrorIs(t, err, ports.ErrNotFound)
	assert.ErrorIs(t, repo.SaveWithVersion(ctx, economy.Progression{}, 3), ports.ErrConflict)
	require.NoError(t, repo.SaveWithVersion(ctx, economy.Progression{Budget: 10, Version: 1}, 0))
	assert.ErrorIs(t, repo.SaveWithVersion(ctx, economy.Progression{Budget: 20, Version: 2}, 0), ports.ErrConflict)
	require.NoError(t, repo.SaveWithVersion(ctx, economy.Progression{Budget: 20, Version: 2}, 1))

	p, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(20), p.Budget)
}

func TestVehicleRepoReturnsCopies(t *testing.T) {
	store := NewStore()
	repo := NewVehicleRepo(store)
	ctx := context.Background()
	until := time.Unix(100, 0)

	require.NoError(t, repo.Create(ctx, fleet.Vehicle{ID: "v-1", BuildingID: "b-1", Status: fleet.VehicleDispatched, BusyUntil: &until}))
	require.NoError(t, repo.Create(ctx, fleet.Vehicle{ID: "v-2", BuildingID: "b-2", Status: fleet.VehicleAvailable}))
	assert.ErrorIs(t, repo.Create(ctx, fleet.Vehicle{ID: "v-1"}), ports.ErrConflict)

	got, err := repo.Get(ctx, "v-1")
	require.NoError(t, err)
	*got.BusyUntil = time.Unix(999, 0)
	again, _ := repo.Get(ctx, "v-1")
	assert.True(t, again.BusyUntil.Equal(until))

	byBuilding, _ := repo.ListByBuilding(ctx, "b-2")
	require.Len(t, byBuilding, 1)
	assert.Equal(t, "v-2", byBuilding[0].ID)

	dispatched, _ := repo.ListByStatus(ctx, fleet.VehicleDispatched)
	require.Len(t, dispatched, 1)
	assert.Equal(t, "v-1", dispatched[0].ID)

	require.NoError(t, repo.Delete(ctx, "v-1"))
	_, err = repo.Get(ctx, "v-1")
	assert.True(t, errors.Is(err, ports.ErrNotFound))
	assert.ErrorIs(t, repo.Update(ctx, fleet.Vehicle{ID: "v-1"}), ports.ErrNotFound)
}

func TestMissionRepoListByStatusOrdersByCreation(t *testing.T) {
	store := NewStore()
	repo := NewMissionRepo(store)
	ctx := context.Background()
	base := time.Unix(1000, 0)

	require.NoError(t, repo.Create(ctx, fleet.Mission{ID: "m-2", Status: fleet.MissionActive, CreatedAt: base.Add(time.Second)}))
	require.NoError(t, repo.Create(ctx, fleet.Mission{ID: "m-1", Status: fleet.MissionActive, CreatedAt: base}))
	require.NoError(t, repo.Create(ctx, fleet.Mission{ID: "m-3", Status: fleet.MissionExpired, CreatedAt: base}))

	active, err := repo.ListByStatus(ctx, fleet.MissionActive)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "m-1", active[0].ID)
	assert.Equal(t, "m-2", active[1].ID)

	all, _ := repo.ListByStatus(ctx)
	assert.Len(t, all, 3)
}

func TestEventRepoListNewestFirst(t *testing.T) {
	store := NewStore()
	repo := NewEventRepo(store)
	ctx := context.Background()
	base := time.Unix(1000, 0)

	require.NoError(t, repo.Append(ctx, []ports.Event{
		{Name: ports.EventNewMission, OccurredAt: base},
		{Name: ports.EventMissionUpdated, OccurredAt: base.Add(time.Minute)},
		{Name: ports.EventNewMission, OccurredAt: base.Add(2 * time.Minute)},
	}))

	got, err := repo.List(ctx, ports.EventQuery{Name: ports.EventNewMission})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].OccurredAt.After(got[1].OccurredAt))

	from := base.Add(30 * time.Second)
	windowed, _ := repo.List(ctx, ports.EventQuery{From: &from, Limit: 1})
	require.Len(t, windowed, 1)
	assert.Equal(t, ports.EventNewMission, windowed[0].Name)
}
