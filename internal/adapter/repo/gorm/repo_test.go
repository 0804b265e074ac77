package gormrepo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"emergencyworldwide/internal/app/ledger"
	"emergencyworldwide/internal/app/ports"
	"emergencyworldwide/internal/domain/economy"
	"emergencyworldwide/internal/domain/fleet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, ApplyMigrations(context.Background(), db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, ApplyMigrations(ctx, db))

	versions, err := AppliedMigrations(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_core_tables", "0002_game_events"}, versions)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("mysql", "dsn")
	require.Error(t, err)
}

func TestProgressionRepo_VersionedSave(t *testing.T) {
	db := openTestDB(t)
	repo := NewProgressionRepo(db)
	ctx := context.Background()

	_, err := repo.Get(ctx)
	require.ErrorIs(t, err, ports.ErrNotFound)

	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	p := economy.DefaultRules().NewProgression(now)
	p.Version = 1
	require.NoError(t, repo.SaveWithVersion(ctx, p, 0))
	require.ErrorIs(t, repo.SaveWithVersion(ctx, p, 0), ports.ErrConflict)

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(500000), got.Budget)
	assert.Equal(t, 1, got.Rank)
	assert.True(t, got.LastIncomeAt.Equal(now))

	got.Budget = 300000
	got.SeasonPass = true
	got.Version = 2
	require.NoError(t, repo.SaveWithVersion(ctx, got, 1))
	require.ErrorIs(t, repo.SaveWithVersion(ctx, got, 1), ports.ErrConflict)

	got, err = repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(300000), got.Budget)
	assert.True(t, got.SeasonPass)
	assert.Equal(t, int64(2), got.Version)
}

func TestBuildingAndVehicleRepos_Lifecycle(t *testing.T) {
	db := openTestDB(t)
	buildings := NewBuildingRepo(db)
	vehicles := NewVehicleRepo(db)
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	b := fleet.Building{ID: "b-1", Type: "fire_station", Location: fleet.Location{Lat: -37.81, Lon: 144.96}, Cost: 200000, CreatedAt: now}
	require.NoError(t, buildings.Create(ctx, b))
	require.ErrorIs(t, buildings.Create(ctx, b), ports.ErrConflict)

	gotB, err := buildings.Get(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, b.Location, gotB.Location)
	assert.Equal(t, "fire_station", gotB.Type)

	for i, id := range []string{"v-1", "v-2"} {
		require.NoError(t, vehicles.Create(ctx, fleet.Vehicle{
			ID: id, Type: "fire_truck", BuildingID: "b-1", Cost: 50000,
			Status: fleet.VehicleAvailable, CreatedAt: now.Add(time.Duration(i) * time.Second),
		}))
	}

	v, err := vehicles.Get(ctx, "v-1")
	require.NoError(t, err)
	require.NoError(t, v.Allocate("m-1", now.Add(30*time.Second)))
	require.NoError(t, vehicles.Update(ctx, v))

	busy, err := vehicles.ListByStatus(ctx, fleet.VehicleDispatched)
	require.NoError(t, err)
	require.Len(t, busy, 1)
	assert.Equal(t, "m-1", busy[0].MissionID)
	require.NotNil(t, busy[0].BusyUntil)
	assert.True(t, busy[0].BusyUntil.Equal(now.Add(30*time.Second)))

	v = busy[0]
	require.True(t, v.Release())
	require.NoError(t, vehicles.Update(ctx, v))
	got, err := vehicles.Get(ctx, "v-1")
	require.NoError(t, err)
	assert.True(t, got.Available())
	assert.Empty(t, got.MissionID)
	assert.Nil(t, got.BusyUntil)

	attached, err := vehicles.ListByBuilding(ctx, "b-1")
	require.NoError(t, err)
	require.Len(t, attached, 2)
	assert.Equal(t, "v-1", attached[0].ID)

	require.NoError(t, vehicles.Delete(ctx, "v-2"))
	require.ErrorIs(t, vehicles.Delete(ctx, "v-2"), ports.ErrNotFound)
	require.ErrorIs(t, vehicles.Update(ctx, fleet.Vehicle{ID: "v-2"}), ports.ErrNotFound)

	require.NoError(t, buildings.Delete(ctx, "b-1"))
	_, err = buildings.Get(ctx, "b-1")
	require.ErrorIs(t, err, ports.ErrNotFound)
	all, err := buildings.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestMissionRepo_StatusFilterAndVehicleIDs(t *testing.T) {
	db := openTestDB(t)
	repo := NewMissionRepo(db)
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	exp := now.Add(2 * time.Minute)

	for i, id := range []string{"m-1", "m-2", "m-3"} {
		require.NoError(t, repo.Create(ctx, fleet.Mission{
			ID: id, Type: "bush_fire", Description: "Grass fire",
			Location: fleet.Location{Lat: 1, Lon: 2}, Status: fleet.MissionActive,
			Reward: fleet.Reward{XP: 300, Currency: 5000}, AnchorBuildingID: "b-1",
			CreatedAt: now.Add(time.Duration(i) * time.Second), ExpiresAt: &exp,
		}))
	}

	m, err := repo.Get(ctx, "m-2")
	require.NoError(t, err)
	assert.Nil(t, m.VehicleIDs)
	require.NoError(t, m.Assign([]string{"v-1", "v-2"}, now))
	require.NoError(t, repo.Update(ctx, m))

	m3, err := repo.Get(ctx, "m-3")
	require.NoError(t, err)
	require.NoError(t, m3.Expire())
	require.NoError(t, repo.Update(ctx, m3))

	got, err := repo.Get(ctx, "m-2")
	require.NoError(t, err)
	assert.Equal(t, fleet.MissionAssigned, got.Status)
	assert.Equal(t, []string{"v-1", "v-2"}, got.VehicleIDs)
	assert.Equal(t, fleet.Reward{XP: 300, Currency: 5000}, got.Reward)
	require.NotNil(t, got.AssignedAt)

	open, err := repo.ListByStatus(ctx, fleet.MissionActive, fleet.MissionAssigned)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, "m-1", open[0].ID)
	assert.Equal(t, "m-2", open[1].ID)

	all, err := repo.ListByStatus(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestEventRepo_NewestFirstWithFilters(t *testing.T) {
	db := openTestDB(t)
	repo := NewEventRepo(db)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Append(ctx, []ports.Event{
		{Name: ports.EventNewMission, OccurredAt: base, Payload: map[string]any{"mission_id": "m-1"}},
		{Name: ports.EventMissionUpdated, OccurredAt: base.Add(time.Minute), Payload: map[string]any{"mission_id": "m-1", "xp_gained": 300}},
		{Name: ports.EventNewMission, OccurredAt: base.Add(2 * time.Minute), Payload: map[string]any{"mission_id": "m-2"}},
	}))

	all, err := repo.List(ctx, ports.EventQuery{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "m-2", all[0].Payload["mission_id"])
	assert.Equal(t, float64(300), all[1].Payload["xp_gained"])

	from := base.Add(30 * time.Second)
	spawned, err := repo.List(ctx, ports.EventQuery{Name: ports.EventNewMission, From: &from})
	require.NoError(t, err)
	require.Len(t, spawned, 1)
	assert.Equal(t, "m-2", spawned[0].Payload["mission_id"])

	limited, err := repo.List(ctx, ports.EventQuery{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestTxManager_RollsBackAndJoins(t *testing.T) {
	db := openTestDB(t)
	tx := NewTxManager(db)
	buildings := NewBuildingRepo(db)
	ctx := context.Background()
	boom := errors.New("boom")

	err := tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := buildings.Create(ctx, fleet.Building{ID: "b-1", Type: "fire_station", CreatedAt: time.Now()}); err != nil {
			return err
		}
		return tx.RunInTx(ctx, func(ctx context.Context) error {
			_, err := buildings.Get(ctx, "b-1")
			require.NoError(t, err)
			return boom
		})
	})
	require.ErrorIs(t, err, boom)

	_, err = buildings.Get(ctx, "b-1")
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestLedgerOverSQLite_ConcurrentDebits(t *testing.T) {
	db := openTestDB(t)
	uc := ledger.UseCase{
		TxManager:       NewTxManager(db),
		Progression:     NewProgressionRepo(db),
		Rules:           economy.DefaultRules(),
		SeasonPassPrice: 1000,
		Now:             func() time.Time { return time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC) },
	}
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 15; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := uc.Debit(ctx, 50000); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	p, err := uc.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), p.Budget)
}
