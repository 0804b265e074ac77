package ports

import (
	"context"
	"time"

	"emergencyworldwide/internal/domain/economy"
	"emergencyworldwide/internal/domain/fleet"
)

// ProgressionRepository stores the singleton progression record.
// Get returns ErrNotFound before the first Save.
type ProgressionRepository interface {
	Get(ctx context.Context) (economy.Progression, error)
	// SaveWithVersion creates the record when expectedVersion is 0 and
	// otherwise fails with ErrConflict unless the stored version matches.
	SaveWithVersion(ctx context.Context, p economy.Progression, expectedVersion int64) error
}

type BuildingRepository interface {
	Create(ctx context.Context, b fleet.Building) error
	Get(ctx context.Context, id string) (fleet.Building, error)
	List(ctx context.Context) ([]fleet.Building, error)
	Delete(ctx context.Context, id string) error
}

type VehicleRepository interface {
	Create(ctx context.Context, v fleet.Vehicle) error
	Get(ctx context.Context, id string) (fleet.Vehicle, error)
	Update(ctx context.Context, v fleet.Vehicle) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]fleet.Vehicle, error)
	ListByBuilding(ctx context.Context, buildingID string) ([]fleet.Vehicle, error)
	ListByStatus(ctx context.Context, status fleet.VehicleStatus) ([]fleet.Vehicle, error)
}

type MissionRepository interface {
	Create(ctx context.Context, m fleet.Mission) error
	Get(ctx context.Context, id string) (fleet.Mission, error)
	Update(ctx context.Context, m fleet.Mission) error
	// ListByStatus returns missions ordered by creation time. No statuses means all.
	ListByStatus(ctx context.Context, statuses ...fleet.MissionStatus) ([]fleet.Mission, error)
}

type EventQuery struct {
	Name  string
	From  *time.Time
	To    *time.Time
	Limit int
}

// EventRepository is the append-only journal of published events.
type EventRepository interface {
	Append(ctx context.Context, events []Event) error
	// List returns the newest events first.
	List(ctx context.Context, q EventQuery) ([]Event, error)
}
