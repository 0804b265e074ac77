// Package model holds the gorm table models of the game store.
package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	TableNameProgression     = "progressions"
	TableNameBuilding        = "buildings"
	TableNameVehicle         = "vehicles"
	TableNameMission         = "missions"
	TableNameGameEvent       = "game_events"
	TableNameSchemaMigration = "schema_migrations"
)

// ProgressionID is the primary key of the single progression row.
const ProgressionID = 1

type Progression struct {
	ID                int64     `gorm:"column:id;primaryKey;autoIncrement:false" json:"id"`
	Budget            int64     `gorm:"column:budget;not null" json:"budget"`
	Xp                int64     `gorm:"column:xp;not null" json:"xp"`
	Rank              int32     `gorm:"column:rank;not null" json:"rank"`
	SeasonPass        bool      `gorm:"column:season_pass;not null" json:"season_pass"`
	SeasonXp          int64     `gorm:"column:season_xp;not null" json:"season_xp"`
	SeasonLevel       int32     `gorm:"column:season_level;not null" json:"season_level"`
	MissionsCompleted int64     `gorm:"column:missions_completed;not null" json:"missions_completed"`
	MissionsExpired   int64     `gorm:"column:missions_expired;not null" json:"missions_expired"`
	LastIncomeAt      time.Time `gorm:"column:last_income_at;not null" json:"last_income_at"`
	Version           int64     `gorm:"column:version;not null" json:"version"`
	UpdatedAt         time.Time `gorm:"column:updated_at;not null;autoUpdateTime:false" json:"updated_at"`
}

func (*Progression) TableName() string { return TableNameProgression }

type Building struct {
	ID        string    `gorm:"column:id;primaryKey;size:64" json:"id"`
	Type      string    `gorm:"column:type;not null;size:64" json:"type"`
	Lat       float64   `gorm:"column:lat;not null" json:"lat"`
	Lon       float64   `gorm:"column:lon;not null" json:"lon"`
	Cost      int64     `gorm:"column:cost;not null" json:"cost"`
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime:false;index" json:"created_at"`
}

func (*Building) TableName() string { return TableNameBuilding }

type Vehicle struct {
	ID         string     `gorm:"column:id;primaryKey;size:64" json:"id"`
	Type       string     `gorm:"column:type;not null;size:64" json:"type"`
	BuildingID string     `gorm:"column:building_id;not null;size:64;index" json:"building_id"`
	Cost       int64      `gorm:"column:cost;not null" json:"cost"`
	Status     string     `gorm:"column:status;not null;size:16;index" json:"status"`
	MissionID  string     `gorm:"column:mission_id;not null;size:64;default:''" json:"mission_id"`
	BusyUntil  *time.Time `gorm:"column:busy_until" json:"busy_until"`
	CreatedAt  time.Time  `gorm:"column:created_at;not null;autoCreateTime:false" json:"created_at"`
}

func (*Vehicle) TableName() string { return TableNameVehicle }

type Mission struct {
	ID               string         `gorm:"column:id;primaryKey;size:64" json:"id"`
	Type             string         `gorm:"column:type;not null;size:64" json:"type"`
	Description      string         `gorm:"column:description;not null;default:''" json:"description"`
	Lat              float64        `gorm:"column:lat;not null" json:"lat"`
	Lon              float64        `gorm:"column:lon;not null" json:"lon"`
	Status           string         `gorm:"column:status;not null;size:16;index" json:"status"`
	RewardXp         int64          `gorm:"column:reward_xp;not null" json:"reward_xp"`
	RewardCurrency   int64          `gorm:"column:reward_currency;not null" json:"reward_currency"`
	AnchorBuildingID string         `gorm:"column:anchor_building_id;not null;size:64;default:''" json:"anchor_building_id"`
	VehicleIds       datatypes.JSON `gorm:"column:vehicle_ids" json:"vehicle_ids"`
	CreatedAt        time.Time      `gorm:"column:created_at;not null;autoCreateTime:false;index" json:"created_at"`
	ExpiresAt        *time.Time     `gorm:"column:expires_at" json:"expires_at"`
	AssignedAt       *time.Time     `gorm:"column:assigned_at" json:"assigned_at"`
	CompletedAt      *time.Time     `gorm:"column:completed_at" json:"completed_at"`
}

func (*Mission) TableName() string { return TableNameMission }

type GameEvent struct {
	ID         int64          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name       string         `gorm:"column:name;not null;size:64;index" json:"name"`
	OccurredAt time.Time      `gorm:"column:occurred_at;not null;index" json:"occurred_at"`
	Payload    datatypes.JSON `gorm:"column:payload" json:"payload"`
}

func (*GameEvent) TableName() string { return TableNameGameEvent }

type SchemaMigration struct {
	Version   string    `gorm:"column:version;primaryKey;size:64" json:"version"`
	AppliedAt time.Time `gorm:"column:applied_at;not null" json:"applied_at"`
}

func (*SchemaMigration) TableName() string { return TableNameSchemaMigration }
