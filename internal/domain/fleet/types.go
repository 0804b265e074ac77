package fleet

import (
	"errors"
	"math"
	"time"
)

var (
	ErrBuildingNotFound        = errors.New("building not found")
	ErrVehicleNotFound         = errors.New("vehicle not found")
	ErrMissionNotFound         = errors.New("mission not found")
	ErrHasAttachedVehicles     = errors.New("building has attached vehicles")
	ErrVehicleNotAvailable     = errors.New("vehicle not available")
	ErrVehicleBusy             = errors.New("vehicle busy")
	ErrVehicleAlreadyAssigned  = errors.New("vehicle already assigned")
	ErrVehicleNotAllowed       = errors.New("vehicle type not allowed at building")
	ErrIncompatibleVehicleType = errors.New("incompatible vehicle type")
	ErrMissionNotActive        = errors.New("mission not active")
	ErrMissionNotAssigned      = errors.New("mission not assigned")
	ErrInvalidLocation         = errors.New("invalid location")
	ErrInvalidTransition       = errors.New("invalid state transition")
)

type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (l Location) Valid() bool {
	if math.IsNaN(l.Lat) || math.IsNaN(l.Lon) || math.IsInf(l.Lat, 0) || math.IsInf(l.Lon, 0) {
		return false
	}
	return l.Lat >= -90 && l.Lat <= 90 && l.Lon >= -180 && l.Lon <= 180
}

// Offset moves the location by the given degrees. Latitude is clamped to the
// poles and longitude wraps around the antimeridian.
func (l Location) Offset(dLat, dLon float64) Location {
	lat := math.Max(-90, math.Min(90, l.Lat+dLat))
	lon := l.Lon + dLon
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return Location{Lat: lat, Lon: lon}
}

type Building struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Location  Location  `json:"location"`
	Cost      int64     `json:"cost"`
	CreatedAt time.Time `json:"created_at"`
}

type VehicleStatus string

const (
	VehicleAvailable  VehicleStatus = "available"
	VehicleDispatched VehicleStatus = "dispatched"
)

type Vehicle struct {
	ID         string        `json:"id"`
	Type       string        `json:"type"`
	BuildingID string        `json:"building_id"`
	Cost       int64         `json:"cost"`
	Status     VehicleStatus `json:"status"`
	MissionID  string        `json:"mission_id,omitempty"`
	BusyUntil  *time.Time    `json:"busy_until,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

func (v Vehicle) Available() bool { return v.Status == VehicleAvailable }

// Allocate binds an available vehicle to a mission until the release deadline.
func (v *Vehicle) Allocate(missionID string, until time.Time) error {
	if !v.Available() {
		return ErrVehicleNotAvailable
	}
	v.Status = VehicleDispatched
	v.MissionID = missionID
	v.BusyUntil = &until
	return nil
}

// Release clears the allocation. It reports false when the vehicle was already available.
func (v *Vehicle) Release() bool {
	if v.Available() {
		return false
	}
	v.Status = VehicleAvailable
	v.MissionID = ""
	v.BusyUntil = nil
	return true
}

type MissionStatus string

const (
	MissionActive    MissionStatus = "active"
	MissionAssigned  MissionStatus = "assigned"
	MissionCompleted MissionStatus = "completed"
	MissionExpired   MissionStatus = "expired"
)

func (s MissionStatus) Terminal() bool {
	return s == MissionCompleted || s == MissionExpired
}

func (s MissionStatus) Valid() bool {
	switch s {
	case MissionActive, MissionAssigned, MissionCompleted, MissionExpired:
		return true
	default:
		return false
	}
}

type Reward struct {
	XP       int64 `json:"xp"`
	Currency int64 `json:"currency"`
}

type Mission struct {
	ID               string        `json:"id"`
	Type             string        `json:"type"`
	Description      string        `json:"description,omitempty"`
	Location         Location      `json:"location"`
	Status           MissionStatus `json:"status"`
	Reward           Reward        `json:"reward"`
	AnchorBuildingID string        `json:"anchor_building_id,omitempty"`
	VehicleIDs       []string      `json:"vehicle_ids,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	ExpiresAt        *time.Time    `json:"expires_at,omitempty"`
	AssignedAt       *time.Time    `json:"assigned_at,omitempty"`
	CompletedAt      *time.Time    `json:"completed_at,omitempty"`
}
