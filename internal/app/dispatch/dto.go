package dispatch

import (
	"time"

	"emergencyworldwide/internal/app/ledger"
	"emergencyworldwide/internal/domain/fleet"
)

type Request struct {
	MissionID  string   `json:"mission_id"`
	VehicleIDs []string `json:"vehicle_ids"`
}

type Response struct {
	Mission    fleet.Mission      `json:"mission"`
	Vehicles   []fleet.Vehicle    `json:"vehicles"`
	ReleaseAt  time.Time          `json:"release_at"`
	Settlement *ledger.Settlement `json:"settlement,omitempty"`
}

type CompleteResponse struct {
	Mission    fleet.Mission     `json:"mission"`
	Settlement ledger.Settlement `json:"settlement"`
}

type RecoverReport struct {
	Released int `json:"released"`
	Rearmed  int `json:"rearmed"`
}

const (
	FilterActive = "active"
	// FilterOpen lists missions that are active or assigned.
	FilterOpen = "open"
	FilterAll  = "all"
)
