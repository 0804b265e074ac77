package ports

import (
	"context"
	"time"
)

const (
	EventNewMission      = "new_mission"
	EventMissionExpired  = "mission_expired"
	EventMissionUpdated  = "mission_updated"
	EventVehicleReleased = "vehicle_released"
	EventStateUpdated    = "state_updated"
)

type Event struct {
	Name       string         `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// Publisher delivers events to subscribers. Callers treat delivery as
// fire-and-forget and only log returned errors.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
