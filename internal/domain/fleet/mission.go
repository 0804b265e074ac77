package fleet

import (
	"fmt"
	"time"
)

// DeadlinePassed reports whether the mission has an expiry at or before now.
func (m Mission) DeadlinePassed(now time.Time) bool {
	return m.ExpiresAt != nil && !now.Before(*m.ExpiresAt)
}

// Dispatchable reports whether vehicles may still be sent: the mission is
// active and its deadline has not passed, swept or not.
func (m Mission) Dispatchable(now time.Time) bool {
	return m.Status == MissionActive && !m.DeadlinePassed(now)
}

// Assign moves an active mission to assigned with the dispatched vehicles.
func (m *Mission) Assign(vehicleIDs []string, now time.Time) error {
	if m.Status != MissionActive {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.Status, MissionAssigned)
	}
	m.Status = MissionAssigned
	m.VehicleIDs = append([]string(nil), vehicleIDs...)
	m.AssignedAt = &now
	return nil
}

// Resolve completes an active mission in one step, for instant resolution.
func (m *Mission) Resolve(vehicleIDs []string, now time.Time) error {
	if m.Status != MissionActive {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.Status, MissionCompleted)
	}
	m.Status = MissionCompleted
	m.VehicleIDs = append([]string(nil), vehicleIDs...)
	m.AssignedAt = &now
	m.CompletedAt = &now
	return nil
}

func (m *Mission) Complete(now time.Time) error {
	if m.Status != MissionAssigned {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.Status, MissionCompleted)
	}
	m.Status = MissionCompleted
	m.CompletedAt = &now
	return nil
}

func (m *Mission) Expire() error {
	if m.Status != MissionActive {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.Status, MissionExpired)
	}
	m.Status = MissionExpired
	return nil
}
