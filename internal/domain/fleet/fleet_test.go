package fleet

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestLocationValid(t *testing.T) {
	tests := []struct {
		loc  Location
		want bool
	}{
		{Location{Lat: -37.81, Lon: 144.96}, true},
		{Location{Lat: 90, Lon: -180}, true},
		{Location{Lat: 90.1, Lon: 0}, false},
		{Location{Lat: 0, Lon: 181}, false},
		{Location{Lat: math.NaN(), Lon: 0}, false},
	}
	for _, tt := range tests {
		if got := tt.loc.Valid(); got != tt.want {
			t.Fatalf("Valid(%+v): got=%v want=%v", tt.loc, got, tt.want)
		}
	}
}

func TestLocationOffsetStaysOnGlobe(t *testing.T) {
	got := Location{Lat: 89.995, Lon: 179.995}.Offset(0.01, 0.01)
	if !got.Valid() {
		t.Fatalf("offset left the globe: %+v", got)
	}
	if got.Lat != 90 {
		t.Fatalf("latitude should clamp: %+v", got)
	}
	if got.Lon > -179.99 || got.Lon < -180 {
		t.Fatalf("longitude should wrap: %+v", got)
	}
}

func TestVehicleAllocateRelease(t *testing.T) {
	v := Vehicle{ID: "v-1", Status: VehicleAvailable}
	until := time.Unix(100, 0)
	if err := v.Allocate("m-1", until); err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if v.Status != VehicleDispatched || v.MissionID != "m-1" || v.BusyUntil == nil || !v.BusyUntil.Equal(until) {
		t.Fatalf("unexpected vehicle: %+v", v)
	}
	if err := v.Allocate("m-2", until); !errors.Is(err, ErrVehicleNotAvailable) {
		t.Fatalf("expected ErrVehicleNotAvailable, got %v", err)
	}
	if !v.Release() {
		t.Fatal("expected release to change state")
	}
	if v.Release() {
		t.Fatal("second release must be a no-op")
	}
	if v.MissionID != "" || v.BusyUntil != nil {
		t.Fatalf("allocation not cleared: %+v", v)
	}
}

func TestMissionTransitions(t *testing.T) {
	now := time.Unix(1000, 0)

	m := Mission{ID: "m-1", Status: MissionActive}
	if err := m.Complete(now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("active mission cannot complete without assignment: %v", err)
	}
	if err := m.Assign([]string{"v-1"}, now); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := m.Expire(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("assigned mission cannot expire: %v", err)
	}
	if err := m.Complete(now); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !m.Status.Terminal() || m.CompletedAt == nil {
		t.Fatalf("unexpected mission: %+v", m)
	}

	instant := Mission{ID: "m-2", Status: MissionActive}
	if err := instant.Resolve([]string{"v-1", "v-2"}, now); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if instant.Status != MissionCompleted || len(instant.VehicleIDs) != 2 {
		t.Fatalf("unexpected mission: %+v", instant)
	}

	expired := Mission{ID: "m-3", Status: MissionActive}
	if err := expired.Expire(); err != nil {
		t.Fatalf("expire: %v", err)
	}
	if err := expired.Assign([]string{"v-1"}, now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expired is absorbing: %v", err)
	}
}

func TestMissionDeadline(t *testing.T) {
	created := time.Unix(0, 0)
	deadline := created.Add(2 * time.Minute)
	m := Mission{Status: MissionActive, CreatedAt: created, ExpiresAt: &deadline}

	if !m.Dispatchable(created.Add(time.Minute)) {
		t.Fatal("mission should be dispatchable before its deadline")
	}
	if m.Dispatchable(deadline) {
		t.Fatal("mission must not be dispatchable at its deadline")
	}

	open := Mission{Status: MissionActive}
	if open.DeadlinePassed(created.Add(1000 * time.Hour)) {
		t.Fatal("mission without expiry never expires")
	}
}
