package inmemory

import "testing"

func TestRecorderSnapshot(t *testing.T) {
	r := NewRecorder()
	r.RecordMissionSpawned("bush_fire")
	r.RecordMissionSpawned("bush_fire")
	r.RecordMissionSpawned("medical")
	r.RecordMissionExpired()
	r.RecordDispatch(2)
	r.RecordMissionCompleted()
	r.RecordPurchase("building")
	r.RecordRefund("vehicle")
	r.RecordRejection("insufficient_funds")
	r.RecordTickFailure()

	s := r.Snapshot()
	if s.MissionsSpawned != 3 {
		t.Fatalf("expected spawned 3, got %d", s.MissionsSpawned)
	}
	if s.SpawnedByType["bush_fire"] != 2 || s.SpawnedByType["medical"] != 1 {
		t.Fatalf("unexpected spawned by type: %v", s.SpawnedByType)
	}
	if s.Dispatches != 1 || s.VehiclesSent != 2 {
		t.Fatalf("unexpected dispatch counters: %+v", s)
	}
	if s.MissionsExpired != 1 || s.MissionsCompleted != 1 || s.TickFailures != 1 {
		t.Fatalf("unexpected mission counters: %+v", s)
	}
	if s.Purchases["building"] != 1 || s.Refunds["vehicle"] != 1 || s.Rejections["insufficient_funds"] != 1 {
		t.Fatalf("unexpected economy counters: %+v", s)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	r := NewRecorder()
	r.RecordPurchase("vehicle")
	s := r.Snapshot()
	s.Purchases["vehicle"] = 99
	if r.Snapshot().Purchases["vehicle"] != 1 {
		t.Fatal("snapshot must not alias recorder state")
	}
}
