package inmemory

import (
	"sync"

	"emergencyworldwide/internal/app/ports"
)

type Snapshot struct {
	MissionsSpawned   uint64            `json:"missions_spawned"`
	MissionsExpired   uint64            `json:"missions_expired"`
	MissionsCompleted uint64            `json:"missions_completed"`
	Dispatches        uint64            `json:"dispatches"`
	VehiclesSent      uint64            `json:"vehicles_sent"`
	TickFailures      uint64            `json:"tick_failures"`
	SpawnedByType     map[string]uint64 `json:"spawned_by_type"`
	Purchases         map[string]uint64 `json:"purchases"`
	Refunds           map[string]uint64 `json:"refunds"`
	Rejections        map[string]uint64 `json:"rejections"`
}

type Recorder struct {
	mu            sync.Mutex
	spawned       uint64
	expired       uint64
	completed     uint64
	dispatches    uint64
	vehiclesSent  uint64
	tickFailures  uint64
	spawnedByType map[string]uint64
	purchases     map[string]uint64
	refunds       map[string]uint64
	rejections    map[string]uint64
}

func NewRecorder() *Recorder {
	return &Recorder{
		spawnedByType: map[string]uint64{},
		purchases:     map[string]uint64{},
		refunds:       map[string]uint64{},
		rejections:    map[string]uint64{},
	}
}

func (r *Recorder) RecordMissionSpawned(incidentType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spawned++
	r.spawnedByType[incidentType]++
}

func (r *Recorder) RecordMissionExpired() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expired++
}

func (r *Recorder) RecordDispatch(vehicles int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dispatches++
	if vehicles > 0 {
		r.vehiclesSent += uint64(vehicles)
	}
}

func (r *Recorder) RecordMissionCompleted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed++
}

func (r *Recorder) RecordPurchase(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.purchases[kind]++
}

func (r *Recorder) RecordRefund(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refunds[kind]++
}

func (r *Recorder) RecordRejection(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejections[code]++
}

func (r *Recorder) RecordTickFailure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickFailures++
}

func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	return Snapshot{
		MissionsSpawned:   r.spawned,
		MissionsExpired:   r.expired,
		MissionsCompleted: r.completed,
		Dispatches:        r.dispatches,
		VehiclesSent:      r.vehiclesSent,
		TickFailures:      r.tickFailures,
		SpawnedByType:     copyCounts(r.spawnedByType),
		Purchases:         copyCounts(r.purchases),
		Refunds:           copyCounts(r.refunds),
		Rejections:        copyCounts(r.rejections),
	}
}

func (r *Recorder) SnapshotAny() any {
	return r.Snapshot()
}

func copyCounts(in map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

var _ ports.GameMetrics = (*Recorder)(nil)
