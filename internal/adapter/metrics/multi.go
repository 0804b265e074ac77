// Package metrics combines game metrics recorders.
package metrics

import "emergencyworldwide/internal/app/ports"

// Multi forwards every observation to each recorder.
type Multi []ports.GameMetrics

func (m Multi) RecordMissionSpawned(incidentType string) {
	for _, r := range m {
		r.RecordMissionSpawned(incidentType)
	}
}

func (m Multi) RecordMissionExpired() {
	for _, r := range m {
		r.RecordMissionExpired()
	}
}

func (m Multi) RecordDispatch(vehicles int) {
	for _, r := range m {
		r.RecordDispatch(vehicles)
	}
}

func (m Multi) RecordMissionCompleted() {
	for _, r := range m {
		r.RecordMissionCompleted()
	}
}

func (m Multi) RecordPurchase(kind string) {
	for _, r := range m {
		r.RecordPurchase(kind)
	}
}

func (m Multi) RecordRefund(kind string) {
	for _, r := range m {
		r.RecordRefund(kind)
	}
}

func (m Multi) RecordRejection(code string) {
	for _, r := range m {
		r.RecordRejection(code)
	}
}

func (m Multi) RecordTickFailure() {
	for _, r := range m {
		r.RecordTickFailure()
	}
}
