// Package otelmetrics exports game counters through OpenTelemetry.
package otelmetrics

import (
	"context"
	"fmt"

	"emergencyworldwide/internal/app/ports"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "emergencyworldwide/internal/adapter/metrics/otelmetrics"

type Recorder struct {
	spawned      metric.Int64Counter
	expired      metric.Int64Counter
	dispatched   metric.Int64Counter
	vehicles     metric.Int64Counter
	completed    metric.Int64Counter
	purchases    metric.Int64Counter
	refunds      metric.Int64Counter
	rejections   metric.Int64Counter
	tickFailures metric.Int64Counter
}

// New registers the game counters on m, or on the global meter provider when m is nil.
func New(m metric.Meter) (*Recorder, error) {
	if m == nil {
		m = otel.Meter(instrumentationName)
	}
	r := &Recorder{}
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&r.spawned, "game.missions.spawned", "Missions generated by the scheduler"},
		{&r.expired, "game.missions.expired", "Missions that passed their deadline"},
		{&r.dispatched, "game.missions.dispatched", "Successful dispatch requests"},
		{&r.vehicles, "game.vehicles.dispatched", "Vehicles sent to missions"},
		{&r.completed, "game.missions.completed", "Missions resolved with a reward"},
		{&r.purchases, "game.purchases", "Buildings and vehicles bought"},
		{&r.refunds, "game.refunds", "Buildings and vehicles sold back"},
		{&r.rejections, "game.rejections", "Requests rejected by a business rule"},
		{&r.tickFailures, "game.scheduler.tick_failures", "Scheduler ticks that returned an error or panicked"},
	}
	for _, c := range counters {
		counter, err := m.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", c.name, err)
		}
		*c.dst = counter
	}
	return r, nil
}

func (r *Recorder) RecordMissionSpawned(incidentType string) {
	r.spawned.Add(context.Background(), 1, metric.WithAttributes(attribute.String("incident_type", incidentType)))
}

func (r *Recorder) RecordMissionExpired() {
	r.expired.Add(context.Background(), 1)
}

func (r *Recorder) RecordDispatch(vehicles int) {
	ctx := context.Background()
	r.dispatched.Add(ctx, 1)
	if vehicles > 0 {
		r.vehicles.Add(ctx, int64(vehicles))
	}
}

func (r *Recorder) RecordMissionCompleted() {
	r.completed.Add(context.Background(), 1)
}

func (r *Recorder) RecordPurchase(kind string) {
	r.purchases.Add(context.Background(), 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func (r *Recorder) RecordRefund(kind string) {
	r.refunds.Add(context.Background(), 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func (r *Recorder) RecordRejection(code string) {
	r.rejections.Add(context.Background(), 1, metric.WithAttributes(attribute.String("code", code)))
}

func (r *Recorder) RecordTickFailure() {
	r.tickFailures.Add(context.Background(), 1)
}

var _ ports.GameMetrics = (*Recorder)(nil)
