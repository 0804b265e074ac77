// Package influx records game events as InfluxDB points for dashboards.
package influx

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"emergencyworldwide/internal/app/ports"
)

const Measurement = "game_event"

type Options struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// Publisher writes through the client's non-blocking write API, which
// batches points and flushes in the background.
type Publisher struct {
	client influxdb2.Client
	writer influxdb2_api.WriteAPI
}

func NewPublisher(opts Options) (*Publisher, error) {
	if opts.URL == "" || opts.Org == "" || opts.Bucket == "" {
		return nil, fmt.Errorf("influx: url, org and bucket are required")
	}
	client := influxdb2.NewClientWithOptions(
		opts.URL,
		opts.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(500).
			SetFlushInterval(1000),
	)
	return &Publisher{client: client, writer: client.WriteAPI(opts.Org, opts.Bucket)}, nil
}

// Errors exposes asynchronous write failures.
func (p *Publisher) Errors() <-chan error {
	return p.writer.Errors()
}

func (p *Publisher) Publish(_ context.Context, evt ports.Event) error {
	p.writer.WritePoint(Point(evt))
	return nil
}

// Close flushes buffered points and releases the client.
func (p *Publisher) Close() {
	p.writer.Flush()
	p.client.Close()
}

// Point maps an event to a point: the event name and mission type become
// tags, numeric rewards become fields.
func Point(evt ports.Event) *influxdb2_write.Point {
	point := influxdb2_write.NewPointWithMeasurement(Measurement).
		AddTag("event", evt.Name).
		SetTime(evt.OccurredAt)
	if t, ok := evt.Payload["type"].(string); ok && t != "" {
		point.AddTag("mission_type", t)
	}
	if s, ok := evt.Payload["status"].(string); ok && s != "" {
		point.AddTag("status", s)
	}
	for _, key := range []string{"mission_id", "vehicle_id"} {
		if v, ok := evt.Payload[key].(string); ok && v != "" {
			point.AddField(key, v)
		}
	}
	for _, key := range []string{"xp_gained", "season_xp_gained", "currency_gained", "income"} {
		if v, ok := evt.Payload[key].(int64); ok {
			point.AddField(key, v)
		}
	}
	point.AddField("count", 1)
	return point
}
