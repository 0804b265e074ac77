package influx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emergencyworldwide/internal/app/ports"
)

func TestPointCarriesTagsAndFields(t *testing.T) {
	occurred := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	p := Point(ports.Event{
		Name:       ports.EventMissionUpdated,
		OccurredAt: occurred,
		Payload: map[string]any{
			"mission_id": "m-1",
			"type":       "bush_fire",
			"status":     "completed",
			"xp_gained":  int64(600),
		},
	})

	assert.Equal(t, Measurement, p.Name())
	assert.True(t, p.Time().Equal(occurred))

	tags := map[string]string{}
	for _, tag := range p.TagList() {
		tags[tag.Key] = tag.Value
	}
	assert.Equal(t, ports.EventMissionUpdated, tags["event"])
	assert.Equal(t, "bush_fire", tags["mission_type"])
	assert.Equal(t, "completed", tags["status"])

	fields := map[string]any{}
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}
	assert.Equal(t, "m-1", fields["mission_id"])
	assert.EqualValues(t, 600, fields["xp_gained"])
	assert.EqualValues(t, 1, fields["count"])
}

func TestNewPublisherRequiresTarget(t *testing.T) {
	_, err := NewPublisher(Options{URL: "http://localhost:8086"})
	require.Error(t, err)
}
