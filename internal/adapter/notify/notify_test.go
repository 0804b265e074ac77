package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emergencyworldwide/internal/adapter/repo/memory"
	"emergencyworldwide/internal/app/ports"
)

func TestMultiDeliversToAllAndJoinsErrors(t *testing.T) {
	first := &capture{}
	second := &capture{err: errors.New("bus down")}
	third := &capture{}

	err := Multi{first, nil, second, third}.Publish(context.Background(), ports.Event{Name: ports.EventNewMission})
	require.Error(t, err)
	assert.ErrorIs(t, err, second.err)
	assert.Len(t, first.events, 1)
	assert.Len(t, third.events, 1)
}

func TestJournalAppendsEvents(t *testing.T) {
	store := memory.NewStore()
	tx := memory.NewTxManager(store)
	repo := memory.NewEventRepo(store)
	j := Journal{TxManager: tx, Events: repo}

	occurred := time.Unix(500, 0)
	require.NoError(t, j.Publish(context.Background(), ports.Event{Name: ports.EventMissionExpired, OccurredAt: occurred}))

	var got []ports.Event
	require.NoError(t, tx.RunInTx(context.Background(), func(ctx context.Context) error {
		var err error
		got, err = repo.List(ctx, ports.EventQuery{})
		return err
	}))
	require.Len(t, got, 1)
	assert.Equal(t, ports.EventMissionExpired, got[0].Name)
}

func TestLogNeverFails(t *testing.T) {
	assert.NoError(t, Log{}.Publish(context.Background(), ports.Event{
		Name:    ports.EventVehicleReleased,
		Payload: map[string]any{"vehicle_id": "v-1", "mission_id": "m-1"},
	}))
}

type capture struct {
	events []ports.Event
	err    error
}

func (c *capture) Publish(_ context.Context, evt ports.Event) error {
	c.events = append(c.events, evt)
	return c.err
}
