package replay

import (
	"context"
	"errors"
	"time"

	"emergencyworldwide/internal/app/ports"
)

var ErrInvalidRequest = errors.New("invalid replay request")

const maxLimit = 500

type UseCase struct {
	TxManager ports.TxManager
	Events    ports.EventRepository
}

func (u UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	if req.Limit < 0 || (req.OccurredFrom > 0 && req.OccurredTo > 0 && req.OccurredTo < req.OccurredFrom) {
		return Response{}, ErrInvalidRequest
	}
	limit := req.Limit
	if limit == 0 || limit > maxLimit {
		limit = maxLimit
	}
	q := ports.EventQuery{Name: req.Name, Limit: limit}
	if req.OccurredFrom > 0 {
		from := time.Unix(req.OccurredFrom, 0)
		q.From = &from
	}
	if req.OccurredTo > 0 {
		to := time.Unix(req.OccurredTo, 0)
		q.To = &to
	}
	if req.MissionID != "" {
		// Filtering by mission happens after the query, so it scans the full window.
		q.Limit = 0
	}

	var events []ports.Event
	err := u.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		events, err = u.Events.List(txCtx, q)
		return err
	})
	if err != nil {
		return Response{}, err
	}
	if req.MissionID != "" {
		events = filterByMission(events, req.MissionID, limit)
	}
	return Response{Events: events, Missions: reconstruct(events)}, nil
}

func filterByMission(events []ports.Event, missionID string, limit int) []ports.Event {
	out := make([]ports.Event, 0)
	for _, evt := range events {
		if id, _ := evt.Payload["mission_id"].(string); id != missionID {
			continue
		}
		out = append(out, evt)
		if len(out) >= limit {
			break
		}
	}
	return out
}

// reconstruct walks events oldest first so later statuses win.
func reconstruct(events []ports.Event) map[string]string {
	out := make(map[string]string)
	for i := len(events) - 1; i >= 0; i-- {
		id, _ := events[i].Payload["mission_id"].(string)
		status, _ := events[i].Payload["status"].(string)
		if id == "" || status == "" {
			continue
		}
		out[id] = status
	}
	return out
}
