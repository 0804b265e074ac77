package gormrepo

import (
	"context"
	"encoding/json"

	"emergencyworldwide/internal/adapter/repo/gorm/model"
	"emergencyworldwide/internal/app/ports"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EventRepo struct {
	db *gorm.DB
}

func NewEventRepo(db *gorm.DB) EventRepo {
	return EventRepo{db: db}
}

func (r EventRepo) Append(ctx context.Context, events []ports.Event) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([]model.GameEvent, 0, len(events))
	for _, e := range events {
		b, _ := json.Marshal(e.Payload)
		rows = append(rows, model.GameEvent{
			Name:       e.Name,
			OccurredAt: e.OccurredAt,
			Payload:    datatypes.JSON(b),
		})
	}
	return getDBFromCtx(ctx, r.db).Create(&rows).Error
}

func (r EventRepo) List(ctx context.Context, q ports.EventQuery) ([]ports.Event, error) {
	rows := []model.GameEvent{}
	query := getDBFromCtx(ctx, r.db).
		Clauses(clause.OrderBy{
			Columns: []clause.OrderByColumn{
				{Column: clause.Column{Name: "occurred_at"}, Desc: true},
				{Column: clause.Column{Name: "id"}, Desc: true},
			},
		})
	if q.Name != "" {
		query = query.Where("name = ?", q.Name)
	}
	if q.From != nil {
		query = query.Where("occurred_at >= ?", *q.From)
	}
	if q.To != nil {
		query = query.Where("occurred_at <= ?", *q.To)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]ports.Event, 0, len(rows))
	for _, row := range rows {
		var payload map[string]any
		if len(row.Payload) > 0 {
			_ = json.Unmarshal(row.Payload, &payload)
		}
		out = append(out, ports.Event{
			Name:       row.Name,
			OccurredAt: row.OccurredAt,
			Payload:    payload,
		})
	}
	return out, nil
}

var _ ports.EventRepository = EventRepo{}
