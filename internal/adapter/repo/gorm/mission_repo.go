package gormrepo

import (
	"context"
	"encoding/json"
	"fmt"

	"emergencyworldwide/internal/adapter/repo/gorm/model"
	"emergencyworldwide/internal/app/ports"
	"emergencyworldwide/internal/domain/fleet"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type MissionRepo struct {
	db *gorm.DB
}

func NewMissionRepo(db *gorm.DB) MissionRepo {
	return MissionRepo{db: db}
}

func (r MissionRepo) Create(ctx context.Context, m fleet.Mission) error {
	row, err := fromMission(m)
	if err != nil {
		return err
	}
	return translate(getDBFromCtx(ctx, r.db).Create(&row).Error)
}

func (r MissionRepo) Get(ctx context.Context, id string) (fleet.Mission, error) {
	var row model.Mission
	if err := forUpdate(ctx, r.db).Where("id = ?", id).First(&row).Error; err != nil {
		return fleet.Mission{}, translate(err)
	}
	return toMission(row)
}

func (r MissionRepo) Update(ctx context.Context, m fleet.Mission) error {
	row, err := fromMission(m)
	if err != nil {
		return err
	}
	updates := map[string]any{
		"status":             row.Status,
		"description":        row.Description,
		"lat":                row.Lat,
		"lon":                row.Lon,
		"reward_xp":          row.RewardXp,
		"reward_currency":    row.RewardCurrency,
		"anchor_building_id": row.AnchorBuildingID,
		"vehicle_ids":        row.VehicleIds,
		"expires_at":         row.ExpiresAt,
		"assigned_at":        row.AssignedAt,
		"completed_at":       row.CompletedAt,
	}
	res := getDBFromCtx(ctx, r.db).Model(&model.Mission{}).Where("id = ?", m.ID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r MissionRepo) ListByStatus(ctx context.Context, statuses ...fleet.MissionStatus) ([]fleet.Mission, error) {
	q := getDBFromCtx(ctx, r.db)
	if len(statuses) > 0 {
		names := make([]string, 0, len(statuses))
		for _, s := range statuses {
			names = append(names, string(s))
		}
		q = q.Where("status IN ?", names)
	}
	var rows []model.Mission
	if err := q.Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]fleet.Mission, 0, len(rows))
	for _, row := range rows {
		m, err := toMission(row)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func fromMission(m fleet.Mission) (model.Mission, error) {
	ids := m.VehicleIDs
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return model.Mission{}, fmt.Errorf("encode vehicle ids: %w", err)
	}
	return model.Mission{
		ID:               m.ID,
		Type:             m.Type,
		Description:      m.Description,
		Lat:              m.Location.Lat,
		Lon:              m.Location.Lon,
		Status:           string(m.Status),
		RewardXp:         m.Reward.XP,
		RewardCurrency:   m.Reward.Currency,
		AnchorBuildingID: m.AnchorBuildingID,
		VehicleIds:       datatypes.JSON(b),
		CreatedAt:        m.CreatedAt,
		ExpiresAt:        m.ExpiresAt,
		AssignedAt:       m.AssignedAt,
		CompletedAt:      m.CompletedAt,
	}, nil
}

func toMission(row model.Mission) (fleet.Mission, error) {
	var ids []string
	if len(row.VehicleIds) > 0 {
		if err := json.Unmarshal(row.VehicleIds, &ids); err != nil {
			return fleet.Mission{}, fmt.Errorf("decode vehicle ids of mission %s: %w", row.ID, err)
		}
	}
	if len(ids) == 0 {
		ids = nil
	}
	return fleet.Mission{
		ID:               row.ID,
		Type:             row.Type,
		Description:      row.Description,
		Location:         fleet.Location{Lat: row.Lat, Lon: row.Lon},
		Status:           fleet.MissionStatus(row.Status),
		Reward:           fleet.Reward{XP: row.RewardXp, Currency: row.RewardCurrency},
		AnchorBuildingID: row.AnchorBuildingID,
		VehicleIDs:       ids,
		CreatedAt:        row.CreatedAt,
		ExpiresAt:        row.ExpiresAt,
		AssignedAt:       row.AssignedAt,
		CompletedAt:      row.CompletedAt,
	}, nil
}

var _ ports.MissionRepository = MissionRepo{}
