package gormrepo

import (
	"context"

	"emergencyworldwide/internal/adapter/repo/gorm/model"
	"emergencyworldwide/internal/app/ports"
	"emergencyworldwide/internal/domain/fleet"

	"gorm.io/gorm"
)

type VehicleRepo struct {
	db *gorm.DB
}

func NewVehicleRepo(db *gorm.DB) VehicleRepo {
	return VehicleRepo{db: db}
}

func (r VehicleRepo) Create(ctx context.Context, v fleet.Vehicle) error {
	m := model.Vehicle{
		ID:         v.ID,
		Type:       v.Type,
		BuildingID: v.BuildingID,
		Cost:       v.Cost,
		Status:     string(v.Status),
		MissionID:  v.MissionID,
		BusyUntil:  v.BusyUntil,
		CreatedAt:  v.CreatedAt,
	}
	return translate(getDBFromCtx(ctx, r.db).Create(&m).Error)
}

func (r VehicleRepo) Get(ctx context.Context, id string) (fleet.Vehicle, error) {
	var m model.Vehicle
	if err := forUpdate(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		return fleet.Vehicle{}, translate(err)
	}
	return toVehicle(m), nil
}

func (r VehicleRepo) Update(ctx context.Context, v fleet.Vehicle) error {
	updates := map[string]any{
		"type":        v.Type,
		"building_id": v.BuildingID,
		"cost":        v.Cost,
		"status":      string(v.Status),
		"mission_id":  v.MissionID,
		"busy_until":  v.BusyUntil,
	}
	res := getDBFromCtx(ctx, r.db).Model(&model.Vehicle{}).Where("id = ?", v.ID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r VehicleRepo) Delete(ctx context.Context, id string) error {
	res := getDBFromCtx(ctx, r.db).Where("id = ?", id).Delete(&model.Vehicle{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r VehicleRepo) List(ctx context.Context) ([]fleet.Vehicle, error) {
	return r.find(getDBFromCtx(ctx, r.db))
}

func (r VehicleRepo) ListByBuilding(ctx context.Context, buildingID string) ([]fleet.Vehicle, error) {
	return r.find(getDBFromCtx(ctx, r.db).Where("building_id = ?", buildingID))
}

func (r VehicleRepo) ListByStatus(ctx context.Context, status fleet.VehicleStatus) ([]fleet.Vehicle, error) {
	return r.find(getDBFromCtx(ctx, r.db).Where("status = ?", string(status)))
}

func (r VehicleRepo) find(q *gorm.DB) ([]fleet.Vehicle, error) {
	var rows []model.Vehicle
	if err := q.Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]fleet.Vehicle, 0, len(rows))
	for _, m := range rows {
		out = append(out, toVehicle(m))
	}
	return out, nil
}

func toVehicle(m model.Vehicle) fleet.Vehicle {
	return fleet.Vehicle{
		ID:         m.ID,
		Type:       m.Type,
		BuildingID: m.BuildingID,
		Cost:       m.Cost,
		Status:     fleet.VehicleStatus(m.Status),
		MissionID:  m.MissionID,
		BusyUntil:  m.BusyUntil,
		CreatedAt:  m.CreatedAt,
	}
}

var _ ports.VehicleRepository = VehicleRepo{}
