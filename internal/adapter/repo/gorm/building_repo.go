package gormrepo

import (
	"context"
	"errors"

	"emergencyworldwide/internal/adapter/repo/gorm/model"
	"emergencyworldwide/internal/app/ports"
	"emergencyworldwide/internal/domain/fleet"

	"gorm.io/gorm"
)

type BuildingRepo struct {
	db *gorm.DB
}

func NewBuildingRepo(db *gorm.DB) BuildingRepo {
	return BuildingRepo{db: db}
}

func (r BuildingRepo) Create(ctx context.Context, b fleet.Building) error {
	m := model.Building{
		ID:        b.ID,
		Type:      b.Type,
		Lat:       b.Location.Lat,
		Lon:       b.Location.Lon,
		Cost:      b.Cost,
		CreatedAt: b.CreatedAt,
	}
	return translate(getDBFromCtx(ctx, r.db).Create(&m).Error)
}

func (r BuildingRepo) Get(ctx context.Context, id string) (fleet.Building, error) {
	var m model.Building
	if err := forUpdate(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		return fleet.Building{}, translate(err)
	}
	return toBuilding(m), nil
}

func (r BuildingRepo) List(ctx context.Context) ([]fleet.Building, error) {
	var rows []model.Building
	if err := getDBFromCtx(ctx, r.db).Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]fleet.Building, 0, len(rows))
	for _, m := range rows {
		out = append(out, toBuilding(m))
	}
	return out, nil
}

func (r BuildingRepo) Delete(ctx context.Context, id string) error {
	res := getDBFromCtx(ctx, r.db).Where("id = ?", id).Delete(&model.Building{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func toBuilding(m model.Building) fleet.Building {
	return fleet.Building{
		ID:        m.ID,
		Type:      m.Type,
		Location:  fleet.Location{Lat: m.Lat, Lon: m.Lon},
		Cost:      m.Cost,
		CreatedAt: m.CreatedAt,
	}
}

// translate maps gorm errors onto the port sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ports.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ports.ErrConflict
	default:
		return err
	}
}

var _ ports.BuildingRepository = BuildingRepo{}
