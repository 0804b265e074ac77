package gormrepo

import (
	"context"
	"errors"

	"emergencyworldwide/internal/adapter/repo/gorm/model"
	"emergencyworldwide/internal/app/ports"
	"emergencyworldwide/internal/domain/economy"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressionRepo struct {
	db *gorm.DB
}

func NewProgressionRepo(db *gorm.DB) ProgressionRepo {
	return ProgressionRepo{db: db}
}

func (r ProgressionRepo) Get(ctx context.Context) (economy.Progression, error) {
	var m model.Progression
	if err := forUpdate(ctx, r.db).Where("id = ?", model.ProgressionID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return economy.Progression{}, ports.ErrNotFound
		}
		return economy.Progression{}, err
	}
	return economy.Progression{
		Budget:            m.Budget,
		XP:                m.Xp,
		Rank:              int(m.Rank),
		SeasonPass:        m.SeasonPass,
		SeasonXP:          m.SeasonXp,
		SeasonLevel:       int(m.SeasonLevel),
		MissionsCompleted: m.MissionsCompleted,
		MissionsExpired:   m.MissionsExpired,
		LastIncomeAt:      m.LastIncomeAt,
		Version:           m.Version,
		UpdatedAt:         m.UpdatedAt,
	}, nil
}

func (r ProgressionRepo) SaveWithVersion(ctx context.Context, p economy.Progression, expectedVersion int64) error {
	db := getDBFromCtx(ctx, r.db)
	if expectedVersion == 0 {
		m := model.Progression{
			ID:                model.ProgressionID,
			Budget:            p.Budget,
			Xp:                p.XP,
			Rank:              int32(p.Rank),
			SeasonPass:        p.SeasonPass,
			SeasonXp:          p.SeasonXP,
			SeasonLevel:       int32(p.SeasonLevel),
			MissionsCompleted: p.MissionsCompleted,
			MissionsExpired:   p.MissionsExpired,
			LastIncomeAt:      p.LastIncomeAt,
			Version:           p.Version,
			UpdatedAt:         p.UpdatedAt,
		}
		res := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).Create(&m)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ports.ErrConflict
		}
		return nil
	}

	updates := map[string]any{
		"budget":             p.Budget,
		"xp":                 p.XP,
		"rank":               int32(p.Rank),
		"season_pass":        p.SeasonPass,
		"season_xp":          p.SeasonXP,
		"season_level":       int32(p.SeasonLevel),
		"missions_completed": p.MissionsCompleted,
		"missions_expired":   p.MissionsExpired,
		"last_income_at":     p.LastIncomeAt,
		"version":            p.Version,
		"updated_at":         p.UpdatedAt,
	}

	res := db.Model(&model.Progression{}).
		Where("id = ? AND version = ?", model.ProgressionID, expectedVersion).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ports.ErrConflict
	}
	return nil
}

var _ ports.ProgressionRepository = ProgressionRepo{}
