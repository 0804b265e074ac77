package gormrepo

import (
	"context"
	"fmt"
	"time"

	"emergencyworldwide/internal/adapter/repo/gorm/model"

	"gorm.io/gorm"
)

type migration struct {
	version string
	up      func(tx *gorm.DB) error
}

var migrations = []migration{
	{
		version: "0001_core_tables",
		up: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&model.Progression{}, &model.Building{}, &model.Vehicle{}, &model.Mission{})
		},
	},
	{
		version: "0002_game_events",
		up: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&model.GameEvent{})
		},
	},
}

// ApplyMigrations brings the schema up to date and records every applied
// version in schema_migrations.
func ApplyMigrations(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&model.SchemaMigration{}); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for _, m := range migrations {
		var count int64
		if err := db.WithContext(ctx).Model(&model.SchemaMigration{}).Where("version = ?", m.version).Count(&count).Error; err != nil {
			return fmt.Errorf("check migration %s: %w", m.version, err)
		}
		if count > 0 {
			continue
		}

		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := m.up(tx); err != nil {
				return fmt.Errorf("apply migration %s: %w", m.version, err)
			}
			rec := model.SchemaMigration{Version: m.version, AppliedAt: time.Now().UTC()}
			if err := tx.Create(&rec).Error; err != nil {
				return fmt.Errorf("record migration %s: %w", m.version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// AppliedMigrations lists recorded versions in apply order.
func AppliedMigrations(ctx context.Context, db *gorm.DB) ([]string, error) {
	var rows []model.SchemaMigration
	if err := db.WithContext(ctx).Order("version").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Version)
	}
	return out, nil
}
