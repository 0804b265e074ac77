package main

import (
	"context"
	"fmt"
	"log/slog"

	"emergencyworldwide/internal/adapter/metrics"
	metricsinmem "emergencyworldwide/internal/adapter/metrics/inmemory"
	"emergencyworldwide/internal/adapter/metrics/otelmetrics"
	"emergencyworldwide/internal/adapter/notify"
	"emergencyworldwide/internal/adapter/notify/influx"
	"emergencyworldwide/internal/adapter/notify/natsbus"
	gormrepo "emergencyworldwide/internal/adapter/repo/gorm"
	"emergencyworldwide/internal/adapter/repo/memory"
	"emergencyworldwide/internal/app/ports"
	"emergencyworldwide/internal/config"
	"emergencyworldwide/internal/domain/catalog"
)

// store bundles the repositories of one storage backend.
type store struct {
	Tx          ports.TxManager
	Progression ports.ProgressionRepository
	Buildings   ports.BuildingRepository
	Vehicles    ports.VehicleRepository
	Missions    ports.MissionRepository
	Events      ports.EventRepository
	close       func() error
}

func (s store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	cat, err := catalog.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return cat, nil
}

func openStore(ctx context.Context, cfg config.StorageConfig) (store, error) {
	if cfg.Driver == "memory" {
		s := memory.NewStore()
		return store{
			Tx:          memory.NewTxManager(s),
			Progression: memory.NewProgressionRepo(s),
			Buildings:   memory.NewBuildingRepo(s),
			Vehicles:    memory.NewVehicleRepo(s),
			Missions:    memory.NewMissionRepo(s),
			Events:      memory.NewEventRepo(s),
		}, nil
	}

	db, err := gormrepo.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return store{}, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return store{}, fmt.Errorf("database handle: %w", err)
	}
	if err := gormrepo.ApplyMigrations(ctx, db); err != nil {
		_ = sqlDB.Close()
		return store{}, fmt.Errorf("migrate: %w", err)
	}
	return store{
		Tx:          gormrepo.NewTxManager(db),
		Progression: gormrepo.NewProgressionRepo(db),
		Buildings:   gormrepo.NewBuildingRepo(db),
		Vehicles:    gormrepo.NewVehicleRepo(db),
		Missions:    gormrepo.NewMissionRepo(db),
		Events:      gormrepo.NewEventRepo(db),
		close:       sqlDB.Close,
	}, nil
}

// buildMetrics always keeps the in-memory KPI recorder behind /ops/kpi and
// adds OpenTelemetry counters when enabled.
func buildMetrics(cfg config.OtelConfig, kpi *metricsinmem.Recorder) (ports.GameMetrics, error) {
	if !cfg.Enabled {
		return kpi, nil
	}
	rec, err := otelmetrics.New(nil)
	if err != nil {
		return nil, fmt.Errorf("init otel metrics: %w", err)
	}
	return metrics.Multi{kpi, rec}, nil
}

// buildPublisher fans events out to the log, the replay journal, the
// websocket hub and the optional NATS and InfluxDB sinks.
func buildPublisher(cfg config.NotifyConfig, st store, hub ports.Publisher, logger *slog.Logger) (ports.Publisher, func(), error) {
	pubs := notify.Multi{
		notify.Log{Logger: logger},
		notify.Journal{TxManager: st.Tx, Events: st.Events},
		hub,
	}
	var closers []func()

	if cfg.NATS.Enabled {
		nc, err := natsbus.Connect(cfg.NATS.URL)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { _ = nc.Drain() })
		pubs = append(pubs, natsbus.NewPublisher(nc, cfg.NATS.Subject))
	}

	if cfg.Influx.Enabled {
		p, err := influx.NewPublisher(influx.Options{
			URL:    cfg.Influx.URL,
			Token:  cfg.Influx.Token,
			Org:    cfg.Influx.Org,
			Bucket: cfg.Influx.Bucket,
		})
		if err != nil {
			for _, c := range closers {
				c()
			}
			return nil, nil, err
		}
		go func() {
			for err := range p.Errors() {
				logger.Warn("influx write failed", "error", err)
			}
		}()
		closers = append(closers, p.Close)
		pubs = append(pubs, p)
	}

	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	return pubs, closeAll, nil
}
