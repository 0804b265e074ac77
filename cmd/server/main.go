package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	httpadapter "emergencyworldwide/internal/adapter/http"
	metricsinmem "emergencyworldwide/internal/adapter/metrics/inmemory"
	"emergencyworldwide/internal/adapter/notify/websocket"
	"emergencyworldwide/internal/adapter/random"
	"emergencyworldwide/internal/app/dispatch"
	"emergencyworldwide/internal/app/ledger"
	"emergencyworldwide/internal/app/pool"
	"emergencyworldwide/internal/app/replay"
	"emergencyworldwide/internal/app/scheduler"
	"emergencyworldwide/internal/app/status"
	"emergencyworldwide/internal/config"
	"emergencyworldwide/internal/logging"

	"github.com/cloudwego/hertz/pkg/app/server"
)

func main() {
	configPath := flag.String("config", os.Getenv("EWW_CONFIG"), "path to a YAML or JSON config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, closeLog, err := logging.New(logging.Options{
		Level: cfg.Log.Level,
		File:  cfg.Log.File,
		Graylog: logging.GraylogOptions{
			Enabled: cfg.Log.Graylog.Enabled,
			Address: cfg.Log.Graylog.Address,
		},
	})
	if err != nil {
		log.Fatalf("init logging: %v", err)
	}
	defer func() { _ = closeLog() }()
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cat, err := loadCatalog(cfg.Catalog.Path)
	if err != nil {
		return err
	}
	st, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn("close storage", "error", err)
		}
	}()

	kpiRecorder := metricsinmem.NewRecorder()
	gameMetrics, err := buildMetrics(cfg.Otel, kpiRecorder)
	if err != nil {
		return err
	}

	hub := websocket.NewHub(logger, cfg.Server.AllowedOrigins)
	go hub.Run(ctx)
	publisher, closePublishers, err := buildPublisher(cfg.Notify, st, hub, logger)
	if err != nil {
		return err
	}
	defer closePublishers()

	rules := cfg.Rules()
	ledgerUC := ledger.UseCase{
		TxManager:       st.Tx,
		Progression:     st.Progression,
		Rules:           rules,
		SeasonPassPrice: cfg.Economy.SeasonPassPrice,
		Now:             time.Now,
	}
	poolUC := pool.UseCase{
		TxManager: st.Tx,
		Buildings: st.Buildings,
		Vehicles:  st.Vehicles,
		Ledger:    ledgerUC,
		Catalog:   cat,
		Rates:     pool.RefundRates{Building: cfg.Economy.Refund.Building, Vehicle: cfg.Economy.Refund.Vehicle},
		Metrics:   gameMetrics,
		Now:       time.Now,
	}
	coordinator := &dispatch.Coordinator{
		TxManager: st.Tx,
		Missions:  st.Missions,
		Vehicles:  st.Vehicles,
		Pool:      poolUC,
		Ledger:    ledgerUC,
		Catalog:   cat,
		Releaser:  dispatch.NewReleaser(),
		Publisher: publisher,
		Metrics:   gameMetrics,
		Logger:    logger.With("component", "dispatch"),
		Config:    cfg.DispatchConfig(),
		Now:       time.Now,
	}
	sched := &scheduler.Scheduler{
		TxManager: st.Tx,
		Buildings: st.Buildings,
		Missions:  st.Missions,
		Ledger:    ledgerUC,
		Catalog:   cat,
		Random:    random.New(cfg.Missions.Seed),
		Publisher: publisher,
		Metrics:   gameMetrics,
		Logger:    logger.With("component", "scheduler"),
		Config:    cfg.SchedulerConfig(),
		Now:       time.Now,
	}

	if _, err := coordinator.Recover(ctx); err != nil {
		return err
	}
	go func() {
		if err := sched.Run(ctx); err != nil {
			logger.Error("mission scheduler exited", "error", err)
		}
	}()

	h := httpadapter.Handler{
		LedgerUC:  ledgerUC,
		PoolUC:    poolUC,
		Dispatch:  coordinator,
		Scheduler: sched,
		StatusUC: status.UseCase{
			TxManager: st.Tx,
			Ledger:    ledgerUC,
			Buildings: st.Buildings,
			Vehicles:  st.Vehicles,
			Missions:  st.Missions,
			Rules:     rules,
		},
		ReplayUC:       replay.UseCase{TxManager: st.Tx, Events: st.Events},
		Catalog:        cat,
		KPI:            kpiRecorder,
		DevRoutes:      cfg.Server.DevRoutes,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}
	if cfg.Server.RateLimit.RPS > 0 {
		h.Limiter = httpadapter.NewIPRateLimiter(cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst)
	}

	wsServer := newWSServer(cfg.Server.WSAddr, hub)
	go func() {
		logger.Info("websocket feed listening", "addr", cfg.Server.WSAddr)
		if err := wsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("websocket server failed", "error", err)
		}
	}()

	s := server.Default(server.WithHostPorts(cfg.Server.Addr))
	h.RegisterRoutes(s)

	logger.Info("emergency dispatch server listening",
		"addr", cfg.Server.Addr,
		"storage", cfg.Storage.Driver,
		"resolution", cfg.Dispatch.Resolution,
	)
	// Spin blocks until SIGINT/SIGTERM and shuts hertz down.
	s.Spin()

	sched.Stop()
	coordinator.Close()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("websocket server shutdown", "error", err)
	}
	cancel()
	logger.Info("server stopped")
	return nil
}

func newWSServer(addr string, hub *websocket.Hub) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
