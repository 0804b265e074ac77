// Package config loads server settings from defaults, an optional file and
// EWW_ environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"emergencyworldwide/internal/app/dispatch"
	"emergencyworldwide/internal/app/scheduler"
	"emergencyworldwide/internal/domain/economy"

	"github.com/spf13/viper"
)

const EnvPrefix = "EWW"

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Economy  EconomyConfig  `mapstructure:"economy"`
	Missions MissionsConfig `mapstructure:"missions"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	Log      LogConfig      `mapstructure:"log"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Otel     OtelConfig     `mapstructure:"otel"`
}

type ServerConfig struct {
	Addr      string          `mapstructure:"addr"`
	WSAddr    string          `mapstructure:"wsAddr"`
	DevRoutes bool            `mapstructure:"devRoutes"`
	RateLimit RateLimitConfig `mapstructure:"rateLimit"`

	// AllowedOrigins may call the API cross-origin and open the websocket
	// feed. "*" allows any origin; empty allows same-origin pages only.
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// RateLimitConfig is per client address. Zero rps disables limiting.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

type EconomyConfig struct {
	StartingBudget  int64                `mapstructure:"startingBudget"`
	SeasonPassPrice int64                `mapstructure:"seasonPassPrice"`
	Refund          RefundConfig         `mapstructure:"refund"`
	Income          economy.IncomePolicy `mapstructure:"income"`
	SeasonLevels    economy.SeasonTrack  `mapstructure:"seasonLevels"`
}

type RefundConfig struct {
	Building float64 `mapstructure:"building"`
	Vehicle  float64 `mapstructure:"vehicle"`
}

type MissionsConfig struct {
	Interval       time.Duration      `mapstructure:"interval"`
	AlignToMinute  bool               `mapstructure:"alignToMinute"`
	Expiry         time.Duration      `mapstructure:"expiry"`
	Radius         float64            `mapstructure:"radius"`
	IncidentPolicy string             `mapstructure:"incidentPolicy"`
	RewardPolicy   string             `mapstructure:"rewardPolicy"`
	Reward         RandomRewardConfig `mapstructure:"reward"`
	Seed           int64              `mapstructure:"seed"`
}

type RandomRewardConfig struct {
	XP       scheduler.Range `mapstructure:"xp"`
	Currency scheduler.Range `mapstructure:"currency"`
}

type DispatchConfig struct {
	BusyDuration    time.Duration `mapstructure:"busyDuration"`
	Resolution      string        `mapstructure:"resolution"`
	CapabilityCheck bool          `mapstructure:"capabilityCheck"`
	Exclusive       bool          `mapstructure:"exclusive"`
	MultiVehicle    bool          `mapstructure:"multiVehicle"`
}

type LogConfig struct {
	Level   string        `mapstructure:"level"`
	File    string        `mapstructure:"file"`
	Graylog GraylogConfig `mapstructure:"graylog"`
}

type GraylogConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

type NotifyConfig struct {
	NATS   NATSConfig   `mapstructure:"nats"`
	Influx InfluxConfig `mapstructure:"influx"`
}

type NATSConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

type InfluxConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Token   string `mapstructure:"token"`
	Org     string `mapstructure:"org"`
	Bucket  string `mapstructure:"bucket"`
}

type OtelConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.wsAddr", ":8081")
	v.SetDefault("server.devRoutes", false)
	v.SetDefault("server.rateLimit.rps", 20.0)
	v.SetDefault("server.rateLimit.burst", 40)
	v.SetDefault("server.allowedOrigins", []string{})

	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.dsn", "")

	v.SetDefault("catalog.path", "")

	rules := economy.DefaultRules()
	v.SetDefault("economy.startingBudget", rules.StartingBudget)
	v.SetDefault("economy.seasonPassPrice", 1000)
	v.SetDefault("economy.refund.building", 0.5)
	v.SetDefault("economy.refund.vehicle", 0.5)
	v.SetDefault("economy.income.interval", rules.Income.Interval.String())
	v.SetDefault("economy.income.base", rules.Income.Base)
	v.SetDefault("economy.income.perRank", rules.Income.PerRank)
	v.SetDefault("economy.seasonLevels.xpPerLevel", rules.Season.XPPerLevel)
	v.SetDefault("economy.seasonLevels.maxLevel", rules.Season.MaxLevel)

	sched := scheduler.DefaultConfig()
	v.SetDefault("missions.interval", sched.Interval.String())
	v.SetDefault("missions.alignToMinute", true)
	v.SetDefault("missions.expiry", sched.Expiry.String())
	v.SetDefault("missions.radius", sched.Radius)
	v.SetDefault("missions.incidentPolicy", string(sched.IncidentPolicy))
	v.SetDefault("missions.rewardPolicy", string(sched.RewardPolicy))
	v.SetDefault("missions.reward.xp.min", sched.XPRange.Min)
	v.SetDefault("missions.reward.xp.max", sched.XPRange.Max)
	v.SetDefault("missions.reward.currency.min", sched.CurrencyRange.Min)
	v.SetDefault("missions.reward.currency.max", sched.CurrencyRange.Max)
	v.SetDefault("missions.seed", 0)

	disp := dispatch.DefaultConfig()
	v.SetDefault("dispatch.busyDuration", disp.BusyDuration.String())
	v.SetDefault("dispatch.resolution", string(disp.Resolution))
	v.SetDefault("dispatch.capabilityCheck", disp.CapabilityCheck)
	v.SetDefault("dispatch.exclusive", disp.Exclusive)
	v.SetDefault("dispatch.multiVehicle", disp.MultiVehicle)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.graylog.enabled", false)
	v.SetDefault("log.graylog.address", "localhost:12201")

	v.SetDefault("notify.nats.enabled", false)
	v.SetDefault("notify.nats.url", "nats://127.0.0.1:4222")
	v.SetDefault("notify.nats.subject", "emergency.events")
	v.SetDefault("notify.influx.enabled", false)
	v.SetDefault("notify.influx.url", "http://localhost:8086")
	v.SetDefault("notify.influx.token", "")
	v.SetDefault("notify.influx.org", "emergency")
	v.SetDefault("notify.influx.bucket", "game_events")

	v.SetDefault("otel.enabled", false)
}

// Load builds the configuration. An empty path skips the file and uses
// defaults plus environment overrides.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Storage.Driver {
	case "memory":
	case "sqlite", "postgres":
		if strings.TrimSpace(c.Storage.DSN) == "" {
			return fmt.Errorf("%w: storage.dsn is required for driver %s", ErrInvalidConfig, c.Storage.Driver)
		}
	default:
		return fmt.Errorf("%w: unknown storage driver %q", ErrInvalidConfig, c.Storage.Driver)
	}
	for name, rate := range map[string]float64{"building": c.Economy.Refund.Building, "vehicle": c.Economy.Refund.Vehicle} {
		if rate < 0 || rate >= 1 {
			return fmt.Errorf("%w: economy.refund.%s must be in [0,1), got %v", ErrInvalidConfig, name, rate)
		}
	}
	if c.Economy.SeasonPassPrice < 0 {
		return fmt.Errorf("%w: economy.seasonPassPrice must not be negative", ErrInvalidConfig)
	}
	if c.Server.RateLimit.RPS < 0 {
		return fmt.Errorf("%w: server.rateLimit.rps must not be negative", ErrInvalidConfig)
	}
	if err := c.Rules().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.SchedulerConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.DispatchConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func (c Config) Rules() economy.Rules {
	rules := economy.DefaultRules()
	rules.StartingBudget = c.Economy.StartingBudget
	rules.Income = c.Economy.Income
	rules.Season = c.Economy.SeasonLevels
	return rules
}

func (c Config) SchedulerConfig() scheduler.Config {
	return scheduler.Config{
		Interval:       c.Missions.Interval,
		AlignToMinute:  c.Missions.AlignToMinute,
		Expiry:         c.Missions.Expiry,
		Radius:         c.Missions.Radius,
		IncidentPolicy: scheduler.IncidentPolicy(c.Missions.IncidentPolicy),
		RewardPolicy:   scheduler.RewardPolicy(c.Missions.RewardPolicy),
		XPRange:        c.Missions.Reward.XP,
		CurrencyRange:  c.Missions.Reward.Currency,
	}
}

func (c Config) DispatchConfig() dispatch.Config {
	return dispatch.Config{
		BusyDuration:    c.Dispatch.BusyDuration,
		Resolution:      dispatch.Resolution(c.Dispatch.Resolution),
		CapabilityCheck: c.Dispatch.CapabilityCheck,
		Exclusive:       c.Dispatch.Exclusive,
		MultiVehicle:    c.Dispatch.MultiVehicle,
	}
}
