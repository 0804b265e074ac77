package scheduler

import (
	"errors"
	"fmt"
	"math"
	"time"
)

type IncidentPolicy string

const (
	// IncidentRandom draws uniformly over every catalog incident type.
	IncidentRandom IncidentPolicy = "random"
	// IncidentAnchor draws over the incident types of the anchor building.
	IncidentAnchor IncidentPolicy = "anchor"
)

type RewardPolicy string

const (
	RewardFixed  RewardPolicy = "fixed"
	RewardRandom RewardPolicy = "random"
)

var ErrInvalidConfig = errors.New("invalid scheduler config")

// maxRangeSpan keeps Max-Min+1 a positive int on every platform.
const maxRangeSpan = math.MaxInt32 - 1

type Range struct {
	Min int64 `mapstructure:"min"`
	Max int64 `mapstructure:"max"`
}

type Config struct {
	Interval       time.Duration
	AlignToMinute  bool
	Expiry         time.Duration
	Radius         float64
	IncidentPolicy IncidentPolicy
	RewardPolicy   RewardPolicy
	XPRange        Range
	CurrencyRange  Range
}

func DefaultConfig() Config {
	return Config{
		Interval:       time.Minute,
		Expiry:         2 * time.Minute,
		Radius:         0.01,
		IncidentPolicy: IncidentRandom,
		RewardPolicy:   RewardFixed,
		XPRange:        Range{Min: 100, Max: 500},
		CurrencyRange:  Range{Min: 1000, Max: 5000},
	}
}

func (c Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	}
	if c.Expiry < 0 || c.Radius < 0 {
		return fmt.Errorf("%w: expiry and radius must not be negative", ErrInvalidConfig)
	}
	switch c.IncidentPolicy {
	case IncidentRandom, IncidentAnchor:
	default:
		return fmt.Errorf("%w: unknown incident policy %q", ErrInvalidConfig, c.IncidentPolicy)
	}
	switch c.RewardPolicy {
	case RewardFixed:
	case RewardRandom:
		if c.XPRange.Min <= 0 || c.XPRange.Max < c.XPRange.Min || c.XPRange.Max-c.XPRange.Min > maxRangeSpan {
			return fmt.Errorf("%w: xp range %+v", ErrInvalidConfig, c.XPRange)
		}
		if c.CurrencyRange.Min < 0 || c.CurrencyRange.Max < c.CurrencyRange.Min || c.CurrencyRange.Max-c.CurrencyRange.Min > maxRangeSpan {
			return fmt.Errorf("%w: currency range %+v", ErrInvalidConfig, c.CurrencyRange)
		}
	default:
		return fmt.Errorf("%w: unknown reward policy %q", ErrInvalidConfig, c.RewardPolicy)
	}
	return nil
}
