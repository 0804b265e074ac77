package dispatch

import (
	"errors"
	"fmt"
	"time"
)

type Resolution string

const (
	// ResolutionInstant completes a mission and pays out at dispatch time.
	ResolutionInstant Resolution = "instant"
	// ResolutionDeferred leaves the mission assigned until Complete is called.
	ResolutionDeferred Resolution = "deferred"
)

var ErrInvalidConfig = errors.New("invalid dispatch config")

type Config struct {
	BusyDuration    time.Duration
	Resolution      Resolution
	CapabilityCheck bool
	Exclusive       bool
	MultiVehicle    bool
}

func DefaultConfig() Config {
	return Config{
		BusyDuration:    30 * time.Second,
		Resolution:      ResolutionInstant,
		CapabilityCheck: true,
		Exclusive:       true,
		MultiVehicle:    true,
	}
}

func (c Config) Validate() error {
	if c.BusyDuration < 0 {
		return fmt.Errorf("%w: busy duration must not be negative", ErrInvalidConfig)
	}
	switch c.Resolution {
	case ResolutionInstant, ResolutionDeferred:
		return nil
	default:
		return fmt.Errorf("%w: unknown resolution %q", ErrInvalidConfig, c.Resolution)
	}
}
