package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"emergencyworldwide/internal/app/ports"
	"emergencyworldwide/internal/domain/catalog"
	"emergencyworldwide/internal/domain/fleet"
)

// Ledger is the part of the economy ledger driven by the scheduler.
type Ledger interface {
	AccrueIncome(ctx context.Context) (int64, error)
	RecordExpired(ctx context.Context, n int) error
}

type TickReport struct {
	Expired []fleet.Mission `json:"expired"`
	Spawned *fleet.Mission  `json:"spawned,omitempty"`
	Income  int64           `json:"income"`
}

// Scheduler spawns missions next to owned buildings and expires the ones
// nobody answered. Run drives it on a timer; Tick and SpawnOne run one step.
type Scheduler struct {
	TxManager ports.TxManager
	Buildings ports.BuildingRepository
	Missions  ports.MissionRepository
	Ledger    Ledger
	Catalog   *catalog.Catalog
	Random    ports.Random
	Publisher ports.Publisher
	Metrics   ports.GameMetrics
	Logger    *slog.Logger
	Config    Config
	Now       func() time.Time
	NewID     func() string

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// Tick runs cleanup, income accrual and one spawn attempt. A panic inside the
// tick is recovered and returned as an error.
func (s *Scheduler) Tick(ctx context.Context) (report TickReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scheduler tick panic: %v", r)
		}
	}()

	expired, err := s.Sweep(ctx)
	if err != nil {
		return report, fmt.Errorf("sweep: %w", err)
	}
	report.Expired = expired

	if s.Ledger != nil {
		income, err := s.Ledger.AccrueIncome(ctx)
		if err != nil {
			return report, fmt.Errorf("accrue income: %w", err)
		}
		report.Income = income
		if income > 0 {
			s.publish(ctx, ports.Event{
				Name:       ports.EventStateUpdated,
				OccurredAt: s.now(),
				Payload:    map[string]any{"income": income},
			})
		}
	}

	spawned, err := s.SpawnOne(ctx)
	if err != nil {
		return report, fmt.Errorf("spawn: %w", err)
	}
	report.Spawned = spawned
	return report, nil
}

// Sweep expires every active mission whose deadline has passed.
func (s *Scheduler) Sweep(ctx context.Context) ([]fleet.Mission, error) {
	now := s.now()
	var expired []fleet.Mission
	err := s.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		expired = nil
		active, err := s.Missions.ListByStatus(txCtx, fleet.MissionActive)
		if err != nil {
			return err
		}
		for _, m := range active {
			if !m.DeadlinePassed(now) {
				continue
			}
			if err := m.Expire(); err != nil {
				return err
			}
			if err := s.Missions.Update(txCtx, m); err != nil {
				return fmt.Errorf("expire mission %s: %w", m.ID, err)
			}
			expired = append(expired, m)
		}
		if len(expired) > 0 && s.Ledger != nil {
			return s.Ledger.RecordExpired(txCtx, len(expired))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, m := range expired {
		s.metrics().RecordMissionExpired()
		s.logger().Info("mission expired", "mission_id", m.ID, "type", m.Type)
		s.publish(ctx, ports.Event{
			Name:       ports.EventMissionExpired,
			OccurredAt: now,
			Payload:    missionPayload(m),
		})
	}
	return expired, nil
}

// SpawnOne creates one mission next to a random owned building. It returns
// nil without error when no building is owned.
func (s *Scheduler) SpawnOne(ctx context.Context) (*fleet.Mission, error) {
	now := s.now()
	var created *fleet.Mission
	err := s.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		buildings, err := s.Buildings.List(txCtx)
		if err != nil {
			return err
		}
		if len(buildings) == 0 {
			return nil
		}
		anchor := buildings[s.Random.Intn(len(buildings))]

		incidentType, err := s.pickIncident(anchor)
		if err != nil {
			return err
		}
		incident, err := s.Catalog.Incident(incidentType)
		if err != nil {
			return err
		}

		m := fleet.Mission{
			ID:               s.newID(),
			Type:             incident.Type,
			Description:      incident.Description,
			Location:         anchor.Location.Offset(s.offset(), s.offset()),
			Status:           fleet.MissionActive,
			Reward:           s.reward(incident),
			AnchorBuildingID: anchor.ID,
			CreatedAt:        now,
		}
		if s.Config.Expiry > 0 {
			deadline := now.Add(s.Config.Expiry)
			m.ExpiresAt = &deadline
		}
		if err := s.Missions.Create(txCtx, m); err != nil {
			return fmt.Errorf("create mission: %w", err)
		}
		created = &m
		return nil
	})
	if err != nil {
		return nil, err
	}
	if created == nil {
		s.logger().Debug("no buildings owned, skipping spawn")
		return nil, nil
	}
	s.metrics().RecordMissionSpawned(created.Type)
	s.logger().Info("mission spawned", "mission_id", created.ID, "type", created.Type, "anchor_building_id", created.AnchorBuildingID)
	s.publish(ctx, ports.Event{
		Name:       ports.EventNewMission,
		OccurredAt: now,
		Payload:    missionPayload(*created),
	})
	return created, nil
}

func (s *Scheduler) pickIncident(anchor fleet.Building) (string, error) {
	var pool []string
	switch s.Config.IncidentPolicy {
	case IncidentAnchor:
		types, err := s.Catalog.BuildingIncidents(anchor.Type)
		if err != nil {
			return "", err
		}
		pool = types
	default:
		pool = s.Catalog.IncidentTypes()
	}
	if len(pool) == 0 {
		return "", errors.New("no incident types available")
	}
	return pool[s.Random.Intn(len(pool))], nil
}

func (s *Scheduler) offset() float64 {
	if s.Config.Radius == 0 {
		return 0
	}
	return (s.Random.Float64()*2 - 1) * s.Config.Radius
}

func (s *Scheduler) reward(incident catalog.IncidentDef) fleet.Reward {
	if s.Config.RewardPolicy != RewardRandom {
		return fleet.Reward{XP: incident.XP, Currency: incident.Currency}
	}
	return fleet.Reward{
		XP:       s.between(s.Config.XPRange),
		Currency: s.between(s.Config.CurrencyRange),
	}
}

func (s *Scheduler) between(r Range) int64 {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + int64(s.Random.Intn(int(r.Max-r.Min+1)))
}

// Run ticks until ctx is cancelled or Stop is called. Failed ticks are
// logged and counted; the loop keeps going.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("scheduler already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true
	done := s.done
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		close(done)
	}()

	s.logger().Info("mission scheduler started", "interval", s.Config.Interval, "align_to_minute", s.Config.AlignToMinute)
	timer := time.NewTimer(s.NextDelay(s.now()))
	defer timer.Stop()
	for {
		select {
		case <-runCtx.Done():
			s.logger().Info("mission scheduler stopped")
			return nil
		case <-timer.C:
			if _, err := s.Tick(runCtx); err != nil && runCtx.Err() == nil {
				s.metrics().RecordTickFailure()
				s.logger().Error("scheduler tick failed", "error", err)
			}
			timer.Reset(s.NextDelay(s.now()))
		}
	}
}

// Stop cancels a running loop and waits for it to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// NextDelay is the wait before the next tick. With minute alignment ticks
// land on multiples of the interval since the Unix epoch.
func (s *Scheduler) NextDelay(now time.Time) time.Duration {
	interval := s.Config.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	if !s.Config.AlignToMinute {
		return interval
	}
	next := now.Truncate(interval).Add(interval)
	return next.Sub(now)
}

func (s *Scheduler) publish(ctx context.Context, evt ports.Event) {
	if s.Publisher == nil {
		return
	}
	if err := s.Publisher.Publish(ctx, evt); err != nil {
		s.logger().Warn("publish event failed", "event", evt.Name, "error", err)
	}
}

func missionPayload(m fleet.Mission) map[string]any {
	return map[string]any{
		"mission_id": m.ID,
		"mission":    m,
		"status":     string(m.Status),
		"type":       m.Type,
	}
}

func (s *Scheduler) metrics() ports.GameMetrics {
	if s.Metrics == nil {
		return ports.NopMetrics{}
	}
	return s.Metrics
}

func (s *Scheduler) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s *Scheduler) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *Scheduler) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
