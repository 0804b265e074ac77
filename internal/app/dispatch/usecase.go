package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"emergencyworldwide/internal/app/ledger"
	"emergencyworldwide/internal/app/ports"
	"emergencyworldwide/internal/domain/catalog"
	"emergencyworldwide/internal/domain/economy"
	"emergencyworldwide/internal/domain/fleet"
)

var ErrInvalidRequest = errors.New("invalid dispatch request")

// Pool is the allocation side of the resource pool.
type Pool interface {
	SetBusy(ctx context.Context, id, missionID string, until time.Time) error
	SetAvailable(ctx context.Context, id string) (bool, error)
}

type Ledger interface {
	Settle(ctx context.Context, reward fleet.Reward) (ledger.Settlement, error)
}

// Coordinator binds vehicles to missions and releases them after the
// configured busy duration.
type Coordinator struct {
	TxManager ports.TxManager
	Missions  ports.MissionRepository
	Vehicles  ports.VehicleRepository
	Pool      Pool
	Ledger    Ledger
	Catalog   *catalog.Catalog
	Releaser  *Releaser
	Publisher ports.Publisher
	Metrics   ports.GameMetrics
	Logger    *slog.Logger
	Config    Config
	Now       func() time.Time

	releaserOnce sync.Once
}

// Dispatch validates the whole vehicle set before touching any of it: either
// every vehicle is allocated to the mission or nothing changes.
func (c *Coordinator) Dispatch(ctx context.Context, req Request) (Response, error) {
	req.MissionID = strings.TrimSpace(req.MissionID)
	if err := c.validateRequest(req); err != nil {
		return Response{}, c.reject(err)
	}

	now := c.now()
	releaseAt := now.Add(c.Config.BusyDuration)
	var out Response
	err := c.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		m, err := c.Missions.Get(txCtx, req.MissionID)
		if err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return fmt.Errorf("%w: %s", fleet.ErrMissionNotFound, req.MissionID)
			}
			return err
		}
		if !m.Dispatchable(now) {
			return fmt.Errorf("%w: %s is %s", fleet.ErrMissionNotActive, m.ID, m.Status)
		}

		held, err := c.assignedVehicles(txCtx)
		if err != nil {
			return err
		}
		for _, id := range req.VehicleIDs {
			if err := c.checkVehicle(txCtx, id, m, held); err != nil {
				return err
			}
		}

		vehicles := make([]fleet.Vehicle, 0, len(req.VehicleIDs))
		for _, id := range req.VehicleIDs {
			if err := c.Pool.SetBusy(txCtx, id, m.ID, releaseAt); err != nil {
				return fmt.Errorf("allocate vehicle %s: %w", id, err)
			}
			v, err := c.Vehicles.Get(txCtx, id)
			if err != nil {
				return err
			}
			vehicles = append(vehicles, v)
		}

		if c.Config.Resolution == ResolutionDeferred {
			err = m.Assign(req.VehicleIDs, now)
		} else {
			err = m.Resolve(req.VehicleIDs, now)
		}
		if err != nil {
			return err
		}
		if err := c.Missions.Update(txCtx, m); err != nil {
			return fmt.Errorf("update mission: %w", err)
		}

		out = Response{Mission: m, Vehicles: vehicles, ReleaseAt: releaseAt}
		if m.Status == fleet.MissionCompleted {
			s, err := c.Ledger.Settle(txCtx, m.Reward)
			if err != nil {
				return fmt.Errorf("settle mission %s: %w", m.ID, err)
			}
			out.Settlement = &s
		}
		return nil
	})
	if err != nil {
		return Response{}, c.reject(err)
	}

	for _, v := range out.Vehicles {
		c.scheduleRelease(v.ID, out.Mission.ID, c.Config.BusyDuration)
	}
	c.metrics().RecordDispatch(len(out.Vehicles))
	if out.Mission.Status == fleet.MissionCompleted {
		c.metrics().RecordMissionCompleted()
	}
	c.logger().Info("mission dispatched",
		"mission_id", out.Mission.ID,
		"vehicle_ids", req.VehicleIDs,
		"status", out.Mission.Status,
	)
	c.publishMission(ctx, out.Mission, out.Settlement)
	return out, nil
}

func (c *Coordinator) validateRequest(req Request) error {
	if req.MissionID == "" || len(req.VehicleIDs) == 0 {
		return fmt.Errorf("%w: mission id and at least one vehicle id are required", ErrInvalidRequest)
	}
	if !c.Config.MultiVehicle && len(req.VehicleIDs) > 1 {
		return fmt.Errorf("%w: only one vehicle per dispatch", ErrInvalidRequest)
	}
	seen := make(map[string]struct{}, len(req.VehicleIDs))
	for _, id := range req.VehicleIDs {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: empty vehicle id", ErrInvalidRequest)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate vehicle id %s", ErrInvalidRequest, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// assignedVehicles maps every vehicle listed on an assigned mission to that
// mission. A released vehicle keeps its place there until the mission is
// completed, so exclusivity cannot rely on Vehicle.MissionID alone.
func (c *Coordinator) assignedVehicles(ctx context.Context) (map[string]string, error) {
	if !c.Config.Exclusive {
		return nil, nil
	}
	assigned, err := c.Missions.ListByStatus(ctx, fleet.MissionAssigned)
	if err != nil {
		return nil, fmt.Errorf("list assigned missions: %w", err)
	}
	held := make(map[string]string)
	for _, m := range assigned {
		for _, id := range m.VehicleIDs {
			held[id] = m.ID
		}
	}
	return held, nil
}

func (c *Coordinator) checkVehicle(ctx context.Context, id string, m fleet.Mission, held map[string]string) error {
	v, err := c.Vehicles.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return fmt.Errorf("%w: %s does not exist", fleet.ErrVehicleNotAvailable, id)
		}
		return err
	}
	if missionID, ok := held[id]; ok {
		return fmt.Errorf("%w: %s is on mission %s", fleet.ErrVehicleAlreadyAssigned, id, missionID)
	}
	if !v.Available() {
		if c.Config.Exclusive && v.MissionID != "" {
			held, err := c.Missions.Get(ctx, v.MissionID)
			switch {
			case err == nil && !held.Status.Terminal():
				return fmt.Errorf("%w: %s is on mission %s", fleet.ErrVehicleAlreadyAssigned, id, held.ID)
			case err != nil && !errors.Is(err, ports.ErrNotFound):
				return err
			}
		}
		return fmt.Errorf("%w: %s", fleet.ErrVehicleNotAvailable, id)
	}
	if c.Config.CapabilityCheck {
		ok, err := c.Catalog.CanRespond(v.Type, m.Type)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s cannot respond to %s", fleet.ErrIncompatibleVehicleType, v.Type, m.Type)
		}
	}
	return nil
}

// Complete resolves an assigned mission and pays its reward. Instantly
// resolved missions are never assigned, so they fail with ErrMissionNotAssigned.
func (c *Coordinator) Complete(ctx context.Context, missionID string) (CompleteResponse, error) {
	missionID = strings.TrimSpace(missionID)
	if missionID == "" {
		return CompleteResponse{}, c.reject(fmt.Errorf("%w: mission id is required", ErrInvalidRequest))
	}
	now := c.now()
	var out CompleteResponse
	err := c.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		m, err := c.Missions.Get(txCtx, missionID)
		if err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return fmt.Errorf("%w: %s", fleet.ErrMissionNotFound, missionID)
			}
			return err
		}
		if m.Status != fleet.MissionAssigned {
			return fmt.Errorf("%w: %s is %s", fleet.ErrMissionNotAssigned, m.ID, m.Status)
		}
		if err := m.Complete(now); err != nil {
			return err
		}
		if err := c.Missions.Update(txCtx, m); err != nil {
			return fmt.Errorf("update mission: %w", err)
		}
		s, err := c.Ledger.Settle(txCtx, m.Reward)
		if err != nil {
			return fmt.Errorf("settle mission %s: %w", m.ID, err)
		}
		out = CompleteResponse{Mission: m, Settlement: s}
		return nil
	})
	if err != nil {
		return CompleteResponse{}, c.reject(err)
	}
	c.metrics().RecordMissionCompleted()
	c.logger().Info("mission completed", "mission_id", out.Mission.ID, "xp_gained", out.Settlement.Award.XP)
	c.publishMission(ctx, out.Mission, &out.Settlement)
	return out, nil
}

// ListMissions returns missions for a filter: active (default), open, all or
// a single status name.
func (c *Coordinator) ListMissions(ctx context.Context, filter string) ([]fleet.Mission, error) {
	var statuses []fleet.MissionStatus
	switch filter {
	case "", FilterActive:
		statuses = []fleet.MissionStatus{fleet.MissionActive}
	case FilterOpen:
		statuses = []fleet.MissionStatus{fleet.MissionActive, fleet.MissionAssigned}
	case FilterAll:
	default:
		s := fleet.MissionStatus(filter)
		if !s.Valid() {
			return nil, fmt.Errorf("%w: unknown mission filter %q", ErrInvalidRequest, filter)
		}
		statuses = []fleet.MissionStatus{s}
	}
	var out []fleet.Mission
	err := c.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		out, err = c.Missions.ListByStatus(txCtx, statuses...)
		return err
	})
	return out, err
}

// Recover reconciles allocations left by a previous process: overdue
// vehicles are released now, the rest get a timer for the remaining time.
func (c *Coordinator) Recover(ctx context.Context) (RecoverReport, error) {
	var busy []fleet.Vehicle
	err := c.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		busy, err = c.Vehicles.ListByStatus(txCtx, fleet.VehicleDispatched)
		return err
	})
	if err != nil {
		return RecoverReport{}, fmt.Errorf("list dispatched vehicles: %w", err)
	}

	now := c.now()
	var report RecoverReport
	for _, v := range busy {
		if v.BusyUntil == nil || !now.Before(*v.BusyUntil) {
			if err := c.release(ctx, v.ID, v.MissionID); err != nil {
				return report, err
			}
			report.Released++
			continue
		}
		c.scheduleRelease(v.ID, v.MissionID, v.BusyUntil.Sub(now))
		report.Rearmed++
	}
	if len(busy) > 0 {
		c.logger().Info("recovered vehicle allocations", "released", report.Released, "rearmed", report.Rearmed)
	}
	return report, nil
}

// Close flushes every pending release.
func (c *Coordinator) Close() {
	c.releaser().Close()
}

func (c *Coordinator) scheduleRelease(vehicleID, missionID string, after time.Duration) {
	fire := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.release(ctx, vehicleID, missionID); err != nil {
			c.logger().Error("release vehicle failed", "vehicle_id", vehicleID, "mission_id", missionID, "error", err)
		}
	}
	if err := c.releaser().Schedule(after, fire); err != nil {
		// Closed releaser: release now.
		fire()
	}
}

// release frees a vehicle if it still holds the allocation for missionID.
func (c *Coordinator) release(ctx context.Context, vehicleID, missionID string) error {
	released := false
	err := c.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		v, err := c.Vehicles.Get(txCtx, vehicleID)
		if err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return nil
			}
			return err
		}
		if v.MissionID != missionID {
			return nil
		}
		released, err = c.Pool.SetAvailable(txCtx, vehicleID)
		return err
	})
	if err != nil {
		return err
	}
	if !released {
		return nil
	}
	c.logger().Info("vehicle released", "vehicle_id", vehicleID, "mission_id", missionID)
	c.publish(ctx, ports.Event{
		Name:       ports.EventVehicleReleased,
		OccurredAt: c.now(),
		Payload:    map[string]any{"vehicle_id": vehicleID, "mission_id": missionID},
	})
	return nil
}

func (c *Coordinator) publishMission(ctx context.Context, m fleet.Mission, s *ledger.Settlement) {
	payload := map[string]any{
		"mission_id": m.ID,
		"mission":    m,
		"status":     string(m.Status),
		"type":       m.Type,
	}
	if s != nil {
		payload["xp_gained"] = s.Award.XP
		payload["season_xp_gained"] = s.Award.SeasonXP
		payload["currency_gained"] = s.Currency
	}
	c.publish(ctx, ports.Event{Name: ports.EventMissionUpdated, OccurredAt: c.now(), Payload: payload})
	if s != nil {
		c.publish(ctx, ports.Event{Name: ports.EventStateUpdated, OccurredAt: c.now(), Payload: map[string]any{"state": s.State}})
	}
}

func (c *Coordinator) publish(ctx context.Context, evt ports.Event) {
	if c.Publisher == nil {
		return
	}
	if err := c.Publisher.Publish(ctx, evt); err != nil {
		c.logger().Warn("publish event failed", "event", evt.Name, "error", err)
	}
}

func (c *Coordinator) reject(err error) error {
	c.metrics().RecordRejection(RejectionCode(err))
	return err
}

// RejectionCode names the dispatch rule behind err.
func RejectionCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, fleet.ErrMissionNotFound):
		return "mission_not_found"
	case errors.Is(err, fleet.ErrMissionNotActive):
		return "mission_not_active"
	case errors.Is(err, fleet.ErrMissionNotAssigned):
		return "mission_not_assigned"
	case errors.Is(err, fleet.ErrVehicleAlreadyAssigned):
		return "vehicle_already_assigned"
	case errors.Is(err, fleet.ErrVehicleNotAvailable):
		return "vehicle_not_available"
	case errors.Is(err, fleet.ErrIncompatibleVehicleType):
		return "incompatible_vehicle_type"
	case errors.Is(err, catalog.ErrUnknownItemType):
		return "unknown_item_type"
	case errors.Is(err, economy.ErrInvalidAmount):
		return "invalid_amount"
	default:
		return "internal"
	}
}

func (c *Coordinator) releaser() *Releaser {
	c.releaserOnce.Do(func() {
		if c.Releaser == nil {
			c.Releaser = NewReleaser()
		}
	})
	return c.Releaser
}

func (c *Coordinator) metrics() ports.GameMetrics {
	if c.Metrics == nil {
		return ports.NopMetrics{}
	}
	return c.Metrics
}

func (c *Coordinator) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

func (c *Coordinator) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}
