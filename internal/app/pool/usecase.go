package pool

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"emergencyworldwide/internal/app/ports"
	"emergencyworldwide/internal/domain/catalog"
	"emergencyworldwide/internal/domain/economy"
	"emergencyworldwide/internal/domain/fleet"
)

const (
	KindBuilding = "building"
	KindVehicle  = "vehicle"
)

var ErrInvalidRequest = errors.New("invalid pool request")

// Ledger is the slice of the economy ledger the pool needs.
type Ledger interface {
	State(ctx context.Context) (economy.Progression, error)
	Debit(ctx context.Context, amount int64) (economy.Progression, error)
	Credit(ctx context.Context, amount int64) (economy.Progression, error)
}

type RefundRates struct {
	Building float64
	Vehicle  float64
}

// UseCase manages owned buildings and vehicles. Purchases and refunds pair
// the entity change with the ledger change inside one transaction.
type UseCase struct {
	TxManager ports.TxManager
	Buildings ports.BuildingRepository
	Vehicles  ports.VehicleRepository
	Ledger    Ledger
	Catalog   *catalog.Catalog
	Rates     RefundRates
	Metrics   ports.GameMetrics
	Now       func() time.Time
	NewID     func() string
}

func (u UseCase) PurchaseBuilding(ctx context.Context, req PurchaseBuildingRequest) (PurchaseBuildingResponse, error) {
	req.Type = strings.TrimSpace(req.Type)
	if req.Type == "" {
		return PurchaseBuildingResponse{}, u.reject(ErrInvalidRequest)
	}
	if !req.Location.Valid() {
		return PurchaseBuildingResponse{}, u.reject(fmt.Errorf("%w: %+v", fleet.ErrInvalidLocation, req.Location))
	}
	def, err := u.Catalog.Building(req.Type)
	if err != nil {
		return PurchaseBuildingResponse{}, u.reject(err)
	}

	var out PurchaseBuildingResponse
	err = u.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := u.ensureFunds(txCtx, def.Cost); err != nil {
			return err
		}
		b := fleet.Building{
			ID:        u.newID(),
			Type:      def.Type,
			Location:  req.Location,
			Cost:      def.Cost,
			CreatedAt: u.now(),
		}
		if err := u.Buildings.Create(txCtx, b); err != nil {
			return fmt.Errorf("create building: %w", err)
		}
		p, err := u.Ledger.Debit(txCtx, def.Cost)
		if err != nil {
			if delErr := u.Buildings.Delete(txCtx, b.ID); delErr != nil {
				return errors.Join(err, delErr)
			}
			return err
		}
		out = PurchaseBuildingResponse{Building: b, Budget: p.Budget}
		return nil
	})
	if err != nil {
		return PurchaseBuildingResponse{}, u.reject(err)
	}
	u.metrics().RecordPurchase(KindBuilding)
	return out, nil
}

func (u UseCase) PurchaseVehicle(ctx context.Context, req PurchaseVehicleRequest) (PurchaseVehicleResponse, error) {
	req.Type = strings.TrimSpace(req.Type)
	req.BuildingID = strings.TrimSpace(req.BuildingID)
	if req.Type == "" || req.BuildingID == "" {
		return PurchaseVehicleResponse{}, u.reject(ErrInvalidRequest)
	}
	def, err := u.Catalog.Vehicle(req.Type)
	if err != nil {
		return PurchaseVehicleResponse{}, u.reject(err)
	}

	var out PurchaseVehicleResponse
	err = u.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		b, err := u.Buildings.Get(txCtx, req.BuildingID)
		if err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return fmt.Errorf("%w: %s", fleet.ErrBuildingNotFound, req.BuildingID)
			}
			return err
		}
		allowed, err := u.Catalog.AllowsVehicle(b.Type, def.Type)
		if err != nil {
			return err
		}
		if !allowed {
			return fmt.Errorf("%w: %s at %s", fleet.ErrVehicleNotAllowed, def.Type, b.Type)
		}
		if err := u.ensureFunds(txCtx, def.Cost); err != nil {
			return err
		}
		v := fleet.Vehicle{
			ID:         u.newID(),
			Type:       def.Type,
			BuildingID: b.ID,
			Cost:       def.Cost,
			Status:     fleet.VehicleAvailable,
			CreatedAt:  u.now(),
		}
		if err := u.Vehicles.Create(txCtx, v); err != nil {
			return fmt.Errorf("create vehicle: %w", err)
		}
		p, err := u.Ledger.Debit(txCtx, def.Cost)
		if err != nil {
			if delErr := u.Vehicles.Delete(txCtx, v.ID); delErr != nil {
				return errors.Join(err, delErr)
			}
			return err
		}
		out = PurchaseVehicleResponse{Vehicle: v, Budget: p.Budget}
		return nil
	})
	if err != nil {
		return PurchaseVehicleResponse{}, u.reject(err)
	}
	u.metrics().RecordPurchase(KindVehicle)
	return out, nil
}

func (u UseCase) RefundBuilding(ctx context.Context, id string) (RefundResponse, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return RefundResponse{}, u.reject(ErrInvalidRequest)
	}
	var out RefundResponse
	err := u.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		b, err := u.Buildings.Get(txCtx, id)
		if err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return fmt.Errorf("%w: %s", fleet.ErrBuildingNotFound, id)
			}
			return err
		}
		attached, err := u.Vehicles.ListByBuilding(txCtx, id)
		if err != nil {
			return err
		}
		if len(attached) > 0 {
			return fmt.Errorf("%w: %d vehicle(s)", fleet.ErrHasAttachedVehicles, len(attached))
		}
		amount := economy.RefundAmount(b.Cost, u.Rates.Building)
		p, err := u.Ledger.Credit(txCtx, amount)
		if err != nil {
			return err
		}
		if err := u.Buildings.Delete(txCtx, id); err != nil {
			if _, revErr := u.Ledger.Debit(txCtx, amount); revErr != nil {
				return errors.Join(err, revErr)
			}
			return fmt.Errorf("delete building: %w", err)
		}
		out = RefundResponse{ID: id, Kind: KindBuilding, Refunded: amount, Budget: p.Budget}
		return nil
	})
	if err != nil {
		return RefundResponse{}, u.reject(err)
	}
	u.metrics().RecordRefund(KindBuilding)
	return out, nil
}

func (u UseCase) RefundVehicle(ctx context.Context, id string) (RefundResponse, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return RefundResponse{}, u.reject(ErrInvalidRequest)
	}
	var out RefundResponse
	err := u.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		v, err := u.Vehicles.Get(txCtx, id)
		if err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return fmt.Errorf("%w: %s", fleet.ErrVehicleNotFound, id)
			}
			return err
		}
		if !v.Available() {
			return fmt.Errorf("%w: %s", fleet.ErrVehicleBusy, id)
		}
		amount := economy.RefundAmount(v.Cost, u.Rates.Vehicle)
		p, err := u.Ledger.Credit(txCtx, amount)
		if err != nil {
			return err
		}
		if err := u.Vehicles.Delete(txCtx, id); err != nil {
			if _, revErr := u.Ledger.Debit(txCtx, amount); revErr != nil {
				return errors.Join(err, revErr)
			}
			return fmt.Errorf("delete vehicle: %w", err)
		}
		out = RefundResponse{ID: id, Kind: KindVehicle, Refunded: amount, Budget: p.Budget}
		return nil
	})
	if err != nil {
		return RefundResponse{}, u.reject(err)
	}
	u.metrics().RecordRefund(KindVehicle)
	return out, nil
}

// SetBusy allocates an available vehicle to a mission. A vehicle that no
// longer exists is skipped.
func (u UseCase) SetBusy(ctx context.Context, id, missionID string, until time.Time) error {
	return u.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		v, err := u.Vehicles.Get(txCtx, id)
		if err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return nil
			}
			return err
		}
		if err := v.Allocate(missionID, until); err != nil {
			return fmt.Errorf("%w: %s", err, id)
		}
		return u.Vehicles.Update(txCtx, v)
	})
}

// SetAvailable clears a vehicle's allocation. It reports whether the vehicle
// changed; missing and already available vehicles are no-ops.
func (u UseCase) SetAvailable(ctx context.Context, id string) (bool, error) {
	released := false
	err := u.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		v, err := u.Vehicles.Get(txCtx, id)
		if err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return nil
			}
			return err
		}
		if !v.Release() {
			return nil
		}
		released = true
		return u.Vehicles.Update(txCtx, v)
	})
	return released, err
}

func (u UseCase) ListBuildings(ctx context.Context) ([]fleet.Building, error) {
	var out []fleet.Building
	err := u.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		out, err = u.Buildings.List(txCtx)
		return err
	})
	return out, err
}

func (u UseCase) ListVehicles(ctx context.Context) ([]fleet.Vehicle, error) {
	var out []fleet.Vehicle
	err := u.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		out, err = u.Vehicles.List(txCtx)
		return err
	})
	return out, err
}

func (u UseCase) ListVehiclesByBuilding(ctx context.Context, buildingID string) ([]fleet.Vehicle, error) {
	var out []fleet.Vehicle
	err := u.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := u.Buildings.Get(txCtx, buildingID); err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return fmt.Errorf("%w: %s", fleet.ErrBuildingNotFound, buildingID)
			}
			return err
		}
		var err error
		out, err = u.Vehicles.ListByBuilding(txCtx, buildingID)
		return err
	})
	return out, err
}

func (u UseCase) ensureFunds(ctx context.Context, cost int64) error {
	p, err := u.Ledger.State(ctx)
	if err != nil {
		return err
	}
	if p.Budget < cost {
		return fmt.Errorf("%w: need %d, have %d", economy.ErrInsufficientFunds, cost, p.Budget)
	}
	return nil
}

func (u UseCase) reject(err error) error {
	u.metrics().RecordRejection(RejectionCode(err))
	return err
}

// RejectionCode names the business rule behind err for metrics and transport.
func RejectionCode(err error) string {
	switch {
	case errors.Is(err, economy.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, catalog.ErrUnknownItemType):
		return "unknown_item_type"
	case errors.Is(err, fleet.ErrBuildingNotFound):
		return "building_not_found"
	case errors.Is(err, fleet.ErrVehicleNotFound):
		return "vehicle_not_found"
	case errors.Is(err, fleet.ErrHasAttachedVehicles):
		return "has_attached_vehicles"
	case errors.Is(err, fleet.ErrVehicleBusy):
		return "vehicle_busy"
	case errors.Is(err, fleet.ErrVehicleNotAllowed):
		return "vehicle_not_allowed"
	case errors.Is(err, fleet.ErrInvalidLocation):
		return "invalid_location"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return "internal"
	}
}

func (u UseCase) metrics() ports.GameMetrics {
	if u.Metrics == nil {
		return ports.NopMetrics{}
	}
	return u.Metrics
}

func (u UseCase) newID() string {
	if u.NewID != nil {
		return u.NewID()
	}
	return uuid.NewString()
}

func (u UseCase) now() time.Time {
	if u.Now != nil {
		return u.Now()
	}
	return time.Now()
}
