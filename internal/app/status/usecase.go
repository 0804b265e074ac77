package status

import (
	"context"

	"emergencyworldwide/internal/app/ports"
	"emergencyworldwide/internal/domain/economy"
	"emergencyworldwide/internal/domain/fleet"
)

type Ledger interface {
	AccrueIncome(ctx context.Context) (int64, error)
	State(ctx context.Context) (economy.Progression, error)
}

type UseCase struct {
	TxManager ports.TxManager
	Ledger    Ledger
	Buildings ports.BuildingRepository
	Vehicles  ports.VehicleRepository
	Missions  ports.MissionRepository
	Rules     economy.Rules
}

// Execute pays any income owed, then reports the progression record with
// rank names and fleet counts.
func (u UseCase) Execute(ctx context.Context) (Response, error) {
	var resp Response
	err := u.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := u.Ledger.AccrueIncome(txCtx); err != nil {
			return err
		}
		state, err := u.Ledger.State(txCtx)
		if err != nil {
			return err
		}
		buildings, err := u.Buildings.List(txCtx)
		if err != nil {
			return err
		}
		vehicles, err := u.Vehicles.List(txCtx)
		if err != nil {
			return err
		}
		active, err := u.Missions.ListByStatus(txCtx, fleet.MissionActive)
		if err != nil {
			return err
		}

		resp = Response{
			State:            state,
			RankName:         u.Rules.Ranks.Name(state.Rank),
			XPPerSeasonLevel: u.Rules.Season.XPPerLevel,
			MaxSeasonLevel:   u.Rules.Season.MaxLevel,
			Buildings:        len(buildings),
			Vehicles:         len(vehicles),
			ActiveMissions:   len(active),
		}
		if next, ok := u.Rules.Ranks.Next(state.Rank); ok {
			threshold := next.Threshold
			resp.NextRankName = next.Name
			resp.NextRankXP = &threshold
		}
		for _, v := range vehicles {
			if v.Available() {
				resp.VehiclesAvailable++
			}
		}
		return nil
	})
	return resp, err
}
