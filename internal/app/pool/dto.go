package pool

import "emergencyworldwide/internal/domain/fleet"

type PurchaseBuildingRequest struct {
	Type     string         `json:"type"`
	Location fleet.Location `json:"location"`
}

type PurchaseBuildingResponse struct {
	Building fleet.Building `json:"building"`
	Budget   int64          `json:"budget"`
}

type PurchaseVehicleRequest struct {
	Type       string `json:"type"`
	BuildingID string `json:"building_id"`
}

type PurchaseVehicleResponse struct {
	Vehicle fleet.Vehicle `json:"vehicle"`
	Budget  int64         `json:"budget"`
}

type RefundResponse struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Refunded int64  `json:"refunded"`
	Budget   int64  `json:"budget"`
}
