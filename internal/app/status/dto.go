package status

import "emergencyworldwide/internal/domain/economy"

type Response struct {
	State             economy.Progression `json:"state"`
	RankName          string              `json:"rank_name"`
	NextRankName      string              `json:"next_rank_name,omitempty"`
	NextRankXP        *int64              `json:"next_rank_xp,omitempty"`
	XPPerSeasonLevel  int64               `json:"xp_per_season_level"`
	MaxSeasonLevel    int                 `json:"max_season_level"`
	Buildings         int                 `json:"buildings"`
	Vehicles          int                 `json:"vehicles"`
	VehiclesAvailable int                 `json:"vehicles_available"`
	ActiveMissions    int                 `json:"active_missions"`
}
