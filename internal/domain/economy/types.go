package economy

import (
	"errors"
	"time"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAlreadyOwned      = errors.New("already owned")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidRules      = errors.New("invalid economy rules")
)

// Progression is the single player's economic and progression record.
type Progression struct {
	Budget            int64     `json:"budget"`
	XP                int64     `json:"xp"`
	Rank              int       `json:"rank"`
	SeasonPass        bool      `json:"season_pass"`
	SeasonXP          int64     `json:"season_xp"`
	SeasonLevel       int       `json:"season_level"`
	MissionsCompleted int64     `json:"missions_completed"`
	MissionsExpired   int64     `json:"missions_expired"`
	LastIncomeAt      time.Time `json:"last_income_at"`
	Version           int64     `json:"version"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Award describes the effect of one progress award.
type Award struct {
	XP          int64 `json:"xp_gained"`
	SeasonXP    int64 `json:"season_xp_gained"`
	RankBefore  int   `json:"rank_before"`
	RankAfter   int   `json:"rank_after"`
	LevelBefore int   `json:"season_level_before"`
	LevelAfter  int   `json:"season_level_after"`
}

func (a Award) RankedUp() bool { return a.RankAfter > a.RankBefore }

type SeasonTrack struct {
	XPPerLevel int64 `json:"xp_per_level" mapstructure:"xpPerLevel"`
	MaxLevel   int   `json:"max_level" mapstructure:"maxLevel"`
}

// IncomePolicy pays Base + rank*PerRank every Interval. A zero interval disables income.
type IncomePolicy struct {
	Interval time.Duration `mapstructure:"interval"`
	Base     int64         `mapstructure:"base"`
	PerRank  int64         `mapstructure:"perRank"`
}

type Rules struct {
	StartingBudget int64
	Ranks          RankTable
	Season         SeasonTrack
	Income         IncomePolicy
}

func DefaultSeasonTrack() SeasonTrack {
	return SeasonTrack{XPPerLevel: 1000, MaxLevel: 100}
}

func DefaultIncomePolicy() IncomePolicy {
	return IncomePolicy{Interval: 2 * time.Minute, Base: 10000, PerRank: 2000}
}

func DefaultRules() Rules {
	return Rules{
		StartingBudget: 500000,
		Ranks:          DefaultRankTable(),
		Season:         DefaultSeasonTrack(),
		Income:         DefaultIncomePolicy(),
	}
}

func (r Rules) Validate() error {
	if r.StartingBudget < 0 {
		return errors.Join(ErrInvalidRules, errors.New("starting budget must not be negative"))
	}
	if err := r.Ranks.Validate(); err != nil {
		return err
	}
	if r.Season.XPPerLevel <= 0 || r.Season.MaxLevel < 1 {
		return errors.Join(ErrInvalidRules, errors.New("season track needs positive xp per level and max level"))
	}
	if r.Income.Interval < 0 || r.Income.Base < 0 || r.Income.PerRank < 0 {
		return errors.Join(ErrInvalidRules, errors.New("income policy must not be negative"))
	}
	return nil
}

// NewProgression returns the initial record for a fresh game.
func (r Rules) NewProgression(now time.Time) Progression {
	return Progression{
		Budget:       r.StartingBudget,
		Rank:         r.Ranks.RankFor(0),
		SeasonLevel:  1,
		LastIncomeAt: now,
		UpdatedAt:    now,
	}
}
