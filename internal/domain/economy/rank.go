package economy

import (
	"errors"
	"fmt"
	"sort"
)

type RankTier struct {
	Level     int    `json:"level" mapstructure:"level"`
	Name      string `json:"name" mapstructure:"name"`
	Threshold int64  `json:"threshold" mapstructure:"threshold"`
}

// RankTable is ordered by Level; thresholds are non-decreasing.
type RankTable []RankTier

func DefaultRankTable() RankTable {
	return RankTable{
		{Level: 1, Name: "Recruit", Threshold: 0},
		{Level: 2, Name: "Firefighter", Threshold: 1000},
		{Level: 3, Name: "Senior Firefighter", Threshold: 2500},
		{Level: 4, Name: "Leading Firefighter", Threshold: 5000},
		{Level: 5, Name: "Station Officer", Threshold: 10000},
		{Level: 6, Name: "Senior Station Officer", Threshold: 20000},
		{Level: 7, Name: "District Officer", Threshold: 35000},
		{Level: 8, Name: "Chief Officer", Threshold: 50000},
	}
}

func (t RankTable) Validate() error {
	if len(t) == 0 {
		return errors.Join(ErrInvalidRules, errors.New("rank table is empty"))
	}
	sorted := sort.SliceIsSorted(t, func(i, j int) bool { return t[i].Level < t[j].Level })
	if !sorted {
		return errors.Join(ErrInvalidRules, errors.New("rank table must be ordered by level"))
	}
	if t[0].Threshold != 0 {
		return errors.Join(ErrInvalidRules, errors.New("first rank threshold must be 0"))
	}
	for i := 1; i < len(t); i++ {
		if t[i].Level == t[i-1].Level {
			return errors.Join(ErrInvalidRules, fmt.Errorf("duplicate rank level %d", t[i].Level))
		}
		if t[i].Threshold < t[i-1].Threshold {
			return errors.Join(ErrInvalidRules, fmt.Errorf("rank %d threshold decreases", t[i].Level))
		}
	}
	return nil
}

// RankFor returns the highest level whose threshold is reached by xp.
func (t RankTable) RankFor(xp int64) int {
	if len(t) == 0 {
		return 0
	}
	level := t[0].Level
	for _, tier := range t {
		if xp < tier.Threshold {
			break
		}
		level = tier.Level
	}
	return level
}

func (t RankTable) Tier(level int) (RankTier, bool) {
	for _, tier := range t {
		if tier.Level == level {
			return tier, true
		}
	}
	return RankTier{}, false
}

// Next returns the tier directly above level, if any.
func (t RankTable) Next(level int) (RankTier, bool) {
	for _, tier := range t {
		if tier.Level > level {
			return tier, true
		}
	}
	return RankTier{}, false
}

func (t RankTable) Name(level int) string {
	if tier, ok := t.Tier(level); ok {
		return tier.Name
	}
	return ""
}
