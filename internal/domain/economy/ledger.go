package economy

import (
	"fmt"
	"math"
	"time"
)

func (p Progression) Debit(amount int64) (Progression, error) {
	if amount < 0 {
		return p, fmt.Errorf("%w: debit %d", ErrInvalidAmount, amount)
	}
	if amount > p.Budget {
		return p, fmt.Errorf("%w: need %d, have %d", ErrInsufficientFunds, amount, p.Budget)
	}
	p.Budget -= amount
	return p, nil
}

func (p Progression) Credit(amount int64) (Progression, error) {
	if amount < 0 {
		return p, fmt.Errorf("%w: credit %d", ErrInvalidAmount, amount)
	}
	p.Budget += amount
	return p, nil
}

// Award adds baseXP (doubled when the season multiplier is active) to both the
// cumulative and the season track. Rank only ever moves up. Once the season
// track reaches its max level, season XP is held at exactly XPPerLevel.
func (r Rules) Award(p Progression, baseXP int64, seasonActive bool) (Progression, Award) {
	if baseXP < 0 {
		baseXP = 0
	}
	gained := baseXP
	if seasonActive {
		gained *= 2
	}
	out := Award{XP: gained, SeasonXP: gained, RankBefore: p.Rank, LevelBefore: p.SeasonLevel}

	p.XP += gained
	p.SeasonXP += gained

	for {
		next, ok := r.Ranks.Next(p.Rank)
		if !ok || p.XP < next.Threshold {
			break
		}
		p.Rank = next.Level
	}

	if p.SeasonLevel < 1 {
		p.SeasonLevel = 1
	}
	if r.Season.XPPerLevel > 0 {
		for p.SeasonXP >= r.Season.XPPerLevel {
			if p.SeasonLevel < r.Season.MaxLevel {
				p.SeasonXP -= r.Season.XPPerLevel
				p.SeasonLevel++
				continue
			}
			p.SeasonXP = r.Season.XPPerLevel
			break
		}
	}

	out.RankAfter = p.Rank
	out.LevelAfter = p.SeasonLevel
	return p, out
}

func (p Progression) PurchaseSeasonPass(price int64) (Progression, error) {
	if p.SeasonPass {
		return p, ErrAlreadyOwned
	}
	next, err := p.Debit(price)
	if err != nil {
		return p, err
	}
	next.SeasonPass = true
	return next, nil
}

// AccrueIncome pays every full income interval elapsed since LastIncomeAt at
// the current rank and advances LastIncomeAt by the paid intervals.
func (r Rules) AccrueIncome(p Progression, now time.Time) (Progression, int64) {
	if r.Income.Interval <= 0 {
		return p, 0
	}
	if p.LastIncomeAt.IsZero() {
		p.LastIncomeAt = now
		return p, 0
	}
	elapsed := now.Sub(p.LastIncomeAt)
	if elapsed < r.Income.Interval {
		return p, 0
	}
	cycles := int64(elapsed / r.Income.Interval)
	amount := cycles * (r.Income.Base + int64(p.Rank)*r.Income.PerRank)
	p.Budget += amount
	p.LastIncomeAt = p.LastIncomeAt.Add(time.Duration(cycles) * r.Income.Interval)
	return p, amount
}

// RefundAmount is floor(cost*rate).
func RefundAmount(cost int64, rate float64) int64 {
	if cost <= 0 || rate <= 0 {
		return 0
	}
	return int64(math.Floor(float64(cost) * rate))
}
